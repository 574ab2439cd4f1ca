package variant

import "fmt"

// Value is a sum value: exactly one alternative of its Set is live.
//
// The zero Value is invalid and every operation except IsValid, Alternatives
// and String panics with ErrInvalidValue. Valid values are produced only by
// Of, New, Emplace and the conversion functions, so a valid Value always
// holds an alternative.
//
// Value is a plain value type. Assigning it copies the discriminant and the
// stored alternative; later mutation through CallMut or Modify stores a fresh
// copy, so two copies never observe each other's changes.
type Value struct {
	set *Set
	tag Tag
	val any
}

// Of returns a Value holding x as alternative X of s.
func Of[X any](s *Set, x X) (Value, error) {
	id := TypeOf[X]()
	tag, ok := s.TagOf(id)
	if !ok {
		return Value{}, &SetError{Set: s.Name(), Alternative: id, Err: ErrNotMember}
	}
	v := Value{set: s, tag: tag, val: x}
	v.check()
	return v, nil
}

// MustOf is like Of but panics when X is not an alternative of s.
func MustOf[X any](s *Set, x X) Value {
	v, err := Of(s, x)
	if err != nil {
		panic(err)
	}
	return v
}

// New returns a Value holding x, selecting the alternative by x's dynamic type.
func New(s *Set, x any) (Value, error) {
	id := typeIDOf(x)
	tag, ok := s.TagOf(id)
	if !ok {
		return Value{}, &SetError{Set: s.Name(), Alternative: id, Err: ErrNotMember}
	}
	return Value{set: s, tag: tag, val: x}, nil
}

// Emplace constructs alternative X directly in the value. When *X implements
// Defaulter its Default method runs first; the init functions are then
// applied in order.
func Emplace[X any](s *Set, init ...func(*X)) (Value, error) {
	id := TypeOf[X]()
	tag, ok := s.TagOf(id)
	if !ok {
		return Value{}, &SetError{Set: s.Name(), Alternative: id, Err: ErrNotMember}
	}
	p := new(X)
	if d, ok := any(p).(Defaulter); ok {
		d.Default()
	}
	for _, f := range init {
		f(p)
	}
	v := Value{set: s, tag: tag, val: *p}
	v.check()
	return v, nil
}

// MustEmplace is like Emplace but panics when X is not an alternative of s.
func MustEmplace[X any](s *Set, init ...func(*X)) Value {
	v, err := Emplace(s, init...)
	if err != nil {
		panic(err)
	}
	return v
}

// IsValid reports whether v holds an alternative.
func (v Value) IsValid() bool {
	return v.val != nil
}

func (v Value) mustValid() {
	if v.val == nil {
		panic(ErrInvalidValue)
	}
}

// Alternatives returns the set v belongs to. It is nil for the zero Value.
func (v Value) Alternatives() *Set {
	return v.set
}

// Tag returns the discriminant.
func (v Value) Tag() Tag {
	v.mustValid()
	return v.tag
}

// Type returns the identity token of the active alternative.
func (v Value) Type() TypeID {
	v.mustValid()
	return v.set.alts[v.tag]
}

// Interface returns the active alternative boxed in an interface.
func (v Value) Interface() any {
	v.mustValid()
	v.check()
	return v.val
}

func (v Value) String() string {
	if v.val == nil {
		return v.set.Name() + "(<invalid>)"
	}
	return fmt.Sprintf("%s(%s %+v)", v.set.Name(), v.Type(), v.val)
}
