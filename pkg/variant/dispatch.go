package variant

import (
	"fmt"
	"reflect"
)

// Sum is implemented by the named sum types sumgen generates.
// Alternatives must not depend on the receiver's state: it is called on zero
// values to learn a type's set.
type Sum interface {
	Variant() Value
	Alternatives() *Set
}

// Is reports whether X is the active alternative of v.
//
// When X is itself a sum type (it implements Sum), Is reports whether the
// active alternative is a member of X's set instead. This makes a narrow sum
// type usable as a capability test against a broader one:
//
//	if variant.Is[RWQuery](q) { ... }
func Is[X any](v Value) bool {
	v.mustValid()
	if s := sumSet[X](); s != nil {
		return v.In(s)
	}
	return v.Type() == TypeOf[X]()
}

func sumSet[X any]() *Set {
	if reflect.TypeFor[X]().Kind() == reflect.Pointer {
		return nil
	}
	var zero X
	if s, ok := any(zero).(Sum); ok {
		return s.Alternatives()
	}
	return nil
}

// Is reports whether id is the active alternative.
func (v Value) Is(id TypeID) bool {
	return v.Type() == id
}

// In reports whether the active alternative is a member of s.
func (v Value) In(s *Set) bool {
	return s.Contains(v.Type())
}

// Get returns the active alternative as X.
//
// Calling Get for an alternative that is not active is a contract violation;
// it panics with an *AccessError. Test with Is first, or use TryGet.
func Get[X any](v Value) X {
	x, ok := TryGet[X](v)
	if !ok {
		panic(&AccessError{Set: v.set, Want: TypeOf[X](), Active: v.Type()})
	}
	return x
}

// TryGet returns the active alternative as X and whether X is active.
func TryGet[X any](v Value) (X, bool) {
	v.mustValid()
	if v.set.alts[v.tag] != TypeOf[X]() {
		var zero X
		return zero, false
	}
	v.check()
	return v.val.(X), true
}

// Modify calls f with a pointer to the active alternative when it is X and
// stores the result back into v.
func Modify[X any](v *Value, f func(*X)) error {
	x, ok := TryGet[X](*v)
	if !ok {
		return &AccessError{Set: v.set, Want: TypeOf[X](), Active: v.Type()}
	}
	f(&x)
	v.val = x
	return nil
}

// Call applies f to the active alternative and returns its result.
// f is invoked exactly once.
func Call[R any](v Value, f func(x any) R) R {
	v.mustValid()
	v.check()
	return f(v.val)
}

// CallMut applies f to a pointer to the active alternative (for alternative
// X, f receives a *X boxed in an interface) and stores the pointee back into
// v once f returns. f is invoked exactly once.
func CallMut[R any](v *Value, f func(ptr any) R) R {
	v.mustValid()
	p := reflect.New(v.set.alts[v.tag].t)
	p.Elem().Set(reflect.ValueOf(v.val))
	r := f(p.Interface())
	v.val = p.Elem().Interface()
	return r
}

// Case is one arm of Match.
type Case[R any] struct {
	id TypeID
	fn func(any) R
}

// On returns a case that handles alternative X.
func On[X any, R any](f func(X) R) Case[R] {
	return Case[R]{
		id: TypeOf[X](),
		fn: func(x any) R { return f(x.(X)) },
	}
}

// Otherwise returns a case that handles any alternative.
func Otherwise[R any](f func(any) R) Case[R] {
	return Case[R]{fn: f}
}

// Match runs the first case that handles the active alternative.
// It returns an error wrapping ErrUnhandled when none does.
func Match[R any](v Value, cases ...Case[R]) (R, error) {
	v.mustValid()
	active := v.Type()
	for _, c := range cases {
		if c.id.IsZero() || c.id == active {
			return c.fn(v.val), nil
		}
	}
	var zero R
	return zero, fmt.Errorf("%s holding %s: %w", v.set.Name(), active, ErrUnhandled)
}

// Exhaustive reports a *CoverageError when cases leave any alternative of s
// unhandled. A case built with Otherwise covers everything.
func Exhaustive[R any](s *Set, cases ...Case[R]) error {
	covered := make(map[TypeID]bool, len(cases))
	for _, c := range cases {
		if c.id.IsZero() {
			return nil
		}
		covered[c.id] = true
	}
	var missing []TypeID
	for _, alt := range s.alts {
		if !covered[alt] {
			missing = append(missing, alt)
		}
	}
	if len(missing) > 0 {
		return &CoverageError{Set: s, Missing: missing}
	}
	return nil
}
