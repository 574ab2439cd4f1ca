// Package variant implements closed sum types: a value that holds exactly one
// alternative out of a fixed, declared set of Go types.
//
// A Set names the alternatives. A Value pairs a Set with a discriminant (Tag)
// and storage for the active alternative. Values move between sets whose
// alternatives overlap:
//
//   - Widen converts into a set that contains every alternative of the
//     source set. It cannot fail for a given pair of sets.
//   - Narrow converts into any other set and fails with ErrNotMember when the
//     active alternative is not part of the destination.
//
// Code generated by sumgen wraps Value in named types so that widening is
// only offered for set pairs proven to be subsets at generation time.
package variant

import (
	"reflect"
	"strings"
)

// MaxAlternatives is the largest number of alternatives a Set can hold.
const MaxAlternatives = 255

// TypeID is an opaque identity token for a Go type.
// It is comparable and is meant for runtime comparison only.
type TypeID struct {
	t reflect.Type
}

// TypeOf returns the identity token of X.
func TypeOf[X any]() TypeID {
	return TypeID{t: reflect.TypeFor[X]()}
}

// Alt is TypeOf, spelled for set declarations:
//
//	var abc = variant.MustSet("ABC", variant.Alt[A](), variant.Alt[B](), variant.Alt[C]())
func Alt[X any]() TypeID {
	return TypeOf[X]()
}

// typeIDOf returns the token of x's dynamic type.
func typeIDOf(x any) TypeID {
	if x == nil {
		return TypeID{}
	}
	return TypeID{t: reflect.TypeOf(x)}
}

// IsZero reports whether id names no type.
func (id TypeID) IsZero() bool {
	return id.t == nil
}

func (id TypeID) String() string {
	if id.t == nil {
		return "<nil>"
	}
	return id.t.String()
}

// Tag is the discriminant of a Value: the index of the active alternative
// within its Set.
type Tag uint8

// Set is an ordered, duplicate-free, non-empty list of alternative types.
// A Set is immutable after construction and safe for concurrent use.
type Set struct {
	name  string
	alts  []TypeID
	index map[TypeID]Tag
}

// NewSet declares an alternative set. Order is significant: it defines the
// Tag of each alternative. An empty name is replaced by one derived from the
// alternatives.
func NewSet(name string, alts ...TypeID) (*Set, error) {
	if name == "" {
		parts := make([]string, len(alts))
		for i, alt := range alts {
			parts[i] = alt.String()
		}
		name = "Value[" + strings.Join(parts, ", ") + "]"
	}
	if len(alts) == 0 {
		return nil, &SetError{Set: name, Err: ErrEmptySet}
	}
	if len(alts) > MaxAlternatives {
		return nil, &SetError{Set: name, Err: ErrTooManyAlternatives}
	}

	s := &Set{
		name:  name,
		alts:  make([]TypeID, len(alts)),
		index: make(map[TypeID]Tag, len(alts)),
	}
	for i, alt := range alts {
		if alt.IsZero() {
			return nil, &SetError{Set: name, Err: ErrInvalidAlternative}
		}
		if alt.t.Kind() == reflect.Interface {
			return nil, &SetError{Set: name, Alternative: alt, Err: ErrInterfaceAlternative}
		}
		if _, dup := s.index[alt]; dup {
			return nil, &SetError{Set: name, Alternative: alt, Err: ErrDuplicateAlternative}
		}
		s.alts[i] = alt
		s.index[alt] = Tag(i)
	}
	return s, nil
}

// MustSet is like NewSet but panics on error. It is intended for
// package-level declarations.
func MustSet(name string, alts ...TypeID) *Set {
	s, err := NewSet(name, alts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the declared name of the set.
func (s *Set) Name() string {
	if s == nil {
		return "<nil>"
	}
	return s.name
}

// Len returns the number of alternatives.
func (s *Set) Len() int {
	return len(s.alts)
}

// At returns the alternative with the given tag. It panics if t is out of range.
func (s *Set) At(t Tag) TypeID {
	return s.alts[t]
}

// TagOf returns the tag of alternative id.
func (s *Set) TagOf(id TypeID) (Tag, bool) {
	t, ok := s.index[id]
	return t, ok
}

// Contains reports whether id is an alternative of s.
func (s *Set) Contains(id TypeID) bool {
	_, ok := s.index[id]
	return ok
}

// ContainsAll reports whether every alternative of o is also in s (o ⊆ s).
func (s *Set) ContainsAll(o *Set) bool {
	if s == o {
		return true
	}
	for _, alt := range o.alts {
		if !s.Contains(alt) {
			return false
		}
	}
	return true
}

// SubsetOf reports whether every alternative of s is also in o (s ⊆ o).
func (s *Set) SubsetOf(o *Set) bool {
	return o.ContainsAll(s)
}

// Intersect returns the alternatives shared by s and o, in s's order.
func (s *Set) Intersect(o *Set) []TypeID {
	var out []TypeID
	for _, alt := range s.alts {
		if o.Contains(alt) {
			out = append(out, alt)
		}
	}
	return out
}

// Overlaps reports whether s and o share at least one alternative.
func (s *Set) Overlaps(o *Set) bool {
	for _, alt := range s.alts {
		if o.Contains(alt) {
			return true
		}
	}
	return false
}

// Same reports whether s and o declare the same alternatives in the same
// order. Values are only comparable across sets that are the same.
func (s *Set) Same(o *Set) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil || len(s.alts) != len(o.alts) {
		return false
	}
	for i := range s.alts {
		if s.alts[i] != o.alts[i] {
			return false
		}
	}
	return true
}

// Alternatives returns a copy of the alternative list.
func (s *Set) Alternatives() []TypeID {
	out := make([]TypeID, len(s.alts))
	copy(out, s.alts)
	return out
}

func (s *Set) String() string {
	if s == nil {
		return "<nil>"
	}
	parts := make([]string, len(s.alts))
	for i, alt := range s.alts {
		parts[i] = alt.String()
	}
	return s.name + "(" + strings.Join(parts, " | ") + ")"
}

// Contains reports whether X is an alternative of s.
func Contains[X any](s *Set) bool {
	return s.Contains(TypeOf[X]())
}
