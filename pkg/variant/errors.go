package variant

import (
	"errors"
	"fmt"
	"strings"
)

// Set definition errors.
var (
	ErrEmptySet             = errors.New("alternative set is empty")
	ErrDuplicateAlternative = errors.New("duplicate alternative")
	ErrTooManyAlternatives  = errors.New("too many alternatives")
	ErrInterfaceAlternative = errors.New("interface types cannot be alternatives")
	ErrInvalidAlternative   = errors.New("invalid alternative")
)

// Value errors.
var (
	// ErrInvalidValue is the panic value for operations on a zero or
	// destroyed Value.
	ErrInvalidValue = errors.New("variant: invalid value")

	// ErrNotMember reports an alternative that is not part of a set.
	ErrNotMember = errors.New("alternative is not a member of the set")

	// ErrNotSubset reports a widening between sets where the source is not
	// a subset of the destination.
	ErrNotSubset = errors.New("source set is not a subset of the destination")

	// ErrWrongAlternative reports access to an alternative that is not active.
	ErrWrongAlternative = errors.New("requested alternative is not active")

	// ErrUnhandled reports a Match where no case accepted the active alternative.
	ErrUnhandled = errors.New("no case matched the active alternative")

	// ErrNonExhaustive reports cases that do not cover every alternative.
	ErrNonExhaustive = errors.New("cases do not cover every alternative")
)

// SetError describes a problem with a set declaration or with membership of
// an alternative in a set.
type SetError struct {
	// Set is the name of the set.
	Set string
	// Alternative is the offending alternative, if any.
	Alternative TypeID
	// Err is the underlying sentinel.
	Err error
}

func (e *SetError) Error() string {
	if e.Alternative.IsZero() {
		return fmt.Sprintf("variant set %s: %v", e.Set, e.Err)
	}
	return fmt.Sprintf("variant set %s: %s: %v", e.Set, e.Alternative, e.Err)
}

func (e *SetError) Unwrap() error {
	return e.Err
}

// ConversionError describes a failed conversion between two sets.
type ConversionError struct {
	From   *Set
	To     *Set
	Active TypeID
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converting %s to %s with %s active: %v", e.From.Name(), e.To.Name(), e.Active, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// AccessError describes typed access to an alternative that is not active.
type AccessError struct {
	Set    *Set
	Want   TypeID
	Active TypeID
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%s: get %s while %s is active", e.Set.Name(), e.Want, e.Active)
}

func (e *AccessError) Unwrap() error {
	return ErrWrongAlternative
}

// CoverageError lists the alternatives a set of match cases leaves unhandled.
type CoverageError struct {
	Set     *Set
	Missing []TypeID
}

func (e *CoverageError) Error() string {
	names := make([]string, len(e.Missing))
	for i, id := range e.Missing {
		names[i] = id.String()
	}
	return fmt.Sprintf("%s: %v: %s", e.Set.Name(), ErrNonExhaustive, strings.Join(names, ", "))
}

func (e *CoverageError) Unwrap() error {
	return ErrNonExhaustive
}
