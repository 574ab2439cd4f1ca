package variant

// Widen converts v into dst, which must contain every alternative of v's set.
// The active alternative and its payload are carried over unchanged.
//
// Widening between a given pair of sets either always succeeds or never
// does, so a violation is a programming error: Widen panics with a
// *ConversionError wrapping ErrNotSubset. Use Convert or Narrow when the
// relation between the sets is not known.
func Widen(dst *Set, v Value) Value {
	v.mustValid()
	if !dst.ContainsAll(v.set) {
		panic(&ConversionError{From: v.set, To: dst, Active: v.Type(), Err: ErrNotSubset})
	}
	return v.rebase(dst)
}

// Narrow converts v into dst. It succeeds only when the active alternative of
// v is also an alternative of dst; otherwise it returns a *ConversionError
// wrapping ErrNotMember and v is left as is.
func Narrow(dst *Set, v Value) (Value, error) {
	v.mustValid()
	if !dst.Contains(v.Type()) {
		return Value{}, &ConversionError{From: v.set, To: dst, Active: v.Type(), Err: ErrNotMember}
	}
	return v.rebase(dst), nil
}

// Convert widens when v's set is a subset of dst and narrows otherwise.
func Convert(dst *Set, v Value) (Value, error) {
	v.mustValid()
	if dst.ContainsAll(v.set) {
		return v.rebase(dst), nil
	}
	return Narrow(dst, v)
}

// rebase re-tags v for dst. The caller guarantees membership.
func (v Value) rebase(dst *Set) Value {
	tag, _ := dst.TagOf(v.Type())
	out := Value{set: dst, tag: tag, val: v.val}
	out.check()
	return out
}
