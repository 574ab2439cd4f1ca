package variant

import "fmt"

// check validates the storage invariant when built with -tags variantdebug.
func (v Value) check() {
	if !debugChecks {
		return
	}
	if v.set == nil || v.val == nil {
		panic(ErrInvalidValue)
	}
	if int(v.tag) >= len(v.set.alts) {
		panic(fmt.Sprintf("variant: %s: tag %d out of range", v.set.name, v.tag))
	}
	if got, want := typeIDOf(v.val), v.set.alts[v.tag]; got != want {
		panic(fmt.Sprintf("variant: %s: storage holds %s but tag names %s", v.set.name, got, want))
	}
}
