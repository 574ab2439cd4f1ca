package variant

import "reflect"

// Defaulter is implemented by alternatives that need non-zero initial state
// when constructed in place by Emplace.
type Defaulter interface {
	Default()
}

// Destroyer is implemented by alternatives that release resources when they
// stop being the active alternative of a Value, either through Assign or
// Destroy. Pointer alternatives are references and are never destroyed.
type Destroyer interface {
	Destroy()
}

// Assign replaces the alternative held by v with the one held by src,
// converting src into v's set. Convertibility is checked first, so on error v
// is unchanged. Otherwise the current alternative is destroyed exactly once
// and the new one is stored.
//
// Assigning a payload identical to the held one (self-assignment, or a copy
// of v) is a no-op: copies share the payload, so destroying it would release
// what v keeps holding. Identity is == for comparable payloads.
//
// Assign also revives a destroyed Value, since it keeps its set.
func (v *Value) Assign(src Value) error {
	if v.set == nil {
		panic(ErrInvalidValue)
	}
	next, err := Convert(v.set, src)
	if err != nil {
		return err
	}
	if next.tag == v.tag && samePayload(v.val, next.val) {
		return nil
	}
	destroy(v.val)
	*v = next
	return nil
}

// Destroy ends the life of the active alternative, running its Destroyer.
// The value is invalid afterwards until it is assigned again. Destroying an
// invalid value does nothing.
func (v *Value) Destroy() {
	if v.val == nil {
		return
	}
	destroy(v.val)
	v.val = nil
	v.tag = 0
}

func samePayload(x, y any) bool {
	if x == nil || y == nil {
		return false
	}
	if reflect.TypeOf(x) != reflect.TypeOf(y) || !reflect.ValueOf(x).Comparable() {
		return false
	}
	return x == y
}

func destroy(x any) {
	if x == nil {
		return
	}
	t := reflect.TypeOf(x)
	if t.Kind() == reflect.Pointer {
		return
	}
	if d, ok := x.(Destroyer); ok {
		d.Destroy()
		return
	}
	p := reflect.New(t)
	p.Elem().Set(reflect.ValueOf(x))
	if d, ok := p.Interface().(Destroyer); ok {
		d.Destroy()
	}
}
