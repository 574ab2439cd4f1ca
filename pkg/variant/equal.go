package variant

import (
	"reflect"

	"google.golang.org/protobuf/proto"
)

// Equal reports whether a and b belong to the same set, hold the same
// alternative, and the two payloads are equal under that alternative's own
// equality. Payload equality is, in order of preference:
//
//   - an Equal(X) bool method on X or *X
//   - proto.Equal for protobuf messages
//   - == for comparable values
//   - reflect.DeepEqual otherwise
//
// Values of different alternatives are never equal, even when their
// payloads would compare equal after conversion.
func Equal(a, b Value) bool {
	a.mustValid()
	b.mustValid()
	if !a.set.Same(b.set) || a.tag != b.tag {
		return false
	}
	return equalPayload(a.val, b.val)
}

// NotEqual is the negation of Equal.
func NotEqual(a, b Value) bool {
	return !Equal(a, b)
}

// Equal reports whether v and o are equal; see the package-level Equal.
func (v Value) Equal(o Value) bool {
	return Equal(v, o)
}

func equalPayload(x, y any) bool {
	rx, ry := reflect.ValueOf(x), reflect.ValueOf(y)
	t := rx.Type()

	if m := rx.MethodByName("Equal"); m.IsValid() && isEqualMethod(m.Type(), t) {
		return m.Call([]reflect.Value{ry})[0].Bool()
	}
	if t.Kind() != reflect.Pointer {
		p := reflect.New(t)
		p.Elem().Set(rx)
		if m := p.MethodByName("Equal"); m.IsValid() && isEqualMethod(m.Type(), t) {
			return m.Call([]reflect.Value{ry})[0].Bool()
		}
	}

	if mx, ok := x.(proto.Message); ok {
		my, _ := y.(proto.Message)
		return proto.Equal(mx, my)
	}
	if rx.Comparable() && ry.Comparable() {
		return x == y
	}
	return reflect.DeepEqual(x, y)
}

func isEqualMethod(m, t reflect.Type) bool {
	return m.NumIn() == 1 && m.In(0) == t &&
		m.NumOut() == 1 && m.Out(0).Kind() == reflect.Bool
}
