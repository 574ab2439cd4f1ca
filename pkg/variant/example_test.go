package variant_test

import (
	"fmt"

	"github.com/funvibe/variant/pkg/variant"
)

func Example() {
	intOrFloat := variant.MustSet("IntOrFloat", variant.Alt[int](), variant.Alt[float32]())

	v := variant.MustOf(intOrFloat, 5)
	if err := v.Assign(variant.MustOf(intOrFloat, float32(0.5))); err != nil {
		panic(err)
	}

	if variant.Is[int](v) {
		fmt.Println("int", variant.Get[int](v))
	} else {
		fmt.Println("float", variant.Get[float32](v))
	}
	// Output: float 0.5
}

type (
	Select struct{ Table string }
	Insert struct{ Table string }
	Delete struct{ Table string }
)

var (
	rwQuery  = variant.MustSet("RWQuery", variant.Alt[Insert](), variant.Alt[Delete]())
	anyQuery = variant.MustSet("AnyQuery", variant.Alt[Select](), variant.Alt[Insert](), variant.Alt[Delete]())
)

func ExampleNarrow() {
	q := variant.MustOf(anyQuery, Insert{Table: "users"})

	if q.In(rwQuery) {
		rw, err := variant.Narrow(rwQuery, q)
		if err != nil {
			panic(err)
		}
		fmt.Println(rw)
	}

	_, err := variant.Narrow(rwQuery, variant.MustOf(anyQuery, Select{}))
	fmt.Println(err)
	// Output:
	// RWQuery(variant_test.Insert {Table:users})
	// converting AnyQuery to RWQuery with variant_test.Select active: alternative is not a member of the set
}

func ExampleMatch() {
	q := variant.MustOf(anyQuery, Delete{Table: "logs"})

	verb, err := variant.Match(q,
		variant.On(func(s Select) string { return "SELECT " + s.Table }),
		variant.On(func(i Insert) string { return "INSERT " + i.Table }),
		variant.On(func(d Delete) string { return "DELETE " + d.Table }),
	)
	fmt.Println(verb, err)
	// Output: DELETE logs <nil>
}
