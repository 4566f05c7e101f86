package wire_test

import (
	"fmt"

	"github.com/coffersTech/objectfilter/filter"
	"github.com/coffersTech/objectfilter/wire"
)

func ExampleMarshal() {
	root := filter.New()
	root.Path("virtualGuests.hostname").Contains("web")
	root.Path("virtualGuests.id").In(10, 20)

	data, err := wire.Marshal(root)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(string(data))
	// Output:
	// {"virtualGuests":{"hostname":{"operation":"*=web"},"id":{"operation":"in","options":[{"name":"data","value":[10,20]}]}}}
}
