package source_test

import (
	"fmt"

	"github.com/cwbudde/algo-n2f/em/source"
)

func ExampleNewGaussian() {
	g, err := source.NewGaussian(1, 0.25)
	if err != nil {
		panic(err)
	}

	fmt.Printf("peak %.0f end %.0f s(peak) %.1f\n", g.Peak(), g.End(), g.Current(g.Peak()))

	// Output:
	// peak 20 end 40 s(peak) 1.0
}
