package flatten_test

import (
	"fmt"

	"github.com/ajitpratap0/rootflat/pkg/flatten"
	"github.com/ajitpratap0/rootflat/pkg/interp"
	"github.com/ajitpratap0/rootflat/pkg/jagged"
	"github.com/ajitpratap0/rootflat/pkg/values"
)

func ExampleDefaultNamer() {
	fmt.Println(flatten.DefaultNamer("branch", "sub", []int{2, 3}))
	fmt.Println(flatten.DefaultNamer("branch", "", nil))
	fmt.Println(flatten.DefaultNamer("cov", "", []int{0, 1}))
	fmt.Println(flatten.DefaultNamer("hit", "x", nil))
	fmt.Println(flatten.DefaultNamer("b\xffad", "", nil))

	// Output:
	// branch.sub[2][3]
	// branch
	// cov[0][1]
	// hit.x
	// b�ad
}

func ExampleFlatten() {
	fields := []flatten.Field{
		{
			Name:           "nMuon",
			Interpretation: interp.Primitive(values.KindInt32),
			Value:          values.NewNumeric(values.Of([]int32{2, 1})),
		},
		{
			Name:           "Muon_pt",
			Interpretation: interp.Jagged(interp.Primitive(values.KindFloat32)),
			Value:          jagged.FromCounts([]int64{2, 1}, values.NewNumeric(values.Of([]float32{10.5, 20, 31}))),
		},
	}

	f, err := flatten.Flatten(fields, flatten.DefaultOptions())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(f.Names())
	for i := 0; i < f.Len(); i++ {
		row := f.Row(i)
		fmt.Println(f.Index().Label(i), row["nMuon"], row["Muon_pt"])
	}

	// Output:
	// [nMuon Muon_pt]
	// [0 0] 2 10.5
	// [0 1] 2 20
	// [1 0] 1 31
}
