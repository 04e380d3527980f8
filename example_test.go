package algotranspose_test

import (
	"fmt"

	algotranspose "github.com/cwbudde/algo-transpose"
)

func ExamplePlan_TransposeSlice() {
	buf := []algotranspose.Element{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}

	plan := algotranspose.MustNewPlan(3, algotranspose.KernelRow, algotranspose.Options{})
	if err := plan.TransposeSlice(buf, 3); err != nil {
		panic(err)
	}

	fmt.Println(buf)
	// Output: [1 4 7 2 5 8 3 6 9]
}

func ExampleNewMatrix() {
	m, err := algotranspose.NewMatrix(1000, algotranspose.DefaultPadResidue)
	if err != nil {
		panic(err)
	}

	fmt.Println(m.Stride(), m.Stride()%64)
	// Output: 1007 47
}

func ExampleTranspose() {
	m, err := algotranspose.NewMatrix(4, 47)
	if err != nil {
		panic(err)
	}

	m.FillSequential()

	if err := algotranspose.Transpose(m, algotranspose.KernelRecursive, algotranspose.Options{}); err != nil {
		panic(err)
	}

	fmt.Println(m.Logical())
	// Output: [0 4 8 12 1 5 9 13 2 6 10 14 3 7 11 15]
}
