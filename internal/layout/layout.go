// Package layout computes row strides for dense square matrices.
//
// Caches map addresses to sets with limited associativity. When the row
// stride is a multiple of a large power of two, the elements of one column
// land in the same few sets and evict each other, which turns a row-major
// transpose into a stream of misses. Padding each row to a stride with a
// small odd residue modulo Period spreads successive rows across the sets
// at a cost of fewer than 2*Period extra columns.
package layout

import "fmt"

// Period is the modulus the padding residue is taken against.
const Period = 64

// ComputeStride returns the smallest stride >= n with stride%Period ==
// padResidue. A padResidue of zero disables padding and returns n.
//
// n must be positive and padResidue must lie in [0, Period).
func ComputeStride(n, padResidue int) int {
	if n < 1 {
		panic(fmt.Sprintf("layout: dimension %d must be positive", n))
	}

	if padResidue < 0 || padResidue >= Period {
		panic(fmt.Sprintf("layout: pad residue %d outside [0,%d)", padResidue, Period))
	}

	if padResidue == 0 {
		return n
	}

	return n + (Period+padResidue-n%Period)%Period
}

// Layout describes how a logical N×N matrix is laid out in a flat buffer.
type Layout struct {
	N      int
	Stride int
}

// New returns the padded layout for n using padResidue.
func New(n, padResidue int) Layout {
	return Layout{N: n, Stride: ComputeStride(n, padResidue)}
}

// Unpadded returns a layout with Stride == N.
func Unpadded(n int) Layout {
	return New(n, 0)
}

// Len is the number of elements a buffer needs to hold the layout.
func (l Layout) Len() int {
	return l.Stride * l.N
}

// Index returns the flat offset of element (i, j).
func (l Layout) Index(i, j int) int {
	return i*l.Stride + j
}

// Padding is the number of unused columns at the end of each row.
func (l Layout) Padding() int {
	return l.Stride - l.N
}

// Padded reports whether rows carry unused trailing columns.
func (l Layout) Padded() bool {
	return l.Stride != l.N
}

// CheckBuffer reports whether a buffer of length bufLen can hold an n×n
// matrix with the given row stride. It returns a descriptive error instead
// of panicking so callers can decide how to treat the violation.
func CheckBuffer(bufLen, n, stride int) error {
	if n < 1 {
		return fmt.Errorf("dimension %d must be positive", n)
	}

	if stride < n {
		return fmt.Errorf("stride %d smaller than dimension %d", stride, n)
	}

	maxInt := int(^uint(0) >> 1)
	if stride > maxInt/n {
		return fmt.Errorf("stride %d * dimension %d overflows int", stride, n)
	}

	if bufLen < stride*n {
		return fmt.Errorf("buffer length %d < stride %d * dimension %d", bufLen, stride, n)
	}

	return nil
}
