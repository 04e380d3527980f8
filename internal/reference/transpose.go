// Package reference holds slow, obviously-correct transposes used as test
// oracles for the tiled kernels.
package reference

import "github.com/cwbudde/algo-transpose/internal/tptypes"

// SwapPair describes a swap between two flat indices.
type SwapPair struct {
	I int
	J int
}

// SquareTransposePairs returns the swaps that transpose an n×n matrix with
// the given row stride, upper triangle in row-major order. It returns nil
// for n <= 0.
func SquareTransposePairs(n, stride int) []SwapPair {
	if n <= 0 {
		return nil
	}

	pairs := make([]SwapPair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, SwapPair{I: i*stride + j, J: j*stride + i})
		}
	}

	return pairs
}

// ApplyPairs swaps elements of data in place using pairs.
func ApplyPairs[T any](data []T, pairs []SwapPair) {
	for _, pair := range pairs {
		data[pair.I], data[pair.J] = data[pair.J], data[pair.I]
	}
}

// Transposed returns a new n×n row-major buffer (stride n) holding the
// transpose of the logical region of src.
func Transposed(src []tptypes.Element, n, stride int) []tptypes.Element {
	dst := make([]tptypes.Element, n*n)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dst[j*n+i] = src[i*stride+j]
		}
	}

	return dst
}

// Logical copies the n×n logical region of a strided buffer into a dense
// n×n buffer.
func Logical(src []tptypes.Element, n, stride int) []tptypes.Element {
	dst := make([]tptypes.Element, n*n)
	for i := 0; i < n; i++ {
		copy(dst[i*n:(i+1)*n], src[i*stride:i*stride+n])
	}

	return dst
}

// Sequential fills the logical region with value(i, j) = i*n + j and the
// padding columns with pad.
func Sequential(n, stride int, pad tptypes.Element) []tptypes.Element {
	buf := make([]tptypes.Element, n*stride)
	for i := 0; i < n; i++ {
		for j := 0; j < stride; j++ {
			if j < n {
				buf[i*stride+j] = tptypes.Element(i*n + j)
			} else {
				buf[i*stride+j] = pad
			}
		}
	}

	return buf
}
