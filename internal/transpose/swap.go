package transpose

import "github.com/cwbudde/algo-transpose/internal/tptypes"

// Element is the matrix scalar.
type Element = tptypes.Element

// swapTriangle transposes the diagonal tile [lo, hi) × [lo, hi) in place.
func swapTriangle(m []Element, stride, lo, hi int) {
	for i := lo; i < hi; i++ {
		row := i * stride
		for j := i + 1; j < hi; j++ {
			col := j*stride + i
			m[row+j], m[col] = m[col], m[row+j]
		}
	}
}

// swapTiles exchanges the tile rows [i0, i1) × cols [j0, j1) with its mirror
// across the diagonal. The two tiles must not overlap.
func swapTiles(m []Element, stride, i0, i1, j0, j1 int) {
	for i := i0; i < i1; i++ {
		row := i * stride
		for j := j0; j < j1; j++ {
			col := j*stride + i
			m[row+j], m[col] = m[col], m[row+j]
		}
	}
}
