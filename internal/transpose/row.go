package transpose

// Row transposes the n×n matrix m in place, swapping (i, j) with (j, i) for
// every i < j in row-major order. It is the correctness baseline for the
// tiled kernels.
//
// m must hold at least stride*n elements and stride must be >= n.
func Row(m []Element, n, stride int) {
	checkMatrix(m, n, stride)
	swapTriangle(m, stride, 0, n)
}
