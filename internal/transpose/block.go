package transpose

// Block transposes the n×n matrix m in place one b×b tile pair at a time.
//
// Tile rows are visited in order k = 0, b, 2b, ...; for each the diagonal
// tile is transposed in place and every tile to its right is exchanged with
// its mirror below the diagonal. Trailing tiles are clamped to n, so b need
// not divide n. Any b >= 1 yields the same result as Row.
func Block(m []Element, n, stride, b int) {
	checkMatrix(m, n, stride)
	mustf(b >= 1, "tile width %d must be positive", b)

	b = min(b, n)

	for k := 0; k < n; k += b {
		kEnd := k + min(b, n-k)

		swapTriangle(m, stride, k, kEnd)

		for l := kEnd; l < n; l += b {
			swapTiles(m, stride, k, kEnd, l, l+min(b, n-l))
		}
	}
}
