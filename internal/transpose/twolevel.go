package transpose

// TwoLevel transposes the n×n matrix m in place with nested tiling: outer
// b2×b2 tiles sized for a large cache level, each walked as b×b inner tiles
// sized for a small one.
//
// Outer diagonal tiles are handled exactly like Block restricted to the
// tile. For an outer pair (x, y) with y > x, every inner tile of x is
// exchanged with the mirror of every inner tile of y. b2 must be a multiple
// of b and larger than it.
func TwoLevel(m []Element, n, stride, b, b2 int) {
	checkMatrix(m, n, stride)

	if err := CheckTiles(b, b2); err != nil {
		panic("transpose: " + err.Error())
	}

	b = min(b, n)
	b2 = min(b2, n)

	for x := 0; x < n; x += b2 {
		xEnd := x + min(b2, n-x)

		for k := x; k < xEnd; k += b {
			kEnd := k + min(b, xEnd-k)

			swapTriangle(m, stride, k, kEnd)

			for l := kEnd; l < xEnd; l += b {
				swapTiles(m, stride, k, kEnd, l, l+min(b, xEnd-l))
			}
		}

		for y := xEnd; y < n; y += b2 {
			yEnd := y + min(b2, n-y)

			for k := x; k < xEnd; k += b {
				kEnd := k + min(b, xEnd-k)

				for l := y; l < yEnd; l += b {
					swapTiles(m, stride, k, kEnd, l, l+min(b, yEnd-l))
				}
			}
		}
	}
}
