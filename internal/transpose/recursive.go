package transpose

// DefaultThreshold is the base-case edge length of the recursive kernels.
const DefaultThreshold = 4

// maxPending bounds the work stack of Recursive. A self split leaves two
// siblings pending and a cross split one; with at most 63 self levels and
// 126 cross levels for any int-sized matrix the stack never exceeds 253.
const maxPending = 256

// quadrant is one pending unit of work: exchange the rows×cols block at
// (i0, j0) with the transpose of the cols×rows block at (i1, j1). A self
// quadrant is a square block on the diagonal transposed in place.
type quadrant struct {
	rows, cols int
	i0, j0     int
	i1, j1     int
	self       bool
}

// Recursive transposes the unpadded n×n matrix m (stride == n) by
// divide and conquer. See RecursiveStrided.
func Recursive(m []Element, n, threshold int) {
	RecursiveStrided(m, n, n, threshold)
}

// RecursiveStrided transposes the n×n matrix m in place without a tile-size
// parameter.
//
// A diagonal block (A B; C D) becomes (Aᵗ Cᵗ; Bᵗ Dᵗ): A and D are split
// again as diagonal blocks and the off-diagonal pair B, C is transposed and
// exchanged. Off-diagonal pairs are halved along their longer edge. Blocks
// whose edges are all <= threshold are swapped directly. The recursion runs
// on a fixed-size work stack in top-left, bottom-right, cross order, so
// depth does not depend on the goroutine stack.
func RecursiveStrided(m []Element, n, stride, threshold int) {
	checkMatrix(m, n, stride)
	mustf(threshold >= 1, "recursion threshold %d must be positive", threshold)

	var stack [maxPending]quadrant

	stack[0] = quadrant{rows: n, cols: n, self: true}
	top := 1

	for top > 0 {
		top--
		q := stack[top]

		if q.self {
			if q.rows <= threshold {
				swapTriangle(m, stride, q.i0, q.i0+q.rows)
				continue
			}

			mustf(top+3 <= maxPending, "work stack overflow at n=%d", q.rows)

			h := q.rows / 2
			rest := q.rows - h
			// Pushed in reverse so the top-left quadrant runs first.
			stack[top] = quadrant{rows: rest, cols: h, i0: q.i0 + h, j0: q.j0, i1: q.i0, j1: q.j0 + h}
			stack[top+1] = quadrant{rows: rest, cols: rest, i0: q.i0 + h, j0: q.j0 + h, self: true}
			stack[top+2] = quadrant{rows: h, cols: h, i0: q.i0, j0: q.j0, self: true}
			top += 3

			continue
		}

		if q.rows <= threshold && q.cols <= threshold {
			swapMirrored(m, stride, q)
			continue
		}

		mustf(top+2 <= maxPending, "work stack overflow at %dx%d", q.rows, q.cols)

		first, second := splitCross(q)
		stack[top] = second
		stack[top+1] = first
		top += 2
	}
}

// RecursiveCalls is the call-stack formulation of RecursiveStrided. It
// visits blocks in the same order and produces the same result; depth grows
// with log2(n).
func RecursiveCalls(m []Element, n, stride, threshold int) {
	checkMatrix(m, n, stride)
	mustf(threshold >= 1, "recursion threshold %d must be positive", threshold)

	swapTransposeQuadrant(m, stride, threshold, quadrant{rows: n, cols: n, self: true})
}

func swapTransposeQuadrant(m []Element, stride, threshold int, q quadrant) {
	if q.self {
		if q.rows <= threshold {
			swapTriangle(m, stride, q.i0, q.i0+q.rows)
			return
		}

		h := q.rows / 2
		rest := q.rows - h
		swapTransposeQuadrant(m, stride, threshold, quadrant{rows: h, cols: h, i0: q.i0, j0: q.j0, self: true})
		swapTransposeQuadrant(m, stride, threshold, quadrant{rows: rest, cols: rest, i0: q.i0 + h, j0: q.j0 + h, self: true})
		swapTransposeQuadrant(m, stride, threshold, quadrant{rows: rest, cols: h, i0: q.i0 + h, j0: q.j0, i1: q.i0, j1: q.j0 + h})

		return
	}

	if q.rows <= threshold && q.cols <= threshold {
		swapMirrored(m, stride, q)
		return
	}

	first, second := splitCross(q)
	swapTransposeQuadrant(m, stride, threshold, first)
	swapTransposeQuadrant(m, stride, threshold, second)
}

// splitCross halves an off-diagonal pair along its longer edge. Splitting
// the rows of the first block splits the columns of its partner.
func splitCross(q quadrant) (quadrant, quadrant) {
	if q.rows >= q.cols {
		h := q.rows / 2
		first := quadrant{rows: h, cols: q.cols, i0: q.i0, j0: q.j0, i1: q.i1, j1: q.j1}
		second := quadrant{rows: q.rows - h, cols: q.cols, i0: q.i0 + h, j0: q.j0, i1: q.i1, j1: q.j1 + h}

		return first, second
	}

	h := q.cols / 2
	first := quadrant{rows: q.rows, cols: h, i0: q.i0, j0: q.j0, i1: q.i1, j1: q.j1}
	second := quadrant{rows: q.rows, cols: q.cols - h, i0: q.i0, j0: q.j0 + h, i1: q.i1 + h, j1: q.j1}

	return first, second
}

// swapMirrored exchanges element (i0+a, j0+b) with (i1+b, j1+a) for every
// a < rows, b < cols, transposing both blocks and trading their places.
func swapMirrored(m []Element, stride int, q quadrant) {
	for a := 0; a < q.rows; a++ {
		p := (q.i0+a)*stride + q.j0
		r := q.i1*stride + q.j1 + a

		for b := 0; b < q.cols; b++ {
			m[p+b], m[r+b*stride] = m[r+b*stride], m[p+b]
		}
	}
}
