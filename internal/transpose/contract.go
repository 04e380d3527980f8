package transpose

import (
	"fmt"

	"github.com/cwbudde/algo-transpose/internal/layout"
)

func mustf(ok bool, format string, args ...any) {
	if !ok {
		panic(fmt.Sprintf("transpose: "+format, args...))
	}
}

func checkMatrix(m []Element, n, stride int) {
	if err := layout.CheckBuffer(len(m), n, stride); err != nil {
		panic("transpose: " + err.Error())
	}
}

// CheckTiles validates the tile widths of the two-level kernel.
func CheckTiles(b, b2 int) error {
	if b < 1 {
		return fmt.Errorf("inner tile %d must be positive", b)
	}

	if b2 <= b {
		return fmt.Errorf("outer tile %d must exceed inner tile %d", b2, b)
	}

	if b2%b != 0 {
		return fmt.Errorf("outer tile %d is not a multiple of inner tile %d", b2, b)
	}

	return nil
}
