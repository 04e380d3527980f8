package tptypes

import "unsafe"

// Element is the scalar stored in every matrix cell. Transposes only
// permute values, so a single fixed-width integer type is enough.
type Element = int32

// ElementBytes is the in-memory width of Element.
const ElementBytes = int(unsafe.Sizeof(Element(0)))
