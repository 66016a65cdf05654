/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: width.go
Description: Pointer width policy for dat analysis. A single PointerWidth value carries
every width-dependent constant (field size, null sentinel, zero pattern) so the scanner
is written once for both 32-bit and 64-bit dat files.
*/

package analysis

import "fmt"

// PointerWidth is the integer width used for every offset, length and row index
// stored in a dat file.
type PointerWidth int

const (
	Width32 PointerWidth = 4
	Width64 PointerWidth = 8
)

const (
	// ReservedHeader is the size of the marker that opens the variable section.
	// No payload offset may point inside it. It does not scale with the width.
	ReservedHeader = 8

	// StringTerminator is the number of zero bytes ending a UTF-16 string
	// (two NUL code units).
	StringTerminator = 4

	// nullByte is the repeated byte of the null sentinel.
	nullByte = 0xFE
)

// ParseWidth converts a user supplied width (4 or 8) into a PointerWidth.
func ParseWidth(n int) (PointerWidth, error) {
	w := PointerWidth(n)
	if !w.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWidth, n)
	}
	return w, nil
}

// Valid reports whether w is one of the supported widths.
func (w PointerWidth) Valid() bool {
	return w == Width32 || w == Width64
}

// Size returns the width in bytes.
func (w PointerWidth) Size() int {
	return int(w)
}

// Null returns the null sentinel: every byte of the field set to 0xFE.
func (w PointerWidth) Null() uint64 {
	if w == Width32 {
		return 0xFEFEFEFE
	}
	return 0xFEFEFEFEFEFEFEFE
}

// Zero returns the all-zero pattern.
func (w PointerWidth) Zero() uint64 {
	return 0
}

// IsNull reports whether v equals the null sentinel for this width.
func (w PointerWidth) IsNull(v uint64) bool {
	return v == w.Null()
}

// String implements fmt.Stringer.
func (w PointerWidth) String() string {
	switch w {
	case Width32:
		return "32-bit"
	case Width64:
		return "64-bit"
	default:
		return fmt.Sprintf("invalid(%d)", int(w))
	}
}
