/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: view.go
Description: Bounds-checked little-endian reads over caller-owned buffers. Every read
of the fixed or variable section goes through a view so an offset taken from file
contents can never index past the end of a buffer.
*/

package analysis

import (
	"encoding/binary"
	"fmt"
	"math"
)

// view is a read-only window over a byte buffer.
type view []byte

// span returns the n bytes starting at off, or ErrOutOfBounds.
func (v view) span(off uint64, n int) ([]byte, error) {
	if off > math.MaxInt || int(off) > len(v) || len(v)-int(off) < n {
		return nil, fmt.Errorf("%w: offset %d length %d buffer %d", ErrOutOfBounds, off, n, len(v))
	}
	return v[off : int(off)+n], nil
}

// byteAt reads one raw byte.
func (v view) byteAt(off uint64) (byte, error) {
	b, err := v.span(off, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// uint16At reads a little-endian code unit.
func (v view) uint16At(off uint64) (uint16, error) {
	b, err := v.span(off, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// sizeAt reads a pointer-width value, zero-extended to 64 bits.
func (v view) sizeAt(off uint64, w PointerWidth) (uint64, error) {
	b, err := v.span(off, w.Size())
	if err != nil {
		return 0, err
	}
	if w == Width32 {
		return uint64(binary.LittleEndian.Uint32(b)), nil
	}
	return binary.LittleEndian.Uint64(b), nil
}
