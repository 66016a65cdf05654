/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: region_test.go
Description: Tests for pointer width constants, region validation and the UTF-16
string recognizer.
*/

package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPointerWidth tests the width dependent constants
func TestPointerWidth(t *testing.T) {
	assert.Equal(t, uint64(0xFEFEFEFE), Width32.Null())
	assert.Equal(t, uint64(0xFEFEFEFEFEFEFEFE), Width64.Null())
	assert.Equal(t, uint64(0), Width32.Zero())
	assert.Equal(t, 4, Width32.Size())
	assert.Equal(t, 8, Width64.Size())
	assert.True(t, Width64.IsNull(0xFEFEFEFEFEFEFEFE))
	assert.False(t, Width64.IsNull(0xFEFEFEFE))

	w, err := ParseWidth(8)
	require.NoError(t, err)
	assert.Equal(t, Width64, w)

	_, err = ParseWidth(2)
	assert.ErrorIs(t, err, ErrInvalidWidth)
}

// TestIsValidRegion tests region validation including overflow cases
func TestIsValidRegion(t *testing.T) {
	tests := []struct {
		name    string
		offset  uint64
		elemLen uint64
		count   uint64
		bufLen  int
		want    bool
	}{
		{"inside", 8, 4, 2, 16, true},
		{"ends exactly at buffer end", 12, 1, 4, 16, true},
		{"one byte past end", 12, 1, 5, 16, false},
		{"offset inside reserved header", 7, 1, 1, 16, false},
		{"empty region at header end", 8, 4, 0, 8, true},
		{"empty region at buffer end", 16, 4, 0, 16, true},
		{"empty region past buffer end", 17, 4, 0, 16, false},
		{"product overflows 64 bits", 8, 16, 1 << 62, 1 << 20, false},
		{"sum overflows 64 bits", math.MaxUint64 - 2, 1, 8, 1 << 20, false},
		{"32-bit wraparound is not accepted", 0xFFFFFFFD, 2, 0x80000000, 1 << 20, false},
		{"negative buffer length", 8, 0, 0, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidRegion(tt.offset, tt.elemLen, tt.count, tt.bufLen))
		})
	}
}

// TestIsUTF16StringAt tests the string recognizer
func TestIsUTF16StringAt(t *testing.T) {
	tests := []struct {
		name  string
		buf   []byte
		start uint64
		want  bool
	}{
		{"plain string", cat(marker(), utf16z("ab")), 8, true},
		{"empty string", cat(marker(), utf16z("")), 8, true},
		{"single NUL then text", cat(marker(), u16('a'), u16('b'), u16(0), u16('c')), 8, false},
		{"no terminator", cat(marker(), u16('a'), u16('b')), 8, false},
		{"terminator does not fit", cat(marker(), u16('a'), u16(0), u16(0))[:13], 8, false},
		{"lone low surrogate", cat(marker(), u16(0xDC00), u16(0), u16(0)), 8, false},
		{"surrogate pair", cat(marker(), u16(0xD83D), u16(0xDE00), u16(0), u16(0)), 8, true},
		{"high surrogate without low", cat(marker(), u16(0xD83D), u16('a'), u16(0), u16(0)), 8, false},
		{"low surrogate after plain unit", cat(marker(), u16('a'), u16(0xDFFF), u16(0), u16(0)), 8, false},
		{"private use is plain", cat(marker(), u16(0xE000), u16(0xFFFF), u16(0), u16(0)), 8, true},
		{"start past end", cat(marker(), utf16z("a")), 100, false},
		{"unaligned start", cat(marker(), []byte{0x00}, utf16z("a")), 9, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUTF16StringAt(tt.buf, tt.start))
		})
	}
}

// TestViewBounds tests that reads past the buffer fail with ErrOutOfBounds
func TestViewBounds(t *testing.T) {
	v := view(cat(u32(7), []byte{1, 2}))

	got, err := v.sizeAt(0, Width32)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got)

	_, err = v.sizeAt(3, Width32)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = v.sizeAt(0, Width64)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = v.byteAt(math.MaxUint64)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}
