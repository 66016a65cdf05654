/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reader.go
Description: Field readers decoding declared columns of a parsed dat file. Scalars
are read from the fixed section, array elements and string bodies from the
variable section. Every read is bounds checked.
*/

package schema

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"

	"github.com/kleascm/datprobe/pkg/analysis"
	"github.com/kleascm/datprobe/pkg/datfile"
)

// valueReader decodes one value stored at off in buf.
type valueReader func(buf []byte, off uint64) (any, error)

// FieldReader decodes the value of one header for a given row.
type FieldReader func(row int) (any, error)

func slice(buf []byte, off uint64, n int) ([]byte, error) {
	if off > uint64(len(buf)) || uint64(len(buf))-off < uint64(n) {
		return nil, fmt.Errorf("%w: %d bytes at %d, buffer is %d", ErrOutOfRange, n, off, len(buf))
	}
	return buf[off : off+uint64(n)], nil
}

func readSize(buf []byte, off uint64, w analysis.PointerWidth) (uint64, error) {
	b, err := slice(buf, off, w.Size())
	if err != nil {
		return 0, err
	}
	if w == analysis.Width64 {
		return binary.LittleEndian.Uint64(b), nil
	}
	return uint64(binary.LittleEndian.Uint32(b)), nil
}

func integerReader(size int, unsigned bool) (valueReader, error) {
	switch size {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("%w: integer size %d", ErrCorruptedHeader, size)
	}
	return func(buf []byte, off uint64) (any, error) {
		b, err := slice(buf, off, size)
		if err != nil {
			return nil, err
		}
		var u uint64
		switch size {
		case 1:
			if !unsigned {
				return int64(int8(b[0])), nil
			}
			u = uint64(b[0])
		case 2:
			v := binary.LittleEndian.Uint16(b)
			if !unsigned {
				return int64(int16(v)), nil
			}
			u = uint64(v)
		case 4:
			v := binary.LittleEndian.Uint32(b)
			if !unsigned {
				return int64(int32(v)), nil
			}
			u = uint64(v)
		case 8:
			u = binary.LittleEndian.Uint64(b)
			if !unsigned {
				return int64(u), nil
			}
		}
		return u, nil
	}, nil
}

func decimalReader(size int) (valueReader, error) {
	switch size {
	case 4:
		return func(buf []byte, off uint64) (any, error) {
			b, err := slice(buf, off, 4)
			if err != nil {
				return nil, err
			}
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))), nil
		}, nil
	case 8:
		return func(buf []byte, off uint64) (any, error) {
			b, err := slice(buf, off, 8)
			if err != nil {
				return nil, err
			}
			return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
		}, nil
	}
	return nil, fmt.Errorf("%w: decimal size %d", ErrCorruptedHeader, size)
}

func boolReader(buf []byte, off uint64) (any, error) {
	b, err := slice(buf, off, 1)
	if err != nil {
		return nil, err
	}
	return b[0] != 0, nil
}

// keyReader reads a row index, returning nil for the null sentinel. Foreign keys
// carry a second word which is not decoded.
func keyReader(w analysis.PointerWidth) valueReader {
	return func(buf []byte, off uint64) (any, error) {
		v, err := readSize(buf, off, w)
		if err != nil {
			return nil, err
		}
		if w.IsNull(v) {
			return nil, nil
		}
		return v, nil
	}
}

// stringDecoder returns the decoder for the file's code unit size.
func stringDecoder(codeUnit int) *encoding.Decoder {
	if codeUnit == 4 {
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM).NewDecoder()
	}
	return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
}

// ReadString decodes the string starting at off in the variable section. The
// body ends at the first run of four zero bytes aligned to the code unit.
func ReadString(variable []byte, off uint64, codeUnit int) (string, error) {
	if off > uint64(len(variable)) {
		return "", fmt.Errorf("%w: string at %d, buffer is %d", ErrOutOfRange, off, len(variable))
	}
	body := variable[off:]
	end := 0
	for {
		idx := bytes.Index(body[end:], []byte{0, 0, 0, 0})
		if idx == -1 {
			return "", fmt.Errorf("%w: unterminated string at %d", ErrOutOfRange, off)
		}
		end += idx
		if end%codeUnit == 0 {
			break
		}
		end++
	}
	out, err := stringDecoder(codeUnit).Bytes(body[:end])
	if err != nil {
		return "", fmt.Errorf("decode string at %d: %w", off, err)
	}
	return string(out), nil
}

// stringReader follows a pointer stored in buf to a string in the variable section.
func stringReader(f *datfile.File) valueReader {
	return func(buf []byte, off uint64) (any, error) {
		ptr, err := readSize(buf, off, f.Width)
		if err != nil {
			return nil, err
		}
		return ReadString(f.Variable, ptr, f.CodeUnit)
	}
}

// elementReader returns the reader and stored size of a single value of t,
// ignoring t.Array.
func elementReader(t FieldType, f *datfile.File) (valueReader, int, error) {
	sizes := SizesFor(f.Width)
	switch {
	case t.Boolean:
		return boolReader, sizes.Bool, nil
	case t.String:
		return stringReader(f), sizes.String, nil
	case t.Integer != nil:
		r, err := integerReader(t.Integer.Size, t.Integer.Unsigned)
		return r, t.Integer.Size, err
	case t.Decimal != nil:
		r, err := decimalReader(t.Decimal.Size)
		return r, t.Decimal.Size, err
	case t.Key != nil && t.Key.Foreign:
		return keyReader(f.Width), sizes.KeyForeign, nil
	case t.Key != nil:
		return keyReader(f.Width), sizes.Key, nil
	}
	return nil, 0, fmt.Errorf("%w: no element type for %s", ErrCorruptedHeader, t)
}

// arrayReader reads the (length, offset) header from the fixed section and
// decodes each element from the variable section.
func arrayReader(t FieldType, f *datfile.File) (valueReader, error) {
	read, elSize, err := elementReader(t, f)
	if err != nil {
		return nil, err
	}
	w := f.Width
	return func(buf []byte, off uint64) (any, error) {
		n, err := readSize(buf, off, w)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return []any{}, nil
		}
		base, err := readSize(buf, off+uint64(w.Size()), w)
		if err != nil {
			return nil, err
		}
		if !analysis.IsValidRegion(base, uint64(elSize), n, len(f.Variable)) {
			return nil, fmt.Errorf("%w: array of %d at %d", ErrOutOfRange, n, base)
		}
		out := make([]any, n)
		for i := range out {
			v, err := read(f.Variable, base+uint64(i*elSize))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}, nil
}

// NewFieldReader returns a reader for the header's value in any row of f.
func NewFieldReader(h Header, f *datfile.File) (FieldReader, error) {
	length, err := h.Length(f.Width)
	if err != nil {
		return nil, err
	}
	if h.Offset < 0 || h.Offset+length > f.RowLength {
		return nil, fmt.Errorf("%w: offset %d length %d, row length %d", ErrOffsetRange, h.Offset, length, f.RowLength)
	}

	var read valueReader
	if h.Type.Array {
		read, err = arrayReader(h.Type, f)
	} else {
		read, _, err = elementReader(h.Type, f)
	}
	if err != nil {
		return nil, err
	}

	return func(row int) (any, error) {
		if row < 0 || row >= f.RowCount {
			return nil, fmt.Errorf("%w: row %d of %d", ErrOutOfRange, row, f.RowCount)
		}
		return read(f.Fixed, uint64(row*f.RowLength+h.Offset))
	}, nil
}

// ReadColumn decodes the header's value for every row of f.
func ReadColumn(h Header, f *datfile.File) ([]any, error) {
	read, err := NewFieldReader(h, f)
	if err != nil {
		return nil, err
	}
	out := make([]any, f.RowCount)
	for row := range out {
		v, err := read(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		out[row] = v
	}
	return out, nil
}
