/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: datfile.go
Description: Dat file framing. Splits a raw dat file into its row count, fixed-width
row section and variable data section, and derives the pointer width and string code
unit size from the file extension.
*/

package datfile

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kleascm/datprobe/pkg/analysis"
)

const (
	// rowCountSize is the u32 row count that opens every dat file.
	rowCountSize = 4
	minFileSize  = rowCountSize + analysis.ReservedHeader
)

// boundaryMarker opens the variable section.
var boundaryMarker = bytes.Repeat([]byte{0xBB}, analysis.ReservedHeader)

var (
	ErrInvalidFile      = errors.New("invalid dat file")
	ErrNoBoundary       = errors.New("variable data section not found")
	ErrUnknownExtension = errors.New("unknown dat extension")
)

// File is a parsed dat table. Fixed and Variable alias the original content.
type File struct {
	Name      string                `json:"name"`
	Width     analysis.PointerWidth `json:"width"`
	CodeUnit  int                   `json:"code_unit"` // 2 for UTF-16 strings, 4 for UTF-32
	RowCount  int                   `json:"row_count"`
	RowLength int                   `json:"row_length"`
	Size      int                   `json:"size"`
	SHA256    string                `json:"sha256"`
	Fixed     []byte                `json:"-"`
	Variable  []byte                `json:"-"`
}

// FormatFromName returns the pointer width and string code unit size implied by
// the extension of name (dat, datl, dat64, datl64).
func FormatFromName(name string) (analysis.PointerWidth, int, error) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		ext = name
	}
	switch strings.ToLower(ext) {
	case "dat":
		return analysis.Width32, 2, nil
	case "datl":
		return analysis.Width32, 4, nil
	case "dat64":
		return analysis.Width64, 2, nil
	case "datl64":
		return analysis.Width64, 4, nil
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownExtension, ext)
	}
}

// Parse splits content into a File. A non-zero width overrides the width
// implied by the extension; with an override, unknown extensions are accepted
// and strings are assumed to be UTF-16.
func Parse(name string, content []byte, width analysis.PointerWidth) (*File, error) {
	w, codeUnit, err := FormatFromName(name)
	if width != 0 {
		if !width.Valid() {
			return nil, fmt.Errorf("%w: %d", analysis.ErrInvalidWidth, int(width))
		}
		if err != nil {
			codeUnit = 2
		}
		w, err = width, nil
	}
	if err != nil {
		return nil, err
	}

	if len(content) < minFileSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrInvalidFile, len(content), minFileSize)
	}

	rowCount := int(binary.LittleEndian.Uint32(content))
	boundary, err := findBoundary(content, rowCount)
	if err != nil {
		return nil, err
	}

	rowLength := 0
	if rowCount > 0 {
		rowLength = (boundary - rowCountSize) / rowCount
	}

	sum := sha256.Sum256(content)
	return &File{
		Name:      filepath.Base(name),
		Width:     w,
		CodeUnit:  codeUnit,
		RowCount:  rowCount,
		RowLength: rowLength,
		Size:      len(content),
		SHA256:    hex.EncodeToString(sum[:]),
		Fixed:     content[rowCountSize:boundary],
		Variable:  content[boundary:],
	}, nil
}

// findBoundary returns the first marker position that splits the fixed section
// into whole rows. Row data may itself contain 0xBB runs, so a marker that
// leaves a partial row is skipped.
func findBoundary(content []byte, rowCount int) (int, error) {
	from := rowCountSize
	for {
		idx := bytes.Index(content[from:], boundaryMarker)
		if idx == -1 {
			return 0, ErrNoBoundary
		}
		boundary := from + idx
		fixedLen := boundary - rowCountSize
		if rowCount == 0 || fixedLen%rowCount == 0 {
			return boundary, nil
		}
		from = boundary + 1
	}
}

// Input returns the file as scanner input.
func (f *File) Input() analysis.Input {
	return analysis.Input{
		Fixed:     f.Fixed,
		Variable:  f.Variable,
		RowLength: f.RowLength,
		Width:     f.Width,
	}
}

// Encode frames a fixed and variable section into dat file bytes. The variable
// section must already start with the boundary marker.
func Encode(rowCount uint32, fixed, variable []byte) []byte {
	out := make([]byte, rowCountSize, rowCountSize+len(fixed)+len(variable))
	binary.LittleEndian.PutUint32(out, rowCount)
	out = append(out, fixed...)
	return append(out, variable...)
}

// Marker returns a copy of the boundary marker.
func Marker() []byte {
	return bytes.Clone(boundaryMarker)
}
