/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: validate.go
Description: Checks declared headers against the hypotheses that survived a scan.
A header is plausible when the column statistics at its offset still admit its type.
*/

package schema

import (
	"fmt"

	"github.com/kleascm/datprobe/pkg/analysis"
)

// Result is the outcome of validating one header.
type Result struct {
	Header Header `json:"header" yaml:"header"`
	Valid  bool   `json:"valid" yaml:"valid"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Validate reports whether the column statistics are consistent with h.
// stats must hold one record per offset of the row. A scalar foreign key needs
// room for the (row, table) pair and a surviving ForeignKeyRef hypothesis, not
// just the room.
func Validate(h Header, stats []analysis.ColumnStats, w analysis.PointerWidth) (bool, error) {
	if h.Offset < 0 || h.Offset >= len(stats) {
		return false, fmt.Errorf("%w: offset %d, row length %d", ErrOffsetRange, h.Offset, len(stats))
	}

	t := h.Type
	st := stats[h.Offset]
	space := len(stats) - h.Offset
	sizes := SizesFor(w)
	arr := st.ArrayRef.Alive()

	switch {
	case t.Integer != nil:
		var elem bool
		switch t.Integer.Size {
		case 1:
			elem = true
		case 2:
			elem = st.Array.Elem16.Alive()
		case 4:
			elem = st.Array.Elem32.Alive()
		case 8:
			elem = st.Array.Elem64.Alive()
		default:
			return false, fmt.Errorf("%w: integer size %d", ErrCorruptedHeader, t.Integer.Size)
		}
		if t.Array {
			return arr && elem, nil
		}
		return space >= t.Integer.Size, nil

	case t.Decimal != nil:
		switch t.Decimal.Size {
		case 4:
			if t.Array {
				return arr && st.Array.Elem32.Alive(), nil
			}
			return space >= 4, nil
		case 8:
			if t.Array {
				return arr && st.Array.Elem64.Alive(), nil
			}
			return space >= 8, nil
		}

	case t.Boolean:
		if t.Array {
			return arr && st.Array.Boolean.Alive(), nil
		}
		return st.MaxValue <= 1, nil

	case t.String:
		if t.Array {
			return arr && st.Array.StringRef.Alive(), nil
		}
		return st.StringRef.Alive(), nil

	case t.Key != nil && t.Key.Foreign:
		if t.Array {
			return arr && st.Array.ForeignKeyRef.Alive(), nil
		}
		return space >= sizes.KeyForeign && st.ForeignKeyRef.Alive(), nil

	case t.Key != nil:
		if t.Array {
			return arr && st.Array.SelfKeyRef.Alive(), nil
		}
		return st.SelfKeyRef.Alive(), nil

	case t.Array:
		return space >= sizes.Array, nil
	}

	return false, fmt.Errorf("%w: unexpected type %s at offset %d", ErrCorruptedHeader, t, h.Offset)
}

// ValidateSchema validates every header of s and returns one result per header,
// in declaration order.
func ValidateSchema(s Schema, stats []analysis.ColumnStats, w analysis.PointerWidth) []Result {
	results := make([]Result, 0, len(s.Headers))
	for _, h := range s.Headers {
		ok, err := Validate(h, stats, w)
		r := Result{Header: h, Valid: ok}
		if err != nil {
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results
}

// AllValid reports whether every result passed.
func AllValid(results []Result) bool {
	for _, r := range results {
		if !r.Valid {
			return false
		}
	}
	return true
}
