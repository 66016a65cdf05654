/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: scanner.go
Description: Row scanner for dat tables. Visits every row and every byte offset of the
fixed section, narrowing each column's hypotheses with the region validator and the
UTF-16 recognizer as oracles. Written once and parameterized by PointerWidth.
*/

package analysis

import "fmt"

// Input is one dat table as seen by the scanner. The buffers are owned by the
// caller and never modified.
type Input struct {
	Fixed     []byte       // fixed section, rowCount*RowLength bytes (a trailing partial row is ignored)
	Variable  []byte       // variable section, starting with the reserved marker
	RowLength int          // bytes per row
	Width     PointerWidth // width of offsets, lengths and row indices
}

// Scanner holds the hypothesis sets of one analysis while rows are scanned.
type Scanner struct {
	fixed     view
	variable  view
	rowLength int
	rowCount  int
	width     PointerWidth
	stats     []ColumnStats
}

// NewScanner validates the input and creates the initial hypothesis sets, one
// per byte offset of a row.
func NewScanner(in Input) (*Scanner, error) {
	if !in.Width.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWidth, int(in.Width))
	}
	if in.RowLength < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRowLength, in.RowLength)
	}

	s := &Scanner{
		fixed:     view(in.Fixed),
		variable:  view(in.Variable),
		rowLength: in.RowLength,
		width:     in.Width,
		stats:     newColumnStatsSet(in.RowLength, in.Width),
	}
	if in.RowLength > 0 {
		s.rowCount = len(in.Fixed) / in.RowLength
	}
	return s, nil
}

// Analyze scans every row of in and returns the surviving hypotheses per column.
// A zero row length yields an empty result without touching the buffers.
func Analyze(in Input) ([]ColumnStats, error) {
	s, err := NewScanner(in)
	if err != nil {
		return nil, err
	}
	s.ScanRows(0, s.rowCount)
	return s.Stats(), nil
}

// RowCount returns the number of complete rows in the fixed section.
func (s *Scanner) RowCount() int { return s.rowCount }

// RowLength returns the configured row length.
func (s *Scanner) RowLength() int { return s.rowLength }

// Stats returns the hypothesis sets. The slice is owned by the caller once
// scanning is finished.
func (s *Scanner) Stats() []ColumnStats { return s.stats }

// ScanRows narrows every column with rows [from, to). Ranges may be scanned in
// any order and in several calls; the final state is the same as one pass.
func (s *Scanner) ScanRows(from, to int) {
	s.scan(from, to, 0, s.rowLength)
}

// scan visits rows [rowFrom, rowTo) and columns [colFrom, colTo) in row-major order.
func (s *Scanner) scan(rowFrom, rowTo, colFrom, colTo int) {
	if s.rowLength == 0 {
		return
	}
	rowFrom = max(rowFrom, 0)
	rowTo = min(rowTo, s.rowCount)
	colFrom = max(colFrom, 0)
	colTo = min(colTo, s.rowLength)

	for ri := rowFrom; ri < rowTo; ri++ {
		row := uint64(ri) * uint64(s.rowLength)
		for bi := colFrom; bi < colTo; bi++ {
			s.observe(row+uint64(bi), &s.stats[bi])
		}
	}
}

// observe applies one cell of the fixed section to its column.
func (s *Scanner) observe(pos uint64, st *ColumnStats) {
	b, err := s.fixed.byteAt(pos)
	if err != nil {
		return
	}
	if b > st.MaxValue {
		st.MaxValue = b
	}

	w := s.width
	room := s.rowLength - st.Offset

	// only an 0xFE lead byte can start the sentinel
	if b == nullByte && !st.NullableSized.Seen() && room >= w.Size() {
		v, err := s.fixed.sizeAt(pos, w)
		st.NullableSized.Observe(err == nil && w.IsNull(v))
	}

	if st.StringRef.Alive() {
		v, err := s.fixed.sizeAt(pos, w)
		st.StringRef.Narrow(err == nil && s.isStringRef(v))
	}

	if st.SelfKeyRef.Alive() {
		v, err := s.fixed.sizeAt(pos, w)
		st.SelfKeyRef.Narrow(err == nil && s.isRowIndex(v))
	}

	if st.ForeignKeyRef.Alive() {
		st.ForeignKeyRef.Narrow(s.isForeignKeyAt(s.fixed, pos))
	}

	if st.ArrayRef.Alive() {
		s.observeArray(pos, st)
	}
}

// observeArray checks the (length, offset) pair at pos and the elements it
// points to.
func (s *Scanner) observeArray(pos uint64, st *ColumnStats) {
	w := s.width
	length, err := s.fixed.sizeAt(pos, w)
	if err != nil {
		st.ArrayRef.Disprove()
		return
	}
	varOffset, err := s.fixed.sizeAt(pos+uint64(w.Size()), w)
	if err != nil {
		st.ArrayRef.Disprove()
		return
	}

	varLen := len(s.variable)
	if !IsValidRegion(varOffset, 1, length, varLen) {
		// an empty array may point one past the end of the variable section
		if !(length == 0 && varOffset == uint64(varLen)) {
			st.ArrayRef.Disprove()
		}
		return
	}

	a := &st.Array
	ptr := uint64(w.Size())

	if a.Elem16.Alive() {
		a.Elem16.Narrow(IsValidRegion(varOffset, 2, length, varLen))
	}
	if a.Elem32.Alive() {
		a.Elem32.Narrow(IsValidRegion(varOffset, 4, length, varLen))
	}
	if a.Elem64.Alive() {
		a.Elem64.Narrow(IsValidRegion(varOffset, 8, length, varLen))
	}

	if a.StringRef.Alive() {
		a.StringRef.Narrow(IsValidRegion(varOffset, ptr, length, varLen) &&
			eachElement(varOffset, ptr, length, func(p uint64) bool {
				v, err := s.variable.sizeAt(p, w)
				return err == nil && s.isStringRef(v)
			}))
	}

	if a.SelfKeyRef.Alive() {
		a.SelfKeyRef.Narrow(IsValidRegion(varOffset, ptr, length, varLen) &&
			eachElement(varOffset, ptr, length, func(p uint64) bool {
				v, err := s.variable.sizeAt(p, w)
				return err == nil && s.isRowIndex(v)
			}))
	}

	if a.ForeignKeyRef.Alive() {
		a.ForeignKeyRef.Narrow(IsValidRegion(varOffset, 2*ptr, length, varLen) &&
			eachElement(varOffset, 2*ptr, length, func(p uint64) bool {
				return s.isForeignKeyAt(s.variable, p)
			}))
	}

	if a.Boolean.Alive() {
		a.Boolean.Narrow(eachElement(varOffset, 1, length, func(p uint64) bool {
			b, err := s.variable.byteAt(p)
			return err == nil && b <= 0x01
		}))
	}
}

// isStringRef reports whether v is an offset of a valid UTF-16 string in the
// variable section. Scalar and array string checks both go through here.
func (s *Scanner) isStringRef(v uint64) bool {
	return IsValidRegion(v, StringTerminator, 1, len(s.variable)) &&
		s.variable.isUTF16StringAt(v)
}

// isRowIndex reports whether v is null or a row of this table.
func (s *Scanner) isRowIndex(v uint64) bool {
	return s.width.IsNull(v) || v < uint64(s.rowCount)
}

// isForeignKeyAt checks the (row index, table pointer) pairing at pos: a null
// row index pairs with a null pointer, any other index with a zero pointer.
func (s *Scanner) isForeignKeyAt(buf view, pos uint64) bool {
	w := s.width
	rowIdx, err := buf.sizeAt(pos, w)
	if err != nil {
		return false
	}
	tablePtr, err := buf.sizeAt(pos+uint64(w.Size()), w)
	if err != nil {
		return false
	}
	if w.IsNull(rowIdx) {
		return w.IsNull(tablePtr)
	}
	return tablePtr == w.Zero()
}

// eachElement calls fn for count elements of size stride starting at base,
// stopping at the first failure. The region must already be validated.
func eachElement(base, stride, count uint64, fn func(pos uint64) bool) bool {
	for idx := uint64(0); idx < count; idx++ {
		if !fn(base + idx*stride) {
			return false
		}
	}
	return true
}
