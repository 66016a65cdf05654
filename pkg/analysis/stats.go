/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: stats.go
Description: Per-column hypothesis records produced by the dat scanner. Hypotheses are
monotone types: a Hypothesis can only be narrowed (alive to disproved) and Evidence can
only be widened (unseen to seen), so the AND-reduction over rows holds by construction.
*/

package analysis

import "encoding/json"

// Hypothesis is an interpretation that stays alive until a row disproves it.
// It never transitions back to alive.
type Hypothesis struct {
	alive bool
}

// NewHypothesis returns a hypothesis in its initial state.
func NewHypothesis(alive bool) Hypothesis {
	return Hypothesis{alive: alive}
}

// Alive reports whether no observation has disproved the hypothesis.
func (h Hypothesis) Alive() bool { return h.alive }

// Narrow keeps the hypothesis alive only if ok holds.
func (h *Hypothesis) Narrow(ok bool) { h.alive = h.alive && ok }

// Disprove clears the hypothesis for good.
func (h *Hypothesis) Disprove() { h.alive = false }

// MarshalJSON encodes the Hypothesis as a JSON boolean.
func (h Hypothesis) MarshalJSON() ([]byte, error) { return json.Marshal(h.alive) }

// UnmarshalJSON decodes a Hypothesis from a JSON boolean.
func (h *Hypothesis) UnmarshalJSON(data []byte) error { return json.Unmarshal(data, &h.alive) }

// MarshalYAML encodes the Hypothesis as a YAML boolean.
func (h Hypothesis) MarshalYAML() (interface{}, error) { return h.alive, nil }

// Evidence records that something was observed at least once. It never
// transitions back to unseen.
type Evidence struct {
	seen bool
}

// Seen reports whether the evidence has been observed.
func (e Evidence) Seen() bool { return e.seen }

// Observe widens the evidence when ok holds.
func (e *Evidence) Observe(ok bool) { e.seen = e.seen || ok }

// MarshalJSON encodes the Evidence as a JSON boolean.
func (e Evidence) MarshalJSON() ([]byte, error) { return json.Marshal(e.seen) }

// UnmarshalJSON decodes an Evidence from a JSON boolean.
func (e *Evidence) UnmarshalJSON(data []byte) error { return json.Unmarshal(data, &e.seen) }

// MarshalYAML encodes the Evidence as a YAML boolean.
func (e Evidence) MarshalYAML() (interface{}, error) { return e.seen, nil }

// ArrayStats holds the element-level hypotheses for a column interpreted as an
// array header (length, offset). They only carry meaning while the column's
// ArrayRef hypothesis is alive.
type ArrayStats struct {
	Boolean       Hypothesis `json:"boolean" yaml:"boolean"`
	Elem16        Hypothesis `json:"elem16" yaml:"elem16"`
	Elem32        Hypothesis `json:"elem32" yaml:"elem32"`
	Elem64        Hypothesis `json:"elem64" yaml:"elem64"`
	StringRef     Hypothesis `json:"string_ref" yaml:"string_ref"`
	SelfKeyRef    Hypothesis `json:"self_key_ref" yaml:"self_key_ref"`
	ForeignKeyRef Hypothesis `json:"foreign_key_ref" yaml:"foreign_key_ref"`
}

// ColumnStats is the set of surviving hypotheses for one byte offset of a row.
type ColumnStats struct {
	Offset        int        `json:"offset" yaml:"offset"`
	MaxValue      uint8      `json:"max_value" yaml:"max_value"`
	NullableSized Evidence   `json:"nullable_sized" yaml:"nullable_sized"`
	SelfKeyRef    Hypothesis `json:"self_key_ref" yaml:"self_key_ref"`
	ForeignKeyRef Hypothesis `json:"foreign_key_ref" yaml:"foreign_key_ref"`
	StringRef     Hypothesis `json:"string_ref" yaml:"string_ref"`
	ArrayRef      Hypothesis `json:"array_ref" yaml:"array_ref"`
	Array         ArrayStats `json:"array" yaml:"array"`
}

// NewColumnStats returns the initial state for the column at offset bi of a row
// rowLength bytes long. Pointer-sized hypotheses start alive only when the field
// fits in the rest of the row.
func NewColumnStats(bi, rowLength int, w PointerWidth) ColumnStats {
	room := rowLength - bi
	return ColumnStats{
		Offset:        bi,
		SelfKeyRef:    NewHypothesis(room >= w.Size()),
		ForeignKeyRef: NewHypothesis(room >= 2*w.Size()),
		StringRef:     NewHypothesis(room >= w.Size()),
		ArrayRef:      NewHypothesis(room >= 2*w.Size()),
		Array: ArrayStats{
			Boolean:       NewHypothesis(true),
			Elem16:        NewHypothesis(true),
			Elem32:        NewHypothesis(true),
			Elem64:        NewHypothesis(true),
			StringRef:     NewHypothesis(true),
			SelfKeyRef:    NewHypothesis(true),
			ForeignKeyRef: NewHypothesis(true),
		},
	}
}

// newColumnStatsSet builds one record per offset of a row.
func newColumnStatsSet(rowLength int, w PointerWidth) []ColumnStats {
	stats := make([]ColumnStats, rowLength)
	for bi := range stats {
		stats[bi] = NewColumnStats(bi, rowLength, w)
	}
	return stats
}

// Merge folds the result of scanning a different set of rows of the same table
// into c: maximum for MaxValue, OR for NullableSized and AND for hypotheses.
func (c *ColumnStats) Merge(o ColumnStats) {
	if o.MaxValue > c.MaxValue {
		c.MaxValue = o.MaxValue
	}
	c.NullableSized.Observe(o.NullableSized.Seen())
	c.SelfKeyRef.Narrow(o.SelfKeyRef.Alive())
	c.ForeignKeyRef.Narrow(o.ForeignKeyRef.Alive())
	c.StringRef.Narrow(o.StringRef.Alive())
	c.ArrayRef.Narrow(o.ArrayRef.Alive())
	c.Array.Boolean.Narrow(o.Array.Boolean.Alive())
	c.Array.Elem16.Narrow(o.Array.Elem16.Alive())
	c.Array.Elem32.Narrow(o.Array.Elem32.Alive())
	c.Array.Elem64.Narrow(o.Array.Elem64.Alive())
	c.Array.StringRef.Narrow(o.Array.StringRef.Alive())
	c.Array.SelfKeyRef.Narrow(o.Array.SelfKeyRef.Alive())
	c.Array.ForeignKeyRef.Narrow(o.Array.ForeignKeyRef.Alive())
}

// Labels lists the interpretations still alive for the column, array element
// kinds prefixed with "array:". Used for compact reporting.
func (c ColumnStats) Labels() []string {
	var out []string
	if c.MaxValue <= 1 {
		out = append(out, "bool")
	}
	if c.NullableSized.Seen() {
		out = append(out, "nullable")
	}
	if c.SelfKeyRef.Alive() {
		out = append(out, "key")
	}
	if c.ForeignKeyRef.Alive() {
		out = append(out, "fkey")
	}
	if c.StringRef.Alive() {
		out = append(out, "string")
	}
	if !c.ArrayRef.Alive() {
		return out
	}
	out = append(out, "array")
	a := c.Array
	for _, el := range []struct {
		name string
		h    Hypothesis
	}{
		{"bool", a.Boolean},
		{"i16", a.Elem16},
		{"i32", a.Elem32},
		{"i64", a.Elem64},
		{"string", a.StringRef},
		{"key", a.SelfKeyRef},
		{"fkey", a.ForeignKeyRef},
	} {
		if el.h.Alive() {
			out = append(out, "array:"+el.name)
		}
	}
	return out
}
