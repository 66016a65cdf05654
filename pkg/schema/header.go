/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: header.go
Description: Declared column headers for dat tables. A header places a typed field at
a byte offset of the row; field sizes depend on the pointer width of the file.
*/

package schema

import (
	"errors"
	"fmt"

	"github.com/kleascm/datprobe/pkg/analysis"
)

var (
	ErrCorruptedHeader = errors.New("corrupted header")
	ErrOffsetRange     = errors.New("header offset outside row")
	ErrOutOfRange      = errors.New("field data out of range")
)

// IntegerType is a fixed-size integer field.
type IntegerType struct {
	Unsigned bool `json:"unsigned" yaml:"unsigned"`
	Size     int  `json:"size" yaml:"size"`
}

// DecimalType is an IEEE-754 float field.
type DecimalType struct {
	Size int `json:"size" yaml:"size"`
}

// KeyType is a row reference, into this table or a foreign one.
type KeyType struct {
	Foreign bool `json:"foreign" yaml:"foreign"`
}

// FieldType describes the value stored by a header. Exactly one of the value
// kinds is set; Array wraps any of them.
type FieldType struct {
	Array   bool         `json:"array,omitempty" yaml:"array,omitempty"`
	Boolean bool         `json:"boolean,omitempty" yaml:"boolean,omitempty"`
	Integer *IntegerType `json:"integer,omitempty" yaml:"integer,omitempty"`
	Decimal *DecimalType `json:"decimal,omitempty" yaml:"decimal,omitempty"`
	String  bool         `json:"string,omitempty" yaml:"string,omitempty"`
	Key     *KeyType     `json:"key,omitempty" yaml:"key,omitempty"`
}

// Header is a typed field at a byte offset of the row.
type Header struct {
	Name   string    `json:"name,omitempty" yaml:"name,omitempty"`
	Offset int       `json:"offset" yaml:"offset"`
	Type   FieldType `json:"type" yaml:"type"`
}

// Schema is the set of headers declared for one table.
type Schema struct {
	Name    string   `json:"name" yaml:"name"`
	Headers []Header `json:"headers" yaml:"headers"`
}

// FieldSizes lists the in-row size of every field kind for one pointer width.
type FieldSizes struct {
	Bool       int
	Byte       int
	Short      int
	Long       int
	LongLong   int
	String     int
	Key        int
	KeyForeign int
	Array      int
}

// SizesFor returns the field sizes of a dat file with pointer width w.
func SizesFor(w analysis.PointerWidth) FieldSizes {
	ptr := w.Size()
	return FieldSizes{
		Bool:       1,
		Byte:       1,
		Short:      2,
		Long:       4,
		LongLong:   8,
		String:     ptr,
		Key:        ptr,
		KeyForeign: 2 * ptr,
		Array:      2 * ptr,
	}
}

// Length returns how many bytes of the row the header occupies.
func (h Header) Length(w analysis.PointerWidth) (int, error) {
	sizes := SizesFor(w)
	t := h.Type
	switch {
	case t.Array:
		return sizes.Array, nil
	case t.String:
		return sizes.String, nil
	case t.Key != nil:
		if t.Key.Foreign {
			return sizes.KeyForeign, nil
		}
		return sizes.Key, nil
	case t.Integer != nil:
		return t.Integer.Size, nil
	case t.Decimal != nil:
		return t.Decimal.Size, nil
	case t.Boolean:
		return sizes.Bool, nil
	}
	return 0, fmt.Errorf("%w: offset %d has no type", ErrCorruptedHeader, h.Offset)
}

// String renders the type the way the CLI prints it, e.g. "array<i32>".
func (t FieldType) String() string {
	var base string
	switch {
	case t.Boolean:
		base = "bool"
	case t.String:
		base = "string"
	case t.Key != nil && t.Key.Foreign:
		base = "fkey"
	case t.Key != nil:
		base = "key"
	case t.Integer != nil:
		prefix := "i"
		if t.Integer.Unsigned {
			prefix = "u"
		}
		base = fmt.Sprintf("%s%d", prefix, t.Integer.Size*8)
	case t.Decimal != nil:
		base = fmt.Sprintf("f%d", t.Decimal.Size*8)
	}
	if t.Array {
		if base == "" {
			return "array"
		}
		return "array<" + base + ">"
	}
	if base == "" {
		return "unknown"
	}
	return base
}
