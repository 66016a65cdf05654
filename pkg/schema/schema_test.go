/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: schema_test.go
Description: Tests for field sizes, header validation, field readers and schema files.
*/

package schema

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleascm/datprobe/pkg/analysis"
	"github.com/kleascm/datprobe/pkg/datfile"
)

func le(vals ...any) []byte {
	var buf bytes.Buffer
	for _, v := range vals {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func utf16z(s string) []byte {
	var out []byte
	for _, r := range s {
		out = append(out, le(uint16(r))...)
	}
	return append(out, 0, 0, 0, 0)
}

// sampleFile builds a two row table:
//
//	0 bool | 1 i16 | 3 string | 7 key | 11 array<i32> | 19 f32
func sampleFile(t *testing.T) *datfile.File {
	t.Helper()
	variable := bytes.Join([][]byte{
		datfile.Marker(),        // 0
		utf16z("hi"),            // 8
		utf16z(""),              // 16
		le(int32(5), int32(-1)), // 20
	}, nil)
	fixed := bytes.Join([][]byte{
		{1}, le(int16(-2)), le(uint32(8)), le(uint32(1)), le(uint32(2), uint32(20)), le(float32(1.5)),
		{0}, le(int16(300)), le(uint32(16)), le(uint32(0xFEFEFEFE)), le(uint32(0), uint32(8)), le(float32(-0.25)),
	}, nil)
	f, err := datfile.Parse("Sample.dat", datfile.Encode(2, fixed, variable), 0)
	require.NoError(t, err)
	require.Equal(t, 23, f.RowLength)
	return f
}

func sampleSchema() Schema {
	return Schema{
		Name: "Sample",
		Headers: []Header{
			{Name: "Flag", Offset: 0, Type: FieldType{Boolean: true}},
			{Name: "Delta", Offset: 1, Type: FieldType{Integer: &IntegerType{Size: 2}}},
			{Name: "Id", Offset: 3, Type: FieldType{String: true}},
			{Name: "Parent", Offset: 7, Type: FieldType{Key: &KeyType{}}},
			{Name: "Values", Offset: 11, Type: FieldType{Array: true, Integer: &IntegerType{Size: 4}}},
			{Name: "Weight", Offset: 19, Type: FieldType{Decimal: &DecimalType{Size: 4}}},
		},
	}
}

func freshStats(rowLength int) []analysis.ColumnStats {
	stats := make([]analysis.ColumnStats, rowLength)
	for bi := range stats {
		stats[bi] = analysis.NewColumnStats(bi, rowLength, analysis.Width32)
	}
	return stats
}

// TestFieldSizes tests the per width field sizes
func TestFieldSizes(t *testing.T) {
	s4 := SizesFor(analysis.Width32)
	assert.Equal(t, 4, s4.String)
	assert.Equal(t, 8, s4.KeyForeign)
	assert.Equal(t, 8, s4.Array)

	s8 := SizesFor(analysis.Width64)
	assert.Equal(t, 8, s8.Key)
	assert.Equal(t, 16, s8.KeyForeign)
	assert.Equal(t, 16, s8.Array)
	assert.Equal(t, 1, s8.Bool)
	assert.Equal(t, 8, s8.LongLong)

	n, err := Header{Type: FieldType{Array: true, String: true}}.Length(analysis.Width64)
	require.NoError(t, err)
	assert.Equal(t, 16, n)

	_, err = Header{}.Length(analysis.Width32)
	assert.ErrorIs(t, err, ErrCorruptedHeader)
}

// TestFieldTypeString tests type rendering
func TestFieldTypeString(t *testing.T) {
	assert.Equal(t, "u8", FieldType{Integer: &IntegerType{Unsigned: true, Size: 1}}.String())
	assert.Equal(t, "array<f64>", FieldType{Array: true, Decimal: &DecimalType{Size: 8}}.String())
	assert.Equal(t, "array", FieldType{Array: true}.String())
	assert.Equal(t, "fkey", FieldType{Key: &KeyType{Foreign: true}}.String())
}

// TestValidate tests the header rules against hand-built statistics
func TestValidate(t *testing.T) {
	stats := freshStats(16)
	stats[2].MaxValue = 7
	stats[4].Array.Elem16.Disprove()
	stats[5].StringRef.Disprove()
	stats[6].SelfKeyRef.Disprove()
	stats[7].ForeignKeyRef.Disprove()

	tests := []struct {
		name   string
		header Header
		want   bool
	}{
		{"integer fits", Header{Offset: 12, Type: FieldType{Integer: &IntegerType{Size: 4}}}, true},
		{"integer overruns row", Header{Offset: 13, Type: FieldType{Integer: &IntegerType{Size: 4}}}, false},
		{"byte array needs array ref only", Header{Offset: 4, Type: FieldType{Array: true, Integer: &IntegerType{Size: 1}}}, true},
		{"short array needs elem16", Header{Offset: 4, Type: FieldType{Array: true, Integer: &IntegerType{Size: 2}}}, false},
		{"long array", Header{Offset: 4, Type: FieldType{Array: true, Integer: &IntegerType{Size: 4}}}, true},
		{"array past room", Header{Offset: 9, Type: FieldType{Array: true, Integer: &IntegerType{Size: 4}}}, false},
		{"decimal", Header{Offset: 8, Type: FieldType{Decimal: &DecimalType{Size: 8}}}, true},
		{"decimal array", Header{Offset: 0, Type: FieldType{Array: true, Decimal: &DecimalType{Size: 8}}}, true},
		{"bool", Header{Offset: 0, Type: FieldType{Boolean: true}}, true},
		{"bool with max 7", Header{Offset: 2, Type: FieldType{Boolean: true}}, false},
		{"string", Header{Offset: 0, Type: FieldType{String: true}}, true},
		{"string disproved", Header{Offset: 5, Type: FieldType{String: true}}, false},
		{"key", Header{Offset: 0, Type: FieldType{Key: &KeyType{}}}, true},
		{"key disproved", Header{Offset: 6, Type: FieldType{Key: &KeyType{}}}, false},
		{"foreign key", Header{Offset: 0, Type: FieldType{Key: &KeyType{Foreign: true}}}, true},
		{"foreign key without room", Header{Offset: 9, Type: FieldType{Key: &KeyType{Foreign: true}}}, false},
		{"foreign key with room but disproved", Header{Offset: 7, Type: FieldType{Key: &KeyType{Foreign: true}}}, false},
		{"untyped array", Header{Offset: 8, Type: FieldType{Array: true}}, true},
		{"untyped array without room", Header{Offset: 9, Type: FieldType{Array: true}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.header, stats, analysis.Width32)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestValidateErrors tests malformed headers
func TestValidateErrors(t *testing.T) {
	stats := freshStats(4)

	_, err := Validate(Header{Offset: 4, Type: FieldType{Boolean: true}}, stats, analysis.Width32)
	assert.ErrorIs(t, err, ErrOffsetRange)

	_, err = Validate(Header{Offset: 0}, stats, analysis.Width32)
	assert.ErrorIs(t, err, ErrCorruptedHeader)

	_, err = Validate(Header{Offset: 0, Type: FieldType{Integer: &IntegerType{Size: 3}}}, stats, analysis.Width32)
	assert.ErrorIs(t, err, ErrCorruptedHeader)
}

// TestValidateSchemaAgainstScan tests that a correct schema survives a real scan
func TestValidateSchemaAgainstScan(t *testing.T) {
	f := sampleFile(t)
	stats, err := analysis.Analyze(f.Input())
	require.NoError(t, err)

	results := ValidateSchema(sampleSchema(), stats, f.Width)
	require.Len(t, results, 6)
	for _, r := range results {
		assert.True(t, r.Valid, "header %s at %d", r.Header.Name, r.Header.Offset)
		assert.Empty(t, r.Error)
	}
	assert.True(t, AllValid(results))

	wrong := Schema{Headers: []Header{{Offset: 1, Type: FieldType{String: true}}}}
	assert.False(t, AllValid(ValidateSchema(wrong, stats, f.Width)))
}

// TestReadColumn tests decoding every declared column of the sample table
func TestReadColumn(t *testing.T) {
	f := sampleFile(t)
	want := [][]any{
		{true, false},
		{int64(-2), int64(300)},
		{"hi", ""},
		{uint64(1), nil},
		{[]any{int64(5), int64(-1)}, []any{}},
		{float64(1.5), float64(-0.25)},
	}

	for i, h := range sampleSchema().Headers {
		t.Run(h.Name, func(t *testing.T) {
			got, err := ReadColumn(h, f)
			require.NoError(t, err)
			assert.Equal(t, want[i], got)
		})
	}
}

// TestReadUnsigned tests unsigned integer decoding of a signed looking value
func TestReadUnsigned(t *testing.T) {
	f := sampleFile(t)
	got, err := ReadColumn(Header{Offset: 1, Type: FieldType{Integer: &IntegerType{Unsigned: true, Size: 2}}}, f)
	require.NoError(t, err)
	assert.Equal(t, []any{uint64(0xFFFE), uint64(300)}, got)
}

// TestFieldReaderErrors tests out of range reads
func TestFieldReaderErrors(t *testing.T) {
	f := sampleFile(t)

	_, err := NewFieldReader(Header{Offset: 20, Type: FieldType{Integer: &IntegerType{Size: 8}}}, f)
	assert.ErrorIs(t, err, ErrOffsetRange)

	read, err := NewFieldReader(Header{Offset: 0, Type: FieldType{Boolean: true}}, f)
	require.NoError(t, err)
	_, err = read(2)
	assert.ErrorIs(t, err, ErrOutOfRange)

	// array offsets read as string pointers land on unterminated element data
	_, err = ReadColumn(Header{Offset: 15, Type: FieldType{String: true}}, f)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

// TestReadString tests terminator alignment for both code unit sizes
func TestReadString(t *testing.T) {
	// 'a' followed by the terminator: the first zero run starts at an odd offset
	s, err := ReadString(utf16z("a"), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, "a", s)

	s, err = ReadString(utf16z("Āb"), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, "Āb", s)

	utf32z := append(le(uint32('o'), uint32('k')), 0, 0, 0, 0)
	s, err = ReadString(utf32z, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, "ok", s)

	_, err = ReadString([]byte{'a', 0}, 0, 2)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = ReadString([]byte{}, math.MaxUint64, 2)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

// TestSchemaFiles tests YAML and JSON round trips
func TestSchemaFiles(t *testing.T) {
	dir := t.TempDir()
	s := sampleSchema()

	for _, name := range []string{"Sample.yaml", "Sample.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, SaveFile(path, &s))

			got, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, s, *got)
		})
	}

	_, err := Decode([]byte("headers:\n  - offset: 3\n    type: {}\n"), false)
	assert.ErrorIs(t, err, ErrCorruptedHeader)

	named, err := Decode([]byte("headers:\n  - offset: 0\n    type: {boolean: true}\n"), false)
	require.NoError(t, err)
	assert.Equal(t, "", named.Name)
}
