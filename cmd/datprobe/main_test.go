/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main_test.go
Description: End to end tests of the datprobe commands on a generated dat table.
*/

package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleascm/datprobe/cmd/datprobe/commands"
	"github.com/kleascm/datprobe/pkg/datfile"
	"github.com/kleascm/datprobe/pkg/reporting"
	"github.com/kleascm/datprobe/pkg/schema"
)

func le(vals ...any) []byte {
	var buf bytes.Buffer
	for _, v := range vals {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

// writeFixture writes Sample.dat (two rows of bool, i16, string, key, array<i32>,
// f32) and a matching schema file.
func writeFixture(t *testing.T) (dir, dat, schemaPath string) {
	t.Helper()
	dir = t.TempDir()

	variable := bytes.Join([][]byte{
		datfile.Marker(),
		le(uint16('h'), uint16('i'), uint32(0)),
		le(uint32(0)),
		le(int32(5), int32(-1)),
	}, nil)
	fixed := bytes.Join([][]byte{
		{1}, le(int16(-2), uint32(8), uint32(1), uint32(2), uint32(20), float32(1.5)),
		{0}, le(int16(300), uint32(16), uint32(0xFEFEFEFE), uint32(0), uint32(8), float32(-0.25)),
	}, nil)
	dat = filepath.Join(dir, "Sample.dat")
	require.NoError(t, os.WriteFile(dat, datfile.Encode(2, fixed, variable), 0644))

	sc := schema.Schema{Headers: []schema.Header{
		{Name: "Flag", Offset: 0, Type: schema.FieldType{Boolean: true}},
		{Name: "Delta", Offset: 1, Type: schema.FieldType{Integer: &schema.IntegerType{Size: 2}}},
		{Name: "Id", Offset: 3, Type: schema.FieldType{String: true}},
		{Name: "Parent", Offset: 7, Type: schema.FieldType{Key: &schema.KeyType{}}},
		{Name: "Values", Offset: 11, Type: schema.FieldType{Array: true, Integer: &schema.IntegerType{Size: 4}}},
		{Name: "Weight", Offset: 19, Type: schema.FieldType{Decimal: &schema.DecimalType{Size: 4}}},
	}}
	schemaPath = filepath.Join(dir, "Sample.yaml")
	require.NoError(t, schema.SaveFile(schemaPath, &sc))
	return dir, dat, schemaPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

// TestAnalyzeCommand tests scanning, caching and report files
func TestAnalyzeCommand(t *testing.T) {
	dir, dat, _ := writeFixture(t)
	db := filepath.Join(dir, "datprobe.db")
	outDir := filepath.Join(dir, "reports")

	out, err := run(t, "analyze", dat, "--format", "json", "--db", db, "--output-dir", outDir)
	require.NoError(t, err)

	var reports []reporting.Report
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	assert.False(t, reports[0].Cached)
	assert.Equal(t, 23, reports[0].File.RowLength)
	assert.True(t, reports[0].Columns[3].StringRef.Alive())
	assert.True(t, reports[0].Columns[11].Array.Elem32.Alive())

	files, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	out, err = run(t, "analyze", dat, "--format", "json", "--db", db)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	assert.True(t, reports[0].Cached)
	assert.Equal(t, 23, len(reports[0].Columns))

	out, err = run(t, "analyze", dat, "--format", "json", "--db", db, "--no-cache")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	assert.False(t, reports[0].Cached)
}

// TestAnalyzeText tests the default text output and width override
func TestAnalyzeText(t *testing.T) {
	_, dat, _ := writeFixture(t)

	out, err := run(t, "analyze", dat)
	require.NoError(t, err)
	assert.Contains(t, out, "Sample.dat  width=4 rows=2 row_length=23")

	_, err = run(t, "analyze", dat, "--width", "3")
	assert.Error(t, err)

	_, err = run(t, "analyze", filepath.Join(filepath.Dir(dat), "missing.dat"))
	assert.Error(t, err)
}

// TestValidateCommand tests accepted, saved and rejected schemas
func TestValidateCommand(t *testing.T) {
	dir, dat, schemaPath := writeFixture(t)
	db := filepath.Join(dir, "datprobe.db")

	out, err := run(t, "validate", dat, "--schema", schemaPath, "--db", db, "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "Sample.dat: OK")

	// the saved schema is found by table name
	out, err = run(t, "validate", dat, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Values")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"headers":[{"offset":1,"type":{"string":true}}]}`), 0644))
	out, err = run(t, "validate", dat, "--schema", bad)
	assert.ErrorIs(t, err, commands.ErrValidationFailed)
	assert.Contains(t, out, "FAILED")

	_, err = run(t, "validate", dat)
	assert.Error(t, err)
}

// TestReadCommand tests row decoding with a limit
func TestReadCommand(t *testing.T) {
	_, dat, schemaPath := writeFixture(t)

	out, err := run(t, "read", dat, "--schema", schemaPath, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Flag")
	assert.Contains(t, out, `"hi"`)
	assert.Contains(t, out, "[5, -1]")
	assert.NotContains(t, out, "300")

	out, err = run(t, "read", dat, "--schema", schemaPath, "--format", "json")
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Nil(t, rows[1]["Parent"])
	assert.Equal(t, float64(300), rows[1]["Delta"])
}

// TestCacheCommands tests listing and purging cached analyses
func TestCacheCommands(t *testing.T) {
	dir, dat, _ := writeFixture(t)
	db := filepath.Join(dir, "datprobe.db")

	_, err := run(t, "analyze", dat, "--db", db)
	require.NoError(t, err)

	out, err := run(t, "cache", "list", "--db", db, "--format", "json")
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	sha := entries[0]["sha256"].(string)

	out, err = run(t, "cache", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, sha)

	_, err = run(t, "cache", "purge", sha, "--db", db)
	require.NoError(t, err)
	_, err = run(t, "cache", "purge", sha, "--db", db)
	assert.Error(t, err)

	_, err = run(t, "cache", "list")
	assert.Error(t, err)
}
