/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: store_test.go
Description: Round trip tests for the analysis cache and schema store.
*/

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleascm/datprobe/pkg/analysis"
	"github.com/kleascm/datprobe/pkg/schema"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "datprobe.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleAnalysis(sha string, at time.Time) Analysis {
	cols := []analysis.ColumnStats{
		analysis.NewColumnStats(0, 8, analysis.Width32),
		analysis.NewColumnStats(1, 8, analysis.Width32),
	}
	cols[0].MaxValue = 3
	cols[0].NullableSized.Observe(true)
	cols[1].StringRef.Disprove()
	cols[1].Array.Elem64.Disprove()

	return Analysis{
		SHA256:     sha,
		Name:       "Mods.dat",
		Size:       128,
		Width:      analysis.Width32,
		RowCount:   4,
		RowLength:  8,
		RunID:      uuid.NewString(),
		AnalyzedAt: at,
		Columns:    cols,
	}
}

// TestAnalysisRoundTrip tests that cached statistics come back unchanged
func TestAnalysisRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	want := sampleAnalysis("aa", time.Date(2024, 5, 1, 12, 0, 0, 123, time.UTC))
	require.NoError(t, s.PutAnalysis(ctx, want))

	got, err := s.FindAnalysis(ctx, "aa")
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	_, err = s.FindAnalysis(ctx, "bb")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestAnalysisReplaceListDelete tests replacement, ordering and deletion
func TestAnalysisReplaceListDelete(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	older := sampleAnalysis("aa", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	newer := sampleAnalysis("bb", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.PutAnalysis(ctx, older))
	require.NoError(t, s.PutAnalysis(ctx, newer))

	older.RowCount = 9
	require.NoError(t, s.PutAnalysis(ctx, older))

	list, err := s.ListAnalyses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bb", list[0].SHA256)
	assert.Equal(t, 9, list[1].RowCount)
	assert.Nil(t, list[0].Columns)

	require.NoError(t, s.DeleteAnalysis(ctx, "aa"))
	assert.ErrorIs(t, s.DeleteAnalysis(ctx, "aa"), ErrNotFound)

	list, err = s.ListAnalyses(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// TestSchemaRoundTrip tests storing schemas per table name
func TestSchemaRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	sc := schema.Schema{
		Name: "Mods",
		Headers: []schema.Header{
			{Name: "Id", Offset: 0, Type: schema.FieldType{String: true}},
			{Name: "Stats", Offset: 4, Type: schema.FieldType{Array: true, Key: &schema.KeyType{Foreign: true}}},
		},
	}
	require.NoError(t, s.PutSchema(ctx, sc))

	got, err := s.FindSchema(ctx, "Mods")
	require.NoError(t, err)
	assert.Equal(t, sc, *got)

	sc.Headers = sc.Headers[:1]
	require.NoError(t, s.PutSchema(ctx, sc))
	got, err = s.FindSchema(ctx, "Mods")
	require.NoError(t, err)
	assert.Len(t, got.Headers, 1)

	_, err = s.FindSchema(ctx, "Tags")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.PutSchema(ctx, schema.Schema{}))
}
