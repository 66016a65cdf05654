/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: report.go
Description: Analysis reports for datprobe. A report carries the dat file summary,
the surviving hypotheses of every column and, when a schema was checked, the
per-header validation results.
*/

package reporting

import (
	"time"

	"github.com/kleascm/datprobe/pkg/analysis"
	"github.com/kleascm/datprobe/pkg/datfile"
	"github.com/kleascm/datprobe/pkg/schema"
)

// Report is the result of analyzing one dat file.
type Report struct {
	RunID       string                 `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time              `json:"generated_at" yaml:"generated_at"`
	File        FileSummary            `json:"file" yaml:"file"`
	Cached      bool                   `json:"cached" yaml:"cached"`
	Duration    time.Duration          `json:"duration" yaml:"duration"`
	Summary     Summary                `json:"summary" yaml:"summary"`
	Columns     []analysis.ColumnStats `json:"columns" yaml:"columns"`
	Validation  []schema.Result        `json:"validation,omitempty" yaml:"validation,omitempty"`
}

// FileSummary describes the analyzed file.
type FileSummary struct {
	Name      string `json:"name" yaml:"name"`
	SHA256    string `json:"sha256" yaml:"sha256"`
	Size      int    `json:"size" yaml:"size"`
	Width     int    `json:"width" yaml:"width"`
	RowCount  int    `json:"row_count" yaml:"row_count"`
	RowLength int    `json:"row_length" yaml:"row_length"`
}

// Summary counts columns by surviving interpretation.
type Summary struct {
	Columns  int `json:"columns" yaml:"columns"`
	Bool     int `json:"bool" yaml:"bool"`
	Nullable int `json:"nullable" yaml:"nullable"`
	Strings  int `json:"strings" yaml:"strings"`
	Keys     int `json:"keys" yaml:"keys"`
	Foreign  int `json:"foreign_keys" yaml:"foreign_keys"`
	Arrays   int `json:"arrays" yaml:"arrays"`
}

// NewReport builds a report for f from its column statistics.
func NewReport(runID string, f *datfile.File, stats []analysis.ColumnStats, elapsed time.Duration) *Report {
	return &Report{
		RunID:       runID,
		GeneratedAt: time.Now(),
		File: FileSummary{
			Name:      f.Name,
			SHA256:    f.SHA256,
			Size:      f.Size,
			Width:     f.Width.Size(),
			RowCount:  f.RowCount,
			RowLength: f.RowLength,
		},
		Duration: elapsed,
		Summary:  Summarize(stats),
		Columns:  stats,
	}
}

// Summarize counts the columns for which each interpretation is still alive.
func Summarize(stats []analysis.ColumnStats) Summary {
	s := Summary{Columns: len(stats)}
	for _, c := range stats {
		if c.MaxValue <= 1 {
			s.Bool++
		}
		if c.NullableSized.Seen() {
			s.Nullable++
		}
		if c.StringRef.Alive() {
			s.Strings++
		}
		if c.SelfKeyRef.Alive() {
			s.Keys++
		}
		if c.ForeignKeyRef.Alive() {
			s.Foreign++
		}
		if c.ArrayRef.Alive() {
			s.Arrays++
		}
	}
	return s
}
