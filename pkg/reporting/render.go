/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: render.go
Description: Rendering of analysis and validation reports as aligned text tables,
JSON, YAML or a standalone HTML page.
*/

package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/kleascm/datprobe/pkg/schema"
)

// Format selects the report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHTML Format = "html"
)

// ParseFormat accepts the format names used on the command line.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML, FormatHTML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// Ext returns the file extension used for report files.
func (f Format) Ext() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// Render writes reports to w in the given format.
func Render(w io.Writer, format Format, reports []*Report) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	case FormatHTML:
		return renderHTML(w, reports)
	case FormatText, "":
		for i, r := range reports {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if err := renderText(w, r); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown report format %q", format)
}

func renderText(w io.Writer, r *Report) error {
	f := r.File
	source := "scanned"
	if r.Cached {
		source = "cached"
	}
	_, err := fmt.Fprintf(w, "%s  width=%d rows=%d row_length=%d size=%d (%s in %s)\nsha256 %s\n",
		f.Name, f.Width, f.RowCount, f.RowLength, f.Size, source, r.Duration, f.SHA256)
	if err != nil {
		return err
	}
	s := r.Summary
	_, err = fmt.Fprintf(w, "columns=%d bool=%d nullable=%d string=%d key=%d fkey=%d array=%d\n\n",
		s.Columns, s.Bool, s.Nullable, s.Strings, s.Keys, s.Foreign, s.Arrays)
	if err != nil {
		return err
	}

	t := table{header: []string{"OFFSET", "MAX", "CANDIDATES"}}
	for _, c := range r.Columns {
		labels := c.Labels()
		if len(labels) == 0 {
			labels = []string{"-"}
		}
		t.add(strconv.Itoa(c.Offset), fmt.Sprintf("0x%02X", c.MaxValue), strings.Join(labels, " "))
	}
	if err := t.write(w); err != nil {
		return err
	}

	if len(r.Validation) > 0 {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		return writeValidationTable(w, r.Validation)
	}
	return nil
}

// RenderValidation writes the header validation results of one file.
func RenderValidation(w io.Writer, format Format, name string, results []schema.Result) error {
	doc := struct {
		File    string          `json:"file" yaml:"file"`
		Valid   bool            `json:"valid" yaml:"valid"`
		Results []schema.Result `json:"results" yaml:"results"`
	}{name, schema.AllValid(results), results}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		return yaml.NewEncoder(w).Encode(doc)
	}

	status := "OK"
	if !doc.Valid {
		status = "FAILED"
	}
	if _, err := fmt.Fprintf(w, "%s: %s\n", name, status); err != nil {
		return err
	}
	return writeValidationTable(w, results)
}

func writeValidationTable(w io.Writer, results []schema.Result) error {
	t := table{header: []string{"OFFSET", "NAME", "TYPE", "RESULT"}}
	for _, r := range results {
		verdict := "ok"
		switch {
		case r.Error != "":
			verdict = "error: " + r.Error
		case !r.Valid:
			verdict = "rejected"
		}
		name := r.Header.Name
		if name == "" {
			name = "-"
		}
		t.add(strconv.Itoa(r.Header.Offset), name, r.Header.Type.String(), verdict)
	}
	return t.write(w)
}

// table is a column aligned text table. Widths are measured in terminal cells so
// wide runes in table or header names keep the columns straight.
type table struct {
	header []string
	rows   [][]string
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) write(w io.Writer) error {
	widths := make([]int, len(t.header))
	for _, row := range append([][]string{t.header}, t.rows...) {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var b strings.Builder
	for _, row := range append([][]string{t.header}, t.rows...) {
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
