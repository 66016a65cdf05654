/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: rows.go
Description: Rendering of decoded rows and plain tables.
*/

package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kleascm/datprobe/pkg/schema"
)

// ColumnName returns the header name, or its offset when the header is unnamed.
func ColumnName(h schema.Header) string {
	if h.Name != "" {
		return h.Name
	}
	return "@" + strconv.Itoa(h.Offset)
}

// RenderRows writes decoded rows, one value per header. Structured formats emit
// one object per row keyed by column name.
func RenderRows(w io.Writer, format Format, headers []schema.Header, rows [][]any) error {
	switch format {
	case FormatJSON, FormatYAML:
		docs := make([]map[string]any, len(rows))
		for i, row := range rows {
			doc := make(map[string]any, len(headers))
			for j, h := range headers {
				doc[ColumnName(h)] = row[j]
			}
			docs[i] = doc
		}
		if format == FormatYAML {
			return yaml.NewEncoder(w).Encode(docs)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}

	header := []string{"ROW"}
	for _, h := range headers {
		header = append(header, ColumnName(h))
	}
	cells := make([][]string, len(rows))
	for i, row := range rows {
		line := []string{strconv.Itoa(i)}
		for _, v := range row {
			line = append(line, formatCell(v))
		}
		cells[i] = line
	}
	return WriteTable(w, header, cells)
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case []any:
		parts := make([]string, len(x))
		for i, el := range x {
			parts[i] = formatCell(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(x)
	}
}

// WriteTable writes a column aligned text table.
func WriteTable(w io.Writer, header []string, rows [][]string) error {
	t := table{header: header, rows: rows}
	return t.write(w)
}
