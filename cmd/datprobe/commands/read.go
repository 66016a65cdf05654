/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: read.go
Description: Read command. Decodes the declared columns of a dat file row by row.
*/

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kleascm/datprobe/pkg/reporting"
	"github.com/kleascm/datprobe/pkg/schema"
)

// RunRead executes the read command
func RunRead(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	format, err := reporting.ParseFormat(viper.GetString("format"))
	if err != nil {
		return err
	}

	f, err := s.load(args[0])
	if err != nil {
		return err
	}
	sc, err := s.loadSchema(ctx, args[0])
	if err != nil {
		return err
	}

	readers := make([]schema.FieldReader, len(sc.Headers))
	for i, h := range sc.Headers {
		if readers[i], err = schema.NewFieldReader(h, f); err != nil {
			return fmt.Errorf("column %s: %w", reporting.ColumnName(h), err)
		}
	}

	limit := f.RowCount
	if n := viper.GetInt("limit"); n > 0 && n < limit {
		limit = n
	}

	rows := make([][]any, limit)
	for row := range rows {
		values := make([]any, len(readers))
		for i, read := range readers {
			v, err := read(row)
			if err != nil {
				return fmt.Errorf("row %d column %s: %w", row, reporting.ColumnName(sc.Headers[i]), err)
			}
			values[i] = v
		}
		rows[row] = values
	}

	return reporting.RenderRows(cmd.OutOrStdout(), format, sc.Headers, rows)
}
