/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: validate.go
Description: Validate command. Checks a declared schema against the hypotheses that
survive a scan of the dat file and fails when any header is rejected.
*/

package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kleascm/datprobe/pkg/reporting"
	"github.com/kleascm/datprobe/pkg/schema"
)

// ErrValidationFailed is returned when at least one header is rejected.
var ErrValidationFailed = errors.New("schema validation failed")

// RunValidate executes the validate command
func RunValidate(cmd *cobra.Command, args []string) error {
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
	if sc.Name == "" {
		sc.Name = TableName(args[0])
	}

	r, err := s.analyze(ctx, f)
	if err != nil {
		return err
	}

	results := schema.ValidateSchema(*sc, r.Columns, f.Width)
	failed := 0
	for _, res := range results {
		if !res.Valid {
			failed++
		}
	}
	s.logger.LogValidation(sc.Name, len(results), failed, nil)

	if err := reporting.RenderValidation(cmd.OutOrStdout(), format, f.Name, results); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d headers rejected", ErrValidationFailed, failed, len(results))
	}

	if viper.GetBool("save_schema") {
		st, err := s.requireStore()
		if err != nil {
			return err
		}
		if err := st.PutSchema(ctx, *sc); err != nil {
			return err
		}
		s.logger.Info("Schema saved", map[string]interface{}{"table": sc.Name})
	}
	return nil
}
