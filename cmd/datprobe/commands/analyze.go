/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: analyze.go
Description: Analyze command. Infers per-column type candidates for each dat file,
prints the reports and optionally writes them to the output directory.
*/

package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kleascm/datprobe/pkg/reporting"
)

// RunAnalyze executes the analyze command
func RunAnalyze(cmd *cobra.Command, args []string) error {
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

	reports := make([]*reporting.Report, 0, len(args))
	for _, path := range args {
		f, err := s.load(path)
		if err != nil {
			return err
		}
		r, err := s.analyze(ctx, f)
		if err != nil {
			return err
		}
		reports = append(reports, r)
	}

	if err := reporting.Render(cmd.OutOrStdout(), format, reports); err != nil {
		return err
	}

	outputDir := viper.GetString("output_dir")
	if outputDir == "" {
		return nil
	}

	if format == reporting.FormatHTML {
		_, err := reporting.NewDashboardGenerator(outputDir, s.logger.GetLogger()).GenerateDashboard(reports)
		return err
	}

	name := "datprobe"
	if len(args) == 1 {
		name = TableName(args[0])
	}
	path, err := reporting.WriteReportFile(outputDir, name, format, reports)
	if err != nil {
		return err
	}
	s.logger.Info("Report written", map[string]interface{}{"path": path})
	return nil
}
