/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: cache.go
Description: Cache commands. Lists and purges analyses cached in the database.
*/

package commands

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kleascm/datprobe/pkg/reporting"
)

// RunCacheList executes the cache list command
func RunCacheList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.requireStore()
	if err != nil {
		return err
	}
	format, err := reporting.ParseFormat(viper.GetString("format"))
	if err != nil {
		return err
	}

	entries, err := st.ListAnalyses(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case reporting.FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case reporting.FormatYAML:
		return yaml.NewEncoder(out).Encode(entries)
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.SHA256,
			e.Name,
			strconv.Itoa(e.Width.Size()),
			strconv.Itoa(e.RowCount),
			strconv.Itoa(e.RowLength),
			e.AnalyzedAt.Local().Format(time.DateTime),
		})
	}
	return reporting.WriteTable(out, []string{"SHA256", "NAME", "WIDTH", "ROWS", "ROW_LENGTH", "ANALYZED"}, rows)
}

// RunCachePurge executes the cache purge command
func RunCachePurge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.requireStore()
	if err != nil {
		return err
	}
	for _, sha := range args {
		if err := st.DeleteAnalysis(ctx, sha); err != nil {
			return err
		}
		s.logger.Info("Cache entry purged", map[string]interface{}{"sha256": sha})
	}
	return nil
}
