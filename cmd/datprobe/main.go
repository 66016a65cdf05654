/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Command-line interface for datprobe. Infers column types of dat tables,
validates declared schemas against the inferred candidates, decodes columns and
manages the analysis cache.
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kleascm/datprobe/cmd/datprobe/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree and binds its flags to viper
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "datprobe",
		Short: "datprobe - column type inference for dat tables",
		Long: `datprobe scans the fixed-size rows of dat tables and reports, for every byte
offset, which interpretations survive every row: boolean, nullable, string pointer,
row key, foreign key or array. Declared schemas can be checked against the
surviving candidates and used to decode columns.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add persistent flags
	rootCmd.PersistentFlags().String("config", "", "Configuration file path")
	rootCmd.PersistentFlags().String("log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "probe", "Log format (text, json, custom, probe)")
	rootCmd.PersistentFlags().String("log-dir", "", "Log output directory (console only when empty)")
	rootCmd.PersistentFlags().Bool("log-compress", true, "Gzip log files when they are rotated")
	rootCmd.PersistentFlags().Int("log-max-files", 10, "Number of log files kept in the log directory")
	rootCmd.PersistentFlags().Int64("log-max-size", 100*1024*1024, "Log file size in bytes that triggers rotation")
	rootCmd.PersistentFlags().String("db", "", "SQLite database for cached analyses and saved schemas")
	rootCmd.PersistentFlags().String("format", "text", "Output format (text, json, yaml, html)")
	rootCmd.PersistentFlags().String("width", "auto", "Pointer width (auto, 4, 8)")
	rootCmd.PersistentFlags().Int("workers", 0, "Number of parallel workers (0 = auto-detect)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Always rescan, even when the database holds a result")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("log_compress", rootCmd.PersistentFlags().Lookup("log-compress"))
	viper.BindPFlag("log_max_files", rootCmd.PersistentFlags().Lookup("log-max-files"))
	viper.BindPFlag("log_max_size", rootCmd.PersistentFlags().Lookup("log-max-size"))
	viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	viper.BindPFlag("width", rootCmd.PersistentFlags().Lookup("width"))
	viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	viper.BindPFlag("no_cache", rootCmd.PersistentFlags().Lookup("no-cache"))

	// Add analyze command
	analyzeCmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Infer column type candidates of dat files",
		Long: `Load each dat file (.dat, .datl, .dat64, .datl64, optionally .zst compressed),
scan every row and print the candidates that survive for every byte offset.`,
		Args: cobra.MinimumNArgs(1),
		RunE: commands.RunAnalyze,
	}
	analyzeCmd.Flags().String("output-dir", "", "Directory for timestamped report files")
	viper.BindPFlag("output_dir", analyzeCmd.Flags().Lookup("output-dir"))
	rootCmd.AddCommand(analyzeCmd)

	// Add validate command
	validateCmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a declared schema against a dat file",
		Long: `Check every declared header against the candidates inferred for its offset.
Exits with an error when any header is rejected. Without --schema the schema saved
for the table name is used.`,
		Args: cobra.ExactArgs(1),
		RunE: commands.RunValidate,
	}
	validateCmd.Flags().String("schema", "", "Schema file (yaml or json)")
	validateCmd.Flags().Bool("save", false, "Save the schema in the database when it validates")
	viper.BindPFlag("save_schema", validateCmd.Flags().Lookup("save"))
	rootCmd.AddCommand(validateCmd)

	// Add read command
	readCmd := &cobra.Command{
		Use:   "read <file>",
		Short: "Decode the declared columns of a dat file",
		Args:  cobra.ExactArgs(1),
		RunE:  commands.RunRead,
	}
	readCmd.Flags().String("schema", "", "Schema file (yaml or json)")
	readCmd.Flags().Int("limit", 0, "Maximum number of rows to print (0 = all)")
	viper.BindPFlag("limit", readCmd.Flags().Lookup("limit"))
	rootCmd.AddCommand(readCmd)

	// schema is bound per command since validate and read both define it
	bindSchema := func(cmd *cobra.Command, _ []string) error {
		return viper.BindPFlag("schema", cmd.Flags().Lookup("schema"))
	}
	validateCmd.PreRunE = bindSchema
	readCmd.PreRunE = bindSchema

	// Add cache commands
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the analysis cache",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached analyses",
		Args:  cobra.NoArgs,
		RunE:  commands.RunCacheList,
	})
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "purge <sha256>...",
		Short: "Remove cached analyses",
		Args:  cobra.MinimumNArgs(1),
		RunE:  commands.RunCachePurge,
	})
	rootCmd.AddCommand(cacheCmd)

	return rootCmd
}
