/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the datprobe commands. Provides configuration
loading, logging setup and the analysis session shared by analyze, validate and
read.
*/

package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/kleascm/datprobe/pkg/analysis"
	"github.com/kleascm/datprobe/pkg/datfile"
	"github.com/kleascm/datprobe/pkg/logging"
	"github.com/kleascm/datprobe/pkg/reporting"
	"github.com/kleascm/datprobe/pkg/schema"
	"github.com/kleascm/datprobe/pkg/store"
)

// LoadConfig loads configuration from files and environment
func LoadConfig() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("DATPROBE")
	viper.AutomaticEnv()

	return nil
}

// SetupLogging builds the datprobe logger from configuration and points the
// global logrus logger at the same level and formatter.
func SetupLogging() (*logging.Logger, error) {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(viper.GetString("log_level"))
	cfg.Format = logging.LogFormat(viper.GetString("log_format"))
	cfg.OutputDir = viper.GetString("log_dir")
	cfg.Compress = viper.GetBool("log_compress")
	if n := viper.GetInt("log_max_files"); n > 0 {
		cfg.MaxFiles = n
	}
	if n := viper.GetInt64("log_max_size"); n > 0 {
		cfg.MaxSize = n
	}

	logger, err := logging.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	level, err := logrus.ParseLevel(string(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(logging.NewFormatter(cfg.Format, cfg.Timestamp, cfg.Caller, cfg.Colors))

	return logger, nil
}

// ParseWidth accepts "auto", "4", "8", "32" and "64". auto returns 0 so the
// width is taken from the file extension.
func ParseWidth(s string) (analysis.PointerWidth, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return 0, nil
	case "32":
		return analysis.Width32, nil
	case "64":
		return analysis.Width64, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", analysis.ErrInvalidWidth, s)
	}
	return analysis.ParseWidth(n)
}

// session holds what a command needs to load and analyze dat files
type session struct {
	logger  *logging.Logger
	store   *store.Store
	width   analysis.PointerWidth
	workers int
	cache   bool
	runID   string
}

// newSession reads the shared settings and opens the database when configured.
func newSession(ctx context.Context) (*session, error) {
	if err := LoadConfig(); err != nil {
		return nil, err
	}

	logger, err := SetupLogging()
	if err != nil {
		return nil, err
	}

	width, err := ParseWidth(viper.GetString("width"))
	if err != nil {
		logger.Close()
		return nil, err
	}

	s := &session{
		logger:  logger,
		width:   width,
		workers: viper.GetInt("workers"),
		cache:   !viper.GetBool("no_cache"),
		runID:   uuid.NewString(),
	}

	if dbPath := viper.GetString("db_path"); dbPath != "" {
		s.store, err = store.Open(ctx, dbPath)
		if err != nil {
			logger.Close()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	}

	return s, nil
}

func (s *session) Close() {
	if s.store != nil {
		s.store.Close()
	}
	s.logger.Close()
}

// requireStore returns the database or an error naming the missing flag.
func (s *session) requireStore() (*store.Store, error) {
	if s.store == nil {
		return nil, errors.New("no database configured, pass --db or set DATPROBE_DB_PATH")
	}
	return s.store, nil
}

// load parses a dat file from disk.
func (s *session) load(path string) (*datfile.File, error) {
	f, err := datfile.Load(path, s.width)
	if err != nil {
		return nil, err
	}
	s.logger.LogFileLoaded(f.Name, f.Width.Size(), f.RowCount, f.RowLength, map[string]interface{}{"sha256": f.SHA256})
	s.logger.Debug("Sections framed", map[string]interface{}{
		"file":           f.Name,
		"fixed_bytes":    len(f.Fixed),
		"variable_bytes": len(f.Variable),
		"code_unit":      f.CodeUnit,
	})
	return f, nil
}

// analyze returns the column statistics of f, from the cache when possible.
func (s *session) analyze(ctx context.Context, f *datfile.File) (*reporting.Report, error) {
	cached, reason := s.cached(ctx, f)
	if cached != nil {
		s.logger.LogCacheHit(f.Name, f.SHA256, map[string]interface{}{"run_id": cached.RunID})
		r := reporting.NewReport(cached.RunID, f, cached.Columns, 0)
		r.Cached = true
		return r, nil
	}
	s.logger.Debug("Cache miss", map[string]interface{}{"file": f.Name, "reason": reason})

	start := time.Now()
	stats, err := analysis.AnalyzeConcurrent(ctx, f.Input(), s.workers)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", f.Name, err)
	}
	elapsed := time.Since(start)
	s.logger.LogAnalysis(f.Name, len(stats), elapsed, map[string]interface{}{"workers": s.workers})
	s.logger.Debug("Hypotheses surviving", map[string]interface{}{
		"file":      f.Name,
		"rows":      f.RowCount,
		"columns":   len(stats),
		"surviving": reporting.Summarize(stats),
	})

	if s.store != nil {
		err := s.store.PutAnalysis(ctx, store.Analysis{
			SHA256:     f.SHA256,
			Name:       f.Name,
			Size:       f.Size,
			Width:      f.Width,
			RowCount:   f.RowCount,
			RowLength:  f.RowLength,
			RunID:      s.runID,
			AnalyzedAt: time.Now(),
			Columns:    stats,
		})
		if err != nil {
			s.logger.Error("Cache store failed", map[string]interface{}{"file": f.Name, "error": err.Error()})
		}
	}

	return reporting.NewReport(s.runID, f, stats, elapsed), nil
}

// cached returns the stored analysis of f when it is still usable, or the
// reason it is not.
func (s *session) cached(ctx context.Context, f *datfile.File) (*store.Analysis, string) {
	if s.store == nil {
		return nil, "no database"
	}
	if !s.cache {
		return nil, "cache disabled"
	}

	a, err := s.store.FindAnalysis(ctx, f.SHA256)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, "not cached"
	case err != nil:
		s.logger.Warning("Cache lookup failed", map[string]interface{}{"file": f.Name, "error": err.Error()})
		return nil, "lookup failed"
	case a.Width != f.Width:
		return nil, "width changed"
	case a.RowLength != f.RowLength:
		return nil, "row length changed"
	}
	return a, ""
}

// loadSchema reads the schema file named by the schema key, or falls back to the
// schema stored for the table name of path.
func (s *session) loadSchema(ctx context.Context, path string) (*schema.Schema, error) {
	if file := viper.GetString("schema"); file != "" {
		return schema.LoadFile(file)
	}
	if s.store == nil {
		return nil, errors.New("no schema given, pass --schema or a --db holding a saved schema")
	}
	return s.store.FindSchema(ctx, TableName(path))
}

// TableName derives the table name from a dat file path: Mods.datl64.zst -> Mods.
func TableName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".zst")
	return strings.TrimSuffix(name, filepath.Ext(name))
}
