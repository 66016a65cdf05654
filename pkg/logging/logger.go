/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger.go
Description: Logging system for datprobe. Provides structured logging to the console
and to timestamped log files, with JSON, text, custom and probe formats and an
asynchronous queue for high volume debug output.
*/

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warn"
	LogLevelError   LogLevel = "error"
)

// LogFormat represents the logging format
type LogFormat string

const (
	LogFormatJSON   LogFormat = "json"
	LogFormatText   LogFormat = "text"
	LogFormatCustom LogFormat = "custom"
	LogFormatProbe  LogFormat = "probe"
)

// filePrefix names every log file written by datprobe.
const filePrefix = "datprobe_"

// LoggerConfig holds the configuration for the logger
type LoggerConfig struct {
	Level     LogLevel  `json:"level"`
	Format    LogFormat `json:"format"`
	OutputDir string    `json:"output_dir"` // empty logs to the console only
	MaxFiles  int       `json:"max_files"`
	MaxSize   int64     `json:"max_size"` // in bytes
	Timestamp bool      `json:"timestamp"`
	Caller    bool      `json:"caller"`
	Colors    bool      `json:"colors"`
	Compress  bool      `json:"compress"`

	Console io.Writer `json:"-"` // defaults to os.Stderr
}

// DefaultConfig returns console logging at info level. Colors are enabled only
// when stderr is a terminal.
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:     LogLevelInfo,
		Format:    LogFormatProbe,
		MaxFiles:  10,
		MaxSize:   100 * 1024 * 1024, // 100MB
		Timestamp: true,
		Colors:    IsTerminal(os.Stderr),
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Validate checks the LoggerConfig for invalid or missing values.
func (c *LoggerConfig) Validate() error {
	if c.OutputDir != "" {
		if c.MaxFiles <= 0 {
			return fmt.Errorf("max_files must be positive")
		}
		if c.MaxSize <= 0 {
			return fmt.Errorf("max_size must be positive")
		}
	}
	switch c.Format {
	case LogFormatJSON, LogFormatText, LogFormatCustom, LogFormatProbe:
	default:
		return fmt.Errorf("unsupported log format: %s", c.Format)
	}
	switch c.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
	default:
		return fmt.Errorf("unsupported log level: %s", c.Level)
	}
	return nil
}

type logEntry struct {
	level  logrus.Level
	msg    string
	fields logrus.Fields
}

// Logger wraps a logrus logger with datprobe specific helpers and an async queue
type Logger struct {
	config     *LoggerConfig
	logger     *logrus.Logger
	manager    *LogManager
	fileHandle *os.File
	logPath    string
	startTime  time.Time

	logQueue chan logEntry
	done     chan struct{}
}

// NewLogger creates a new logger instance
func NewLogger(config *LoggerConfig) (*Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	l := &Logger{
		config:    config,
		logger:    logrus.New(),
		startTime: time.Now(),
		logQueue:  make(chan logEntry, 1024),
		done:      make(chan struct{}),
	}

	if err := l.setup(); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	go l.runLogQueue()

	return l, nil
}

// setup configures the logger with the given configuration
func (l *Logger) setup() error {
	level, err := logrus.ParseLevel(string(l.config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.logger.SetLevel(level)
	l.logger.SetReportCaller(l.config.Caller)

	l.logger.SetFormatter(NewFormatter(l.config.Format, l.config.Timestamp, l.config.Caller, l.config.Colors))

	console := l.config.Console
	if console == nil {
		console = os.Stderr
	}
	l.logger.SetOutput(console)

	return l.setupFileOutput(console)
}

// NewFormatter returns the logrus formatter for a log format.
func NewFormatter(format LogFormat, timestamp, caller, colors bool) logrus.Formatter {
	callerPrettyfier := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}

	switch format {
	case LogFormatJSON:
		return &logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: callerPrettyfier,
		}
	case LogFormatText:
		return &logrus.TextFormatter{
			FullTimestamp:    timestamp,
			TimestampFormat:  time.RFC3339,
			ForceColors:      colors,
			DisableColors:    !colors,
			CallerPrettyfier: callerPrettyfier,
		}
	case LogFormatCustom:
		return &CustomFormatter{Timestamp: timestamp, Caller: caller, Colors: colors}
	default:
		return &ProbeFormatter{CustomFormatter: CustomFormatter{Timestamp: timestamp, Caller: caller, Colors: colors}}
	}
}

// setupFileOutput adds a timestamped log file next to the console output
func (l *Logger) setupFileOutput(console io.Writer) error {
	if l.config.OutputDir == "" {
		return nil
	}

	if err := os.MkdirAll(l.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	l.manager = NewLogManager(l.config.OutputDir, l.config.MaxFiles, l.config.MaxSize, l.config.Compress)
	if err := l.manager.RotateLogs(); err != nil {
		return err
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	l.logPath = filepath.Join(l.config.OutputDir, fmt.Sprintf("%s%s.log", filePrefix, timestamp))

	file, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	l.fileHandle = file
	l.logger.SetOutput(io.MultiWriter(console, file))

	fields := logrus.Fields{
		"start_time": l.startTime.Format(time.RFC3339),
		"log_file":   l.logPath,
		"level":      l.config.Level,
		"format":     l.config.Format,
	}
	if stats, err := l.manager.GetLogStats(); err == nil {
		fields["log_files"] = stats.TotalFiles
		fields["log_bytes"] = stats.TotalSize
		fields["compressed"] = stats.CompressedFiles
	}
	l.logger.WithFields(fields).Debug("datprobe logging system initialized")

	return nil
}

// runLogQueue flushes queued entries until the queue is closed
func (l *Logger) runLogQueue() {
	defer close(l.done)
	for entry := range l.logQueue {
		l.logger.WithFields(entry.fields).Log(entry.level, entry.msg)
	}
}

// LogFileLoaded logs a parsed dat file
func (l *Logger) LogFileLoaded(name string, width, rowCount, rowLength int, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["file"] = name
	fields["width"] = width
	fields["rows"] = rowCount
	fields["row_length"] = rowLength

	l.logger.WithFields(fields).Info("File loaded")
}

// LogAnalysis logs a finished column scan
func (l *Logger) LogAnalysis(name string, columns int, duration time.Duration, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["file"] = name
	fields["columns"] = columns
	fields["duration"] = duration

	l.logger.WithFields(fields).Info("Analysis complete")
}

// LogValidation logs the outcome of checking a schema against a file
func (l *Logger) LogValidation(table string, headers, failed int, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["table"] = table
	fields["headers"] = headers
	fields["failed"] = failed

	entry := l.logger.WithFields(fields)
	if failed > 0 {
		entry.Warning("Schema validated")
		return
	}
	entry.Info("Schema validated")
}

// LogCacheHit logs an analysis served from the cache
func (l *Logger) LogCacheHit(name, sha256 string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["file"] = name
	fields["sha256"] = sha256

	l.logger.WithFields(fields).Info("Cache hit")
}

// Close drains the queue, closes the log file and removes old log files
func (l *Logger) Close() error {
	close(l.logQueue)
	<-l.done

	if l.fileHandle != nil {
		l.fileHandle.Close()
	}
	if l.manager != nil {
		if err := l.manager.CleanupOldLogs(); err != nil {
			return fmt.Errorf("failed to cleanup log files: %w", err)
		}
	}
	return nil
}

// GetLogger returns the underlying logrus logger
func (l *Logger) GetLogger() *logrus.Logger {
	return l.logger
}

// LogPath returns the current log file, or "" when logging to the console only
func (l *Logger) LogPath() string {
	return l.logPath
}

// Debug logs a debug message (async)
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.logQueue <- logEntry{level: logrus.DebugLevel, msg: msg, fields: fields}
}

// Info logs an info message (async)
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.logQueue <- logEntry{level: logrus.InfoLevel, msg: msg, fields: fields}
}

// Warning logs a warning message (async)
func (l *Logger) Warning(msg string, fields map[string]interface{}) {
	l.logQueue <- logEntry{level: logrus.WarnLevel, msg: msg, fields: fields}
}

// Error logs an error message (async)
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.logQueue <- logEntry{level: logrus.ErrorLevel, msg: msg, fields: fields}
}
