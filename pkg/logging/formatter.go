/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: formatter.go
Description: Custom log formatters for datprobe. CustomFormatter prints colored,
sorted key=value fields; ProbeFormatter adds an event prefix for the file, scan,
cache and schema messages emitted by the CLI.
*/

package logging

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// CustomFormatter provides readable, structured logging output
type CustomFormatter struct {
	Timestamp bool
	Caller    bool
	Colors    bool
}

// Format formats a log entry
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.format(entry, "", f.formatValue)
}

func (f *CustomFormatter) format(entry *logrus.Entry, prefix string, value func(string, interface{}) string) ([]byte, error) {
	var output strings.Builder

	if f.Timestamp {
		timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
		output.WriteString(f.paint(36, timestamp) + " ") // Cyan
	}

	level := strings.ToUpper(entry.Level.String())
	output.WriteString(f.paint(f.getLevelColor(entry.Level), level) + " ")

	if prefix != "" {
		output.WriteString(f.paint(35, "["+prefix+"]") + " ") // Magenta
	}

	if f.Caller && entry.HasCaller() {
		caller := fmt.Sprintf("%s:%d", entry.Caller.File, entry.Caller.Line)
		output.WriteString(f.paint(33, "["+caller+"]") + " ") // Yellow
	}

	output.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		output.WriteString(" ")
		output.WriteString(f.formatFields(entry.Data, value))
	}

	output.WriteString("\n")
	return []byte(output.String()), nil
}

func (f *CustomFormatter) paint(color int, s string) string {
	if !f.Colors {
		return s
	}
	return fmt.Sprintf("\033[%dm%s\033[0m", color, s)
}

// getLevelColor returns the ANSI color code for a log level
func (f *CustomFormatter) getLevelColor(level logrus.Level) int {
	switch level {
	case logrus.DebugLevel:
		return 37 // White
	case logrus.InfoLevel:
		return 32 // Green
	case logrus.WarnLevel:
		return 33 // Yellow
	case logrus.ErrorLevel:
		return 31 // Red
	case logrus.FatalLevel, logrus.PanicLevel:
		return 35 // Magenta
	default:
		return 37
	}
}

// formatFields formats structured fields in key order
func (f *CustomFormatter) formatFields(fields logrus.Fields, value func(string, interface{}) string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		formatted := value(key, fields[key])
		if f.Colors {
			parts = append(parts, fmt.Sprintf("\033[34m%s\033[0m=\033[32m%s\033[0m", key, formatted)) // Blue key, Green value
		} else {
			parts = append(parts, fmt.Sprintf("%s=%s", key, formatted))
		}
	}

	return strings.Join(parts, " ")
}

// formatValue formats a field value appropriately
func (f *CustomFormatter) formatValue(_ string, value interface{}) string {
	switch v := value.(type) {
	case time.Duration:
		return v.String()
	case time.Time:
		return v.Format("15:04:05.000")
	case string:
		if len(v) > 50 {
			return fmt.Sprintf("%s...", v[:50])
		}
		return v
	case []byte:
		if len(v) > 20 {
			return fmt.Sprintf("[%d bytes]", len(v))
		}
		return fmt.Sprintf("%x", v)
	case error:
		return v.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ProbeFormatter tags datprobe events with a short prefix
type ProbeFormatter struct {
	CustomFormatter
}

// Format formats datprobe log entries with an event prefix
func (f *ProbeFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.format(entry, f.getProbePrefix(entry.Message), f.formatProbeValue)
}

// getProbePrefix returns a prefix based on the log message
func (f *ProbeFormatter) getProbePrefix(message string) string {
	switch {
	case strings.HasPrefix(message, "File loaded"):
		return "LOAD"
	case strings.HasPrefix(message, "Analysis complete"):
		return "SCAN"
	case strings.HasPrefix(message, "Cache"):
		return "CACHE"
	case strings.HasPrefix(message, "Schema"):
		return "SCHEMA"
	case strings.HasPrefix(message, "Report"):
		return "REPORT"
	default:
		return ""
	}
}

// formatProbeValue shortens hashes and renders durations
func (f *ProbeFormatter) formatProbeValue(key string, value interface{}) string {
	switch key {
	case "sha256":
		if s, ok := value.(string); ok && len(s) > 12 {
			return s[:12]
		}
	case "duration":
		if d, ok := value.(time.Duration); ok {
			return d.Round(time.Microsecond).String()
		}
	}
	return f.formatValue(key, value)
}
