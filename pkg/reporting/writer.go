/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: writer.go
Description: Writes rendered reports into an output directory with timestamped,
format-specific file names.
*/

package reporting

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteReportFile renders reports and writes them to dir, returning the file path.
func WriteReportFile(dir, name string, format Format, reports []*Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	// 2024-06-11_01-30-00_Mods.json
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	filePath := filepath.Join(dir, fmt.Sprintf("%s_%s.%s", timestamp, base, format.Ext()))

	var buf bytes.Buffer
	if err := Render(&buf, format, reports); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	if err := os.WriteFile(filePath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return filePath, nil
}
