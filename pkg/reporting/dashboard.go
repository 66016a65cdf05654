/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: dashboard.go
Description: HTML dashboard for datprobe runs. Renders every analyzed file with its
summary counters and a per-offset candidate table into a single static page.
*/

package reporting

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DashboardGenerator writes HTML dashboards into an output directory
type DashboardGenerator struct {
	outputDir string
	logger    *logrus.Logger
	templates *template.Template
}

// DashboardData contains all data for dashboard generation
type DashboardData struct {
	Title       string
	GeneratedAt time.Time
	Reports     []*Report
}

var dashboardFuncs = template.FuncMap{
	"labels": func(r *Report, i int) string {
		return strings.Join(r.Columns[i].Labels(), " ")
	},
	"hex": func(b uint8) string { return fmt.Sprintf("0x%02X", b) },
}

var dashboard = template.Must(template.New("dashboard").Funcs(dashboardFuncs).Parse(dashboardTemplate))

// NewDashboardGenerator creates a new dashboard generator
func NewDashboardGenerator(outputDir string, logger *logrus.Logger) *DashboardGenerator {
	return &DashboardGenerator{
		outputDir: outputDir,
		logger:    logger,
		templates: dashboard,
	}
}

// GenerateDashboard writes index.html for the given reports and returns its path
func (dg *DashboardGenerator) GenerateDashboard(reports []*Report) (string, error) {
	if err := os.MkdirAll(dg.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outputFile := filepath.Join(dg.outputDir, "index.html")
	file, err := os.Create(outputFile)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := dg.templates.Execute(file, newDashboardData(reports)); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	dg.logger.Infof("Dashboard generated successfully in: %s", dg.outputDir)
	return outputFile, nil
}

func newDashboardData(reports []*Report) *DashboardData {
	title := "datprobe"
	if len(reports) == 1 {
		title = reports[0].File.Name
	}
	return &DashboardData{
		Title:       title,
		GeneratedAt: time.Now(),
		Reports:     reports,
	}
}

func renderHTML(w io.Writer, reports []*Report) error {
	return dashboard.Execute(w, newDashboardData(reports))
}
