package output

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vsinha/sampledist/pkg/application/dto"
)

//go:embed templates/*.html
var templateFS embed.FS

var reportTemplate = template.Must(template.New("coverage_report.html").
	Funcs(template.FuncMap{
		"percent": func(r float64) string { return fmt.Sprintf("%.2f%%", r*100) },
	}).
	ParseFS(templateFS, "templates/coverage_report.html"))

// reportData is the coverage dashboard plus render metadata
type reportData struct {
	*dto.CoverageDashboard
	GeneratedAt string
}

// RenderHTML renders the coverage dashboard as a standalone HTML page
func RenderHTML(dashboard *dto.CoverageDashboard, now time.Time) (string, error) {
	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, reportData{
		CoverageDashboard: dashboard,
		GeneratedAt:       now.Format("2006-01-02 15:04:05"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// generateHTMLOutput prints the report to w, or saves it to OutputDir
func generateHTMLOutput(w io.Writer, dashboard *dto.CoverageDashboard, config Config) error {
	html, err := RenderHTML(dashboard, time.Now())
	if err != nil {
		return err
	}

	if config.OutputDir == "" {
		_, err := io.WriteString(w, html)
		return err
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, "coverage_report.html")
	if err := os.WriteFile(filename, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(w, "🌐 HTML report saved to: %s\n", filename)
	}
	return nil
}
