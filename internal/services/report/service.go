package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

// Generator writes PDF completion reports for finished campaigns.
type Generator struct {
	dir    string
	jobs   interfaces.JobStorage
	logger arbor.ILogger
}

// NewGenerator creates a report generator writing into dir.
func NewGenerator(dir string, jobs interfaces.JobStorage, logger arbor.ILogger) *Generator {
	return &Generator{
		dir:    dir,
		jobs:   jobs,
		logger: logger,
	}
}

// GenerateCompletionReport builds the report for a finished campaign and
// writes it as a validated PDF. Returns the report file path.
func (g *Generator) GenerateCompletionReport(ctx context.Context, campaign *models.QueuedCampaign) (string, error) {
	jobs, err := g.jobs.ListJobsByCampaign(ctx, campaign.ID, "", 0)
	if err != nil {
		return "", fmt.Errorf("list jobs for report: %w", err)
	}

	markdown := buildSummary(campaign, jobs)
	pdfBytes, err := renderPDF(markdown)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(g.dir, fmt.Sprintf("%s.pdf", campaign.ID))
	if err := os.WriteFile(path, pdfBytes, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	// A report nobody can open is worse than no report.
	if err := api.ValidateFile(path, nil); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("generated report failed validation: %w", err)
	}

	g.logger.Info().
		Str("campaign_id", campaign.ID).
		Str("path", path).
		Int("jobs", len(jobs)).
		Msg("Completion report written")
	return path, nil
}

// renderPDF converts report markdown to PDF bytes.
func renderPDF(markdown string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 10)

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	r := &reportRenderer{pdf: pdf, source: source}
	if err := r.render(doc); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}
