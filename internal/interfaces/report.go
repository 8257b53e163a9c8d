package interfaces

import (
	"context"

	"github.com/linkforge/linkforge/internal/models"
)

// ReportGenerator produces completion reports for finished campaigns.
type ReportGenerator interface {
	// GenerateCompletionReport writes the report and returns its file path.
	GenerateCompletionReport(ctx context.Context, campaign *models.QueuedCampaign) (string, error)
}
