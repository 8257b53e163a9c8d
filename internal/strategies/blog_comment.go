package strategies

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/models"
)

// blogCommentHandler plans comment jobs against blog discovery pages.
// Content is generated per-job by the engine once the live page context is
// available, so jobs carry no payload.
type blogCommentHandler struct {
	planner *planner
	logger  arbor.ILogger
}

func (h *blogCommentHandler) Type() models.StrategyType {
	return models.StrategyBlogComment
}

func (h *blogCommentHandler) Execute(ctx context.Context, campaign *models.QueuedCampaign, cfg models.StrategyConfig) error {
	targets := targetsFromCatalog(blogCommentCatalog, campaign.Config.Keywords)
	_, err := h.planner.enqueue(ctx, campaign, cfg, h.Type(), targets, "")
	return err
}
