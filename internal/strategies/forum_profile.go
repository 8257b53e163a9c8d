package strategies

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

// forumProfileHandler plans profile-creation jobs on forum platforms. The
// profile bio is drafted up front and carried in the job payload.
type forumProfileHandler struct {
	planner *planner
	content interfaces.ContentGenerator
	logger  arbor.ILogger
}

func (h *forumProfileHandler) Type() models.StrategyType {
	return models.StrategyForumProfile
}

func (h *forumProfileHandler) Execute(ctx context.Context, campaign *models.QueuedCampaign, cfg models.StrategyConfig) error {
	keyword := campaign.Config.Keywords[0]
	bio := generateOrTemplate(ctx, h.content, interfaces.ContentRequest{
		Keyword:   keyword,
		TargetURL: campaign.Config.TargetURL,
		Tone:      campaign.Config.Content.Tone,
		Language:  campaign.Config.Content.Language,
		MaxLength: campaign.Config.Content.MaxLength,
	}, h.logger)

	targets := targetsFromCatalog(forumProfileCatalog, campaign.Config.Keywords)
	_, err := h.planner.enqueue(ctx, campaign, cfg, h.Type(), targets, bio)
	return err
}
