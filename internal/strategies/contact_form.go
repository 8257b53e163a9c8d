package strategies

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

// contactFormHandler plans site-contact outreach jobs. The message body is
// drafted up front; the engine fills it into whatever form it finds.
type contactFormHandler struct {
	planner *planner
	content interfaces.ContentGenerator
	logger  arbor.ILogger
}

func (h *contactFormHandler) Type() models.StrategyType {
	return models.StrategyContactForm
}

func (h *contactFormHandler) Execute(ctx context.Context, campaign *models.QueuedCampaign, cfg models.StrategyConfig) error {
	message := generateOrTemplate(ctx, h.content, interfaces.ContentRequest{
		Keyword:   campaign.Config.Keywords[0],
		TargetURL: campaign.Config.TargetURL,
		Tone:      campaign.Config.Content.Tone,
		Language:  campaign.Config.Content.Language,
		MaxLength: campaign.Config.Content.MaxLength,
	}, h.logger)

	targets := targetsFromCatalog(contactFormCatalog, campaign.Config.Keywords)
	_, err := h.planner.enqueue(ctx, campaign, cfg, h.Type(), targets, message)
	return err
}
