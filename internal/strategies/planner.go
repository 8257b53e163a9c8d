package strategies

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

// planner turns planned targets into persisted posting jobs. Shared by every
// strategy handler; the rate limiter paces job creation so a burst of
// strategies cannot flood the store or the event stream.
type planner struct {
	jobs    interfaces.JobStorage
	events  interfaces.EventService
	limiter *rate.Limiter
	logger  arbor.ILogger
}

func newPlanner(jobs interfaces.JobStorage, events interfaces.EventService, logger arbor.ILogger) *planner {
	return &planner{
		jobs:    jobs,
		events:  events,
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
		logger:  logger,
	}
}

// jobLimit resolves the per-run job cap: strategy daily limit, falling back
// to the campaign daily limit.
func jobLimit(campaign *models.QueuedCampaign, cfg models.StrategyConfig) int {
	if cfg.DailyLimit > 0 {
		return cfg.DailyLimit
	}
	if campaign.Config.DailyLimit > 0 {
		return campaign.Config.DailyLimit
	}
	return 1
}

// enqueue persists up to the job limit of posting jobs for the given
// targets. Targets meeting the quality threshold are created approved and
// are immediately claimable by the pool; the rest stay pending for review.
// Returns the number of jobs created.
func (p *planner) enqueue(ctx context.Context, campaign *models.QueuedCampaign, cfg models.StrategyConfig, strategyType models.StrategyType, targets []target, payload string) (int, error) {
	limit := jobLimit(campaign, cfg)
	anchors := campaign.Config.AnchorTexts

	created := 0
	for i, t := range targets {
		if created >= limit {
			break
		}
		if err := p.limiter.Wait(ctx); err != nil {
			return created, fmt.Errorf("job planning interrupted: %w", err)
		}

		job := models.NewPostingJob(campaign.ID, strategyType, t.pageURL, t.keyword, campaign.Config.TargetURL)
		if len(anchors) > 0 {
			job.AnchorText = anchors[i%len(anchors)]
		} else {
			job.AnchorText = t.keyword
		}
		job.Payload = payload
		if t.authority >= cfg.QualityThreshold {
			job.Status = models.JobStatusApproved
		}

		if err := p.jobs.SaveJob(ctx, job); err != nil {
			return created, fmt.Errorf("persist job for %s: %w", t.pageURL, err)
		}
		created++

		p.publishJobStatus(ctx, job)
	}

	p.logger.Debug().
		Str("campaign_id", campaign.ID).
		Str("strategy", string(strategyType)).
		Int("jobs", created).
		Msg("Posting jobs planned")
	return created, nil
}

func (p *planner) publishJobStatus(ctx context.Context, job *models.PostingJob) {
	if p.events == nil {
		return
	}
	_ = p.events.Publish(ctx, interfaces.Event{
		Type: interfaces.EventJobStatus,
		Payload: map[string]interface{}{
			"job_id":      job.ID,
			"campaign_id": job.CampaignID,
			"strategy":    string(job.Strategy),
			"status":      string(job.Status),
		},
	})
}

// generateOrTemplate asks the content generator for text and falls back to
// a deterministic template on any failure. Content generation never fails a
// planning run.
func generateOrTemplate(ctx context.Context, generator interfaces.ContentGenerator, req interfaces.ContentRequest, logger arbor.ILogger) string {
	if generator != nil {
		text, err := generator.GenerateComment(ctx, req)
		if err == nil && text != "" {
			return text
		}
		if err != nil {
			logger.Warn().Err(err).Str("keyword", req.Keyword).Msg("Content generation failed, using template")
		}
	}
	return fmt.Sprintf("I found this while researching %s and thought it was worth sharing: %s", req.Keyword, req.TargetURL)
}
