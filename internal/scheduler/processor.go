package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

// CampaignProcessor is the transient execution unit for one campaign on one
// node. It walks the campaign's enabled strategies in declared order and
// finalizes campaign status.
//
// State machine: created -> running -> {completed | failed}.
// Cancellation is cooperative: pause/stop flags are checked at strategy
// boundaries only, so an in-flight strategy step always runs to completion.
type CampaignProcessor struct {
	campaign   *models.QueuedCampaign
	strategies interfaces.StrategyResolver
	storage    interfaces.CampaignStorage
	events     interfaces.EventService
	logger     arbor.ILogger

	progressInterval time.Duration

	mu      sync.Mutex
	running bool
	paused  bool

	stopProgress chan struct{}
	progressDone sync.WaitGroup
}

// NewCampaignProcessor validates the campaign and constructs a processor.
// Configuration errors (missing target URL, no enabled strategies) fail
// fast here and are not retried.
func NewCampaignProcessor(campaign *models.QueuedCampaign, strategies interfaces.StrategyResolver, storage interfaces.CampaignStorage, events interfaces.EventService, progressInterval time.Duration, logger arbor.ILogger) (*CampaignProcessor, error) {
	if campaign == nil {
		return nil, fmt.Errorf("campaign is required")
	}
	if campaign.Config.TargetURL == "" {
		return nil, fmt.Errorf("campaign %s has no target URL", campaign.ID)
	}
	if len(campaign.Config.EnabledStrategies()) == 0 {
		return nil, fmt.Errorf("campaign %s has no enabled strategies", campaign.ID)
	}
	if progressInterval <= 0 {
		progressInterval = 60 * time.Second
	}

	return &CampaignProcessor{
		campaign:         campaign,
		strategies:       strategies,
		storage:          storage,
		events:           events,
		logger:           logger,
		progressInterval: progressInterval,
		stopProgress:     make(chan struct{}),
	}, nil
}

// CampaignID returns the processed campaign's id.
func (p *CampaignProcessor) CampaignID() string {
	return p.campaign.ID
}

// IsRunning reports whether the processor is mid-run.
func (p *CampaignProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Pause flags the processor to stop at the next strategy boundary.
func (p *CampaignProcessor) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

// Stop flags the processor to abandon the run at the next strategy boundary.
// The in-flight strategy is not interrupted.
func (p *CampaignProcessor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
}

func (p *CampaignProcessor) interrupted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.running || p.paused
}

func (p *CampaignProcessor) stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.running
}

// Run executes the campaign's enabled strategies sequentially and finalizes
// status. Returns the strategy error on failure, nil on completion or
// cooperative interruption.
func (p *CampaignProcessor) Run(ctx context.Context) error {
	p.mu.Lock()
	p.running = true
	p.mu.Unlock()

	p.startProgressTicker(ctx)
	defer p.stopProgressTicker()

	enabled := p.campaign.Config.EnabledStrategies()

	p.logger.Info().
		Str("campaign_id", p.campaign.ID).
		Int("strategies", len(enabled)).
		Msg("Campaign processing started")

	for i, strategyCfg := range enabled {
		if p.interrupted() {
			p.logger.Info().
				Str("campaign_id", p.campaign.ID).
				Str("strategy", string(strategyCfg.Type)).
				Msg("Campaign processing interrupted before strategy")
			return nil
		}

		handler, err := p.strategies.HandlerFor(strategyCfg.Type)
		if err != nil {
			return p.fail(ctx, fmt.Errorf("resolve strategy %s: %w", strategyCfg.Type, err))
		}

		err = handler.Execute(ctx, p.campaign, strategyCfg)

		// A hard stop landed while the strategy was in flight: the campaign
		// was already finalized elsewhere, so the late result is discarded.
		if p.stopped() {
			return nil
		}
		if err != nil {
			return p.fail(ctx, fmt.Errorf("strategy %s: %w", strategyCfg.Type, err))
		}

		p.campaign.ProgressPercentage = float64(i+1) / float64(len(enabled)) * 100
		p.persistProgress(ctx)
	}

	// A pause that landed after the final strategy still counts as
	// completion; a stop does not.
	if p.stopped() {
		return nil
	}
	p.complete(ctx)
	return nil
}

func (p *CampaignProcessor) complete(ctx context.Context) {
	now := time.Now()
	p.campaign.Status = models.CampaignStatusCompleted
	p.campaign.CompletedAt = &now
	if p.campaign.StartedAt != nil {
		p.campaign.ActualDuration = now.Sub(*p.campaign.StartedAt)
	}
	p.campaign.ProgressPercentage = 100

	if err := p.storage.SaveCampaign(ctx, p.campaign); err != nil {
		p.logger.Warn().Err(err).Str("campaign_id", p.campaign.ID).Msg("Failed to persist campaign completion")
	}

	p.publishStatus(ctx)

	p.logger.Info().
		Str("campaign_id", p.campaign.ID).
		Dur("actual_duration", p.campaign.ActualDuration).
		Msg("Campaign completed")
}

func (p *CampaignProcessor) fail(ctx context.Context, cause error) error {
	now := time.Now()
	p.campaign.Status = models.CampaignStatusFailed
	p.campaign.CompletedAt = &now
	p.campaign.ErrorMessage = cause.Error()

	if err := p.storage.SaveCampaign(ctx, p.campaign); err != nil {
		p.logger.Warn().Err(err).Str("campaign_id", p.campaign.ID).Msg("Failed to persist campaign failure")
	}

	p.publishStatus(ctx)

	p.logger.Error().
		Err(cause).
		Str("campaign_id", p.campaign.ID).
		Msg("Campaign failed")
	return cause
}

func (p *CampaignProcessor) publishStatus(ctx context.Context) {
	if p.events == nil {
		return
	}
	_ = p.events.Publish(ctx, interfaces.Event{
		Type: interfaces.EventCampaignStatus,
		Payload: map[string]interface{}{
			"campaign_id": p.campaign.ID,
			"status":      string(p.campaign.Status),
			"progress":    p.campaign.ProgressPercentage,
		},
	})
}

func (p *CampaignProcessor) persistProgress(ctx context.Context) {
	if p.stopped() {
		return
	}
	if err := p.storage.SaveCampaign(ctx, p.campaign); err != nil {
		p.logger.Warn().Err(err).Str("campaign_id", p.campaign.ID).Msg("Failed to persist campaign progress")
		return
	}

	if p.events != nil {
		_ = p.events.Publish(ctx, interfaces.Event{
			Type: interfaces.EventCampaignProgress,
			Payload: map[string]interface{}{
				"campaign_id": p.campaign.ID,
				"progress":    p.campaign.ProgressPercentage,
			},
		})
	}
}

// startProgressTicker persists campaign progress periodically while the
// processor runs, so restarts lose at most one interval of progress.
func (p *CampaignProcessor) startProgressTicker(ctx context.Context) {
	p.progressDone.Add(1)
	go func() {
		defer p.progressDone.Done()
		ticker := time.NewTicker(p.progressInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stopProgress:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.persistProgress(ctx)
			}
		}
	}()
}

func (p *CampaignProcessor) stopProgressTicker() {
	select {
	case <-p.stopProgress:
		// already closed
	default:
		close(p.stopProgress)
	}
	p.progressDone.Wait()
}
