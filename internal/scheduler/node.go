package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

// ProcessingNode is a capacity-bounded execution context hosting
// concurrently running campaign processors. Nodes live inside the
// scheduler process; they are not networked peers.
type ProcessingNode struct {
	ID     string
	Region string

	capacity          int
	memoryThresholdMB int
	progressInterval  time.Duration

	strategies interfaces.StrategyResolver
	storage    interfaces.CampaignStorage
	events     interfaces.EventService
	logger     arbor.ILogger

	// onFinished is invoked after a processor releases its slot, so the
	// scheduler can dispatch the next queued campaign.
	onFinished func(campaignID string)

	mu          sync.Mutex
	currentLoad int
	healthy     bool
	processors  map[string]*CampaignProcessor // campaign id -> processor
}

// NewProcessingNode creates a healthy node with zero load.
func NewProcessingNode(id, region string, capacity, memoryThresholdMB int, strategies interfaces.StrategyResolver, storage interfaces.CampaignStorage, events interfaces.EventService, progressInterval time.Duration, logger arbor.ILogger) *ProcessingNode {
	return &ProcessingNode{
		ID:                id,
		Region:            region,
		capacity:          capacity,
		memoryThresholdMB: memoryThresholdMB,
		progressInterval:  progressInterval,
		strategies:        strategies,
		storage:           storage,
		events:            events,
		logger:            logger,
		healthy:           true,
		processors:        make(map[string]*CampaignProcessor),
	}
}

// SetFinishedCallback registers the scheduler's completion hook.
func (n *ProcessingNode) SetFinishedCallback(fn func(campaignID string)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onFinished = fn
}

// HasCapacity reports whether the node can accept another campaign.
func (n *ProcessingNode) HasCapacity() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.currentLoad < n.capacity && n.healthy
}

// CurrentLoad returns the number of campaigns the node is running.
func (n *ProcessingNode) CurrentLoad() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.currentLoad
}

// Capacity returns the node's concurrent campaign limit.
func (n *ProcessingNode) Capacity() int {
	return n.capacity
}

// IsHealthy returns the last health check outcome.
func (n *ProcessingNode) IsHealthy() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.healthy
}

// ActiveCampaigns returns the ids of campaigns currently tracked.
func (n *ProcessingNode) ActiveCampaigns() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := make([]string, 0, len(n.processors))
	for id := range n.processors {
		ids = append(ids, id)
	}
	return ids
}

// ProcessCampaign claims a slot and runs the campaign asynchronously.
// The slot is released and the error returned if processor construction
// fails; otherwise the slot is held until the run finishes.
func (n *ProcessingNode) ProcessCampaign(ctx context.Context, campaign *models.QueuedCampaign) error {
	n.mu.Lock()
	if n.currentLoad >= n.capacity {
		n.mu.Unlock()
		return fmt.Errorf("node %s at capacity (%d/%d)", n.ID, n.currentLoad, n.capacity)
	}
	n.currentLoad++
	n.mu.Unlock()

	processor, err := NewCampaignProcessor(campaign, n.strategies, n.storage, n.events, n.progressInterval, n.logger)
	if err != nil {
		n.mu.Lock()
		n.currentLoad--
		n.mu.Unlock()
		return fmt.Errorf("construct processor for %s: %w", campaign.ID, err)
	}

	n.mu.Lock()
	n.processors[campaign.ID] = processor
	n.mu.Unlock()

	n.logger.Info().
		Str("node_id", n.ID).
		Str("campaign_id", campaign.ID).
		Int("load", n.CurrentLoad()).
		Msg("Campaign assigned to node")

	go func() {
		_ = processor.Run(ctx)
		n.releaseCampaign(campaign.ID)
	}()

	return nil
}

// releaseCampaign frees the slot after a processor run ends for any reason.
func (n *ProcessingNode) releaseCampaign(campaignID string) {
	n.mu.Lock()
	if _, tracked := n.processors[campaignID]; !tracked {
		// Already released by a hard stop.
		n.mu.Unlock()
		return
	}
	delete(n.processors, campaignID)
	n.currentLoad--
	callback := n.onFinished
	n.mu.Unlock()

	if callback != nil {
		callback(campaignID)
	}
}

// PauseCampaign flags the campaign's processor to pause. Returns false if
// the campaign is not tracked by this node.
func (n *ProcessingNode) PauseCampaign(campaignID string) bool {
	n.mu.Lock()
	processor, ok := n.processors[campaignID]
	n.mu.Unlock()
	if !ok {
		return false
	}
	processor.Pause()
	return true
}

// StopCampaign hard-stops a campaign: the processor is flagged, tracking is
// discarded and the slot freed immediately, and the campaign is marked
// failed with the stop reason. Work already inside a strategy step runs to
// completion but its result is not merged.
func (n *ProcessingNode) StopCampaign(ctx context.Context, campaignID, reason string) bool {
	n.mu.Lock()
	processor, ok := n.processors[campaignID]
	if !ok {
		n.mu.Unlock()
		return false
	}
	delete(n.processors, campaignID)
	n.currentLoad--
	n.mu.Unlock()

	processor.Stop()

	campaign := processor.campaign
	now := time.Now()
	campaign.Status = models.CampaignStatusFailed
	campaign.CompletedAt = &now
	campaign.ErrorMessage = reason
	if err := n.storage.SaveCampaign(ctx, campaign); err != nil {
		n.logger.Warn().Err(err).Str("campaign_id", campaignID).Msg("Failed to persist stopped campaign")
	}

	n.logger.Info().
		Str("node_id", n.ID).
		Str("campaign_id", campaignID).
		Str("reason", reason).
		Msg("Campaign hard-stopped")
	return true
}

// HealthCheck probes memory pressure and store connectivity, records the
// outcome, and returns it.
func (n *ProcessingNode) HealthCheck(ctx context.Context) bool {
	healthy := true

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	heapMB := int(memStats.HeapAlloc / 1024 / 1024)
	if n.memoryThresholdMB > 0 && heapMB > n.memoryThresholdMB {
		n.logger.Warn().
			Str("node_id", n.ID).
			Int("heap_mb", heapMB).
			Int("threshold_mb", n.memoryThresholdMB).
			Msg("Node failing health check: memory pressure")
		healthy = false
	}

	if healthy {
		if err := n.storage.Ping(ctx); err != nil {
			n.logger.Warn().
				Err(err).
				Str("node_id", n.ID).
				Msg("Node failing health check: store unreachable")
			healthy = false
		}
	}

	n.mu.Lock()
	n.healthy = healthy
	n.mu.Unlock()
	return healthy
}

// Shutdown pauses and persists every actively tracked campaign, then
// clears node state.
func (n *ProcessingNode) Shutdown(ctx context.Context) {
	n.mu.Lock()
	processors := make([]*CampaignProcessor, 0, len(n.processors))
	for _, p := range n.processors {
		processors = append(processors, p)
	}
	n.processors = make(map[string]*CampaignProcessor)
	n.currentLoad = 0
	n.mu.Unlock()

	for _, processor := range processors {
		processor.Pause()
		campaign := processor.campaign
		campaign.Status = models.CampaignStatusPaused
		if err := n.storage.SaveCampaign(ctx, campaign); err != nil {
			n.logger.Warn().Err(err).Str("campaign_id", campaign.ID).Msg("Failed to persist paused campaign during shutdown")
		}
	}

	n.logger.Info().
		Str("node_id", n.ID).
		Int("paused_campaigns", len(processors)).
		Msg("Node shut down")
}
