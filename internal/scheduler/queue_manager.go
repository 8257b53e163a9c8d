package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/common"
	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

// QueueManager is the campaign scheduler. It accepts campaigns, orders the
// queue by priority, dispatches to processing nodes, health-checks nodes and
// redistributes their work, and owns the pause/resume/delete protocol.
//
// The manager is an explicitly constructed service - inject fakes for the
// storage and strategy resolver in tests.
type QueueManager struct {
	config     common.SchedulerConfig
	campaigns  interfaces.CampaignStorage
	jobs       interfaces.JobStorage
	audit      interfaces.AuditStorage
	strategies interfaces.StrategyResolver
	events     interfaces.EventService
	reports    interfaces.ReportGenerator
	logger     arbor.ILogger
	validate   *validator.Validate

	cron *cron.Cron

	mu    sync.Mutex
	queue []*models.QueuedCampaign
	nodes []*ProcessingNode
}

// NewQueueManager constructs the scheduler and its processing nodes.
func NewQueueManager(config common.SchedulerConfig, campaigns interfaces.CampaignStorage, jobs interfaces.JobStorage, audit interfaces.AuditStorage, strategies interfaces.StrategyResolver, events interfaces.EventService, logger arbor.ILogger) *QueueManager {
	m := &QueueManager{
		config:     config,
		campaigns:  campaigns,
		jobs:       jobs,
		audit:      audit,
		strategies: strategies,
		events:     events,
		logger:     logger,
		validate:   validator.New(),
	}

	for i := 0; i < config.NodeCount; i++ {
		node := NewProcessingNode(
			fmt.Sprintf("node-%d", i+1),
			config.NodeRegion,
			config.NodeCapacity,
			config.MemoryThresholdMB,
			strategies,
			campaigns,
			events,
			config.ProgressInterval,
			logger,
		)
		node.SetFinishedCallback(func(campaignID string) {
			m.onCampaignFinished(campaignID)
		})
		m.nodes = append(m.nodes, node)
	}

	return m
}

// Start restores persisted campaigns into the queue and begins the periodic
// health/dispatch tick.
func (m *QueueManager) Start(ctx context.Context) error {
	if err := m.restoreQueue(ctx); err != nil {
		return fmt.Errorf("restore queue: %w", err)
	}

	interval := m.config.HealthCheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	m.cron = cron.New()
	if _, err := m.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		m.healthTick(ctx)
	}); err != nil {
		return fmt.Errorf("schedule health tick: %w", err)
	}
	m.cron.Start()

	m.logger.Info().
		Int("nodes", len(m.nodes)).
		Dur("health_interval", interval).
		Msg("Campaign queue manager started")

	m.ProcessNextInQueue(ctx)
	return nil
}

// Stop halts the tick and shuts down every node, pausing active campaigns.
func (m *QueueManager) Stop(ctx context.Context) {
	if m.cron != nil {
		m.cron.Stop()
	}
	for _, node := range m.nodes {
		node.Shutdown(ctx)
	}
	m.logger.Info().Msg("Campaign queue manager stopped")
}

// restoreQueue reloads non-terminal campaigns from the store after restart.
// Campaigns stranded in processing are re-queued.
func (m *QueueManager) restoreQueue(ctx context.Context) error {
	stored, err := m.campaigns.ListCampaigns(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	restored := 0
	for _, campaign := range stored {
		switch campaign.Status {
		case models.CampaignStatusCompleted, models.CampaignStatusFailed:
			continue
		case models.CampaignStatusProcessing:
			campaign.Status = models.CampaignStatusQueued
			campaign.ProcessingNode = ""
		}
		m.queue = append(m.queue, campaign)
		restored++
	}
	m.optimizeQueueLocked()

	if restored > 0 {
		m.logger.Info().Int("campaigns", restored).Msg("Restored campaigns into queue")
	}
	return nil
}

// Enqueue validates and persists a new campaign, inserts it into the sorted
// queue and attempts immediate dispatch.
func (m *QueueManager) Enqueue(ctx context.Context, config models.CampaignConfig, ownerID string, priority models.Priority) (string, error) {
	if err := m.validate.Struct(config); err != nil {
		return "", fmt.Errorf("invalid campaign config: %w", err)
	}
	if len(config.EnabledStrategies()) == 0 {
		return "", fmt.Errorf("invalid campaign config: no enabled strategies")
	}
	if priority == "" {
		priority = models.PriorityMedium
	}

	campaign := models.NewQueuedCampaign(config, ownerID, priority, m.config.MaxRetries)
	campaign.EstimatedDuration = EstimateDuration(&config)

	if err := m.campaigns.SaveCampaign(ctx, campaign); err != nil {
		return "", fmt.Errorf("persist campaign: %w", err)
	}

	m.mu.Lock()
	m.queue = append(m.queue, campaign)
	m.optimizeQueueLocked()
	m.mu.Unlock()

	m.appendAudit(ctx, campaign.ID, "enqueued", ownerID, fmt.Sprintf("Campaign %q enqueued with priority %s", config.Name, priority))
	m.publish(ctx, interfaces.EventCampaignEnqueued, map[string]interface{}{
		"campaign_id": campaign.ID,
		"priority":    string(priority),
		"estimated":   campaign.EstimatedDuration.String(),
	})

	m.logger.Info().
		Str("campaign_id", campaign.ID).
		Str("owner_id", ownerID).
		Str("priority", string(priority)).
		Dur("estimated_duration", campaign.EstimatedDuration).
		Msg("Campaign enqueued")

	m.ProcessNextInQueue(ctx)
	return campaign.ID, nil
}

// optimizeQueueLocked sorts the queue by priority weight descending, with
// shorter estimated durations first within a priority band to maximize
// throughput. Caller must hold m.mu.
func (m *QueueManager) optimizeQueueLocked() {
	sort.SliceStable(m.queue, func(i, j int) bool {
		wi, wj := m.queue[i].Priority.Weight(), m.queue[j].Priority.Weight()
		if wi != wj {
			return wi > wj
		}
		return m.queue[i].EstimatedDuration < m.queue[j].EstimatedDuration
	})
}

// OptimizeQueue re-sorts the in-memory queue.
func (m *QueueManager) OptimizeQueue() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.optimizeQueueLocked()
}

// QueueSnapshot returns the current queue ordering (for stats and tests).
func (m *QueueManager) QueueSnapshot() []*models.QueuedCampaign {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]*models.QueuedCampaign, len(m.queue))
	copy(snapshot, m.queue)
	return snapshot
}

// ProcessNextInQueue dispatches the first dispatchable campaign to the first
// available node. One campaign is dispatched per call; completion callbacks
// and the periodic tick drive subsequent dispatches.
func (m *QueueManager) ProcessNextInQueue(ctx context.Context) {
	m.mu.Lock()

	var node *ProcessingNode
	for _, n := range m.nodes {
		if n.HasCapacity() {
			node = n
			break
		}
	}
	if node == nil {
		m.mu.Unlock()
		return
	}

	now := time.Now()
	var campaign *models.QueuedCampaign
	for _, c := range m.queue {
		if c.Status == models.CampaignStatusQueued && !c.ScheduledAt.After(now) {
			campaign = c
			break
		}
	}
	if campaign == nil {
		m.mu.Unlock()
		return
	}

	campaign.Status = models.CampaignStatusProcessing
	campaign.StartedAt = &now
	campaign.ProcessingNode = node.ID
	m.mu.Unlock()

	if err := m.campaigns.SaveCampaign(ctx, campaign); err != nil {
		m.logger.Warn().Err(err).Str("campaign_id", campaign.ID).Msg("Failed to persist dispatch")
	}

	if err := node.ProcessCampaign(ctx, campaign); err != nil {
		m.handleCampaignError(ctx, campaign, err)
	}
}

// handleCampaignError applies retry with exponential backoff, or fails the
// campaign once the retry budget is spent. State is always persisted.
func (m *QueueManager) handleCampaignError(ctx context.Context, campaign *models.QueuedCampaign, cause error) {
	m.mu.Lock()
	campaign.RetryCount++
	campaign.ProcessingNode = ""
	campaign.ErrorMessage = cause.Error()

	if campaign.RetryCount <= campaign.MaxRetries {
		backoff := time.Duration(1<<uint(campaign.RetryCount)) * time.Minute
		campaign.Status = models.CampaignStatusRetry
		campaign.ScheduledAt = time.Now().Add(backoff)
		m.mu.Unlock()

		m.logger.Warn().
			Err(cause).
			Str("campaign_id", campaign.ID).
			Int("retry_count", campaign.RetryCount).
			Dur("backoff", backoff).
			Msg("Campaign scheduled for retry")
	} else {
		now := time.Now()
		campaign.Status = models.CampaignStatusFailed
		campaign.CompletedAt = &now
		m.mu.Unlock()

		m.logger.Error().
			Err(cause).
			Str("campaign_id", campaign.ID).
			Int("retry_count", campaign.RetryCount).
			Msg("Campaign failed: retry budget exhausted")
	}

	if err := m.campaigns.SaveCampaign(ctx, campaign); err != nil {
		m.logger.Warn().Err(err).Str("campaign_id", campaign.ID).Msg("Failed to persist campaign error state")
	}
}

// PauseCampaign signals the owning node (if processing) and marks the
// campaign paused. Returns false for unknown campaigns.
func (m *QueueManager) PauseCampaign(ctx context.Context, campaignID string) bool {
	m.mu.Lock()
	campaign := m.findLocked(campaignID)
	if campaign == nil {
		m.mu.Unlock()
		return false
	}
	nodeID := campaign.ProcessingNode
	processing := campaign.Status == models.CampaignStatusProcessing
	campaign.Status = models.CampaignStatusPaused
	m.mu.Unlock()

	if processing {
		if node := m.nodeByID(nodeID); node != nil {
			node.PauseCampaign(campaignID)
		}
	}

	if err := m.campaigns.SaveCampaign(ctx, campaign); err != nil {
		m.logger.Warn().Err(err).Str("campaign_id", campaignID).Msg("Failed to persist pause")
	}

	m.logger.Info().Str("campaign_id", campaignID).Msg("Campaign paused")
	return true
}

// ResumeCampaign re-queues a paused campaign. Only valid from paused;
// returns false otherwise with no state change.
func (m *QueueManager) ResumeCampaign(ctx context.Context, campaignID string) bool {
	m.mu.Lock()
	campaign := m.findLocked(campaignID)
	if campaign == nil || campaign.Status != models.CampaignStatusPaused {
		m.mu.Unlock()
		return false
	}
	campaign.Status = models.CampaignStatusQueued
	campaign.ScheduledAt = time.Now()
	campaign.ProcessingNode = ""
	m.optimizeQueueLocked()
	m.mu.Unlock()

	if err := m.campaigns.SaveCampaign(ctx, campaign); err != nil {
		m.logger.Warn().Err(err).Str("campaign_id", campaignID).Msg("Failed to persist resume")
	}

	m.logger.Info().Str("campaign_id", campaignID).Msg("Campaign resumed")
	m.ProcessNextInQueue(ctx)
	return true
}

// DeleteCampaign removes a campaign from queue and store.
//
// Policy:
//  1. Unknown everywhere -> failure, not found.
//  2. Present only in the store -> delete the record.
//  3. Processing without forceDelete -> refused with a warning.
//  4. Otherwise stop the node if needed, remove from queue, delete the
//     record. A failed store deletion rolls the in-memory removal back.
//     The audit entry is best-effort and never fails the deletion.
func (m *QueueManager) DeleteCampaign(ctx context.Context, campaignID string, forceDelete bool) *models.DeletionResult {
	result := &models.DeletionResult{}

	m.mu.Lock()
	campaign := m.findLocked(campaignID)
	m.mu.Unlock()

	if campaign == nil {
		stored, err := m.campaigns.GetCampaign(ctx, campaignID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				result.Message = fmt.Sprintf("Campaign %s not found", campaignID)
				return result
			}
			result.Message = fmt.Sprintf("Failed to look up campaign %s: %v", campaignID, err)
			return result
		}

		// Present only in the persisted store.
		if err := m.campaigns.DeleteCampaign(ctx, stored.ID); err != nil {
			result.Message = fmt.Sprintf("Failed to delete campaign record: %v", err)
			return result
		}
		result.Success = true
		result.CleanupOperations.QueueRemoval = true
		result.Message = fmt.Sprintf("Campaign %s deleted from store", campaignID)
		m.appendAudit(ctx, campaignID, "deleted", "scheduler", "Campaign record deleted (not in queue)")
		return result
	}

	if campaign.Status == models.CampaignStatusProcessing && !forceDelete {
		result.Message = fmt.Sprintf("Campaign %s cannot be deleted", campaignID)
		result.Warnings = append(result.Warnings, "campaign is currently being processed; use forceDelete to override")
		return result
	}

	if campaign.Status == models.CampaignStatusProcessing {
		if node := m.nodeByID(campaign.ProcessingNode); node != nil {
			if node.StopCampaign(ctx, campaignID, "force deleted") {
				result.StoppedProcessing = true
				result.CleanupOperations.NodeCleanup = true
			}
		}
	}

	m.mu.Lock()
	idx := -1
	for i, c := range m.queue {
		if c.ID == campaignID {
			idx = i
			break
		}
	}
	if idx >= 0 {
		m.queue = append(m.queue[:idx], m.queue[idx+1:]...)
	}
	m.mu.Unlock()
	result.DeletedFromQueue = idx >= 0
	result.CleanupOperations.QueueRemoval = idx >= 0

	if err := m.campaigns.DeleteCampaign(ctx, campaignID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		// Roll back the in-memory removal so queue and store stay aligned.
		m.mu.Lock()
		m.queue = append(m.queue, campaign)
		m.optimizeQueueLocked()
		m.mu.Unlock()

		result.Success = false
		result.DeletedFromQueue = false
		result.CleanupOperations.QueueRemoval = false
		result.Message = fmt.Sprintf("Failed to delete campaign record, queue state rolled back: %v", err)
		return result
	}

	if m.jobs != nil {
		if removed, err := m.jobs.DeleteJobsByCampaign(ctx, campaignID); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to release %d posting jobs: %v", removed, err))
		} else {
			result.CleanupOperations.ResourceRelease = true
		}
	}

	result.Success = true
	result.Message = fmt.Sprintf("Campaign %s deleted", campaignID)

	m.appendAudit(ctx, campaignID, "deleted", "scheduler", result.Message)
	m.publish(ctx, interfaces.EventCampaignDeleted, map[string]interface{}{
		"campaign_id": campaignID,
		"forced":      forceDelete,
	})
	return result
}

// GetStatus returns the campaign, preferring in-memory state over the store.
// Returns nil for unknown campaigns.
func (m *QueueManager) GetStatus(ctx context.Context, campaignID string) *models.QueuedCampaign {
	m.mu.Lock()
	campaign := m.findLocked(campaignID)
	m.mu.Unlock()
	if campaign != nil {
		return campaign
	}

	stored, err := m.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil
	}
	return stored
}

// GetQueueStats aggregates campaign and capacity counters.
func (m *QueueManager) GetQueueStats(ctx context.Context) (*models.QueueStats, error) {
	stored, err := m.campaigns.ListCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	stats := &models.QueueStats{Total: len(stored)}
	for _, c := range stored {
		switch c.Status {
		case models.CampaignStatusQueued, models.CampaignStatusRetry:
			stats.Queued++
		case models.CampaignStatusProcessing:
			stats.Processing++
		case models.CampaignStatusCompleted:
			stats.Completed++
		case models.CampaignStatusFailed:
			stats.Failed++
		}
	}

	for _, node := range m.nodes {
		stats.TotalCapacity += node.Capacity()
		stats.UsedCapacity += node.CurrentLoad()
	}
	return stats, nil
}

// NodeStatus is a per-node scheduler snapshot.
type NodeStatus struct {
	ID          string `json:"id"`
	Region      string `json:"region"`
	Capacity    int    `json:"capacity"`
	CurrentLoad int    `json:"current_load"`
	Healthy     bool   `json:"healthy"`
}

// Nodes returns a snapshot of every processing node.
func (m *QueueManager) Nodes() []NodeStatus {
	statuses := make([]NodeStatus, 0, len(m.nodes))
	for _, node := range m.nodes {
		statuses = append(statuses, NodeStatus{
			ID:          node.ID,
			Region:      node.Region,
			Capacity:    node.Capacity(),
			CurrentLoad: node.CurrentLoad(),
			Healthy:     node.IsHealthy(),
		})
	}
	return statuses
}

// healthTick runs every health interval: probes nodes, redistributes work
// away from unhealthy ones, promotes due retries, prunes terminal campaigns
// from the in-memory queue, and attempts dispatch.
func (m *QueueManager) healthTick(ctx context.Context) {
	for _, node := range m.nodes {
		if !node.HealthCheck(ctx) {
			m.redistributeWorkload(ctx, node)
		}
	}

	now := time.Now()
	m.mu.Lock()
	pruned := m.queue[:0]
	for _, c := range m.queue {
		if c.IsTerminal() {
			continue
		}
		if c.Status == models.CampaignStatusRetry && !c.ScheduledAt.After(now) {
			c.Status = models.CampaignStatusQueued
		}
		pruned = append(pruned, c)
	}
	m.queue = pruned
	m.optimizeQueueLocked()
	m.mu.Unlock()

	m.ProcessNextInQueue(ctx)
}

// redistributeWorkload re-queues every campaign an unhealthy node was
// processing. Each recovery costs one retry increment against the same
// budget handleCampaignError spends, so a campaign cannot bounce between
// unhealthy nodes forever: once the budget is spent it fails.
func (m *QueueManager) redistributeWorkload(ctx context.Context, node *ProcessingNode) {
	campaignIDs := node.ActiveCampaigns()
	if len(campaignIDs) == 0 {
		return
	}

	m.logger.Warn().
		Str("node_id", node.ID).
		Int("campaigns", len(campaignIDs)).
		Msg("Redistributing workload from unhealthy node")

	for _, campaignID := range campaignIDs {
		node.StopCampaign(ctx, campaignID, "node unhealthy")

		m.mu.Lock()
		campaign := m.findLocked(campaignID)
		if campaign != nil {
			campaign.ProcessingNode = ""
			campaign.RetryCount++
			if campaign.RetryCount <= campaign.MaxRetries {
				campaign.Status = models.CampaignStatusQueued
				campaign.ErrorMessage = ""
				campaign.CompletedAt = nil
				campaign.ScheduledAt = time.Now()
			} else {
				now := time.Now()
				campaign.Status = models.CampaignStatusFailed
				campaign.ErrorMessage = fmt.Sprintf("node %s unhealthy: retry budget exhausted", node.ID)
				campaign.CompletedAt = &now
			}
		}
		m.mu.Unlock()

		if campaign != nil {
			if campaign.Status == models.CampaignStatusFailed {
				m.logger.Error().
					Str("campaign_id", campaignID).
					Int("retry_count", campaign.RetryCount).
					Msg("Campaign failed: retry budget exhausted during redistribution")
			}
			if err := m.campaigns.SaveCampaign(ctx, campaign); err != nil {
				m.logger.Warn().Err(err).Str("campaign_id", campaignID).Msg("Failed to persist redistributed campaign")
			}
		}
	}

	m.mu.Lock()
	m.optimizeQueueLocked()
	m.mu.Unlock()

	m.publish(ctx, interfaces.EventNodeUnhealthy, map[string]interface{}{
		"node_id":   node.ID,
		"campaigns": campaignIDs,
	})
}

// SetReportGenerator enables completion reports. Must be called before Start.
func (m *QueueManager) SetReportGenerator(reports interfaces.ReportGenerator) {
	m.reports = reports
}

// onCampaignFinished is the node callback after a processor releases its
// slot; it writes the completion report when the campaign finished cleanly
// and opportunistically dispatches the next queued campaign.
func (m *QueueManager) onCampaignFinished(campaignID string) {
	m.logger.Debug().Str("campaign_id", campaignID).Msg("Campaign slot released")

	ctx := context.Background()
	if m.reports != nil {
		if campaign, err := m.campaigns.GetCampaign(ctx, campaignID); err == nil && campaign.Status == models.CampaignStatusCompleted {
			if _, err := m.reports.GenerateCompletionReport(ctx, campaign); err != nil {
				m.logger.Warn().Err(err).Str("campaign_id", campaignID).Msg("Failed to write completion report")
			}
		}
	}

	m.ProcessNextInQueue(ctx)
}

func (m *QueueManager) findLocked(campaignID string) *models.QueuedCampaign {
	for _, c := range m.queue {
		if c.ID == campaignID {
			return c
		}
	}
	return nil
}

func (m *QueueManager) nodeByID(nodeID string) *ProcessingNode {
	for _, node := range m.nodes {
		if node.ID == nodeID {
			return node
		}
	}
	return nil
}

func (m *QueueManager) appendAudit(ctx context.Context, campaignID, action, actor, message string) {
	if m.audit == nil {
		return
	}
	entry := models.NewAuditEntry(campaignID, action, actor, message)
	if err := m.audit.AppendAudit(ctx, entry); err != nil {
		// Audit is non-critical; never fail the operation that produced it.
		m.logger.Warn().Err(err).Str("campaign_id", campaignID).Str("action", action).Msg("Failed to write audit entry")
	}
}

func (m *QueueManager) publish(ctx context.Context, eventType interfaces.EventType, payload map[string]interface{}) {
	if m.events == nil {
		return
	}
	_ = m.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload})
}
