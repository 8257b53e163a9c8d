package browser

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/common"
	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

// driverFactory allocates a page driver and returns its cleanup function.
// Swapped for a fake in unit tests.
type driverFactory func(ctx context.Context) (interfaces.PageDriver, func(), error)

// Manager owns the pool of per-campaign browser instances: creation within
// the instance cap, batch job automation, and the periodic monitor that
// flags stale instances and auto-starts idle ones with claimable work.
type Manager struct {
	config   common.PoolConfig
	jobs     interfaces.JobStorage
	executor interfaces.JobExecutor
	events   interfaces.EventService
	logger   arbor.ILogger

	newDriver driverFactory

	mu        sync.Mutex
	instances map[string]*Instance

	stopMonitor chan struct{}
	monitorDone sync.WaitGroup
}

// NewManager creates a pool manager backed by chromedp browser contexts.
func NewManager(config common.PoolConfig, jobs interfaces.JobStorage, executor interfaces.JobExecutor, events interfaces.EventService, logger arbor.ILogger) *Manager {
	m := &Manager{
		config:      config,
		jobs:        jobs,
		executor:    executor,
		events:      events,
		logger:      logger,
		instances:   make(map[string]*Instance),
		stopMonitor: make(chan struct{}),
	}
	m.newDriver = m.chromedpDriver
	return m
}

// chromedpDriver allocates an isolated browser context and smoke-tests it
// before handing it out.
func (m *Manager) chromedpDriver(ctx context.Context) (interfaces.PageDriver, func(), error) {
	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", m.config.Headless),
		chromedp.Flag("disable-gpu", m.config.DisableGPU),
		chromedp.Flag("no-sandbox", m.config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(m.config.UserAgent),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	cleanup := func() {
		browserCancel()
		allocatorCancel()
	}

	testCtx, testCancel := context.WithTimeout(browserCtx, m.config.NavigateTimeout)
	defer testCancel()
	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("browser failed startup test: %w", err)
	}

	return NewDriver(browserCtx, m.config.NavigateTimeout), cleanup, nil
}

// CreateCampaignBrowser allocates an instance for a campaign. Duplicate
// campaign ids and creation beyond the instance cap are rejected.
func (m *Manager) CreateCampaignBrowser(ctx context.Context, campaignID, campaignName string) error {
	m.mu.Lock()
	if _, exists := m.instances[campaignID]; exists {
		m.mu.Unlock()
		return fmt.Errorf("instance for campaign %s already exists", campaignID)
	}
	if len(m.instances) >= m.config.MaxInstances {
		m.mu.Unlock()
		return fmt.Errorf("instance pool at capacity (%d)", m.config.MaxInstances)
	}
	// Reserve the slot before the slow allocation so concurrent creates
	// cannot overshoot the cap.
	placeholder := newInstance(campaignID, campaignName, nil, nil)
	m.instances[campaignID] = placeholder
	m.mu.Unlock()

	driver, cleanup, err := m.newDriver(ctx)
	if err != nil {
		m.mu.Lock()
		delete(m.instances, campaignID)
		m.mu.Unlock()
		return fmt.Errorf("create browser for campaign %s: %w", campaignID, err)
	}

	placeholder.driver = driver
	placeholder.cleanup = cleanup
	placeholder.setStatus(models.InstanceStatusIdle)

	m.publishInstanceStatus(ctx, placeholder)
	m.logger.Info().
		Str("campaign_id", campaignID).
		Str("campaign_name", campaignName).
		Int("pool_size", m.instanceCount()).
		Msg("Browser instance created")
	return nil
}

// StartCampaignAutomation claims a batch of approved jobs for the campaign
// and runs them sequentially with a randomized inter-job delay. No-op when
// the instance is already working.
func (m *Manager) StartCampaignAutomation(ctx context.Context, campaignID string) error {
	m.mu.Lock()
	instance, ok := m.instances[campaignID]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("no instance for campaign %s", campaignID)
	}

	if instance.Status() == models.InstanceStatusWorking {
		return nil
	}
	if !instance.compareAndSetStatus(models.InstanceStatusIdle, models.InstanceStatusWorking) {
		return fmt.Errorf("instance for campaign %s is %s, not idle", campaignID, instance.Status())
	}
	m.publishInstanceStatus(ctx, instance)

	batch, err := m.jobs.ListJobsByCampaign(ctx, campaignID, models.JobStatusApproved, m.config.JobBatchSize)
	if err != nil {
		instance.setStatus(models.InstanceStatusError)
		instance.recordError(err.Error())
		return fmt.Errorf("claim jobs for campaign %s: %w", campaignID, err)
	}

	m.logger.Info().
		Str("campaign_id", campaignID).
		Int("jobs", len(batch)).
		Msg("Automation batch started")

	for i, job := range batch {
		// Cooperative cancellation at the job boundary only.
		if instance.Status() != models.InstanceStatusWorking {
			break
		}

		m.runJob(ctx, instance, job)

		if i < len(batch)-1 {
			m.jobDelay(ctx)
		}
	}

	instance.compareAndSetStatus(models.InstanceStatusWorking, models.InstanceStatusIdle)
	m.publishInstanceStatus(ctx, instance)
	return nil
}

// runJob executes one job and persists its terminal status. Forward-only
// status enforcement lives in the job store.
func (m *Manager) runJob(ctx context.Context, instance *Instance, job *models.PostingJob) {
	if err := m.jobs.UpdateJobStatus(ctx, job.ID, models.JobStatusProcessing, ""); err != nil {
		m.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to mark job processing")
		return
	}

	status, detail := m.executor.ExecuteJob(ctx, instance.driver, job)
	if status == models.JobStatusFailed {
		instance.recordError(detail)
	}

	if err := m.jobs.UpdateJobStatus(ctx, job.ID, status, detail); err != nil {
		m.logger.Warn().Err(err).Str("job_id", job.ID).Str("status", string(status)).Msg("Failed to persist job outcome")
	}
	instance.jobDone()

	if m.events != nil {
		_ = m.events.Publish(ctx, interfaces.Event{
			Type: interfaces.EventJobStatus,
			Payload: map[string]interface{}{
				"job_id":      job.ID,
				"campaign_id": job.CampaignID,
				"status":      string(status),
			},
		})
	}
}

// jobDelay sleeps a randomized interval between jobs. Rate limiting against
// target sites, not an optimization knob.
func (m *Manager) jobDelay(ctx context.Context) {
	min, max := m.config.JobDelayMin, m.config.JobDelayMax
	if min <= 0 {
		min = 3 * time.Second
	}
	if max <= min {
		max = min + 2*time.Second
	}
	delay := min + time.Duration(rand.Int63n(int64(max-min)))

	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}

// PauseCampaignAutomation flips a working or idle instance to paused. The
// in-flight job is not interrupted.
func (m *Manager) PauseCampaignAutomation(campaignID string) bool {
	m.mu.Lock()
	instance, ok := m.instances[campaignID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	if instance.compareAndSetStatus(models.InstanceStatusWorking, models.InstanceStatusPaused) {
		return true
	}
	return instance.compareAndSetStatus(models.InstanceStatusIdle, models.InstanceStatusPaused)
}

// ResumeCampaignAutomation returns a paused instance to idle; the monitor
// picks it up on the next tick if approved jobs are waiting.
func (m *Manager) ResumeCampaignAutomation(campaignID string) bool {
	m.mu.Lock()
	instance, ok := m.instances[campaignID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	return instance.compareAndSetStatus(models.InstanceStatusPaused, models.InstanceStatusIdle)
}

// CloseCampaignBrowser tears down the instance and removes it from the pool.
func (m *Manager) CloseCampaignBrowser(campaignID string) bool {
	m.mu.Lock()
	instance, ok := m.instances[campaignID]
	if ok {
		delete(m.instances, campaignID)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}

	instance.close()
	m.logger.Info().Str("campaign_id", campaignID).Msg("Browser instance closed")
	return true
}

// CloseAll closes every instance and stops the monitor.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	instances := make([]*Instance, 0, len(m.instances))
	for _, instance := range m.instances {
		instances = append(instances, instance)
	}
	m.instances = make(map[string]*Instance)
	m.mu.Unlock()

	for _, instance := range instances {
		instance.close()
	}

	select {
	case <-m.stopMonitor:
	default:
		close(m.stopMonitor)
	}
	m.monitorDone.Wait()

	m.logger.Info().Int("instances_closed", len(instances)).Msg("Browser pool shut down")
}

// StartMonitor begins the periodic pool sweep.
func (m *Manager) StartMonitor(ctx context.Context) {
	interval := m.config.MonitorInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	m.monitorDone.Add(1)
	go func() {
		defer m.monitorDone.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.stopMonitor:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweep(ctx)
			}
		}
	}()
}

// sweep flags stale or error-heavy instances and auto-starts idle instances
// that have approved jobs waiting.
func (m *Manager) sweep(ctx context.Context) {
	m.mu.Lock()
	instances := make([]*Instance, 0, len(m.instances))
	for _, instance := range m.instances {
		instances = append(instances, instance)
	}
	m.mu.Unlock()

	idleTimeout := m.config.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = 10 * time.Minute
	}
	maxErrors := m.config.MaxErrors
	if maxErrors <= 0 {
		maxErrors = 5
	}

	for _, instance := range instances {
		if time.Since(instance.idleSince()) > idleTimeout {
			m.logger.Warn().
				Str("campaign_id", instance.CampaignID()).
				Dur("idle_for", time.Since(instance.idleSince())).
				Msg("Instance idle beyond timeout")
		}
		if instance.errorCount() > maxErrors {
			m.logger.Warn().
				Str("campaign_id", instance.CampaignID()).
				Int("errors", instance.errorCount()).
				Msg("Instance accumulated too many errors")
		}

		if instance.Status() != models.InstanceStatusIdle {
			continue
		}
		pending, err := m.jobs.CountJobsByCampaign(ctx, instance.CampaignID(), models.JobStatusApproved)
		if err != nil {
			m.logger.Warn().Err(err).Str("campaign_id", instance.CampaignID()).Msg("Failed to count approved jobs")
			continue
		}
		if pending > 0 {
			go func(campaignID string) {
				if err := m.StartCampaignAutomation(ctx, campaignID); err != nil {
					m.logger.Warn().Err(err).Str("campaign_id", campaignID).Msg("Auto-start failed")
				}
			}(instance.CampaignID())
		}
	}
}

// GetPoolStats aggregates instance statuses.
func (m *Manager) GetPoolStats() models.PoolStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := models.PoolStats{
		MaxInstances:    m.config.MaxInstances,
		ActiveInstances: len(m.instances),
	}
	for _, instance := range m.instances {
		switch instance.Status() {
		case models.InstanceStatusWorking:
			stats.Working++
		case models.InstanceStatusIdle:
			stats.Idle++
		case models.InstanceStatusError:
			stats.Errored++
		case models.InstanceStatusPaused:
			stats.Paused++
		}
	}
	return stats
}

// ListInstances returns a snapshot of every pooled instance.
func (m *Manager) ListInstances() []models.InstanceInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]models.InstanceInfo, 0, len(m.instances))
	for _, instance := range m.instances {
		infos = append(infos, instance.Info())
	}
	return infos
}

func (m *Manager) instanceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.instances)
}

func (m *Manager) publishInstanceStatus(ctx context.Context, instance *Instance) {
	if m.events == nil {
		return
	}
	_ = m.events.Publish(ctx, interfaces.Event{
		Type: interfaces.EventInstanceStatus,
		Payload: map[string]interface{}{
			"campaign_id": instance.CampaignID(),
			"status":      string(instance.Status()),
		},
	})
}
