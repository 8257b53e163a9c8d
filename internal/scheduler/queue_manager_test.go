package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/common"
	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

// In-memory campaign store for scheduler tests.
type memCampaignStore struct {
	mu        sync.Mutex
	items     map[string]*models.QueuedCampaign
	deleteErr error
	pingErr   error
}

func newMemCampaignStore() *memCampaignStore {
	return &memCampaignStore{items: make(map[string]*models.QueuedCampaign)}
}

func (s *memCampaignStore) SaveCampaign(_ context.Context, campaign *models.QueuedCampaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[campaign.ID] = campaign
	return nil
}

func (s *memCampaignStore) GetCampaign(_ context.Context, id string) (*models.QueuedCampaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	campaign, ok := s.items[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return campaign, nil
}

func (s *memCampaignStore) DeleteCampaign(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.items[id]; !ok {
		return interfaces.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *memCampaignStore) ListCampaigns(_ context.Context) ([]*models.QueuedCampaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	campaigns := make([]*models.QueuedCampaign, 0, len(s.items))
	for _, c := range s.items {
		campaigns = append(campaigns, c)
	}
	return campaigns, nil
}

func (s *memCampaignStore) ListCampaignsByStatus(_ context.Context, status models.CampaignStatus) ([]*models.QueuedCampaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var campaigns []*models.QueuedCampaign
	for _, c := range s.items {
		if c.Status == status {
			campaigns = append(campaigns, c)
		}
	}
	return campaigns, nil
}

func (s *memCampaignStore) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pingErr
}

// Strategy handler that blocks until released, for capacity and stop tests.
type blockingHandler struct {
	strategyType models.StrategyType
	started      chan string
	release      chan struct{}
}

func newBlockingHandler(strategyType models.StrategyType) *blockingHandler {
	return &blockingHandler{
		strategyType: strategyType,
		started:      make(chan string, 8),
		release:      make(chan struct{}),
	}
}

func (h *blockingHandler) Type() models.StrategyType { return h.strategyType }

func (h *blockingHandler) Execute(_ context.Context, campaign *models.QueuedCampaign, _ models.StrategyConfig) error {
	h.started <- campaign.ID
	<-h.release
	return nil
}

type noopHandler struct{ strategyType models.StrategyType }

func (h *noopHandler) Type() models.StrategyType { return h.strategyType }
func (h *noopHandler) Execute(_ context.Context, _ *models.QueuedCampaign, _ models.StrategyConfig) error {
	return nil
}

type staticResolver struct {
	handlers map[models.StrategyType]interfaces.StrategyHandler
}

func (r *staticResolver) HandlerFor(strategyType models.StrategyType) (interfaces.StrategyHandler, error) {
	handler, ok := r.handlers[strategyType]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %s", strategyType)
	}
	return handler, nil
}

func resolverWith(handlers ...interfaces.StrategyHandler) *staticResolver {
	r := &staticResolver{handlers: make(map[models.StrategyType]interfaces.StrategyHandler)}
	for _, h := range handlers {
		r.handlers[h.Type()] = h
	}
	return r
}

func testConfig(nodeCount, capacity int) common.SchedulerConfig {
	return common.SchedulerConfig{
		NodeCount:           nodeCount,
		NodeCapacity:        capacity,
		NodeRegion:          "local",
		HealthCheckInterval: 30 * time.Second,
		ProgressInterval:    time.Minute,
		MaxRetries:          3,
		MemoryThresholdMB:   4096,
	}
}

func validConfig(name string, enabled ...models.StrategyType) models.CampaignConfig {
	strategies := make([]models.StrategyConfig, 0, len(enabled))
	for _, s := range enabled {
		strategies = append(strategies, models.StrategyConfig{
			Type:             s,
			Enabled:          true,
			QualityThreshold: 50,
		})
	}
	return models.CampaignConfig{
		Name:             name,
		TargetURL:        "https://example.com",
		Keywords:         []string{"golang"},
		DailyLimit:       10,
		TotalLinksTarget: 50,
		Strategies:       strategies,
	}
}

func TestEnqueueOrdersByPriorityThenDuration(t *testing.T) {
	store := newMemCampaignStore()
	resolver := resolverWith(&noopHandler{strategyType: models.StrategyBlogComment})
	// Zero nodes: nothing dispatches, queue ordering stays observable.
	manager := NewQueueManager(testConfig(0, 1), store, nil, nil, resolver, nil, arbor.NewLogger())

	low := validConfig("low", models.StrategyBlogComment)
	high := validConfig("high", models.StrategyBlogComment)
	critical := validConfig("critical", models.StrategyBlogComment)
	// Same priority, shorter estimate should win.
	criticalLong := validConfig("critical-long", models.StrategyBlogComment)
	criticalLong.TotalLinksTarget = 500

	ctx := context.Background()
	lowID, err := manager.Enqueue(ctx, low, "owner-1", models.PriorityLow)
	require.NoError(t, err)
	criticalLongID, err := manager.Enqueue(ctx, criticalLong, "owner-1", models.PriorityCritical)
	require.NoError(t, err)
	highID, err := manager.Enqueue(ctx, high, "owner-1", models.PriorityHigh)
	require.NoError(t, err)
	criticalID, err := manager.Enqueue(ctx, critical, "owner-1", models.PriorityCritical)
	require.NoError(t, err)

	queue := manager.QueueSnapshot()
	require.Len(t, queue, 4)
	assert.Equal(t, criticalID, queue[0].ID)
	assert.Equal(t, criticalLongID, queue[1].ID)
	assert.Equal(t, highID, queue[2].ID)
	assert.Equal(t, lowID, queue[3].ID)
}

func TestEnqueueRejectsInvalidConfig(t *testing.T) {
	store := newMemCampaignStore()
	resolver := resolverWith(&noopHandler{strategyType: models.StrategyBlogComment})
	manager := NewQueueManager(testConfig(0, 1), store, nil, nil, resolver, nil, arbor.NewLogger())
	ctx := context.Background()

	missingTarget := validConfig("bad", models.StrategyBlogComment)
	missingTarget.TargetURL = ""
	_, err := manager.Enqueue(ctx, missingTarget, "owner-1", models.PriorityMedium)
	assert.Error(t, err)

	noStrategies := validConfig("bad")
	noStrategies.Strategies = []models.StrategyConfig{{Type: models.StrategyBlogComment, Enabled: false}}
	_, err = manager.Enqueue(ctx, noStrategies, "owner-1", models.PriorityMedium)
	assert.Error(t, err)

	assert.Empty(t, manager.QueueSnapshot())
}

func TestEnqueueDefaultsPriorityToMedium(t *testing.T) {
	store := newMemCampaignStore()
	resolver := resolverWith(&noopHandler{strategyType: models.StrategyBlogComment})
	manager := NewQueueManager(testConfig(0, 1), store, nil, nil, resolver, nil, arbor.NewLogger())

	id, err := manager.Enqueue(context.Background(), validConfig("c", models.StrategyBlogComment), "owner-1", "")
	require.NoError(t, err)

	campaign := manager.GetStatus(context.Background(), id)
	require.NotNil(t, campaign)
	assert.Equal(t, models.PriorityMedium, campaign.Priority)
	assert.Equal(t, models.CampaignStatusQueued, campaign.Status)
}

func TestHandleCampaignErrorBackoff(t *testing.T) {
	store := newMemCampaignStore()
	resolver := resolverWith(&noopHandler{strategyType: models.StrategyBlogComment})
	manager := NewQueueManager(testConfig(0, 1), store, nil, nil, resolver, nil, arbor.NewLogger())
	ctx := context.Background()

	campaign := models.NewQueuedCampaign(validConfig("c", models.StrategyBlogComment), "owner-1", models.PriorityMedium, 2)
	require.NoError(t, store.SaveCampaign(ctx, campaign))

	cause := errors.New("strategy blew up")

	// First failure: retry in ~2 minutes.
	before := time.Now()
	manager.handleCampaignError(ctx, campaign, cause)
	assert.Equal(t, models.CampaignStatusRetry, campaign.Status)
	assert.Equal(t, 1, campaign.RetryCount)
	assert.WithinDuration(t, before.Add(2*time.Minute), campaign.ScheduledAt, 2*time.Second)

	// Second failure: ~4 minutes.
	before = time.Now()
	manager.handleCampaignError(ctx, campaign, cause)
	assert.Equal(t, models.CampaignStatusRetry, campaign.Status)
	assert.WithinDuration(t, before.Add(4*time.Minute), campaign.ScheduledAt, 2*time.Second)

	// Budget exhausted: terminal failure.
	manager.handleCampaignError(ctx, campaign, cause)
	assert.Equal(t, models.CampaignStatusFailed, campaign.Status)
	assert.Equal(t, 3, campaign.RetryCount)
	require.NotNil(t, campaign.CompletedAt)
	assert.Equal(t, cause.Error(), campaign.ErrorMessage)
}

func TestNodeCapacityBound(t *testing.T) {
	store := newMemCampaignStore()
	handler := newBlockingHandler(models.StrategyBlogComment)
	resolver := resolverWith(handler)
	node := NewProcessingNode("node-1", "local", 1, 0, resolver, store, nil, time.Minute, arbor.NewLogger())
	ctx := context.Background()

	first := models.NewQueuedCampaign(validConfig("first", models.StrategyBlogComment), "owner-1", models.PriorityMedium, 3)
	second := models.NewQueuedCampaign(validConfig("second", models.StrategyBlogComment), "owner-1", models.PriorityMedium, 3)

	require.NoError(t, node.ProcessCampaign(ctx, first))

	select {
	case <-handler.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first campaign never started")
	}

	assert.False(t, node.HasCapacity())
	assert.Error(t, node.ProcessCampaign(ctx, second))

	close(handler.release)
	require.Eventually(t, func() bool { return node.CurrentLoad() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, node.HasCapacity())
}

// startProcessing enqueues one campaign onto a single-node manager and waits
// until its blocking strategy is running.
func startProcessing(t *testing.T, manager *QueueManager, handler *blockingHandler) string {
	t.Helper()

	id, err := manager.Enqueue(context.Background(), validConfig("c", models.StrategyBlogComment), "owner-1", models.PriorityMedium)
	require.NoError(t, err)

	select {
	case <-handler.started:
	case <-time.After(2 * time.Second):
		t.Fatal("campaign never started processing")
	}
	return id
}

func TestRedistributeWorkloadRequeuesWithinBudget(t *testing.T) {
	store := newMemCampaignStore()
	handler := newBlockingHandler(models.StrategyBlogComment)
	manager := NewQueueManager(testConfig(1, 1), store, nil, nil, resolverWith(handler), nil, arbor.NewLogger())
	ctx := context.Background()

	id := startProcessing(t, manager, handler)
	defer close(handler.release)

	manager.redistributeWorkload(ctx, manager.nodes[0])

	campaign := manager.GetStatus(ctx, id)
	require.NotNil(t, campaign)
	assert.Equal(t, models.CampaignStatusQueued, campaign.Status)
	assert.Equal(t, 1, campaign.RetryCount)
	assert.Empty(t, campaign.ProcessingNode)
	assert.Nil(t, campaign.CompletedAt)
}

func TestRedistributeWorkloadFailsWhenBudgetSpent(t *testing.T) {
	store := newMemCampaignStore()
	handler := newBlockingHandler(models.StrategyBlogComment)
	cfg := testConfig(1, 1)
	cfg.MaxRetries = 0
	manager := NewQueueManager(cfg, store, nil, nil, resolverWith(handler), nil, arbor.NewLogger())
	ctx := context.Background()

	id := startProcessing(t, manager, handler)
	defer close(handler.release)

	manager.redistributeWorkload(ctx, manager.nodes[0])

	campaign := manager.GetStatus(ctx, id)
	require.NotNil(t, campaign)
	assert.Equal(t, models.CampaignStatusFailed, campaign.Status)
	assert.Equal(t, 1, campaign.RetryCount)
	require.NotNil(t, campaign.CompletedAt)
	assert.Contains(t, campaign.ErrorMessage, "retry budget exhausted")

	// The bound holds for every non-failed campaign the store knows about.
	stored, err := store.ListCampaigns(ctx)
	require.NoError(t, err)
	for _, c := range stored {
		if c.Status != models.CampaignStatusFailed {
			assert.LessOrEqual(t, c.RetryCount, c.MaxRetries)
		}
	}
}

func TestDeleteUnknownCampaign(t *testing.T) {
	store := newMemCampaignStore()
	resolver := resolverWith(&noopHandler{strategyType: models.StrategyBlogComment})
	manager := NewQueueManager(testConfig(0, 1), store, nil, nil, resolver, nil, arbor.NewLogger())

	result := manager.DeleteCampaign(context.Background(), "cmp_missing", false)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "not found")
}

func TestDeleteQueuedCampaign(t *testing.T) {
	store := newMemCampaignStore()
	resolver := resolverWith(&noopHandler{strategyType: models.StrategyBlogComment})
	manager := NewQueueManager(testConfig(0, 1), store, nil, nil, resolver, nil, arbor.NewLogger())
	ctx := context.Background()

	id, err := manager.Enqueue(ctx, validConfig("c", models.StrategyBlogComment), "owner-1", models.PriorityMedium)
	require.NoError(t, err)

	result := manager.DeleteCampaign(ctx, id, false)
	assert.True(t, result.Success)
	assert.True(t, result.DeletedFromQueue)
	assert.True(t, result.CleanupOperations.QueueRemoval)
	assert.False(t, result.StoppedProcessing)

	_, err = store.GetCampaign(ctx, id)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
	assert.Empty(t, manager.QueueSnapshot())
}

func TestDeleteProcessingRequiresForce(t *testing.T) {
	store := newMemCampaignStore()
	handler := newBlockingHandler(models.StrategyBlogComment)
	resolver := resolverWith(handler)
	manager := NewQueueManager(testConfig(1, 1), store, nil, nil, resolver, nil, arbor.NewLogger())
	ctx := context.Background()

	id, err := manager.Enqueue(ctx, validConfig("c", models.StrategyBlogComment), "owner-1", models.PriorityMedium)
	require.NoError(t, err)

	select {
	case <-handler.started:
	case <-time.After(2 * time.Second):
		t.Fatal("campaign never started processing")
	}

	refused := manager.DeleteCampaign(ctx, id, false)
	assert.False(t, refused.Success)
	assert.NotEmpty(t, refused.Warnings)

	campaign := manager.GetStatus(ctx, id)
	require.NotNil(t, campaign)
	assert.Equal(t, models.CampaignStatusProcessing, campaign.Status)

	forced := manager.DeleteCampaign(ctx, id, true)
	assert.True(t, forced.Success)
	assert.True(t, forced.StoppedProcessing)
	assert.True(t, forced.CleanupOperations.NodeCleanup)
	assert.Empty(t, manager.QueueSnapshot())

	// Unblock the in-flight strategy; its late result must be discarded.
	close(handler.release)
	_, err = store.GetCampaign(ctx, id)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestDeleteRollsBackOnStoreFailure(t *testing.T) {
	store := newMemCampaignStore()
	resolver := resolverWith(&noopHandler{strategyType: models.StrategyBlogComment})
	manager := NewQueueManager(testConfig(0, 1), store, nil, nil, resolver, nil, arbor.NewLogger())
	ctx := context.Background()

	id, err := manager.Enqueue(ctx, validConfig("c", models.StrategyBlogComment), "owner-1", models.PriorityMedium)
	require.NoError(t, err)

	store.mu.Lock()
	store.deleteErr = errors.New("disk on fire")
	store.mu.Unlock()

	result := manager.DeleteCampaign(ctx, id, false)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "rolled back")

	// Campaign must still be tracked after the rollback.
	queue := manager.QueueSnapshot()
	require.Len(t, queue, 1)
	assert.Equal(t, id, queue[0].ID)
}

func TestResumeRequiresPaused(t *testing.T) {
	store := newMemCampaignStore()
	resolver := resolverWith(&noopHandler{strategyType: models.StrategyBlogComment})
	manager := NewQueueManager(testConfig(0, 1), store, nil, nil, resolver, nil, arbor.NewLogger())
	ctx := context.Background()

	id, err := manager.Enqueue(ctx, validConfig("c", models.StrategyBlogComment), "owner-1", models.PriorityMedium)
	require.NoError(t, err)

	// Queued, not paused: resume refuses without state change.
	assert.False(t, manager.ResumeCampaign(ctx, id))
	assert.Equal(t, models.CampaignStatusQueued, manager.GetStatus(ctx, id).Status)

	assert.False(t, manager.ResumeCampaign(ctx, "cmp_missing"))

	require.True(t, manager.PauseCampaign(ctx, id))
	assert.Equal(t, models.CampaignStatusPaused, manager.GetStatus(ctx, id).Status)

	assert.True(t, manager.ResumeCampaign(ctx, id))
	assert.Equal(t, models.CampaignStatusQueued, manager.GetStatus(ctx, id).Status)
}

func TestPauseUnknownCampaign(t *testing.T) {
	store := newMemCampaignStore()
	resolver := resolverWith(&noopHandler{strategyType: models.StrategyBlogComment})
	manager := NewQueueManager(testConfig(0, 1), store, nil, nil, resolver, nil, arbor.NewLogger())

	assert.False(t, manager.PauseCampaign(context.Background(), "cmp_missing"))
}

func TestGetQueueStats(t *testing.T) {
	store := newMemCampaignStore()
	resolver := resolverWith(&noopHandler{strategyType: models.StrategyBlogComment})
	manager := NewQueueManager(testConfig(2, 3), store, nil, nil, resolver, nil, arbor.NewLogger())
	ctx := context.Background()

	queued := models.NewQueuedCampaign(validConfig("a", models.StrategyBlogComment), "owner-1", models.PriorityMedium, 3)
	completed := models.NewQueuedCampaign(validConfig("b", models.StrategyBlogComment), "owner-1", models.PriorityMedium, 3)
	completed.Status = models.CampaignStatusCompleted
	require.NoError(t, store.SaveCampaign(ctx, queued))
	require.NoError(t, store.SaveCampaign(ctx, completed))

	stats, err := manager.GetQueueStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Queued)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 6, stats.TotalCapacity)
	assert.Equal(t, 0, stats.UsedCapacity)
}
