package browser

import (
	"context"
	"fmt"
	"strings"
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

type fakeDriver struct{}

func (d *fakeDriver) Navigate(context.Context, string) error { return nil }
func (d *fakeDriver) HTML(context.Context) (string, error) { return "", nil }
func (d *fakeDriver) ExtractText(context.Context, string) (string, error) { return "", nil }
func (d *fakeDriver) FillInput(context.Context, string, string) error { return nil }
func (d *fakeDriver) Click(context.Context, string) error { return nil }
func (d *fakeDriver) Cookies(context.Context) (string, error) { return "[]", nil }
func (d *fakeDriver) RestoreCookies(context.Context, string) error { return nil }

type fakeExecutor struct {
	mu       sync.Mutex
	executed []string
	status   models.JobStatus
	detail   string
}

func (e *fakeExecutor) ExecuteJob(_ context.Context, _ interfaces.PageDriver, job *models.PostingJob) (models.JobStatus, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.executed = append(e.executed, job.ID)
	status := e.status
	if status == "" {
		status = models.JobStatusPosted
	}
	return status, e.detail
}

func (e *fakeExecutor) executedJobs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.executed))
	copy(out, e.executed)
	return out
}

type memJobStore struct {
	mu   sync.Mutex
	jobs map[string]*models.PostingJob
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[string]*models.PostingJob)}
}

func (s *memJobStore) SaveJob(_ context.Context, job *models.PostingJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *memJobStore) GetJob(_ context.Context, id string) (*models.PostingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return job, nil
}

func (s *memJobStore) ListJobsByCampaign(_ context.Context, campaignID string, status models.JobStatus, limit int) ([]*models.PostingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.PostingJob
	for _, job := range s.jobs {
		if job.CampaignID == campaignID && job.Status == status {
			out = append(out, job)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *memJobStore) UpdateJobStatus(_ context.Context, id string, status models.JobStatus, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if !job.Status.CanTransition(status) {
		return fmt.Errorf("illegal job transition %s -> %s", job.Status, status)
	}
	job.Status = status
	job.ErrorMessage = errorMessage
	return nil
}

func (s *memJobStore) DeleteJobsByCampaign(_ context.Context, campaignID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.jobs {
		if job.CampaignID == campaignID {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}

func (s *memJobStore) CountJobsByCampaign(_ context.Context, campaignID string, status models.JobStatus) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, job := range s.jobs {
		if job.CampaignID == campaignID && job.Status == status {
			count++
		}
	}
	return count, nil
}

func testPoolConfig(maxInstances int) common.PoolConfig {
	return common.PoolConfig{
		MaxInstances:    maxInstances,
		MonitorInterval: 10 * time.Millisecond,
		IdleTimeout:     10 * time.Minute,
		MaxErrors:       5,
		JobBatchSize:    5,
		JobDelayMin:     time.Millisecond,
		JobDelayMax:     2 * time.Millisecond,
		NavigateTimeout: time.Second,
	}
}

func newTestManager(maxInstances int, jobs interfaces.JobStorage, executor interfaces.JobExecutor) *Manager {
	m := NewManager(testPoolConfig(maxInstances), jobs, executor, nil, arbor.NewLogger())
	m.newDriver = func(context.Context) (interfaces.PageDriver, func(), error) {
		return &fakeDriver{}, func() {}, nil
	}
	return m
}

func approvedJob(campaignID string) *models.PostingJob {
	job := models.NewPostingJob(campaignID, models.StrategyBlogComment, "https://target.example/post", "golang", "https://example.com")
	job.Status = models.JobStatusApproved
	return job
}

func TestCreateCampaignBrowserRejectsDuplicates(t *testing.T) {
	m := newTestManager(3, newMemJobStore(), &fakeExecutor{})
	ctx := context.Background()

	require.NoError(t, m.CreateCampaignBrowser(ctx, "cmp_1", "first"))
	assert.Error(t, m.CreateCampaignBrowser(ctx, "cmp_1", "again"))
}

func TestCreateCampaignBrowserEnforcesCap(t *testing.T) {
	m := newTestManager(2, newMemJobStore(), &fakeExecutor{})
	ctx := context.Background()

	require.NoError(t, m.CreateCampaignBrowser(ctx, "cmp_1", "a"))
	require.NoError(t, m.CreateCampaignBrowser(ctx, "cmp_2", "b"))
	assert.Error(t, m.CreateCampaignBrowser(ctx, "cmp_3", "c"))

	stats := m.GetPoolStats()
	assert.Equal(t, 2, stats.ActiveInstances)
	assert.Equal(t, 2, stats.Idle)
}

func TestStartCampaignAutomationRunsBatch(t *testing.T) {
	jobs := newMemJobStore()
	executor := &fakeExecutor{}
	m := newTestManager(3, jobs, executor)
	ctx := context.Background()

	require.NoError(t, m.CreateCampaignBrowser(ctx, "cmp_1", "test"))

	first := approvedJob("cmp_1")
	second := approvedJob("cmp_1")
	require.NoError(t, jobs.SaveJob(ctx, first))
	require.NoError(t, jobs.SaveJob(ctx, second))

	require.NoError(t, m.StartCampaignAutomation(ctx, "cmp_1"))

	assert.Len(t, executor.executedJobs(), 2)
	for _, job := range []*models.PostingJob{first, second} {
		stored, err := jobs.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusPosted, stored.Status)
	}

	info := m.ListInstances()
	require.Len(t, info, 1)
	assert.Equal(t, models.InstanceStatusIdle, info[0].Status)
	assert.Equal(t, 2, info[0].ProcessedJobs)
}

// traceRecorder captures the interleaving of storage writes and executions.
type traceRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *traceRecorder) record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *traceRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

type tracingJobStore struct {
	*memJobStore
	trace *traceRecorder
}

func (s *tracingJobStore) UpdateJobStatus(ctx context.Context, id string, status models.JobStatus, errorMessage string) error {
	s.trace.record(fmt.Sprintf("update %s %s", id, status))
	return s.memJobStore.UpdateJobStatus(ctx, id, status, errorMessage)
}

type tracingExecutor struct {
	fakeExecutor
	trace *traceRecorder
}

func (e *tracingExecutor) ExecuteJob(ctx context.Context, driver interfaces.PageDriver, job *models.PostingJob) (models.JobStatus, string) {
	e.trace.record("exec " + job.ID)
	return e.fakeExecutor.ExecuteJob(ctx, driver, job)
}

func TestBatchPersistsOutcomeBeforeNextJob(t *testing.T) {
	trace := &traceRecorder{}
	jobs := &tracingJobStore{memJobStore: newMemJobStore(), trace: trace}
	executor := &tracingExecutor{trace: trace}
	m := newTestManager(2, jobs, executor)
	ctx := context.Background()

	require.NoError(t, m.CreateCampaignBrowser(ctx, "cmp_1", "test"))
	for i := 0; i < 3; i++ {
		require.NoError(t, jobs.SaveJob(ctx, approvedJob("cmp_1")))
	}

	require.NoError(t, m.StartCampaignAutomation(ctx, "cmp_1"))

	// A job may only start once the previous job's terminal status is on
	// record.
	events := trace.snapshot()
	awaitingTerminal := ""
	execs := 0
	for _, event := range events {
		fields := strings.Fields(event)
		switch fields[0] {
		case "exec":
			require.Empty(t, awaitingTerminal,
				"job %s executed before the outcome of %s was persisted (trace: %v)", fields[1], awaitingTerminal, events)
			awaitingTerminal = fields[1]
			execs++
		case "update":
			if fields[1] == awaitingTerminal && models.JobStatus(fields[2]).IsTerminal() {
				awaitingTerminal = ""
			}
		}
	}
	assert.Equal(t, 3, execs)
	assert.Empty(t, awaitingTerminal)
}

func TestStartCampaignAutomationUnknownInstance(t *testing.T) {
	m := newTestManager(2, newMemJobStore(), &fakeExecutor{})
	assert.Error(t, m.StartCampaignAutomation(context.Background(), "cmp_missing"))
}

func TestFailedJobRecordsInstanceError(t *testing.T) {
	jobs := newMemJobStore()
	executor := &fakeExecutor{status: models.JobStatusFailed, detail: "no comment form found"}
	m := newTestManager(2, jobs, executor)
	ctx := context.Background()

	require.NoError(t, m.CreateCampaignBrowser(ctx, "cmp_1", "test"))
	job := approvedJob("cmp_1")
	require.NoError(t, jobs.SaveJob(ctx, job))

	require.NoError(t, m.StartCampaignAutomation(ctx, "cmp_1"))

	stored, err := jobs.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, stored.Status)
	assert.Equal(t, "no comment form found", stored.ErrorMessage)

	info := m.ListInstances()
	require.Len(t, info, 1)
	assert.Equal(t, 1, info[0].ErrorCount)
}

func TestPauseResumeFlipStatus(t *testing.T) {
	m := newTestManager(2, newMemJobStore(), &fakeExecutor{})
	ctx := context.Background()

	require.NoError(t, m.CreateCampaignBrowser(ctx, "cmp_1", "test"))

	assert.True(t, m.PauseCampaignAutomation("cmp_1"))
	assert.Equal(t, models.InstanceStatusPaused, m.ListInstances()[0].Status)

	// Paused instances do not start automation.
	assert.Error(t, m.StartCampaignAutomation(ctx, "cmp_1"))

	assert.True(t, m.ResumeCampaignAutomation("cmp_1"))
	assert.Equal(t, models.InstanceStatusIdle, m.ListInstances()[0].Status)

	assert.False(t, m.PauseCampaignAutomation("cmp_missing"))
	assert.False(t, m.ResumeCampaignAutomation("cmp_1")) // not paused
}

func TestCloseCampaignBrowser(t *testing.T) {
	m := newTestManager(2, newMemJobStore(), &fakeExecutor{})
	ctx := context.Background()

	require.NoError(t, m.CreateCampaignBrowser(ctx, "cmp_1", "test"))
	assert.True(t, m.CloseCampaignBrowser("cmp_1"))
	assert.False(t, m.CloseCampaignBrowser("cmp_1"))
	assert.Equal(t, 0, m.GetPoolStats().ActiveInstances)
}

func TestMonitorAutoStartsIdleInstances(t *testing.T) {
	jobs := newMemJobStore()
	executor := &fakeExecutor{}
	m := newTestManager(2, jobs, executor)
	ctx := context.Background()

	require.NoError(t, m.CreateCampaignBrowser(ctx, "cmp_1", "test"))
	require.NoError(t, jobs.SaveJob(ctx, approvedJob("cmp_1")))

	m.StartMonitor(ctx)
	defer m.CloseAll()

	require.Eventually(t, func() bool {
		return len(executor.executedJobs()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
