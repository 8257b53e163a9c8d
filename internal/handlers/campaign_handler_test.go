package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/common"
	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
	"github.com/linkforge/linkforge/internal/scheduler"
)

type memCampaignStore struct {
	campaigns map[string]*models.QueuedCampaign
	pingErr   error
}

func newMemCampaignStore() *memCampaignStore {
	return &memCampaignStore{campaigns: make(map[string]*models.QueuedCampaign)}
}

func (m *memCampaignStore) SaveCampaign(_ context.Context, c *models.QueuedCampaign) error {
	clone := *c
	m.campaigns[c.ID] = &clone
	return nil
}

func (m *memCampaignStore) GetCampaign(_ context.Context, id string) (*models.QueuedCampaign, error) {
	c, ok := m.campaigns[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *memCampaignStore) DeleteCampaign(_ context.Context, id string) error {
	if _, ok := m.campaigns[id]; !ok {
		return interfaces.ErrNotFound
	}
	delete(m.campaigns, id)
	return nil
}

func (m *memCampaignStore) ListCampaigns(_ context.Context) ([]*models.QueuedCampaign, error) {
	out := make([]*models.QueuedCampaign, 0, len(m.campaigns))
	for _, c := range m.campaigns {
		clone := *c
		out = append(out, &clone)
	}
	return out, nil
}

func (m *memCampaignStore) ListCampaignsByStatus(_ context.Context, status models.CampaignStatus) ([]*models.QueuedCampaign, error) {
	var out []*models.QueuedCampaign
	for _, c := range m.campaigns {
		if c.Status == status {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memCampaignStore) Ping(_ context.Context) error { return m.pingErr }

type memAuditStore struct {
	entries []*models.AuditEntry
}

func (m *memAuditStore) AppendAudit(_ context.Context, entry *models.AuditEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memAuditStore) ListAudit(_ context.Context, campaignID string, limit int) ([]*models.AuditEntry, error) {
	var out []*models.AuditEntry
	for _, e := range m.entries {
		if e.CampaignID == campaignID {
			out = append(out, e)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// newTestHandler builds the handler over a queue manager with no processing
// nodes, so enqueued campaigns stay queued.
func newTestHandler(t *testing.T) (*CampaignHandler, *memCampaignStore) {
	t.Helper()

	store := newMemCampaignStore()
	audit := &memAuditStore{}
	cfg := common.SchedulerConfig{
		NodeCount:           0,
		NodeCapacity:        1,
		HealthCheckInterval: time.Minute,
		ProgressInterval:    time.Minute,
		MaxRetries:          3,
		MemoryThresholdMB:   4096,
	}
	queue := scheduler.NewQueueManager(cfg, store, nil, audit, nil, nil, arbor.NewLogger())
	return NewCampaignHandler(queue, store, audit, arbor.NewLogger()), store
}

const enqueueBody = `{
	"owner_id": "tester",
	"priority": "high",
	"config": {
		"name": "launch",
		"target_url": "https://example.com",
		"keywords": ["golang"],
		"daily_limit": 5,
		"total_links_target": 20,
		"strategies": [{"type": "blog-comment", "enabled": true}]
	}
}`

func TestEnqueueHandler(t *testing.T) {
	handler, store := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/campaigns", strings.NewReader(enqueueBody))
	rec := httptest.NewRecorder()
	handler.EnqueueHandler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["campaign_id"])

	saved, err := store.GetCampaign(context.Background(), resp["campaign_id"])
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, saved.Priority)
	assert.Equal(t, "tester", saved.OwnerID)
}

func TestEnqueueHandlerRejectsInvalidConfig(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := `{"config": {"name": "", "target_url": "not-a-url"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/campaigns", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.EnqueueHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnqueueHandlerRejectsWrongMethod(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
	rec := httptest.NewRecorder()
	handler.EnqueueHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func enqueueTestCampaign(t *testing.T, handler *CampaignHandler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/campaigns", strings.NewReader(enqueueBody))
	rec := httptest.NewRecorder()
	handler.EnqueueHandler(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp["campaign_id"]
}

func TestPauseAndResumeRoutes(t *testing.T) {
	handler, _ := newTestHandler(t)
	id := enqueueTestCampaign(t, handler)

	rec := httptest.NewRecorder()
	handler.CampaignRoutes(rec, httptest.NewRequest(http.MethodPost, "/api/campaigns/"+id+"/pause", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.CampaignRoutes(rec, httptest.NewRequest(http.MethodPost, "/api/campaigns/"+id+"/resume", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Resuming a campaign that is not paused is a conflict.
	rec = httptest.NewRecorder()
	handler.CampaignRoutes(rec, httptest.NewRequest(http.MethodPost, "/api/campaigns/"+id+"/resume", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetCampaignRoute(t *testing.T) {
	handler, _ := newTestHandler(t)
	id := enqueueTestCampaign(t, handler)

	rec := httptest.NewRecorder()
	handler.CampaignRoutes(rec, httptest.NewRequest(http.MethodGet, "/api/campaigns/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var campaign models.QueuedCampaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &campaign))
	assert.Equal(t, id, campaign.ID)
	assert.Equal(t, models.CampaignStatusQueued, campaign.Status)
}

func TestGetUnknownCampaignRoute(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.CampaignRoutes(rec, httptest.NewRequest(http.MethodGet, "/api/campaigns/camp-missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteCampaignRoute(t *testing.T) {
	handler, store := newTestHandler(t)
	id := enqueueTestCampaign(t, handler)

	rec := httptest.NewRecorder()
	handler.CampaignRoutes(rec, httptest.NewRequest(http.MethodDelete, "/api/campaigns/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.DeletionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)

	_, err := store.GetCampaign(context.Background(), id)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

type fakeReportGenerator struct {
	path string
	err  error
}

func (f *fakeReportGenerator) GenerateCompletionReport(_ context.Context, c *models.QueuedCampaign) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.path + "/" + c.ID + ".pdf", nil
}

func TestReportRoute(t *testing.T) {
	handler, _ := newTestHandler(t)
	id := enqueueTestCampaign(t, handler)

	// Not configured yet.
	rec := httptest.NewRecorder()
	handler.CampaignRoutes(rec, httptest.NewRequest(http.MethodPost, "/api/campaigns/"+id+"/report", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	handler.SetReportGenerator(&fakeReportGenerator{path: "/tmp/reports"})
	rec = httptest.NewRecorder()
	handler.CampaignRoutes(rec, httptest.NewRequest(http.MethodPost, "/api/campaigns/"+id+"/report", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/tmp/reports/"+id+".pdf", resp["report"])
}

func TestAuditRoute(t *testing.T) {
	handler, _ := newTestHandler(t)
	id := enqueueTestCampaign(t, handler)

	rec := httptest.NewRecorder()
	handler.CampaignRoutes(rec, httptest.NewRequest(http.MethodGet, "/api/campaigns/"+id+"/audit", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entries []*models.AuditEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Entries)
	assert.Equal(t, "enqueued", resp.Entries[0].Action)
}

func TestStatsHandler(t *testing.T) {
	handler, _ := newTestHandler(t)
	enqueueTestCampaign(t, handler)

	rec := httptest.NewRecorder()
	handler.StatsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/campaigns/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Queue models.QueueStats `json:"queue"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Queue.Total)
	assert.Equal(t, 1, resp.Queue.Queued)
}

func TestListHandlerFiltersByStatus(t *testing.T) {
	handler, store := newTestHandler(t)
	enqueueTestCampaign(t, handler)

	rec := httptest.NewRecorder()
	handler.ListHandler(rec, httptest.NewRequest(http.MethodGet, "/api/campaigns?status=queued", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	// No completed campaigns yet.
	rec = httptest.NewRecorder()
	handler.ListHandler(rec, httptest.NewRequest(http.MethodGet, "/api/campaigns?status=completed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)

	_ = store
}
