package report

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

type memJobStore struct {
	jobs []*models.PostingJob
}

func (m *memJobStore) SaveJob(_ context.Context, job *models.PostingJob) error {
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *memJobStore) GetJob(_ context.Context, id string) (*models.PostingJob, error) {
	for _, j := range m.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (m *memJobStore) ListJobsByCampaign(_ context.Context, campaignID string, status models.JobStatus, limit int) ([]*models.PostingJob, error) {
	var out []*models.PostingJob
	for _, j := range m.jobs {
		if j.CampaignID != campaignID {
			continue
		}
		if status != "" && j.Status != status {
			continue
		}
		out = append(out, j)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memJobStore) UpdateJobStatus(_ context.Context, id string, status models.JobStatus, errorMessage string) error {
	for _, j := range m.jobs {
		if j.ID == id {
			j.Status = status
			j.ErrorMessage = errorMessage
			return nil
		}
	}
	return interfaces.ErrNotFound
}

func (m *memJobStore) DeleteJobsByCampaign(_ context.Context, campaignID string) (int, error) {
	return 0, nil
}

func (m *memJobStore) CountJobsByCampaign(_ context.Context, campaignID string, status models.JobStatus) (int, error) {
	jobs, _ := m.ListJobsByCampaign(context.Background(), campaignID, status, 0)
	return len(jobs), nil
}

func completedCampaign() *models.QueuedCampaign {
	started := time.Now().Add(-2 * time.Hour)
	completed := time.Now()
	return &models.QueuedCampaign{
		ID:       "camp-report-1",
		OwnerID:  "owner-1",
		Priority: models.PriorityHigh,
		Status:   models.CampaignStatusCompleted,
		Config: models.CampaignConfig{
			Name:             "Launch Push",
			TargetURL:        "https://example.com/product",
			Keywords:         []string{"release tooling", "ci pipelines"},
			DailyLimit:       10,
			TotalLinksTarget: 50,
		},
		StartedAt:      &started,
		CompletedAt:    &completed,
		ActualDuration: 2 * time.Hour,
	}
}

func reportJob(campaignID string, strategy models.StrategyType, status models.JobStatus) *models.PostingJob {
	job := models.NewPostingJob(campaignID, strategy, "https://blog.example.org/post", "release tooling", "https://example.com/product")
	job.Status = status
	return job
}

func TestBuildSummary(t *testing.T) {
	campaign := completedCampaign()
	jobs := []*models.PostingJob{
		reportJob(campaign.ID, models.StrategyBlogComment, models.JobStatusPosted),
		reportJob(campaign.ID, models.StrategyBlogComment, models.JobStatusFailed),
		reportJob(campaign.ID, models.StrategyGuestPost, models.JobStatusNeedsVerification),
	}

	md := buildSummary(campaign, jobs)

	assert.Contains(t, md, "# Campaign Report: Launch Push")
	assert.Contains(t, md, "**Status:** completed")
	assert.Contains(t, md, "release tooling, ci pipelines")
	assert.Contains(t, md, "| blog-comment | 2 | 1 | 1 | 0 |")
	assert.Contains(t, md, "| guest-post | 1 | 0 | 0 | 1 |")
	assert.Contains(t, md, "## Placed Links")
	assert.Contains(t, md, "## Needs Manual Verification")
}

func TestBuildSummaryNoJobs(t *testing.T) {
	md := buildSummary(completedCampaign(), nil)

	assert.Contains(t, md, "| (no jobs) | 0 | 0 | 0 | 0 |")
	assert.NotContains(t, md, "## Placed Links")
}

func TestRenderPDF(t *testing.T) {
	md := buildSummary(completedCampaign(), []*models.PostingJob{
		reportJob("camp-report-1", models.StrategyBlogComment, models.JobStatusPosted),
	})

	pdfBytes, err := renderPDF(md)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF")))
}

func TestGenerateCompletionReport(t *testing.T) {
	campaign := completedCampaign()
	store := &memJobStore{jobs: []*models.PostingJob{
		reportJob(campaign.ID, models.StrategyForumProfile, models.JobStatusPosted),
		reportJob("other-campaign", models.StrategyBlogComment, models.JobStatusPosted),
	}}

	dir := t.TempDir()
	gen := NewGenerator(dir, store, arbor.NewLogger())

	path, err := gen.GenerateCompletionReport(context.Background(), campaign)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, campaign.ID+".pdf"), path)
	assert.True(t, strings.HasSuffix(path, ".pdf"))
}
