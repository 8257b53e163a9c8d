package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

// JobStorage implements interfaces.JobStorage on Badger.
type JobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewJobStorage creates a new JobStorage instance
func NewJobStorage(db *BadgerDB, logger arbor.ILogger) interfaces.JobStorage {
	return &JobStorage{db: db, logger: logger}
}

func (s *JobStorage) SaveJob(ctx context.Context, job *models.PostingJob) error {
	if job.ID == "" {
		return fmt.Errorf("job ID is required")
	}
	if err := s.db.Store().Upsert(job.ID, *job); err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

func (s *JobStorage) GetJob(ctx context.Context, id string) (*models.PostingJob, error) {
	var job models.PostingJob
	if err := s.db.Store().Get(id, &job); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return &job, nil
}

func (s *JobStorage) ListJobsByCampaign(ctx context.Context, campaignID string, status models.JobStatus, limit int) ([]*models.PostingJob, error) {
	query := badgerhold.Where("CampaignID").Eq(campaignID).Index("CampaignID")
	if status != "" {
		query = query.And("Status").Eq(status)
	}
	query = query.SortBy("CreatedAt")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var jobs []models.PostingJob
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to list jobs for campaign %s: %w", campaignID, err)
	}

	result := make([]*models.PostingJob, len(jobs))
	for i := range jobs {
		result[i] = &jobs[i]
	}
	return result, nil
}

// UpdateJobStatus applies a forward status transition. Illegal transitions
// (regressions) are rejected so terminal statuses stick.
func (s *JobStorage) UpdateJobStatus(ctx context.Context, id string, status models.JobStatus, errorMessage string) error {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return err
	}

	if job.Status == status {
		return nil
	}
	if !job.Status.CanTransition(status) {
		return fmt.Errorf("illegal job status transition %s -> %s for %s", job.Status, status, id)
	}

	job.Status = status
	job.ErrorMessage = errorMessage
	if status == models.JobStatusPosted {
		now := time.Now()
		job.PostedAt = &now
	}

	if err := s.SaveJob(ctx, job); err != nil {
		return err
	}

	s.logger.Trace().
		Str("job_id", id).
		Str("status", string(status)).
		Msg("Job status updated")
	return nil
}

func (s *JobStorage) DeleteJobsByCampaign(ctx context.Context, campaignID string) (int, error) {
	jobs, err := s.ListJobsByCampaign(ctx, campaignID, "", 0)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, job := range jobs {
		if err := s.db.Store().Delete(job.ID, models.PostingJob{}); err != nil {
			return deleted, fmt.Errorf("failed to delete job %s: %w", job.ID, err)
		}
		deleted++
	}
	return deleted, nil
}

func (s *JobStorage) CountJobsByCampaign(ctx context.Context, campaignID string, status models.JobStatus) (int, error) {
	jobs, err := s.ListJobsByCampaign(ctx, campaignID, status, 0)
	if err != nil {
		return 0, err
	}
	return len(jobs), nil
}
