package interfaces

import (
	"context"
	"errors"

	"github.com/linkforge/linkforge/internal/models"
)

// ErrNotFound is returned by storage lookups when no record exists.
var ErrNotFound = errors.New("record not found")

// CampaignStorage persists queued campaigns. The store is the single source
// of truth for campaign status after any mutation.
type CampaignStorage interface {
	SaveCampaign(ctx context.Context, campaign *models.QueuedCampaign) error
	GetCampaign(ctx context.Context, id string) (*models.QueuedCampaign, error)
	DeleteCampaign(ctx context.Context, id string) error
	ListCampaigns(ctx context.Context) ([]*models.QueuedCampaign, error)
	ListCampaignsByStatus(ctx context.Context, status models.CampaignStatus) ([]*models.QueuedCampaign, error)

	// Ping verifies store connectivity. Used by node health checks.
	Ping(ctx context.Context) error
}

// JobStorage persists posting jobs.
type JobStorage interface {
	SaveJob(ctx context.Context, job *models.PostingJob) error
	GetJob(ctx context.Context, id string) (*models.PostingJob, error)
	// ListJobsByCampaign returns up to limit jobs for a campaign in the given
	// status, oldest first. limit <= 0 means no limit.
	ListJobsByCampaign(ctx context.Context, campaignID string, status models.JobStatus, limit int) ([]*models.PostingJob, error)
	UpdateJobStatus(ctx context.Context, id string, status models.JobStatus, errorMessage string) error
	DeleteJobsByCampaign(ctx context.Context, campaignID string) (int, error)
	CountJobsByCampaign(ctx context.Context, campaignID string, status models.JobStatus) (int, error)
}

// AccountStorage persists platform accounts and their session blobs.
type AccountStorage interface {
	SaveAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	// FindAccount returns the most recently used account for a platform,
	// or ErrNotFound.
	FindAccount(ctx context.Context, platform models.Platform) (*models.Account, error)
	ListUnverifiedAccounts(ctx context.Context) ([]*models.Account, error)
}

// AuditStorage appends best-effort audit entries.
type AuditStorage interface {
	AppendAudit(ctx context.Context, entry *models.AuditEntry) error
	ListAudit(ctx context.Context, campaignID string, limit int) ([]*models.AuditEntry, error)
}

// StorageManager bundles the storage implementations behind one handle.
type StorageManager interface {
	CampaignStorage() CampaignStorage
	JobStorage() JobStorage
	AccountStorage() AccountStorage
	AuditStorage() AuditStorage
	Close() error
}
