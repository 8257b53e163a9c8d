package interfaces

import (
	"context"

	"github.com/linkforge/linkforge/internal/models"
)

// JobExecutor runs one posting job against a live page. Implemented by the
// comment engine; the pool stays ignorant of platform mechanics.
type JobExecutor interface {
	// ExecuteJob performs the job with the given driver and returns the
	// terminal status (posted, failed or needs_verification) plus a
	// human-readable detail message for failures.
	ExecuteJob(ctx context.Context, driver PageDriver, job *models.PostingJob) (models.JobStatus, string)
}
