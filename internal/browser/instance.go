package browser

import (
	"sync"
	"time"

	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

// Instance is one pooled automation context bound to a campaign. All status
// mutations go through the setters so the mutex and activity timestamp stay
// consistent.
type Instance struct {
	campaignID   string
	campaignName string

	driver  interfaces.PageDriver
	cleanup func()

	mu            sync.Mutex
	status        models.InstanceStatus
	lastActivity  time.Time
	processedJobs int
	errors        []string
}

func newInstance(campaignID, campaignName string, driver interfaces.PageDriver, cleanup func()) *Instance {
	return &Instance{
		campaignID:   campaignID,
		campaignName: campaignName,
		driver:       driver,
		cleanup:      cleanup,
		status:       models.InstanceStatusInitializing,
		lastActivity: time.Now(),
	}
}

// CampaignID returns the bound campaign id.
func (i *Instance) CampaignID() string { return i.campaignID }

// Status returns the current lifecycle status.
func (i *Instance) Status() models.InstanceStatus {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.status
}

func (i *Instance) setStatus(status models.InstanceStatus) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.status = status
	i.lastActivity = time.Now()
}

// compareAndSetStatus transitions only if the instance is currently in from.
func (i *Instance) compareAndSetStatus(from, to models.InstanceStatus) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.status != from {
		return false
	}
	i.status = to
	i.lastActivity = time.Now()
	return true
}

func (i *Instance) recordError(message string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.errors = append(i.errors, message)
	i.lastActivity = time.Now()
}

func (i *Instance) jobDone() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.processedJobs++
	i.lastActivity = time.Now()
}

func (i *Instance) errorCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.errors)
}

func (i *Instance) idleSince() time.Time {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastActivity
}

// Info returns a point-in-time snapshot.
func (i *Instance) Info() models.InstanceInfo {
	i.mu.Lock()
	defer i.mu.Unlock()
	errorsCopy := make([]string, len(i.errors))
	copy(errorsCopy, i.errors)
	return models.InstanceInfo{
		CampaignID:    i.campaignID,
		CampaignName:  i.campaignName,
		Status:        i.status,
		LastActivity:  i.lastActivity,
		ProcessedJobs: i.processedJobs,
		ErrorCount:    len(i.errors),
		Errors:        errorsCopy,
	}
}

func (i *Instance) close() {
	if i.cleanup != nil {
		i.cleanup()
	}
}
