package models

// CleanupOperations records which cleanup steps ran during a deletion.
type CleanupOperations struct {
	QueueRemoval    bool `json:"queue_removal"`
	NodeCleanup     bool `json:"node_cleanup"`
	ResourceRelease bool `json:"resource_release"`
}

// DeletionResult is the structured outcome of a campaign deletion.
// Mutating scheduler operations never panic past the API boundary;
// degraded-but-successful outcomes carry warnings.
type DeletionResult struct {
	Success           bool              `json:"success"`
	DeletedFromQueue  bool              `json:"deleted_from_queue"`
	StoppedProcessing bool              `json:"stopped_processing"`
	CleanupOperations CleanupOperations `json:"cleanup_operations"`
	Message           string            `json:"message"`
	Warnings          []string          `json:"warnings,omitempty"`
}
