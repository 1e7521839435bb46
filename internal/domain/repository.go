package domain

// SubmissionRepository defines the interface for submission history persistence
type SubmissionRepository interface {
	// Create creates a new record
	Create(record *SubmissionRecord) error

	// Update updates an existing record
	Update(record *SubmissionRecord) error

	// FindByID finds a record by ID
	FindByID(id string) (*SubmissionRecord, error)

	// FindByInfoHash returns the newest record for hash in one of the given
	// statuses, or nil when none exists
	FindByInfoHash(hash string, statuses []SubmissionStatus) (*SubmissionRecord, error)

	// FindAll finds records with optional column filters, newest first.
	// A non-positive limit returns every match.
	FindAll(filters map[string]interface{}, limit int) ([]*SubmissionRecord, error)

	// GetStats returns submission statistics
	GetStats() (*SubmissionStats, error)
}

// SubmissionStats represents submission statistics
type SubmissionStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}
