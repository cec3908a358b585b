package port

import (
	"github.com/vertextoedge/hub-mirror/internal/domain"
)

// RunRepository stores the history of mirror runs.
// It is an audit log only; resume decisions never read from it.
type RunRepository interface {
	// CreateRun inserts a new run
	CreateRun(run *domain.RunSummary) error

	// RecordFile stores the outcome of one file of a run
	RecordFile(rec *domain.FileRecord) error

	// FinishRun stores final counters and the finish time
	FinishRun(run *domain.RunSummary) error

	// ListRuns returns the most recent runs, newest first
	ListRuns(limit int) ([]*domain.RunSummary, error)

	// GetRun retrieves a run by ID
	// Returns domain.ErrNotFound if no run exists
	GetRun(runID string) (*domain.RunSummary, error)

	// ListFileRecords returns the file outcomes of a run in insertion order
	ListFileRecords(runID string) ([]*domain.FileRecord, error)
}
