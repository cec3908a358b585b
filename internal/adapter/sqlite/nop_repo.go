package sqlite

import (
	"github.com/vertextoedge/hub-mirror/internal/domain"
	"github.com/vertextoedge/hub-mirror/internal/port"
)

// NopRepository discards run history. Used when history is disabled.
type NopRepository struct{}

var _ port.RunRepository = NopRepository{}

func (NopRepository) CreateRun(*domain.RunSummary) error { return nil }

func (NopRepository) RecordFile(*domain.FileRecord) error { return nil }

func (NopRepository) FinishRun(*domain.RunSummary) error { return nil }

func (NopRepository) ListRuns(int) ([]*domain.RunSummary, error) { return nil, nil }

func (NopRepository) GetRun(string) (*domain.RunSummary, error) { return nil, domain.ErrNotFound }

func (NopRepository) ListFileRecords(string) ([]*domain.FileRecord, error) { return nil, nil }
