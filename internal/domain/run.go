package domain

import "time"

// FileStatus is the per-file outcome recorded in the run ledger
type FileStatus string

// File statuses
const (
	FileStatusVerified FileStatus = "verified"
	FileStatusFailed   FileStatus = "failed"
	FileStatusSkipped  FileStatus = "skipped"
)

// Repository types accepted by the hub
const (
	RepoTypeModel   = "model"
	RepoTypeDataset = "dataset"
	RepoTypeSpace   = "space"
)

// ValidRepoType reports whether repoType is a known repository type tag
func ValidRepoType(repoType string) bool {
	switch repoType {
	case RepoTypeModel, RepoTypeDataset, RepoTypeSpace:
		return true
	default:
		return false
	}
}

// RunSummary describes one mirror run
type RunSummary struct {
	RunID     string
	RepoID    string
	RepoType  string
	Revision  string
	OutputDir string

	Total    int
	Verified int
	Failed   int
	Skipped  int

	BytesTransferred int64

	StartedAt  time.Time
	FinishedAt *time.Time
}

// Record adds a file outcome to the counters
func (s *RunSummary) Record(status FileStatus, bytesTransferred int64) {
	switch status {
	case FileStatusVerified:
		s.Verified++
	case FileStatusFailed:
		s.Failed++
	case FileStatusSkipped:
		s.Skipped++
	}
	s.BytesTransferred += bytesTransferred
}

// Finish stamps the finish time
func (s *RunSummary) Finish() {
	now := time.Now()
	s.FinishedAt = &now
}

// Succeeded returns true when every listed file was verified
func (s *RunSummary) Succeeded() bool {
	return s.Failed == 0 && s.Skipped == 0 && s.Verified == s.Total
}

// FileRecord is the ledger entry for one file of a run
type FileRecord struct {
	ID               int64
	RunID            string
	RemotePath       string
	LocalPath        string
	Status           FileStatus
	ExpectedSize     int64 // -1 when the remote size was never known
	FinalSize        int64
	BytesTransferred int64
	Attempts         int
	LastError        string
	CreatedAt        time.Time
}

// NewFileRecord builds a ledger entry from a fetch result
func NewFileRecord(runID string, r *FetchResult) *FileRecord {
	rec := &FileRecord{
		RunID:            runID,
		RemotePath:       r.RemotePath,
		LocalPath:        r.LocalPath,
		Status:           r.Status(),
		ExpectedSize:     r.ExpectedSize,
		FinalSize:        r.FinalSize,
		BytesTransferred: r.BytesTransferred,
		Attempts:         r.Attempts,
	}
	if !r.SizeKnown {
		rec.ExpectedSize = -1
	}
	if r.Err != nil {
		rec.LastError = r.Err.Error()
	}
	return rec
}
