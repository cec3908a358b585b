package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vertextoedge/hub-mirror/internal/domain"
)

// CreateRun inserts a new run
func (s *Store) CreateRun(run *domain.RunSummary) error {
	if run.RunID == "" {
		return fmt.Errorf("%w: run id is required", domain.ErrInvalidInput)
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	query := `
		INSERT INTO runs (
			run_id, repo_id, repo_type, revision, output_dir, total, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		run.RunID, run.RepoID, run.RepoType, run.Revision, run.OutputDir, run.Total, run.StartedAt.UTC())
	return err
}

// RecordFile stores the outcome of one file of a run
func (s *Store) RecordFile(rec *domain.FileRecord) error {
	query := `
		INSERT INTO file_records (
			run_id, remote_path, local_path, status, expected_size,
			final_size, bytes_transferred, attempts, last_error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var lastError sql.NullString
	if rec.LastError != "" {
		lastError = sql.NullString{String: rec.LastError, Valid: true}
	}

	result, err := s.db.Exec(query,
		rec.RunID, rec.RemotePath, rec.LocalPath, string(rec.Status), rec.ExpectedSize,
		rec.FinalSize, rec.BytesTransferred, rec.Attempts, lastError)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	return nil
}

// FinishRun stores final counters and the finish time
func (s *Store) FinishRun(run *domain.RunSummary) error {
	if run.FinishedAt == nil {
		run.Finish()
	}

	query := `
		UPDATE runs
		SET total = ?, verified = ?, failed = ?, skipped = ?,
			bytes_transferred = ?, finished_at = ?
		WHERE run_id = ?
	`

	result, err := s.db.Exec(query,
		run.Total, run.Verified, run.Failed, run.Skipped,
		run.BytesTransferred, run.FinishedAt.UTC(), run.RunID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListRuns returns the most recent runs, newest first
func (s *Store) ListRuns(limit int) ([]*domain.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT run_id, repo_id, repo_type, revision, output_dir, total,
			   verified, failed, skipped, bytes_transferred, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetRun retrieves a run by ID
func (s *Store) GetRun(runID string) (*domain.RunSummary, error) {
	query := `
		SELECT run_id, repo_id, repo_type, revision, output_dir, total,
			   verified, failed, skipped, bytes_transferred, started_at, finished_at
		FROM runs
		WHERE run_id = ?
	`

	run, err := scanRun(s.db.QueryRow(query, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return run, err
}

// ListFileRecords returns the file outcomes of a run in insertion order
func (s *Store) ListFileRecords(runID string) ([]*domain.FileRecord, error) {
	query := `
		SELECT id, run_id, remote_path, local_path, status, expected_size,
			   final_size, bytes_transferred, attempts, last_error, created_at
		FROM file_records
		WHERE run_id = ?
		ORDER BY id ASC
	`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.FileRecord
	for rows.Next() {
		rec := &domain.FileRecord{}
		var status string
		var lastError sql.NullString
		var createdAt sql.NullTime

		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.RemotePath, &rec.LocalPath, &status,
			&rec.ExpectedSize, &rec.FinalSize, &rec.BytesTransferred,
			&rec.Attempts, &lastError, &createdAt,
		); err != nil {
			return nil, err
		}

		rec.Status = domain.FileStatus(status)
		if lastError.Valid {
			rec.LastError = lastError.String
		}
		if createdAt.Valid {
			rec.CreatedAt = createdAt.Time
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.RunSummary, error) {
	run := &domain.RunSummary{}
	var finishedAt sql.NullTime

	err := row.Scan(
		&run.RunID, &run.RepoID, &run.RepoType, &run.Revision, &run.OutputDir,
		&run.Total, &run.Verified, &run.Failed, &run.Skipped,
		&run.BytesTransferred, &run.StartedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return run, nil
}
