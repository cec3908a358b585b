package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/vertextoedge/hub-mirror/internal/domain"
	"github.com/vertextoedge/hub-mirror/internal/domain/vo"
	"github.com/vertextoedge/hub-mirror/internal/port"
	"go.uber.org/zap"
)

// Config identifies the repository to mirror and where to put it
type Config struct {
	RepoID    string
	RepoType  string
	Revision  string
	OutputDir string
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.RepoID == "" {
		return fmt.Errorf("%w: repo id is required", domain.ErrInvalidInput)
	}
	if !domain.ValidRepoType(c.RepoType) {
		return fmt.Errorf("%w: unknown repo type %q", domain.ErrInvalidInput, c.RepoType)
	}
	return nil
}

// Fetcher downloads and verifies one file
type Fetcher interface {
	Fetch(ctx context.Context, remotePath vo.RemotePath, localPath string) *domain.FetchResult
}

// Orchestrator mirrors every file of a repository, one file at a time
type Orchestrator struct {
	cfg     Config
	lister  port.RepoLister
	fetcher Fetcher
	fs      port.FileSystem
	runs    port.RunRepository
	out     io.Writer
	logger  *zap.Logger
	newID   func() string
}

// New creates a new Orchestrator. Report lines are written to out.
func New(
	cfg Config,
	lister port.RepoLister,
	fetcher Fetcher,
	fs port.FileSystem,
	runs port.RunRepository,
	out io.Writer,
	logger *zap.Logger,
) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Revision == "" {
		cfg.Revision = "main"
	}
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		cfg:     cfg,
		lister:  lister,
		fetcher: fetcher,
		fs:      fs,
		runs:    runs,
		out:     out,
		logger:  logger,
		newID:   uuid.NewString,
	}, nil
}

// Run lists the repository once and fetches each file in listing order.
// A listing failure aborts the run. Per-file failures are reported and the
// run continues; only cancellation stops it early, and the files not
// started are counted as skipped.
func (o *Orchestrator) Run(ctx context.Context) (*domain.RunSummary, error) {
	summary := &domain.RunSummary{
		RunID:     o.newID(),
		RepoID:    o.cfg.RepoID,
		RepoType:  o.cfg.RepoType,
		Revision:  o.cfg.Revision,
		OutputDir: o.fs.RootDir(),
		StartedAt: time.Now(),
	}

	log := o.logger.With(
		zap.String("run_id", summary.RunID),
		zap.String("repo", o.cfg.RepoID),
		zap.String("repo_type", o.cfg.RepoType),
		zap.String("revision", o.cfg.Revision))

	files, err := o.lister.ListRepoFiles(ctx, port.RepoRef{
		RepoID:   o.cfg.RepoID,
		RepoType: o.cfg.RepoType,
		Revision: o.cfg.Revision,
	})
	if err != nil {
		log.Error("failed to list repository files", zap.Error(err))
		if !errors.Is(err, domain.ErrListingFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrListingFailed, err)
		}
		return summary, err
	}

	summary.Total = len(files)
	log.Info("repository listed", zap.Int("files", len(files)), zap.String("output_dir", summary.OutputDir))

	if err := o.runs.CreateRun(summary); err != nil {
		log.Warn("failed to record run", zap.Error(err))
	}

	var runErr error
	for i, remote := range files {
		if ctx.Err() != nil {
			runErr = ctx.Err()
			o.skipRemaining(log, summary, files[i:])
			break
		}

		o.mirrorFile(ctx, log, summary, remote)
	}
	if runErr == nil && ctx.Err() != nil {
		log.Warn("run cancelled during the last file")
		runErr = ctx.Err()
	}

	summary.Finish()
	if err := o.runs.FinishRun(summary); err != nil {
		log.Warn("failed to finish run record", zap.Error(err))
	}

	if runErr != nil {
		fmt.Fprintln(o.out, "Download interrupted.")
	} else {
		fmt.Fprintln(o.out, "Download complete.")
	}
	fmt.Fprintf(o.out, "%d files: %d verified, %d failed, %d skipped, %s transferred\n",
		summary.Total, summary.Verified, summary.Failed, summary.Skipped, vo.FormatSize(summary.BytesTransferred))

	log.Info("run finished",
		zap.Int("verified", summary.Verified),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.String("transferred", vo.FormatSize(summary.BytesTransferred)),
		zap.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)))

	return summary, runErr
}

// mirrorFile resolves, fetches and reports one file
func (o *Orchestrator) mirrorFile(ctx context.Context, log *zap.Logger, summary *domain.RunSummary, remote vo.RemotePath) {
	var result *domain.FetchResult

	localPath, err := o.fs.Resolve(remote)
	if err != nil {
		result = &domain.FetchResult{
			RemotePath: remote.String(),
			LocalPath:  o.fs.LocalPath(remote),
			Err:        fmt.Errorf("resolve local path: %w", err),
		}
	} else {
		result = o.fetcher.Fetch(ctx, remote, localPath)
	}

	if result.Verified {
		fmt.Fprintf(o.out, "File verified: %s\n", remote)
	} else {
		fmt.Fprintf(o.out, "Failed to download or verify: %s\n", remote)
		log.Warn("file failed", zap.String("path", remote.String()), zap.Error(result.Err))
	}

	rec := domain.NewFileRecord(summary.RunID, result)
	summary.Record(rec.Status, result.BytesTransferred)
	if err := o.runs.RecordFile(rec); err != nil {
		log.Warn("failed to record file outcome", zap.String("path", remote.String()), zap.Error(err))
	}
}

// skipRemaining records files that were never started
func (o *Orchestrator) skipRemaining(log *zap.Logger, summary *domain.RunSummary, remaining []vo.RemotePath) {
	log.Warn("run cancelled", zap.Int("remaining", len(remaining)))

	for _, remote := range remaining {
		summary.Record(domain.FileStatusSkipped, 0)
		rec := &domain.FileRecord{
			RunID:        summary.RunID,
			RemotePath:   remote.String(),
			LocalPath:    o.fs.LocalPath(remote),
			Status:       domain.FileStatusSkipped,
			ExpectedSize: -1,
			LastError:    context.Canceled.Error(),
		}
		if err := o.runs.RecordFile(rec); err != nil {
			log.Warn("failed to record skipped file", zap.String("path", remote.String()), zap.Error(err))
		}
	}
}
