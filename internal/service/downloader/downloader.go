package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vertextoedge/hub-mirror/internal/domain"
	"github.com/vertextoedge/hub-mirror/internal/domain/vo"
	"github.com/vertextoedge/hub-mirror/internal/port"
	"go.uber.org/zap"
)

// Defaults
const (
	DefaultMaxAttempts      = 5
	DefaultRetryDelay       = 5 * time.Second
	DefaultChunkSize        = 8 * 1024
	DefaultProgressInterval = 2 * time.Second
)

// Config contains downloader settings
type Config struct {
	// MaxAttempts is the total number of attempts per file
	MaxAttempts int

	// RetryDelay is the fixed wait between attempts
	RetryDelay time.Duration

	// ChunkSize is the read buffer size in bytes
	ChunkSize int

	// ProgressInterval is the minimum time between progress log lines
	ProgressInterval time.Duration
}

// sleepFunc waits for d or until ctx is done
type sleepFunc func(ctx context.Context, d time.Duration) error

// Downloader fetches single files with resume and size verification
type Downloader struct {
	fetcher port.FileFetcher
	fs      port.FileSystem
	repo    port.RepoRef
	cfg     Config
	logger  *zap.Logger
	sleep   sleepFunc
}

// New creates a new Downloader for files of one repository
func New(fetcher port.FileFetcher, fs port.FileSystem, repo port.RepoRef, cfg Config, logger *zap.Logger) *Downloader {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ProgressInterval == 0 {
		cfg.ProgressInterval = DefaultProgressInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{
		fetcher: fetcher,
		fs:      fs,
		repo:    repo,
		cfg:     cfg,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// Fetch downloads remotePath into localPath, resuming from the current
// local length, and retries until the local length matches the remote size
// or the attempt budget is used up. It never returns an error; the outcome
// is in the result.
func (d *Downloader) Fetch(ctx context.Context, remotePath vo.RemotePath, localPath string) *domain.FetchResult {
	task := domain.NewDownloadTask(remotePath.String(), localPath, d.cfg.MaxAttempts)
	result := &domain.FetchResult{
		RemotePath: remotePath.String(),
		LocalPath:  localPath,
	}

	log := d.logger.With(zap.String("path", remotePath.String()))

	var lastErr error
	for {
		if err := task.BeginAttempt(); err != nil {
			lastErr = errors.Join(err, lastErr)
			break
		}

		err := d.attempt(ctx, log, task, remotePath, result)
		if err == nil {
			lastErr = nil
			break
		}

		if ctx.Err() != nil {
			err = domain.NewPermanentError(err, "cancelled")
		}
		lastErr = err

		retry := task.MarkFailed(err)
		log.Warn("attempt failed",
			zap.Int("attempt", task.Attempt),
			zap.Int("max_attempts", task.MaxAttempts),
			zap.Bool("retry", retry),
			zap.Error(err))
		if !retry {
			break
		}

		log.Info("retrying",
			zap.Duration("delay", d.cfg.RetryDelay),
			zap.Int("next_attempt", task.Attempt+1))
		if err := d.sleep(ctx, d.cfg.RetryDelay); err != nil {
			lastErr = domain.NewPermanentError(errors.Join(err, lastErr), "cancelled")
			task.MarkFailed(lastErr)
			break
		}
	}

	result.Attempts = task.Attempt
	result.ExpectedSize = task.ExpectedSize
	result.SizeKnown = task.SizeKnown
	if size, exists, err := d.fs.Stat(localPath); err == nil && exists {
		result.FinalSize = size
	}

	if task.State == domain.TaskStateSucceeded {
		result.Verified = true
		return result
	}

	switch {
	case lastErr == nil:
		result.Err = fmt.Errorf("%w: task ended in state %s", domain.ErrTransfer, task.State)
	case domain.IsPermanent(lastErr), errors.Is(lastErr, domain.ErrRetriesExhausted):
		result.Err = lastErr
	default:
		result.Err = fmt.Errorf("%w after %d attempts: %w", domain.ErrRetriesExhausted, task.Attempt, lastErr)
	}
	log.Error("download failed",
		zap.Int("attempts", task.Attempt),
		zap.String("local_size", vo.FormatSize(result.FinalSize)),
		zap.Error(result.Err))

	return result
}

// attempt runs one decide, transfer and verify cycle.
// It returns nil once the task reached Succeeded.
func (d *Downloader) attempt(ctx context.Context, log *zap.Logger, task *domain.DownloadTask, remotePath vo.RemotePath, result *domain.FetchResult) error {
	stat, err := d.fetcher.Stat(ctx, d.repo, remotePath)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrMetadataQuery, err)
	}
	task.SetRemoteSize(stat.Size)

	localSize, exists, err := d.fs.Stat(task.LocalPath)
	if err != nil {
		return fmt.Errorf("stat local file: %w", err)
	}
	task.SetLocal(localSize, exists)

	log.Debug("sizes",
		zap.Int("attempt", task.Attempt),
		zap.String("remote", vo.FormatSize(stat.Size)),
		zap.String("local", vo.FormatSize(localSize)),
		zap.Bool("local_exists", exists),
		zap.String("etag", stat.ETag),
		zap.Bool("accept_ranges", stat.AcceptRanges))

	switch task.Decide() {
	case domain.DecisionComplete:
		log.Info("already complete", zap.String("size", vo.FormatSize(localSize)))
		if err := task.TransitionTo(domain.TaskStateSucceeded); err != nil {
			return err
		}
		result.AlreadyComplete = result.BytesTransferred == 0
		result.FinalSize = localSize
		return nil

	case domain.DecisionRestart:
		log.Info("local file larger than remote, starting over",
			zap.String("local", vo.FormatSize(localSize)),
			zap.String("remote", vo.FormatSize(task.ExpectedSize)))
		if err := d.fs.Remove(task.LocalPath); err != nil {
			return fmt.Errorf("remove stale file: %w", err)
		}
		task.SetLocal(0, false)
	}

	if !task.SizeKnown && task.LocalSize > 0 {
		log.Info("remote size unknown, starting over", zap.String("local", vo.FormatSize(task.LocalSize)))
		task.SetLocal(0, task.LocalExists)
	}

	if err := task.TransitionTo(domain.TaskStateResuming); err != nil {
		return err
	}

	offset := task.ResumeOffset()
	if offset > 0 {
		log.Info("resuming download", zap.Int64("from_byte", offset))
		if !stat.AcceptRanges {
			log.Warn("server does not advertise range support, resume may restart from zero")
		}
		if !result.Resumed {
			result.Resumed = true
			result.ResumedFrom = offset
		}
	}

	written, err := d.transfer(ctx, log, task, remotePath, offset)
	result.BytesTransferred += written
	if err != nil {
		return err
	}

	if err := task.TransitionTo(domain.TaskStateVerifying); err != nil {
		return err
	}

	actual, exists, err := d.fs.Stat(task.LocalPath)
	if err != nil {
		return fmt.Errorf("stat local file: %w", err)
	}
	result.FinalSize = actual
	if !exists {
		return domain.NewSizeMismatchError(task.ExpectedSize, 0)
	}
	if task.SizeKnown && actual != task.ExpectedSize {
		return domain.NewSizeMismatchError(task.ExpectedSize, actual)
	}

	log.Info("file verified", zap.String("size", vo.FormatSize(actual)))
	return task.TransitionTo(domain.TaskStateSucceeded)
}

// transfer streams the remote body to the local file starting at offset.
// Returns the number of bytes written to disk.
func (d *Downloader) transfer(ctx context.Context, log *zap.Logger, task *domain.DownloadTask, remotePath vo.RemotePath, offset int64) (int64, error) {
	stream, err := d.fetcher.Open(ctx, d.repo, remotePath, offset)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrTransfer, err)
	}
	defer stream.Body.Close()

	writeOffset := offset
	if stream.Offset != offset {
		log.Warn("server ignored range request, rewriting from start",
			zap.Int64("requested", offset),
			zap.Int64("received", stream.Offset),
			zap.Bool("partial", stream.Partial))
		writeOffset = stream.Offset
	}

	if stream.TotalSize >= 0 {
		switch {
		case !task.SizeKnown:
			task.SetRemoteSize(stream.TotalSize)
		case stream.TotalSize != task.ExpectedSize:
			log.Warn("content size differs from metadata",
				zap.Int64("metadata", task.ExpectedSize),
				zap.Int64("content", stream.TotalSize))
		}
	}

	w, err := d.fs.OpenAppend(task.LocalPath, writeOffset)
	if err != nil {
		return 0, fmt.Errorf("open local file: %w", err)
	}

	progress := newProgressWriter(w, log, d.cfg.ProgressInterval, writeOffset, task.ExpectedSize, task.SizeKnown)
	written, copyErr := copyChunks(progress, stream.Body, d.cfg.ChunkSize)
	closeErr := w.Close()
	progress.finish()

	if copyErr != nil {
		return written, fmt.Errorf("%w: %w", domain.ErrTransfer, copyErr)
	}
	if closeErr != nil {
		return written, fmt.Errorf("%w: close local file: %w", domain.ErrTransfer, closeErr)
	}
	return written, nil
}

// copyChunks copies src to dst through a buffer of chunkSize bytes.
// Bytes already written stay written when src fails.
func copyChunks(dst io.Writer, src io.Reader, chunkSize int) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			wn, writeErr := dst.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				return written, fmt.Errorf("write: %w", writeErr)
			}
			if wn != n {
				return written, io.ErrShortWrite
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, fmt.Errorf("read: %w", readErr)
		}
	}
}

// sleepContext waits for d, returning early with ctx.Err() on cancellation
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
