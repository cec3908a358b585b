package downloader

import (
	"io"
	"time"

	"github.com/vertextoedge/hub-mirror/internal/domain/vo"
	"github.com/vertextoedge/hub-mirror/internal/util/ratelimiter"
	"go.uber.org/zap"
)

// progressWriter wraps a writer to log transfer progress
type progressWriter struct {
	w         io.Writer
	logger    *zap.Logger
	limiter   *ratelimiter.Limiter
	startedAt time.Time

	initialBytes int64
	written      int64
	total        int64
	totalKnown   bool
}

func newProgressWriter(w io.Writer, logger *zap.Logger, interval time.Duration, initialBytes, total int64, totalKnown bool) *progressWriter {
	limiter := ratelimiter.New(interval)
	limiter.Arm()
	return &progressWriter{
		w:            w,
		logger:       logger,
		limiter:      limiter,
		startedAt:    time.Now(),
		initialBytes: initialBytes,
		total:        total,
		totalKnown:   totalKnown,
	}
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)

	if allowed, _ := p.limiter.Allow(); allowed {
		p.report("download progress")
	}

	return n, err
}

// finish logs the bytes written by this transfer
func (p *progressWriter) finish() {
	p.report("transfer ended")
}

func (p *progressWriter) report(msg string) {
	onDisk, _ := vo.NewFileSize(p.initialBytes + p.written)
	fields := []zap.Field{
		zap.String("downloaded", onDisk.String()),
		zap.String("this_transfer", vo.FormatSize(p.written)),
	}
	if p.totalKnown {
		total, _ := vo.NewFileSize(p.total)
		fields = append(fields, zap.String("total", total.String()))
		if !total.IsZero() {
			fields = append(fields, zap.Float64("percent", onDisk.PercentOf(total)))
		}
	}
	fields = append(fields, zap.String("rate", vo.FormatRate(p.written, time.Since(p.startedAt))))
	p.logger.Info(msg, fields...)
}
