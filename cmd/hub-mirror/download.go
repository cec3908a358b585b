package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/vertextoedge/hub-mirror/internal/adapter/filesystem"
	"github.com/vertextoedge/hub-mirror/internal/adapter/hub"
	"github.com/vertextoedge/hub-mirror/internal/adapter/sqlite"
	"github.com/vertextoedge/hub-mirror/internal/config"
	"github.com/vertextoedge/hub-mirror/internal/domain"
	"github.com/vertextoedge/hub-mirror/internal/logger"
	"github.com/vertextoedge/hub-mirror/internal/port"
	"github.com/vertextoedge/hub-mirror/internal/service/downloader"
	"github.com/vertextoedge/hub-mirror/internal/service/orchestrator"
	"go.uber.org/zap"
)

func runDownload(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to configuration file (default: ./hub-mirror.yaml if present)")
	repoID := fs.String("repo", "", "Repository id, e.g. OwlMaster/LivePortrait")
	repoType := fs.String("type", "", "Repository type: model, dataset or space")
	revision := fs.String("revision", "", "Branch, tag or commit")
	outputDir := fs.String("out", "", "Directory to mirror into")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: hub-mirror download [options] [repo-id]

Mirror every file of a hub repository into a local directory.
Partial files are resumed; each file is verified by size.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitInvalidArgs
	}

	if *repoID == "" && fs.NArg() > 0 {
		*repoID = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		fmt.Fprintf(stderr, "Error: unexpected arguments: %v\n", fs.Args()[1:])
		fs.Usage()
		return ExitInvalidArgs
	}

	cfg, err := config.Load(*configPath, config.Overrides{
		RepoID:    *repoID,
		RepoType:  *repoType,
		Revision:  *revision,
		OutputDir: *outputDir,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return ExitGeneralError
	}
	if err := cfg.RequireRepo(); err != nil {
		fmt.Fprintln(stderr, "Error: a repository is required (-repo or hub.repo_id)")
		fs.Usage()
		return ExitInvalidArgs
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return ExitGeneralError
	}
	defer logger.Sync()

	zapLogger := logger.GetZapLogger()
	zapLogger.Info("starting hub-mirror",
		zap.String("version", version),
		zap.String("endpoint", cfg.Hub.Endpoint),
		zap.String("repo", cfg.Hub.RepoID))

	ctx, cancel := signalContext(stderr)
	defer cancel()

	return download(ctx, cfg, stdout, zapLogger)
}

// download wires the services and maps the run outcome to an exit code
func download(ctx context.Context, cfg *config.Config, stdout io.Writer, zapLogger *zap.Logger) int {
	fsManager, err := filesystem.NewManager(cfg.Download.OutputDir)
	if err != nil {
		zapLogger.Error("failed to prepare output directory", zap.Error(err))
		return ExitGeneralError
	}

	var runs port.RunRepository = sqlite.NopRepository{}
	if cfg.History.Enabled {
		dbPath := cfg.History.GetPath(fsManager.RootDir())
		store, err := sqlite.Open(dbPath)
		if err != nil {
			zapLogger.Error("failed to open history database", zap.Error(err), zap.String("path", dbPath))
			return ExitGeneralError
		}
		defer store.Close()
		runs = store
	}

	client := hub.NewClientWithConfig(cfg.Hub.Endpoint, &hub.ClientConfig{
		Timeout:   cfg.Hub.GetTimeout(),
		UserAgent: "hub-mirror/" + version,
	})

	repo := port.RepoRef{
		RepoID:   cfg.Hub.RepoID,
		RepoType: cfg.Hub.RepoType,
		Revision: cfg.Hub.Revision,
	}

	dl := downloader.New(client, fsManager, repo, downloader.Config{
		MaxAttempts:      cfg.Download.MaxAttempts,
		RetryDelay:       cfg.Download.GetRetryDelay(),
		ChunkSize:        cfg.Download.GetChunkSize(),
		ProgressInterval: cfg.Download.GetProgressInterval(),
	}, zapLogger)

	orch, err := orchestrator.New(orchestrator.Config{
		RepoID:    repo.RepoID,
		RepoType:  repo.RepoType,
		Revision:  repo.Revision,
		OutputDir: fsManager.RootDir(),
	}, client, dl, fsManager, runs, stdout, zapLogger)
	if err != nil {
		zapLogger.Error("invalid run configuration", zap.Error(err))
		return ExitInvalidArgs
	}

	summary, err := orch.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, domain.ErrListingFailed):
		fmt.Fprintf(stdout, "Failed to list repository files: %v\n", err)
		return ExitListingFailed
	case err != nil:
		zapLogger.Error("run failed", zap.Error(err))
		return ExitGeneralError
	case summary.Failed > 0:
		return ExitFilesFailed
	default:
		return ExitSuccess
	}
}
