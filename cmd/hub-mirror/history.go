package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/vertextoedge/hub-mirror/internal/adapter/filesystem"
	"github.com/vertextoedge/hub-mirror/internal/adapter/sqlite"
	"github.com/vertextoedge/hub-mirror/internal/config"
	"github.com/vertextoedge/hub-mirror/internal/domain"
	"github.com/vertextoedge/hub-mirror/internal/domain/vo"
)

func runHistory(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to configuration file (default: ./hub-mirror.yaml if present)")
	outputDir := fs.String("out", "", "Mirror directory holding the history database")
	limit := fs.Int("limit", 20, "Number of runs to list")
	runID := fs.String("run", "", "Show per-file outcomes of one run")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: hub-mirror history [options]

List recent runs, or the per-file outcomes of one run.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitInvalidArgs
	}
	if *limit <= 0 {
		fmt.Fprintln(stderr, "Error: -limit must be positive")
		return ExitInvalidArgs
	}

	cfg, err := config.Load(*configPath, config.Overrides{OutputDir: *outputDir})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return ExitGeneralError
	}
	if !cfg.History.Enabled {
		fmt.Fprintln(stderr, "History is disabled (history.enabled: false)")
		return ExitGeneralError
	}

	fsManager, err := filesystem.NewManager(cfg.Download.OutputDir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	store, err := sqlite.Open(cfg.History.GetPath(fsManager.RootDir()))
	if err != nil {
		fmt.Fprintf(stderr, "Error opening history: %v\n", err)
		return ExitGeneralError
	}
	defer store.Close()

	if *runID != "" {
		return printRun(store, *runID, stdout, stderr)
	}
	return printRuns(store, *limit, stdout, stderr)
}

func printRuns(store *sqlite.Store, limit int, stdout, stderr io.Writer) int {
	runs, err := store.ListRuns(limit)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "No runs recorded.")
		return ExitSuccess
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tREPO\tSTARTED\tFILES\tVERIFIED\tFAILED\tSKIPPED\tTRANSFERRED")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s:%s@%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			run.RunID, run.RepoType, run.RepoID, run.Revision,
			run.StartedAt.Local().Format(time.DateTime),
			run.Total, run.Verified, run.Failed, run.Skipped,
			vo.FormatSize(run.BytesTransferred))
	}
	tw.Flush()
	return ExitSuccess
}

func printRun(store *sqlite.Store, runID string, stdout, stderr io.Writer) int {
	run, err := store.GetRun(runID)
	if errors.Is(err, domain.ErrNotFound) {
		fmt.Fprintf(stderr, "Run not found: %s\n", runID)
		return ExitInvalidArgs
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	records, err := store.ListFileRecords(runID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	finished := "unfinished"
	if run.FinishedAt != nil {
		finished = run.FinishedAt.Local().Format(time.DateTime)
	}
	fmt.Fprintf(stdout, "Run %s: %s %s@%s into %s\n", run.RunID, run.RepoType, run.RepoID, run.Revision, run.OutputDir)
	fmt.Fprintf(stdout, "Started %s, finished %s\n\n", run.StartedAt.Local().Format(time.DateTime), finished)

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tPATH\tSIZE\tEXPECTED\tTRANSFERRED\tATTEMPTS\tERROR")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			rec.Status, rec.RemotePath,
			vo.FormatSize(rec.FinalSize), vo.FormatSize(rec.ExpectedSize),
			vo.FormatSize(rec.BytesTransferred), rec.Attempts, rec.LastError)
	}
	tw.Flush()
	return ExitSuccess
}
