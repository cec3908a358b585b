package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitInvalidArgs   = 2
	ExitListingFailed = 3
	ExitFilesFailed   = 4
	ExitInterrupted   = 5
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// download is the default command
	if len(args) == 0 || strings.HasPrefix(args[0], "-") && !isHelp(args[0]) {
		return runDownload(args, stdout, stderr)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "download":
		return runDownload(cmdArgs, stdout, stderr)
	case "history":
		return runHistory(cmdArgs, stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "hub-mirror %s\n", version)
		return ExitSuccess
	case "help", "-h", "--help":
		printUsage(stderr)
		return ExitSuccess
	default:
		if strings.Contains(command, "/") {
			// "owner/name" is a repo id; flags may follow it
			downloadArgs := append(append([]string{}, cmdArgs...), command)
			return runDownload(downloadArgs, stdout, stderr)
		}
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return ExitInvalidArgs
	}
}

func isHelp(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "-help"
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage: hub-mirror [command] [options]
       hub-mirror <owner/name> [download options]

Commands:
  download  Mirror every file of a hub repository into a directory (default)
  history   Show recorded runs and their per-file outcomes
  version   Print the version

A repo id without an owner (e.g. gpt2) needs the explicit download command.
Run 'hub-mirror <command> -h' for command-specific help.`)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext(stderr io.Writer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(stderr, "\n[hub-mirror] Received interrupt, stopping after the current attempt...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
