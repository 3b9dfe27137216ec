package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/critique-dev/critique/internal/adapter/cli"
	"github.com/critique-dev/critique/internal/version"
)

// suppressedExitCode is the conventional "neutral" exit status. CI systems
// treat it as a skip rather than a failure.
const suppressedExitCode = 78

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := cli.NewRootCommand(cli.Dependencies{
		Args: cli.Arguments{
			OutWriter: os.Stdout,
			ErrWriter: os.Stderr,
		},
		Version: version.String(),
	})

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, cli.ErrVersionRequested):
		return 0
	case errors.Is(err, cli.ErrRunSuppressed):
		return suppressedExitCode
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
}
