// Package cli wires configuration, adapters, and the orchestrator into the
// critique command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/critique-dev/critique/internal/adapter/httpkit"
	"github.com/critique-dev/critique/internal/config"
)

// ErrVersionRequested indicates the user requested the CLI version and no
// further work should be done.
var ErrVersionRequested = errors.New("version requested")

// ErrRunSuppressed indicates the run gate decided against running. The
// process maps it to a neutral exit code so CI treats it as a skip, not a
// failure.
var ErrRunSuppressed = errors.New("run suppressed")

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Args    Arguments
	Version string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "critique",
		Short: "Automated pull request review pipeline",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(runCommand())
	root.AddCommand(gateCheckCommand())

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func loadConfig(configFile string) (config.Config, error) {
	return config.Load(config.LoaderOptions{ConfigFile: configFile})
}

// buildLogger picks the log format: explicit config wins, otherwise human
// output on a terminal and JSON everywhere else (CI).
func buildLogger(cfg config.LogConfig) httpkit.Logger {
	level := httpkit.LogLevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = httpkit.LogLevelDebug
	case "error":
		level = httpkit.LogLevelError
	}

	format := httpkit.LogFormatJSON
	switch strings.ToLower(cfg.Format) {
	case "human":
		format = httpkit.LogFormatHuman
	case "json":
		format = httpkit.LogFormatJSON
	default:
		if term.IsTerminal(int(os.Stdout.Fd())) {
			format = httpkit.LogFormatHuman
		}
	}

	return httpkit.NewDefaultLogger(level, format)
}

// splitRepo parses "owner/name".
func splitRepo(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("repository must be owner/name, got %q", repo)
	}
	return owner, name, nil
}
