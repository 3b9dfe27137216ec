package cli_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/critique-dev/critique/internal/adapter/cli"
)

func TestVersionFlagEmitsVersion(t *testing.T) {
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Args:    cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version: "v9.9.9",
	})

	root.SetArgs([]string{"--version"})
	err := root.Execute()
	if !errors.Is(err, cli.ErrVersionRequested) {
		t.Fatalf("expected version sentinel, got %v", err)
	}
	if strings.TrimSpace(buf.String()) != "v9.9.9" {
		t.Fatalf("unexpected version output: %q", buf.String())
	}
}

func writeGateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "critique.yaml")
	content := "store:\n  path: " + filepath.Join(dir, "critique.db") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGateCheckCommandAllowsSupportedTrigger(t *testing.T) {
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Args: cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{
		"gate-check",
		"--config", writeGateConfig(t),
		"--repo", "acme/widgets",
		"--pr", "7",
		"--trigger", "commit",
		"--event", "pull_request",
		"--revision", "abc123",
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("expected the gate to allow the run, got %v", err)
	}
	if strings.TrimSpace(buf.String()) == "" {
		t.Fatal("expected the gate reason on stdout")
	}
}

func TestGateCheckCommandSuppressesUnsupportedEvent(t *testing.T) {
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Args: cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{
		"gate-check",
		"--config", writeGateConfig(t),
		"--repo", "acme/widgets",
		"--pr", "7",
		"--trigger", "commit",
		"--event", "deployment_status",
		"--revision", "abc123",
	})
	err := root.Execute()
	if !errors.Is(err, cli.ErrRunSuppressed) {
		t.Fatalf("expected suppression sentinel, got %v", err)
	}
	if strings.TrimSpace(buf.String()) == "" {
		t.Fatal("expected the suppression reason on stdout")
	}
}

func TestGateCheckCommandSuppressesDrafts(t *testing.T) {
	root := cli.NewRootCommand(cli.Dependencies{
		Args: cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{
		"gate-check",
		"--config", writeGateConfig(t),
		"--repo", "acme/widgets",
		"--pr", "7",
		"--trigger", "open",
		"--event", "pull_request",
		"--draft",
		"--revision", "abc123",
	})
	if err := root.Execute(); !errors.Is(err, cli.ErrRunSuppressed) {
		t.Fatalf("expected draft suppression, got %v", err)
	}
}

func TestRunCommandRejectsMissingRepo(t *testing.T) {
	root := cli.NewRootCommand(cli.Dependencies{
		Args: cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{"run", "--config", writeGateConfig(t)})
	if err := root.Execute(); err == nil {
		t.Fatal("expected an error without --repo and --pr")
	}
}
