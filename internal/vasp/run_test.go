package vasp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"atomflow/internal/logging"
	"atomflow/internal/services"
)

func fakeBinary(t *testing.T, name, script string) {
	t.Helper()
	binDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(binDir, name), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestRunnerStreamsProgress(t *testing.T) {
	fakeBinary(t, "fake_vasp", "#!/bin/sh\necho 'DAV:   1    -0.1387E+02'\necho 'DAV:   2    -0.1392E+02'\n")

	runner := &Runner{command: "fake_vasp", logger: logging.NewNop()}
	var lines []string
	err := runner.Run(context.Background(), t.TempDir(), RunOptions{
		Progress: func(line string) { lines = append(lines, line) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d progress lines %v, want 2", len(lines), lines)
	}
}

func TestRunnerFailureWrapsExternalTool(t *testing.T) {
	fakeBinary(t, "fake_vasp", "#!/bin/sh\necho 'something broke'\nexit 3\n")

	runner := &Runner{command: "fake_vasp", logger: logging.NewNop()}
	err := runner.Run(context.Background(), t.TempDir(), RunOptions{})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want ErrExternalTool", err)
	}
}

func TestRunnerTimeout(t *testing.T) {
	fakeBinary(t, "fake_vasp", "#!/bin/sh\nsleep 5\n")

	runner := &Runner{command: "fake_vasp", timeout: 50 * time.Millisecond, logger: logging.NewNop()}
	err := runner.Run(context.Background(), t.TempDir(), RunOptions{})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestRunnerGammaSelection(t *testing.T) {
	fakeBinary(t, "fake_vasp_gam", "#!/bin/sh\necho gamma\n")

	runner := &Runner{command: "missing_vasp", gamma: "fake_vasp_gam", logger: logging.NewNop()}
	var lines []string
	err := runner.Run(context.Background(), t.TempDir(), RunOptions{
		GammaOnly: true,
		Progress:  func(line string) { lines = append(lines, line) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0] != "gamma" {
		t.Fatalf("lines = %v", lines)
	}
}

func TestRunnerRequiresCommand(t *testing.T) {
	runner := &Runner{logger: logging.NewNop()}
	err := runner.Run(context.Background(), t.TempDir(), RunOptions{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}
