package vasp

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"atomflow/internal/config"
	"atomflow/internal/logging"
	"atomflow/internal/services"
)

// commandContext is swapped in tests to point at fake binaries.
var commandContext = exec.CommandContext

// Runner executes the configured VASP binary inside a calculation directory.
type Runner struct {
	command string
	gamma   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewRunner builds a runner from configuration.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		command: cfg.VASP.Command,
		gamma:   cfg.VASP.GammaCommand,
		timeout: time.Duration(cfg.VASP.TimeoutSeconds) * time.Second,
		logger:  logging.NewComponentLogger(logger, "vasp"),
	}
}

// RunOptions adjusts a single run.
type RunOptions struct {
	// GammaOnly selects the gamma-point binary when one is configured.
	GammaOnly bool
	// Progress receives each stdout line as the calculation advances.
	Progress func(line string)
}

// Run executes VASP in dir, streaming stdout lines to the progress callback.
// The binary's own files (OUTCAR, OSZICAR, CONTCAR) are its real output;
// stdout is only used for liveness.
func (r *Runner) Run(ctx context.Context, dir string, opts RunOptions) error {
	command := r.command
	if opts.GammaOnly && r.gamma != "" {
		command = r.gamma
	}
	if strings.TrimSpace(command) == "" {
		return services.Wrap(services.ErrConfiguration, "vasp", "run",
			"no VASP command configured; set vasp.command in the config file", nil)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := commandContext(ctx, command)
	cmd.Dir = dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "vasp", "run", "failed to attach to stdout", err)
	}
	cmd.Stderr = cmd.Stdout

	r.logger.Info("launching vasp",
		logging.String("command", command),
		logging.String(logging.FieldCalcDir, dir))

	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, "vasp", "run", "failed to start the VASP binary", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if opts.Progress != nil {
			opts.Progress(line)
		}
	}

	if err := cmd.Wait(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "vasp", "run",
				"VASP exceeded the configured timeout", err)
		}
		return services.Wrap(services.ErrExternalTool, "vasp", "run",
			"VASP exited with an error; inspect OUTCAR in the calculation directory", err)
	}
	return nil
}
