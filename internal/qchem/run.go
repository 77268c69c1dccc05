package qchem

import (
	"bufio"
	"context"
	"errors"
	"fmt"
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

// Runner executes the configured Q-Chem binary inside a calculation
// directory.
type Runner struct {
	command string
	threads int
	timeout time.Duration
	logger  *slog.Logger
}

// NewRunner builds a runner from configuration.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		command: cfg.QChem.Command,
		threads: cfg.QChem.Threads,
		timeout: time.Duration(cfg.QChem.TimeoutSeconds) * time.Second,
		logger:  logging.NewComponentLogger(logger, "qchem"),
	}
}

// Run executes Q-Chem on mol.qin in dir, writing mol.qout.
func (r *Runner) Run(ctx context.Context, dir string, progress func(line string)) error {
	if strings.TrimSpace(r.command) == "" {
		return services.Wrap(services.ErrConfiguration, "qchem", "run",
			"no Q-Chem command configured; set qchem.command in the config file", nil)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := []string{}
	if r.threads > 1 {
		args = append(args, "-nt", fmt.Sprintf("%d", r.threads))
	}
	args = append(args, InputFileName, OutputFileName)

	cmd := commandContext(ctx, r.command, args...)
	cmd.Dir = dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "qchem", "run", "failed to attach to stdout", err)
	}
	cmd.Stderr = cmd.Stdout

	r.logger.Info("launching qchem",
		logging.String("command", r.command),
		logging.Int("threads", r.threads),
		logging.String(logging.FieldCalcDir, dir))

	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, "qchem", "run", "failed to start the Q-Chem binary", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if progress != nil {
			progress(line)
		}
	}

	if err := cmd.Wait(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "qchem", "run",
				"Q-Chem exceeded the configured timeout", err)
		}
		return services.Wrap(services.ErrExternalTool, "qchem", "run",
			"Q-Chem exited with an error; inspect mol.qout in the calculation directory", err)
	}
	return nil
}
