package lobster

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

// Runner executes the LOBSTER binary inside a calculation directory. LOBSTER
// takes no arguments; it reads lobsterin and the wavefunction files from the
// working directory.
type Runner struct {
	command string
	timeout time.Duration
	logger  *slog.Logger
}

// NewRunner builds a runner from configuration.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		command: cfg.Lobster.Command,
		timeout: time.Duration(cfg.Lobster.TimeoutSeconds) * time.Second,
		logger:  logging.NewComponentLogger(logger, "lobster"),
	}
}

// Run executes LOBSTER in dir.
func (r *Runner) Run(ctx context.Context, dir string, progress func(line string)) error {
	if strings.TrimSpace(r.command) == "" {
		return services.Wrap(services.ErrConfiguration, "lobster", "run",
			"no LOBSTER command configured; set lobster.command in the config file", nil)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := commandContext(ctx, r.command)
	cmd.Dir = dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "lobster", "run", "failed to attach to stdout", err)
	}
	cmd.Stderr = cmd.Stdout

	r.logger.Info("launching lobster",
		logging.String("command", r.command),
		logging.String(logging.FieldCalcDir, dir))

	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, "lobster", "run", "failed to start the LOBSTER binary", err)
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
			return services.Wrap(services.ErrTimeout, "lobster", "run",
				"LOBSTER exceeded the configured timeout", err)
		}
		return services.Wrap(services.ErrExternalTool, "lobster", "run",
			"LOBSTER exited with an error; inspect lobsterout in the calculation directory", err)
	}
	return nil
}
