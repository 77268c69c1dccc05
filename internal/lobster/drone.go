package lobster

import (
	"context"
	"log/slog"

	"atomflow/internal/drones"
	"atomflow/internal/logging"
)

// Drone discovers and parses finished LOBSTER calculation directories.
type Drone struct {
	logger *slog.Logger
}

// NewDrone builds a LOBSTER drone.
func NewDrone(logger *slog.Logger) *Drone {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Drone{logger: logging.NewComponentLogger(logger, "lobster-drone")}
}

// Name implements drones.Drone.
func (d *Drone) Name() string {
	return "lobster"
}

// FindValidPaths implements drones.Drone: any directory containing lobsterout
// or its gzipped variant.
func (d *Drone) FindValidPaths(root string) ([]string, error) {
	return drones.FindDirsWithFile(root, OutputFileName)
}

// Assimilate implements drones.Drone.
func (d *Drone) Assimilate(ctx context.Context, dir string) (drones.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := ParseDirectory(dir)
	if err != nil {
		d.logger.Error("assimilation failed",
			logging.String(logging.FieldCalcDir, dir),
			logging.Error(err))
		return nil, err
	}
	d.logger.Info("assimilated calculation",
		logging.String(logging.FieldCalcDir, dir),
		logging.String("chemsys", doc.Chemsys),
		logging.String("state", string(doc.State)))
	return doc, nil
}
