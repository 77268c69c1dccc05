package qchem

import (
	"context"
	"log/slog"

	"atomflow/internal/drones"
	"atomflow/internal/logging"
)

// Drone discovers and parses finished Q-Chem calculation directories.
type Drone struct {
	logger *slog.Logger
}

// NewDrone builds a Q-Chem drone.
func NewDrone(logger *slog.Logger) *Drone {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Drone{logger: logging.NewComponentLogger(logger, "qchem-drone")}
}

// Name implements drones.Drone.
func (d *Drone) Name() string {
	return "qchem"
}

// FindValidPaths implements drones.Drone: any directory containing a file
// whose name starts with mol.qout, covering multi-step suffixes like
// mol.qout.opt_0 and gzipped variants.
func (d *Drone) FindValidPaths(root string) ([]string, error) {
	return drones.FindDirsWithPrefix(root, OutputFileName)
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
		logging.String(logging.FieldFormula, doc.Formula),
		logging.String("state", string(doc.State)))
	return doc, nil
}
