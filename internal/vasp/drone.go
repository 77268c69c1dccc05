package vasp

import (
	"context"
	"log/slog"

	"atomflow/internal/drones"
	"atomflow/internal/logging"
)

// Drone discovers and parses finished VASP calculation directories.
type Drone struct {
	logger *slog.Logger
}

// NewDrone builds a VASP drone.
func NewDrone(logger *slog.Logger) *Drone {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Drone{logger: logging.NewComponentLogger(logger, "vasp-drone")}
}

// Name implements drones.Drone.
func (d *Drone) Name() string {
	return "vasp"
}

// FindValidPaths implements drones.Drone: any directory with an OUTCAR and
// an OSZICAR, plain or gzipped, counts.
func (d *Drone) FindValidPaths(root string) ([]string, error) {
	dirs, err := drones.FindDirsWithFile(root, "OUTCAR")
	if err != nil {
		return nil, err
	}
	valid := dirs[:0]
	for _, dir := range dirs {
		if HasOutputs(dir) {
			valid = append(valid, dir)
		}
	}
	return valid, nil
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
