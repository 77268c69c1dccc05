package qchem

import (
	"context"

	"atomflow/internal/fileutil"
	"atomflow/internal/flow"
	"atomflow/internal/services"
)

// OutputSchemaTaskDoc is the schema name Q-Chem jobs declare.
const OutputSchemaTaskDoc = "qchem_task_doc"

// BaseMaker builds a single Q-Chem job: write mol.qin for a molecule, run
// the binary, parse mol.qout into a task document. The six calculation
// makers are this with different input sets.
type BaseMaker struct {
	Name   string
	Set    InputSet
	Runner *Runner
	// CopyFiles lists extra files to pull from the previous calculation
	// directory, e.g. scratch wavefunction files.
	CopyFiles []string
}

// MakerName identifies the maker in assembled graph names.
func (m BaseMaker) MakerName() string {
	return m.Name
}

// Make produces one Q-Chem job for the molecule.
func (m BaseMaker) Make(mol flow.MoleculeArg, prevDir flow.DirArg) (flow.Node, error) {
	if mol.IsZero() {
		return nil, services.Wrap(services.ErrValidation, "qchem", "make",
			"maker "+m.Name+" requires a molecule argument", nil)
	}
	job := flow.NewJob(m.Name, m.body(mol, prevDir), flow.WithOutputSchema(OutputSchemaTaskDoc))
	return job, nil
}

func (m BaseMaker) body(mol flow.MoleculeArg, prevDir flow.DirArg) flow.JobFunc {
	return func(ctx context.Context, rt flow.Runtime) (*flow.Response, error) {
		molecule, err := mol.Resolve(rt)
		if err != nil {
			return nil, err
		}
		dir := rt.Dir()

		prev, err := prevDir.Resolve(rt)
		if err != nil {
			return nil, err
		}
		if prev != "" && len(m.CopyFiles) > 0 {
			if _, err := fileutil.CopyCalcFiles(fileutil.StripHostname(prev), dir, fileutil.CopyOptions{
				IncludeFiles: m.CopyFiles,
				AllowMissing: true,
			}); err != nil {
				return nil, err
			}
		}

		if err := m.Set.WriteInput(dir, molecule); err != nil {
			return nil, err
		}
		rt.Progress(5, "input written")

		if err := m.Runner.Run(ctx, dir, func(line string) {
			rt.Progress(50, line)
		}); err != nil {
			return nil, err
		}
		rt.Progress(90, "parsing outputs")

		doc, err := ParseDirectory(dir)
		if err != nil {
			return nil, err
		}
		doc.TaskLabel = m.Name
		rt.Progress(100, "complete")
		return &flow.Response{Output: doc}, nil
	}
}

// NewSinglePointMaker returns the single-point energy maker.
func NewSinglePointMaker(runner *Runner) BaseMaker {
	return BaseMaker{Name: "single point", Set: SinglePointSet(), Runner: runner}
}

// NewOptMaker returns the geometry optimization maker.
func NewOptMaker(runner *Runner) BaseMaker {
	return BaseMaker{Name: "optimization", Set: OptSet(), Runner: runner}
}

// NewForceMaker returns the gradient/forces maker.
func NewForceMaker(runner *Runner) BaseMaker {
	return BaseMaker{Name: "force", Set: ForceSet(), Runner: runner}
}

// NewTransitionStateMaker returns the transition-state optimization maker.
func NewTransitionStateMaker(runner *Runner) BaseMaker {
	return BaseMaker{Name: "transition state", Set: TransitionStateSet(), Runner: runner}
}

// NewFreqMaker returns the vibrational frequency maker.
func NewFreqMaker(runner *Runner) BaseMaker {
	return BaseMaker{Name: "frequency", Set: FreqSet(), Runner: runner}
}

// NewPESScanMaker returns the potential-energy-surface scan maker. Scan
// lines describe the varied coordinates, e.g. "stre 1 2 1.0 2.0 0.1".
func NewPESScanMaker(runner *Runner, scan ...string) BaseMaker {
	return BaseMaker{Name: "pes scan", Set: PESScanSet(scan...), Runner: runner}
}
