package vasp

import (
	"context"

	"atomflow/internal/fileutil"
	"atomflow/internal/flow"
	"atomflow/internal/schemas"
	"atomflow/internal/services"
)

// OutputSchemaTaskDoc is the schema name VASP jobs declare.
const OutputSchemaTaskDoc = "task_doc"

// BaseMaker builds a single VASP job: write inputs for a structure, run the
// binary, parse the directory into a task document. Relax and static makers
// are this with different input sets.
type BaseMaker struct {
	Name   string
	Set    InputSet
	Runner *Runner
	// CopyFiles lists extra files to pull from the previous calculation
	// directory, e.g. WAVECAR and CHGCAR.
	CopyFiles []string
	// GammaOnly selects the gamma-point binary.
	GammaOnly bool
	// GzipOutputs compresses the directory after a successful parse.
	GzipOutputs bool
}

// MakerName implements flow.Maker.
func (m BaseMaker) MakerName() string {
	return m.Name
}

// Make implements flow.Maker, producing one job.
func (m BaseMaker) Make(s flow.StructureArg, prevDir flow.DirArg) (flow.Node, error) {
	if s.IsZero() {
		return nil, errNoStructure(m.Name)
	}
	job := flow.NewJob(m.Name, m.body(s, prevDir), flow.WithOutputSchema(OutputSchemaTaskDoc))
	return job, nil
}

func (m BaseMaker) body(s flow.StructureArg, prevDir flow.DirArg) flow.JobFunc {
	return func(ctx context.Context, rt flow.Runtime) (*flow.Response, error) {
		str, err := s.Resolve(rt)
		if err != nil {
			return nil, err
		}
		dir := rt.Dir()

		prev, err := prevDir.Resolve(rt)
		if err != nil {
			return nil, err
		}
		if prev != "" {
			if err := CopyOutputs(prev, dir, m.CopyFiles...); err != nil {
				return nil, err
			}
		}

		if err := m.Set.WriteInputs(dir, str); err != nil {
			return nil, err
		}
		rt.Progress(5, "inputs written")

		if err := m.Runner.Run(ctx, dir, RunOptions{
			GammaOnly: m.GammaOnly,
			Progress: func(line string) {
				rt.Progress(50, line)
			},
		}); err != nil {
			return nil, err
		}
		rt.Progress(90, "parsing outputs")

		doc, err := ParseDirectory(dir)
		if err != nil {
			return nil, err
		}
		doc.TaskLabel = m.Name

		if m.GzipOutputs {
			if err := gzipCalcDir(dir); err != nil {
				return nil, err
			}
		}
		rt.Progress(100, "complete")
		return &flow.Response{Output: doc}, nil
	}
}

// NewRelaxMaker returns the plain PBE relaxation maker.
func NewRelaxMaker(runner *Runner) BaseMaker {
	return BaseMaker{Name: "relax", Set: RelaxSet(), Runner: runner}
}

// NewStaticMaker returns the plain PBE static maker.
func NewStaticMaker(runner *Runner) BaseMaker {
	return BaseMaker{Name: "static", Set: StaticSet(), Runner: runner}
}

func errNoStructure(maker string) error {
	return services.Wrap(services.ErrValidation, "vasp", "make",
		"maker "+maker+" requires a structure argument", nil)
}

// gzipCalcDir compresses run outputs, leaving the raw inputs readable.
func gzipCalcDir(dir string) error {
	return fileutil.GzipDir(dir, "INCAR", "KPOINTS", "POSCAR")
}

// TaskDocFrom asserts a resolved job output back to a task document.
func TaskDocFrom(v any) (*schemas.TaskDoc, bool) {
	doc, ok := v.(*schemas.TaskDoc)
	return doc, ok
}
