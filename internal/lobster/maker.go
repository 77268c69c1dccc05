package lobster

import (
	"context"

	"atomflow/internal/fileutil"
	"atomflow/internal/flow"
	"atomflow/internal/services"
	"atomflow/internal/vasp"
)

// OutputSchemaLobsterDoc is the schema name LOBSTER jobs declare.
const OutputSchemaLobsterDoc = "lobster_task_doc"

// Maker builds a single LOBSTER job: copy the wavefunction from a previous
// VASP static run, write lobsterin for one basis set, run the binary, parse
// the bonding-analysis files.
type Maker struct {
	Name   string
	Runner *Runner
	// Settings overrides individual lobsterin keywords of the standard set.
	Settings map[string]string
	// GzipOutputs compresses the calculation directory after parsing. The
	// WAVECAR is skipped so a later cleanup job can delete it by name.
	GzipOutputs bool
}

// NewMaker returns a LOBSTER maker with the standard projection settings.
func NewMaker(runner *Runner) Maker {
	return Maker{Name: "lobster run", Runner: runner}
}

// MakerName identifies the maker in assembled graph names.
func (m Maker) MakerName() string {
	return m.Name
}

// Make produces one LOBSTER job projecting onto the given basis set.
func (m Maker) Make(waveDir flow.DirArg, basis BasisSet) (flow.Node, error) {
	if waveDir.IsZero() {
		return nil, services.Wrap(services.ErrValidation, "lobster", "make",
			"maker "+m.Name+" requires the wavefunction directory", nil)
	}
	if len(basis) == 0 {
		return nil, services.Wrap(services.ErrValidation, "lobster", "make",
			"maker "+m.Name+" requires a basis set", nil)
	}
	job := flow.NewJob(m.Name, m.body(waveDir, basis), flow.WithOutputSchema(OutputSchemaLobsterDoc))
	return job, nil
}

func (m Maker) body(waveDir flow.DirArg, basis BasisSet) flow.JobFunc {
	return func(ctx context.Context, rt flow.Runtime) (*flow.Response, error) {
		prev, err := waveDir.Resolve(rt)
		if err != nil {
			return nil, err
		}
		dir := rt.Dir()

		if err := vasp.CopyOutputs(prev, dir, "WAVECAR", "vasprun.xml"); err != nil {
			return nil, err
		}

		set := StandardInputSet(basis)
		for k, v := range m.Settings {
			set.Settings[k] = v
		}
		if err := set.WriteInput(dir); err != nil {
			return nil, err
		}
		rt.Progress(5, "lobsterin written")

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
		if m.GzipOutputs {
			if err := fileutil.GzipDir(dir, "WAVECAR"); err != nil {
				return nil, err
			}
		}
		rt.Progress(100, "complete")
		return &flow.Response{Output: doc}, nil
	}
}
