package defect

import (
	"context"
	"fmt"
	"path/filepath"

	"atomflow/internal/fileutil"
	"atomflow/internal/flow"
	"atomflow/internal/schemas"
	"atomflow/internal/services"
	"atomflow/internal/vasp"
)

// OutputSchemaFiniteDiffDoc is the schema name finite difference jobs declare.
const OutputSchemaFiniteDiffDoc = "finite_difference_document"

// FiniteDifferenceMaker builds the job computing wavefunction overlaps
// between a reference calculation and a set of distorted ones. The reference
// WAVECAR stays in place while each distorted WAVECAR is swapped in as
// WAVECAR.qqq and VASP re-runs with LWSWQ, producing one WSWQ file per
// distortion.
type FiniteDifferenceMaker struct {
	Name   string
	Runner *vasp.Runner
	// GzipOutputs compresses the directory once all overlaps are collected.
	GzipOutputs bool
}

// NewFiniteDifferenceMaker returns the maker with its standard name.
func NewFiniteDifferenceMaker(runner *vasp.Runner) FiniteDifferenceMaker {
	return FiniteDifferenceMaker{Name: "finite diff", Runner: runner, GzipOutputs: true}
}

// MakerName identifies the maker in assembled graph names.
func (m FiniteDifferenceMaker) MakerName() string {
	return m.Name
}

// Make produces the overlap job. refDir is the calculation whose WAVECAR is
// the bra side; distortedDirs hold the ket wavefunctions.
func (m FiniteDifferenceMaker) Make(refDir flow.DirArg, distortedDirs []flow.DirArg) (flow.Node, error) {
	if refDir.IsZero() {
		return nil, services.Wrap(services.ErrValidation, "defect", "make",
			"maker "+m.Name+" requires the reference calculation directory", nil)
	}
	if len(distortedDirs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "defect", "make",
			"maker "+m.Name+" requires at least one distorted directory", nil)
	}
	job := flow.NewJob(m.Name, m.body(refDir, distortedDirs),
		flow.WithOutputSchema(OutputSchemaFiniteDiffDoc))
	return job, nil
}

func (m FiniteDifferenceMaker) body(refDir flow.DirArg, distortedDirs []flow.DirArg) flow.JobFunc {
	return func(ctx context.Context, rt flow.Runtime) (*flow.Response, error) {
		ref, err := refDir.Resolve(rt)
		if err != nil {
			return nil, err
		}
		dir := rt.Dir()

		if err := vasp.CopyOutputs(ref, dir, "WAVECAR"); err != nil {
			return nil, err
		}
		// The re-runs only evaluate overlaps against the fixed charge
		// density; no new SCF or ionic steps.
		if err := vasp.UpdateIncar(dir, map[string]any{
			"ALGO":  "None",
			"NSW":   0,
			"LWAVE": false,
			"LWSWQ": true,
		}); err != nil {
			return nil, err
		}

		doc := &schemas.FiniteDifferenceDocument{
			DirName: dir,
			RefDir:  fileutil.StripHostname(ref),
		}
		for i, distorted := range distortedDirs {
			src, err := distorted.Resolve(rt)
			if err != nil {
				return nil, err
			}
			src = fileutil.StripHostname(src)

			if _, err := fileutil.CopyCalcFiles(src, dir, fileutil.CopyOptions{
				IncludeFiles: []string{"WAVECAR"},
				Prefix:       "qqq.",
			}); err != nil {
				return nil, err
			}
			if err := fileutil.GunzipDir(dir, "qqq.WAVECAR"); err != nil {
				return nil, err
			}
			if err := fileutil.RenameFiles(dir, map[string]string{"qqq.WAVECAR": "WAVECAR.qqq"}); err != nil {
				return nil, err
			}

			if err := m.Runner.Run(ctx, dir, vasp.RunOptions{
				Progress: func(line string) { rt.Progress(50, line) },
			}); err != nil {
				return nil, err
			}

			wswq := fmt.Sprintf("WSWQ.%d", i)
			if err := fileutil.RenameFiles(dir, map[string]string{"WSWQ": wswq}); err != nil {
				return nil, err
			}
			if !fileutil.Exists(filepath.Join(dir, wswq)) {
				return nil, services.Wrap(services.ErrExternalTool, "defect", "finite difference",
					"VASP produced no WSWQ file for distortion "+fmt.Sprint(i), nil)
			}
			doc.DistortedDirs = append(doc.DistortedDirs, src)
			doc.WSWQFiles = append(doc.WSWQFiles, wswq)
			rt.Progress(float64(90*(i+1))/float64(len(distortedDirs)), wswq+" collected")
		}

		if err := doc.Validate(); err != nil {
			return nil, err
		}
		if m.GzipOutputs {
			if err := fileutil.GzipDir(dir); err != nil {
				return nil, err
			}
		}
		rt.Progress(100, "complete")
		return &flow.Response{Output: doc}, nil
	}
}
