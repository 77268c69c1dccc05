// Package defect assembles configuration coordinate diagram workflows:
// energy curves along the interpolation path between a relaxed and a
// distorted structure, and finite-difference overlap calculations between
// their wavefunctions.
package defect

import (
	"context"
	"fmt"
	"sort"

	"atomflow/internal/flow"
	"atomflow/internal/schemas"
	"atomflow/internal/services"
)

// OutputSchemaCCDDoc is the schema name the diagram-assembly job declares.
const OutputSchemaCCDDoc = "ccd_document"

// CCDInputRefs references the data one static calculation contributes to a
// configuration coordinate diagram. The references resolve once the spawned
// static jobs have run.
type CCDInputRefs struct {
	Structure flow.Ref `json:"structure"`
	Energy    flow.Ref `json:"energy"`
	DirName   flow.Ref `json:"dir_name"`
	UUID      string   `json:"uuid"`
}

// SpawnEnergyCurveCalcs builds the job computing one energy curve: it
// interpolates between the relaxed and distorted structures at the given
// distortion fractions and replaces itself with one static calculation per
// image. The job output is the list of per-image output references.
func SpawnEnergyCurveCalcs(
	relaxed, distorted flow.StructureArg,
	distortions []float64,
	staticMaker flow.Maker,
	prevDir flow.DirArg,
	addName string,
) *flow.Job {
	body := func(ctx context.Context, rt flow.Runtime) (*flow.Response, error) {
		start, err := relaxed.Resolve(rt)
		if err != nil {
			return nil, err
		}
		end, err := distorted.Resolve(rt)
		if err != nil {
			return nil, err
		}
		if start == nil || end == nil {
			return nil, services.Wrap(services.ErrValidation, "defect", "spawn energy curve",
				"both end-point structures are required", nil)
		}

		if len(distortions) == 0 {
			return nil, services.Wrap(services.ErrValidation, "defect", "spawn energy curve",
				"at least one distortion is required", nil)
		}
		fractions := append([]float64(nil), distortions...)
		sort.Float64s(fractions)
		images, err := start.Interpolate(end, fractions)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "defect", "spawn energy curve",
				"end-point structures do not interpolate", err)
		}

		var nodes []flow.Node
		var outputs []CCDInputRefs
		for i, image := range images {
			node, err := staticMaker.Make(flow.Structure(image), prevDir)
			if err != nil {
				return nil, err
			}
			suffix := fmt.Sprintf(" %d", i)
			if addName != "" {
				suffix = fmt.Sprintf(" %s %d", addName, i)
			}
			appendJobName(node, suffix)
			nodes = append(nodes, node)

			job := node.Jobs()[0]
			outputs = append(outputs, CCDInputRefs{
				Structure: job.OutputRef("output", "structure"),
				Energy:    job.OutputRef("output", "energy"),
				DirName:   job.OutputRef("dir_name"),
				UUID:      job.ID.String(),
			})
		}

		replacement := flow.New("energy curve statics", nodes[len(nodes)-1].TaskOutput(), nodes...)
		return &flow.Response{Output: outputs, Replace: replacement}, nil
	}
	return flow.NewJob("spawn energy curve calcs", body)
}

// GetCCDDocuments builds the job assembling the diagram once both curves
// have run. inputs1 and inputs2 reference the outputs of the two spawn jobs;
// undistortedIndex selects the relaxed entry within each curve.
func GetCCDDocuments(inputs1, inputs2 flow.Ref, undistortedIndex int) *flow.Job {
	body := func(ctx context.Context, rt flow.Runtime) (*flow.Response, error) {
		curve1, err := resolveCurve(rt, inputs1)
		if err != nil {
			return nil, err
		}
		curve2, err := resolveCurve(rt, inputs2)
		if err != nil {
			return nil, err
		}

		doc, err := schemas.NewCCDDocument(curve1, curve2, undistortedIndex)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "defect", "assemble diagram", "", err)
		}
		return &flow.Response{Output: doc}, nil
	}
	return flow.NewJob("get ccd documents", body, flow.WithOutputSchema(OutputSchemaCCDDoc))
}

// resolveCurve resolves the spawn job's output references into concrete
// per-image inputs.
func resolveCurve(rt flow.Runtime, ref flow.Ref) ([]schemas.CCDInput, error) {
	raw, err := rt.Resolve(ref)
	if err != nil {
		return nil, err
	}
	refs, ok := raw.([]CCDInputRefs)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "defect", "assemble diagram",
			fmt.Sprintf("curve output has unexpected type %T", raw), nil)
	}

	inputs := make([]schemas.CCDInput, 0, len(refs))
	for _, r := range refs {
		in := schemas.CCDInput{}
		structureRef := flow.StructureRef(r.Structure)
		if in.Structure, err = structureRef.Resolve(rt); err != nil {
			return nil, err
		}
		rawEnergy, err := rt.Resolve(r.Energy)
		if err != nil {
			return nil, err
		}
		energy, ok := rawEnergy.(float64)
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "defect", "assemble diagram",
				fmt.Sprintf("energy has unexpected type %T", rawEnergy), nil)
		}
		in.Energy = energy
		dirRef := flow.DirRef(r.DirName)
		if in.DirName, err = dirRef.Resolve(rt); err != nil {
			return nil, err
		}
		if err := in.UUID.UnmarshalText([]byte(r.UUID)); err != nil {
			return nil, services.Wrap(services.ErrValidation, "defect", "assemble diagram",
				"malformed job id "+r.UUID, err)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func appendJobName(node flow.Node, suffix string) {
	if job, ok := node.(*flow.Job); ok {
		job.AppendName(suffix)
	}
}
