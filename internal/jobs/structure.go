package jobs

import (
	"context"

	"atomflow/internal/flow"
)

// StructureToPrimitive returns a job producing the standard primitive cell
// of its input structure.
func StructureToPrimitive(s flow.StructureArg, symprec float64) *flow.Job {
	return flow.NewJob("structure to primitive", func(ctx context.Context, rt flow.Runtime) (*flow.Response, error) {
		str, err := s.Resolve(rt)
		if err != nil {
			return nil, err
		}
		primitive, err := str.PrimitiveStandard(symprec)
		if err != nil {
			return nil, err
		}
		return &flow.Response{Output: primitive}, nil
	})
}

// StructureToConventional returns a job producing the standard conventional
// cell of its input structure.
func StructureToConventional(s flow.StructureArg, symprec float64) *flow.Job {
	return flow.NewJob("structure to conventional", func(ctx context.Context, rt flow.Runtime) (*flow.Response, error) {
		str, err := s.Resolve(rt)
		if err != nil {
			return nil, err
		}
		conventional, err := str.ConventionalStandard(symprec)
		if err != nil {
			return nil, err
		}
		return &flow.Response{Output: conventional}, nil
	})
}
