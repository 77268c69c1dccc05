package jobs

import (
	"context"

	"atomflow/internal/flow"
	"atomflow/internal/mpapi"
	"atomflow/internal/structure"
)

// MPRetrieveOptions adjusts a Materials Project structure retrieval.
type MPRetrieveOptions struct {
	// UseTaskID pins the lookup to a specific calculation task instead of
	// the material's current best structure.
	UseTaskID bool
	// ResetMagneticMoments strips magmom site properties so child jobs
	// initialize magnetism themselves.
	ResetMagneticMoments bool
}

// RetrieveStructureFromMP returns a job fetching a structure from the
// Materials Project at run time, so flows always see the current database
// release. The resolved task id and database version are stored alongside
// the output.
func RetrieveStructureFromMP(client *mpapi.Client, id string, opts MPRetrieveOptions) *flow.Job {
	return flow.NewJob("retrieve structure from MP", func(ctx context.Context, rt flow.Runtime) (*flow.Response, error) {
		var result *mpapi.MaterialResult
		var err error
		if opts.UseTaskID {
			result, err = client.TaskStructure(ctx, id)
		} else {
			result, err = client.Structure(ctx, id)
		}
		if err != nil {
			return nil, err
		}

		version, err := client.DatabaseVersion(ctx)
		if err != nil {
			return nil, err
		}

		s := result.Structure
		if opts.ResetMagneticMoments && s.HasSiteProperty(structure.MagmomProperty) {
			s = s.Copy()
			s.RemoveSiteProperty(structure.MagmomProperty)
		}

		return &flow.Response{
			Output: s,
			StoredData: map[string]any{
				"task_id":          result.TaskID,
				"database_version": version,
			},
		}, nil
	})
}
