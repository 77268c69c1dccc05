package jobs

import (
	"context"
	"os"
	"path/filepath"

	"atomflow/internal/fileutil"
	"atomflow/internal/flow"
)

// RemoveWorkflowFiles returns a job deleting the named files from every
// referenced calculation directory. Workflows append it so bulky
// intermediates like WAVECAR do not outlive the run. When allowZpath is set
// the gzipped variant of each file is also considered. The job's output is
// the list of removed paths.
func RemoveWorkflowFiles(dirs []flow.Ref, fileNames []string, allowZpath bool) *flow.Job {
	return flow.NewJob("remove workflow files", func(ctx context.Context, rt flow.Runtime) (*flow.Response, error) {
		var removed []string
		for _, ref := range dirs {
			resolved, err := rt.Resolve(ref)
			if err != nil {
				return nil, err
			}
			dir, ok := resolved.(string)
			if !ok || dir == "" {
				continue
			}
			dir = fileutil.StripHostname(dir)

			for _, name := range fileNames {
				path := filepath.Join(dir, name)
				if allowZpath {
					path = fileutil.Zpath(path)
				}
				info, err := os.Stat(path)
				if err != nil || info.IsDir() {
					continue
				}
				if err := os.Remove(path); err != nil {
					return nil, err
				}
				removed = append(removed, path)
			}
		}
		return &flow.Response{Output: removed}, nil
	})
}
