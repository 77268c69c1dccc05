package flow

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Runtime is the capability an engine hands a job body when running it.
// Implementations resolve output references recorded at assembly time and
// provide the job's working directory.
type Runtime interface {
	// Resolve returns the value a reference points at. Resolution fails if
	// the referenced job has not produced output yet.
	Resolve(ref Ref) (any, error)
	// Dir returns the directory the job should run in.
	Dir() string
	// Progress reports job progress to the engine. Percent is 0-100.
	Progress(percent float64, message string)
}

// JobFunc is a job body. It receives the runtime supplied by the engine and
// returns the job's response.
type JobFunc func(ctx context.Context, rt Runtime) (*Response, error)

// Job is a single schedulable unit of computation with declared metadata.
type Job struct {
	ID       uuid.UUID
	Name     string
	Metadata map[string]any

	// OutputSchema names the document type the job produces, e.g. "task_doc".
	OutputSchema string

	fn JobFunc
}

// JobOption configures job construction.
type JobOption func(*Job)

// WithOutputSchema declares the output document type the job produces.
func WithOutputSchema(schema string) JobOption {
	return func(j *Job) { j.OutputSchema = schema }
}

// WithMetadata attaches an assembly-time metadata entry to the job.
func WithMetadata(key string, value any) JobOption {
	return func(j *Job) {
		if j.Metadata == nil {
			j.Metadata = map[string]any{}
		}
		j.Metadata[key] = value
	}
}

// NewJob constructs a job with a fresh UUID.
func NewJob(name string, fn JobFunc, opts ...JobOption) *Job {
	job := &Job{ID: uuid.New(), Name: name, fn: fn}
	for _, opt := range opts {
		opt(job)
	}
	return job
}

// Run invokes the job body. Engines call this once all referenced outputs
// are available.
func (j *Job) Run(ctx context.Context, rt Runtime) (*Response, error) {
	if j.fn == nil {
		return nil, errors.New("job has no body")
	}
	return j.fn(ctx, rt)
}

// AppendName adds a suffix to the job name.
func (j *Job) AppendName(suffix string) {
	if strings.TrimSpace(suffix) == "" {
		return
	}
	j.Name += suffix
}

// OutputRef returns a reference into the job's future output document.
func (j *Job) OutputRef(path ...string) Ref {
	return Ref{Job: j.ID, Path: joinPath(path)}
}

// TaskOutput returns the standard structure/directory/energy reference
// bundle for jobs producing task documents.
func (j *Job) TaskOutput() TaskOutput {
	return TaskOutput{
		Structure: j.OutputRef("output", "structure"),
		DirName:   j.OutputRef("dir_name"),
		Energy:    j.OutputRef("output", "energy"),
	}
}

// Jobs returns the job itself, satisfying the Node contract.
func (j *Job) Jobs() []*Job {
	return []*Job{j}
}
