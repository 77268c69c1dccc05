package flow

import (
	"strings"

	"github.com/google/uuid"
)

// Ref points at a (sub)field of a job's future output document. References
// are resolved by the engine running the graph, never at assembly time.
type Ref struct {
	Job  uuid.UUID `json:"job"`
	Path string    `json:"path"`
}

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool {
	return r.Job == uuid.Nil && r.Path == ""
}

// Field returns a reference one level deeper than the receiver.
func (r Ref) Field(name string) Ref {
	if r.Path == "" {
		return Ref{Job: r.Job, Path: name}
	}
	return Ref{Job: r.Job, Path: r.Path + "." + name}
}

func (r Ref) String() string {
	if r.Path == "" {
		return r.Job.String()
	}
	return r.Job.String() + "#" + r.Path
}

// TaskOutput bundles the references every structure pipeline threads between
// steps: the relaxed/computed structure, the directory the calculation ran
// in, and the final energy.
type TaskOutput struct {
	Structure Ref `json:"structure"`
	DirName   Ref `json:"dir_name"`
	Energy    Ref `json:"energy"`
}

// IsZero reports whether no reference in the output bundle is set.
func (o TaskOutput) IsZero() bool {
	return o.Structure.IsZero() && o.DirName.IsZero() && o.Energy.IsZero()
}

func joinPath(parts []string) string {
	return strings.Join(parts, ".")
}
