package schemas

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"atomflow/internal/fileutil"
	"atomflow/internal/structure"
)

// State is the completion state of a calculation.
type State string

const (
	StateSuccessful State = "successful"
	StateFailed     State = "failed"
)

// InputSummary records what a calculation was asked to do.
type InputSummary struct {
	Structure  *structure.Structure `json:"structure,omitempty"`
	Molecule   *structure.Molecule  `json:"molecule,omitempty"`
	Parameters map[string]any       `json:"parameters,omitempty"`
}

// OutputSummary records what a calculation produced.
type OutputSummary struct {
	Structure     *structure.Structure `json:"structure,omitempty"`
	Molecule      *structure.Molecule  `json:"molecule,omitempty"`
	Energy        float64              `json:"energy"`
	EnergyPerAtom float64              `json:"energy_per_atom,omitempty"`
	Forces        [][3]float64         `json:"forces,omitempty"`
	Stress        [3][3]float64        `json:"stress,omitempty"`
	Bandgap       float64              `json:"bandgap,omitempty"`
}

// RunStats summarizes the execution of a calculation.
type RunStats struct {
	ElapsedTime    float64 `json:"elapsed_time,omitempty"`
	Cores          int     `json:"cores,omitempty"`
	IonicSteps     int     `json:"ionic_steps,omitempty"`
	ElectronicIter int     `json:"electronic_iterations,omitempty"`
}

// TaskDoc is the record of one calculation: its inputs, outputs, where it
// ran, and how it finished.
type TaskDoc struct {
	UUID        uuid.UUID     `json:"uuid"`
	TaskLabel   string        `json:"task_label"`
	DirName     string        `json:"dir_name"`
	State       State         `json:"state"`
	Formula     string        `json:"formula_pretty,omitempty"`
	Chemsys     string        `json:"chemsys,omitempty"`
	Input       InputSummary  `json:"input"`
	Output      OutputSummary `json:"output"`
	RunStats    RunStats      `json:"run_stats"`
	CompletedAt time.Time     `json:"completed_at,omitempty"`
}

// Validate checks the document's required fields.
func (d *TaskDoc) Validate() error {
	if d.UUID == uuid.Nil {
		return fmt.Errorf("task document missing uuid")
	}
	if d.DirName == "" {
		return fmt.Errorf("task document missing dir_name")
	}
	switch d.State {
	case StateSuccessful, StateFailed:
	default:
		return fmt.Errorf("task document has invalid state %q", d.State)
	}
	return nil
}

// LocalDir returns the calculation directory with any engine-recorded host
// prefix ("host:/path") stripped, for local filesystem access.
func (d *TaskDoc) LocalDir() string {
	return StripHostname(d.DirName)
}

// StripHostname removes a "host:" prefix from a directory value recorded by
// a remote engine. Plain paths pass through unchanged.
func StripHostname(dir string) string {
	return fileutil.StripHostname(dir)
}

// Chemsys derives the dash-joined sorted element system, e.g. "As-Ga".
func Chemsys(s *structure.Structure) string {
	if s == nil {
		return ""
	}
	counts := s.Composition()
	elements := make([]string, 0, len(counts))
	for el := range counts {
		elements = append(elements, el)
	}
	sort.Strings(elements)
	return strings.Join(elements, "-")
}
