// Package testsupport provides shared test fixtures: a map-backed flow
// runtime and config helpers pointing at temporary directories.
package testsupport

import (
	"fmt"
	"testing"

	"atomflow/internal/config"
	"atomflow/internal/flow"
)

// Runtime is a map-backed flow.Runtime for tests. Seed it with resolved
// values keyed by reference string, point WorkDir at a temp directory, and
// hand it to job bodies directly.
type Runtime struct {
	Values  map[string]any
	WorkDir string

	ProgressCalls []ProgressCall
}

// ProgressCall records one Progress invocation.
type ProgressCall struct {
	Percent float64
	Message string
}

// NewRuntime builds a runtime rooted at a fresh temp directory.
func NewRuntime(t *testing.T) *Runtime {
	t.Helper()
	return &Runtime{
		Values:  map[string]any{},
		WorkDir: t.TempDir(),
	}
}

// Seed registers a resolved value for a reference.
func (r *Runtime) Seed(ref flow.Ref, value any) {
	r.Values[ref.String()] = value
}

// Resolve looks the reference up in the seeded map.
func (r *Runtime) Resolve(ref flow.Ref) (any, error) {
	v, ok := r.Values[ref.String()]
	if !ok {
		return nil, fmt.Errorf("unresolved reference %s", ref)
	}
	return v, nil
}

// Dir returns the runtime's working directory.
func (r *Runtime) Dir() string {
	return r.WorkDir
}

// Progress records the call for later assertions.
func (r *Runtime) Progress(percent float64, message string) {
	r.ProgressCalls = append(r.ProgressCalls, ProgressCall{Percent: percent, Message: message})
}

// NewConfig returns a validated config whose paths all live under temp
// directories owned by the test.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	root := t.TempDir()
	cfg.Paths.ScratchDir = root + "/scratch"
	cfg.Paths.StoreDir = root + "/store"
	cfg.Paths.LogDir = root + "/logs"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("creating test directories: %v", err)
	}
	return &cfg
}
