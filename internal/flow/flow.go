package flow

import (
	"github.com/google/uuid"
)

// Node is anything that can appear in a flow: a job or a nested flow.
type Node interface {
	// Jobs returns every job reachable from the node, depth first.
	Jobs() []*Job
	// TaskOutput returns the node's designated output reference bundle.
	TaskOutput() TaskOutput
}

// Flow is a directed graph of jobs and nested flows with a designated
// output. Edges are implicit: a job depends on every job whose output it
// references.
type Flow struct {
	ID    uuid.UUID
	Name  string
	nodes []Node

	output TaskOutput
}

// New constructs a flow over the given nodes. The output bundle designates
// which node's output the flow as a whole exposes.
func New(name string, output TaskOutput, nodes ...Node) *Flow {
	return &Flow{ID: uuid.New(), Name: name, nodes: nodes, output: output}
}

// Add appends nodes to the flow.
func (f *Flow) Add(nodes ...Node) {
	f.nodes = append(f.nodes, nodes...)
}

// SetOutput replaces the flow's designated output bundle.
func (f *Flow) SetOutput(output TaskOutput) {
	f.output = output
}

// TaskOutput returns the flow's designated output bundle.
func (f *Flow) TaskOutput() TaskOutput {
	return f.output
}

// Nodes returns the flow's direct children in assembly order.
func (f *Flow) Nodes() []Node {
	out := make([]Node, len(f.nodes))
	copy(out, f.nodes)
	return out
}

// Jobs returns every job in the flow, including nested flows, depth first.
func (f *Flow) Jobs() []*Job {
	var jobs []*Job
	for _, node := range f.nodes {
		jobs = append(jobs, node.Jobs()...)
	}
	return jobs
}

// DirNames returns a directory reference for every job in each node. The
// cleanup job consumes these to remove large files after a pipeline
// finishes.
func DirNames(nodes ...Node) []Ref {
	var refs []Ref
	for _, node := range nodes {
		for _, job := range node.Jobs() {
			refs = append(refs, job.OutputRef("dir_name"))
		}
	}
	return refs
}
