// Package flow defines the declarative job-graph model: jobs, flows, output
// references, and the maker contract used to assemble multi-step pipelines.
//
// The package deliberately contains no execution engine. A Flow is data: an
// ordered collection of jobs (and nested flows) whose inputs may reference
// the future outputs of earlier jobs. Dependency resolution, scheduling, and
// distributed dispatch belong to whatever runner consumes the graph; job
// bodies only require the minimal Runtime capability to resolve references
// and report progress.
package flow
