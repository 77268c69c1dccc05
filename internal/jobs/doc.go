// Package jobs defines code-agnostic jobs shared by workflows: symmetry
// reduction, Materials Project structure retrieval, post-workflow file
// cleanup, and Bader charge analysis.
package jobs
