// Package qchem defines Q-Chem calculation building blocks: input sets
// writing mol.qin files, a runner for the qchem binary, output parsing into
// task documents, a drone for finished calculation directories, and the
// single-point/optimization/force/transition-state/frequency/PES-scan
// makers.
package qchem
