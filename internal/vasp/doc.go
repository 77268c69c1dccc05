// Package vasp defines VASP calculation building blocks: input sets that
// write INCAR/KPOINTS/POSCAR files, a runner that executes the configured
// VASP binary, output parsing into task documents, a drone for ingesting
// finished calculation directories, and the relax/static makers plus
// Materials Project flow makers built on top of them.
package vasp
