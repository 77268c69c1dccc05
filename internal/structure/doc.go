// Package structure models periodic crystal structures and isolated
// molecules: lattices, sites with fractional coordinates and per-site
// properties, composition formulas, symmetry-based cell reduction, and the
// file formats the simulation codes consume (POSCAR, XYZ molecule blocks).
package structure
