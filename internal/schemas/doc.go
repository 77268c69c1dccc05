// Package schemas defines the validated, JSON-serializable documents that
// drones and jobs produce: task documents for VASP and Q-Chem runs, LOBSTER
// bonding-analysis documents, and the defect-workflow documents built from
// them.
package schemas
