package qchem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"atomflow/internal/services"
	"atomflow/internal/structure"
)

// InputFileName is the input file every Q-Chem run reads.
const InputFileName = "mol.qin"

// InputSet holds the $rem parameters for one calculation type.
type InputSet struct {
	Name string
	Rem  map[string]string
	// Scan holds $scan section lines for PES scans, e.g. "stre 1 2 1.0 2.0 0.1".
	Scan []string
}

func baseRem(jobType string) map[string]string {
	return map[string]string{
		"job_type":       jobType,
		"method":         "wb97mv",
		"basis":          "def2-tzvppd",
		"scf_algorithm":  "diis",
		"max_scf_cycles": "100",
		"gen_scfman":     "true",
		"xc_grid":        "3",
		"thresh":         "14",
		"s2thresh":       "16",
		"sym_ignore":     "true",
		"symmetry":       "false",
		"resp_charges":   "true",
	}
}

// SinglePointSet converges the electron density at a fixed geometry.
func SinglePointSet() InputSet {
	return InputSet{Name: "single point", Rem: baseRem("sp")}
}

// OptSet optimizes the molecular geometry.
func OptSet() InputSet {
	rem := baseRem("opt")
	rem["geom_opt_max_cycles"] = "200"
	return InputSet{Name: "optimization", Rem: rem}
}

// ForceSet converges the density and computes the nuclear gradient.
func ForceSet() InputSet {
	return InputSet{Name: "force", Rem: baseRem("force")}
}

// TransitionStateSet optimizes toward a first-order saddle point.
func TransitionStateSet() InputSet {
	rem := baseRem("ts")
	rem["geom_opt_max_cycles"] = "200"
	return InputSet{Name: "transition state", Rem: rem}
}

// FreqSet computes harmonic vibrational frequencies.
func FreqSet() InputSet {
	return InputSet{Name: "frequency", Rem: baseRem("freq")}
}

// PESScanSet scans the potential energy surface along internal coordinates.
// Callers append $scan lines describing the varied coordinates.
func PESScanSet(scan ...string) InputSet {
	return InputSet{Name: "pes scan", Rem: baseRem("pes_scan"), Scan: scan}
}

// WriteInput renders the molecule and $rem section into dir/mol.qin.
func (s InputSet) WriteInput(dir string, mol *structure.Molecule) error {
	if mol == nil {
		return services.Wrap(services.ErrValidation, "qchem", "write input", "no molecule to write", nil)
	}
	if s.Rem["job_type"] == "pes_scan" && len(s.Scan) == 0 {
		return services.Wrap(services.ErrValidation, "qchem", "write input",
			"a PES scan needs at least one $scan coordinate", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("$molecule\n")
	b.WriteString(mol.MoleculeBlock())
	b.WriteString("$end\n\n$rem\n")

	keys := make([]string, 0, len(s.Rem))
	for k := range s.Rem {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "   %s = %s\n", k, s.Rem[k])
	}
	b.WriteString("$end\n")

	if len(s.Scan) > 0 {
		b.WriteString("\n$scan\n")
		for _, line := range s.Scan {
			fmt.Fprintf(&b, "   %s\n", line)
		}
		b.WriteString("$end\n")
	}

	return os.WriteFile(filepath.Join(dir, InputFileName), []byte(b.String()), 0o644)
}
