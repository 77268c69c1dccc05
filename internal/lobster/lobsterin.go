package lobster

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"atomflow/internal/services"
)

// InputFileName is the control file LOBSTER reads from its working directory.
const InputFileName = "lobsterin"

// InputSet holds the lobsterin parameters for one LOBSTER run.
type InputSet struct {
	// Settings are scalar lobsterin keywords; an empty value renders the
	// keyword alone, e.g. "saveProjectionToFile".
	Settings map[string]string
	// Basis assigns projection basis functions per element.
	Basis BasisSet
}

// StandardInputSet returns the parameters used for projections against a
// PAW wavefunction, matching the settings the static input set prepares for.
func StandardInputSet(basis BasisSet) InputSet {
	return InputSet{
		Settings: map[string]string{
			"COHPstartEnergy":      "-35.0",
			"COHPendEnergy":        "5.0",
			"basisSet":             "pbeVaspFit2015",
			"cohpGenerator":        "from 0.1 to 6.0 orbitalwise",
			"saveProjectionToFile": "",
		},
		Basis: basis,
	}
}

// WriteInput renders the set into dir/lobsterin. Scalar settings come first
// in sorted order, then one basisfunctions line per element.
func (s InputSet) WriteInput(dir string) error {
	if len(s.Basis) == 0 {
		return services.Wrap(services.ErrValidation, "lobster", "write input",
			"no basis functions to write", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var b strings.Builder
	keys := make([]string, 0, len(s.Settings))
	for k := range s.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := s.Settings[k]; v == "" {
			fmt.Fprintf(&b, "%s\n", k)
		} else {
			fmt.Fprintf(&b, "%s %s\n", k, v)
		}
	}

	elements := make([]string, 0, len(s.Basis))
	for el := range s.Basis {
		elements = append(elements, el)
	}
	sort.Strings(elements)
	for _, el := range elements {
		fmt.Fprintf(&b, "basisfunctions %s %s\n", el, s.Basis[el])
	}

	return os.WriteFile(filepath.Join(dir, InputFileName), []byte(b.String()), 0o644)
}
