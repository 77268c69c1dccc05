package lobster

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"atomflow/internal/services"
)

//go:embed basis_pbe54.yaml
var defaultBasisData []byte

// BasisSet assigns a space-separated basis function list to each element,
// e.g. {"Ga": "4s 4p", "As": "4s 4p"}.
type BasisSet map[string]string

// BasisTable holds the per-element minimal and maximal basis functions that
// candidate basis sets are enumerated between.
type BasisTable struct {
	Min map[string]string `yaml:"min"`
	Max map[string]string `yaml:"max"`
}

// DefaultBasisTable returns the bundled PBE 5.4 basis table.
func DefaultBasisTable() (*BasisTable, error) {
	return parseBasisTable(defaultBasisData)
}

// LoadBasisTable reads a basis table from a YAML file, falling back to the
// bundled table when path is empty.
func LoadBasisTable(path string) (*BasisTable, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultBasisTable()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "lobster", "load basis table",
			"basis file unreadable", err)
	}
	return parseBasisTable(data)
}

func parseBasisTable(data []byte) (*BasisTable, error) {
	var table BasisTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "lobster", "load basis table",
			"malformed basis YAML", err)
	}
	if len(table.Min) == 0 || len(table.Max) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "lobster", "load basis table",
			"basis table needs both min and max sections", nil)
	}
	return &table, nil
}

// Combinations enumerates every basis set between the minimal and maximal
// basis for the given species. Each element contributes its minimal basis
// plus any subset of the extra orbitals its maximal basis allows, and the
// element choices multiply out into full combinations. The minimal
// combination comes first.
func (t *BasisTable) Combinations(species []string) ([]BasisSet, error) {
	elements := uniqueElements(species)
	if len(elements) == 0 {
		return nil, services.Wrap(services.ErrValidation, "lobster", "basis combinations",
			"no species given", nil)
	}

	perElement := make([][]string, len(elements))
	for i, el := range elements {
		minBasis, ok := t.Min[el]
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "lobster", "basis combinations",
				"no basis functions known for element "+el, nil)
		}
		maxBasis := t.Max[el]
		perElement[i] = basisOptions(minBasis, maxBasis)
	}

	combos := []BasisSet{{}}
	for i, el := range elements {
		var next []BasisSet
		for _, combo := range combos {
			for _, option := range perElement[i] {
				grown := BasisSet{}
				for k, v := range combo {
					grown[k] = v
				}
				grown[el] = option
				next = append(next, grown)
			}
		}
		combos = next
	}
	return combos, nil
}

// basisOptions lists the basis choices for one element: the minimal basis
// plus every subset of the extra orbitals, smallest first.
func basisOptions(minBasis, maxBasis string) []string {
	minOrbitals := strings.Fields(minBasis)
	inMin := map[string]bool{}
	for _, orb := range minOrbitals {
		inMin[orb] = true
	}
	var extras []string
	for _, orb := range strings.Fields(maxBasis) {
		if !inMin[orb] {
			extras = append(extras, orb)
		}
	}

	options := make([]string, 0, 1<<len(extras))
	for mask := 0; mask < 1<<len(extras); mask++ {
		orbitals := append([]string(nil), minOrbitals...)
		for bit, orb := range extras {
			if mask&(1<<bit) != 0 {
				orbitals = append(orbitals, orb)
			}
		}
		options = append(options, strings.Join(orbitals, " "))
	}
	return options
}

func uniqueElements(species []string) []string {
	seen := map[string]bool{}
	var elements []string
	for _, s := range species {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		elements = append(elements, s)
	}
	sort.Strings(elements)
	return elements
}
