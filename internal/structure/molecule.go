package structure

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Molecule is an isolated (non-periodic) collection of atoms with a net
// charge and spin multiplicity, the unit quantum-chemistry codes operate on.
type Molecule struct {
	Species          []string     `json:"species"`
	Coords           [][3]float64 `json:"coords"`
	Charge           int          `json:"charge"`
	SpinMultiplicity int          `json:"spin_multiplicity"`
}

// NewMolecule builds a molecule and validates its shape.
func NewMolecule(species []string, coords [][3]float64, charge, spin int) (*Molecule, error) {
	if len(species) == 0 {
		return nil, fmt.Errorf("molecule requires at least one atom")
	}
	if len(species) != len(coords) {
		return nil, fmt.Errorf("species/coords length mismatch: %d vs %d", len(species), len(coords))
	}
	if spin < 1 {
		return nil, fmt.Errorf("spin multiplicity must be at least 1, got %d", spin)
	}
	return &Molecule{Species: species, Coords: coords, Charge: charge, SpinMultiplicity: spin}, nil
}

// NumAtoms returns the number of atoms.
func (m *Molecule) NumAtoms() int {
	return len(m.Species)
}

// Copy returns a deep copy of the molecule.
func (m *Molecule) Copy() *Molecule {
	species := make([]string, len(m.Species))
	copy(species, m.Species)
	coords := make([][3]float64, len(m.Coords))
	copy(coords, m.Coords)
	return &Molecule{Species: species, Coords: coords, Charge: m.Charge, SpinMultiplicity: m.SpinMultiplicity}
}

// Formula returns the chemical formula with species in alphabetical order.
func (m *Molecule) Formula() string {
	counts := map[string]int{}
	for _, sp := range m.Species {
		counts[sp]++
	}
	species := make([]string, 0, len(counts))
	for sp := range counts {
		species = append(species, sp)
	}
	sort.Strings(species)

	var b strings.Builder
	for _, sp := range species {
		b.WriteString(sp)
		if counts[sp] > 1 {
			fmt.Fprintf(&b, "%d", counts[sp])
		}
	}
	return b.String()
}

// WriteXYZ renders the molecule in XYZ format: atom count, formula comment,
// then one "El x y z" line per atom.
func (m *Molecule) WriteXYZ(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\n%s\n", len(m.Species), m.Formula())
	for i, sp := range m.Species {
		fmt.Fprintf(&b, "%-3s %14.8f %14.8f %14.8f\n", sp, m.Coords[i][0], m.Coords[i][1], m.Coords[i][2])
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// MoleculeBlock renders the $molecule section of a Q-Chem input: the charge
// and spin line followed by cartesian atom lines.
func (m *Molecule) MoleculeBlock() string {
	var b strings.Builder
	fmt.Fprintf(&b, " %d %d\n", m.Charge, m.SpinMultiplicity)
	for i, sp := range m.Species {
		fmt.Fprintf(&b, " %s %14.10f %14.10f %14.10f\n", sp, m.Coords[i][0], m.Coords[i][1], m.Coords[i][2])
	}
	return b.String()
}
