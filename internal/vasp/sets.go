package vasp

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"atomflow/internal/services"
	"atomflow/internal/structure"
)

// Kpoints selects the k-point mesh for a calculation. A zero Grid is
// computed from LineDensity and the cell dimensions at write time.
type Kpoints struct {
	Grid [3]int
	// LineDensity is the target of grid points times axis length in
	// angstroms, so longer axes get fewer subdivisions.
	LineDensity float64
	Gamma       bool
}

// InputSet holds the INCAR parameters and k-point settings for one
// calculation type.
type InputSet struct {
	Name    string
	Incar   map[string]any
	Kpoints Kpoints
}

const defaultLineDensity = 64.0

// baseIncar returns settings shared by every set.
func baseIncar() map[string]any {
	return map[string]any{
		"ALGO":   "Normal",
		"EDIFF":  1e-6,
		"ENCUT":  520,
		"ISMEAR": 0,
		"SIGMA":  0.05,
		"LREAL":  "Auto",
		"LWAVE":  false,
		"LCHARG": true,
		"NELM":   100,
	}
}

func relaxIncar() map[string]any {
	incar := baseIncar()
	incar["IBRION"] = 2
	incar["ISIF"] = 3
	incar["NSW"] = 99
	incar["EDIFFG"] = -0.02
	return incar
}

func staticIncar() map[string]any {
	incar := baseIncar()
	incar["IBRION"] = -1
	incar["NSW"] = 0
	incar["ISMEAR"] = -5
	return incar
}

// RelaxSet is the plain PBE relaxation set.
func RelaxSet() InputSet {
	return InputSet{
		Name:    "relax",
		Incar:   relaxIncar(),
		Kpoints: Kpoints{LineDensity: defaultLineDensity, Gamma: true},
	}
}

// StaticSet is the plain PBE static set.
func StaticSet() InputSet {
	return InputSet{
		Name:    "static",
		Incar:   staticIncar(),
		Kpoints: Kpoints{LineDensity: defaultLineDensity, Gamma: true},
	}
}

// MPGGARelaxSet is the Materials Project PBE+U relaxation set.
func MPGGARelaxSet() InputSet {
	incar := relaxIncar()
	incar["GGA"] = "PE"
	incar["LDAU"] = true
	incar["LORBIT"] = 11
	return InputSet{
		Name:    "MP GGA relax",
		Incar:   incar,
		Kpoints: Kpoints{LineDensity: defaultLineDensity, Gamma: true},
	}
}

// MPGGAStaticSet is the Materials Project PBE+U static set.
func MPGGAStaticSet() InputSet {
	incar := staticIncar()
	incar["GGA"] = "PE"
	incar["LDAU"] = true
	incar["LORBIT"] = 11
	return InputSet{
		Name:    "MP GGA static",
		Incar:   incar,
		Kpoints: Kpoints{LineDensity: defaultLineDensity, Gamma: true},
	}
}

// MPPreRelaxSet is the cheap PBEsol pre-relaxation preceding a meta-GGA
// relaxation.
func MPPreRelaxSet() InputSet {
	incar := relaxIncar()
	incar["GGA"] = "PS"
	incar["EDIFFG"] = -0.05
	return InputSet{
		Name:    "MP pre-relax",
		Incar:   incar,
		Kpoints: Kpoints{LineDensity: defaultLineDensity / 2, Gamma: true},
	}
}

// MPMetaGGARelaxSet is the Materials Project r2SCAN relaxation set.
func MPMetaGGARelaxSet() InputSet {
	incar := relaxIncar()
	incar["METAGGA"] = "R2SCAN"
	incar["LASPH"] = true
	incar["LMIXTAU"] = true
	return InputSet{
		Name:    "MP meta-GGA relax",
		Incar:   incar,
		Kpoints: Kpoints{LineDensity: defaultLineDensity, Gamma: true},
	}
}

// MPMetaGGAStaticSet is the Materials Project r2SCAN static set.
func MPMetaGGAStaticSet() InputSet {
	incar := staticIncar()
	incar["METAGGA"] = "R2SCAN"
	incar["LASPH"] = true
	incar["LMIXTAU"] = true
	return InputSet{
		Name:    "MP meta-GGA static",
		Incar:   incar,
		Kpoints: Kpoints{LineDensity: defaultLineDensity, Gamma: true},
	}
}

// MP24PreRelaxSet is the MP24 PBEsol pre-relaxation set.
func MP24PreRelaxSet() InputSet {
	set := MPPreRelaxSet()
	set.Name = "MP24 pre-relax"
	set.Incar["ENCUT"] = 680
	return set
}

// MP24RelaxSet is the MP24 r2SCAN relaxation set with tightened cutoffs.
func MP24RelaxSet() InputSet {
	set := MPMetaGGARelaxSet()
	set.Name = "MP24 relax"
	set.Incar["ENCUT"] = 680
	set.Incar["EDIFFG"] = -0.02
	return set
}

// MP24StaticSet is the MP24 r2SCAN static set.
func MP24StaticSet() InputSet {
	set := MPMetaGGAStaticSet()
	set.Name = "MP24 static"
	set.Incar["ENCUT"] = 680
	return set
}

// LobsterStaticSet prepares the wavefunction a LOBSTER run consumes:
// symmetry off, wavefunction kept, plane-wave coefficients for every band.
func LobsterStaticSet() InputSet {
	incar := staticIncar()
	incar["ISYM"] = 0
	incar["LWAVE"] = true
	incar["ISMEAR"] = 0
	incar["NBANDS"] = 0 // recomputed per structure at write time
	return InputSet{
		Name:    "lobster static",
		Incar:   incar,
		Kpoints: Kpoints{LineDensity: defaultLineDensity, Gamma: true},
	}
}

// WriteInputs writes INCAR, KPOINTS and POSCAR for the structure into dir.
func (s InputSet) WriteInputs(dir string, str *structure.Structure) error {
	if str == nil {
		return services.Wrap(services.ErrValidation, "vasp", "write inputs", "no structure to write", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	incar := make(map[string]any, len(s.Incar)+1)
	for k, v := range s.Incar {
		incar[k] = v
	}
	if nb, ok := incar["NBANDS"]; ok && nb == 0 {
		// Rough electron-count based band estimate for LOBSTER runs.
		incar["NBANDS"] = 8 * str.NumSites()
	}
	if str.HasSiteProperty(structure.MagmomProperty) {
		incar["MAGMOM"] = magmomLine(str)
		incar["ISPIN"] = 2
	}

	if err := os.WriteFile(filepath.Join(dir, "INCAR"), []byte(renderIncar(incar)), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "KPOINTS"), []byte(s.Kpoints.render(str)), 0o644); err != nil {
		return err
	}

	poscar, err := os.Create(filepath.Join(dir, "POSCAR"))
	if err != nil {
		return err
	}
	if err := str.WritePoscar(poscar); err != nil {
		_ = poscar.Close()
		return err
	}
	return poscar.Close()
}

func renderIncar(incar map[string]any) string {
	keys := make([]string, 0, len(incar))
	for k := range incar {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s = %s\n", k, formatIncarValue(incar[k]))
	}
	return b.String()
}

func formatIncarValue(v any) string {
	switch val := v.(type) {
	case bool:
		if val {
			return ".TRUE."
		}
		return ".FALSE."
	case float64:
		if val != 0 && (math.Abs(val) < 1e-4 || math.Abs(val) >= 1e6) {
			return fmt.Sprintf("%.0E", val)
		}
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", val), "0"), ".")
	case int:
		return fmt.Sprintf("%d", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func magmomLine(str *structure.Structure) string {
	parts := make([]string, 0, str.NumSites())
	for _, site := range str.Sites {
		parts = append(parts, formatIncarValue(site.Properties[structure.MagmomProperty]))
	}
	return strings.Join(parts, " ")
}

func (k Kpoints) render(str *structure.Structure) string {
	grid := k.Grid
	if grid == [3]int{} {
		density := k.LineDensity
		if density <= 0 {
			density = defaultLineDensity
		}
		lengths := str.Lattice.Lengths()
		for i := 0; i < 3; i++ {
			n := int(math.Round(density / lengths[i]))
			if n < 1 {
				n = 1
			}
			grid[i] = n
		}
	}
	style := "Monkhorst-Pack"
	if k.Gamma {
		style = "Gamma"
	}
	return fmt.Sprintf("Automatic mesh\n0\n%s\n%d %d %d\n0 0 0\n", style, grid[0], grid[1], grid[2])
}
