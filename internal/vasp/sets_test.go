package vasp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"atomflow/internal/structure"
)

func silicon(t *testing.T) *structure.Structure {
	t.Helper()
	s, err := structure.New(structure.CubicLattice(5.43), []structure.Site{
		{Species: "Si", Frac: [3]float64{0, 0, 0}},
		{Species: "Si", Frac: [3]float64{0.25, 0.25, 0.25}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestWriteInputs(t *testing.T) {
	dir := t.TempDir()
	if err := RelaxSet().WriteInputs(dir, silicon(t)); err != nil {
		t.Fatal(err)
	}

	incar, err := os.ReadFile(filepath.Join(dir, "INCAR"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(incar)
	for _, want := range []string{"IBRION = 2", "ISIF = 3", "NSW = 99", "LWAVE = .FALSE."} {
		if !strings.Contains(text, want) {
			t.Errorf("INCAR missing %q:\n%s", want, text)
		}
	}

	kpoints, err := os.ReadFile(filepath.Join(dir, "KPOINTS"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(kpoints), "Gamma") {
		t.Fatalf("KPOINTS missing Gamma style:\n%s", kpoints)
	}

	poscar, err := os.ReadFile(filepath.Join(dir, "POSCAR"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := structure.ReadPoscarString(string(poscar)); err != nil {
		t.Fatalf("written POSCAR unparseable: %v", err)
	}
}

func TestWriteInputsMagmom(t *testing.T) {
	s := silicon(t)
	s.Sites[0].Properties = map[string]float64{structure.MagmomProperty: 0.6}
	s.Sites[1].Properties = map[string]float64{structure.MagmomProperty: -0.6}

	dir := t.TempDir()
	if err := StaticSet().WriteInputs(dir, s); err != nil {
		t.Fatal(err)
	}
	incar, err := os.ReadFile(filepath.Join(dir, "INCAR"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(incar), "ISPIN = 2") {
		t.Fatalf("INCAR missing ISPIN for magnetic structure:\n%s", incar)
	}
	if !strings.Contains(string(incar), "MAGMOM = 0.6 -0.6") {
		t.Fatalf("INCAR missing MAGMOM line:\n%s", incar)
	}
}

func TestSetFlavors(t *testing.T) {
	cases := []struct {
		set  InputSet
		key  string
		want string
	}{
		{MPGGARelaxSet(), "GGA", "PE"},
		{MPPreRelaxSet(), "GGA", "PS"},
		{MPMetaGGARelaxSet(), "METAGGA", "R2SCAN"},
		{MP24RelaxSet(), "ENCUT", ""},
		{LobsterStaticSet(), "ISYM", ""},
	}
	for _, tc := range cases {
		v, ok := tc.set.Incar[tc.key]
		if !ok {
			t.Errorf("%s: missing %s", tc.set.Name, tc.key)
			continue
		}
		if tc.want != "" && v != tc.want {
			t.Errorf("%s: %s = %v, want %v", tc.set.Name, tc.key, v, tc.want)
		}
	}

	if MP24RelaxSet().Incar["ENCUT"] != 680 {
		t.Fatal("MP24 sets should raise the cutoff to 680")
	}
	if LobsterStaticSet().Incar["ISYM"] != 0 {
		t.Fatal("lobster static set must disable symmetry")
	}
	if LobsterStaticSet().Incar["LWAVE"] != true {
		t.Fatal("lobster static set must keep the wavefunction")
	}
}

func TestLobsterSetEstimatesBands(t *testing.T) {
	dir := t.TempDir()
	if err := LobsterStaticSet().WriteInputs(dir, silicon(t)); err != nil {
		t.Fatal(err)
	}
	incar, err := os.ReadFile(filepath.Join(dir, "INCAR"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(incar), "NBANDS = 16") {
		t.Fatalf("NBANDS not estimated from structure:\n%s", incar)
	}
}

func TestKpointsGridFromDensity(t *testing.T) {
	k := Kpoints{LineDensity: 64, Gamma: true}
	text := k.render(silicon(t))
	if !strings.Contains(text, "12 12 12") {
		t.Fatalf("unexpected grid for 5.43 A cubic cell:\n%s", text)
	}

	fixed := Kpoints{Grid: [3]int{2, 3, 4}}
	if !strings.Contains(fixed.render(silicon(t)), "2 3 4") {
		t.Fatal("explicit grid not honored")
	}
}
