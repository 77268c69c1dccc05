package lobster

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"atomflow/internal/flow"
	"atomflow/internal/logging"
	"atomflow/internal/schemas"
	"atomflow/internal/structure"
	"atomflow/internal/testsupport"
	"atomflow/internal/vasp"
)

func gaasStructure(t *testing.T) *structure.Structure {
	t.Helper()
	s, err := structure.New(structure.CubicLattice(5.65), []structure.Site{
		{Species: "Ga", Frac: [3]float64{0, 0, 0}},
		{Species: "As", Frac: [3]float64{0.25, 0.25, 0.25}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestBasisCombinations(t *testing.T) {
	table, err := DefaultBasisTable()
	if err != nil {
		t.Fatal(err)
	}
	// Ga allows an extra 3d orbital, As has none, so two combinations.
	combos, err := table.Combinations([]string{"Ga", "As", "Ga"})
	if err != nil {
		t.Fatal(err)
	}
	if len(combos) != 2 {
		t.Fatalf("got %d combinations, want 2", len(combos))
	}
	if combos[0]["Ga"] != "4s 4p" || combos[0]["As"] != "4s 4p" {
		t.Fatalf("minimal combination = %v", combos[0])
	}
	if combos[1]["Ga"] != "4s 4p 3d" {
		t.Fatalf("extended combination = %v", combos[1])
	}
}

func TestBasisCombinationsUnknownElement(t *testing.T) {
	table, err := DefaultBasisTable()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := table.Combinations([]string{"Xx"}); err == nil {
		t.Fatal("expected an error for an unknown element")
	}
}

func TestWriteLobsterin(t *testing.T) {
	dir := t.TempDir()
	set := StandardInputSet(BasisSet{"Ga": "4s 4p", "As": "4s 4p"})
	if err := set.WriteInput(dir); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, InputFileName))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		"COHPstartEnergy -35.0",
		"COHPendEnergy 5.0",
		"cohpGenerator from 0.1 to 6.0 orbitalwise",
		"saveProjectionToFile\n",
		"basisfunctions As 4s 4p",
		"basisfunctions Ga 4s 4p",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("lobsterin missing %q:\n%s", want, text)
		}
	}
}

const sampleLobsterout = `LOBSTER v4.1.0
setting up local basis functions...
basis functions for Ga (list): 4s 4p
basis functions for As (list): 4s 4p
writing COHPCAR.lobster and ICOHPLIST.lobster...
writing COOPCAR.lobster and ICOOPLIST.lobster...
writing COBICAR.lobster and ICOBILIST.lobster...
writing CHARGE.lobster...
writing MadelungEnergies.lobster...
abs. total spilling: 2.02%
abs. charge spilling: 1.24%
finished in 12 s
`

const sampleChargeFile = `#Atom charges
#Atom   Mulliken charge   Loewdin charge
1   Ga    0.78    0.66
2   As   -0.78   -0.66
`

const sampleICOHPList = `COHP#  atom1  atom2  distance  tx ty tz  ICOHP
1  Ga1  As2  2.4465  0  0  0  -4.3290
2  Ga1  As2  2.4465  0  1  0  -4.1210
3  Ga1  Ga1  3.9950  1  0  0  -0.1200
`

const sampleMadelung = `MadelungEnergies (eV)  Mulliken  Loewdin  EwaldSplitting
 -101.5400  -98.2300  0.4400
`

const sampleSitePotentials = `#SitePotentials (eV)
1  Ga  -10.1000  -9.8000
2  As   10.1000   9.8000
Ewald splitting parameter: 0.4400
`

const sampleGrossPop = `#Gross populations
1  Ga  4s  1.3500  1.2900
       4p  2.1000  2.0500
       total  3.4500  3.3400
2  As  4s  1.7800  1.8200
       4p  3.1000  3.1500
       total  4.8800  4.9700
`

func writeLobsterDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		OutputFileName:             sampleLobsterout,
		"CHARGE.lobster":           sampleChargeFile,
		"ICOHPLIST.lobster":        sampleICOHPList,
		"MadelungEnergies.lobster": sampleMadelung,
		"SitePotentials.lobster":   sampleSitePotentials,
		"GROSSPOP.lobster":         sampleGrossPop,
	}
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "CONTCAR"), []byte(gaasStructure(t).Poscar()), 0o644); err != nil {
		t.Fatal(err)
	}
	set := StandardInputSet(BasisSet{"Ga": "4s 4p", "As": "4s 4p"})
	if err := set.WriteInput(dir); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestParseDirectory(t *testing.T) {
	doc, err := ParseDirectory(writeLobsterDir(t))
	if err != nil {
		t.Fatal(err)
	}
	if doc.State != schemas.StateSuccessful {
		t.Fatalf("state = %q", doc.State)
	}
	if doc.Chemsys != "As-Ga" {
		t.Fatalf("chemsys = %q", doc.Chemsys)
	}
	if len(doc.Lobsterout.Basis) != 2 || doc.Lobsterout.Basis[0] != "4s 4p" {
		t.Fatalf("basis = %v", doc.Lobsterout.Basis)
	}
	if len(doc.Lobsterout.ChargeSpilling) != 1 || doc.Lobsterout.ChargeSpilling[0] != 0.0124 {
		t.Fatalf("charge spilling = %v", doc.Lobsterout.ChargeSpilling)
	}
	if !doc.Lobsterout.HasCOHPCAR || !doc.Lobsterout.HasCOBICAR || !doc.Lobsterout.HasMadelung {
		t.Fatalf("lobsterout flags = %+v", doc.Lobsterout)
	}
	if doc.Lobsterin.COHPStartEnergy != -35.0 || doc.Lobsterin.COHPEndEnergy != 5.0 {
		t.Fatalf("lobsterin = %+v", doc.Lobsterin)
	}
	if got := doc.Charges["Mulliken"]; len(got) != 2 || got[0] != 0.78 {
		t.Fatalf("mulliken charges = %v", got)
	}
	if doc.MadelungEnergies["Loewdin"] != -98.23 {
		t.Fatalf("madelung = %v", doc.MadelungEnergies)
	}
	if doc.EwaldSplitting != 0.44 {
		t.Fatalf("ewald splitting = %v", doc.EwaldSplitting)
	}
	if got := doc.SitePotentials["Mulliken"]; len(got) != 2 || got[0] != -10.1 {
		t.Fatalf("site potentials = %v", got)
	}
	if len(doc.GrossPopulations) != 2 {
		t.Fatalf("gross populations = %v", doc.GrossPopulations)
	}
	if doc.GrossPopulations[0].Mulliken["total"] != 3.45 {
		t.Fatalf("Ga total population = %v", doc.GrossPopulations[0].Mulliken)
	}
	icohp := doc.StrongestBondsICOHP
	if icohp == nil {
		t.Fatal("no strongest ICOHP bonds")
	}
	bond, ok := icohp.Bonds["As-Ga"]
	if !ok || bond.Value != -4.329 || bond.Length != 2.4465 {
		t.Fatalf("As-Ga bond = %+v (present %v)", bond, ok)
	}
	if _, ok := icohp.Bonds["Ga-Ga"]; !ok {
		t.Fatal("Ga-Ga bond missing")
	}
	if doc.StrongestBondsICOOP != nil {
		t.Fatal("ICOOP bonds parsed without an ICOOPLIST file")
	}
}

func TestParseDirectoryUnfinished(t *testing.T) {
	dir := t.TempDir()
	contents := strings.Replace(sampleLobsterout, "finished in 12 s\n", "", 1)
	if err := os.WriteFile(filepath.Join(dir, OutputFileName), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := ParseDirectory(dir)
	if err != nil {
		t.Fatal(err)
	}
	if doc.State != schemas.StateFailed {
		t.Fatalf("state = %q, want failed", doc.State)
	}
}

func TestDroneFindsCalculations(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "lobster_run_0")
	if err := os.MkdirAll(good, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(good, OutputFileName), []byte(sampleLobsterout), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "unrelated"), 0o755); err != nil {
		t.Fatal(err)
	}

	drone := NewDrone(nil)
	paths, err := drone.FindValidPaths(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || paths[0] != good {
		t.Fatalf("paths = %v", paths)
	}

	doc, err := drone.Assimilate(context.Background(), good)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := doc.(*schemas.LobsterTaskDoc); !ok {
		t.Fatalf("doc type %T", doc)
	}
}

func fakeBinary(t *testing.T, name, script string) {
	t.Helper()
	binDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(binDir, name), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func fakeLobsterRunner(t *testing.T) *Runner {
	t.Helper()
	sample := filepath.Join(t.TempDir(), "lobsterout.sample")
	if err := os.WriteFile(sample, []byte(sampleLobsterout), 0o644); err != nil {
		t.Fatal(err)
	}
	fakeBinary(t, "fake_lobster", "#!/bin/sh\ncp "+sample+" lobsterout\n")
	return &Runner{command: "fake_lobster", logger: logging.NewNop()}
}

func TestMakerRunsProjection(t *testing.T) {
	prev := t.TempDir()
	if err := os.WriteFile(filepath.Join(prev, "WAVECAR"), []byte("wave"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(prev, "CONTCAR"), []byte(gaasStructure(t).Poscar()), 0o644); err != nil {
		t.Fatal(err)
	}

	maker := NewMaker(fakeLobsterRunner(t))
	node, err := maker.Make(flow.Dir(prev), BasisSet{"Ga": "4s 4p", "As": "4s 4p"})
	if err != nil {
		t.Fatal(err)
	}

	rt := testsupport.NewRuntime(t)
	resp, err := node.Jobs()[0].Run(context.Background(), rt)
	if err != nil {
		t.Fatal(err)
	}
	doc, ok := resp.Output.(*schemas.LobsterTaskDoc)
	if !ok {
		t.Fatalf("output type %T", resp.Output)
	}
	if doc.State != schemas.StateSuccessful {
		t.Fatalf("state = %q", doc.State)
	}
	// CopyOutputs renames CONTCAR to POSCAR and carries the wavefunction.
	if _, err := os.Stat(filepath.Join(rt.WorkDir, "WAVECAR")); err != nil {
		t.Fatal("WAVECAR not copied")
	}
	if _, err := os.Stat(filepath.Join(rt.WorkDir, "POSCAR")); err != nil {
		t.Fatal("POSCAR not present")
	}
	if _, err := os.Stat(filepath.Join(rt.WorkDir, InputFileName)); err != nil {
		t.Fatal("lobsterin not written")
	}
}

func TestVaspLobsterFlowAssembly(t *testing.T) {
	vaspRunner := vasp.NewRunner(testsupport.NewConfig(t), logging.NewNop())
	maker := NewMPVaspLobsterMaker(vaspRunner, fakeLobsterRunner(t))

	node, err := maker.Make(flow.Structure(gaasStructure(t)), flow.DirArg{})
	if err != nil {
		t.Fatal(err)
	}
	jobs := node.Jobs()
	if len(jobs) != 4 {
		t.Fatalf("got %d jobs, want relax 1, relax 2, static, spawner", len(jobs))
	}
	if jobs[len(jobs)-1].Name != "lobster runs" {
		t.Fatalf("last job = %q", jobs[len(jobs)-1].Name)
	}
}

func TestSpawnBodyReplacesWithProjections(t *testing.T) {
	maker := VaspLobsterMaker{
		Name:           "lobster",
		Lobster:        NewMaker(fakeLobsterRunner(t)),
		DeleteWavecars: true,
	}

	rt := testsupport.NewRuntime(t)
	body := maker.spawnBody(
		flow.Structure(gaasStructure(t)),
		flow.Dir(t.TempDir()),
	)
	resp, err := body(context.Background(), rt)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Replace == nil {
		t.Fatal("no replacement flow")
	}
	jobs := resp.Replace.Jobs()
	// Two basis combinations for GaAs plus the WAVECAR cleanup.
	if len(jobs) != 3 {
		t.Fatalf("got %d jobs, want 3", len(jobs))
	}
	if jobs[0].Name != "lobster run 0" || jobs[1].Name != "lobster run 1" {
		t.Fatalf("run names = %q, %q", jobs[0].Name, jobs[1].Name)
	}
	if jobs[2].Name != "remove workflow files" {
		t.Fatalf("cleanup name = %q", jobs[2].Name)
	}
}
