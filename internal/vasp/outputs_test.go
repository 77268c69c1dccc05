package vasp

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"atomflow/internal/fileutil"
	"atomflow/internal/schemas"
)

const sampleOszicar = `       N       E                     dE             d eps       ncg     rms          rms(c)
DAV:   1    -0.138763304231E+02   -0.13876E+02   -0.33418E+00  8    0.118E+01
DAV:   2    -0.139214570270E+02   -0.45127E-01   -0.44950E-01  8    0.194E+00
DAV:   3    -0.139221586225E+02   -0.70160E-03   -0.70160E-03  8    0.252E-01
   1 F= -.13922159E+02 E0= -.13922159E+02  d E =-.139222E+02
DAV:   1    -0.139230112800E+02   -0.85266E-03   -0.12040E-03  8    0.104E-01
DAV:   2    -0.139230240310E+02   -0.12751E-04   -0.12751E-04  8    0.131E-02
   2 F= -.13923024E+02 E0= -.13923024E+02  d E =-.865103E-03
`

const sampleOutcar = ` running on   16 total cores
 POSITION                                       TOTAL-FORCE (eV/Angst)
 -----------------------------------------------------------------------------------
      0.00000      0.00000      0.00000         0.000012     -0.000034      0.000001
      1.35750      1.35750      1.35750        -0.000012      0.000034     -0.000001
 -----------------------------------------------------------------------------------
  FORCE on cell =-STRESS in cart. coord.  units (eV):
  in kB      -2.34062    -2.34062    -2.34062     0.00000     0.00000     0.00000
 General timing and accounting informations for this job:
                  Elapsed time (sec):      113.647
`

func writeCalcDir(t *testing.T, gz bool) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"OSZICAR": sampleOszicar,
		"OUTCAR":  sampleOutcar,
		"INCAR":   "NSW = 99\nIBRION = 2\n",
	}
	poscar := silicon(t).Poscar()
	files["POSCAR"] = poscar
	files["CONTCAR"] = poscar

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if gz {
			if err := fileutil.GzipFile(path); err != nil {
				t.Fatal(err)
			}
		}
	}
	return dir
}

func TestParseOszicar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "OSZICAR")
	if err := os.WriteFile(path, []byte(sampleOszicar), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := parseOszicar(path)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(summary.Energy - -13.923024) > 1e-6 {
		t.Fatalf("energy = %v", summary.Energy)
	}
	if summary.IonicSteps != 2 {
		t.Fatalf("ionic steps = %d, want 2", summary.IonicSteps)
	}
	if summary.ElectronicIter != 2 {
		t.Fatalf("electronic iterations = %d, want 2", summary.ElectronicIter)
	}
}

func TestParseOutcar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "OUTCAR")
	if err := os.WriteFile(path, []byte(sampleOutcar), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := parseOutcar(path)
	if err != nil {
		t.Fatal(err)
	}
	if !summary.Finished {
		t.Fatal("completion marker not detected")
	}
	if summary.Cores != 16 {
		t.Fatalf("cores = %d, want 16", summary.Cores)
	}
	if math.Abs(summary.ElapsedTime-113.647) > 1e-9 {
		t.Fatalf("elapsed = %v", summary.ElapsedTime)
	}
	if len(summary.Forces) != 2 {
		t.Fatalf("got %d force rows, want 2", len(summary.Forces))
	}
	if math.Abs(summary.Forces[1][1]-0.000034) > 1e-12 {
		t.Fatalf("force[1][1] = %v", summary.Forces[1][1])
	}
	if math.Abs(summary.Stress[0][0] - -2.34062) > 1e-9 {
		t.Fatalf("stress[0][0] = %v", summary.Stress[0][0])
	}
}

func TestParseDirectory(t *testing.T) {
	for name, gz := range map[string]bool{"plain": false, "gzipped": true} {
		t.Run(name, func(t *testing.T) {
			dir := writeCalcDir(t, gz)
			doc, err := ParseDirectory(dir)
			if err != nil {
				t.Fatal(err)
			}
			if doc.State != schemas.StateSuccessful {
				t.Fatalf("state = %q", doc.State)
			}
			if doc.Formula != "Si" {
				t.Fatalf("formula = %q", doc.Formula)
			}
			if math.Abs(doc.Output.Energy - -13.923024) > 1e-6 {
				t.Fatalf("energy = %v", doc.Output.Energy)
			}
			if math.Abs(doc.Output.EnergyPerAtom - -13.923024/2) > 1e-6 {
				t.Fatalf("energy per atom = %v", doc.Output.EnergyPerAtom)
			}
			if doc.Input.Parameters["NSW"] != "99" {
				t.Fatalf("parameters = %v", doc.Input.Parameters)
			}
			if doc.RunStats.Cores != 16 || doc.RunStats.IonicSteps != 2 {
				t.Fatalf("run stats = %+v", doc.RunStats)
			}
		})
	}
}

func TestParseDirectoryIncomplete(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "OSZICAR"), []byte(sampleOszicar), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseDirectory(dir); err == nil {
		t.Fatal("expected error for directory without OUTCAR")
	}
}
