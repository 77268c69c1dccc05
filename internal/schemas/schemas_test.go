package schemas

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"atomflow/internal/structure"
)

func gaas(t *testing.T) *structure.Structure {
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

func TestTaskDocValidate(t *testing.T) {
	doc := &TaskDoc{
		UUID:    uuid.New(),
		DirName: "/calc/relax1",
		State:   StateSuccessful,
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("valid doc rejected: %v", err)
	}

	bad := *doc
	bad.UUID = uuid.Nil
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for missing uuid")
	}

	bad = *doc
	bad.DirName = ""
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for missing dir_name")
	}

	bad = *doc
	bad.State = "running"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for invalid state")
	}
}

func TestStripHostname(t *testing.T) {
	cases := map[string]string{
		"cluster01:/scratch/calc": "/scratch/calc",
		"/scratch/calc":           "/scratch/calc",
		"":                        "",
	}
	for in, want := range cases {
		if got := StripHostname(in); got != want {
			t.Errorf("StripHostname(%q) = %q, want %q", in, got, want)
		}
	}

	doc := &TaskDoc{DirName: "node7:/work/static"}
	if got := doc.LocalDir(); got != "/work/static" {
		t.Fatalf("LocalDir() = %q", got)
	}
}

func TestChemsys(t *testing.T) {
	if got := Chemsys(gaas(t)); got != "As-Ga" {
		t.Fatalf("Chemsys() = %q, want As-Ga", got)
	}
	if got := Chemsys(nil); got != "" {
		t.Fatalf("Chemsys(nil) = %q", got)
	}
}

func TestTaskDocJSONFieldNames(t *testing.T) {
	doc := &TaskDoc{
		UUID:      uuid.New(),
		TaskLabel: "static",
		DirName:   "/calc/static",
		State:     StateSuccessful,
		Output:    OutputSummary{Energy: -10.5},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"task_label"`, `"dir_name"`, `"state"`, `"output"`, `"energy"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("serialized doc missing %s:\n%s", field, data)
		}
	}
}

func TestLobsterTaskDocValidate(t *testing.T) {
	doc := &LobsterTaskDoc{
		DirName: "/calc/lobster",
		State:   StateSuccessful,
		StrongestBondsICOHP: &StrongestBonds{
			WhichBonds: "all",
			Bonds:      map[string]StrongestBond{"As-Ga": {Value: -4.32971, Length: 2.4899}},
		},
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("valid doc rejected: %v", err)
	}

	doc.StrongestBondsICOHP.WhichBonds = "some"
	if err := doc.Validate(); err == nil {
		t.Fatal("expected error for invalid which_bonds")
	}
}

func TestNewCCDDocument(t *testing.T) {
	s := gaas(t)
	curve := func(n int) []CCDInput {
		inputs := make([]CCDInput, n)
		for i := range inputs {
			inputs[i] = CCDInput{
				Structure: s,
				Energy:    -10 + float64(i),
				DirName:   "/calc/static",
				UUID:      uuid.New(),
			}
		}
		return inputs
	}

	in1, in2 := curve(5), curve(5)
	doc, err := NewCCDDocument(in1, in2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Energies1) != 5 || len(doc.Energies2) != 5 {
		t.Fatalf("curve lengths %d/%d, want 5/5", len(doc.Energies1), len(doc.Energies2))
	}
	if doc.RelaxedUUID1 != in1[2].UUID || doc.RelaxedUUID2 != in2[2].UUID {
		t.Fatal("relaxed UUIDs do not match the undistorted index")
	}

	if _, err := NewCCDDocument(nil, in2, 0); err == nil {
		t.Fatal("expected error for empty curve")
	}
	if _, err := NewCCDDocument(in1, in2, 7); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
}

func TestFiniteDifferenceDocumentValidate(t *testing.T) {
	doc := &FiniteDifferenceDocument{
		DirName:       "/calc/fd",
		RefDir:        "/calc/ref",
		DistortedDirs: []string{"/calc/d0", "/calc/d1"},
		WSWQFiles:     []string{"WSWQ.0", "WSWQ.1"},
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("valid doc rejected: %v", err)
	}

	doc.WSWQFiles = doc.WSWQFiles[:1]
	if err := doc.Validate(); err == nil {
		t.Fatal("expected error for count mismatch")
	}
}
