package flow_test

import (
	"context"
	"testing"

	"atomflow/internal/flow"
	"atomflow/internal/structure"
	"atomflow/internal/testsupport"
)

func TestJobOutputRefPaths(t *testing.T) {
	job := flow.NewJob("relax", nil)

	ref := job.OutputRef("output", "structure")
	if ref.Job != job.ID {
		t.Fatal("reference points at wrong job")
	}
	if ref.Path != "output.structure" {
		t.Fatalf("ref path = %q, want output.structure", ref.Path)
	}
	if got := ref.Field("lattice").Path; got != "output.structure.lattice" {
		t.Fatalf("Field path = %q", got)
	}

	out := job.TaskOutput()
	if out.Structure.Path != "output.structure" || out.DirName.Path != "dir_name" || out.Energy.Path != "output.energy" {
		t.Fatalf("unexpected task output bundle: %+v", out)
	}
	if out.IsZero() {
		t.Fatal("task output bundle should not be zero")
	}
}

func TestJobOptionsAndAppendName(t *testing.T) {
	job := flow.NewJob("static", nil,
		flow.WithOutputSchema("task_doc"),
		flow.WithMetadata("formula", "Si2"),
	)
	if job.OutputSchema != "task_doc" {
		t.Fatalf("OutputSchema = %q", job.OutputSchema)
	}
	if job.Metadata["formula"] != "Si2" {
		t.Fatalf("Metadata = %v", job.Metadata)
	}

	job.AppendName(" 1/2")
	if job.Name != "static 1/2" {
		t.Fatalf("Name = %q", job.Name)
	}
	job.AppendName("   ")
	if job.Name != "static 1/2" {
		t.Fatalf("blank suffix changed name to %q", job.Name)
	}
}

func TestJobRun(t *testing.T) {
	job := flow.NewJob("probe", func(ctx context.Context, rt flow.Runtime) (*flow.Response, error) {
		rt.Progress(50, "halfway")
		return &flow.Response{Output: "done"}, nil
	})

	rt := testsupport.NewRuntime(t)
	resp, err := job.Run(context.Background(), rt)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Output != "done" {
		t.Fatalf("Output = %v", resp.Output)
	}
	if len(rt.ProgressCalls) != 1 || rt.ProgressCalls[0].Message != "halfway" {
		t.Fatalf("progress calls = %+v", rt.ProgressCalls)
	}

	empty := flow.NewJob("empty", nil)
	if _, err := empty.Run(context.Background(), rt); err == nil {
		t.Fatal("expected error running job without body")
	}
}

func TestFlowCollectsJobsDepthFirst(t *testing.T) {
	a := flow.NewJob("a", nil)
	b := flow.NewJob("b", nil)
	c := flow.NewJob("c", nil)

	inner := flow.New("inner", b.TaskOutput(), a, b)
	outer := flow.New("outer", c.TaskOutput(), inner, c)

	jobs := outer.Jobs()
	if len(jobs) != 3 {
		t.Fatalf("got %d jobs, want 3", len(jobs))
	}
	wantOrder := []string{"a", "b", "c"}
	for i, job := range jobs {
		if job.Name != wantOrder[i] {
			t.Fatalf("job %d = %q, want %q", i, job.Name, wantOrder[i])
		}
	}

	if got := outer.TaskOutput(); got.Structure.Job != c.ID {
		t.Fatalf("flow output points at %s, want job c", got.Structure.Job)
	}
}

func TestFlowAddAndSetOutput(t *testing.T) {
	a := flow.NewJob("a", nil)
	f := flow.New("f", a.TaskOutput(), a)

	b := flow.NewJob("b", nil)
	f.Add(b)
	f.SetOutput(b.TaskOutput())

	if len(f.Nodes()) != 2 {
		t.Fatalf("got %d nodes, want 2", len(f.Nodes()))
	}
	if f.TaskOutput().Structure.Job != b.ID {
		t.Fatal("SetOutput did not take effect")
	}
}

func TestDirNames(t *testing.T) {
	a := flow.NewJob("a", nil)
	b := flow.NewJob("b", nil)
	inner := flow.New("inner", b.TaskOutput(), a, b)

	refs := flow.DirNames(inner)
	if len(refs) != 2 {
		t.Fatalf("got %d refs, want 2", len(refs))
	}
	for _, ref := range refs {
		if ref.Path != "dir_name" {
			t.Fatalf("ref path = %q, want dir_name", ref.Path)
		}
	}
}

func TestStructureArgResolve(t *testing.T) {
	s, err := structure.New(structure.CubicLattice(4), []structure.Site{{Species: "Si", Frac: [3]float64{0, 0, 0}}})
	if err != nil {
		t.Fatal(err)
	}

	rt := testsupport.NewRuntime(t)

	got, err := flow.Structure(s).Resolve(rt)
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Fatal("concrete arg should resolve to the wrapped structure")
	}

	job := flow.NewJob("relax", nil)
	ref := job.OutputRef("output", "structure")
	rt.Seed(ref, s)
	got, err = flow.StructureRef(ref).Resolve(rt)
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Fatal("reference arg should resolve through the runtime")
	}

	if _, err := (flow.StructureArg{}).Resolve(rt); err == nil {
		t.Fatal("expected error for empty structure argument")
	}

	rt.Seed(ref, "not a structure")
	if _, err := flow.StructureRef(ref).Resolve(rt); err == nil {
		t.Fatal("expected type error for mis-seeded reference")
	}
}

func TestDirArgResolve(t *testing.T) {
	rt := testsupport.NewRuntime(t)

	got, err := flow.Dir("/calc/relax1").Resolve(rt)
	if err != nil {
		t.Fatal(err)
	}
	if got != "/calc/relax1" {
		t.Fatalf("got %q", got)
	}

	job := flow.NewJob("relax", nil)
	ref := job.OutputRef("dir_name")
	rt.Seed(ref, "host01:/calc/relax2")
	got, err = flow.DirRef(ref).Resolve(rt)
	if err != nil {
		t.Fatal(err)
	}
	if got != "host01:/calc/relax2" {
		t.Fatalf("got %q", got)
	}

	// Empty dir argument resolves to no directory rather than an error:
	// makers treat a missing previous directory as a from-scratch run.
	got, err = flow.DirArg{}.Resolve(rt)
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Fatalf("empty arg resolved to %q", got)
	}

	unseeded := flow.NewJob("other", nil).OutputRef("dir_name")
	if _, err := flow.DirRef(unseeded).Resolve(rt); err == nil {
		t.Fatal("expected error for unresolved reference")
	}
}
