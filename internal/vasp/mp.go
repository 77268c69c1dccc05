package vasp

import (
	"atomflow/internal/flow"
	"atomflow/internal/jobs"
)

// Materials Project maker constructors. Each wires an MP input set into the
// base job maker; the flow constructors assemble them into the published MP
// relaxation workflows.

// NewMPGGARelaxMaker returns the MP PBE+U relaxation maker.
func NewMPGGARelaxMaker(runner *Runner) BaseMaker {
	return BaseMaker{Name: "MP GGA relax", Set: MPGGARelaxSet(), Runner: runner}
}

// NewMPGGAStaticMaker returns the MP PBE+U static maker.
func NewMPGGAStaticMaker(runner *Runner) BaseMaker {
	return BaseMaker{Name: "MP GGA static", Set: MPGGAStaticSet(), Runner: runner}
}

// NewMPPreRelaxMaker returns the cheap PBEsol pre-relaxation maker.
func NewMPPreRelaxMaker(runner *Runner) BaseMaker {
	return BaseMaker{Name: "MP pre-relax", Set: MPPreRelaxSet(), Runner: runner}
}

// NewMPMetaGGARelaxMaker returns the MP r2SCAN relaxation maker.
func NewMPMetaGGARelaxMaker(runner *Runner) BaseMaker {
	return BaseMaker{Name: "MP meta-GGA relax", Set: MPMetaGGARelaxSet(), Runner: runner}
}

// NewMPMetaGGAStaticMaker returns the MP r2SCAN static maker.
func NewMPMetaGGAStaticMaker(runner *Runner) BaseMaker {
	return BaseMaker{Name: "MP meta-GGA static", Set: MPMetaGGAStaticSet(), Runner: runner}
}

// NewMP24PreRelaxMaker returns the MP24 PBEsol pre-relaxation maker.
func NewMP24PreRelaxMaker(runner *Runner) BaseMaker {
	return BaseMaker{Name: "MP24 pre-relax", Set: MP24PreRelaxSet(), Runner: runner}
}

// NewMP24RelaxMaker returns the MP24 r2SCAN relaxation maker.
func NewMP24RelaxMaker(runner *Runner) BaseMaker {
	return BaseMaker{Name: "MP24 relax", Set: MP24RelaxSet(), Runner: runner}
}

// NewMP24StaticMaker returns the MP24 r2SCAN static maker.
func NewMP24StaticMaker(runner *Runner) BaseMaker {
	return BaseMaker{Name: "MP24 static", Set: MP24StaticSet(), Runner: runner}
}

// NewLobsterStaticMaker returns the static maker preparing wavefunctions
// for a LOBSTER run.
func NewLobsterStaticMaker(runner *Runner) BaseMaker {
	return BaseMaker{Name: "lobster static", Set: LobsterStaticSet(), Runner: runner}
}

func withCarryover(m BaseMaker) BaseMaker {
	m.CopyFiles = []string{"WAVECAR", "CHGCAR"}
	return m
}

// NewMPGGADoubleRelaxMaker returns the MP GGA double relaxation workflow.
func NewMPGGADoubleRelaxMaker(runner *Runner) DoubleRelaxMaker {
	first := NewMPGGARelaxMaker(runner)
	return DoubleRelaxMaker{
		Name:   "MP GGA double relax",
		Relax1: &first,
		Relax2: withCarryover(NewMPGGARelaxMaker(runner)),
	}
}

// NewMPMetaGGADoubleRelaxMaker returns the MP meta-GGA double relaxation:
// a PBEsol pre-relax followed by an r2SCAN relaxation.
func NewMPMetaGGADoubleRelaxMaker(runner *Runner) DoubleRelaxMaker {
	first := NewMPPreRelaxMaker(runner)
	return DoubleRelaxMaker{
		Name:   "MP meta-GGA double relax",
		Relax1: &first,
		Relax2: withCarryover(NewMPMetaGGARelaxMaker(runner)),
	}
}

// NewMP24DoubleRelaxMaker returns the MP24 PBEsol + r2SCAN double
// relaxation workflow.
func NewMP24DoubleRelaxMaker(runner *Runner) DoubleRelaxMaker {
	first := NewMP24PreRelaxMaker(runner)
	return DoubleRelaxMaker{
		Name:   "MP24 double relax",
		Relax1: &first,
		Relax2: withCarryover(NewMP24RelaxMaker(runner)),
	}
}

// NewMPGGADoubleRelaxStaticMaker returns the full MP GGA workflow: double
// relaxation then a final static.
func NewMPGGADoubleRelaxStaticMaker(runner *Runner) DoubleRelaxStaticMaker {
	static := withCarryover(NewMPGGAStaticMaker(runner))
	return DoubleRelaxStaticMaker{
		Name:   "MP GGA relax",
		Relax:  NewMPGGADoubleRelaxMaker(runner),
		Static: &static,
	}
}

// NewMPMetaGGADoubleRelaxStaticMaker returns the full MP meta-GGA workflow.
func NewMPMetaGGADoubleRelaxStaticMaker(runner *Runner) DoubleRelaxStaticMaker {
	static := withCarryover(NewMPMetaGGAStaticMaker(runner))
	return DoubleRelaxStaticMaker{
		Name:   "MP meta-GGA relax",
		Relax:  NewMPMetaGGADoubleRelaxMaker(runner),
		Static: &static,
	}
}

// MP24DoubleRelaxStaticMaker is the MP24 r2SCAN workflow: double relaxation,
// final static, then removal of bulky intermediate files.
type MP24DoubleRelaxStaticMaker struct {
	Name   string
	Relax  flow.Maker
	Static BaseMaker
	// CleanFiles lists file names removed from every calculation directory
	// once the workflow finishes. Nil skips cleanup.
	CleanFiles []string
}

// NewMP24DoubleRelaxStaticMaker returns the MP24 workflow with WAVECAR
// cleanup enabled.
func NewMP24DoubleRelaxStaticMaker(runner *Runner) MP24DoubleRelaxStaticMaker {
	return MP24DoubleRelaxStaticMaker{
		Name:       "MP24 r2SCAN workflow",
		Relax:      NewMP24DoubleRelaxMaker(runner),
		Static:     withCarryover(NewMP24StaticMaker(runner)),
		CleanFiles: []string{"WAVECAR"},
	}
}

// MakerName implements flow.Maker.
func (m MP24DoubleRelaxStaticMaker) MakerName() string {
	return m.Name
}

// Make implements flow.Maker.
func (m MP24DoubleRelaxStaticMaker) Make(s flow.StructureArg, prevDir flow.DirArg) (flow.Node, error) {
	relaxNode, err := m.Relax.Make(s, prevDir)
	if err != nil {
		return nil, err
	}

	output := relaxNode.TaskOutput()
	staticNode, err := m.Static.Make(
		flow.StructureRef(output.Structure),
		flow.DirRef(output.DirName),
	)
	if err != nil {
		return nil, err
	}

	nodes := []flow.Node{relaxNode, staticNode}
	if len(m.CleanFiles) > 0 {
		cleanup := jobs.RemoveWorkflowFiles(flow.DirNames(relaxNode, staticNode), m.CleanFiles, true)
		nodes = append(nodes, cleanup)
	}

	return flow.New(m.Name, staticNode.TaskOutput(), nodes...), nil
}
