package vasp

import (
	"atomflow/internal/flow"
)

// DoubleRelaxMaker chains two relaxations, feeding the first job's relaxed
// structure and directory into the second. The first relaxation is optional
// so callers can reuse the type for single-relax pipelines.
type DoubleRelaxMaker struct {
	Name   string
	Relax1 *BaseMaker
	Relax2 BaseMaker
}

// NewDoubleRelaxMaker returns the plain PBE double relaxation.
func NewDoubleRelaxMaker(runner *Runner) DoubleRelaxMaker {
	first := NewRelaxMaker(runner)
	second := NewRelaxMaker(runner)
	second.CopyFiles = []string{"WAVECAR", "CHGCAR"}
	return DoubleRelaxMaker{Name: "double relax", Relax1: &first, Relax2: second}
}

// MakerName implements flow.Maker.
func (m DoubleRelaxMaker) MakerName() string {
	return m.Name
}

// Make implements flow.Maker.
func (m DoubleRelaxMaker) Make(s flow.StructureArg, prevDir flow.DirArg) (flow.Node, error) {
	var nodes []flow.Node

	structureArg := s
	dirArg := prevDir
	if m.Relax1 != nil {
		node, err := m.Relax1.Make(s, prevDir)
		if err != nil {
			return nil, err
		}
		appendJobName(node, " 1")
		nodes = append(nodes, node)

		out := node.TaskOutput()
		structureArg = flow.StructureRef(out.Structure)
		dirArg = flow.DirRef(out.DirName)
	}

	second, err := m.Relax2.Make(structureArg, dirArg)
	if err != nil {
		return nil, err
	}
	if m.Relax1 != nil {
		appendJobName(second, " 2")
	}
	nodes = append(nodes, second)

	return flow.New(m.Name, second.TaskOutput(), nodes...), nil
}

// DoubleRelaxStaticMaker runs a relaxation flow then an optional static
// calculation on the relaxed structure.
type DoubleRelaxStaticMaker struct {
	Name   string
	Relax  flow.Maker
	Static *BaseMaker
}

// MakerName implements flow.Maker.
func (m DoubleRelaxStaticMaker) MakerName() string {
	return m.Name
}

// Make implements flow.Maker.
func (m DoubleRelaxStaticMaker) Make(s flow.StructureArg, prevDir flow.DirArg) (flow.Node, error) {
	relaxNode, err := m.Relax.Make(s, prevDir)
	if err != nil {
		return nil, err
	}
	nodes := []flow.Node{relaxNode}
	output := relaxNode.TaskOutput()

	if m.Static != nil {
		staticNode, err := m.Static.Make(
			flow.StructureRef(output.Structure),
			flow.DirRef(output.DirName),
		)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, staticNode)
		output = staticNode.TaskOutput()
	}

	return flow.New(m.Name, output, nodes...), nil
}

func appendJobName(node flow.Node, suffix string) {
	if job, ok := node.(*flow.Job); ok {
		job.AppendName(suffix)
	}
}
