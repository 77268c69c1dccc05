package lobster

import (
	"context"
	"fmt"

	"atomflow/internal/flow"
	"atomflow/internal/jobs"
	"atomflow/internal/services"
	"atomflow/internal/vasp"
)

// VaspLobsterMaker assembles the full bonding-analysis pipeline: an optional
// relaxation, a static run that writes the wavefunction with symmetry
// switched off, then one LOBSTER projection per candidate basis set. The
// basis sets depend on the structure's species, so the LOBSTER jobs are
// spawned at runtime once the structure is known.
type VaspLobsterMaker struct {
	Name string
	// Relax optionally relaxes the structure first.
	Relax flow.Maker
	// Static computes the wavefunction the projections consume.
	Static vasp.BaseMaker
	// Lobster runs one projection per basis set.
	Lobster Maker
	// BasisTable enumerates candidate basis sets; nil uses the bundled table.
	BasisTable *BasisTable
	// DeleteWavecars appends a cleanup job removing WAVECARs once every
	// projection has finished.
	DeleteWavecars bool
}

// NewVaspLobsterMaker returns the plain PBE pipeline without a relaxation.
func NewVaspLobsterMaker(vaspRunner *vasp.Runner, lobsterRunner *Runner) VaspLobsterMaker {
	static := vasp.NewLobsterStaticMaker(vaspRunner)
	return VaspLobsterMaker{
		Name:           "lobster",
		Static:         static,
		Lobster:        NewMaker(lobsterRunner),
		DeleteWavecars: true,
	}
}

// NewMPVaspLobsterMaker returns the Materials Project flavor: a GGA double
// relaxation before the wavefunction static.
func NewMPVaspLobsterMaker(vaspRunner *vasp.Runner, lobsterRunner *Runner) VaspLobsterMaker {
	m := NewVaspLobsterMaker(vaspRunner, lobsterRunner)
	relax := vasp.NewMPGGADoubleRelaxMaker(vaspRunner)
	m.Relax = relax
	return m
}

// MakerName implements flow.Maker.
func (m VaspLobsterMaker) MakerName() string {
	return m.Name
}

// Make implements flow.Maker.
func (m VaspLobsterMaker) Make(s flow.StructureArg, prevDir flow.DirArg) (flow.Node, error) {
	var nodes []flow.Node

	structureArg := s
	dirArg := prevDir
	if m.Relax != nil {
		relaxNode, err := m.Relax.Make(s, prevDir)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, relaxNode)

		out := relaxNode.TaskOutput()
		structureArg = flow.StructureRef(out.Structure)
		dirArg = flow.DirRef(out.DirName)
	}

	staticNode, err := m.Static.Make(structureArg, dirArg)
	if err != nil {
		return nil, err
	}
	nodes = append(nodes, staticNode)
	staticOut := staticNode.TaskOutput()

	spawner := flow.NewJob("lobster runs",
		m.spawnBody(flow.StructureRef(staticOut.Structure), flow.DirRef(staticOut.DirName)))
	nodes = append(nodes, spawner)

	return flow.New(m.Name, staticOut, nodes...), nil
}

// spawnBody resolves the static structure and directory, enumerates basis
// sets for its species, and replaces itself with one LOBSTER job per basis
// plus the optional WAVECAR cleanup.
func (m VaspLobsterMaker) spawnBody(s flow.StructureArg, waveDir flow.DirArg) flow.JobFunc {
	return func(ctx context.Context, rt flow.Runtime) (*flow.Response, error) {
		str, err := s.Resolve(rt)
		if err != nil {
			return nil, err
		}
		dir, err := waveDir.Resolve(rt)
		if err != nil {
			return nil, err
		}

		table := m.BasisTable
		if table == nil {
			table, err = DefaultBasisTable()
			if err != nil {
				return nil, err
			}
		}
		species := make([]string, 0, str.NumSites())
		for _, site := range str.Sites {
			species = append(species, site.Species)
		}
		combos, err := table.Combinations(species)
		if err != nil {
			return nil, err
		}

		var runs []flow.Node
		for i, basis := range combos {
			maker := m.Lobster
			maker.Name = fmt.Sprintf("%s %d", m.Lobster.Name, i)
			node, err := maker.Make(flow.Dir(dir), basis)
			if err != nil {
				return nil, err
			}
			runs = append(runs, node)
		}
		if len(runs) == 0 {
			return nil, services.Wrap(services.ErrValidation, "lobster", "spawn runs",
				"no basis combinations for structure", nil)
		}

		replacement := flow.New("lobster runs", runs[0].TaskOutput(), runs...)
		if m.DeleteWavecars {
			cleanup := jobs.RemoveWorkflowFiles(flow.DirNames(runs...), []string{"WAVECAR"}, true)
			replacement.Add(cleanup)
		}
		return &flow.Response{
			Output:  map[string]any{"basis_count": len(combos)},
			Replace: replacement,
		}, nil
	}
}
