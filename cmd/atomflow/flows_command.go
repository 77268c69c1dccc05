package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"atomflow/internal/config"
	"atomflow/internal/flow"
	"atomflow/internal/lobster"
	"atomflow/internal/structure"
	"atomflow/internal/vasp"
)

func newFlowsCommand(ctx *commandContext) *cobra.Command {
	flowsCmd := &cobra.Command{
		Use:   "flows",
		Short: "Preview the workflow graphs the makers assemble",
	}

	flowsCmd.AddCommand(newFlowsListCommand(ctx))
	flowsCmd.AddCommand(newFlowsShowCommand(ctx))

	return flowsCmd
}

// makerRegistry maps CLI names to flow makers. Only structure-driven makers
// appear here; molecule and directory-driven makers need concrete inputs and
// cannot be previewed with a placeholder crystal.
func makerRegistry(cfg *config.Config) map[string]flow.Maker {
	runner := vasp.NewRunner(cfg, nil)
	lobsterRunner := lobster.NewRunner(cfg, nil)

	return map[string]flow.Maker{
		"relax":                           vasp.NewRelaxMaker(runner),
		"static":                          vasp.NewStaticMaker(runner),
		"double-relax":                    vasp.NewDoubleRelaxMaker(runner),
		"lobster-static":                  vasp.NewLobsterStaticMaker(runner),
		"mp-gga-relax":                    vasp.NewMPGGARelaxMaker(runner),
		"mp-gga-static":                   vasp.NewMPGGAStaticMaker(runner),
		"mp-gga-double-relax":             vasp.NewMPGGADoubleRelaxMaker(runner),
		"mp-gga-double-relax-static":      vasp.NewMPGGADoubleRelaxStaticMaker(runner),
		"mp-meta-gga-relax":               vasp.NewMPMetaGGARelaxMaker(runner),
		"mp-meta-gga-static":              vasp.NewMPMetaGGAStaticMaker(runner),
		"mp-meta-gga-double-relax":        vasp.NewMPMetaGGADoubleRelaxMaker(runner),
		"mp-meta-gga-double-relax-static": vasp.NewMPMetaGGADoubleRelaxStaticMaker(runner),
		"mp-24-relax":                     vasp.NewMP24RelaxMaker(runner),
		"mp-24-static":                    vasp.NewMP24StaticMaker(runner),
		"mp-24-double-relax":              vasp.NewMP24DoubleRelaxMaker(runner),
		"mp-24-double-relax-static":       vasp.NewMP24DoubleRelaxStaticMaker(runner),
		"vasp-lobster":                    lobster.NewVaspLobsterMaker(runner, lobsterRunner),
		"mp-vasp-lobster":                 lobster.NewMPVaspLobsterMaker(runner, lobsterRunner),
	}
}

func newFlowsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available makers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry := makerRegistry(cfg)
			names := make([]string, 0, len(registry))
			for name := range registry {
				names = append(names, name)
			}
			sort.Strings(names)

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				rows = append(rows, []string{name, registry[name].MakerName()})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out,
				[]string{"Maker", "Flow name"}, rows,
				[]columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}

func newFlowsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <maker>",
		Short: "Assemble a maker against a placeholder crystal and print its jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry := makerRegistry(cfg)
			maker, ok := registry[args[0]]
			if !ok {
				return fmt.Errorf("unknown maker %q (run `atomflow flows list`)", args[0])
			}

			sample, err := placeholderCrystal()
			if err != nil {
				return err
			}
			node, err := maker.Make(flow.Structure(sample), flow.DirArg{})
			if err != nil {
				return fmt.Errorf("assemble %s: %w", maker.MakerName(), err)
			}

			jobs := node.Jobs()
			rows := make([][]string, 0, len(jobs))
			for i, job := range jobs {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					job.Name,
					job.OutputSchema,
					job.ID.String(),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Flow: %s (%d jobs)\n", maker.MakerName(), len(jobs))
			fmt.Fprintln(out, renderTable(out,
				[]string{"#", "Job", "Output schema", "UUID"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}
}

// placeholderCrystal is a two-atom silicon cell used only to preview how a
// maker lays out its graph; runs spawned at execution time, like the
// per-basis LOBSTER projections, do not appear.
func placeholderCrystal() (*structure.Structure, error) {
	return structure.New(structure.CubicLattice(5.43), []structure.Site{
		{Species: "Si", Frac: [3]float64{0, 0, 0}},
		{Species: "Si", Frac: [3]float64{0.25, 0.25, 0.25}},
	})
}
