package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"atomflow/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check binaries, directories, and services before a batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			depRows := make([][]string, 0, 8)
			failedRequired := false
			for _, status := range preflight.CheckSystemDeps(cfg) {
				availability := "ok"
				if !status.Available {
					availability = "missing"
					if !status.Optional {
						failedRequired = true
					}
				}
				detail := status.Detail
				if detail == "" {
					detail = status.Command
				}
				depRows = append(depRows, []string{
					status.Name, availability, yesNo(!status.Optional), detail,
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Dependency", "Status", "Required", "Detail"},
				depRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))

			checkRows := make([][]string, 0, 4)
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				passed := "pass"
				if !result.Passed {
					passed = "fail"
					failedRequired = true
				}
				checkRows = append(checkRows, []string{result.Name, passed, result.Detail})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Check", "Status", "Detail"},
				checkRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft}))

			if failedRequired {
				return errors.New("preflight failed; resolve the issues above before running workflows")
			}
			fmt.Fprintln(out, "Preflight passed")
			return nil
		},
	}
}
