package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"atomflow/internal/drones"
	"atomflow/internal/fileutil"
	"atomflow/internal/lobster"
	"atomflow/internal/qchem"
	"atomflow/internal/taskstore"
	"atomflow/internal/vasp"
)

func newParseCommand(ctx *commandContext) *cobra.Command {
	var code string
	var store bool

	cmd := &cobra.Command{
		Use:   "parse <dir>",
		Short: "Parse one calculation directory into a task document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			info, err := os.Stat(dir)
			if err != nil {
				return fmt.Errorf("stat %s: %w", dir, err)
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}

			logger := ctx.logger()
			resolved := strings.ToLower(strings.TrimSpace(code))
			if resolved == "" || resolved == "auto" {
				resolved, err = detectCode(dir)
				if err != nil {
					return err
				}
			}
			drone, err := droneForCode(resolved, logger)
			if err != nil {
				return err
			}

			doc, err := drone.Assimilate(cmd.Context(), dir)
			if err != nil {
				return fmt.Errorf("parse %s as %s: %w", dir, drone.Name(), err)
			}

			if store {
				rec, err := taskstore.NewRecord(drone.Name(), doc)
				if err != nil {
					return fmt.Errorf("build store record: %w", err)
				}
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				ts, err := taskstore.Open(cfg)
				if err != nil {
					return err
				}
				defer ts.Close()
				stored, err := ts.Insert(cmd.Context(), rec)
				if err != nil {
					return fmt.Errorf("store document: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored task %d (%s)\n", stored.ID, stored.DirName)
			}

			return writeJSON(cmd, doc)
		},
	}

	cmd.Flags().StringVar(&code, "code", "auto", "Calculation code: vasp, qchem, lobster, or auto")
	cmd.Flags().BoolVar(&store, "store", false, "Also insert the parsed document into the task store")
	return cmd
}

func droneForCode(code string, logger *slog.Logger) (drones.Drone, error) {
	switch code {
	case "vasp":
		return vasp.NewDrone(logger), nil
	case "qchem":
		return qchem.NewDrone(logger), nil
	case "lobster":
		return lobster.NewDrone(logger), nil
	default:
		return nil, fmt.Errorf("unknown calculation code %q (expected vasp, qchem, or lobster)", code)
	}
}

// detectCode classifies a directory by its marker outputs. LOBSTER runs keep
// their VASP inputs alongside lobsterout, so LOBSTER is checked first.
func detectCode(dir string) (string, error) {
	if fileutil.Exists(filepath.Join(dir, lobster.OutputFileName)) {
		return "lobster", nil
	}
	if fileutil.Exists(filepath.Join(dir, "OUTCAR")) {
		return "vasp", nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", dir, err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), qchem.OutputFileName) {
			return "qchem", nil
		}
	}
	return "", fmt.Errorf("no recognizable calculation outputs in %s", dir)
}
