package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"atomflow/internal/drones"
	"atomflow/internal/logging"
	"atomflow/internal/notifications"
	"atomflow/internal/taskstore"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var codes []string
	var notify bool

	cmd := &cobra.Command{
		Use:   "ingest <root>",
		Short: "Walk a directory tree and store every parsed calculation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			info, err := os.Stat(root)
			if err != nil {
				return fmt.Errorf("stat %s: %w", root, err)
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", root)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := logging.NewComponentLogger(ctx.logger(), "ingest")

			// Only one ingest may write to the store at a time.
			lock := flock.New(filepath.Join(cfg.Paths.StoreDir, "ingest.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire ingest lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another ingest is already running against %s", cfg.Paths.StoreDir)
			}
			defer func() {
				_ = lock.Unlock()
			}()

			selected, err := selectedDrones(codes, ctx)
			if err != nil {
				return err
			}

			store, err := taskstore.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var service notifications.Service = notifications.NewService(cfg)
			out := cmd.OutOrStdout()
			start := time.Now()

			type target struct {
				drone drones.Drone
				dir   string
			}
			var targets []target
			claimed := map[string]bool{}
			for _, drone := range selected {
				dirs, err := drone.FindValidPaths(root)
				if err != nil {
					return fmt.Errorf("scan %s for %s outputs: %w", root, drone.Name(), err)
				}
				for _, dir := range dirs {
					if claimed[dir] {
						continue
					}
					claimed[dir] = true
					targets = append(targets, target{drone: drone, dir: dir})
				}
			}
			if len(targets) == 0 {
				fmt.Fprintf(out, "No calculation directories found under %s\n", root)
				return nil
			}

			if notify {
				if err := service.NotifyIngestStarted(cmd.Context(), root, len(targets)); err != nil {
					logger.Warn("ingest notification failed", logging.Error(err))
				}
			}

			stored := 0
			failed := 0
			for _, tgt := range targets {
				doc, err := tgt.drone.Assimilate(cmd.Context(), tgt.dir)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL  %s: %v\n", tgt.dir, err)
					continue
				}
				rec, err := taskstore.NewRecord(tgt.drone.Name(), doc)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL  %s: %v\n", tgt.dir, err)
					continue
				}
				saved, err := store.Insert(cmd.Context(), rec)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL  %s: %v\n", tgt.dir, err)
					continue
				}
				stored++
				fmt.Fprintf(out, "OK    %s (task %d, %s)\n", tgt.dir, saved.ID, saved.State)
			}

			elapsed := time.Since(start)
			fmt.Fprintf(out, "Ingested %d of %d directories in %s (%d failed)\n",
				stored, len(targets), elapsed.Round(time.Millisecond), failed)
			logger.Info("ingest finished",
				logging.String("root", root),
				logging.Int("stored", stored),
				logging.Int("failed", failed),
				logging.Duration("elapsed", elapsed))

			if notify {
				if err := service.NotifyIngestCompleted(cmd.Context(), stored, failed, elapsed); err != nil {
					logger.Warn("ingest notification failed", logging.Error(err))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d directories failed to ingest", failed, len(targets))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&codes, "codes", []string{"vasp", "qchem", "lobster"}, "Calculation codes to scan for")
	cmd.Flags().BoolVar(&notify, "notify", false, "Send ntfy notifications for start and completion")
	return cmd
}

// selectedDrones resolves the --codes flag. LOBSTER directories also contain
// VASP markers, so the LOBSTER drone goes first and claims its directories
// before the VASP scan sees them.
func selectedDrones(codes []string, ctx *commandContext) ([]drones.Drone, error) {
	logger := ctx.logger()
	order := []string{"lobster", "vasp", "qchem"}
	requested := map[string]bool{}
	for _, code := range codes {
		code = strings.ToLower(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		found := false
		for _, known := range order {
			if code == known {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown calculation code %q (expected vasp, qchem, or lobster)", code)
		}
		requested[code] = true
	}
	if len(requested) == 0 {
		return nil, fmt.Errorf("no calculation codes selected")
	}

	var selected []drones.Drone
	for _, code := range order {
		if !requested[code] {
			continue
		}
		drone, err := droneForCode(code, logger)
		if err != nil {
			return nil, err
		}
		selected = append(selected, drone)
	}
	return selected, nil
}
