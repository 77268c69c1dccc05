package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"atomflow/internal/taskstore"
)

func newTasksCommand(ctx *commandContext) *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect and manage the task store",
	}

	tasksCmd.AddCommand(newTasksListCommand(ctx))
	tasksCmd.AddCommand(newTasksShowCommand(ctx))
	tasksCmd.AddCommand(newTasksStatsCommand(ctx))
	tasksCmd.AddCommand(newTasksRemoveCommand(ctx))
	tasksCmd.AddCommand(newTasksClearCommand(ctx))

	return tasksCmd
}

func (c *commandContext) withStore(fn func(*taskstore.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := taskstore.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newTasksListCommand(ctx *commandContext) *cobra.Command {
	var filter taskstore.Filter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored task documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *taskstore.Store) error {
				records, err := store.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "Task store is empty")
					return nil
				}

				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					energy := ""
					if rec.Energy != 0 {
						energy = strconv.FormatFloat(rec.Energy, 'f', 4, 64)
					}
					rows = append(rows, []string{
						strconv.FormatInt(rec.ID, 10),
						rec.Formula,
						rec.TaskLabel,
						rec.State,
						energy,
						rec.DirName,
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Formula", "Label", "State", "Energy (eV)", "Directory"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filter.State, "state", "", "Filter by state (successful, failed)")
	cmd.Flags().StringVar(&filter.Formula, "formula", "", "Filter by formula, e.g. Si2")
	cmd.Flags().StringVar(&filter.Chemsys, "chemsys", "", "Filter by chemical system, e.g. As-Ga")
	cmd.Flags().StringVar(&filter.Source, "source", "", "Filter by source code (vasp, qchem, lobster)")
	return cmd
}

func newTasksShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the full document for one stored task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			return ctx.withStore(func(store *taskstore.Store) error {
				rec, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("no task with id %d", id)
				}
				var doc any
				if err := json.Unmarshal([]byte(rec.DocJSON), &doc); err != nil {
					return fmt.Errorf("decode stored document: %w", err)
				}
				return writeJSON(cmd, doc)
			})
		},
	}
}

func newTasksStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counts grouped by state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *taskstore.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(stats) == 0 {
					fmt.Fprintln(out, "Task store is empty")
					return nil
				}
				states := make([]string, 0, len(stats))
				for state := range stats {
					states = append(states, state)
				}
				sort.Strings(states)
				rows := make([][]string, 0, len(states))
				for _, state := range states {
					rows = append(rows, []string{state, strconv.Itoa(stats[state])})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"State", "Count"}, rows,
					[]columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func newTasksRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove one stored task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			return ctx.withStore(func(store *taskstore.Store) error {
				removed, err := store.Remove(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("no task with id %d", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed task %d\n", id)
				return nil
			})
		},
	}
}

func newTasksClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every stored task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the task store without --yes")
			}
			return ctx.withStore(func(store *taskstore.Store) error {
				cleared, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d tasks\n", cleared)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm clearing the task store")
	return cmd
}
