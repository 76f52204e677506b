package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"budgethub/internal/changes"
	"budgethub/internal/services"
	"budgethub/internal/worker"
)

func pushCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "push [budget-id...]",
		Short: "Render budgets into their spreadsheets",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				w := worker.NewSyncWorker(app.Sync, false, app.Config.SyncConcurrency, app.Logger.Logger)
				return w.PushAll(cmd.Context())
			}
			if len(args) == 0 {
				return fmt.Errorf("give at least one budget id or --all")
			}
			for _, id := range args {
				r, err := app.Sync.Push(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pushed %s: %d rows to %s/%s\n",
					r.BudgetID, r.RowCount, r.Target.SpreadsheetID, r.Target.Title)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "push every linked budget")
	return cmd
}

func pullCmd() *cobra.Command {
	var apply, asJSON bool
	cmd := &cobra.Command{
		Use:   "pull <budget-id>",
		Short: "Read sheet edits back and report them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pull := app.Sync.Pull
			if apply || app.Config.SyncAutoApply {
				pull = app.Sync.PullAndApply
			}
			r, err := pull(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			printPull(cmd.OutOrStdout(), r)
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "save the detected changes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the change list as JSON")
	return cmd
}

func applyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <budget-id>",
		Short: "Pull sheet edits and save them into the document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := app.Sync.PullAndApply(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printPull(cmd.OutOrStdout(), r)
			if r.Summary.TotalChanges > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Changes saved.")
			}
			return nil
		},
	}
}

func printPull(w io.Writer, r services.PullResult) {
	fmt.Fprintf(w, "%s (%s): %s\n", r.BudgetID, r.Strategy, r.Summary.Summary)
	for _, name := range r.Summary.Sections {
		fmt.Fprintf(w, "  %s: %s\n", name, r.Summary.BySection[name].Phrase())
	}
	for _, c := range r.Changes {
		fmt.Fprintf(w, "    %s\n", describe(c))
	}
}

func describe(c changes.Change) string {
	target := c.ItemName
	if target == "" {
		target = c.SectionName
	}
	if c.MonthIndex != nil {
		return fmt.Sprintf("%s %s[%d]: %v -> %v", target, c.Field, *c.MonthIndex+1, c.OldValue, c.NewValue)
	}
	return fmt.Sprintf("%s %s: %v -> %v", target, c.Field, c.OldValue, c.NewValue)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
