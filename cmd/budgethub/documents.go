package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import a budget document from JSON",
		Long: `Import stores a budget document. Missing budget, section and item ids are
generated. Validation problems are printed but do not block the import.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			res, err := app.Documents.Import(cmd.Context(), in)
			if err != nil {
				return err
			}
			if res.Warnings != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", res.Warnings)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%s)\n", res.Budget.ID, res.Budget.Title)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <budget-id>",
		Short: "Export a budget document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return app.Documents.Export(cmd.Context(), args[0], out)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			budgets, err := app.Documents.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tYEAR\tSHEET")
			for _, b := range budgets {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", b.ID, b.Title, b.Year, b.LinkedSheetID)
			}
			return w.Flush()
		},
	}
}
