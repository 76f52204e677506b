package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"budgethub/internal/cli"
	"budgethub/internal/log"
)

var (
	app     *cli.App
	rootCmd = &cobra.Command{
		Use:   "budgethub",
		Short: "Sync budget documents with Google Sheets",
		Long: `budgethub keeps budget documents and their spreadsheet renditions in step.

Push renders a budget into its sheet. Pull reads the sheet back, reports
what was edited and, with --apply, saves the edits into the document.`,
		SilenceUsage:       true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}
)

func init() {
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(pushCmd())
	rootCmd.AddCommand(pullCmd())
	rootCmd.AddCommand(applyCmd())
	rootCmd.AddCommand(enqueueCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(serveCmd())
}

func main() {
	ctx, cancel := cli.SignalContext(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg, log.ComponentApp, os.Stderr)
	app, err = cli.NewApp(cmd.Context(), cfg, logger)
	return err
}

func teardown(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	if err := app.Close(); err != nil {
		slog.Error("failed to close backend", log.FieldError, err)
	}
	return nil
}
