package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"budgethub/internal/amqp"
	"budgethub/internal/sheets"
)

func enqueueCmd() *cobra.Command {
	var (
		direction string
		autoApply bool
	)
	cmd := &cobra.Command{
		Use:   "enqueue <budget-id...>",
		Short: "Queue sync requests for the worker",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			if cfg.AMQPURL == "" {
				return errors.New("AMQP_URL is not set")
			}
			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, app.Logger.Logger)
			if err != nil {
				return err
			}
			defer client.Close()

			for _, id := range args {
				msg := amqp.NewSyncRequestMessage(id, direction, autoApply)
				if err := client.PublishSyncRequest(cmd.Context(), msg); err != nil {
					return fmt.Errorf("enqueue %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s %s\n", direction, id)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&direction, "direction", "d", sheets.DirectionPush, "push or pull")
	cmd.Flags().BoolVar(&autoApply, "auto-apply", false, "apply pulled changes without review")
	return cmd
}
