package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ledger/internal/amqp"
	"ledger/internal/log"
	"ledger/internal/worker"
)

func newWatchCmd(a *app) *cobra.Command {
	var queue string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print change events published by a running server",
		Long: `Consume change events from the AMQP exchange and print one line per event.
Without --queue a temporary queue is used and only events published while
watching are shown; a named queue is durable and keeps events between runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.AMQPURL == "" {
				return errors.New("AMQP_URL is not set")
			}
			client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.logger)
			if err != nil {
				return err
			}
			defer client.Close()

			w := worker.NewChangeWatcher(cmd.OutOrStdout(), a.logger)
			ctx, done := GracefulShutdown(a.logger, 5*time.Second, nil)
			if err := w.Run(ctx, client, queue); err != nil {
				return err
			}
			<-done

			a.logger.Info("Watch stopped", log.FieldCount, fmt.Sprint(w.Counts()), "unsaved", w.Unsaved())
			return nil
		},
	}
	cmd.Flags().StringVarP(&queue, "queue", "q", "", "durable queue name (default: temporary queue)")
	return cmd
}
