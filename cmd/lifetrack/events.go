package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"lifetrack/internal/amqp"
	"lifetrack/internal/cli"
	applog "lifetrack/internal/log"
)

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Consume reminder and expense events from the message queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			if cfg.AMQPURL == "" {
				return errors.New("AMQP_URL is required for the events consumer")
			}

			ctx, cancel := cli.SignalContext(cmd.Context(), logger)
			defer cancel()

			res, err := openBackend(ctx, cfg, logger, true)
			if err != nil {
				return err
			}
			defer closeBackend(res, logger)
			if res.Events == nil {
				return errors.New("could not connect to message broker")
			}

			logger.Info("Starting events consumer", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			err = res.Events.Consume(ctx, eventHandler(logger.WithComponent(applog.ComponentApp)))
			if errors.Is(err, context.Canceled) {
				logger.Info("Events consumer stopped")
				return nil
			}
			return err
		},
	}
}

// eventHandler logs every decoded message.
func eventHandler(logger *applog.Logger) func(kind string, msg any) error {
	return func(kind string, msg any) error {
		switch m := msg.(type) {
		case *amqp.ReminderMessage:
			logger.Info("Reminder received", "message", m.Message, "sent_at", m.Timestamp)
		case *amqp.ExpenseEvent:
			args := []any{"type", string(m.Type), applog.FieldRecordID, m.ID}
			if m.Type == amqp.ExpenseCreated {
				args = append(args, applog.FieldAmount, m.Amount.StringFixed(2))
			}
			if m.CategoryID != nil {
				args = append(args, applog.FieldCategoryID, *m.CategoryID)
			}
			logger.Info("Expense event received", args...)
		default:
			return fmt.Errorf("unexpected message %T for kind %q", msg, kind)
		}
		return nil
	}
}
