package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lifetrack/internal/backend"
	"lifetrack/internal/cli"
	"lifetrack/internal/config"
	applog "lifetrack/internal/log"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lifetrack",
		Short: "Personal tracker for tasks, expenses, hydration and habits",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		newServeCmd(),
		newCategoriesCmd(),
		newReportCmd(),
		newEventsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads .env and the configuration and sets up logging.
func bootstrap() (*config.Config, *applog.Logger, error) {
	if err := cli.LoadEnvFile(); err != nil {
		return nil, nil, err
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, cli.SetupLogger(cfg.LogLevel), nil
}

// openBackend creates the repository. withEvents also dials the broker when
// AMQP is configured.
func openBackend(ctx context.Context, cfg *config.Config, logger *applog.Logger, withEvents bool) (*backend.BackendResult, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !withEvents {
		bc.AMQPURL = ""
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	return res, nil
}

// closeBackend runs the backend cleanup and logs failures.
func closeBackend(res *backend.BackendResult, logger *applog.Logger) {
	if err := res.Cleanup(); err != nil {
		logger.Error("Backend cleanup failed", applog.FieldError, err.Error())
	}
}
