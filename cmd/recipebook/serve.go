package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alchemorsel/recipebook/internal/infrastructure/config"
	"github.com/alchemorsel/recipebook/internal/infrastructure/container"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server, task workers and live updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			app := fx.New(
				fx.NopLogger,
				fx.Supply(cfg),
				container.Module,
			)
			if err := app.Err(); err != nil {
				return fmt.Errorf("failed to build application: %w", err)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := app.Start(ctx); err != nil {
				return fmt.Errorf("failed to start application: %w", err)
			}

			<-ctx.Done()

			timeout := cfg.Server.ShutdownTimeout
			if timeout <= 0 {
				timeout = 30 * time.Second
			}
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
			defer shutdownCancel()

			if err := app.Stop(shutdownCtx); err != nil {
				return fmt.Errorf("failed to stop application gracefully: %w", err)
			}
			return nil
		},
	}
}
