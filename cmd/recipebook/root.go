package main

import (
	"context"
	"fmt"

	"github.com/alchemorsel/recipebook/internal/infrastructure/config"
	"github.com/alchemorsel/recipebook/internal/infrastructure/container"
	"github.com/alchemorsel/recipebook/internal/ports/inbound"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type options struct {
	configPath string
	serverURL  string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "recipebook",
		Short:        "Recipe catalog with AI cooking instructions",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.serverURL, "server", "", "Base URL of a running server whose caches should be refreshed")

	rootCmd.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newImportCommand(opts),
		newSeedCommand(opts),
		newCacheCommand(opts),
	)

	return rootCmd
}

// services are what the one-shot commands work with
type services struct {
	Config   *config.Config
	Catalog  inbound.CatalogService
	Importer inbound.ImportService
}

// runCore starts the storage and service graph, runs fn and stops the graph
func runCore(ctx context.Context, opts *options, fn func(ctx context.Context, s services) error) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	s := services{Config: cfg}
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		container.CoreModule,
		fx.Populate(&s.Catalog, &s.Importer),
	)
	if err := app.Err(); err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	return fn(ctx, s)
}
