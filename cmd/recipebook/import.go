package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alchemorsel/recipebook/internal/infrastructure/importwatch"
	"github.com/alchemorsel/recipebook/internal/ports/inbound"
	"github.com/alchemorsel/recipebook/pkg/logger"
	"github.com/spf13/cobra"
)

func newImportCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import recipes from JSON documents",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "file <path>",
			Short: "Import a JSON array of recipes",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCore(cmd.Context(), opts, func(ctx context.Context, s services) error {
					result, err := s.Importer.ImportFile(ctx, args[0])
					if err != nil {
						return err
					}
					printImportResult(cmd.OutOrStdout(), result)
					return notifyServer(ctx, opts)
				})
			},
		},
		newImportWatchCommand(opts),
	)

	return cmd
}

func newImportWatchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Import JSON files as they appear in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCore(cmd.Context(), opts, func(ctx context.Context, s services) error {
				log, err := logger.New(logger.Config{Level: s.Config.App.LogLevel, Format: s.Config.App.LogFormat})
				if err != nil {
					return err
				}
				defer func() { _ = log.Sync() }()

				ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer cancel()

				fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for recipe files\n", args[0])
				var watchOpts []importwatch.Option
				if opts.serverURL != "" {
					watchOpts = append(watchOpts, importwatch.WithAfterImport(func(ctx context.Context, _ *inbound.ImportResult) error {
						return notifyServer(ctx, opts)
					}))
				}
				return importwatch.New(args[0], s.Config.Import.Debounce, s.Importer, log, watchOpts...).Run(ctx)
			})
		},
	}
}

func newSeedCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the bundled sample recipes into an empty catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCore(cmd.Context(), opts, func(ctx context.Context, s services) error {
				result, err := s.Importer.Seed(ctx)
				if err != nil {
					return err
				}
				printImportResult(cmd.OutOrStdout(), result)
				return notifyServer(ctx, opts)
			})
		},
	}
}

func printImportResult(w io.Writer, result *inbound.ImportResult) {
	fmt.Fprintf(w, "Created %d recipes, updated %d recipes, created %d ingredients\n",
		result.CreatedRecipes, result.UpdatedRecipes, result.CreatedIngredients)
	for _, msg := range result.Errors {
		fmt.Fprintf(w, "Error: %s\n", msg)
	}
}
