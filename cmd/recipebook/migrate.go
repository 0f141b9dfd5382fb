package main

import (
	"fmt"
	"strconv"

	"github.com/alchemorsel/recipebook/internal/infrastructure/config"
	"github.com/alchemorsel/recipebook/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/recipebook/pkg/logger"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, opts, func(m *migrations.Migrator) error {
					if err := m.Up(); err != nil {
						return err
					}
					return printVersion(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, opts, func(m *migrations.Migrator) error {
					if err := m.Down(); err != nil {
						return err
					}
					return printVersion(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, opts, func(m *migrations.Migrator) error {
					return printVersion(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Mark a version as applied after fixing a failed migration",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return withMigrator(cmd, opts, func(m *migrations.Migrator) error {
					return m.Force(version)
				})
			},
		},
	)

	return cmd
}

func withMigrator(cmd *cobra.Command, opts *options, fn func(m *migrations.Migrator) error) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if cfg.Database.Driver != "postgres" {
		fmt.Fprintln(cmd.OutOrStdout(), "SQLite schema is migrated automatically on startup")
		return nil
	}

	log, err := logger.New(logger.Config{Level: cfg.App.LogLevel, Format: cfg.App.LogFormat})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	m, err := migrations.Open(cfg.GetDSN(), cfg.Database.Database, log)
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(m)
}

func printVersion(cmd *cobra.Command, m *migrations.Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d (dirty: %t)\n", version, dirty)
	return nil
}
