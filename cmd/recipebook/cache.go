package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCacheCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain cached aggregates",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "refresh-popular-categories",
			Short: "Recompute the popular categories list",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCacheCommand(cmd.Context(), opts, func(ctx context.Context, c cacheMaintainer) error {
					categories, err := c.RefreshPopularCategories(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Popular categories cache refreshed with: %s\n", strings.Join(categories, ", "))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear-all",
			Short: "Remove every cached entry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCacheCommand(cmd.Context(), opts, func(ctx context.Context, c cacheMaintainer) error {
					if err := c.ClearCaches(ctx); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "All caches cleared")
					return nil
				})
			},
		},
	)

	return cmd
}
