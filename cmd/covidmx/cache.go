package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/covidmx/internal/cache"
)

func newCacheCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the HTTP cache",
	}
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cache.ClearDir(c.cfg.CacheDir); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", c.cfg.CacheDir)
			return nil
		},
	}
	var maxAge time.Duration
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove cached responses older than --max-age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if maxAge <= 0 {
				return errors.New("purge: --max-age must be positive")
			}
			n, err := cache.PurgeByAge(c.cfg.CacheDir, maxAge)
			if err != nil {
				return fmt.Errorf("purge cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", n)
			return nil
		},
	}
	purgeCmd.Flags().DurationVar(&maxAge, "max-age", 0, "Maximum age of kept entries, e.g. 72h")
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the number and size of cached responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, size, err := cache.Stats(c.cfg.CacheDir)
			if err != nil {
				return fmt.Errorf("cache stats: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries, %d bytes\n", c.cfg.CacheDir, n, size)
			return nil
		},
	}
	cmd.AddCommand(clearCmd, purgeCmd, statsCmd)
	return cmd
}
