package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFetchCmd(c *cli) *cobra.Command {
	var listingURL, outDir string
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download every document linked from the bulletin listing page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("listing") {
				c.cfg.ListingURL = listingURL
			}
			if cmd.Flags().Changed("out-dir") {
				c.cfg.DownloadDir = outDir
			}
			a, err := c.open()
			if err != nil {
				return err
			}
			paths, err := a.Fetch(cmd.Context())
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			if err != nil {
				return fmt.Errorf("fetch failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listingURL, "listing", "", "Listing page URL")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Directory receiving the documents")
	return cmd
}
