package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/covidmx/internal/tsv"
)

func newLedgerCmd(c *cli) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the ledger of processed bulletins",
	}
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the ledger as a tab-separated table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("path") {
				c.cfg.LedgerPath = path
			}
			a, err := c.open()
			if err != nil {
				return err
			}
			l, err := a.Ledger()
			if err != nil {
				return err
			}
			if err := tsv.Marshal(cmd.OutOrStdout(), l.Entries); err != nil {
				return fmt.Errorf("print ledger: %w", err)
			}
			return nil
		},
	}
	show.Flags().StringVar(&path, "path", "", "Ledger path")
	cmd.AddCommand(show)
	return cmd
}
