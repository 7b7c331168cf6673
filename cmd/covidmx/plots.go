package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/covidmx/internal/app"
	"github.com/hyperifyio/covidmx/internal/cases"
)

func newPlotsCmd(c *cli) *cobra.Command {
	var (
		casesPath string
		date      string
		noMap     bool
		charts    []string
		current   []string
		coords    string
		assets    string
	)
	cmd := &cobra.Command{
		Use:   "plots",
		Short: "Render the confirmed cases series and the state map",
		Long: `Renders the national confirmed cases series from every stored bulletin
summary and the state map for one case table. Without --cases the table of
the latest ledger entry is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fl := cmd.Flags()
			if fl.Changed("charts") {
				c.cfg.ChartDirs = charts
			}
			if fl.Changed("current") {
				c.cfg.CurrentDirs = current
			}
			if fl.Changed("coords") {
				c.cfg.CoordinatesPath = coords
			}
			if fl.Changed("assets-host") {
				c.cfg.AssetsHost = assets
			}
			req := app.PlotRequest{CaseTable: casesPath, SkipMap: noMap}
			if date != "" {
				d, err := cases.ParseDate(date)
				if err != nil {
					return fmt.Errorf("--date: %w", err)
				}
				req.Date = d
			} else if casesPath != "" {
				if d, ok := app.DateFromFileName(casesPath); ok {
					req.Date = d
				}
			}
			a, err := c.open()
			if err != nil {
				return err
			}
			written, err := a.Plots(req)
			for _, p := range written {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return err
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&casesPath, "cases", "", "Case table for the state map")
	fl.StringVar(&date, "date", "", "Date of the case table (YYYY-MM-DD)")
	fl.BoolVar(&noMap, "no-map", false, "Skip the state map")
	fl.StringSliceVar(&charts, "charts", nil, "Directories receiving dated charts")
	fl.StringSliceVar(&current, "current", nil, "Directories receiving CURRENT_ charts")
	fl.StringVar(&coords, "coords", "", "State coordinates table")
	fl.StringVar(&assets, "assets-host", "", "Host serving the echarts scripts")
	return cmd
}
