package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/covidmx/internal/app"
	"github.com/hyperifyio/covidmx/internal/bulletin"
	"github.com/hyperifyio/covidmx/internal/prompt"
)

func newComunicadoCmd(c *cli) *cobra.Command {
	var (
		dir     string
		charts  []string
		current []string
		pdf     bool
		yes     bool
	)
	cmd := &cobra.Command{
		Use:   "comunicado",
		Short: "Record the daily bulletin counters interactively",
		Long: `Asks for the bulletin date and the confirmed, suspected, negative and
death counts, shows them and saves them after confirmation. The summary table
chart is rendered alongside.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fl := cmd.Flags()
			if fl.Changed("dir") {
				c.cfg.BulletinDir = dir
			}
			if fl.Changed("charts") {
				c.cfg.ChartDirs = charts
			}
			if fl.Changed("current") {
				c.cfg.CurrentDirs = current
			}
			if fl.Changed("pdf") {
				c.cfg.SummaryPDF = pdf
			}
			if !c.interactive() {
				return fmt.Errorf("comunicado: %w", prompt.ErrNotInteractive)
			}
			out := cmd.OutOrStdout()
			p := prompt.New(cmd.InOrStdin(), out)
			s, err := p.Summary()
			if err != nil {
				return fmt.Errorf("comunicado: %w", err)
			}
			if err := s.Validate(); err != nil {
				return err
			}
			printSummary(out, s)
			if !yes && !p.Confirm(fmt.Sprintf("¿Guardar en '%s'?", c.cfg.BulletinDir)) {
				fmt.Fprintln(out, "No se guardó.")
				return nil
			}
			a, err := c.open()
			if err != nil {
				return err
			}
			res, err := a.RecordSummary(s)
			if err != nil {
				return err
			}
			printSaved(out, res)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&dir, "dir", "", "Directory for bulletin summaries")
	fl.StringSliceVar(&charts, "charts", nil, "Directories receiving dated charts")
	fl.StringSliceVar(&current, "current", nil, "Directories receiving CURRENT_ charts")
	fl.BoolVar(&pdf, "pdf", false, "Also write a one page PDF summary")
	fl.BoolVarP(&yes, "yes", "y", false, "Save without asking")
	return cmd
}

func printSummary(w io.Writer, s bulletin.Summary) {
	fmt.Fprintf(w, "fecha\t%s\n", s.Date)
	for _, ct := range s.Counters() {
		fmt.Fprintf(w, "%s\t%d\n", ct.Status, ct.Value)
	}
}

func printSaved(w io.Writer, res app.SummaryResult) {
	paths := append([]string{res.Path}, res.Charts...)
	if res.PDF != "" {
		paths = append(paths, res.PDF)
	}
	fmt.Fprintf(w, "Guardado: %s\n", strings.Join(paths, ", "))
}
