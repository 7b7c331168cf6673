package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/covidmx/internal/app"
	"github.com/hyperifyio/covidmx/internal/cases"
)

type parseFlags struct {
	date       string
	out        string
	newCases   string
	pages      string
	header     []string
	extractor  string
	rowTol     float64
	minNonNull int
	noVerify   bool
	noLedger   bool
	ledger     string
	tablesDir  string
}

func newParseCmd(c *cli) *cobra.Command {
	var f parseFlags
	cmd := &cobra.Command{
		Use:   "parse <document.pdf>",
		Short: "Convert a case listing PDF into a tab-separated case table",
		Long: `Extracts the case listing tables of a bulletin annex, normalizes them
into the case table schema, flags new cases and records the bulletin date in
the ledger. The bulletin date defaults to the one stamped in the file name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, c, f, args[0])
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.date, "date", "", "Bulletin date (YYYY-MM-DD)")
	fl.StringVarP(&f.out, "out", "o", "", "Output table path (default <tables-dir>/<YYYYMMDD>.tsv)")
	fl.StringVarP(&f.newCases, "new-cases", "n", "", "Case numbers to flag as new, e.g. 1-3,5")
	fl.StringVar(&f.pages, "pages", "", "Page selector: all, or a list like 1,3-5,8-end")
	fl.StringSliceVar(&f.header, "header", nil, "Write the raw table with these column names")
	fl.StringVar(&f.extractor, "extractor", "", "Extraction backend: stream or geometric")
	fl.Float64Var(&f.rowTol, "row-tol", 0, "Row tolerance in points")
	fl.IntVar(&f.minNonNull, "min-non-null", 0, "Drop columns with fewer non-null cells")
	fl.BoolVar(&f.noVerify, "no-verify", false, "Allow repeated case numbers")
	fl.BoolVar(&f.noLedger, "no-ledger", false, "Do not update the ledger")
	fl.StringVar(&f.ledger, "ledger", "", "Ledger path")
	fl.StringVar(&f.tablesDir, "tables-dir", "", "Directory for case tables")
	return cmd
}

func runParse(cmd *cobra.Command, c *cli, f parseFlags, source string) error {
	fl := cmd.Flags()
	if fl.Changed("extractor") {
		c.cfg.Extractor = f.extractor
	}
	if fl.Changed("row-tol") {
		c.cfg.RowTolerance = f.rowTol
	}
	if fl.Changed("min-non-null") {
		c.cfg.MinNonNull = f.minNonNull
	}
	if fl.Changed("ledger") {
		c.cfg.LedgerPath = f.ledger
	}
	if fl.Changed("tables-dir") {
		c.cfg.TablesDir = f.tablesDir
	}

	req := app.ParseRequest{
		Source:     source,
		Output:     f.out,
		NewCases:   f.newCases,
		Pages:      f.pages,
		Header:     f.header,
		SkipLedger: f.noLedger,
	}
	if fl.Changed("no-verify") {
		verify := !f.noVerify
		req.VerifyIntegrity = &verify
	}
	if f.date != "" {
		d, err := cases.ParseDate(f.date)
		if err != nil {
			return fmt.Errorf("--date: %w", err)
		}
		req.Date = d
	} else if d, ok := app.DateFromFileName(source); ok {
		log.Info().Str("date", d.String()).Msg("bulletin date taken from file name")
		req.Date = d
	}

	a, err := c.open()
	if err != nil {
		return err
	}
	res, err := a.Parse(cmd.Context(), req)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d rows from %d tables", res.Output, res.Rows, res.Grids)
	if len(req.Header) == 0 && (res.Diagnostic == nil || res.Diagnostic.Missing > 0) {
		fmt.Fprintf(out, ", %d new", res.Annotated)
	}
	if res.Diagnostic != nil {
		fmt.Fprintf(out, " (%s)", res.Diagnostic.Message)
	}
	fmt.Fprintln(out)
	if res.LedgerUpdated {
		fmt.Fprintf(out, "ledger: added %s\n", req.Date)
	}
	return nil
}
