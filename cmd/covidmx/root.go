package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/covidmx/internal/app"
	"github.com/hyperifyio/covidmx/internal/prompt"
)

// cli carries the state shared by every subcommand.
type cli struct {
	configPath string
	envFiles   []string
	verbose    bool
	logJSON    bool
	cacheDir   string
	noCache    bool

	cfg app.Config
	// logOut receives log lines; stderr outside tests.
	logOut io.Writer
	// interactive reports whether the operator can answer prompts.
	interactive func() bool
	// newApp builds the application from the effective configuration.
	newApp func(app.Config) (*app.App, error)
}

func newCLI() *cli {
	return &cli{
		logOut:      os.Stderr,
		interactive: func() bool { return prompt.IsInteractive(os.Stdin) },
		newApp:      app.New,
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "covidmx",
		Short: "Ingest the daily COVID-19 technical bulletins of Mexico",
		Long: `covidmx downloads the daily technical bulletins published by the
Mexican health ministry, converts the case listing annex into a typed
tab-separated table, keeps a ledger of processed dates and renders charts.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.load,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "Path to a YAML, JSON or TOML config file")
	pf.StringSliceVar(&c.envFiles, "env-file", []string{".env"}, "Dotenv files loaded before reading COVIDMX_* variables")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "Verbose logging")
	pf.BoolVar(&c.logJSON, "log-json", false, "Log JSON lines instead of console output")
	pf.StringVar(&c.cacheDir, "cache-dir", "", "HTTP cache directory")
	pf.BoolVar(&c.noCache, "no-cache", false, "Disable the HTTP cache")

	root.AddCommand(
		newFetchCmd(c),
		newParseCmd(c),
		newComunicadoCmd(c),
		newPlotsCmd(c),
		newLedgerCmd(c),
		newCacheCmd(c),
		newVersionCmd(),
	)
	return root
}

// load layers defaults, config file, dotenv, environment and the persistent
// flags into c.cfg.
func (c *cli) load(cmd *cobra.Command, _ []string) error {
	if err := app.LoadEnvFiles(c.envFiles...); err != nil {
		return err
	}
	cfg, err := app.LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = c.verbose
	}
	if flags.Changed("log-json") {
		cfg.LogJSON = c.logJSON
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir = c.cacheDir
	}
	if flags.Changed("no-cache") {
		cfg.NoCache = c.noCache
	}
	setupLogging(c.logOut, cfg.Verbose, cfg.LogJSON)
	c.cfg = cfg
	return nil
}

func (c *cli) open() (*app.App, error) {
	a, err := c.newApp(c.cfg)
	if err != nil {
		return nil, fmt.Errorf("init app: %w", err)
	}
	return a, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		// Skip config loading for version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "covidmx version %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		},
	}
}
