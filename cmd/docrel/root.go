package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/andreyvit/docrel"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	dbPath     string
	configPath string
	verbose    bool
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:   "docrel",
		Short: "Inspect and query docrel document stores",
		Long: `docrel opens a Bolt-backed document store and runs relation queries
(filter, order, pluck) against its tables.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if g.verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
	}
	rootCmd.PersistentFlags().StringVar(&g.dbPath, "db", "", "path to the database file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&g.timeout, "timeout", 0, "timeout for each store round-trip")

	rootCmd.AddCommand(
		newExistsCmd(g),
		newTablesCmd(g),
		newLoadCmd(g),
		newQueryCmd(g),
		newDropCmd(g),
		newDumpCmd(g),
	)
	return rootCmd
}

func (g *globalFlags) config() (docrel.Config, error) {
	var cfg docrel.Config
	if g.configPath != "" {
		var err error
		cfg, err = docrel.LoadConfig(g.configPath)
		if err != nil {
			return cfg, err
		}
	}
	if g.dbPath != "" {
		cfg.Path = g.dbPath
	}
	if g.timeout != 0 {
		cfg.Timeout = g.timeout
	}
	if g.verbose {
		cfg.Verbose = true
	}
	if cfg.Path == "" {
		return cfg, fmt.Errorf("no database: pass --db or set path in --config")
	}
	return cfg, nil
}

// open opens the configured store and a registry over it. The caller must
// close the store.
func (g *globalFlags) open() (*docrel.Store, *docrel.Registry, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.Default()
	store, err := docrel.Open(cfg.Path, cfg.Options(logger))
	if err != nil {
		return nil, nil, err
	}
	reg := docrel.NewRegistry(store, cfg.RegistryOptions(logger))
	return store, reg, nil
}
