package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/governance/config"
	"github.com/rustyeddy/governance/governance"
)

var rootCmd = &cobra.Command{
	Use:   "govern",
	Short: "Governance ledger and pre-trade risk-rule tooling",
	Long: `Govern manages the tamper-evident governance record of a trading system.

It provides tools for:
  - Managing policy rules (position weight, trade notional, sector caps)
  - Reviewing and resolving rule breaches
  - Verifying the hash-chained audit, snapshot and risk-event ledgers
  - Computing risk snapshots and emitting threshold events
  - Blending regime risk and breach pressure into an exposure scalar`,
}

var (
	cfgFile  string
	dbPath   string
	logLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "path to governance SQLite DB (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

func openService() (*governance.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := governance.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	if cfg.MetricsAddr != "" {
		governance.StartMetricsServer(cfg.MetricsAddr)
	}

	svc, err := governance.Open(cfg.DBPath, log, cfg.Risk)
	if err != nil {
		return nil, fmt.Errorf("open governance db: %w", err)
	}
	return svc, nil
}
