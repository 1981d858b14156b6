package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"match-reconciliation-backend/internal/config"
	"match-reconciliation-backend/internal/logger"
	"match-reconciliation-backend/internal/repository"
	"match-reconciliation-backend/internal/services/reconciliation"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Bank and sales reconciliation tool",
	Long: `Reconciler loads merged bank/sales files into the reconciliation
database, confirms pending matches and exports the current state.

Examples:
  reconciler import merged.xlsx
  reconciler approve-all
  reconciler stats --from 2024-01-01 --to 2024-01-31
  reconciler export merged_matches.xlsx`,
	Version:       getVersionString(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(importCmd, exportCmd, approveAllCmd, statsCmd, resetCmd)
}

// newService loads the configuration and opens the database.
func newService() (*reconciliation.ReconciliationService, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger.Init(level, cfg.LogFormat)

	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	return reconciliation.NewReconciliationService(repository.New(db), reconciliation.Options{
		StatsTTL:    cfg.StatsCacheTTL,
		SearchLimit: cfg.SearchLimit,
	}), nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
