package cmd

import (
	"fmt"
	"time"

	"github.com/simonvc/moneymanager/internal/config"
	"github.com/simonvc/moneymanager/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfg = config.Load()

	flagServer string
	flagDB     string
	flagTZ     string
)

var rootCmd = &cobra.Command{
	Use:   "moneymanager",
	Short: "Personal bookkeeping ledger",
	Long:  "A personal income and expense ledger backed by SQLite, with legacy TXT import, JSON backups and period statistics.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.SetupWithLevel(logging.LevelFromString(cfg.LogLevel))
		cfg.ServerURL = flagServer
		cfg.DBPath = flagDB
		cfg.TimeZone = flagTZ
		if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
			return fmt.Errorf("unknown time zone %q", cfg.TimeZone)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", cfg.ServerURL, "Server address")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", cfg.DBPath, "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&flagTZ, "tz", cfg.TimeZone, "Time zone for dates and period boundaries")
}

func Execute() error {
	return rootCmd.Execute()
}
