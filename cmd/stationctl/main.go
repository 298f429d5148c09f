package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"petrolhub/backend/internal/config"
	"petrolhub/backend/internal/logger"
)

var version = "0.1.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stationctl",
		Short: "Offline tools for the station back office",
		Long: `stationctl runs the shift closing and daily report calculations against
JSON files, renders printable reports and manages the database schema.

Logs go to stderr; command results go to stdout.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			cfg := logger.DefaultConfig()
			cfg.Level = level
			cfg.Output = "stderr"
			return logger.Setup(cfg)
		},
	}
	root.PersistentFlags().String("log-level", "warn", "Log level (trace, debug, info, warn, error)")

	root.AddCommand(newShiftCmd(), newReportCmd(), newMigrateCmd())
	return root
}

func main() {
	config.LoadDotEnv()

	if err := newRootCmd().Execute(); err != nil {
		log := logger.WithComponent("stationctl")
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
