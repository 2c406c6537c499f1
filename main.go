package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "inventory-forecasting",
	Short:         "Sales ingestion and AI demand forecasting service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (and the regeneration schedule when configured)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE:  runMigrate,
}

var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Regenerate the forecast of every catalog product once",
	RunE:  runRegenerate,
}

var envFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")
	regenerateCmd.Flags().Int("days", 0, "forecast horizon (default FORECAST_DEFAULT_DAYS)")
	rootCmd.AddCommand(serveCmd, migrateCmd, regenerateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		zerolog.New(os.Stderr).With().Timestamp().Logger().
			Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
