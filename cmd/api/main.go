package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	envFile    string
	configFile string

	rootCmd = &cobra.Command{
		Use:   "form-relay",
		Short: "Relays landing page form submissions to the spreadsheet script endpoint.",
		// Running the binary without a subcommand serves.
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("form-relay exited with error")
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initEnv)

	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "The env file to read.")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Optional YAML config file; environment variables take precedence.")

	rootCmd.AddCommand(serveCmd, migrateCmd, hashPasswordCmd)
}

func initEnv() {
	if err := godotenv.Load(envFile); err != nil {
		log.Info().Str("file", envFile).Msg("No .env file found, using environment variables from OS")
	}
}
