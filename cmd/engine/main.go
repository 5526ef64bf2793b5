package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const appName = "tradingengine"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if os.Getenv("ENGINE_ENV") == "prod" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Deterministic trading decision engine",
		Version: engineVersionString(),
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newDecideCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newAuditCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}
