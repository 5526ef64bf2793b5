package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/tradingengine/internal/normalize"
)

func newDecideCmd() *cobra.Command {
	var (
		fixturePath string
		ticker      string
		configPath  string
	)

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Run one decision against a JSON webhook fixture, for local debugging",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := wire(configPath, log.Logger)
			if err != nil {
				return err
			}

			body, err := os.ReadFile(fixturePath)
			if err != nil {
				return fmt.Errorf("failed to read fixture: %w", err)
			}

			result, appErr := c.normalizer.Normalize(body)
			if appErr != nil {
				return fmt.Errorf("normalize failed: %s", appErr.Error())
			}

			if err := applyFixture(c, result, c.clk.Now()); err != nil {
				return fmt.Errorf("failed to store fixture: %w", err)
			}

			resolvedTicker := ticker
			if resolvedTicker == "" {
				resolvedTicker = fixtureTicker(result)
			}

			packet, err := c.eng.Decide(context.Background(), "", resolvedTicker)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(packet)
		},
	}

	cmd.Flags().StringVar(&fixturePath, "fixture", "", "path to a JSON webhook payload (required)")
	cmd.Flags().StringVar(&ticker, "ticker", "", "ticker to decide for (defaults to the fixture's own ticker)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a matrices override YAML file")
	cmd.MarkFlagRequired("fixture")
	return cmd
}

// applyFixture stores whichever of Signal/Phase/Trend the fixture carries,
// the same way the webhook handler does, so `decide` exercises the same
// storage path a live payload would.
func applyFixture(c *components, result *normalize.Result, receivedAt time.Time) error {
	var err error
	switch {
	case result.Signal != nil:
		_, err = c.stores.Timeframe.Put(*result.Signal, receivedAt)
	case result.Phase != nil:
		_, err = c.stores.Phase.Put(*result.Phase, receivedAt)
	case result.Trend != nil:
		_, err = c.stores.Trend.Put(*result.Trend, receivedAt)
	}
	return err
}

func fixtureTicker(result *normalize.Result) string {
	switch {
	case result.Signal != nil:
		return result.Signal.Instrument.Ticker
	case result.Phase != nil:
		return result.Phase.Instrument.Ticker
	case result.Trend != nil:
		return result.Trend.Ticker
	default:
		return ""
	}
}
