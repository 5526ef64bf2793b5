package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sawpanic/tradingengine/internal/httpapi"
)

func newServeCmd() *cobra.Command {
	var (
		host       string
		port       int
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (webhooks, queries, health, metrics, decision stream)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := wire(configPath, log.Logger)
			if err != nil {
				return err
			}

			cfg := httpapi.DefaultServerConfig()
			if host != "" {
				cfg.Host = host
			}
			if port != 0 {
				cfg.Port = port
			}

			srv, err := httpapi.NewServer(cfg, c.normalizer, c.stores, c.eng, c.metrics, c.registry, c.clk, c.log)
			if err != nil {
				return err
			}

			if term.IsTerminal(int(os.Stdout.Fd())) {
				log.Info().Str("addr", srv.Address()).Msg("serving (interactive terminal — Ctrl+C to stop)")
			} else {
				log.Info().Str("addr", srv.Address()).Msg("serving")
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-sigCh:
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default 8080, or $HTTP_PORT)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a matrices override YAML file")
	return cmd
}
