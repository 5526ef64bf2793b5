package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "config",
		Short: "Inspect the frozen decision matrices",
	}

	hash := &cobra.Command{
		Use:   "hash",
		Short: "Print the config hash baked into every decision packet",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := wire(configPath, log.Logger)
			if err != nil {
				return err
			}
			fmt.Println(c.registry.Hash())
			return nil
		},
	}
	hash.Flags().StringVar(&configPath, "config", "", "path to a matrices override YAML file")

	root.AddCommand(hash)
	return root
}
