package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johanstenius/mocktail-sub000/pkg/config"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file without starting the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(args[0])
			if err != nil {
				return err
			}

			endpoints := 0
			for _, p := range cfg.Projects {
				endpoints += len(p.Endpoints)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d project(s), %d endpoint(s)\n",
				args[0], len(cfg.Projects), endpoints)
			return nil
		},
	}
	return cmd
}
