package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/prombank/internal/categories"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database schema and default categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := domain.Categories.Seed(cmd.Context()); err != nil {
				return fmt.Errorf("seed categories: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Database initialized (%s) with %d default categories\n",
				a.cfg.Database.Driver, len(categories.Defaults))
			return nil
		},
	}
}
