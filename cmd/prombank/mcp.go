package main

import (
	"github.com/spf13/cobra"

	"github.com/JaimeStill/prombank/internal/tools"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the prompt tools over MCP on stdin and stdout",
		Long: `Serve the prompt library as MCP tools on stdin and stdout.

Logs are written to stderr so they never interleave with protocol messages.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			domain, err := a.open(ctx)
			if err != nil {
				return err
			}

			srv := tools.New(tools.Deps{
				Prompts:    domain.Prompts,
				Categories: domain.Categories,
				Tags:       domain.Tags,
				Transfer:   domain.Transfer,
			}, a.cfg.Version, a.infra.Logger)

			return srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
