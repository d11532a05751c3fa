package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/prombank/internal/api"
	"github.com/JaimeStill/prombank/internal/config"
	"github.com/JaimeStill/prombank/internal/infrastructure"
	"github.com/JaimeStill/prombank/internal/schema"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// app carries the state shared by every command of one invocation.
// The database is opened on first use and migrated before any command runs
// against it.
type app struct {
	cfgFile string
	output  string
	stderr  io.Writer

	cfg    *config.Config
	infra  *infrastructure.Infrastructure
	domain *api.Domain
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prombank",
		Short: "Manage a library of AI prompts",
		Long: `Prombank stores prompts with categories, tags, and version history.

The command line covers:
  - Prompt search, editing, versioning, and usage tracking
  - Category and tag management
  - Import and export in JSON, CSV, YAML, Markdown, and Fabric patterns
  - An MCP tool server over stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.output != outputTable && a.output != outputJSON {
				return fmt.Errorf("invalid output format %q: use table or json", a.output)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(
		&a.cfgFile, "config", config.BaseConfigFile, "config file; the environment overlay is read from the same directory",
	)
	cmd.PersistentFlags().StringVarP(
		&a.output, "output", "o", outputTable, "output format: table or json",
	)

	cmd.AddCommand(
		newVersionCmd(a),
		newInitCmd(a),
		newPromptCmd(a),
		newCategoryCmd(a),
		newTagCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newMCPCmd(a),
	)

	return cmd
}

func (a *app) load() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.LoadFile(a.cfgFile)
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

// open connects to the configured database, applies pending migrations,
// and builds the domain systems.
func (a *app) open(ctx context.Context) (*api.Domain, error) {
	if a.domain != nil {
		return a.domain, nil
	}

	cfg, err := a.load()
	if err != nil {
		return nil, err
	}

	infra, err := infrastructure.New(ctx, cfg, a.stderr)
	if err != nil {
		return nil, err
	}
	a.infra = infra

	db := infra.Database
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := schema.Up(ctx, db.Connection(), db.Driver()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	a.domain = api.NewDomain(api.NewRuntime(cfg, infra))
	return a.domain, nil
}

func (a *app) close() error {
	if a.infra == nil {
		return nil
	}
	return a.infra.Database.Close()
}
