package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/prombank/internal/transfer"
)

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import prompts from files or Fabric patterns",
	}

	cmd.AddCommand(
		newImportFileCmd(a),
		newImportFabricCmd(a),
	)

	return cmd
}

func newImportFileCmd(a *app) *cobra.Command {
	var (
		format         string
		category       string
		skipDuplicates bool
		updateExisting bool
	)

	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Import prompts from a json, csv, yaml, or markdown file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			f, err := importFormat(format, path)
			if err != nil {
				return err
			}
			if f == transfer.FormatFabric {
				return errors.New("use 'import fabric' for pattern directories")
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			domain, err := a.open(ctx)
			if err != nil {
				return err
			}

			result, err := domain.Transfer.Import(ctx, data, transfer.ImportOptions{
				Format:          f,
				SourceType:      new("file"),
				DefaultCategory: category,
				SkipDuplicates:  skipDuplicates,
				UpdateExisting:  updateExisting,
			})
			if err != nil {
				return err
			}

			report := result.Report("Import completed", a.cfg.Transfer.ErrorLimit)
			return a.render(cmd.OutOrStdout(), report, reportTable(report))
		},
	}

	f := cmd.Flags()
	f.StringVar(&format, "format", "", "file format (default: detected from the extension)")
	f.StringVar(&category, "category", "", "category for records that name none")
	f.BoolVar(&skipDuplicates, "skip-duplicates", true, "skip records whose content is already stored")
	f.BoolVar(&updateExisting, "update-existing", false, "update the stored prompt when content matches")

	return cmd
}

func newImportFabricCmd(a *app) *cobra.Command {
	var (
		skipDuplicates bool
		watch          bool
	)

	cmd := &cobra.Command{
		Use:   "fabric [patterns-dir]",
		Short: "Import Fabric patterns from a directory",
		Long: `Import every pattern directory holding a system.md file.

The directory defaults to transfer.fabric_dir from the configuration.
With --watch the import reruns whenever the patterns change, until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			domain, err := a.open(ctx)
			if err != nil {
				return err
			}

			root := a.cfg.Transfer.FabricDir
			if len(args) == 1 {
				root = args[0]
			}
			if root == "" {
				return errors.New("patterns directory required: pass it as an argument or set transfer.fabric_dir")
			}

			opts := transfer.FabricOptions{SkipDuplicates: skipDuplicates}
			importOnce := func(ctx context.Context) error {
				result, err := domain.Transfer.ImportFabric(ctx, root, opts)
				if err != nil {
					return err
				}
				report := result.Report("Fabric import completed", a.cfg.Transfer.ErrorLimit)
				return a.render(cmd.OutOrStdout(), report, reportTable(report))
			}

			if err := importOnce(ctx); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			return transfer.WatchFabric(
				ctx,
				root,
				a.cfg.Transfer.WatchDebounceDuration(),
				a.infra.Logger,
				importOnce,
			)
		},
	}

	cmd.Flags().BoolVar(&skipDuplicates, "skip-duplicates", true, "skip patterns whose content is already stored")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reimport when the patterns change")

	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export prompts",
	}

	cmd.AddCommand(newExportFileCmd(a))
	return cmd
}

func newExportFileCmd(a *app) *cobra.Command {
	var (
		format          string
		ids             string
		includeVersions bool
		includeMetadata bool
	)

	cmd := &cobra.Command{
		Use:   "file <output>",
		Short: "Export prompts to a json, csv, yaml, or markdown file",
		Long: `Export prompts to a file. Use - as the output to write to stdout.

The format defaults to the output file's extension, or json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := args[0]

			f, err := exportFormat(format, out)
			if err != nil {
				return err
			}

			opts := transfer.ExportOptions{
				Format:          f,
				IncludeVersions: includeVersions,
				IncludeMetadata: includeMetadata,
			}
			if ids != "" {
				for s := range strings.SplitSeq(ids, ",") {
					id, err := parseID(strings.TrimSpace(s))
					if err != nil {
						return err
					}
					opts.IDs = append(opts.IDs, id)
				}
			}

			domain, err := a.open(ctx)
			if err != nil {
				return err
			}

			doc, err := domain.Transfer.Export(ctx, opts)
			if err != nil {
				return err
			}

			if out == "-" {
				_, err := io.WriteString(cmd.OutOrStdout(), doc.Content)
				return err
			}
			if err := os.WriteFile(out, []byte(doc.Content), 0o644); err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), exportSummary{Path: out, Format: f, Count: doc.Count}, func(w io.Writer) {
				fmt.Fprintf(w, "Exported %d prompts to %s (%s)\n", doc.Count, out, f)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&format, "format", "", "output format: json, csv, yaml, or markdown")
	f.StringVar(&ids, "prompts", "", "comma-separated prompt ids (default: all)")
	f.BoolVar(&includeVersions, "include-versions", false, "include version history")
	f.BoolVar(&includeMetadata, "include-metadata", true, "include usage and publication metadata")

	return cmd
}

type exportSummary struct {
	Path   string          `json:"path"`
	Format transfer.Format `json:"format"`
	Count  int             `json:"count"`
}

func importFormat(flag, path string) (transfer.Format, error) {
	if flag != "" {
		return transfer.ParseFormat(flag)
	}
	return transfer.DetectFormat(path)
}

func exportFormat(flag, path string) (transfer.Format, error) {
	if flag == "" {
		f, err := transfer.DetectFormat(path)
		if err != nil {
			return transfer.FormatJSON, nil
		}
		return f, nil
	}

	f, err := transfer.ParseFormat(flag)
	if err != nil {
		return "", err
	}
	if !f.Exportable() {
		return "", fmt.Errorf("%w: %s cannot be exported", transfer.ErrInvalidFormat, f)
	}
	return f, nil
}
