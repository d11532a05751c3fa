package main

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/prombank/internal/categories"
)

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}

	cmd.AddCommand(
		newCategoryListCmd(a),
		newCategoryCreateCmd(a),
		newCategoryDeleteCmd(a),
	)

	return cmd
}

func newCategoryListCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories with their prompt counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			list, err := domain.Categories.List(cmd.Context(), !all)
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), list, func(w io.Writer) {
				if len(list) == 0 {
					fmt.Fprintln(w, "No categories found.")
					return
				}
				fmt.Fprintln(w, "NAME\tPROMPTS\tCOLOR\tACTIVE\tDESCRIPTION")
				for _, c := range list {
					fmt.Fprintf(w, "%s\t%d\t%s\t%t\t%s\n",
						c.Name, c.PromptCount, deref(c.Color), c.IsActive, truncate(deref(c.Description), 50))
				}
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include inactive categories")
	return cmd
}

func newCategoryCreateCmd(a *app) *cobra.Command {
	var name, description, color string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			c := categories.CreateCommand{Name: name}
			if description != "" {
				c.Description = &description
			}
			if color != "" {
				c.Color = &color
			}

			created, err := domain.Categories.Create(cmd.Context(), c)
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), created, func(w io.Writer) {
				fmt.Fprintf(w, "Created category %s\n", created.Name)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&name, "name", "n", "", "category name")
	f.StringVarP(&description, "description", "d", "", "category description")
	f.StringVarP(&color, "color", "c", "", "hex color code, e.g. #ff0000")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newCategoryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name|id>",
		Short: "Delete a category; its prompts become uncategorized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			domain, err := a.open(ctx)
			if err != nil {
				return err
			}

			id, err := uuid.Parse(args[0])
			if err != nil {
				c, err := domain.Categories.FindByName(ctx, args[0])
				if err != nil {
					return fmt.Errorf("category %q: %w", args[0], err)
				}
				id = c.ID
			}

			deleted, err := domain.Categories.Delete(ctx, id)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("%w: %s", categories.ErrNotFound, args[0])
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s\n", args[0])
			return nil
		},
	}
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
