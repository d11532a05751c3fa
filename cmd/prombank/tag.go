package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/prombank/internal/tags"
)

func newTagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Inspect tags",
	}

	cmd.AddCommand(newTagListCmd(a))
	return cmd
}

func newTagListCmd(a *app) *cobra.Command {
	var (
		search  string
		popular bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tags, optionally by popularity or name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			domain, err := a.open(ctx)
			if err != nil {
				return err
			}

			if popular {
				usage, err := domain.Tags.Popular(ctx, limit)
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), usage, func(w io.Writer) {
					fmt.Fprintln(w, "NAME\tPROMPTS")
					for _, u := range usage {
						fmt.Fprintf(w, "%s\t%d\n", u.Name, u.UsageCount)
					}
				})
			}

			var list []tags.Tag
			if search != "" {
				list, err = domain.Tags.Search(ctx, search, limit)
			} else {
				list, err = domain.Tags.List(ctx)
			}
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), list, func(w io.Writer) {
				if len(list) == 0 {
					fmt.Fprintln(w, "No tags found.")
					return
				}
				fmt.Fprintln(w, "NAME\tCOLOR\tDESCRIPTION")
				for _, t := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, deref(t.Color), truncate(deref(t.Description), 50))
				}
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&search, "search", "s", "", "match tag names containing the text")
	f.BoolVar(&popular, "popular", false, "order by the number of prompts carrying each tag")
	f.IntVarP(&limit, "limit", "l", 20, "maximum results for --search and --popular")

	return cmd
}
