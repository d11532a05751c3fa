package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/prombank/internal/api"
	"github.com/JaimeStill/prombank/internal/prompts"
	"github.com/JaimeStill/prombank/internal/tags"
	"github.com/JaimeStill/prombank/pkg/pagination"
	"github.com/JaimeStill/prombank/pkg/patch"
	"github.com/JaimeStill/prombank/pkg/query"
)

func newPromptCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Manage prompts",
	}

	cmd.AddCommand(
		newPromptListCmd(a),
		newPromptShowCmd(a),
		newPromptCreateCmd(a),
		newPromptUpdateCmd(a),
		newPromptDeleteCmd(a),
		newPromptVersionsCmd(a),
		newPromptUseCmd(a),
	)

	return cmd
}

func newPromptListCmd(a *app) *cobra.Command {
	var (
		search, category, tagList string
		promptType, status        string
		public, favorite          bool
		limit                     int
		sortBy, order             string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List prompts matching the given filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			domain, err := a.open(ctx)
			if err != nil {
				return err
			}

			var filters prompts.Filters
			if category != "" {
				c, err := domain.Categories.FindByName(ctx, category)
				if err != nil {
					return fmt.Errorf("category %q: %w", category, err)
				}
				filters.CategoryID = &c.ID
			}
			if tagList != "" {
				filters.Tags = tags.Split(tagList)
			}
			if promptType != "" {
				t, err := prompts.ParseType(promptType)
				if err != nil {
					return err
				}
				filters.Type = &t
			}
			if status != "" {
				s, err := prompts.ParseStatus(status)
				if err != nil {
					return err
				}
				filters.Status = &s
			}
			if cmd.Flags().Changed("public") {
				filters.IsPublic = &public
			}
			if cmd.Flags().Changed("favorite") {
				filters.IsFavorite = &favorite
			}

			order = strings.ToLower(order)
			if order != "asc" && order != "desc" {
				return fmt.Errorf("%w: %q", pagination.ErrInvalidSortOrder, order)
			}

			page := pagination.PageRequest{
				Page:     1,
				PageSize: limit,
				Sort:     pagination.SortFields{query.SortField{Field: sortBy, Descending: order == "desc"}},
			}
			if search != "" {
				page.Search = &search
			}

			result, err := domain.Prompts.List(ctx, page, filters)
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), result, func(w io.Writer) {
				if len(result.Data) == 0 {
					fmt.Fprintln(w, "No prompts found.")
					return
				}
				promptTable(result.Data)(w)
				fmt.Fprintf(w, "\nShowing %d of %d prompts\n", len(result.Data), result.Total)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&search, "search", "s", "", "search title, description, and content")
	f.StringVarP(&category, "category", "c", "", "filter by category name")
	f.StringVarP(&tagList, "tags", "t", "", "filter by tags (comma-separated, all must match)")
	f.StringVar(&promptType, "type", "", "filter by prompt type")
	f.StringVar(&status, "status", "", "filter by status (default: active and draft)")
	f.BoolVar(&public, "public", false, "filter by public flag; --public=false selects private prompts")
	f.BoolVar(&favorite, "favorite", false, "filter by favorite flag")
	f.IntVarP(&limit, "limit", "l", 20, "maximum number of results")
	f.StringVar(&sortBy, "sort", "created_at", "sort field")
	f.StringVar(&order, "order", "desc", "sort order: asc or desc")

	return cmd
}

func newPromptShowCmd(a *app) *cobra.Command {
	var use bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			domain, err := a.open(ctx)
			if err != nil {
				return err
			}

			if use {
				if _, err := domain.Prompts.RecordUsage(ctx, id); err != nil {
					return err
				}
			}

			p, err := domain.Prompts.Find(ctx, id, prompts.Include{})
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), p, promptDetail(p))
		},
	}

	cmd.Flags().BoolVar(&use, "use", false, "record a use of the prompt")
	return cmd
}

func newPromptCreateCmd(a *app) *cobra.Command {
	var (
		title, content, file  string
		description, category string
		tagList, promptType   string
		public, template      bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			body, err := readContent(cmd.InOrStdin(), content, file)
			if err != nil {
				return err
			}
			if body == "" {
				return errors.New("content required: use --content or --file")
			}

			t, err := prompts.ParseType(promptType)
			if err != nil {
				return err
			}

			domain, err := a.open(ctx)
			if err != nil {
				return err
			}

			c := prompts.CreateCommand{
				Title:      title,
				Content:    body,
				Type:       t,
				Tags:       tags.Split(tagList),
				IsPublic:   public,
				IsTemplate: template,
			}
			if description != "" {
				c.Description = &description
			}
			if category != "" {
				id, err := categoryID(ctx, domain, category)
				if err != nil {
					return err
				}
				c.CategoryID = &id
			}

			p, err := domain.Prompts.Create(ctx, c)
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), p, func(w io.Writer) {
				fmt.Fprintf(w, "Created prompt %s: %s\n", p.ID, p.Title)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&title, "title", "t", "", "prompt title")
	f.StringVarP(&content, "content", "c", "", "prompt content")
	f.StringVarP(&file, "file", "f", "", "read content from a file, or - for stdin")
	f.StringVarP(&description, "description", "d", "", "prompt description")
	f.StringVar(&category, "category", "", "category name, created when missing")
	f.StringVar(&tagList, "tags", "", "tags (comma-separated)")
	f.StringVar(&promptType, "type", string(prompts.TypeUser), "prompt type")
	f.BoolVar(&public, "public", false, "make the prompt public")
	f.BoolVar(&template, "template", false, "mark the prompt as a template")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagsMutuallyExclusive("content", "file")

	return cmd
}

func newPromptUpdateCmd(a *app) *cobra.Command {
	var (
		title, content, file  string
		description, category string
		tagList, status       string
		public, favorite      bool
		newVersion            bool
		versionComment        string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a prompt",
		Long: `Update a prompt. Only the given flags are changed.

A content change records a new patch version; --version records a
major version even when the content is unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			var u prompts.UpdateCommand

			if flags.Changed("title") {
				u.Title = patch.Value(title)
			}
			if flags.Changed("content") || flags.Changed("file") {
				body, err := readContent(cmd.InOrStdin(), content, file)
				if err != nil {
					return err
				}
				u.Content = patch.Value(body)
			}
			if flags.Changed("description") {
				u.Description = patch.Value(description)
			}
			if flags.Changed("tags") {
				u.Tags = patch.Value(tags.Split(tagList))
			}
			if flags.Changed("status") {
				s, err := prompts.ParseStatus(status)
				if err != nil {
					return err
				}
				u.Status = patch.Value(s)
			}
			if flags.Changed("public") {
				u.IsPublic = patch.Value(public)
			}
			if flags.Changed("favorite") {
				u.IsFavorite = patch.Value(favorite)
			}
			u.CreateVersion = newVersion
			if versionComment != "" {
				u.VersionComment = &versionComment
			}

			domain, err := a.open(ctx)
			if err != nil {
				return err
			}

			if flags.Changed("category") {
				cid, err := categoryID(ctx, domain, category)
				if err != nil {
					return err
				}
				u.CategoryID = patch.Value(cid)
			}

			p, err := domain.Prompts.Update(ctx, id, u)
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), p, func(w io.Writer) {
				fmt.Fprintf(w, "Updated prompt %s: %s (version %s)\n", p.ID, p.Title, p.Version)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&title, "title", "t", "", "new title")
	f.StringVarP(&content, "content", "c", "", "new content")
	f.StringVarP(&file, "file", "f", "", "read new content from a file, or - for stdin")
	f.StringVarP(&description, "description", "d", "", "new description")
	f.StringVar(&category, "category", "", "new category name, created when missing")
	f.StringVar(&tagList, "tags", "", "replacement tags (comma-separated)")
	f.StringVar(&status, "status", "", "new status")
	f.BoolVar(&public, "public", false, "set the public flag")
	f.BoolVar(&favorite, "favorite", false, "set the favorite flag")
	f.BoolVar(&newVersion, "version", false, "record a new major version")
	f.StringVar(&versionComment, "version-comment", "", "change log for the new version")
	cmd.MarkFlagsMutuallyExclusive("content", "file")

	return cmd
}

func newPromptDeleteCmd(a *app) *cobra.Command {
	var archive, yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete or archive a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Are you sure you want to delete this prompt?") {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}

			domain, err := a.open(ctx)
			if err != nil {
				return err
			}

			if archive {
				p, err := domain.Prompts.Archive(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Archived prompt %s: %s\n", p.ID, p.Title)
				return nil
			}

			deleted, err := domain.Prompts.Delete(ctx, id)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("%w: %s", prompts.ErrNotFound, id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted prompt %s\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&archive, "archive", false, "archive instead of delete")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newPromptVersionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "versions <id>",
		Short: "List the version history of a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			domain, err := a.open(ctx)
			if err != nil {
				return err
			}

			versions, err := domain.Prompts.ListVersions(ctx, id)
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), versions, func(w io.Writer) {
				fmt.Fprintln(w, "VERSION\tMAJOR\tCREATED\tCHANGE LOG")
				for _, v := range versions {
					log := "-"
					if v.ChangeLog != nil {
						log = *v.ChangeLog
					}
					fmt.Fprintf(w, "%s\t%t\t%s\t%s\n",
						v.Version, v.IsMajorChange, v.CreatedAt.Format("2006-01-02 15:04"), log)
				}
			})
		},
	}
}

func newPromptUseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Record a use of a prompt and print its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			domain, err := a.open(ctx)
			if err != nil {
				return err
			}

			p, err := domain.Prompts.RecordUsage(ctx, id)
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), p, func(w io.Writer) {
				fmt.Fprintln(w, p.Content)
			})
		},
	}
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid prompt id %q", s)
	}
	return id, nil
}

func categoryID(ctx context.Context, domain *api.Domain, name string) (uuid.UUID, error) {
	c, err := domain.Categories.GetOrCreate(ctx, name, nil, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("category %q: %w", name, err)
	}
	return c.ID, nil
}

// readContent returns content, or the contents of file when set.
// A file of "-" reads from in.
func readContent(in io.Reader, content, file string) (string, error) {
	switch file {
	case "":
		return content, nil
	case "-":
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
