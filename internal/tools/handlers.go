package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/prombank/internal/categories"
	"github.com/JaimeStill/prombank/internal/prompts"
	"github.com/JaimeStill/prombank/internal/transfer"
	"github.com/JaimeStill/prombank/pkg/pagination"
	"github.com/JaimeStill/prombank/pkg/patch"
)

const (
	importErrorLimit  = 5
	importPromptLimit = 10
)

func (s *Server) searchPrompts(ctx context.Context, args arguments) (string, error) {
	q, err := args.required("query")
	if err != nil {
		return "", err
	}
	limit, err := args.limit("limit", defaultLimit, maxLimit)
	if err != nil {
		return "", err
	}
	tagNames, err := args.list("tags")
	if err != nil {
		return "", err
	}

	category, err := args.str("category", "")
	if err != nil {
		return "", err
	}

	filters := prompts.Filters{Tags: tagNames, Status: new(prompts.StatusActive)}

	if name := strings.TrimSpace(category); name != "" {
		c, err := s.deps.Categories.FindByName(ctx, name)
		if errors.Is(err, categories.ErrNotFound) {
			return fmt.Sprintf("No prompts found for query: '%s'", q), nil
		}
		if err != nil {
			return "", err
		}
		filters.CategoryID = &c.ID
	}

	page, err := s.deps.Prompts.List(ctx, pagination.PageRequest{
		Page:     1,
		PageSize: limit,
		Search:   &q,
	}, filters)
	if err != nil {
		return "", err
	}

	if len(page.Data) == 0 {
		return fmt.Sprintf("No prompts found for query: '%s'", q), nil
	}
	return searchResults(page.Data, page.Total), nil
}

func (s *Server) getPrompt(ctx context.Context, args arguments) (string, error) {
	id, err := args.id("prompt_id")
	if err != nil {
		return "", err
	}

	p, err := s.deps.Prompts.RecordUsage(ctx, id)
	if errors.Is(err, prompts.ErrNotFound) {
		return notFound(id), nil
	}
	if err != nil {
		return "", err
	}
	return promptDetail(p), nil
}

func (s *Server) createPrompt(ctx context.Context, args arguments) (string, error) {
	title, err := args.required("title")
	if err != nil {
		return "", err
	}
	content, err := args.required("content")
	if err != nil {
		return "", err
	}

	cmd := prompts.CreateCommand{Title: title, Content: content}
	if args.has("description") {
		d, err := args.str("description", "")
		if err != nil {
			return "", err
		}
		cmd.Description = &d
	}
	if cmd.Tags, err = args.list("tags"); err != nil {
		return "", err
	}
	if cmd.IsPublic, err = args.boolean("is_public", false); err != nil {
		return "", err
	}
	if cmd.IsTemplate, err = args.boolean("is_template", false); err != nil {
		return "", err
	}
	if cmd.CategoryID, err = s.category(ctx, args); err != nil {
		return "", err
	}

	p, err := s.deps.Prompts.Create(ctx, cmd)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully created prompt '%s' with ID %s", p.Title, p.ID), nil
}

func (s *Server) updatePrompt(ctx context.Context, args arguments) (string, error) {
	id, err := args.id("prompt_id")
	if err != nil {
		return "", err
	}

	var cmd prompts.UpdateCommand
	for key, field := range map[string]*patch.Field[string]{
		"title":       &cmd.Title,
		"content":     &cmd.Content,
		"description": &cmd.Description,
	} {
		if !args.has(key) {
			continue
		}
		v, err := args.str(key, "")
		if err != nil {
			return "", err
		}
		*field = patch.Value(v)
	}

	if args.has("tags") {
		names, err := args.list("tags")
		if err != nil {
			return "", err
		}
		cmd.Tags = patch.Value(names)
	}
	if cmd.CreateVersion, err = args.boolean("create_version", false); err != nil {
		return "", err
	}

	categoryID, err := s.category(ctx, args)
	if err != nil {
		return "", err
	}
	if categoryID != nil {
		cmd.CategoryID = patch.Value(*categoryID)
	}

	p, err := s.deps.Prompts.Update(ctx, id, cmd)
	if errors.Is(err, prompts.ErrNotFound) {
		return notFound(id), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully updated prompt '%s' (ID: %s)", p.Title, p.ID), nil
}

func (s *Server) deletePrompt(ctx context.Context, args arguments) (string, error) {
	id, err := args.id("prompt_id")
	if err != nil {
		return "", err
	}

	deleted, err := s.deps.Prompts.Delete(ctx, id)
	if err != nil {
		return "", err
	}
	if !deleted {
		return notFound(id), nil
	}
	return fmt.Sprintf("Successfully deleted prompt with ID %s", id), nil
}

func (s *Server) listCategories(ctx context.Context, args arguments) (string, error) {
	activeOnly, err := args.boolean("active_only", true)
	if err != nil {
		return "", err
	}

	list, err := s.deps.Categories.List(ctx, activeOnly)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "No categories found", nil
	}
	return categoryList(list), nil
}

func (s *Server) listTags(ctx context.Context, args arguments) (string, error) {
	limit, err := args.limit("limit", defaultTagLimit, maxLimit)
	if err != nil {
		return "", err
	}
	search, err := args.str("search", "")
	if err != nil {
		return "", err
	}
	popular, err := args.boolean("popular", false)
	if err != nil {
		return "", err
	}

	switch {
	case strings.TrimSpace(search) != "":
		found, err := s.deps.Tags.Search(ctx, search, limit)
		if err != nil {
			return "", err
		}
		return tagList(fmt.Sprintf("Found %d tags matching '%s':", len(found), search), found), nil
	case popular:
		usage, err := s.deps.Tags.Popular(ctx, limit)
		if err != nil {
			return "", err
		}
		return popularTags(usage), nil
	default:
		all, err := s.deps.Tags.List(ctx)
		if err != nil {
			return "", err
		}
		return tagList(fmt.Sprintf("Found %d tags:", len(all)), all), nil
	}
}

func (s *Server) importPrompts(ctx context.Context, args arguments) (string, error) {
	content, err := args.required("content")
	if err != nil {
		return "", err
	}
	raw, err := args.str("format_type", string(transfer.FormatMarkdown))
	if err != nil {
		return "", err
	}
	format, err := transfer.ParseFormat(raw)
	if err != nil {
		return "", err
	}
	title, err := args.str("title", "")
	if err != nil {
		return "", err
	}
	category, err := args.str("category", "")
	if err != nil {
		return "", err
	}

	var result *transfer.Result
	if strings.TrimSpace(title) != "" {
		result, err = s.deps.Transfer.Text(ctx, transfer.TextImport{
			Content:  content,
			Format:   format,
			Title:    title,
			Category: category,
		})
	} else {
		result, err = s.deps.Transfer.Import(ctx, []byte(content), transfer.ImportOptions{
			Format:          format,
			DefaultCategory: category,
			SkipDuplicates:  true,
			SourceType:      new("mcp"),
		})
	}
	if err != nil {
		return "", err
	}
	return importSummary(result), nil
}

func (s *Server) exportPrompts(ctx context.Context, args arguments) (string, error) {
	raw, err := args.str("format_type", string(transfer.FormatJSON))
	if err != nil {
		return "", err
	}
	format, err := transfer.ParseFormat(raw)
	if err != nil {
		return "", err
	}

	opts := transfer.ExportOptions{Format: format}
	if opts.IDs, err = args.ids("prompt_ids"); err != nil {
		return "", err
	}
	if opts.IncludeMetadata, err = args.boolean("include_metadata", true); err != nil {
		return "", err
	}

	doc, err := s.deps.Transfer.Export(ctx, opts)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Exported prompts in %s format:\n\n%s", format, doc.Content), nil
}

func (s *Server) popularPrompts(ctx context.Context, args arguments) (string, error) {
	limit, err := args.limit("limit", defaultLimit, maxLimit)
	if err != nil {
		return "", err
	}

	list, err := s.deps.Prompts.Popular(ctx, limit)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "No popular prompts found", nil
	}
	return popularList(list), nil
}

func (s *Server) recentPrompts(ctx context.Context, args arguments) (string, error) {
	limit, err := args.limit("limit", defaultLimit, maxLimit)
	if err != nil {
		return "", err
	}

	list, err := s.deps.Prompts.Recent(ctx, limit)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "No recent prompts found", nil
	}
	return recentList(list), nil
}

// category resolves the optional category argument, creating the
// category when it does not exist yet.
func (s *Server) category(ctx context.Context, args arguments) (*uuid.UUID, error) {
	name, err := args.str("category", "")
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	c, err := s.deps.Categories.GetOrCreate(ctx, name, nil, nil)
	if err != nil {
		return nil, err
	}
	return &c.ID, nil
}

func notFound(id uuid.UUID) string {
	return fmt.Sprintf("Prompt with ID %s not found", id)
}
