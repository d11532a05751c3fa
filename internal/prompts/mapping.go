package prompts

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/prombank/internal/tags"
	"github.com/JaimeStill/prombank/pkg/query"
	"github.com/JaimeStill/prombank/pkg/repository"
)

var projection = query.
	NewProjectionMap("prompts", "p").
	Project("id", "id").
	Project("title", "title").
	Project("description", "description").
	Project("content", "content").
	Project("prompt_type", "prompt_type").
	Project("status", "status").
	Project("version", "version").
	Project("category_id", "category_id").
	Project("usage_count", "usage_count").
	Project("last_used_at", "last_used_at").
	Project("is_public", "is_public").
	Project("is_favorite", "is_favorite").
	Project("is_template", "is_template").
	Project("template_variables", "template_variables").
	Project("source_url", "source_url").
	Project("source_type", "source_type").
	Project("import_hash", "import_hash").
	Project("created_at", "created_at").
	Project("updated_at", "updated_at")

var versionProjection = query.
	NewProjectionMap("prompt_versions", "v").
	Project("id", "id").
	Project("prompt_id", "prompt_id").
	Project("version", "version").
	Project("title", "title").
	Project("content", "content").
	Project("description", "description").
	Project("change_log", "change_log").
	Project("is_major_change", "is_major_change").
	Project("created_at", "created_at")

var defaultSort = query.SortField{
	Field:      "created_at",
	Descending: true,
}

const tagCondition = `EXISTS (
	SELECT 1 FROM prompt_tags pt
	JOIN tags t ON t.id = pt.tag_id
	WHERE pt.prompt_id = p.id AND t.name = ?)`

// Filters contains optional filtering criteria for prompt queries.
// Nil fields are ignored. A nil Status matches active and draft prompts.
// Tags requires every listed tag to be present.
type Filters struct {
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Type       *Type      `json:"prompt_type,omitempty"`
	Status     *Status    `json:"status,omitempty"`
	IsPublic   *bool      `json:"is_public,omitempty"`
	IsFavorite *bool      `json:"is_favorite,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.
		WhereEquals("category_id", f.CategoryID).
		WhereEquals("prompt_type", f.Type).
		WhereEquals("is_public", f.IsPublic).
		WhereEquals("is_favorite", f.IsFavorite)

	if f.Status != nil {
		b.WhereEquals("status", f.Status)
	} else {
		b.WhereIn("status", []any{StatusActive, StatusDraft})
	}

	for _, name := range tags.Normalize(f.Tags) {
		b.WhereRaw(tagCondition, name)
	}

	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Tags may repeat or be comma-separated.
func FiltersFromQuery(values url.Values) (Filters, error) {
	var f Filters

	if s := values.Get("category_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return f, fmt.Errorf("%w: category_id must be a UUID", ErrValidation)
		}
		f.CategoryID = &id
	}

	for _, raw := range values["tags"] {
		f.Tags = append(f.Tags, tags.Split(raw)...)
	}

	if s := values.Get("prompt_type"); s != "" {
		t, err := ParseType(s)
		if err != nil {
			return f, err
		}
		f.Type = &t
	}

	if s := values.Get("status"); s != "" {
		st, err := ParseStatus(s)
		if err != nil {
			return f, err
		}
		f.Status = &st
	}

	var err error
	if f.IsPublic, err = parseBool(values, "is_public"); err != nil {
		return f, err
	}
	if f.IsFavorite, err = parseBool(values, "is_favorite"); err != nil {
		return f, err
	}

	return f, nil
}

func parseBool(values url.Values, key string) (*bool, error) {
	s := values.Get(key)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a boolean", ErrValidation, key)
	}
	return &v, nil
}

func scanPrompt(s repository.Scanner) (Prompt, error) {
	var p Prompt
	var vars sql.NullString
	err := s.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Content,
		&p.Type,
		&p.Status,
		&p.Version,
		&p.CategoryID,
		&p.UsageCount,
		&p.LastUsedAt,
		&p.IsPublic,
		&p.IsFavorite,
		&p.IsTemplate,
		&vars,
		&p.SourceURL,
		&p.SourceType,
		&p.ImportHash,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return p, err
	}

	if vars.Valid && vars.String != "" {
		if err := json.Unmarshal([]byte(vars.String), &p.TemplateVariables); err != nil {
			return p, fmt.Errorf("decode template_variables: %w", err)
		}
	}
	return p, nil
}

func scanVersion(s repository.Scanner) (Version, error) {
	var v Version
	err := s.Scan(
		&v.ID,
		&v.PromptID,
		&v.Version,
		&v.Title,
		&v.Content,
		&v.Description,
		&v.ChangeLog,
		&v.IsMajorChange,
		&v.CreatedAt,
	)
	return v, err
}

func encodeVariables(vars map[string]any) (*string, error) {
	if vars == nil {
		return nil, nil
	}
	b, err := json.Marshal(vars)
	if err != nil {
		return nil, fmt.Errorf("%w: template_variables: %v", ErrValidation, err)
	}
	s := string(b)
	return &s, nil
}
