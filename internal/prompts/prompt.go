// Package prompts implements the prompt domain: versioned prompt text
// grouped by category, labeled with tags, deduplicated by content hash,
// and tracked for usage.
package prompts

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/prombank/internal/categories"
	"github.com/JaimeStill/prombank/internal/tags"
	"github.com/JaimeStill/prombank/pkg/patch"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 1000
)

// Prompt is a stored prompt. Category and Tags are hydrated on every read;
// Versions only when requested.
type Prompt struct {
	ID                uuid.UUID            `json:"id"`
	Title             string               `json:"title"`
	Description       *string              `json:"description"`
	Content           string               `json:"content"`
	Type              Type                 `json:"prompt_type"`
	Status            Status               `json:"status"`
	Version           string               `json:"version"`
	CategoryID        *uuid.UUID           `json:"category_id"`
	UsageCount        int                  `json:"usage_count"`
	LastUsedAt        *time.Time           `json:"last_used_at"`
	IsPublic          bool                 `json:"is_public"`
	IsFavorite        bool                 `json:"is_favorite"`
	IsTemplate        bool                 `json:"is_template"`
	TemplateVariables map[string]any       `json:"template_variables"`
	SourceURL         *string              `json:"source_url"`
	SourceType        *string              `json:"source_type"`
	ImportHash        string               `json:"import_hash"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
	Category          *categories.Category `json:"category"`
	Tags              []tags.Tag           `json:"tags"`
	Versions          []Version            `json:"versions,omitempty"`
}

// TagNames returns the names of the prompt's tags.
func (p *Prompt) TagNames() []string {
	names := make([]string, len(p.Tags))
	for i, t := range p.Tags {
		names[i] = t.Name
	}
	return names
}

// CategoryName returns the hydrated category name, or empty.
func (p *Prompt) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

// Version is an immutable snapshot of a prompt taken when it was created
// or its content changed.
type Version struct {
	ID            uuid.UUID `json:"id"`
	PromptID      uuid.UUID `json:"prompt_id"`
	Version       string    `json:"version"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Description   *string   `json:"description"`
	ChangeLog     *string   `json:"change_log"`
	IsMajorChange bool      `json:"is_major_change"`
	CreatedAt     time.Time `json:"created_at"`
}

// Include selects optional relations to hydrate on Find.
type Include struct {
	Versions bool
}

// CreateCommand carries the data needed to create a prompt.
// An empty Type defaults to user.
type CreateCommand struct {
	Title             string         `json:"title"`
	Content           string         `json:"content"`
	Description       *string        `json:"description"`
	Type              Type           `json:"prompt_type"`
	CategoryID        *uuid.UUID     `json:"category_id"`
	Tags              []string       `json:"tags"`
	IsPublic          bool           `json:"is_public"`
	IsFavorite        bool           `json:"is_favorite"`
	IsTemplate        bool           `json:"is_template"`
	TemplateVariables map[string]any `json:"template_variables"`
	SourceURL         *string        `json:"source_url"`
	SourceType        *string        `json:"source_type"`
}

// UpdateCommand carries a partial prompt update. Tags, when set, replace
// the full tag set. A content change or CreateVersion records a new version;
// CreateVersion makes it a major bump.
type UpdateCommand struct {
	Title             patch.Field[string]         `json:"title"`
	Content           patch.Field[string]         `json:"content"`
	Description       patch.Field[string]         `json:"description"`
	CategoryID        patch.Field[uuid.UUID]      `json:"category_id"`
	Tags              patch.Field[[]string]       `json:"tags"`
	Status            patch.Field[Status]         `json:"status"`
	IsPublic          patch.Field[bool]           `json:"is_public"`
	IsFavorite        patch.Field[bool]           `json:"is_favorite"`
	TemplateVariables patch.Field[map[string]any] `json:"template_variables"`
	CreateVersion     bool                        `json:"create_version"`
	VersionComment    *string                     `json:"version_comment"`
}

// UsageResult reports the counters after a recorded use.
type UsageResult struct {
	Message    string     `json:"message"`
	UsageCount int        `json:"usage_count"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

func (p *Prompt) validate() error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return fmt.Errorf("%w: title required", ErrValidation)
	}
	if len(p.Title) > maxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrValidation, maxTitleLength)
	}
	if strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("%w: content required", ErrValidation)
	}
	if p.Description != nil && len(*p.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrValidation, maxDescriptionLength)
	}
	return nil
}
