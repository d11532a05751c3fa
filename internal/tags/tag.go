// Package tags implements shared prompt labels and their many-to-many
// association with prompts.
package tags

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/prombank/pkg/patch"
)

const (
	maxNameLength        = 50
	maxDescriptionLength = 500
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Tag is a shared label attached to any number of prompts.
type Tag struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Color       *string   `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Usage pairs a tag with the number of prompts carrying it.
type Usage struct {
	Tag
	UsageCount int `json:"usage_count"`
}

// CreateCommand carries the data needed to create a tag.
type CreateCommand struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// UpdateCommand carries a partial tag update.
type UpdateCommand struct {
	Name        patch.Field[string] `json:"name"`
	Description patch.Field[string] `json:"description"`
	Color       patch.Field[string] `json:"color"`
}

// Normalize trims names, drops empty ones, and removes duplicates
// while keeping first-seen order.
func Normalize(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Split parses a comma-separated tag list.
func Split(s string) []string {
	return Normalize(strings.Split(s, ","))
}

func (t *Tag) validate() error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if len(t.Name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrValidation, maxNameLength)
	}
	if t.Description != nil && len(*t.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrValidation, maxDescriptionLength)
	}
	if t.Color != nil && !colorPattern.MatchString(*t.Color) {
		return fmt.Errorf("%w: color must be a hex code like #0ea5e9", ErrValidation)
	}
	return nil
}

func (cmd UpdateCommand) apply(t *Tag) {
	t.Name = cmd.Name.Or(t.Name)
	if cmd.Description.Set {
		t.Description = cmd.Description.Ptr()
	}
	if cmd.Color.Set {
		t.Color = cmd.Color.Ptr()
	}
}
