// Package categories implements the prompt category domain: named,
// optionally colored groupings that own zero or more prompts.
package categories

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/prombank/pkg/patch"
)

// Fallback is the category that receives prompts from a deleted category.
const Fallback = "General"

const (
	maxNameLength        = 100
	maxDescriptionLength = 500
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Category groups prompts. PromptCount is populated by List.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Color       *string   `json:"color"`
	IsActive    bool      `json:"is_active"`
	PromptCount int       `json:"prompt_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateCommand carries the data needed to create a category.
type CreateCommand struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// UpdateCommand carries a partial category update. Unset fields are left unchanged;
// description and color accept null to clear them.
type UpdateCommand struct {
	Name        patch.Field[string] `json:"name"`
	Description patch.Field[string] `json:"description"`
	Color       patch.Field[string] `json:"color"`
	IsActive    patch.Field[bool]   `json:"is_active"`
}

// Defaults are the categories seeded into a new database.
var Defaults = []CreateCommand{
	{Name: Fallback, Description: new("General purpose prompts"), Color: new("#6366f1")},
	{Name: "Coding", Description: new("Programming and development prompts"), Color: new("#10b981")},
	{Name: "Writing", Description: new("Content creation and writing prompts"), Color: new("#f59e0b")},
	{Name: "Analysis", Description: new("Data analysis and research prompts"), Color: new("#ef4444")},
	{Name: "Creative", Description: new("Creative and artistic prompts"), Color: new("#8b5cf6")},
}

func (c *Category) validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if len(c.Name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrValidation, maxNameLength)
	}
	if c.Description != nil && len(*c.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrValidation, maxDescriptionLength)
	}
	if c.Color != nil && !colorPattern.MatchString(*c.Color) {
		return fmt.Errorf("%w: color must be a hex code like #0ea5e9", ErrValidation)
	}
	return nil
}

func (cmd UpdateCommand) apply(c *Category) {
	c.Name = cmd.Name.Or(c.Name)
	if cmd.Description.Set {
		c.Description = cmd.Description.Ptr()
	}
	if cmd.Color.Set {
		c.Color = cmd.Color.Ptr()
	}
	c.IsActive = cmd.IsActive.Or(c.IsActive)
}
