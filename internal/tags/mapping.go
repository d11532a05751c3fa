package tags

import (
	"github.com/google/uuid"

	"github.com/JaimeStill/prombank/pkg/query"
	"github.com/JaimeStill/prombank/pkg/repository"
)

var projection = query.
	NewProjectionMap("tags", "t").
	Project("id", "id").
	Project("name", "name").
	Project("description", "description").
	Project("color", "color").
	Project("created_at", "created_at").
	Project("updated_at", "updated_at")

// assigned projects tags through their prompt associations.
var assigned = query.
	NewProjectionMap("tags", "t").
	Project("id", "id").
	Project("name", "name").
	Project("description", "description").
	Project("color", "color").
	Project("created_at", "created_at").
	Project("updated_at", "updated_at").
	Join("prompt_tags", "pt", "JOIN", "pt.tag_id = t.id").
	Project("prompt_id", "prompt_id")

var defaultSort = query.SortField{
	Field: "name",
}

type assignment struct {
	promptID uuid.UUID
	tag      Tag
}

func scanTag(s repository.Scanner) (Tag, error) {
	var t Tag
	err := s.Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.Color,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

func scanUsage(s repository.Scanner) (Usage, error) {
	var u Usage
	err := s.Scan(
		&u.ID,
		&u.Name,
		&u.Description,
		&u.Color,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.UsageCount,
	)
	return u, err
}

func scanAssignment(s repository.Scanner) (assignment, error) {
	var a assignment
	err := s.Scan(
		&a.tag.ID,
		&a.tag.Name,
		&a.tag.Description,
		&a.tag.Color,
		&a.tag.CreatedAt,
		&a.tag.UpdatedAt,
		&a.promptID,
	)
	return a, err
}
