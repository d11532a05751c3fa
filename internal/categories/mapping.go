package categories

import (
	"github.com/JaimeStill/prombank/pkg/query"
	"github.com/JaimeStill/prombank/pkg/repository"
)

var projection = query.
	NewProjectionMap("categories", "c").
	Project("id", "id").
	Project("name", "name").
	Project("description", "description").
	Project("color", "color").
	Project("is_active", "is_active").
	Project("created_at", "created_at").
	Project("updated_at", "updated_at")

var defaultSort = query.SortField{
	Field: "name",
}

func scanCategory(s repository.Scanner) (Category, error) {
	var c Category
	err := s.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Color,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}
