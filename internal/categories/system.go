package categories

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for category domain operations.
type System interface {
	Handler() *Handler

	List(ctx context.Context, activeOnly bool) ([]Category, error)
	Find(ctx context.Context, id uuid.UUID) (*Category, error)
	FindByName(ctx context.Context, name string) (*Category, error)
	Create(ctx context.Context, cmd CreateCommand) (*Category, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Category, error)

	// Delete removes a category, moving its prompts to the Fallback category
	// when one exists and otherwise clearing their category. Reports false
	// when no category has the given id.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// GetOrCreate returns the category named name, creating it with the
	// given description and color when absent. Safe under concurrent callers.
	GetOrCreate(ctx context.Context, name string, description, color *string) (*Category, error)

	// Seed ensures the Defaults categories exist.
	Seed(ctx context.Context) error
}
