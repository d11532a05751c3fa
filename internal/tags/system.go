package tags

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for tag domain operations.
type System interface {
	Handler() *Handler

	List(ctx context.Context) ([]Tag, error)
	Find(ctx context.Context, id uuid.UUID) (*Tag, error)
	FindByName(ctx context.Context, name string) (*Tag, error)
	Create(ctx context.Context, cmd CreateCommand) (*Tag, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Tag, error)

	// Delete removes a tag and its prompt associations.
	// Reports false when no tag has the given id.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// Search returns tags whose name contains q, case-insensitively, by name.
	Search(ctx context.Context, q string, limit int) ([]Tag, error)

	// Popular returns tags by descending prompt count, then name.
	// Tags without prompts are included with a zero count.
	Popular(ctx context.Context, limit int) ([]Usage, error)

	GetOrCreate(ctx context.Context, name string) (*Tag, error)
}
