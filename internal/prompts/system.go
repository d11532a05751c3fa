package prompts

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/prombank/pkg/pagination"
)

// System defines the public contract for prompt domain operations.
// Every write to prompts, their tags, and their versions goes through it.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Prompt], error)

	// ListAll returns every prompt matching filters in default order.
	ListAll(ctx context.Context, filters Filters) ([]Prompt, error)

	Find(ctx context.Context, id uuid.UUID, include Include) (*Prompt, error)
	Create(ctx context.Context, cmd CreateCommand) (*Prompt, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Prompt, error)

	// Delete removes a prompt with its tag associations and versions.
	// Reports false when no prompt has the given id.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	Archive(ctx context.Context, id uuid.UUID) (*Prompt, error)

	// RecordUsage atomically increments the usage counter and stamps last use.
	RecordUsage(ctx context.Context, id uuid.UUID) (*Prompt, error)

	// ListVersions returns the prompt's versions, newest first.
	ListVersions(ctx context.Context, id uuid.UUID) ([]Version, error)

	// Popular, Recent, and Search consider active prompts only.
	Popular(ctx context.Context, limit int) ([]Prompt, error)
	Recent(ctx context.Context, limit int) ([]Prompt, error)
	Search(ctx context.Context, q string, limit int) ([]Prompt, error)

	// FindDuplicates returns prompts whose content hash equals hash, oldest first.
	FindDuplicates(ctx context.Context, hash string) ([]Prompt, error)
}
