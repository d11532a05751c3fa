package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/prombank/pkg/query"
	"github.com/JaimeStill/prombank/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a tag repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "tags"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) List(ctx context.Context) ([]Tag, error) {
	q, args := query.NewBuilder(projection, defaultSort).Build()

	tags, err := repository.QueryMany(ctx, r.db, q, args, scanTag)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	return tags, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Tag, error) {
	return lookup(ctx, r.db, "id", id)
}

func (r *repo) FindByName(ctx context.Context, name string) (*Tag, error) {
	return lookup(ctx, r.db, "name", name)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Tag, error) {
	now := time.Now().UTC()
	t := Tag{
		ID:          uuid.New(),
		Name:        cmd.Name,
		Description: cmd.Description,
		Color:       cmd.Color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.validate(); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO tags (id, name, description, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	created, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Tag, error) {
		if _, err := tx.ExecContext(ctx, q,
			t.ID, t.Name, t.Description, t.Color, t.CreatedAt, t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		return lookup(ctx, tx, "id", t.ID)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("tag created", "id", created.ID, "name", created.Name)
	return created, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Tag, error) {
	q := `
		UPDATE tags
		SET name = $1, description = $2, color = $3, updated_at = $4
		WHERE id = $5`

	updated, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Tag, error) {
		t, err := lookup(ctx, tx, "id", id)
		if err != nil {
			return nil, err
		}

		cmd.apply(t)
		if err := t.validate(); err != nil {
			return nil, err
		}

		if _, err := tx.ExecContext(ctx, q,
			t.Name, t.Description, t.Color, time.Now().UTC(), id,
		); err != nil {
			return nil, err
		}
		return lookup(ctx, tx, "id", id)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("tag updated", "id", updated.ID, "name", updated.Name)
	return updated, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	err := repository.InTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM prompt_tags WHERE tag_id = $1", id); err != nil {
			return fmt.Errorf("remove tag associations: %w", err)
		}
		return repository.ExecExpectOne(ctx, tx, "DELETE FROM tags WHERE id = $1", id)
	})

	if err != nil {
		err = repository.MapError(err, ErrNotFound, ErrDuplicate)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	r.logger.Info("tag deleted", "id", id)
	return true, nil
}

func (r *repo) Search(ctx context.Context, q string, limit int) ([]Tag, error) {
	stmt, args := query.
		NewBuilder(projection, defaultSort).
		WhereContains("name", &q).
		BuildLimit(limit)

	tags, err := repository.QueryMany(ctx, r.db, stmt, args, scanTag)
	if err != nil {
		return nil, fmt.Errorf("search tags: %w", err)
	}
	return tags, nil
}

func (r *repo) Popular(ctx context.Context, limit int) ([]Usage, error) {
	q := fmt.Sprintf(`
		SELECT %s, COUNT(pt.prompt_id)
		FROM %s
		LEFT JOIN prompt_tags pt ON pt.tag_id = t.id
		GROUP BY %s
		ORDER BY COUNT(pt.prompt_id) DESC, t.name ASC
		LIMIT $1`,
		projection.Columns(), projection.Table(), projection.Columns(),
	)

	usage, err := repository.QueryMany(ctx, r.db, q, []any{limit}, scanUsage)
	if err != nil {
		return nil, fmt.Errorf("popular tags: %w", err)
	}
	return usage, nil
}

func (r *repo) GetOrCreate(ctx context.Context, name string) (*Tag, error) {
	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Tag, error) {
		return Ensure(ctx, tx, name)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return t, nil
}

func lookup(ctx context.Context, conn repository.Querier, field string, value any) (*Tag, error) {
	q, args := query.NewBuilder(projection).BuildSingle(field, value)

	t, err := repository.QueryOne(ctx, conn, q, args, scanTag)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &t, nil
}

// Ensure returns the tag named name within conn, inserting it when absent.
func Ensure(ctx context.Context, conn repository.Conn, name string) (*Tag, error) {
	now := time.Now().UTC()
	t := Tag{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := t.validate(); err != nil {
		return nil, err
	}

	if _, err := conn.ExecContext(ctx, `
		INSERT INTO tags (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING`,
		t.ID, t.Name, t.CreatedAt, t.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("ensure tag %s: %w", t.Name, err)
	}

	return lookup(ctx, conn, "name", t.Name)
}

// Resolve normalizes names and returns the matching tags in order,
// creating missing ones within conn.
func Resolve(ctx context.Context, conn repository.Conn, names []string) ([]Tag, error) {
	names = Normalize(names)
	resolved := make([]Tag, 0, len(names))
	for _, name := range names {
		t, err := Ensure(ctx, conn, name)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, *t)
	}
	return resolved, nil
}

// Assign replaces the tag set of a prompt within conn.
func Assign(ctx context.Context, conn repository.Conn, promptID uuid.UUID, tags []Tag) error {
	if _, err := conn.ExecContext(ctx, "DELETE FROM prompt_tags WHERE prompt_id = $1", promptID); err != nil {
		return fmt.Errorf("clear prompt tags: %w", err)
	}

	for _, t := range tags {
		if _, err := conn.ExecContext(ctx,
			"INSERT INTO prompt_tags (prompt_id, tag_id) VALUES ($1, $2)",
			promptID, t.ID,
		); err != nil {
			return fmt.Errorf("assign tag %s: %w", t.Name, err)
		}
	}
	return nil
}

// ForPrompts loads the tags of each prompt, ordered by name.
// Prompts without tags are absent from the result.
func ForPrompts(ctx context.Context, conn repository.Querier, promptIDs []uuid.UUID) (map[uuid.UUID][]Tag, error) {
	result := make(map[uuid.UUID][]Tag, len(promptIDs))
	if len(promptIDs) == 0 {
		return result, nil
	}

	values := make([]any, len(promptIDs))
	for i, id := range promptIDs {
		values[i] = id
	}

	q, args := query.
		NewBuilder(assigned, defaultSort).
		WhereIn("prompt_id", values).
		Build()

	rows, err := repository.QueryMany(ctx, conn, q, args, scanAssignment)
	if err != nil {
		return nil, fmt.Errorf("load prompt tags: %w", err)
	}

	for _, a := range rows {
		result[a.promptID] = append(result[a.promptID], a.tag)
	}
	return result, nil
}
