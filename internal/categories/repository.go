package categories

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

// New creates a category repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "categories"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	qb := query.NewBuilder(projection, defaultSort)
	if activeOnly {
		qb.WhereEquals("is_active", true)
	}

	q, args := qb.Build()
	cats, err := repository.QueryMany(ctx, r.db, q, args, scanCategory)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}

	counts, err := r.promptCounts(ctx)
	if err != nil {
		return nil, err
	}

	for i := range cats {
		cats[i].PromptCount = counts[cats[i].ID]
	}

	return cats, nil
}

func (r *repo) promptCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category_id, COUNT(*)
		FROM prompts
		WHERE category_id IS NOT NULL
		GROUP BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("count category prompts: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Category, error) {
	return Lookup(ctx, r.db, id)
}

func (r *repo) FindByName(ctx context.Context, name string) (*Category, error) {
	q, args := query.NewBuilder(projection).BuildSingle("name", name)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanCategory)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Category, error) {
	now := time.Now().UTC()
	c := Category{
		ID:          uuid.New(),
		Name:        cmd.Name,
		Description: cmd.Description,
		Color:       cmd.Color,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO categories (id, name, description, color, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	created, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Category, error) {
		if _, err := tx.ExecContext(ctx, q,
			c.ID, c.Name, c.Description, c.Color, c.IsActive, c.CreatedAt, c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		return Lookup(ctx, tx, c.ID)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("category created", "id", created.ID, "name", created.Name)
	return created, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Category, error) {
	q := `
		UPDATE categories
		SET name = $1, description = $2, color = $3, is_active = $4, updated_at = $5
		WHERE id = $6`

	updated, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Category, error) {
		c, err := Lookup(ctx, tx, id)
		if err != nil {
			return nil, err
		}

		cmd.apply(c)
		if err := c.validate(); err != nil {
			return nil, err
		}

		if _, err := tx.ExecContext(ctx, q,
			c.Name, c.Description, c.Color, c.IsActive, time.Now().UTC(), id,
		); err != nil {
			return nil, err
		}
		return Lookup(ctx, tx, id)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("category updated", "id", updated.ID, "name", updated.Name)
	return updated, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	reassigned, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*uuid.UUID, error) {
		if _, err := Lookup(ctx, tx, id); err != nil {
			return nil, err
		}

		var fallback *uuid.UUID
		var fid uuid.UUID
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM categories WHERE name = $1 AND id <> $2",
			Fallback, id,
		).Scan(&fid)
		switch {
		case err == nil:
			fallback = &fid
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("find fallback category: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE prompts SET category_id = $1 WHERE category_id = $2",
			fallback, id,
		); err != nil {
			return nil, fmt.Errorf("reassign prompts: %w", err)
		}

		if err := repository.ExecExpectOne(ctx, tx, "DELETE FROM categories WHERE id = $1", id); err != nil {
			return nil, err
		}
		return fallback, nil
	})

	if err != nil {
		err = repository.MapError(err, ErrNotFound, ErrDuplicate)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	r.logger.Info("category deleted", "id", id, "reassigned_to", reassigned)
	return true, nil
}

func (r *repo) GetOrCreate(ctx context.Context, name string, description, color *string) (*Category, error) {
	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Category, error) {
		return Ensure(ctx, tx, name, description, color)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return c, nil
}

func (r *repo) Seed(ctx context.Context) error {
	err := repository.InTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, d := range Defaults {
			if _, err := Ensure(ctx, tx, d.Name, d.Description, d.Color); err != nil {
				return fmt.Errorf("seed %s: %w", d.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("default categories ensured", "count", len(Defaults))
	return nil
}

// Lookup finds a category by id using conn, which may be a caller's transaction.
func Lookup(ctx context.Context, conn repository.Querier, id uuid.UUID) (*Category, error) {
	q, args := query.NewBuilder(projection).BuildSingle("id", id)

	c, err := repository.QueryOne(ctx, conn, q, args, scanCategory)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

// LookupMany loads the categories with the given ids, keyed by id.
// Unknown ids are absent from the result.
func LookupMany(ctx context.Context, conn repository.Querier, ids []uuid.UUID) (map[uuid.UUID]Category, error) {
	result := make(map[uuid.UUID]Category, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}

	q, args := query.NewBuilder(projection).WhereIn("id", values).Build()
	cats, err := repository.QueryMany(ctx, conn, q, args, scanCategory)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	for _, c := range cats {
		result[c.ID] = c
	}
	return result, nil
}

// Ensure returns the category named name within conn, inserting it when absent.
// A concurrent insert of the same name is absorbed by ON CONFLICT and re-read.
func Ensure(ctx context.Context, conn repository.Conn, name string, description, color *string) (*Category, error) {
	now := time.Now().UTC()
	c := Category{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Color:       color,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	if _, err := conn.ExecContext(ctx, `
		INSERT INTO categories (id, name, description, color, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO NOTHING`,
		c.ID, c.Name, c.Description, c.Color, c.IsActive, c.CreatedAt, c.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("ensure category %s: %w", c.Name, err)
	}

	q, args := query.NewBuilder(projection).BuildSingle("name", c.Name)
	found, err := repository.QueryOne(ctx, conn, q, args, scanCategory)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &found, nil
}
