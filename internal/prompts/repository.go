package prompts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/prombank/internal/categories"
	"github.com/JaimeStill/prombank/internal/tags"
	"github.com/JaimeStill/prombank/pkg/pagination"
	"github.com/JaimeStill/prombank/pkg/patch"
	"github.com/JaimeStill/prombank/pkg/query"
	"github.com/JaimeStill/prombank/pkg/repository"
)

const (
	initialChangeLog = "Initial version"
	updateChangeLog  = "Content updated"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a prompt repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "prompts"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Prompt], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "title", "description", "content")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, r.db, countSQL, countArgs...)
	if err != nil {
		return nil, fmt.Errorf("count prompts: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	prompts, err := r.query(ctx, r.db, pageSQL, pageArgs)
	if err != nil {
		return nil, err
	}

	result := pagination.NewPageResult(prompts, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) ListAll(ctx context.Context, filters Filters) ([]Prompt, error) {
	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	q, args := qb.Build()
	return r.query(ctx, r.db, q, args)
}

func (r *repo) Find(ctx context.Context, id uuid.UUID, include Include) (*Prompt, error) {
	p, err := r.hydrate(ctx, r.db, id)
	if err != nil {
		return nil, err
	}

	if include.Versions {
		if p.Versions, err = versions(ctx, r.db, id); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Prompt, error) {
	now := time.Now().UTC()
	p := Prompt{
		ID:                uuid.New(),
		Title:             cmd.Title,
		Description:       cmd.Description,
		Content:           cmd.Content,
		Type:              cmd.Type,
		Status:            StatusActive,
		Version:           InitialVersion,
		CategoryID:        cmd.CategoryID,
		IsPublic:          cmd.IsPublic,
		IsFavorite:        cmd.IsFavorite,
		IsTemplate:        cmd.IsTemplate,
		TemplateVariables: cmd.TemplateVariables,
		SourceURL:         cmd.SourceURL,
		SourceType:        cmd.SourceType,
		ImportHash:        ContentHash(cmd.Content),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if p.Type == "" {
		p.Type = TypeUser
	} else if _, err := ParseType(string(p.Type)); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	vars, err := encodeVariables(p.TemplateVariables)
	if err != nil {
		return nil, err
	}

	q := `
		INSERT INTO prompts (
			id, title, description, content, prompt_type, status, version,
			category_id, usage_count, is_public, is_favorite, is_template,
			template_variables, source_url, source_type, import_hash,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	created, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Prompt, error) {
		if err := checkCategory(ctx, tx, p.CategoryID); err != nil {
			return nil, err
		}

		if _, err := tx.ExecContext(ctx, q,
			p.ID, p.Title, p.Description, p.Content, p.Type, p.Status, p.Version,
			p.CategoryID, 0, p.IsPublic, p.IsFavorite, p.IsTemplate,
			vars, p.SourceURL, p.SourceType, p.ImportHash,
			p.CreatedAt, p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("insert prompt: %w", err)
		}

		if err := replaceTags(ctx, tx, p.ID, cmd.Tags); err != nil {
			return nil, err
		}

		if err := insertVersion(ctx, tx, &p, InitialVersion, initialChangeLog, false, now); err != nil {
			return nil, err
		}

		return r.hydrate(ctx, tx, p.ID)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("prompt created", "id", created.ID, "title", created.Title, "type", created.Type)
	return created, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Prompt, error) {
	q := `
		UPDATE prompts
		SET title = $1, description = $2, content = $3, status = $4, version = $5,
			category_id = $6, is_public = $7, is_favorite = $8, template_variables = $9,
			import_hash = $10, updated_at = $11
		WHERE id = $12`

	updated, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Prompt, error) {
		p, err := findOne(ctx, tx, id)
		if err != nil {
			return nil, err
		}

		contentChanged := cmd.Content.Present() && cmd.Content.Value != p.Content

		p.Title = cmd.Title.Or(p.Title)
		p.Content = cmd.Content.Or(p.Content)
		if cmd.Description.Set {
			p.Description = cmd.Description.Ptr()
		}
		if cmd.CategoryID.Set {
			p.CategoryID = cmd.CategoryID.Ptr()
			if err := checkCategory(ctx, tx, p.CategoryID); err != nil {
				return nil, err
			}
		}
		p.Status = cmd.Status.Or(p.Status)
		p.IsPublic = cmd.IsPublic.Or(p.IsPublic)
		p.IsFavorite = cmd.IsFavorite.Or(p.IsFavorite)
		if cmd.TemplateVariables.Set {
			p.TemplateVariables = cmd.TemplateVariables.Value
		}

		if err := p.validate(); err != nil {
			return nil, err
		}
		if contentChanged {
			p.ImportHash = ContentHash(p.Content)
		}

		if cmd.Tags.Set {
			if err := replaceTags(ctx, tx, id, cmd.Tags.Value); err != nil {
				return nil, err
			}
		}

		now := time.Now().UTC()

		if cmd.CreateVersion || contentChanged {
			next := NextVersion(p.Version, cmd.CreateVersion)
			comment := updateChangeLog
			if cmd.VersionComment != nil && *cmd.VersionComment != "" {
				comment = *cmd.VersionComment
			}
			if err := insertVersion(ctx, tx, p, next, comment, cmd.CreateVersion, now); err != nil {
				return nil, err
			}
			p.Version = next
		}

		vars, err := encodeVariables(p.TemplateVariables)
		if err != nil {
			return nil, err
		}

		if _, err := tx.ExecContext(ctx, q,
			p.Title, p.Description, p.Content, p.Status, p.Version,
			p.CategoryID, p.IsPublic, p.IsFavorite, vars,
			p.ImportHash, now, id,
		); err != nil {
			return nil, fmt.Errorf("update prompt: %w", err)
		}

		return r.hydrate(ctx, tx, id)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("prompt updated", "id", updated.ID, "version", updated.Version)
	return updated, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	err := repository.InTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM prompt_tags WHERE prompt_id = $1", id); err != nil {
			return fmt.Errorf("delete prompt tags: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM prompt_versions WHERE prompt_id = $1", id); err != nil {
			return fmt.Errorf("delete prompt versions: %w", err)
		}
		return repository.ExecExpectOne(ctx, tx, "DELETE FROM prompts WHERE id = $1", id)
	})

	if err != nil {
		err = repository.MapError(err, ErrNotFound, ErrDuplicate)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	r.logger.Info("prompt deleted", "id", id)
	return true, nil
}

func (r *repo) Archive(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	return r.Update(ctx, id, UpdateCommand{Status: patch.Value(StatusArchived)})
}

func (r *repo) RecordUsage(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Prompt, error) {
		if err := repository.ExecExpectOne(ctx, tx, `
			UPDATE prompts
			SET usage_count = usage_count + 1, last_used_at = $1
			WHERE id = $2`,
			time.Now().UTC(), id,
		); err != nil {
			return nil, err
		}
		return r.hydrate(ctx, tx, id)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Debug("prompt used", "id", p.ID, "usage_count", p.UsageCount)
	return p, nil
}

func (r *repo) ListVersions(ctx context.Context, id uuid.UUID) ([]Version, error) {
	exists, err := repository.Exists(ctx, r.db, "SELECT COUNT(*) FROM prompts WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("check prompt: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	return versions(ctx, r.db, id)
}

func (r *repo) Popular(ctx context.Context, limit int) ([]Prompt, error) {
	return r.active(ctx, limit, nil, query.SortField{Field: "usage_count", Descending: true})
}

func (r *repo) Recent(ctx context.Context, limit int) ([]Prompt, error) {
	return r.active(ctx, limit, nil, query.SortField{Field: "created_at", Descending: true})
}

func (r *repo) Search(ctx context.Context, q string, limit int) ([]Prompt, error) {
	return r.active(ctx, limit, &q, query.SortField{Field: "usage_count", Descending: true})
}

func (r *repo) active(ctx context.Context, limit int, search *string, sort query.SortField) ([]Prompt, error) {
	q, args := query.
		NewBuilder(projection, sort).
		WhereSearch(search, "title", "description", "content").
		WhereEquals("status", StatusActive).
		BuildLimit(limit)

	return r.query(ctx, r.db, q, args)
}

func (r *repo) FindDuplicates(ctx context.Context, hash string) ([]Prompt, error) {
	q, args := query.
		NewBuilder(projection, query.SortField{Field: "created_at"}).
		WhereEquals("import_hash", hash).
		Build()

	return r.query(ctx, r.db, q, args)
}

func (r *repo) query(ctx context.Context, conn repository.Querier, q string, args []any) ([]Prompt, error) {
	prompts, err := repository.QueryMany(ctx, conn, q, args, scanPrompt)
	if err != nil {
		return nil, fmt.Errorf("query prompts: %w", err)
	}
	if err := attach(ctx, conn, prompts); err != nil {
		return nil, err
	}
	return prompts, nil
}

func (r *repo) hydrate(ctx context.Context, conn repository.Querier, id uuid.UUID) (*Prompt, error) {
	p, err := findOne(ctx, conn, id)
	if err != nil {
		return nil, err
	}

	batch := []Prompt{*p}
	if err := attach(ctx, conn, batch); err != nil {
		return nil, err
	}
	return &batch[0], nil
}

func findOne(ctx context.Context, conn repository.Querier, id uuid.UUID) (*Prompt, error) {
	q, args := query.NewBuilder(projection).BuildSingle("id", id)

	p, err := repository.QueryOne(ctx, conn, q, args, scanPrompt)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

// attach hydrates category and tags for a batch of prompts with one query each.
func attach(ctx context.Context, conn repository.Querier, prompts []Prompt) error {
	if len(prompts) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(prompts))
	seen := make(map[uuid.UUID]struct{})
	var categoryIDs []uuid.UUID

	for i, p := range prompts {
		ids[i] = p.ID
		if p.CategoryID == nil {
			continue
		}
		if _, ok := seen[*p.CategoryID]; !ok {
			seen[*p.CategoryID] = struct{}{}
			categoryIDs = append(categoryIDs, *p.CategoryID)
		}
	}

	cats, err := categories.LookupMany(ctx, conn, categoryIDs)
	if err != nil {
		return err
	}

	byPrompt, err := tags.ForPrompts(ctx, conn, ids)
	if err != nil {
		return err
	}

	for i := range prompts {
		p := &prompts[i]
		if p.CategoryID != nil {
			if c, ok := cats[*p.CategoryID]; ok {
				p.Category = &c
			}
		}
		p.Tags = byPrompt[p.ID]
		if p.Tags == nil {
			p.Tags = []tags.Tag{}
		}
	}
	return nil
}

// versions lists snapshots newest first. Snapshot ids are UUIDv7, so the id
// key keeps snapshots that share a timestamp in creation order.
func versions(ctx context.Context, conn repository.Querier, promptID uuid.UUID) ([]Version, error) {
	q, args := query.
		NewBuilder(
			versionProjection,
			query.SortField{Field: "created_at", Descending: true},
			query.SortField{Field: "id", Descending: true},
		).
		WhereEquals("prompt_id", promptID).
		Build()

	vs, err := repository.QueryMany(ctx, conn, q, args, scanVersion)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	return vs, nil
}

func insertVersion(
	ctx context.Context,
	conn repository.Executor,
	p *Prompt,
	version, changeLog string,
	major bool,
	at time.Time,
) error {
	_, err := conn.ExecContext(ctx, `
		INSERT INTO prompt_versions (
			id, prompt_id, version, title, content, description,
			change_log, is_major_change, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.Must(uuid.NewV7()), p.ID, version, p.Title, p.Content, p.Description,
		changeLog, major, at,
	)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, version)
		}
		return fmt.Errorf("insert version %s: %w", version, err)
	}
	return nil
}

func replaceTags(ctx context.Context, conn repository.Conn, promptID uuid.UUID, names []string) error {
	resolved, err := tags.Resolve(ctx, conn, names)
	if err != nil {
		if errors.Is(err, tags.ErrValidation) {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return err
	}
	return tags.Assign(ctx, conn, promptID, resolved)
}

func checkCategory(ctx context.Context, conn repository.Querier, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := categories.Lookup(ctx, conn, *id); err != nil {
		if errors.Is(err, categories.ErrNotFound) {
			return fmt.Errorf("%w: category %s does not exist", ErrValidation, id)
		}
		return err
	}
	return nil
}
