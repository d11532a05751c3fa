package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/JaimeStill/prombank/internal/categories"
	"github.com/JaimeStill/prombank/internal/prompts"
	"github.com/JaimeStill/prombank/internal/tags"
	"github.com/JaimeStill/prombank/pkg/patch"
	"github.com/JaimeStill/prombank/pkg/storage"
)

const (
	fabricCategory      = "Fabric"
	fabricDescription   = "Imported from Fabric patterns"
	fabricColor         = "#0ea5e9"
	fabricSource        = "fabric"
	importChangeLog     = "Updated from import"
	defaultTextTitle    = "Imported Prompt"
	archiveTimeLayout   = "20060102T150405Z"
	exportFilenameStart = "prombank_export"
)

// ArchivePrefix is the blob key prefix under which exports are archived.
const ArchivePrefix = "exports/"

var fabricFiles = []string{"system.md", "prompt.md", "pattern.md"}

type service struct {
	prompts    prompts.System
	categories categories.System
	store      storage.System
	config     Config
	logger     *slog.Logger
}

// New creates the transfer system. store may be nil when archive storage is disabled.
func New(
	prompts prompts.System,
	categories categories.System,
	store storage.System,
	cfg Config,
	logger *slog.Logger,
) System {
	return &service{
		prompts:    prompts,
		categories: categories,
		store:      store,
		config:     cfg,
		logger:     logger.With("system", "transfer"),
	}
}

func (s *service) Handler(maxUploadSize int64) *Handler {
	return NewHandler(s, s.logger, s.config, maxUploadSize)
}

func (s *service) Export(ctx context.Context, opts ExportOptions) (*Document, error) {
	if !opts.Format.Exportable() {
		return nil, fmt.Errorf("%w: %q cannot be exported", ErrInvalidFormat, opts.Format)
	}

	selected, err := s.selectPrompts(ctx, opts)
	if err != nil {
		return nil, err
	}

	at := time.Now().UTC()
	content, err := write(opts.Format, selected, opts, at)
	if err != nil {
		return nil, err
	}

	s.logger.Info("prompts exported", "format", opts.Format, "count", len(selected))

	return &Document{
		Content:     content,
		ContentType: opts.Format.ContentType(),
		Filename:    exportFilenameStart + "." + opts.Format.Extension(),
		Count:       len(selected),
		ExportedAt:  at,
	}, nil
}

func (s *service) selectPrompts(ctx context.Context, opts ExportOptions) ([]prompts.Prompt, error) {
	include := prompts.Include{Versions: opts.IncludeVersions}

	if len(opts.IDs) > 0 {
		out := make([]prompts.Prompt, 0, len(opts.IDs))
		for _, id := range opts.IDs {
			p, err := s.prompts.Find(ctx, id, include)
			if errors.Is(err, prompts.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, *p)
		}
		return out, nil
	}

	all, err := s.prompts.ListAll(ctx, prompts.Filters{})
	if err != nil {
		return nil, err
	}

	if opts.IncludeVersions {
		for i := range all {
			if all[i].Versions, err = s.prompts.ListVersions(ctx, all[i].ID); err != nil {
				return nil, err
			}
		}
	}
	return all, nil
}

func (s *service) Import(ctx context.Context, data []byte, opts ImportOptions) (*Result, error) {
	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}

	records, err := Parse(format, data)
	if err != nil {
		s.logger.Warn("import parse failed", "format", format, "error", err)
		return &Result{Errors: []string{fmt.Sprintf("parse %s: %v", format, err)}}, nil
	}

	var categoryID *uuid.UUID
	if name := strings.TrimSpace(opts.DefaultCategory); name != "" {
		c, err := s.categories.GetOrCreate(ctx, name, nil, nil)
		if err != nil {
			return &Result{Errors: []string{fmt.Sprintf("default category: %v", err)}}, nil
		}
		categoryID = &c.ID
	}

	result := s.ingestAll(ctx, records, opts, categoryID)

	s.logger.Info("import completed",
		"format", format,
		"records", len(records),
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
		"cancelled", result.Cancelled,
	)
	return result, nil
}

func (s *service) Text(ctx context.Context, cmd TextImport) (*Result, error) {
	var records []Record

	switch {
	case strings.TrimSpace(cmd.Title) != "":
		records = []Record{{
			Title:    strings.TrimSpace(cmd.Title),
			Content:  strings.TrimSpace(cmd.Content),
			Category: strings.TrimSpace(cmd.Category),
			Tags:     tags.Split(cmd.Tags),
		}}
	case cmd.Format == "" || cmd.Format == FormatMarkdown:
		records = ParseMarkdown(cmd.Content)
	default:
		records = []Record{{Title: defaultTextTitle, Content: strings.TrimSpace(cmd.Content)}}
	}

	opts := ImportOptions{Format: cmd.Format, SkipDuplicates: true}
	return s.ingestAll(ctx, records, opts, nil), nil
}

// ingestAll processes records sequentially so later records see prompts
// created by earlier ones. Cancellation stops the loop between records.
func (s *service) ingestAll(ctx context.Context, records []Record, opts ImportOptions, categoryID *uuid.UUID) *Result {
	result := &Result{}

	for i, rec := range records {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		if rec.Err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("prompt %d: %v", i+1, rec.Err))
			continue
		}
		if err := s.ingest(ctx, rec, opts, categoryID, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("prompt %d: %v", i+1, err))
		}
	}

	return result
}

func (s *service) ingest(
	ctx context.Context,
	rec Record,
	opts ImportOptions,
	categoryID *uuid.UUID,
	result *Result,
) error {
	if rec.Title == "" || rec.Content == "" {
		return fmt.Errorf("%w: title and content are required", ErrValidation)
	}

	dups, err := s.prompts.FindDuplicates(ctx, prompts.ContentHash(rec.Content))
	if err != nil {
		return err
	}

	if len(dups) > 0 {
		if opts.UpdateExisting {
			return s.update(ctx, dups[0].ID, rec, result)
		}
		if opts.SkipDuplicates {
			result.Skipped++
			return nil
		}
	}

	if rec.Category != "" {
		c, err := s.categories.GetOrCreate(ctx, rec.Category, nil, nil)
		if err != nil {
			return err
		}
		categoryID = &c.ID
	}

	kind, err := prompts.ParseType(rec.Type)
	if err != nil {
		kind = prompts.TypeUser
	}

	p, err := s.prompts.Create(ctx, prompts.CreateCommand{
		Title:             rec.Title,
		Content:           rec.Content,
		Description:       rec.Description,
		Type:              kind,
		CategoryID:        categoryID,
		Tags:              rec.Tags,
		IsPublic:          rec.IsPublic,
		IsTemplate:        rec.IsTemplate,
		TemplateVariables: rec.TemplateVariables,
		SourceType:        opts.SourceType,
	})
	if err != nil {
		return err
	}

	result.Created++
	result.Imported = append(result.Imported, summarize(p))
	return nil
}

func (s *service) update(ctx context.Context, id uuid.UUID, rec Record, result *Result) error {
	cmd := prompts.UpdateCommand{
		Title:          patch.Value(rec.Title),
		Content:        patch.Value(rec.Content),
		CreateVersion:  true,
		VersionComment: new(importChangeLog),
	}
	if rec.Description != nil {
		cmd.Description = patch.Value(*rec.Description)
	}

	p, err := s.prompts.Update(ctx, id, cmd)
	if err != nil {
		return err
	}

	result.Updated++
	result.Imported = append(result.Imported, summarize(p))
	return nil
}

func (s *service) ImportFabric(ctx context.Context, root string, opts FabricOptions) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return &Result{Errors: []string{fmt.Sprintf("patterns directory not found: %s", root)}}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read patterns directory: %w", err)
	}

	category, err := s.categories.GetOrCreate(ctx, fabricCategory, new(fabricDescription), new(fabricColor))
	if err != nil {
		return nil, fmt.Errorf("resolve %s category: %w", fabricCategory, err)
	}

	result := &Result{}
	caser := cases.Title(language.English)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		dir := filepath.Join(root, entry.Name())
		if err := s.importPattern(ctx, dir, category.ID, caser, opts, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("pattern %s: %v", entry.Name(), err))
		}
	}

	s.logger.Info("fabric import completed",
		"root", root,
		"created", result.Created,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
		"cancelled", result.Cancelled,
	)
	return result, nil
}

func (s *service) importPattern(
	ctx context.Context,
	dir string,
	categoryID uuid.UUID,
	caser cases.Caser,
	opts FabricOptions,
	result *Result,
) error {
	name := filepath.Base(dir)

	file, err := patternFile(dir)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(file), err)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return fmt.Errorf("%w: empty system prompt file", ErrValidation)
	}

	if opts.SkipDuplicates {
		dups, err := s.prompts.FindDuplicates(ctx, prompts.ContentHash(content))
		if err != nil {
			return err
		}
		if len(dups) > 0 {
			result.Skipped++
			return nil
		}
	}

	p, err := s.prompts.Create(ctx, prompts.CreateCommand{
		Title:       patternTitle(caser, name),
		Content:     content,
		Description: new("Fabric pattern: " + name),
		Type:        prompts.TypeSystem,
		CategoryID:  &categoryID,
		Tags:        append(append([]string(nil), fabricTags...), name),
		SourceURL:   &dir,
		SourceType:  new(fabricSource),
	})
	if err != nil {
		return err
	}

	result.Created++
	result.Imported = append(result.Imported, summarize(p))
	return nil
}

// patternFile returns the pattern's system prompt file: system.md, else
// prompt.md, pattern.md, or <dir>.md.
func patternFile(dir string) (string, error) {
	candidates := append(append([]string(nil), fabricFiles...), filepath.Base(dir)+".md")
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no system prompt file found in %s", ErrValidation, dir)
}

// patternTitle converts a pattern directory name into a display title.
func patternTitle(caser cases.Caser, name string) string {
	spaced := strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return caser.String(strings.Join(strings.Fields(spaced), " "))
}

func (s *service) Archive(ctx context.Context, opts ExportOptions) (*storage.BlobMeta, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	doc, err := s.Export(ctx, opts)
	if err != nil {
		return nil, err
	}

	key := ArchiveKey(doc.ExportedAt, uuid.New(), opts.Format)
	if err := s.store.Upload(ctx, key, strings.NewReader(doc.Content), doc.ContentType); err != nil {
		return nil, fmt.Errorf("upload export archive: %w", err)
	}

	s.logger.Info("export archived", "key", key, "count", doc.Count)

	return &storage.BlobMeta{
		Key:           key,
		ContentType:   doc.ContentType,
		ContentLength: int64(len(doc.Content)),
		LastModified:  doc.ExportedAt,
	}, nil
}

// ArchiveKey builds the blob key of an archived export.
func ArchiveKey(at time.Time, id uuid.UUID, format Format) string {
	return fmt.Sprintf("%s%s-%s.%s", ArchivePrefix, at.UTC().Format(archiveTimeLayout), id, format.Extension())
}

func summarize(p *prompts.Prompt) Imported {
	return Imported{
		ID:        p.ID,
		Title:     p.Title,
		Type:      p.Type,
		SourceURL: p.SourceURL,
	}
}
