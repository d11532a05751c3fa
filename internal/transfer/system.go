// Package transfer imports prompts from and exports prompts to JSON, CSV,
// YAML, Markdown, and Fabric pattern sources. Every imported record is
// routed through the prompt system so deduplication and versioning apply.
package transfer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/prombank/internal/prompts"
	"github.com/JaimeStill/prombank/pkg/storage"
)

// System defines the public contract for import and export operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	// Export serializes the selected prompts as a complete document.
	Export(ctx context.Context, opts ExportOptions) (*Document, error)

	// Import parses data and ingests each record. A parse failure is reported
	// as a single result error; per-record failures never abort the batch.
	Import(ctx context.Context, data []byte, opts ImportOptions) (*Result, error)

	// ImportFabric ingests every pattern directory under root.
	ImportFabric(ctx context.Context, root string, opts FabricOptions) (*Result, error)

	// Text ingests a single titled prompt or a Markdown document.
	Text(ctx context.Context, cmd TextImport) (*Result, error)

	// Archive stores an export document in blob storage.
	// Returns ErrStorageDisabled when no store is configured.
	Archive(ctx context.Context, opts ExportOptions) (*storage.BlobMeta, error)
}

// ExportOptions selects prompts and content for an export.
// An empty IDs list exports every prompt visible by default.
type ExportOptions struct {
	Format          Format      `json:"format"`
	IDs             []uuid.UUID `json:"prompt_ids"`
	IncludeVersions bool        `json:"include_versions"`
	IncludeMetadata bool        `json:"include_metadata"`
}

// Document is a serialized export.
type Document struct {
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	Filename    string    `json:"filename"`
	Count       int       `json:"count"`
	ExportedAt  time.Time `json:"exported_at"`
}

// ImportOptions controls parsing and duplicate handling.
// When a record duplicates stored content, UpdateExisting updates the oldest
// match, SkipDuplicates skips it, and otherwise a new prompt is created.
type ImportOptions struct {
	Format          Format  `json:"format"`
	SourceType      *string `json:"source_type"`
	DefaultCategory string  `json:"default_category"`
	SkipDuplicates  bool    `json:"skip_duplicates"`
	UpdateExisting  bool    `json:"update_existing"`
}

// FabricOptions controls a Fabric pattern directory import.
type FabricOptions struct {
	SkipDuplicates bool `json:"skip_duplicates"`
}

// TextImport carries raw text. With a Title it is one prompt; otherwise
// Markdown text is split at headings and any other format is one untitled prompt.
type TextImport struct {
	Content  string `json:"content"`
	Format   Format `json:"format"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Tags     string `json:"tags"`
}

// Imported identifies a prompt created or updated by an import.
type Imported struct {
	ID        uuid.UUID    `json:"id"`
	Title     string       `json:"title"`
	Type      prompts.Type `json:"type"`
	SourceURL *string      `json:"source_url,omitempty"`
}

// Result accumulates the outcome of an import.
type Result struct {
	Imported  []Imported
	Created   int
	Updated   int
	Skipped   int
	Errors    []string
	Cancelled bool
}

// Report is the caller-facing summary of a Result with a capped error list.
type Report struct {
	Message       string     `json:"message"`
	ImportedCount int        `json:"imported_count"`
	Created       int        `json:"created"`
	Updated       int        `json:"updated"`
	Skipped       int        `json:"skipped"`
	ErrorCount    int        `json:"error_count"`
	Errors        []string   `json:"errors"`
	Prompts       []Imported `json:"prompts"`
	Cancelled     bool       `json:"cancelled"`
}

// Report summarizes the result, listing at most limit errors while counting all.
// A non-positive limit lists every error.
func (r *Result) Report(message string, limit int) Report {
	errs := r.Errors
	if limit > 0 && len(errs) > limit {
		errs = errs[:limit]
	}
	if errs == nil {
		errs = []string{}
	}

	imported := r.Imported
	if imported == nil {
		imported = []Imported{}
	}

	return Report{
		Message:       message,
		ImportedCount: len(r.Imported),
		Created:       r.Created,
		Updated:       r.Updated,
		Skipped:       r.Skipped,
		ErrorCount:    len(r.Errors),
		Errors:        errs,
		Prompts:       imported,
		Cancelled:     r.Cancelled,
	}
}
