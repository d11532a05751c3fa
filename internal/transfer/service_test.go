package transfer_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/prombank/internal/categories"
	"github.com/JaimeStill/prombank/internal/prompts"
	"github.com/JaimeStill/prombank/internal/schema/schematest"
	"github.com/JaimeStill/prombank/internal/transfer"
	"github.com/JaimeStill/prombank/pkg/pagination"
	"github.com/JaimeStill/prombank/pkg/storage"
)

type env struct {
	prompts    prompts.System
	categories categories.System
	transfer   transfer.System
}

func newEnv(t *testing.T, store storage.System) env {
	t.Helper()
	db := schematest.Open(t)
	logger := schematest.Logger()

	ps := prompts.New(db, logger, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
	cs := categories.New(db, logger)

	cfg := transfer.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("transfer config: %v", err)
	}

	return env{
		prompts:    ps,
		categories: cs,
		transfer:   transfer.New(ps, cs, store, cfg, logger),
	}
}

func (e env) all(t *testing.T) []prompts.Prompt {
	t.Helper()
	all, err := e.prompts.ListAll(context.Background(), prompts.Filters{})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	return all
}

func TestJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newEnv(t, nil)

	coding, err := src.categories.Create(ctx, categories.CreateCommand{Name: "Coding"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	seed := []prompts.CreateCommand{
		{Title: "Review", Content: "Review this code", CategoryID: &coding.ID, Tags: []string{"go", "review"}},
		{Title: "Summarize", Content: "Summarize the text", Tags: []string{"writing"}},
		{Title: "Plain", Content: "No metadata"},
	}
	for _, cmd := range seed {
		if _, err := src.prompts.Create(ctx, cmd); err != nil {
			t.Fatalf("seed %s: %v", cmd.Title, err)
		}
	}

	doc, err := src.transfer.Export(ctx, transfer.ExportOptions{
		Format:          transfer.FormatJSON,
		IncludeMetadata: true,
		IncludeVersions: true,
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if doc.Count != 3 || doc.Filename != "prombank_export.json" || doc.ContentType != "application/json" {
		t.Errorf("document = %+v", doc)
	}

	dst := newEnv(t, nil)
	result, err := dst.transfer.Import(ctx, []byte(doc.Content), transfer.ImportOptions{Format: transfer.FormatJSON})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.Created != 3 || len(result.Errors) != 0 {
		t.Fatalf("result = %+v", result)
	}

	type shape struct {
		content  string
		category string
		tags     []string
	}
	byTitle := func(ps []prompts.Prompt) map[string]shape {
		m := make(map[string]shape)
		for _, p := range ps {
			m[p.Title] = shape{p.Content, p.CategoryName(), p.TagNames()}
		}
		return m
	}

	want, got := byTitle(src.all(t)), byTitle(dst.all(t))
	for title, w := range want {
		g, ok := got[title]
		if !ok {
			t.Errorf("%s missing after round trip", title)
			continue
		}
		if g.content != w.content || g.category != w.category || !slices.Equal(g.tags, w.tags) {
			t.Errorf("%s: got %+v, want %+v", title, g, w)
		}
	}
}

func TestImportDeduplication(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	doc := []byte(`[{"title": "A", "content": "same"}]`)

	for range 2 {
		if _, err := e.transfer.Import(ctx, doc, transfer.ImportOptions{Format: "json", SkipDuplicates: true}); err != nil {
			t.Fatalf("Import: %v", err)
		}
	}

	if n := len(e.all(t)); n != 1 {
		t.Errorf("prompts = %d, want 1", n)
	}

	result, _ := e.transfer.Import(ctx, doc, transfer.ImportOptions{Format: "json", SkipDuplicates: true})
	if result.Skipped != 1 || result.Created != 0 || len(result.Errors) != 0 {
		t.Errorf("result = %+v, want one skip", result)
	}

	again, _ := e.transfer.Import(ctx, doc, transfer.ImportOptions{Format: "json"})
	if again.Created != 1 {
		t.Errorf("without skip a duplicate is created, got %+v", again)
	}
}

func TestImportUpdateExisting(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	old, err := e.prompts.Create(ctx, prompts.CreateCommand{Title: "Old", Content: "same"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	doc := []byte(`[{"title": "New", "content": "same", "description": "fresh"}]`)
	result, err := e.transfer.Import(ctx, doc, transfer.ImportOptions{
		Format:         transfer.FormatJSON,
		SkipDuplicates: true,
		UpdateExisting: true,
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.Updated != 1 || result.Created != 0 {
		t.Fatalf("result = %+v", result)
	}

	p, err := e.prompts.Find(ctx, old.ID, prompts.Include{Versions: true})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if p.Title != "New" || p.Version != "2.0.0" || *p.Description != "fresh" {
		t.Errorf("prompt = %+v", p)
	}
	if len(p.Versions) != 2 {
		t.Fatalf("versions = %d, want 2", len(p.Versions))
	}
	logged := slices.ContainsFunc(p.Versions, func(v prompts.Version) bool {
		return v.ChangeLog != nil && *v.ChangeLog == "Updated from import"
	})
	if !logged {
		t.Errorf("import version not recorded: %+v", p.Versions)
	}
}

func TestImportErrors(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	parse, err := e.transfer.Import(ctx, []byte(`{"broken": `), transfer.ImportOptions{Format: "json"})
	if err != nil {
		t.Fatalf("parse failure must not be a Go error: %v", err)
	}
	if len(parse.Errors) != 1 || parse.Created != 0 {
		t.Errorf("parse result = %+v", parse)
	}

	doc := []byte(`[
		{"title": "ok", "content": "fine"},
		{"title": "", "content": "no title"},
		{"title": "no content", "content": "  "},
		{"title": "weird type", "content": "still fine", "type": "robot"}
	]`)
	result, err := e.transfer.Import(ctx, doc, transfer.ImportOptions{Format: "json"})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.Created != 2 || len(result.Errors) != 2 {
		t.Fatalf("result = %+v", result)
	}
	if !strings.HasPrefix(result.Errors[0], "prompt 2: ") || !strings.HasPrefix(result.Errors[1], "prompt 3: ") {
		t.Errorf("errors = %v", result.Errors)
	}
	if result.Imported[1].Type != prompts.TypeUser {
		t.Errorf("unknown type should fall back to user, got %s", result.Imported[1].Type)
	}

	if _, err := e.transfer.Import(ctx, doc, transfer.ImportOptions{Format: "xml"}); !errors.Is(err, transfer.ErrInvalidFormat) {
		t.Errorf("unknown format err = %v", err)
	}
}

func TestImportContinuesPastBadItems(t *testing.T) {
	tests := []struct {
		name    string
		format  transfer.Format
		doc     string
		wantErr string
	}{
		{"json non-object", transfer.FormatJSON, `[{"title": "A", "content": "alpha"}, 5, {"title": "B", "content": "beta"}]`, "prompt 2: "},
		{"json bad template variables", transfer.FormatJSON, `[{"title": "A", "content": "alpha"}, {"title": "X", "content": "x", "template_variables": "{nope"}, {"title": "B", "content": "beta"}]`, "prompt 2: "},
		{"export bad item", transfer.FormatJSON, `{"format": "prombank_export", "prompts": [{"title": "A", "content": "alpha"}, {"title": "X", "content": 7}, {"title": "B", "content": "beta"}]}`, "prompt 2: "},
		{"csv bad flag", transfer.FormatCSV, "title,content,is_public\nA,alpha,true\nX,x,yes\nB,beta,false\n", "prompt 2: row 3: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, nil)
			result, err := e.transfer.Import(context.Background(), []byte(tt.doc), transfer.ImportOptions{Format: tt.format})
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			if result.Created != 2 || len(result.Errors) != 1 {
				t.Fatalf("result = %+v, want 2 created and 1 error", result)
			}
			if !strings.HasPrefix(result.Errors[0], tt.wantErr) {
				t.Errorf("error = %q, want prefix %q", result.Errors[0], tt.wantErr)
			}
			if got := len(e.all(t)); got != 2 {
				t.Errorf("stored prompts = %d, want 2", got)
			}
		})
	}
}

func TestImportCategoryAndSource(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	doc := []byte("# One\nfirst\n# Two\nsecond")
	result, err := e.transfer.Import(ctx, doc, transfer.ImportOptions{
		Format:          transfer.FormatMarkdown,
		DefaultCategory: "Notes",
		SourceType:      new("markdown"),
	})
	if err != nil || result.Created != 2 {
		t.Fatalf("Import = %+v, %v", result, err)
	}

	for _, p := range e.all(t) {
		if p.CategoryName() != "Notes" || p.SourceType == nil || *p.SourceType != "markdown" {
			t.Errorf("%s: category %q source %v", p.Title, p.CategoryName(), p.SourceType)
		}
	}

	override := []byte(`[{"title": "x", "content": "own category", "category": "Coding"}]`)
	if _, err := e.transfer.Import(ctx, override, transfer.ImportOptions{Format: "json", DefaultCategory: "Notes"}); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if _, err := e.categories.FindByName(ctx, "Coding"); err != nil {
		t.Errorf("record category should be created: %v", err)
	}
}

func TestImportCancellation(t *testing.T) {
	e := newEnv(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.transfer.Import(ctx, []byte(`[{"title": "a", "content": "b"}]`), transfer.ImportOptions{Format: "json"})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !result.Cancelled || result.Created != 0 {
		t.Errorf("result = %+v, want cancelled with nothing created", result)
	}
}

func TestReportCapsErrors(t *testing.T) {
	result := &transfer.Result{Created: 1}
	for i := range 15 {
		result.Errors = append(result.Errors, strings.Repeat("e", i+1))
	}

	report := result.Report("Import completed", 10)
	if report.ErrorCount != 15 || len(report.Errors) != 10 {
		t.Errorf("count/listed = %d/%d, want 15/10", report.ErrorCount, len(report.Errors))
	}
	if report.Prompts == nil || report.Message != "Import completed" {
		t.Errorf("report = %+v", report)
	}
}

func writePattern(t *testing.T, root, dir, file, content string) {
	t.Helper()
	path := filepath.Join(root, dir)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	if file != "" {
		if err := os.WriteFile(filepath.Join(path, file), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestImportFabric(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	root := t.TempDir()

	writePattern(t, root, "extract_wisdom", "system.md", "# IDENTITY\nYou extract wisdom.\n")
	writePattern(t, root, "summarize-text", "prompt.md", "Summarize.")
	writePattern(t, root, "named", "named.md", "Named file.")
	writePattern(t, root, "blank", "system.md", "   \n")
	writePattern(t, root, "missing", "", "")
	os.WriteFile(filepath.Join(root, "README.md"), []byte("not a pattern"), 0o644)

	result, err := e.transfer.ImportFabric(ctx, root, transfer.FabricOptions{SkipDuplicates: true})
	if err != nil {
		t.Fatalf("ImportFabric: %v", err)
	}
	if result.Created != 3 || len(result.Errors) != 2 {
		t.Fatalf("result = %+v", result)
	}
	if !strings.HasPrefix(result.Errors[0], "pattern blank: ") || !strings.HasPrefix(result.Errors[1], "pattern missing: ") {
		t.Errorf("errors = %v", result.Errors)
	}

	titles := make([]string, len(result.Imported))
	for i, imp := range result.Imported {
		titles[i] = imp.Title
	}
	if !slices.Equal(titles, []string{"Extract Wisdom", "Named", "Summarize Text"}) {
		t.Errorf("titles = %v", titles)
	}

	p, err := e.prompts.Find(ctx, result.Imported[0].ID, prompts.Include{})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if p.Type != prompts.TypeSystem || p.CategoryName() != "Fabric" || *p.SourceType != "fabric" {
		t.Errorf("prompt = %+v", p)
	}
	if *p.Description != "Fabric pattern: extract_wisdom" || *p.SourceURL != filepath.Join(root, "extract_wisdom") {
		t.Errorf("provenance = %v %v", *p.Description, *p.SourceURL)
	}
	if !slices.Equal(p.TagNames(), []string{"extract_wisdom", "fabric", "pattern"}) {
		t.Errorf("tags = %v", p.TagNames())
	}
	if *p.Category.Color != "#0ea5e9" {
		t.Errorf("fabric color = %v", *p.Category.Color)
	}

	rerun, err := e.transfer.ImportFabric(ctx, root, transfer.FabricOptions{SkipDuplicates: true})
	if err != nil {
		t.Fatalf("ImportFabric rerun: %v", err)
	}
	if rerun.Created != 0 || rerun.Skipped != 3 {
		t.Errorf("rerun = %+v, want all skipped", rerun)
	}

	missing, err := e.transfer.ImportFabric(ctx, filepath.Join(root, "nope"), transfer.FabricOptions{})
	if err != nil || len(missing.Errors) != 1 {
		t.Errorf("missing root = %+v, %v", missing, err)
	}
}

func TestText(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	single, err := e.transfer.Text(ctx, transfer.TextImport{
		Title:    "Quick",
		Content:  "# not split\nbody",
		Category: "Scratch",
		Tags:     "a, b",
	})
	if err != nil || single.Created != 1 {
		t.Fatalf("Text = %+v, %v", single, err)
	}

	md, err := e.transfer.Text(ctx, transfer.TextImport{Content: "# A\none\n# B\ntwo"})
	if err != nil || md.Created != 2 {
		t.Fatalf("Text markdown = %+v, %v", md, err)
	}

	plain, err := e.transfer.Text(ctx, transfer.TextImport{Content: "raw", Format: transfer.FormatJSON})
	if err != nil || plain.Created != 1 || plain.Imported[0].Title != "Imported Prompt" {
		t.Fatalf("Text plain = %+v, %v", plain, err)
	}

	dup, _ := e.transfer.Text(ctx, transfer.TextImport{Content: "raw", Format: transfer.FormatJSON})
	if dup.Skipped != 1 {
		t.Errorf("text import skips duplicates, got %+v", dup)
	}
}

func TestExportFormats(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	_, err := e.prompts.Create(ctx, prompts.CreateCommand{
		Title:       "Review",
		Content:     "Check, \"quoted\"",
		Description: new("desc"),
		Tags:        []string{"go"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := []struct {
		format   transfer.Format
		contains []string
	}{
		{transfer.FormatCSV, []string{
			"id,title,content,description,type,status,version,category,tags,is_public,is_favorite,usage_count",
			`"Check, ""quoted"""`,
		}},
		{transfer.FormatMarkdown, []string{"# Prombank Export", "Total prompts: 1", "## 1. Review", "**Tags:** go", "**Category:** None", "**Description:** desc"}},
		{transfer.FormatYAML, []string{"format: prombank_export", "total_prompts: 1", "type: user", "is_public: false"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			doc, err := e.transfer.Export(ctx, transfer.ExportOptions{Format: tt.format, IncludeMetadata: true})
			if err != nil {
				t.Fatalf("Export: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(doc.Content, want) {
					t.Errorf("missing %q in:\n%s", want, doc.Content)
				}
			}
		})
	}
}

func TestExportSelection(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	p, err := e.prompts.Create(ctx, prompts.CreateCommand{Title: "one", Content: "c1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	e.prompts.Create(ctx, prompts.CreateCommand{Title: "two", Content: "c2"})

	doc, err := e.transfer.Export(ctx, transfer.ExportOptions{
		Format: transfer.FormatJSON,
		IDs:    []uuid.UUID{p.ID, uuid.New()},
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(doc.Content), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["total_prompts"] != float64(1) || decoded["format"] != "prombank_export" || decoded["version"] != "1.0" {
		t.Errorf("header = %v", decoded)
	}
	item := decoded["prompts"].([]any)[0].(map[string]any)
	if _, ok := item["tags"]; ok {
		t.Error("metadata fields must be absent without include_metadata")
	}
	if _, ok := item["versions"]; ok {
		t.Error("versions must be absent without include_versions")
	}

	if _, err := e.transfer.Export(ctx, transfer.ExportOptions{Format: transfer.FormatFabric}); !errors.Is(err, transfer.ErrInvalidFormat) {
		t.Errorf("fabric export err = %v", err)
	}
}

type memoryStore struct {
	storage.System
	key         string
	contentType string
	body        string
}

func (m *memoryStore) Upload(_ context.Context, key string, r io.Reader, contentType string) error {
	b, err := io.ReadAll(r)
	m.key, m.contentType, m.body = key, contentType, string(b)
	return err
}

func TestArchive(t *testing.T) {
	ctx := context.Background()

	disabled := newEnv(t, nil)
	if _, err := disabled.transfer.Archive(ctx, transfer.ExportOptions{Format: "json"}); !errors.Is(err, transfer.ErrStorageDisabled) {
		t.Errorf("err = %v, want ErrStorageDisabled", err)
	}

	store := &memoryStore{}
	e := newEnv(t, store)
	e.prompts.Create(ctx, prompts.CreateCommand{Title: "t", Content: "c"})

	meta, err := e.transfer.Archive(ctx, transfer.ExportOptions{Format: transfer.FormatYAML})
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if !strings.HasPrefix(meta.Key, transfer.ArchivePrefix) || !strings.HasSuffix(meta.Key, ".yml") {
		t.Errorf("key = %q", meta.Key)
	}
	if store.key != meta.Key || store.contentType != "application/x-yaml" || int64(len(store.body)) != meta.ContentLength {
		t.Errorf("upload = %q %q %d", store.key, store.contentType, len(store.body))
	}
}

func TestArchiveKey(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	want := "exports/20260304T050607Z-00000000-0000-0000-0000-000000000001.csv"
	if got := transfer.ArchiveKey(at, id, transfer.FormatCSV); got != want {
		t.Errorf("ArchiveKey = %q, want %q", got, want)
	}
}
