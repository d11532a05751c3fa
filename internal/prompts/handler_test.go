package prompts_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/prombank/internal/prompts"
	"github.com/JaimeStill/prombank/internal/schema/schematest"
	"github.com/JaimeStill/prombank/pkg/pagination"
	"github.com/JaimeStill/prombank/pkg/routes"
)

type mockSystem struct {
	prompts.System
	prompt  *prompts.Prompt
	page    pagination.PageRequest
	filters prompts.Filters
	limit   int
	cmd     prompts.UpdateCommand
}

func (m *mockSystem) List(_ context.Context, page pagination.PageRequest, filters prompts.Filters) (*pagination.PageResult[prompts.Prompt], error) {
	m.page, m.filters = page, filters
	result := pagination.NewPageResult([]prompts.Prompt{}, 0, 1, 20)
	return &result, nil
}

func (m *mockSystem) Find(_ context.Context, id uuid.UUID, _ prompts.Include) (*prompts.Prompt, error) {
	if m.prompt == nil || m.prompt.ID != id {
		return nil, prompts.ErrNotFound
	}
	return m.prompt, nil
}

func (m *mockSystem) Popular(_ context.Context, limit int) ([]prompts.Prompt, error) {
	m.limit = limit
	return []prompts.Prompt{}, nil
}

func (m *mockSystem) Update(_ context.Context, _ uuid.UUID, cmd prompts.UpdateCommand) (*prompts.Prompt, error) {
	m.cmd = cmd
	return m.prompt, nil
}

func (m *mockSystem) RecordUsage(_ context.Context, _ uuid.UUID) (*prompts.Prompt, error) {
	now := time.Now().UTC()
	m.prompt.UsageCount++
	m.prompt.LastUsedAt = &now
	return m.prompt, nil
}

func (m *mockSystem) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	return m.prompt != nil && m.prompt.ID == id, nil
}

func serve(sys prompts.System, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	cfg := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
	routes.Register(mux, prompts.NewHandler(sys, schematest.Logger(), cfg).Routes())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func samplePrompt() *prompts.Prompt {
	return &prompts.Prompt{
		ID:          uuid.New(),
		Title:       "Review",
		Description: str("Reviews code"),
		Content:     "Review this code",
	}
}

func TestHandlerListQuery(t *testing.T) {
	m := &mockSystem{}
	rec := serve(m, "GET", "/prompts?page=2&tags=go,review&prompt_type=SYSTEM&is_favorite=true&sort_by=usage_count", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if m.page.Page != 2 || len(m.page.Sort) != 1 || m.page.Sort[0].Field != "usage_count" {
		t.Errorf("page = %+v", m.page)
	}
	if len(m.filters.Tags) != 2 || m.filters.Type == nil || *m.filters.Type != prompts.TypeSystem {
		t.Errorf("filters = %+v", m.filters)
	}
	if m.filters.IsFavorite == nil || !*m.filters.IsFavorite {
		t.Errorf("is_favorite not parsed")
	}
}

func TestHandlerBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
	}{
		{"bad type", "GET", "/prompts?prompt_type=robot"},
		{"bad status", "GET", "/prompts?status=gone"},
		{"bad bool", "GET", "/prompts?is_public=maybe"},
		{"bad category", "GET", "/prompts?category_id=nope"},
		{"bad sort order", "GET", "/prompts?sort_by=title&sort_order=up"},
		{"search without q", "GET", "/prompts/search"},
		{"popular over limit", "GET", "/prompts/popular?limit=51"},
		{"bad id", "GET", "/prompts/not-a-uuid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(&mockSystem{}, tt.method, tt.target, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandlerPopularDefaultLimit(t *testing.T) {
	m := &mockSystem{}
	if rec := serve(m, "GET", "/prompts/popular", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if m.limit != 10 {
		t.Errorf("limit = %d, want 10", m.limit)
	}
}

func TestHandlerRaw(t *testing.T) {
	p := samplePrompt()
	m := &mockSystem{prompt: p}

	plain := serve(m, "GET", "/prompts/"+p.ID.String()+"/raw", "")
	if plain.Body.String() != "Review this code" {
		t.Errorf("plain body = %q", plain.Body)
	}
	if !strings.HasPrefix(plain.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("content type = %q", plain.Header().Get("Content-Type"))
	}

	md := serve(m, "GET", "/prompts/"+p.ID.String()+"/raw?include_metadata=true&download=true", "")
	if md.Body.String() != "# Review\n\nReviews code\n\nReview this code" {
		t.Errorf("markdown body = %q", md.Body)
	}
	want := "attachment; filename=prompt_" + p.ID.String() + ".md"
	if got := md.Header().Get("Content-Disposition"); got != want {
		t.Errorf("disposition = %q, want %q", got, want)
	}

	if rec := serve(m, "GET", "/prompts/"+uuid.NewString()+"/raw", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing prompt status = %d", rec.Code)
	}
}

func TestHandlerUse(t *testing.T) {
	p := samplePrompt()
	rec := serve(&mockSystem{prompt: p}, "POST", "/prompts/"+p.ID.String()+"/use", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var result prompts.UsageResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Message != "Prompt usage recorded" || result.UsageCount != 1 || result.LastUsedAt == nil {
		t.Errorf("result = %+v", result)
	}
}

func TestHandlerUpdateDecodesPatch(t *testing.T) {
	p := samplePrompt()
	m := &mockSystem{prompt: p}

	body := `{"description": null, "tags": ["a"], "create_version": true}`
	rec := serve(m, "PUT", "/prompts/"+p.ID.String(), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !m.cmd.Description.Null || !m.cmd.Tags.Present() || !m.cmd.CreateVersion {
		t.Errorf("cmd = %+v", m.cmd)
	}
	if m.cmd.Title.Set || m.cmd.Content.Set {
		t.Errorf("absent fields must stay unset")
	}
}

func TestHandlerDelete(t *testing.T) {
	p := samplePrompt()
	m := &mockSystem{prompt: p}

	if rec := serve(m, "DELETE", "/prompts/"+p.ID.String(), ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	if rec := serve(m, "DELETE", "/prompts/"+uuid.NewString(), ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing delete status = %d, want 404", rec.Code)
	}
}
