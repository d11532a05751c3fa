package tags_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/prombank/internal/schema/schematest"
	"github.com/JaimeStill/prombank/internal/tags"
	"github.com/JaimeStill/prombank/pkg/routes"
)

type mockSystem struct {
	tags.System
	limit int
	query string
}

func (m *mockSystem) Popular(_ context.Context, limit int) ([]tags.Usage, error) {
	m.limit = limit
	return []tags.Usage{{Tag: tags.Tag{Name: "hot"}, UsageCount: 2}}, nil
}

func (m *mockSystem) Search(_ context.Context, q string, limit int) ([]tags.Tag, error) {
	m.query, m.limit = q, limit
	return []tags.Tag{}, nil
}

func (m *mockSystem) Find(_ context.Context, _ uuid.UUID) (*tags.Tag, error) {
	return nil, tags.ErrNotFound
}

func serve(sys tags.System, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	routes.Register(mux, tags.NewHandler(sys, schematest.Logger()).Routes())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", target, nil))
	return rec
}

func TestHandlerLimits(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		want      int
		wantLimit int
	}{
		{"popular default", "/tags/popular", http.StatusOK, 20},
		{"popular explicit", "/tags/popular?limit=5", http.StatusOK, 5},
		{"popular too large", "/tags/popular?limit=101", http.StatusBadRequest, 0},
		{"search default", "/tags/search?q=go", http.StatusOK, 10},
		{"search too large", "/tags/search?q=go&limit=51", http.StatusBadRequest, 0},
		{"search missing q", "/tags/search", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockSystem{}
			rec := serve(m, tt.target)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if m.limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", m.limit, tt.wantLimit)
			}
		})
	}
}

func TestHandlerFindNotFound(t *testing.T) {
	if rec := serve(&mockSystem{}, "/tags/"+uuid.NewString()); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
