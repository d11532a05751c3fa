package categories_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/prombank/internal/categories"
	"github.com/JaimeStill/prombank/internal/schema/schematest"
	"github.com/JaimeStill/prombank/pkg/routes"
)

type mockSystem struct {
	categories.System
	list       []categories.Category
	activeOnly bool
	find       *categories.Category
	createErr  error
	update     categories.UpdateCommand
	deleted    bool
	err        error
}

func (m *mockSystem) List(_ context.Context, activeOnly bool) ([]categories.Category, error) {
	m.activeOnly = activeOnly
	return m.list, m.err
}

func (m *mockSystem) Find(_ context.Context, id uuid.UUID) (*categories.Category, error) {
	if m.find == nil || m.find.ID != id {
		return nil, categories.ErrNotFound
	}
	return m.find, nil
}

func (m *mockSystem) Create(_ context.Context, cmd categories.CreateCommand) (*categories.Category, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &categories.Category{ID: uuid.New(), Name: cmd.Name, IsActive: true}, nil
}

func (m *mockSystem) Update(_ context.Context, id uuid.UUID, cmd categories.UpdateCommand) (*categories.Category, error) {
	m.update = cmd
	return &categories.Category{ID: id, Name: cmd.Name.Or("same")}, nil
}

func (m *mockSystem) Delete(_ context.Context, _ uuid.UUID) (bool, error) {
	return m.deleted, m.err
}

func serve(t *testing.T, sys categories.System, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	routes.Register(mux, categories.NewHandler(sys, schematest.Logger()).Routes())

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandlerList(t *testing.T) {
	m := &mockSystem{list: []categories.Category{{Name: "A", PromptCount: 3}}}

	rec := serve(t, m, "GET", "/categories?active_only=false", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if m.activeOnly {
		t.Error("active_only=false not forwarded")
	}

	var got []categories.Category
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil || len(got) != 1 || got[0].PromptCount != 3 {
		t.Errorf("body = %+v, %v", got, err)
	}

	serve(t, m, "GET", "/categories", "")
	if !m.activeOnly {
		t.Error("active_only should default to true")
	}

	if rec := serve(t, m, "GET", "/categories?active_only=maybe", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid active_only status = %d", rec.Code)
	}
}

func TestHandlerStatusMapping(t *testing.T) {
	known := &categories.Category{ID: uuid.New(), Name: "Known"}

	tests := []struct {
		name   string
		sys    *mockSystem
		method string
		target string
		body   string
		want   int
	}{
		{"find ok", &mockSystem{find: known}, "GET", "/categories/" + known.ID.String(), "", http.StatusOK},
		{"find missing", &mockSystem{}, "GET", "/categories/" + uuid.NewString(), "", http.StatusNotFound},
		{"find bad id", &mockSystem{}, "GET", "/categories/nope", "", http.StatusBadRequest},
		{"create ok", &mockSystem{}, "POST", "/categories", `{"name":"New"}`, http.StatusCreated},
		{"create duplicate", &mockSystem{createErr: categories.ErrDuplicate}, "POST", "/categories", `{"name":"New"}`, http.StatusConflict},
		{"create invalid", &mockSystem{createErr: categories.ErrValidation}, "POST", "/categories", `{"name":""}`, http.StatusBadRequest},
		{"create bad json", &mockSystem{}, "POST", "/categories", `{`, http.StatusBadRequest},
		{"delete ok", &mockSystem{deleted: true}, "DELETE", "/categories/" + uuid.NewString(), "", http.StatusNoContent},
		{"delete missing", &mockSystem{}, "DELETE", "/categories/" + uuid.NewString(), "", http.StatusNotFound},
		{"delete failure", &mockSystem{err: errors.New("db down")}, "DELETE", "/categories/" + uuid.NewString(), "", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := serve(t, tt.sys, tt.method, tt.target, tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestHandlerUpdateDecodesPatch(t *testing.T) {
	m := &mockSystem{}
	rec := serve(t, m, "PUT", "/categories/"+uuid.NewString(), `{"description": null, "is_active": false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	if m.update.Name.Set {
		t.Error("absent name should stay unset")
	}
	if !m.update.Description.Set || !m.update.Description.Null {
		t.Error("null description should clear")
	}
	if !m.update.IsActive.Present() || m.update.IsActive.Value {
		t.Error("is_active=false not decoded")
	}
}
