package pagination_test

import (
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/JaimeStill/prombank/pkg/pagination"
	"github.com/JaimeStill/prombank/pkg/query"
)

func defaultConfig() pagination.Config {
	return pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
}

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := pagination.Config{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.DefaultPageSize != 20 || cfg.MaxPageSize != 100 {
			t.Errorf("got %d/%d, want 20/100", cfg.DefaultPageSize, cfg.MaxPageSize)
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_PAGE_SIZE", "50")
		t.Setenv("TEST_MAX_PAGE", "200")

		cfg := pagination.Config{}
		env := &pagination.ConfigEnv{DefaultPageSize: "TEST_PAGE_SIZE", MaxPageSize: "TEST_MAX_PAGE"}
		if err := cfg.Finalize(env); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.DefaultPageSize != 50 || cfg.MaxPageSize != 200 {
			t.Errorf("got %d/%d, want 50/200", cfg.DefaultPageSize, cfg.MaxPageSize)
		}
	})

	t.Run("default exceeds max", func(t *testing.T) {
		cfg := pagination.Config{DefaultPageSize: 200, MaxPageSize: 100}
		if err := cfg.Finalize(nil); !errors.Is(err, pagination.ErrInvalidConfig) {
			t.Errorf("err = %v, want ErrInvalidConfig", err)
		}
	})

	t.Run("non-numeric env ignored", func(t *testing.T) {
		t.Setenv("TEST_PAGE_SIZE", "lots")

		cfg := pagination.Config{}
		if err := cfg.Finalize(&pagination.ConfigEnv{DefaultPageSize: "TEST_PAGE_SIZE"}); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.DefaultPageSize != 20 {
			t.Errorf("DefaultPageSize = %d, want 20", cfg.DefaultPageSize)
		}
	})
}

func TestConfigMerge(t *testing.T) {
	base := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
	base.Merge(&pagination.Config{DefaultPageSize: 50})

	if base.DefaultPageSize != 50 {
		t.Errorf("DefaultPageSize = %d, want 50", base.DefaultPageSize)
	}
	if base.MaxPageSize != 100 {
		t.Errorf("MaxPageSize = %d, want 100 (unchanged)", base.MaxPageSize)
	}
}

func TestPageRequestNormalize(t *testing.T) {
	cfg := defaultConfig()

	tests := []struct {
		name         string
		req          pagination.PageRequest
		wantPage     int
		wantPageSize int
		wantOffset   int
	}{
		{"zero values get defaults", pagination.PageRequest{}, 1, 20, 0},
		{"negative page corrected", pagination.PageRequest{Page: -1, PageSize: 10}, 1, 10, 0},
		{"page size clamped to max", pagination.PageRequest{Page: 1, PageSize: 500}, 1, 100, 0},
		{"valid values preserved", pagination.PageRequest{Page: 3, PageSize: 25}, 3, 25, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize(cfg)
			if tt.req.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", tt.req.Page, tt.wantPage)
			}
			if tt.req.PageSize != tt.wantPageSize {
				t.Errorf("PageSize = %d, want %d", tt.req.PageSize, tt.wantPageSize)
			}
			if got := tt.req.Offset(); got != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", got, tt.wantOffset)
			}
		})
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	cfg := defaultConfig()

	t.Run("sort parameter", func(t *testing.T) {
		values := url.Values{
			"page":      {"2"},
			"page_size": {"15"},
			"search":    {"review"},
			"sort":      {"title,-created_at"},
		}

		req, err := pagination.PageRequestFromQuery(values, cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Page != 2 || req.PageSize != 15 {
			t.Errorf("Page/PageSize = %d/%d, want 2/15", req.Page, req.PageSize)
		}
		if req.Search == nil || *req.Search != "review" {
			t.Errorf("Search = %v, want review", req.Search)
		}
		if len(req.Sort) != 2 || req.Sort[1] != (query.SortField{Field: "created_at", Descending: true}) {
			t.Errorf("Sort = %v", req.Sort)
		}
	})

	t.Run("empty params get defaults", func(t *testing.T) {
		req, err := pagination.PageRequestFromQuery(url.Values{}, cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Page != 1 || req.PageSize != 20 || req.Search != nil || req.Sort != nil {
			t.Errorf("unexpected request %+v", req)
		}
	})
}

func TestSortFromQuery(t *testing.T) {
	tests := []struct {
		name    string
		values  url.Values
		want    pagination.SortFields
		wantErr bool
	}{
		{"sort_by defaults to descending", url.Values{"sort_by": {"usage_count"}}, pagination.SortFields{{Field: "usage_count", Descending: true}}, false},
		{"ascending order", url.Values{"sort_by": {"title"}, "sort_order": {"ASC"}}, pagination.SortFields{{Field: "title"}}, false},
		{"invalid order", url.Values{"sort_by": {"title"}, "sort_order": {"sideways"}}, nil, true},
		{"order alone is ignored", url.Values{"sort_order": {"asc"}}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pagination.SortFromQuery(tt.values)
			if tt.wantErr {
				if !errors.Is(err, pagination.ErrInvalidSortOrder) {
					t.Fatalf("err = %v, want ErrInvalidSortOrder", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name           string
		total          int
		pageSize       int
		wantTotalPages int
	}{
		{"exact division", 100, 20, 5},
		{"remainder", 101, 20, 6},
		{"single page", 5, 20, 1},
		{"empty result", 0, 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pagination.NewPageResult([]string{"a"}, tt.total, 1, tt.pageSize)
			if result.TotalPages != tt.wantTotalPages {
				t.Errorf("TotalPages = %d, want %d", result.TotalPages, tt.wantTotalPages)
			}
			if result.Total != tt.total {
				t.Errorf("Total = %d, want %d", result.Total, tt.total)
			}
		})
	}

	t.Run("nil data becomes empty", func(t *testing.T) {
		result := pagination.NewPageResult[string](nil, 0, 1, 20)
		if result.Data == nil {
			t.Error("Data should be empty slice, not nil")
		}
	})
}

func TestSortFieldsUnmarshal(t *testing.T) {
	inputs := map[string]string{
		"string": `"title,-created_at"`,
		"array":  `[{"Field":"title","Descending":false},{"Field":"created_at","Descending":true}]`,
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			var sf pagination.SortFields
			if err := json.Unmarshal([]byte(input), &sf); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if len(sf) != 2 {
				t.Fatalf("length = %d, want 2", len(sf))
			}
			if sf[0] != (query.SortField{Field: "title"}) {
				t.Errorf("sf[0] = %v", sf[0])
			}
			if sf[1] != (query.SortField{Field: "created_at", Descending: true}) {
				t.Errorf("sf[1] = %v", sf[1])
			}
		})
	}
}
