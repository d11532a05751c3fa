package patch_test

import (
	"encoding/json"
	"testing"

	"github.com/JaimeStill/prombank/pkg/patch"
)

type command struct {
	Title       patch.Field[string]   `json:"title"`
	Description patch.Field[string]   `json:"description"`
	Tags        patch.Field[[]string] `json:"tags"`
}

func TestFieldUnmarshal(t *testing.T) {
	var cmd command
	body := `{"title": "New title", "description": null}`
	if err := json.Unmarshal([]byte(body), &cmd); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !cmd.Title.Present() || cmd.Title.Value != "New title" {
		t.Errorf("Title = %+v, want present value", cmd.Title)
	}
	if !cmd.Description.Set || !cmd.Description.Null {
		t.Errorf("Description = %+v, want set null", cmd.Description)
	}
	if cmd.Tags.Set {
		t.Errorf("Tags = %+v, want unset", cmd.Tags)
	}
}

func TestFieldHelpers(t *testing.T) {
	tests := []struct {
		name    string
		field   patch.Field[string]
		present bool
		or      string
		hasPtr  bool
	}{
		{"unset", patch.Field[string]{}, false, "current", false},
		{"null", patch.Null[string](), false, "current", false},
		{"value", patch.Value("next"), true, "next", true},
		{"empty value", patch.Value(""), true, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.field.Present(); got != tt.present {
				t.Errorf("Present() = %v, want %v", got, tt.present)
			}
			if got := tt.field.Or("current"); got != tt.or {
				t.Errorf("Or() = %q, want %q", got, tt.or)
			}
			if got := tt.field.Ptr() != nil; got != tt.hasPtr {
				t.Errorf("Ptr() != nil = %v, want %v", got, tt.hasPtr)
			}
		})
	}
}

func TestFieldMarshal(t *testing.T) {
	data, err := json.Marshal(command{Title: patch.Value("T"), Tags: patch.Null[[]string]()})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	want := `{"title":"T","description":null,"tags":null}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}
