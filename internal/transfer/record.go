package transfer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/JaimeStill/prombank/internal/tags"
)

// Record is a format-neutral prompt produced by every parser and consumed
// by ingestion. Empty strings mean absent.
type Record struct {
	Title             string
	Content           string
	Description       *string
	Category          string
	Type              string
	Tags              []string
	IsPublic          bool
	IsTemplate        bool
	TemplateVariables map[string]any

	// Err is set when the item could not be read. Ingestion reports it
	// against the item's position and continues with the next one.
	Err error
}

// recordFromMap reads the recognized keys of a decoded document object.
// Values are accepted loosely: tags as a list or comma-joined string, flags
// as booleans or boolean strings, template variables as an object or JSON text.
func recordFromMap(m map[string]any) (Record, error) {
	r := Record{
		Title:    strings.TrimSpace(text(m["title"])),
		Content:  strings.TrimSpace(text(m["content"])),
		Category: strings.TrimSpace(text(m["category"])),
		Type:     strings.TrimSpace(text(m["type"])),
	}

	if r.Type == "" {
		r.Type = strings.TrimSpace(text(m["prompt_type"]))
	}

	if d := text(m["description"]); d != "" {
		r.Description = &d
	}

	switch v := m["tags"].(type) {
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			names = append(names, text(item))
		}
		r.Tags = tags.Normalize(names)
	case string:
		r.Tags = tags.Split(v)
	}
	if len(r.Tags) == 0 {
		r.Tags = nil
	}

	var err error
	if r.IsPublic, err = flag(m, "is_public"); err != nil {
		return r, err
	}
	if r.IsTemplate, err = flag(m, "is_template"); err != nil {
		return r, err
	}

	switch v := m["template_variables"].(type) {
	case map[string]any:
		r.TemplateVariables = v
	case string:
		if strings.TrimSpace(v) != "" {
			if err := json.Unmarshal([]byte(v), &r.TemplateVariables); err != nil {
				return r, fmt.Errorf("%w: template_variables: %v", ErrValidation, err)
			}
		}
	}

	return r, nil
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func flag(m map[string]any, key string) (bool, error) {
	switch v := m[key].(type) {
	case bool:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return false, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("%w: %s must be a boolean", ErrValidation, key)
		}
		return b, nil
	}
	return false, nil
}
