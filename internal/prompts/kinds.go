package prompts

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Type is the conversational role a prompt is written for.
type Type string

// Valid prompt types.
const (
	TypeSystem    Type = "system"
	TypeUser      Type = "user"
	TypeAssistant Type = "assistant"
	TypeTemplate  Type = "template"
	TypeFunction  Type = "function"
)

var types = []Type{
	TypeSystem,
	TypeUser,
	TypeAssistant,
	TypeTemplate,
	TypeFunction,
}

// Types returns the list of valid prompt types.
func Types() []Type {
	return types
}

// ParseType validates a case-insensitive string as a known prompt type.
func ParseType(s string) (Type, error) {
	v := Type(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(types, v) {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return v, nil
}

// UnmarshalJSON validates that the decoded string is a known type.
func (t *Type) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseType(raw)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Status is the lifecycle state of a prompt.
type Status string

// Valid prompt statuses.
const (
	StatusDraft      Status = "draft"
	StatusActive     Status = "active"
	StatusArchived   Status = "archived"
	StatusDeprecated Status = "deprecated"
)

var statuses = []Status{
	StatusDraft,
	StatusActive,
	StatusArchived,
	StatusDeprecated,
}

// Statuses returns the list of valid prompt statuses.
func Statuses() []Status {
	return statuses
}

// ParseStatus validates a case-insensitive string as a known status.
func ParseStatus(s string) (Status, error) {
	v := Status(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(statuses, v) {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return v, nil
}

// UnmarshalJSON validates that the decoded string is a known status.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
