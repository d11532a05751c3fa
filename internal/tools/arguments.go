package tools

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

var errArgument = errors.New("invalid argument")

// arguments reads loosely typed tool arguments decoded from JSON.
type arguments map[string]any

func (a arguments) has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

func (a arguments) required(key string) (string, error) {
	s, err := a.str(key, "")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %s is required", errArgument, key)
	}
	return s, nil
}

func (a arguments) str(key, def string) (string, error) {
	if !a.has(key) {
		return def, nil
	}
	s, ok := a[key].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", errArgument, key)
	}
	return s, nil
}

func (a arguments) boolean(key string, def bool) (bool, error) {
	if !a.has(key) {
		return def, nil
	}
	b, ok := a[key].(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s must be a boolean", errArgument, key)
	}
	return b, nil
}

// limit reads a positive integer no greater than upper.
func (a arguments) limit(key string, def, upper int) (int, error) {
	if !a.has(key) {
		return def, nil
	}
	f, ok := a[key].(float64)
	if !ok || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s must be an integer", errArgument, key)
	}
	n := int(f)
	if n < 1 || n > upper {
		return 0, fmt.Errorf("%w: %s must be between 1 and %d", errArgument, key, upper)
	}
	return n, nil
}

func (a arguments) list(key string) ([]string, error) {
	if !a.has(key) {
		return nil, nil
	}
	items, ok := a[key].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an array of strings", errArgument, key)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be an array of strings", errArgument, key)
		}
		out = append(out, s)
	}
	return out, nil
}

func (a arguments) id(key string) (uuid.UUID, error) {
	s, err := a.required(key)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a UUID", errArgument, key)
	}
	return id, nil
}

func (a arguments) ids(key string) ([]uuid.UUID, error) {
	raw, err := a.list(key)
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%w: %s must contain UUIDs", errArgument, key)
		}
		out = append(out, id)
	}
	return out, nil
}
