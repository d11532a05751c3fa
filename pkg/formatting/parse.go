package formatting

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content cannot be decoded,
// either directly or from a markdown code fence.
var ErrParseFailed = errors.New("failed to parse document")

var fenceRegex = regexp.MustCompile("(?s)```(?:json|ya?ml)?[ \\t]*\\n?(.*?)\\n?```")

// Unmarshaler matches json.Unmarshal and yaml.Unmarshal.
type Unmarshaler func(data []byte, v any) error

// Unfence returns the body of the first fenced code block in content.
// The second result is false when content holds no fence.
func Unfence(content string) (string, bool) {
	matches := fenceRegex.FindStringSubmatch(content)
	if len(matches) < 2 {
		return "", false
	}
	return strings.TrimSpace(matches[1]), true
}

// Decode unmarshals content into T with unmarshal. When direct decoding fails
// and content wraps the document in a markdown code fence, the fenced body is
// decoded instead. Returns ErrParseFailed wrapping the first decode error.
func Decode[T any](content string, unmarshal Unmarshaler) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	err := unmarshal([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	if body, ok := Unfence(content); ok {
		var fenced T
		if ferr := unmarshal([]byte(body), &fenced); ferr == nil {
			return fenced, nil
		}
	}

	return result, fmt.Errorf("%w: %w", ErrParseFailed, err)
}
