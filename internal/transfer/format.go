package transfer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a serialization format for import or export.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatFabric   Format = "fabric"
)

// ParseFormat resolves a case-insensitive format name. "md" and "yml" are
// accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "fabric":
		return FormatFabric, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
}

// DetectFormat infers a format from a file extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: cannot detect format of %q", ErrInvalidFormat, filename)
}

// Exportable reports whether documents can be written in the format.
func (f Format) Exportable() bool {
	switch f {
	case FormatJSON, FormatCSV, FormatYAML, FormatMarkdown:
		return true
	}
	return false
}

// ContentType returns the media type of an exported document.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatYAML:
		return "application/x-yaml"
	case FormatMarkdown:
		return "text/markdown"
	}
	return "text/plain"
}

// Extension returns the file extension of an exported document, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	case FormatYAML:
		return "yml"
	case FormatMarkdown:
		return "md"
	}
	return "txt"
}
