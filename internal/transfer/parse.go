package transfer

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/JaimeStill/prombank/pkg/formatting"
)

// ExportTag identifies documents written by Export.
const ExportTag = "prombank_export"

const (
	defaultFabricTitle = "Fabric Pattern"
	schemaURL          = "export.schema.json"
	promptSchemaURL    = schemaURL + "#/$defs/prompt"
)

var fabricTags = []string{"fabric", "pattern"}

//go:embed export.schema.json
var exportSchema []byte

type schemas struct {
	document *jsonschema.Schema
	prompt   *jsonschema.Schema
}

// compileSchemas compiles the export envelope and, separately, its prompt
// item so one bad item does not reject the whole document.
var compileSchemas = sync.OnceValues(func() (*schemas, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(exportSchema)); err != nil {
		return nil, fmt.Errorf("load export schema: %w", err)
	}
	document, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, err
	}
	prompt, err := compiler.Compile(promptSchemaURL)
	if err != nil {
		return nil, err
	}
	return &schemas{document: document, prompt: prompt}, nil
})

// Parse decodes a document in the given format into records. An error is
// returned only when the document as a whole cannot be read; items that
// fail on their own come back as records with Err set.
func Parse(format Format, data []byte) ([]Record, error) {
	switch format {
	case FormatJSON:
		return parseJSON(data)
	case FormatYAML:
		return parseYAML(data)
	case FormatCSV:
		return parseCSV(data)
	case FormatMarkdown:
		return ParseMarkdown(string(data)), nil
	case FormatFabric:
		return []Record{ParseFabric(string(data))}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
}

func parseJSON(data []byte) ([]Record, error) {
	doc, err := formatting.Decode[any](string(data), decodeJSON)
	if err != nil {
		return nil, err
	}

	var validate func(any) error
	if m, ok := doc.(map[string]any); ok && m["format"] == ExportTag {
		s, err := compileSchemas()
		if err != nil {
			return nil, err
		}
		if err := s.document.Validate(doc); err != nil {
			return nil, fmt.Errorf("invalid %s document: %w", ExportTag, err)
		}
		validate = s.prompt.Validate
	}

	return records(doc, validate)
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after document")
	}
	return nil
}

func parseYAML(data []byte) ([]Record, error) {
	doc, err := formatting.Decode[any](string(data), yaml.Unmarshal)
	if err != nil {
		return nil, err
	}
	return records(doc, nil)
}

// records normalizes an object with a prompts list, a bare list, or a
// single object into records. When validate is set each item is checked
// against it before being read.
func records(doc any, validate func(any) error) ([]Record, error) {
	var items []any

	switch v := doc.(type) {
	case nil:
		return nil, nil
	case []any:
		items = v
	case map[string]any:
		if list, ok := v["prompts"]; ok {
			l, ok := list.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: prompts must be a list", ErrValidation)
			}
			items = l
		} else {
			items = []any{v}
		}
	default:
		return nil, fmt.Errorf("%w: document must be an object or a list", ErrValidation)
	}

	out := make([]Record, 0, len(items))
	for _, item := range items {
		out = append(out, recordFromItem(item, validate))
	}
	return out, nil
}

func recordFromItem(item any, validate func(any) error) Record {
	m, ok := item.(map[string]any)
	if !ok {
		return Record{Err: fmt.Errorf("%w: item is not an object", ErrValidation)}
	}
	if validate != nil {
		if err := validate(m); err != nil {
			return Record{Err: fmt.Errorf("%w: %v", ErrValidation, err)}
		}
	}
	r, err := recordFromMap(m)
	if err != nil {
		return Record{Err: err}
	}
	return r
}

// parseCSV maps each row onto the header row's keys.
func parseCSV(data []byte) ([]Record, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	var out []Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		m := make(map[string]any, len(header))
		for i, key := range header {
			if i < len(row) {
				m[key] = row[i]
			}
		}

		r, err := recordFromMap(m)
		if err != nil {
			r = Record{Err: fmt.Errorf("row %d: %w", line, err)}
		}
		out = append(out, r)
	}
	return out, nil
}

// ParseMarkdown splits text at heading lines. Each heading becomes a record
// title and the text up to the next heading its content. Sections with an
// empty body are dropped, and headings inside fenced code blocks do not split.
func ParseMarkdown(text string) []Record {
	var (
		out     []Record
		title   string
		body    []string
		started bool
		fenced  bool
	)

	flush := func() {
		if !started {
			return
		}
		content := strings.TrimSpace(strings.Join(body, "\n"))
		if content != "" {
			out = append(out, Record{Title: title, Content: content, Type: "user"})
		}
	}

	for line := range strings.SplitSeq(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if !fenced {
			if h, ok := heading(line); ok {
				flush()
				title, body, started = h, nil, true
				continue
			}
		}
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			fenced = !fenced
		}
		if started {
			body = append(body, line)
		}
	}
	flush()

	return out
}

// heading reports the text of a "#".."######" heading line.
func heading(line string) (string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level == len(line) {
		return "", false
	}
	if line[level] != ' ' && line[level] != '\t' {
		return "", false
	}
	title := strings.TrimSpace(line[level:])
	return title, title != ""
}

// ParseFabric reads a single Fabric pattern document. The first "# " line is
// the title, the first "## " line the description, and the rest the content.
func ParseFabric(text string) Record {
	r := Record{
		Title: defaultFabricTitle,
		Type:  "system",
		Tags:  append([]string(nil), fabricTags...),
	}

	var titled, described bool
	var content []string

	for line := range strings.SplitSeq(strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n"), "\n") {
		switch {
		case !titled && strings.HasPrefix(line, "# "):
			if t := strings.TrimSpace(line[2:]); t != "" {
				r.Title = t
			}
			titled = true
		case !described && strings.HasPrefix(line, "## "):
			if d := strings.TrimSpace(line[3:]); d != "" {
				r.Description = &d
			}
			described = true
		default:
			content = append(content, line)
		}
	}

	r.Content = strings.TrimSpace(strings.Join(content, "\n"))
	return r
}
