package transfer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/JaimeStill/prombank/internal/prompts"
)

// ExportVersion is the schema version written into export documents.
const ExportVersion = "1.0"

type header struct {
	Format       string `json:"format" yaml:"format"`
	Version      string `json:"version" yaml:"version"`
	ExportedAt   string `json:"exported_at" yaml:"exported_at"`
	TotalPrompts int    `json:"total_prompts" yaml:"total_prompts"`
}

type jsonDocument struct {
	header
	Prompts []jsonPrompt `json:"prompts"`
}

type jsonPrompt struct {
	ID                uuid.UUID      `json:"id"`
	Title             string         `json:"title"`
	Content           string         `json:"content"`
	Description       *string        `json:"description"`
	PromptType        prompts.Type   `json:"prompt_type"`
	Status            prompts.Status `json:"status"`
	Version           string         `json:"version"`
	IsPublic          bool           `json:"is_public"`
	IsFavorite        bool           `json:"is_favorite"`
	IsTemplate        bool           `json:"is_template"`
	TemplateVariables map[string]any `json:"template_variables"`
	UsageCount        int            `json:"usage_count"`
	CreatedAt         string         `json:"created_at"`
	UpdatedAt         string         `json:"updated_at"`
	*jsonMetadata
	Versions []exportVersion `json:"versions,omitempty"`
}

type jsonMetadata struct {
	Category   *string  `json:"category"`
	Tags       []string `json:"tags"`
	SourceURL  *string  `json:"source_url"`
	SourceType *string  `json:"source_type"`
}

type exportVersion struct {
	Version   string  `json:"version" yaml:"version"`
	Content   string  `json:"content" yaml:"content"`
	Title     string  `json:"title" yaml:"title"`
	ChangeLog *string `json:"change_log" yaml:"change_log"`
	CreatedAt string  `json:"created_at" yaml:"created_at"`
}

type yamlDocument struct {
	header  `yaml:",inline"`
	Prompts []yamlPrompt `yaml:"prompts"`
}

type yamlPrompt struct {
	Title       string          `yaml:"title"`
	Content     string          `yaml:"content"`
	Description *string         `yaml:"description"`
	Type        prompts.Type    `yaml:"type"`
	Status      prompts.Status  `yaml:"status"`
	Category    *string         `yaml:"category,omitempty"`
	Tags        []string        `yaml:"tags,omitempty"`
	IsPublic    *bool           `yaml:"is_public,omitempty"`
	IsTemplate  *bool           `yaml:"is_template,omitempty"`
	Versions    []exportVersion `yaml:"versions,omitempty"`
}

func write(format Format, ps []prompts.Prompt, opts ExportOptions, at time.Time) (string, error) {
	switch format {
	case FormatJSON:
		return writeJSON(ps, opts, at)
	case FormatYAML:
		return writeYAML(ps, opts, at)
	case FormatCSV:
		return writeCSV(ps, opts)
	case FormatMarkdown:
		return writeMarkdown(ps, opts, at), nil
	}
	return "", fmt.Errorf("%w: %q cannot be exported", ErrInvalidFormat, format)
}

func newHeader(count int, at time.Time) header {
	return header{
		Format:       ExportTag,
		Version:      ExportVersion,
		ExportedAt:   timestamp(at),
		TotalPrompts: count,
	}
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func categoryName(p *prompts.Prompt) *string {
	if p.Category == nil {
		return nil
	}
	name := p.Category.Name
	return &name
}

func versionsOf(p *prompts.Prompt) []exportVersion {
	out := make([]exportVersion, len(p.Versions))
	for i, v := range p.Versions {
		out[i] = exportVersion{
			Version:   v.Version,
			Content:   v.Content,
			Title:     v.Title,
			ChangeLog: v.ChangeLog,
			CreatedAt: timestamp(v.CreatedAt),
		}
	}
	return out
}

func writeJSON(ps []prompts.Prompt, opts ExportOptions, at time.Time) (string, error) {
	doc := jsonDocument{
		header:  newHeader(len(ps), at),
		Prompts: make([]jsonPrompt, len(ps)),
	}

	for i := range ps {
		p := &ps[i]
		jp := jsonPrompt{
			ID:                p.ID,
			Title:             p.Title,
			Content:           p.Content,
			Description:       p.Description,
			PromptType:        p.Type,
			Status:            p.Status,
			Version:           p.Version,
			IsPublic:          p.IsPublic,
			IsFavorite:        p.IsFavorite,
			IsTemplate:        p.IsTemplate,
			TemplateVariables: p.TemplateVariables,
			UsageCount:        p.UsageCount,
			CreatedAt:         timestamp(p.CreatedAt),
			UpdatedAt:         timestamp(p.UpdatedAt),
		}
		if opts.IncludeMetadata {
			jp.jsonMetadata = &jsonMetadata{
				Category:   categoryName(p),
				Tags:       p.TagNames(),
				SourceURL:  p.SourceURL,
				SourceType: p.SourceType,
			}
		}
		if opts.IncludeVersions {
			jp.Versions = versionsOf(p)
		}
		doc.Prompts[i] = jp
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encode json export: %w", err)
	}
	return buf.String(), nil
}

func writeYAML(ps []prompts.Prompt, opts ExportOptions, at time.Time) (string, error) {
	doc := yamlDocument{
		header:  newHeader(len(ps), at),
		Prompts: make([]yamlPrompt, len(ps)),
	}

	for i := range ps {
		p := &ps[i]
		yp := yamlPrompt{
			Title:       p.Title,
			Content:     p.Content,
			Description: p.Description,
			Type:        p.Type,
			Status:      p.Status,
		}
		if opts.IncludeMetadata {
			yp.Category = categoryName(p)
			yp.Tags = p.TagNames()
			yp.IsPublic = &p.IsPublic
			yp.IsTemplate = &p.IsTemplate
		}
		if opts.IncludeVersions {
			yp.Versions = versionsOf(p)
		}
		doc.Prompts[i] = yp
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encode yaml export: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode yaml export: %w", err)
	}
	return buf.String(), nil
}

func writeCSV(ps []prompts.Prompt, opts ExportOptions) (string, error) {
	columns := []string{"id", "title", "content", "description", "type", "status", "version"}
	if opts.IncludeMetadata {
		columns = append(columns, "category", "tags", "is_public", "is_favorite", "usage_count")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(columns)

	for i := range ps {
		p := &ps[i]
		row := []string{
			p.ID.String(),
			p.Title,
			p.Content,
			deref(p.Description),
			string(p.Type),
			string(p.Status),
			p.Version,
		}
		if opts.IncludeMetadata {
			row = append(row,
				p.CategoryName(),
				strings.Join(p.TagNames(), ", "),
				strconv.FormatBool(p.IsPublic),
				strconv.FormatBool(p.IsFavorite),
				strconv.Itoa(p.UsageCount),
			)
		}
		w.Write(row)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("encode csv export: %w", err)
	}
	return buf.String(), nil
}

func writeMarkdown(ps []prompts.Prompt, opts ExportOptions, at time.Time) string {
	lines := []string{
		"# Prombank Export",
		"",
		"Exported on: " + at.UTC().Format(time.DateTime) + " UTC",
		"Total prompts: " + strconv.Itoa(len(ps)),
		"",
	}

	for i := range ps {
		p := &ps[i]
		lines = append(lines, fmt.Sprintf("## %d. %s", i+1, p.Title), "")

		if opts.IncludeMetadata {
			category, tagList := "None", "None"
			if name := p.CategoryName(); name != "" {
				category = name
			}
			if len(p.Tags) > 0 {
				tagList = strings.Join(p.TagNames(), ", ")
			}
			lines = append(lines,
				"**Type:** "+string(p.Type),
				"**Status:** "+string(p.Status),
				"**Category:** "+category,
				"**Tags:** "+tagList,
				"",
			)
		}

		if p.Description != nil && *p.Description != "" {
			lines = append(lines, "**Description:** "+*p.Description, "")
		}

		lines = append(lines, "**Content:**", "```", p.Content, "```", "")
	}

	return strings.Join(lines, "\n")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
