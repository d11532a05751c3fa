package tools

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/prombank/internal/categories"
	"github.com/JaimeStill/prombank/internal/prompts"
	"github.com/JaimeStill/prombank/internal/tags"
	"github.com/JaimeStill/prombank/internal/transfer"
)

const (
	dateLayout   = "2006-01-02"
	minuteLayout = "2006-01-02 15:04"
)

func or(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func categoryName(p *prompts.Prompt) string {
	if name := p.CategoryName(); name != "" {
		return name
	}
	return "None"
}

func tagNames(p *prompts.Prompt) string {
	if len(p.Tags) == 0 {
		return "None"
	}
	return strings.Join(p.TagNames(), ", ")
}

func searchResults(list []prompts.Prompt, total int) string {
	lines := []string{fmt.Sprintf("Found %d prompts (total: %d):\n", len(list), total)}
	for i := range list {
		p := &list[i]
		lines = append(lines, fmt.Sprintf(
			"%d. **%s** (ID: %s)\n   Type: %s | Category: %s | Tags: %s\n   Usage: %d times | Created: %s\n   Description: %s\n",
			i+1, p.Title, p.ID,
			p.Type, categoryName(p), tagNames(p),
			p.UsageCount, p.CreatedAt.Format(dateLayout),
			or(p.Description, "No description"),
		))
	}
	return strings.Join(lines, "\n")
}

func promptDetail(p *prompts.Prompt) string {
	return strings.Join([]string{
		fmt.Sprintf("**%s** (ID: %s)\n", p.Title, p.ID),
		"Type: " + string(p.Type),
		"Status: " + string(p.Status),
		"Category: " + categoryName(p),
		"Tags: " + tagNames(p),
		"Version: " + p.Version,
		fmt.Sprintf("Usage Count: %d", p.UsageCount),
		"Public: " + yesNo(p.IsPublic),
		"Template: " + yesNo(p.IsTemplate),
		"Created: " + p.CreatedAt.Format(minuteLayout),
		"Updated: " + p.UpdatedAt.Format(minuteLayout),
		"\n**Description:**\n" + or(p.Description, "No description"),
		"\n**Content:**\n" + p.Content,
	}, "\n")
}

func categoryList(list []categories.Category) string {
	lines := []string{fmt.Sprintf("Found %d categories:\n", len(list))}
	for i, c := range list {
		lines = append(lines, fmt.Sprintf(
			"%d. **%s** (ID: %s)\n   Description: %s\n   Color: %s | Active: %s | Prompts: %d\n",
			i+1, c.Name, c.ID,
			or(c.Description, "No description"),
			or(c.Color, "None"), yesNo(c.IsActive), c.PromptCount,
		))
	}
	return strings.Join(lines, "\n")
}

func tagList(header string, list []tags.Tag) string {
	lines := []string{header + "\n"}
	for i, t := range list {
		lines = append(lines, fmt.Sprintf(
			"%d. **%s** (ID: %s)\n   Description: %s\n",
			i+1, t.Name, t.ID, or(t.Description, "No description"),
		))
	}
	return strings.Join(lines, "\n")
}

func popularTags(list []tags.Usage) string {
	lines := []string{fmt.Sprintf("Top %d popular tags:\n", len(list))}
	for i, u := range list {
		lines = append(lines, fmt.Sprintf(
			"%d. **%s** (used %d times)\n   Description: %s\n",
			i+1, u.Name, u.UsageCount, or(u.Description, "No description"),
		))
	}
	return strings.Join(lines, "\n")
}

func importSummary(r *transfer.Result) string {
	lines := []string{
		"Import completed:",
		fmt.Sprintf("- Imported: %d prompts", r.Created+r.Updated),
		fmt.Sprintf("- Skipped: %d duplicates", r.Skipped),
		fmt.Sprintf("- Errors: %d", len(r.Errors)),
	}
	if r.Cancelled {
		lines = append(lines, "- Cancelled before completion")
	}

	if len(r.Errors) > 0 {
		lines = append(lines, "\nErrors:")
		for _, e := range r.Errors[:min(len(r.Errors), importErrorLimit)] {
			lines = append(lines, "  - "+e)
		}
	}

	if len(r.Imported) > 0 {
		lines = append(lines, "\nImported prompts:")
		for _, p := range r.Imported[:min(len(r.Imported), importPromptLimit)] {
			lines = append(lines, fmt.Sprintf("  - %s (ID: %s)", p.Title, p.ID))
		}
	}

	return strings.Join(lines, "\n")
}

func popularList(list []prompts.Prompt) string {
	lines := []string{fmt.Sprintf("Top %d popular prompts:\n", len(list))}
	for i := range list {
		p := &list[i]
		lines = append(lines, fmt.Sprintf(
			"%d. **%s** (ID: %s)\n   Used %d times | Type: %s\n   Category: %s\n",
			i+1, p.Title, p.ID, p.UsageCount, p.Type, categoryName(p),
		))
	}
	return strings.Join(lines, "\n")
}

func recentList(list []prompts.Prompt) string {
	lines := []string{fmt.Sprintf("Last %d created prompts:\n", len(list))}
	for i := range list {
		p := &list[i]
		lines = append(lines, fmt.Sprintf(
			"%d. **%s** (ID: %s)\n   Created: %s | Type: %s\n   Category: %s\n",
			i+1, p.Title, p.ID, p.CreatedAt.Format(minuteLayout), p.Type, categoryName(p),
		))
	}
	return strings.Join(lines, "\n")
}
