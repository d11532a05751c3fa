package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/JaimeStill/prombank/internal/prompts"
	"github.com/JaimeStill/prombank/internal/transfer"
)

// render writes v as indented JSON, or as the table drawn by table.
func (a *app) render(w io.Writer, v any, table func(w io.Writer)) error {
	if a.output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

func promptTable(list []prompts.Prompt) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintln(w, "ID\tTITLE\tTYPE\tSTATUS\tCATEGORY\tTAGS\tUSES")
		for _, p := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
				p.ID,
				truncate(p.Title, 40),
				p.Type,
				p.Status,
				orDash(p.CategoryName()),
				orDash(strings.Join(p.TagNames(), ", ")),
				p.UsageCount,
			)
		}
	}
}

func promptDetail(p *prompts.Prompt) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintf(w, "ID:\t%s\n", p.ID)
		fmt.Fprintf(w, "Title:\t%s\n", p.Title)
		if p.Description != nil && *p.Description != "" {
			fmt.Fprintf(w, "Description:\t%s\n", *p.Description)
		}
		fmt.Fprintf(w, "Type:\t%s\n", p.Type)
		fmt.Fprintf(w, "Status:\t%s\n", p.Status)
		fmt.Fprintf(w, "Version:\t%s\n", p.Version)
		fmt.Fprintf(w, "Category:\t%s\n", orDash(p.CategoryName()))
		fmt.Fprintf(w, "Tags:\t%s\n", orDash(strings.Join(p.TagNames(), ", ")))
		fmt.Fprintf(w, "Public:\t%t\n", p.IsPublic)
		fmt.Fprintf(w, "Favorite:\t%t\n", p.IsFavorite)
		fmt.Fprintf(w, "Template:\t%t\n", p.IsTemplate)
		fmt.Fprintf(w, "Usage:\t%d\n", p.UsageCount)
		if p.LastUsedAt != nil {
			fmt.Fprintf(w, "Last used:\t%s\n", p.LastUsedAt.Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(w, "Created:\t%s\n", p.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Fprintf(w, "Updated:\t%s\n", p.UpdatedAt.Format("2006-01-02 15:04"))
		fmt.Fprintf(w, "\n%s\n", p.Content)
	}
}

func reportTable(r transfer.Report) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintln(w, r.Message)
		fmt.Fprintf(w, "  Created:\t%d\n", r.Created)
		fmt.Fprintf(w, "  Updated:\t%d\n", r.Updated)
		fmt.Fprintf(w, "  Skipped:\t%d\n", r.Skipped)
		fmt.Fprintf(w, "  Errors:\t%d\n", r.ErrorCount)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "    - %s\n", e)
		}
		if r.Cancelled {
			fmt.Fprintln(w, "  Import was cancelled before completion.")
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
