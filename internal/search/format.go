package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/young1lin/grok-search/internal/models"
)

// FormatResults renders search results as Markdown sections for human readers
func FormatResults(results []models.SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}

	sections := make([]string, 0, len(results))
	for i, r := range results {
		var b strings.Builder
		fmt.Fprintf(&b, "## Result %d: %s", i+1, r.Title)
		if r.URL != "" {
			fmt.Fprintf(&b, "\n**URL:** %s", r.URL)
		}
		if r.Snippet != "" {
			fmt.Fprintf(&b, "\n**Summary:** %s", r.Snippet)
		}
		if r.Source != "" {
			fmt.Fprintf(&b, "\n**Source:** %s", r.Source)
		}
		if r.PublishedDate != "" {
			fmt.Fprintf(&b, "\n**Published:** %s", r.PublishedDate)
		}
		sections = append(sections, b.String())
	}

	return strings.Join(sections, "\n\n---\n\n")
}

// EncodeResults renders search results as an indented JSON array.
// An empty result set encodes as [] rather than null.
func EncodeResults(results []models.SearchResult) (string, error) {
	if results == nil {
		results = []models.SearchResult{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
