package converter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/young1lin/grok-search/internal/models"
)

var (
	fenceLine   = regexp.MustCompile("(?m)^[ \t]*```[A-Za-z0-9_-]*[ \t]*$")
	fencedBlock = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\n?(.*?)```")
)

var errNotJSON = errors.New("not valid JSON")

// DecodeResults turns model output into normalized search results.
// It tries a strict decode first and falls back to a single cleanup pass.
func DecodeResults(content string) ([]models.SearchResult, error) {
	results, err := DecodeStrict(content)
	if err == nil {
		return results, nil
	}
	if models.KindOf(err) == models.KindUpstreamFormat {
		return nil, err
	}

	cleaned := StripWrapping(content)
	if cleaned != strings.TrimSpace(content) {
		results, err = DecodeStrict(cleaned)
		if err == nil {
			return results, nil
		}
		if models.KindOf(err) == models.KindUpstreamFormat {
			return nil, err
		}
	}

	return nil, models.UpstreamFormat("model output is not a JSON result array", err)
}

// DecodeStrict parses content as-is. It accepts a bare array or an object
// carrying a "results" array; an object carrying only "error" is reported
// as an upstream format error with the model's message.
func DecodeStrict(content string) ([]models.SearchResult, error) {
	s := strings.TrimSpace(content)
	if !gjson.Valid(s) {
		return nil, errNotJSON
	}

	root := gjson.Parse(s)
	switch {
	case root.IsArray():
		return normalize(root.Array()), nil
	case root.IsObject():
		results := root.Get("results")
		msg := strings.TrimSpace(root.Get("error").String())
		if results.IsArray() && (len(results.Array()) > 0 || msg == "") {
			return normalize(results.Array()), nil
		}
		if msg != "" {
			return nil, models.UpstreamFormat("model reported a search failure: "+msg, nil)
		}
		return nil, fmt.Errorf("expected a JSON array, got an object")
	default:
		return nil, fmt.Errorf("expected a JSON array, got %s", root.Type)
	}
}

// StripWrapping removes code fences and any prose around the outermost JSON value.
// When the output carries a fenced block, only the block body is considered.
func StripWrapping(content string) string {
	s := strings.TrimSpace(content)
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		s = m[1]
	} else {
		s = fenceLine.ReplaceAllString(s, "")
	}
	s = strings.TrimSpace(s)

	// Longest complete value wins over bracketed citations in prose
	best := ""
	for i := 0; i < len(s); i++ {
		if s[i] != '[' && s[i] != '{' {
			continue
		}
		end := closingIndex(s, i)
		if end < 0 {
			break
		}
		if candidate := s[i : end+1]; gjson.Valid(candidate) {
			if len(candidate) > len(best) {
				best = candidate
			}
			i = end
		}
	}
	if best == "" {
		return s
	}
	return best
}

// closingIndex returns the index of the bracket closing the one at start,
// skipping brackets inside JSON strings, or -1 when it is never closed
func closingIndex(s string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Truncate keeps the first max results in model order
func Truncate(results []models.SearchResult, max int) []models.SearchResult {
	if max >= 0 && len(results) > max {
		return results[:max]
	}
	return results
}

// normalize maps decoded entries to SearchResult, dropping any without title or url
func normalize(items []gjson.Result) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		r := models.SearchResult{
			Title:         firstString(item, "title", "name"),
			URL:           firstString(item, "url", "link"),
			Snippet:       firstString(item, "description", "snippet", "summary", "content"),
			Source:        firstString(item, "source"),
			PublishedDate: firstString(item, "published_date", "publishedDate", "date"),
		}
		if r.Title == "" || r.URL == "" {
			continue
		}
		results = append(results, r)
	}
	return results
}

func firstString(item gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := item.Get(k); v.Exists() && v.Type != gjson.Null {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}
