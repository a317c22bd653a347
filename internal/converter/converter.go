package converter

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/openai/openai-go"

	"github.com/young1lin/grok-search/internal/models"
)

// ValidateSearchRequest checks the primitive constraints of a search request
func ValidateSearchRequest(req *models.SearchRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return models.InvalidInput("query must not be empty")
	}
	if req.MinResults < 0 {
		return models.InvalidInput("min_results must be >= 0, got %d", req.MinResults)
	}
	if req.MaxResults < req.MinResults {
		return models.InvalidInput("max_results (%d) must be >= min_results (%d)", req.MaxResults, req.MinResults)
	}
	return nil
}

// ValidateFetchURL returns the trimmed URL if it is an absolute http(s) address
func ValidateFetchURL(raw string) (string, error) {
	target := strings.TrimSpace(raw)
	lower := strings.ToLower(target)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "", models.InvalidInput("url must start with http:// or https://, got %q", raw)
	}
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return "", models.InvalidInput("url %q is not a valid web address", raw)
	}
	return target, nil
}

// BuildSearchPayload renders the user turn of a search request.
// Bounds and platform are instructions to the model, not filters applied here.
func BuildSearchPayload(req *models.SearchRequest, now time.Time) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(req.Query))

	if platform := strings.TrimSpace(req.Platform); platform != "" {
		fmt.Fprintf(&b, "\n\nYou should focus search on: %s", platform)
	}

	fmt.Fprintf(&b, "\n\nReturn at least %d and at most %d results.", req.MinResults, req.MaxResults)
	fmt.Fprintf(&b, "\n\nCurrent time: %s (%s)", now.Format("2006-01-02 15:04:05 MST"), now.Weekday())

	return b.String()
}

// BuildMessages returns the single system + single user message pair sent upstream
func BuildMessages(systemPrompt, payload string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(payload),
	}
}

// ExtractContent returns the assistant text of the first choice
func ExtractContent(completion *openai.ChatCompletion) (string, error) {
	if completion == nil || len(completion.Choices) == 0 {
		return "", models.UpstreamFormat("response contains no choices", nil)
	}
	content := completion.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", models.UpstreamFormat("response message is empty", nil)
	}
	return content, nil
}
