package handler

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/young1lin/grok-search/internal/models"
	"github.com/young1lin/grok-search/internal/search"
)

const (
	defaultMinResults = 3
	defaultMaxResults = 10
)

// webSearch handles web_search
func (t *Tools) webSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	ctx, c := t.begin(ctx, ToolWebSearch, query)

	if strings.TrimSpace(query) == "" {
		return c.fail(ctx, models.InvalidInput("query must not be empty")), nil
	}

	format := strings.ToLower(strings.TrimSpace(req.GetString("format", "json")))
	if format != "json" && format != "markdown" {
		return c.fail(ctx, models.InvalidInput("format must be \"json\" or \"markdown\", got %q", format)), nil
	}

	searchReq := &models.SearchRequest{
		Query:      query,
		Platform:   strings.TrimSpace(req.GetString("platform", "")),
		MinResults: req.GetInt("min_results", defaultMinResults),
		MaxResults: req.GetInt("max_results", defaultMaxResults),
	}

	provider, err := t.provider(c)
	if err != nil {
		return c.fail(ctx, err), nil
	}

	results, err := provider.Search(ctx, searchReq)
	if err != nil {
		return c.fail(ctx, err), nil
	}
	c.result = len(results)

	if format == "markdown" {
		return c.success(ctx, search.FormatResults(results)), nil
	}

	text, err := search.EncodeResults(results)
	if err != nil {
		return c.fail(ctx, err), nil
	}
	return c.success(ctx, text), nil
}

// webFetch handles web_fetch
func (t *Tools) webFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fetchReq := &models.FetchRequest{URL: req.GetString("url", "")}
	ctx, c := t.begin(ctx, ToolWebFetch, fetchReq.URL)

	provider, err := t.provider(c)
	if err != nil {
		return c.fail(ctx, err), nil
	}

	content, err := provider.Fetch(ctx, fetchReq)
	if err != nil {
		return c.fail(ctx, err), nil
	}
	return c.success(ctx, content), nil
}

// provider resolves the config for this call and binds a fresh provider to it
func (t *Tools) provider(c *call) (search.Provider, error) {
	cfg, err := t.config.Provider()
	if err != nil {
		return nil, err
	}
	c.model = cfg.Model
	return t.newProvider(cfg, search.Options{
		Timeout: t.config.RequestTimeout(),
		Logger:  c.log,
	}), nil
}
