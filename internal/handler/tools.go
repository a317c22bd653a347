package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/young1lin/grok-search/internal/config"
	"github.com/young1lin/grok-search/internal/models"
	"github.com/young1lin/grok-search/internal/search"
	"github.com/young1lin/grok-search/internal/storage"
	"github.com/young1lin/grok-search/pkg/logger"
)

// Tool names
const (
	ToolWebSearch     = "web_search"
	ToolWebFetch      = "web_fetch"
	ToolGetConfigInfo = "get_config_info"
	ToolSwitchModel   = "switch_model"
	ToolToggleBuiltin = "toggle_builtin_tools"
)

// Tools serves the MCP tool surface. Every call resolves its ProviderConfig
// from the config at call time and builds its own provider.
type Tools struct {
	config      *config.Config
	history     *storage.CallStore
	newProvider search.Factory
	now         func() time.Time
}

// NewTools creates the tool surface. history may be nil when the journal is disabled.
func NewTools(cfg *config.Config, history *storage.CallStore, factory search.Factory) *Tools {
	if factory == nil {
		factory = search.NewProvider
	}
	return &Tools{
		config:      cfg,
		history:     history,
		newProvider: factory,
		now:         time.Now,
	}
}

// Register adds all tools to s
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(webSearchTool(), t.webSearch)
	s.AddTool(webFetchTool(), t.webFetch)
	s.AddTool(getConfigInfoTool(), t.getConfigInfo)
	s.AddTool(switchModelTool(), t.switchModel)
	s.AddTool(toggleBuiltinTool(), t.toggleBuiltinTools)
}

func webSearchTool() mcp.Tool {
	return mcp.NewTool(ToolWebSearch,
		mcp.WithDescription(`Performs a web search through the configured Grok model and returns structured results.

Returns a JSON array of {title, url, description, source?, published_date?} objects, or a
Markdown rendering when format is "markdown". At most max_results entries are returned, in
the order the model ranked them. The model may return fewer than min_results entries; the
result is then returned as-is.`),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query, in any language. The answer keeps the query's language."),
		),
		mcp.WithString("platform",
			mcp.Description("Optional platform or site to focus on, e.g. \"GitHub\" or \"Reddit\"."),
		),
		mcp.WithNumber("min_results",
			mcp.DefaultNumber(3),
			mcp.Description("Minimum number of results to ask for (best effort)."),
		),
		mcp.WithNumber("max_results",
			mcp.DefaultNumber(10),
			mcp.Description("Maximum number of results to return."),
		),
		mcp.WithString("format",
			mcp.DefaultString("json"),
			mcp.Enum("json", "markdown"),
			mcp.Description("Output format."),
		),
	)
}

func webFetchTool() mcp.Tool {
	return mcp.NewTool(ToolWebFetch,
		mcp.WithDescription("Fetches a web page through the configured Grok model and returns its content as structured Markdown."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Absolute http:// or https:// URL of the page to fetch."),
		),
	)
}

func getConfigInfoTool() mcp.Tool {
	return mcp.NewTool(ToolGetConfigInfo,
		mcp.WithDescription(`Returns the active configuration (API key masked) and tests connectivity by listing
the endpoint's models. Useful for troubleshooting before searching.`),
	)
}

func switchModelTool() mcp.Tool {
	return mcp.NewTool(ToolSwitchModel,
		mcp.WithDescription(`Switches the default model used by web_search and web_fetch and persists the choice.
Calls already in flight keep the model they started with. Use get_config_info to list available models.`),
		mcp.WithString("model",
			mcp.Required(),
			mcp.Description("Model id to switch to, e.g. \"grok-4-fast\"."),
		),
	)
}

func toggleBuiltinTool() mcp.Tool {
	return mcp.NewTool(ToolToggleBuiltin,
		mcp.WithDescription(`Blocks or allows the client's built-in WebSearch and WebFetch tools by editing
permissions.deny in the project's .claude/settings.json.`),
		mcp.WithString("action",
			mcp.DefaultString("status"),
			mcp.Enum("on", "off", "status"),
			mcp.Description("\"on\" blocks the built-in tools, \"off\" allows them, \"status\" only reports."),
		),
	)
}

// call tracks one tool invocation for logging and the history journal
type call struct {
	id     string
	tool   string
	input  string
	model  string
	start  time.Time
	log    *zap.Logger
	tools  *Tools
	result int
}

func (t *Tools) begin(ctx context.Context, tool, input string) (context.Context, *call) {
	traceID := uuid.New().String()
	ctx = logger.ContextWithTraceID(ctx, traceID)
	c := &call{
		id:    traceID,
		tool:  tool,
		input: input,
		start: t.now(),
		log:   logger.WithTraceID(traceID).With(zap.String("tool", tool)),
		tools: t,
	}

	c.log.Info("tool call received", zap.String("input", input))
	t.notify(ctx, "info", tool+" started")
	return ctx, c
}

// success records the call and returns text as the tool result
func (c *call) success(ctx context.Context, text string) *mcp.CallToolResult {
	c.log.Info("tool call completed",
		zap.String("model", c.model),
		zap.Int("result_count", c.result),
		zap.Int64("duration_ms", c.elapsed()),
	)
	c.record("completed", "")
	c.tools.notify(ctx, "info", c.tool+" completed")
	return mcp.NewToolResultText(text)
}

// fail records the call and maps err onto a prefixed error result
func (c *call) fail(ctx context.Context, err error) *mcp.CallToolResult {
	msg := errorText(err)
	c.log.Warn("tool call failed",
		zap.String("model", c.model),
		zap.String("kind", string(models.KindOf(err))),
		zap.Int64("duration_ms", c.elapsed()),
		zap.Error(err),
	)
	c.record("failed", msg)
	c.tools.notify(ctx, "error", msg)
	return mcp.NewToolResultError(msg)
}

func (c *call) elapsed() int64 {
	return c.tools.now().Sub(c.start).Milliseconds()
}

func (c *call) record(status, errMsg string) {
	if c.tools.history == nil {
		return
	}
	rec := &models.CallRecord{
		ID:          c.id,
		Tool:        c.tool,
		Input:       c.input,
		Model:       c.model,
		Status:      status,
		Error:       errMsg,
		ResultCount: c.result,
		DurationMS:  c.elapsed(),
		CreatedAt:   c.start,
	}
	if err := c.tools.history.Store(rec); err != nil {
		c.log.Warn("failed to journal call", zap.Error(err))
	}
}

// notify forwards a log line to the MCP client when the call has a session
func (t *Tools) notify(ctx context.Context, level, msg string) {
	srv := server.ServerFromContext(ctx)
	if srv == nil {
		return
	}
	err := srv.SendNotificationToClient(ctx, "notifications/message", map[string]any{
		"level":  level,
		"logger": "grok-search",
		"data":   msg,
	})
	if err != nil {
		logger.FromContext(ctx).Debug("client notification dropped", zap.Error(err))
	}
}
