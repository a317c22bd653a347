package handler

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/young1lin/grok-search/internal/models"
)

// toggleBuiltinTools handles toggle_builtin_tools
func (t *Tools) toggleBuiltinTools(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := strings.ToLower(strings.TrimSpace(req.GetString("action", "status")))
	ctx, c := t.begin(ctx, ToolToggleBuiltin, action)

	settings := t.config.ClientSettings()
	result := models.BuiltinToolsResult{File: settings.Path()}

	switch action {
	case "on", "enable":
		deny, err := settings.SetBuiltinToolsBlocked(true)
		if err != nil {
			return c.fail(ctx, err), nil
		}
		result.Blocked, result.DenyList = true, deny
		result.Message = "Built-in tools disabled"
	case "off", "disable":
		deny, err := settings.SetBuiltinToolsBlocked(false)
		if err != nil {
			return c.fail(ctx, err), nil
		}
		result.Blocked, result.DenyList = false, deny
		result.Message = "Built-in tools enabled"
	case "", "status":
		deny, blocked, err := settings.BuiltinToolsStatus()
		if err != nil {
			return c.fail(ctx, err), nil
		}
		result.Blocked, result.DenyList = blocked, deny
		result.Message = "Built-in tools currently enabled"
		if blocked {
			result.Message = "Built-in tools currently disabled"
		}
	default:
		return c.fail(ctx, models.InvalidInput("action must be \"on\", \"off\" or \"status\", got %q", action)), nil
	}

	return t.jsonResult(ctx, c, result), nil
}
