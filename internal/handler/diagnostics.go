package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/young1lin/grok-search/internal/models"
	"github.com/young1lin/grok-search/internal/search"
)

// recentHistoryEntries is how many journaled calls get_config_info lists
const recentHistoryEntries = 5

// getConfigInfo handles get_config_info
func (t *Tools) getConfigInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, c := t.begin(ctx, ToolGetConfigInfo, "")

	apiURL, urlErr := t.config.APIURL()
	apiKey, keyErr := t.config.APIKey()
	c.model = t.config.Model()

	info := models.ConfigInfo{
		APIURL:       apiURL,
		APIKey:       maskKey(apiKey),
		Model:        c.model,
		DebugEnabled: t.config.DebugEnabled(),
		LogLevel:     t.config.LogLevel(),
		LogDir:       t.config.LogDir(),
		ConfigFile:   t.config.ConfigFile(),
		StateFile:    t.config.StateFile(),
		History:      t.historyInfo(c),
	}

	if err := errors.Join(urlErr, keyErr); err != nil {
		info.ConfigStatus = "❌ Configuration error: " + err.Error()
		info.ConnectionTest = models.ConnectionTest{
			Status:  "❌ Configuration error",
			Message: err.Error(),
		}
	} else {
		info.ConfigStatus = "✅ Configuration complete"
		info.ConnectionTest = t.testConnection(ctx, c, models.ProviderConfig{
			APIURL: apiURL,
			APIKey: apiKey,
			Model:  c.model,
		})
	}

	return t.jsonResult(ctx, c, info), nil
}

// testConnection calls GET {api_url}/models under the diagnostic timeout
func (t *Tools) testConnection(ctx context.Context, c *call, cfg models.ProviderConfig) models.ConnectionTest {
	provider := t.newProvider(cfg, search.Options{
		Timeout: t.config.DiagnosticTimeout(),
		Logger:  c.log,
	})

	start := t.now()
	ids, err := provider.ListModels(ctx)
	elapsed := roundMS(float64(t.now().Sub(start).Microseconds()) / 1000)

	if err == nil {
		c.result = len(ids)
		return models.ConnectionTest{
			Status:          "✅ Connection successful",
			Message:         fmt.Sprintf("Successfully retrieved model list, total %d models", len(ids)),
			ResponseTimeMS:  elapsed,
			AvailableModels: ids,
		}
	}

	c.log.Warn("connection test failed", zap.Error(err))

	var e *models.Error
	switch {
	case errors.As(err, &e) && e.Kind == models.KindTransport && e.StatusCode != 0:
		return models.ConnectionTest{
			Status:         "⚠️ Connection abnormal",
			Message:        err.Error(),
			ResponseTimeMS: elapsed,
		}
	case errors.Is(err, context.DeadlineExceeded):
		return models.ConnectionTest{
			Status:  "❌ Connection timeout",
			Message: fmt.Sprintf("Request timeout (%s), please check network connection or API URL", t.config.DiagnosticTimeout()),
		}
	case models.KindOf(err) == models.KindTransport:
		return models.ConnectionTest{
			Status:  "❌ Connection failed",
			Message: errorText(err),
		}
	case models.KindOf(err) == models.KindMissingConfig:
		return models.ConnectionTest{
			Status:  "❌ Configuration error",
			Message: err.Error(),
		}
	default:
		return models.ConnectionTest{
			Status:  "❌ Test failed",
			Message: errorText(err),
		}
	}
}

func (t *Tools) historyInfo(c *call) models.HistoryInfo {
	if t.history == nil {
		return models.HistoryInfo{}
	}
	info := models.HistoryInfo{
		Enabled:     true,
		Path:        t.history.Path(),
		RecentCalls: t.history.Count(),
	}
	recent, err := t.history.Recent(recentHistoryEntries)
	if err != nil {
		c.log.Warn("failed to read call history", zap.Error(err))
		return info
	}
	info.Recent = recent
	return info
}

// switchModel handles switch_model
func (t *Tools) switchModel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	model := strings.TrimSpace(req.GetString("model", ""))
	ctx, c := t.begin(ctx, ToolSwitchModel, model)

	previous := t.config.Model()
	if err := t.config.SetModel(model); err != nil {
		return c.fail(ctx, err), nil
	}
	current := t.config.Model()
	c.model = current

	result := models.SwitchModelResult{
		Status:        "✅ Success",
		PreviousModel: previous,
		CurrentModel:  current,
		Message:       fmt.Sprintf("Model switched from %s to %s", previous, current),
		ConfigFile:    t.config.StateFile(),
	}
	if t.config.ModelOverriddenByEnv() {
		result.Status = "⚠️ Saved, overridden by environment"
		result.Message = fmt.Sprintf("Model %s saved, but an environment variable pins %s until it is unset", model, current)
	}

	return t.jsonResult(ctx, c, result), nil
}

func (t *Tools) jsonResult(ctx context.Context, c *call, v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return c.fail(ctx, fmt.Errorf("failed to encode result: %w", err))
	}
	return c.success(ctx, string(data))
}

// maskKey keeps the first and last 4 characters
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

func roundMS(ms float64) float64 {
	return math.Round(ms*100) / 100
}
