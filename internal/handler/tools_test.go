package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/viper"

	"github.com/young1lin/grok-search/internal/config"
	"github.com/young1lin/grok-search/internal/models"
	"github.com/young1lin/grok-search/internal/search"
	"github.com/young1lin/grok-search/internal/storage"
)

// fakeEndpoint is an OpenAI-compatible upstream that records the model of each completion
type fakeEndpoint struct {
	mu      sync.Mutex
	models  []string
	status  int
	content string
	ids     []string

	// hold, when set, parks the next completion until it is closed
	hold    chan struct{}
	arrived chan string
}

func newFakeEndpoint(t *testing.T, content string) (*fakeEndpoint, *httptest.Server) {
	t.Helper()
	f := &fakeEndpoint{status: http.StatusOK, content: content, ids: []string{"grok-4-fast", "grok-4"}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeEndpoint) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/chat/completions":
		var body struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		f.models = append(f.models, body.Model)
		status, content, hold, arrived := f.status, f.content, f.hold, f.arrived
		f.hold = nil
		f.mu.Unlock()

		if hold != nil {
			arrived <- body.Model
			<-hold
		}

		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error": {"message": "bad gateway", "type": "server_error"}}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1760000000,
			"model":   body.Model,
			"choices": []map[string]interface{}{{
				"index":         0,
				"message":       map[string]interface{}{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	case r.Method == http.MethodGet && r.URL.Path == "/v1/models":
		data := make([]map[string]interface{}, 0, len(f.ids))
		for _, id := range f.ids {
			data = append(data, map[string]interface{}{"id": id, "object": "model", "created": 1, "owned_by": "xai"})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"object": "list", "data": data})
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"message": "not found", "type": "invalid_request_error"}}`)
	}
}

func (f *fakeEndpoint) setStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

func (f *fakeEndpoint) holdNext() (release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hold = make(chan struct{})
	f.arrived = make(chan string, 1)
	return f.hold
}

func (f *fakeEndpoint) arrivedCh() chan string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.arrived
}

func (f *fakeEndpoint) seenModels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.models...)
}

func newTestConfig(t *testing.T, apiURL string) *config.Config {
	t.Helper()
	t.Setenv("GROK_MODEL", "")
	t.Setenv("GROK_SEARCH_MCP_MODEL", "")

	v := viper.New()
	v.Set("api_url", apiURL)
	v.Set("api_key", "test-api-key-1234")
	v.Set("model", "old-model")
	v.Set("state_file", filepath.Join(t.TempDir(), "config.json"))
	v.Set("client_settings", filepath.Join(t.TempDir(), ".claude", "settings.json"))
	return config.New(v)
}

func newTestTools(t *testing.T, content string) (*Tools, *fakeEndpoint, *config.Config) {
	t.Helper()
	f, srv := newFakeEndpoint(t, content)
	cfg := newTestConfig(t, srv.URL+"/v1")
	return NewTools(cfg, nil, search.NewProvider), f, cfg
}

func newRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("Expected a tool result with content")
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("Unexpected content type %T", res.Content[0])
	return ""
}

func resultArray(n int) string {
	items := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, fmt.Sprintf(`{"title": "Result %d", "url": "https://example.com/%d", "description": "Description %d"}`, i, i, i))
	}
	return "[" + strings.Join(items, ",") + "]"
}

func TestWebSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("Bounded results in upstream order", func(t *testing.T) {
		tools, f, _ := newTestTools(t, resultArray(15))

		res, err := tools.webSearch(ctx, newRequest(ToolWebSearch, map[string]any{
			"query": "golang release notes", "min_results": float64(3), "max_results": float64(10),
		}))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if res.IsError {
			t.Fatalf("Unexpected error result: %s", resultText(t, res))
		}

		var results []models.SearchResult
		if err := json.Unmarshal([]byte(resultText(t, res)), &results); err != nil {
			t.Fatalf("Result is not a JSON array: %v", err)
		}
		if len(results) != 10 {
			t.Fatalf("Expected 10 results, got %d", len(results))
		}
		for i, r := range results {
			if r.Title != fmt.Sprintf("Result %d", i+1) {
				t.Errorf("Expected upstream order at %d, got %q", i, r.Title)
			}
			if r.Title == "" || r.URL == "" {
				t.Errorf("Result %d missing title or url: %+v", i, r)
			}
		}
		if got := f.seenModels(); len(got) != 1 || got[0] != "old-model" {
			t.Errorf("Expected one call with old-model, got %v", got)
		}
	})

	t.Run("Defaults apply when bounds are omitted", func(t *testing.T) {
		tools, _, _ := newTestTools(t, resultArray(12))

		res, _ := tools.webSearch(ctx, newRequest(ToolWebSearch, map[string]any{"query": "defaults"}))
		var results []models.SearchResult
		json.Unmarshal([]byte(resultText(t, res)), &results)
		if len(results) != defaultMaxResults {
			t.Errorf("Expected %d results, got %d", defaultMaxResults, len(results))
		}
	})

	t.Run("Fenced output", func(t *testing.T) {
		tools, _, _ := newTestTools(t, "Here you go:\n```json\n"+resultArray(4)+"\n```")

		res, _ := tools.webSearch(ctx, newRequest(ToolWebSearch, map[string]any{"query": "fenced"}))
		if res.IsError {
			t.Fatalf("Unexpected error result: %s", resultText(t, res))
		}
		var results []models.SearchResult
		json.Unmarshal([]byte(resultText(t, res)), &results)
		if len(results) != 4 {
			t.Errorf("Expected 4 results, got %d", len(results))
		}
	})

	t.Run("Markdown format", func(t *testing.T) {
		tools, _, _ := newTestTools(t, resultArray(2))

		res, _ := tools.webSearch(ctx, newRequest(ToolWebSearch, map[string]any{"query": "md", "format": "markdown"}))
		text := resultText(t, res)
		if !strings.Contains(text, "## Result 1: Result 1") || !strings.Contains(text, "**URL:** https://example.com/2") {
			t.Errorf("Unexpected markdown rendering:\n%s", text)
		}
	})

	t.Run("Garbage output", func(t *testing.T) {
		tools, _, _ := newTestTools(t, "I could not find anything useful, sorry.")

		res, err := tools.webSearch(ctx, newRequest(ToolWebSearch, map[string]any{"query": "garbage"}))
		if err != nil {
			t.Fatalf("Expected a tool result, got error %v", err)
		}
		if !res.IsError || !strings.HasPrefix(resultText(t, res), "Upstream format error: ") {
			t.Errorf("Expected upstream format error, got %q", resultText(t, res))
		}
	})

	t.Run("Upstream failure", func(t *testing.T) {
		tools, f, _ := newTestTools(t, resultArray(3))
		f.setStatus(http.StatusBadGateway)

		res, _ := tools.webSearch(ctx, newRequest(ToolWebSearch, map[string]any{"query": "down"}))
		text := resultText(t, res)
		if !res.IsError || !strings.HasPrefix(text, "Network error: ") || !strings.Contains(text, "502") {
			t.Errorf("Expected network error with status, got %q", text)
		}
	})

	t.Run("Invalid input", func(t *testing.T) {
		tools, f, _ := newTestTools(t, resultArray(3))

		cases := []map[string]any{
			{"query": "   "},
			{"query": "q", "format": "xml"},
			{"query": "q", "min_results": float64(5), "max_results": float64(2)},
		}
		for _, args := range cases {
			res, _ := tools.webSearch(ctx, newRequest(ToolWebSearch, args))
			if !res.IsError || !strings.HasPrefix(resultText(t, res), "Invalid input: ") {
				t.Errorf("Expected invalid input for %v, got %q", args, resultText(t, res))
			}
		}
		if n := len(f.seenModels()); n != 0 {
			t.Errorf("Expected no upstream calls, got %d", n)
		}
	})

	t.Run("Missing configuration", func(t *testing.T) {
		cfg := newTestConfig(t, "")
		tools := NewTools(cfg, nil, nil)

		res, _ := tools.webSearch(ctx, newRequest(ToolWebSearch, map[string]any{"query": "q"}))
		text := resultText(t, res)
		if !res.IsError || !strings.HasPrefix(text, "Configuration error: ") || !strings.Contains(text, "api_url") {
			t.Errorf("Expected configuration error naming api_url, got %q", text)
		}
	})
}

func TestWebFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns markdown verbatim", func(t *testing.T) {
		page := "---\nsource: https://example.com\ntitle: Example\n---\n# Example Domain\n"
		tools, _, _ := newTestTools(t, page)

		res, _ := tools.webFetch(ctx, newRequest(ToolWebFetch, map[string]any{"url": "https://example.com"}))
		if res.IsError || resultText(t, res) != page {
			t.Errorf("Expected page verbatim, got %q", resultText(t, res))
		}
	})

	t.Run("Rejects malformed url without a call", func(t *testing.T) {
		tools, f, _ := newTestTools(t, "unused")

		res, _ := tools.webFetch(ctx, newRequest(ToolWebFetch, map[string]any{"url": "not-a-url"}))
		if !res.IsError || !strings.HasPrefix(resultText(t, res), "Invalid input: ") {
			t.Errorf("Expected invalid input, got %q", resultText(t, res))
		}
		if n := len(f.seenModels()); n != 0 {
			t.Errorf("Expected no upstream calls, got %d", n)
		}
	})
}

func TestGetConfigInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("Reachable endpoint", func(t *testing.T) {
		tools, _, _ := newTestTools(t, "unused")

		res, _ := tools.getConfigInfo(ctx, newRequest(ToolGetConfigInfo, nil))
		if res.IsError {
			t.Fatalf("Unexpected error result: %s", resultText(t, res))
		}

		var info models.ConfigInfo
		if err := json.Unmarshal([]byte(resultText(t, res)), &info); err != nil {
			t.Fatalf("Result is not JSON: %v", err)
		}
		if info.APIKey != "test****1234" {
			t.Errorf("Expected masked key, got %q", info.APIKey)
		}
		if info.Model != "old-model" {
			t.Errorf("Expected old-model, got %q", info.Model)
		}
		if info.ConnectionTest.ResponseTimeMS < 0 {
			t.Errorf("Expected non-negative response time, got %v", info.ConnectionTest.ResponseTimeMS)
		}
		if len(info.ConnectionTest.AvailableModels) == 0 {
			t.Error("Expected available models")
		}
		if !strings.Contains(info.ConnectionTest.Status, "successful") {
			t.Errorf("Unexpected connection status %q", info.ConnectionTest.Status)
		}
		if info.History.Enabled {
			t.Error("Expected history disabled")
		}
	})

	t.Run("Missing configuration", func(t *testing.T) {
		tools := NewTools(newTestConfig(t, ""), nil, nil)

		res, _ := tools.getConfigInfo(ctx, newRequest(ToolGetConfigInfo, nil))
		var info models.ConfigInfo
		if err := json.Unmarshal([]byte(resultText(t, res)), &info); err != nil {
			t.Fatalf("Result is not JSON: %v", err)
		}
		if !strings.Contains(info.ConfigStatus, "api_url") {
			t.Errorf("Expected config status to name api_url, got %q", info.ConfigStatus)
		}
		if info.ConnectionTest.Status != "❌ Configuration error" {
			t.Errorf("Unexpected connection status %q", info.ConnectionTest.Status)
		}
	})

	t.Run("Endpoint error status", func(t *testing.T) {
		_, srv := newFakeEndpoint(t, "unused")
		tools := NewTools(newTestConfig(t, srv.URL+"/missing"), nil, nil)

		res, _ := tools.getConfigInfo(ctx, newRequest(ToolGetConfigInfo, nil))
		var info models.ConfigInfo
		json.Unmarshal([]byte(resultText(t, res)), &info)
		if !strings.Contains(info.ConnectionTest.Status, "abnormal") || !strings.Contains(info.ConnectionTest.Message, "404") {
			t.Errorf("Expected abnormal connection with 404, got %+v", info.ConnectionTest)
		}
	})
}

func TestSwitchModel(t *testing.T) {
	ctx := context.Background()

	t.Run("Next resolution sees the new model", func(t *testing.T) {
		tools, _, cfg := newTestTools(t, "unused")

		res, _ := tools.switchModel(ctx, newRequest(ToolSwitchModel, map[string]any{"model": "x"}))
		if res.IsError {
			t.Fatalf("Unexpected error result: %s", resultText(t, res))
		}

		var out models.SwitchModelResult
		if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
			t.Fatalf("Result is not JSON: %v", err)
		}
		if out.PreviousModel != "old-model" || out.CurrentModel != "x" {
			t.Errorf("Unexpected switch result %+v", out)
		}
		if out.ConfigFile != cfg.StateFile() {
			t.Errorf("Expected config file %q, got %q", cfg.StateFile(), out.ConfigFile)
		}
		if cfg.Model() != "x" {
			t.Errorf("Expected fresh resolution to return x, got %q", cfg.Model())
		}
	})

	t.Run("Blank model", func(t *testing.T) {
		tools, _, _ := newTestTools(t, "unused")

		res, _ := tools.switchModel(ctx, newRequest(ToolSwitchModel, map[string]any{"model": " "}))
		if !res.IsError || !strings.HasPrefix(resultText(t, res), "Invalid input: ") {
			t.Errorf("Expected invalid input, got %q", resultText(t, res))
		}
	})

	t.Run("Environment override is reported", func(t *testing.T) {
		tools, _, _ := newTestTools(t, "unused")
		t.Setenv("GROK_MODEL", "pinned")

		res, _ := tools.switchModel(ctx, newRequest(ToolSwitchModel, map[string]any{"model": "x"}))
		var out models.SwitchModelResult
		json.Unmarshal([]byte(resultText(t, res)), &out)
		if out.CurrentModel != "pinned" || !strings.Contains(out.Status, "overridden") {
			t.Errorf("Expected env override warning, got %+v", out)
		}
	})

	t.Run("In-flight call keeps its model", func(t *testing.T) {
		tools, f, _ := newTestTools(t, resultArray(3))
		hold := f.holdNext()

		done := make(chan *mcp.CallToolResult, 1)
		go func() {
			res, _ := tools.webSearch(ctx, newRequest(ToolWebSearch, map[string]any{"query": "in flight"}))
			done <- res
		}()

		select {
		case <-f.arrivedCh():
		case <-time.After(5 * time.Second):
			close(hold)
			t.Fatal("Timed out waiting for the in-flight request")
		}

		res, _ := tools.switchModel(ctx, newRequest(ToolSwitchModel, map[string]any{"model": "x"}))
		if res.IsError {
			t.Fatalf("switch_model failed: %s", resultText(t, res))
		}
		close(hold)

		if first := <-done; first.IsError {
			t.Fatalf("In-flight search failed: %s", resultText(t, first))
		}
		tools.webSearch(ctx, newRequest(ToolWebSearch, map[string]any{"query": "after switch"}))

		got := f.seenModels()
		if len(got) != 2 || got[0] != "old-model" || got[1] != "x" {
			t.Errorf("Expected [old-model x], got %v", got)
		}
	})
}

func TestToggleBuiltinTools(t *testing.T) {
	ctx := context.Background()
	tools, _, cfg := newTestTools(t, "unused")

	toggle := func(action string) models.BuiltinToolsResult {
		t.Helper()
		args := map[string]any{}
		if action != "" {
			args["action"] = action
		}
		res, _ := tools.toggleBuiltinTools(ctx, newRequest(ToolToggleBuiltin, args))
		if res.IsError {
			t.Fatalf("toggle %q failed: %s", action, resultText(t, res))
		}
		var out models.BuiltinToolsResult
		if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
			t.Fatalf("Result is not JSON: %v", err)
		}
		return out
	}

	if out := toggle(""); out.Blocked || out.File != cfg.ClientSettings().Path() {
		t.Errorf("Expected unblocked status for %q, got %+v", cfg.ClientSettings().Path(), out)
	}
	if out := toggle("on"); !out.Blocked || len(out.DenyList) != 2 {
		t.Errorf("Expected both tools denied, got %+v", out)
	}
	if out := toggle("status"); !out.Blocked || !strings.Contains(out.Message, "disabled") {
		t.Errorf("Expected blocked status, got %+v", out)
	}
	if out := toggle("off"); out.Blocked || len(out.DenyList) != 0 {
		t.Errorf("Expected deny list cleared, got %+v", out)
	}

	res, _ := tools.toggleBuiltinTools(ctx, newRequest(ToolToggleBuiltin, map[string]any{"action": "maybe"}))
	if !res.IsError || !strings.HasPrefix(resultText(t, res), "Invalid input: ") {
		t.Errorf("Expected invalid input, got %q", resultText(t, res))
	}
}

func TestHistoryJournal(t *testing.T) {
	_, srv := newFakeEndpoint(t, resultArray(15))
	store, err := storage.NewCallStore(filepath.Join(t.TempDir(), "history.db"), 10)
	if err != nil {
		t.Fatalf("Failed to open history: %v", err)
	}
	defer store.Close()

	tools := NewTools(newTestConfig(t, srv.URL+"/v1"), store, nil)
	ctx := context.Background()

	tools.webSearch(ctx, newRequest(ToolWebSearch, map[string]any{"query": "journal me"}))
	tools.webFetch(ctx, newRequest(ToolWebFetch, map[string]any{"url": "ftp://example.com"}))

	recent, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 journaled calls, got %d", len(recent))
	}

	byTool := map[string]models.CallRecord{}
	for _, rec := range recent {
		byTool[rec.Tool] = rec
	}
	if rec := byTool[ToolWebSearch]; rec.Status != "completed" || rec.ResultCount != 10 || rec.Model != "old-model" || rec.ID == "" {
		t.Errorf("Unexpected search record %+v", rec)
	}
	if rec := byTool[ToolWebFetch]; rec.Status != "failed" || !strings.HasPrefix(rec.Error, "Invalid input: ") {
		t.Errorf("Unexpected fetch record %+v", rec)
	}

	res, _ := tools.getConfigInfo(ctx, newRequest(ToolGetConfigInfo, nil))
	var info models.ConfigInfo
	json.Unmarshal([]byte(resultText(t, res)), &info)
	if !info.History.Enabled || info.History.RecentCalls != 2 {
		t.Errorf("Expected history with 2 calls, got %+v", info.History)
	}
	if len(info.History.Recent) != 2 || info.History.Recent[0].Tool != ToolWebFetch || info.History.Recent[1].Tool != ToolWebSearch {
		t.Errorf("Expected recent calls newest first, got %+v", info.History.Recent)
	}
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		err    error
		prefix string
	}{
		{models.MissingConfig("api_key"), "Configuration error: api_key not configured"},
		{models.Transport(503, "unavailable", nil), "Network error: HTTP 503: unavailable"},
		{models.UpstreamFormat("not json", nil), "Upstream format error: not json"},
		{models.InvalidInput("bad url"), "Invalid input: bad url"},
		{fmt.Errorf("boom"), "Error: boom"},
	}
	for _, tt := range tests {
		if got := errorText(tt.err); got != tt.prefix {
			t.Errorf("errorText(%v) = %q, want %q", tt.err, got, tt.prefix)
		}
	}
}

func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"":                  "",
		"short":             "****",
		"xai-abcdefgh12345": "xai-****2345",
	}
	for in, want := range tests {
		if got := maskKey(in); got != want {
			t.Errorf("maskKey(%q) = %q, want %q", in, got, want)
		}
	}
}
