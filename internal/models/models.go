package models

import "time"

// ==================== Provider Models ====================

// ProviderConfig is the connection triple used for a single upstream call.
// It is resolved per tool invocation and never cached by the provider.
type ProviderConfig struct {
	APIURL string `json:"api_url"`
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// SearchRequest represents the arguments of a web_search call
type SearchRequest struct {
	Query      string `json:"query"`
	Platform   string `json:"platform,omitempty"`
	MinResults int    `json:"min_results"`
	MaxResults int    `json:"max_results"`
}

// FetchRequest represents the arguments of a web_fetch call
type FetchRequest struct {
	URL string `json:"url"`
}

// ==================== Result Models ====================

// SearchResult represents a single normalized search result.
// Title and URL are always non-empty; Snippet is never null.
type SearchResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Snippet       string `json:"description"`
	Source        string `json:"source,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
}

// ==================== Diagnostics Models ====================

// ConnectionTest is the outcome of the /models connectivity check
type ConnectionTest struct {
	Status          string   `json:"status"`
	Message         string   `json:"message"`
	ResponseTimeMS  float64  `json:"response_time_ms"`
	AvailableModels []string `json:"available_models,omitempty"`
}

// HistoryInfo summarizes the call journal
type HistoryInfo struct {
	Enabled     bool         `json:"enabled"`
	Path        string       `json:"path,omitempty"`
	RecentCalls int          `json:"recent_calls"`
	Recent      []CallRecord `json:"recent,omitempty"` // newest first
}

// ConfigInfo is the get_config_info payload
type ConfigInfo struct {
	APIURL         string         `json:"api_url"`
	APIKey         string         `json:"api_key"`
	Model          string         `json:"model"`
	DebugEnabled   bool           `json:"debug_enabled"`
	LogLevel       string         `json:"log_level"`
	LogDir         string         `json:"log_dir"`
	ConfigFile     string         `json:"config_file,omitempty"`
	StateFile      string         `json:"state_file"`
	ConfigStatus   string         `json:"config_status"`
	History        HistoryInfo    `json:"history"`
	ConnectionTest ConnectionTest `json:"connection_test"`
}

// SwitchModelResult is the switch_model payload
type SwitchModelResult struct {
	Status        string `json:"status"`
	PreviousModel string `json:"previous_model,omitempty"`
	CurrentModel  string `json:"current_model,omitempty"`
	Message       string `json:"message"`
	ConfigFile    string `json:"config_file,omitempty"`
}

// BuiltinToolsResult is the toggle_builtin_tools payload
type BuiltinToolsResult struct {
	Blocked  bool     `json:"blocked"`
	DenyList []string `json:"deny_list"`
	File     string   `json:"file"`
	Message  string   `json:"message"`
}

// ==================== History Models ====================

// CallRecord is one journaled tool invocation
type CallRecord struct {
	ID          string    `json:"id"`
	Tool        string    `json:"tool"`
	Input       string    `json:"input"`
	Model       string    `json:"model,omitempty"`
	Status      string    `json:"status"` // "completed", "failed"
	Error       string    `json:"error,omitempty"`
	ResultCount int       `json:"result_count,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
