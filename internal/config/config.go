package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/young1lin/grok-search/internal/models"
)

// DefaultModel is used when neither env, state file nor settings file names a model
const DefaultModel = "grok-4-fast"

// modelEnvKeys override every other model source, first non-empty wins
var modelEnvKeys = []string{"GROK_MODEL", "GROK_SEARCH_MCP_MODEL"}

// Config resolves settings on every access so that env changes and model
// switches are picked up by the next call. It is built once at startup and
// passed to the components that need it.
type Config struct {
	v      *viper.Viper
	state  *StateStore
	client *ClientSettings
}

// Load reads .env files and the settings file. A missing settings file is not
// an error; an unreadable or malformed one is.
func Load(cfgFile string) (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	godotenv.Load()
	godotenv.Load(".env.local")

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("GROK")
	v.AutomaticEnv()
	v.BindEnv("logging.level", "GROK_LOG_LEVEL", "GROK_LOGGING_LEVEL")
	v.BindEnv("logging.dir", "GROK_LOG_DIR", "GROK_LOGGING_DIR")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return New(v), nil
}

// New wraps an already populated viper instance
func New(v *viper.Viper) *Config {
	statePath := strings.TrimSpace(v.GetString("state_file"))
	if statePath == "" {
		if dir, err := userConfigDir(); err == nil {
			statePath = filepath.Join(dir, "config.json")
		} else {
			statePath = filepath.Join(".grok-search", "config.json")
		}
	}
	return &Config{
		v:      v,
		state:  NewStateStore(statePath),
		client: NewClientSettings(clientSettingsPath(v)),
	}
}

// clientSettingsPath is client_settings when set, else .claude/settings.json
// under the project root containing the working directory
func clientSettingsPath(v *viper.Viper) string {
	if path := strings.TrimSpace(v.GetString("client_settings")); path != "" {
		return path
	}
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return filepath.Join(FindProjectRoot(wd), ".claude", "settings.json")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("model", DefaultModel)
	v.SetDefault("debug", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dir", "logs")
	v.SetDefault("logging.format", "text")

	// Timeouts in seconds
	v.SetDefault("request_timeout", 60)
	v.SetDefault("diagnostic_timeout", 10)

	// History defaults
	v.SetDefault("history.path", "")
	v.SetDefault("history.max_entries", 200)

	v.SetDefault("state_file", "")
	v.SetDefault("client_settings", "")
}

// APIURL returns the chat-completion endpoint prefix, e.g. https://api.x.ai/v1
func (c *Config) APIURL() (string, error) {
	return c.required("api_url")
}

// APIKey returns the bearer token for the endpoint
func (c *Config) APIKey() (string, error) {
	return c.required("api_key")
}

// Model returns the active model: env, then the persisted choice, then the settings file
func (c *Config) Model() string {
	if m := envModel(); m != "" {
		return m
	}
	if m, err := c.state.Model(); err == nil && m != "" {
		return m
	}
	if m := strings.TrimSpace(c.v.GetString("model")); m != "" {
		return m
	}
	return DefaultModel
}

// ModelOverriddenByEnv reports whether an env variable pins the model
func (c *Config) ModelOverriddenByEnv() bool {
	return envModel() != ""
}

// SetModel persists id as the default model for subsequent calls
func (c *Config) SetModel(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.InvalidInput("model must not be empty")
	}
	return c.state.SetModel(id)
}

// Provider resolves the connection triple for one call
func (c *Config) Provider() (models.ProviderConfig, error) {
	apiURL, err := c.APIURL()
	if err != nil {
		return models.ProviderConfig{}, err
	}
	apiKey, err := c.APIKey()
	if err != nil {
		return models.ProviderConfig{}, err
	}
	return models.ProviderConfig{
		APIURL: apiURL,
		APIKey: apiKey,
		Model:  c.Model(),
	}, nil
}

func (c *Config) DebugEnabled() bool {
	return c.v.GetBool("debug")
}

// LogLevel is forced to debug when debug is enabled
func (c *Config) LogLevel() string {
	if c.DebugEnabled() {
		return "debug"
	}
	return strings.ToLower(strings.TrimSpace(c.v.GetString("logging.level")))
}

func (c *Config) LogDir() string {
	return c.v.GetString("logging.dir")
}

func (c *Config) LogFormat() string {
	return c.v.GetString("logging.format")
}

func (c *Config) RequestTimeout() time.Duration {
	return seconds(c.v.GetInt("request_timeout"), 60)
}

func (c *Config) DiagnosticTimeout() time.Duration {
	return seconds(c.v.GetInt("diagnostic_timeout"), 10)
}

// HistoryPath is empty when the call journal is disabled
func (c *Config) HistoryPath() string {
	return strings.TrimSpace(c.v.GetString("history.path"))
}

func (c *Config) HistoryMaxEntries() int {
	return c.v.GetInt("history.max_entries")
}

// StateFile is where switch_model persists its choice
func (c *Config) StateFile() string {
	return c.state.Path()
}

// ClientSettings edits the MCP client's project settings for toggle_builtin_tools
func (c *Config) ClientSettings() *ClientSettings {
	return c.client
}

// ConfigFile is the settings file in use, empty when running on defaults
func (c *Config) ConfigFile() string {
	return c.v.ConfigFileUsed()
}

func (c *Config) required(key string) (string, error) {
	val := strings.TrimSpace(c.v.GetString(key))
	if val == "" {
		return "", models.MissingConfig(key)
	}
	return val, nil
}

func envModel() string {
	for _, key := range modelEnvKeys {
		if m := strings.TrimSpace(os.Getenv(key)); m != "" {
			return m
		}
	}
	return ""
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

func userConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "grok-search"), nil
}
