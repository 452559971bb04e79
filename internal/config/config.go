// Package config provides configuration loading and validation for the CLI and API server.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// resume_tools.yaml file, RESUME_TOOLS_* environment variables, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jonathan/resume-tools/internal/llm"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. RESUME_TOOLS_LLM_MODEL.
const EnvPrefix = "RESUME_TOOLS"

// FileName is the config file name searched for when no explicit path is given.
const FileName = "resume_tools"

// Config is the resolved configuration.
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Verbose  bool           `mapstructure:"verbose"`
}

// LLMConfig selects and tunes the model provider.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig enables run history when URL is set.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// FetchConfig controls how job posting URLs are retrieved.
type FetchConfig struct {
	UseBrowser bool          `mapstructure:"use_browser"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// StorageConfig configures s3:// access.
type StorageConfig struct {
	Region string `mapstructure:"region"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	RateLimit      float64  `mapstructure:"rate_limit"`
	RateBurst      int      `mapstructure:"rate_burst"`
	MaxConcurrent  int64    `mapstructure:"max_concurrent"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// New returns a viper instance with defaults, env binding and the config file search path set.
// Callers may bind command-line flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("llm.provider", string(llm.ProviderOpenAI))
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.temperature", llm.DefaultTemperature)
	v.SetDefault("llm.timeout", llm.DefaultTimeout)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database.url", "")
	v.SetDefault("fetch.use_browser", false)
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("storage.region", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 1.0)
	v.SetDefault("server.rate_burst", 5)
	v.SetDefault("server.max_concurrent", 4)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("verbose", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	return v
}

// Load reads the config file (path, or the default search path when empty)
// and returns the merged configuration.
// A missing default file is not an error; a missing explicit file is.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills values that depend on other values.
func (c *Config) applyDefaults() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Model == "" {
		c.LLM.Model = llm.DefaultModel(llm.Provider(c.LLM.Provider))
	}
	if c.LLM.APIKey == "" {
		if env := llm.CredentialEnv(llm.Provider(c.LLM.Provider)); env != "" {
			c.LLM.APIKey = os.Getenv(env)
		}
	}
}

// LLMClientConfig converts the LLM section into an llm.Config.
// A blank model falls back to the provider default.
func (c *Config) LLMClientConfig() *llm.Config {
	cfg := llm.DefaultConfigFor(llm.Provider(c.LLM.Provider)).WithModel(c.LLM.Model)
	cfg.Temperature = float32(c.LLM.Temperature)
	cfg.Timeout = c.LLM.Timeout
	cfg.BaseURL = c.LLM.BaseURL
	return cfg
}

// HistoryEnabled reports whether runs should be recorded.
func (c *Config) HistoryEnabled() bool {
	return c.Database.URL != ""
}
