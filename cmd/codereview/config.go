package main

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/codereview/fs"
	"github.com/fwojciec/codereview/gemini"
	"github.com/fwojciec/codereview/lipgloss"
	"github.com/fwojciec/codereview/openai"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// envPrefix prefixes every configuration environment variable.
const envPrefix = "CODEREVIEW"

// Reviewer providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config is the complete application configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Session  SessionConfig  `mapstructure:"session"`
	Database DatabaseConfig `mapstructure:"database"`
	Reviewer ReviewerConfig `mapstructure:"reviewer"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Theme    string         `mapstructure:"theme"`
}

// APIConfig locates the analysis backend.
type APIConfig struct {
	URL            string        `mapstructure:"url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	HistoryTimeout time.Duration `mapstructure:"history_timeout"`
}

// SessionConfig locates the stored session.
type SessionConfig struct {
	File string `mapstructure:"file"`
}

// DatabaseConfig configures direct database access.
type DatabaseConfig struct {
	URL           string        `mapstructure:"url"`
	DeleteTimeout time.Duration `mapstructure:"delete_timeout"`
}

// ReviewerConfig selects the LLM behind the backend.
type ReviewerConfig struct {
	Provider string `mapstructure:"provider"`
}

// GeminiConfig configures the Gemini reviewer.
type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OpenAIConfig configures the OpenAI-compatible reviewer.
type OpenAIConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	Azure    bool          `mapstructure:"azure"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// CacheConfig configures the on-disk review cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// ServerConfig configures the backend HTTP server.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateBurst      int           `mapstructure:"rate_burst"`
	ShutdownGrace  time.Duration `mapstructure:"shutdown_grace"`
}

// LogConfig configures logging. File output is always JSON and rotated.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// setDefaults registers every key so that environment variables are picked
// up by Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", "http://localhost:8000")
	v.SetDefault("api.timeout", 60*time.Second)
	v.SetDefault("api.history_timeout", 15*time.Second)

	v.SetDefault("session.file", fs.DefaultSessionPath())

	v.SetDefault("database.url", "")
	v.SetDefault("database.delete_timeout", 10*time.Second)

	v.SetDefault("reviewer.provider", ProviderGemini)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", gemini.DefaultModel)
	v.SetDefault("gemini.timeout", gemini.DefaultReviewTimeout)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.endpoint", "https://api.groq.com/openai/v1")
	v.SetDefault("openai.model", openai.DefaultModel)
	v.SetDefault("openai.azure", false)
	v.SetDefault("openai.timeout", openai.DefaultReviewTimeout)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", fs.DefaultCacheDir())

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.rate_limit", 1.0)
	v.SetDefault("server.rate_burst", 5)
	v.SetDefault("server.shutdown_grace", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", filepath.Join(fs.DefaultCacheDir(), "codereview.log"))
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)

	v.SetDefault("theme", "dark")
}

// LoadConfig reads configuration from defaults, an optional config file and
// the environment. An explicit file must exist; the implicit ./config.yaml
// is optional.
func LoadConfig(v *viper.Viper, file string) (Config, error) {
	setDefaults(v)

	if file != "" {
		path, err := homedir.Expand(file)
		if err != nil {
			return Config{}, fmt.Errorf("config: expand %q: %w", file, err)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range map[string]string{
		"gemini.api_key": "GEMINI_API_KEY",
		"openai.api_key": "OPENAI_API_KEY",
		"database.url":   "DATABASE_URL",
	} {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return Config{}, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Session.File, &c.Cache.Dir, &c.Log.File} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("config: expand %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// ValidateClient checks the settings used by the terminal front end.
func (c Config) ValidateClient() error {
	u, err := url.Parse(c.API.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: api.url must be an http(s) URL, got %q", c.API.URL)
	}
	if c.API.Timeout <= 0 || c.API.HistoryTimeout <= 0 {
		return errors.New("config: api timeouts must be positive")
	}
	if c.Session.File == "" {
		return errors.New("config: session.file is required")
	}
	if _, err := lipgloss.ThemeByName(c.Theme); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ValidateServer checks the settings used by the backend.
func (c Config) ValidateServer() error {
	switch c.Reviewer.Provider {
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return errors.New("config: gemini.api_key (or GEMINI_API_KEY) is required")
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return errors.New("config: openai.api_key (or OPENAI_API_KEY) is required")
		}
		if c.OpenAI.Endpoint == "" {
			return errors.New("config: openai.endpoint is required")
		}
	default:
		return fmt.Errorf("config: unknown reviewer.provider %q (want gemini or openai)", c.Reviewer.Provider)
	}
	if c.Server.Addr == "" {
		return errors.New("config: server.addr is required")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return errors.New("config: server.rate_burst must be at least 1")
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		return errors.New("config: cache.dir is required when the cache is enabled")
	}
	return nil
}

// ValidateDatabase checks that direct database access is configured.
func (c Config) ValidateDatabase() error {
	if c.Database.URL == "" {
		return errors.New("config: database.url (or DATABASE_URL) is required")
	}
	if c.Database.DeleteTimeout <= 0 {
		return errors.New("config: database.delete_timeout must be positive")
	}
	return nil
}
