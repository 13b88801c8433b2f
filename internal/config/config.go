// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPPort    int    `envconfig:"HTTP_PORT" default:"8080"`

	// GitHub data source
	GitHubToken      string `envconfig:"GITHUB_TOKEN" required:"true"`
	GitHubGraphQLURL string `envconfig:"GITHUB_GRAPHQL_URL" default:"https://api.github.com/graphql"`

	// Summarization service (OpenAI-compatible chat completions)
	LLMAPIKey  string `envconfig:"LLM_API_KEY" required:"true"`
	LLMBaseURL string `envconfig:"LLM_BASE_URL" default:"https://api.openai.com/v1"`
	LLMModel   string `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`

	// Prompt cache
	CacheDBPath  string        `envconfig:"CACHE_DB_PATH" default:"hirescope.db"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"1h"`
	CacheHotSize int           `envconfig:"CACHE_HOT_SIZE" default:"256"`

	// Prompt size budgets (bytes, prefix truncation)
	ReadmeBudget int `envconfig:"README_BUDGET" default:"500"`
	ConfigBudget int `envconfig:"CONFIG_BUDGET" default:"2000"`

	// Optional YAML file overriding the manifest detection priority list
	ManifestsFile string `envconfig:"MANIFESTS_FILE"`

	// HTTP API
	AuthMode       string `envconfig:"AUTH_MODE" default:"none"` // "none", "api-key", "jwt"
	APIKey         string `envconfig:"API_KEY"`
	JWTSecret      string `envconfig:"JWT_SECRET"`
	RateLimitRPS   int    `envconfig:"RATE_LIMIT_RPS" default:"50"`
	RateLimitBurst int    `envconfig:"RATE_LIMIT_BURST" default:"100"`
	CORSOrigins    string `envconfig:"CORS_ORIGINS"`

	// Slack notifications (optional — disabled when token is empty)
	SlackBotToken string `envconfig:"SLACK_BOT_TOKEN"`
	SlackChannel  string `envconfig:"SLACK_CHANNEL"`
}

// SlackEnabled returns true if Slack notifications are configured.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannel != ""
}

// Validate checks cross-field constraints that envconfig tags cannot express.
func (c *Config) Validate() error {
	switch strings.ToLower(c.AuthMode) {
	case "none":
	case "api-key":
		if c.APIKey == "" {
			return fmt.Errorf("AUTH_MODE=api-key requires API_KEY")
		}
	case "jwt":
		if c.JWTSecret == "" {
			return fmt.Errorf("AUTH_MODE=jwt requires JWT_SECRET")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	if c.ReadmeBudget <= 0 || c.ConfigBudget <= 0 {
		return fmt.Errorf("truncation budgets must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}
