package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds gateway configuration. Values come from defaults, then an
// optional YAML file, then environment variables.
type Config struct {
	ListenAddr   string `yaml:"listen_addr"`
	AgentBaseURL string `yaml:"agent_base_url"`
	DatabaseURL  string `yaml:"database_url"`
	Environment  string `yaml:"environment"`

	// JWT auth. Must match the secret the backend signs access tokens with.
	JWTSecret string `yaml:"jwt_secret"`

	// URLs
	BaseURL     string `yaml:"base_url"`     // Gateway URL (e.g., http://localhost:8080)
	FrontendURL string `yaml:"frontend_url"` // Frontend URL, allowed for CORS

	// Tracing. Empty disables OTLP export.
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Chat send rate limit per user
	ChatRateRPS   float64 `yaml:"chat_rate_rps"`
	ChatRateBurst int     `yaml:"chat_rate_burst"`

	// Tab lifetime
	TabIdleTTL      string `yaml:"tab_idle_ttl"`
	TabStateTTL     string `yaml:"tab_state_ttl"`
	JanitorInterval string `yaml:"janitor_interval"`

	Log LogConfig `yaml:"log"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:      ":8080",
		AgentBaseURL:    "http://localhost:8000/api",
		DatabaseURL:     "sqlite://usecasehub.db",
		Environment:     "development",
		JWTSecret:       "dev-jwt-secret-change-in-production",
		BaseURL:         "http://localhost:8080",
		FrontendURL:     "http://localhost:5173",
		ChatRateRPS:     1,
		ChatRateBurst:   3,
		TabIdleTTL:      "30m",
		TabStateTTL:     "24h",
		JanitorInterval: "10m",
		Log: LogConfig{
			Level:      "info",
			Console:    true,
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
	}
}

// Load builds the configuration. A non-empty path must name a readable
// YAML file.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	c.ListenAddr = envOrDefault("LISTEN_ADDR", c.ListenAddr)
	c.AgentBaseURL = envOrDefault("AGENT_BASE_URL", c.AgentBaseURL)
	c.DatabaseURL = envOrDefault("DATABASE_URL", c.DatabaseURL)
	c.Environment = envOrDefault("ENVIRONMENT", c.Environment)
	c.JWTSecret = envOrDefault("JWT_SECRET", c.JWTSecret)
	c.BaseURL = envOrDefault("BASE_URL", c.BaseURL)
	c.FrontendURL = envOrDefault("FRONTEND_URL", c.FrontendURL)
	c.OTLPEndpoint = envOrDefault("OTLP_ENDPOINT", c.OTLPEndpoint)
	c.TabIdleTTL = envOrDefault("TAB_IDLE_TTL", c.TabIdleTTL)
	c.TabStateTTL = envOrDefault("TAB_STATE_TTL", c.TabStateTTL)
	c.JanitorInterval = envOrDefault("JANITOR_INTERVAL", c.JanitorInterval)
	c.Log.Level = envOrDefault("LOG_LEVEL", c.Log.Level)
	c.Log.File = envOrDefault("LOG_FILE", c.Log.File)

	if v := os.Getenv("CHAT_RATE_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse CHAT_RATE_RPS: %w", err)
		}
		c.ChatRateRPS = f
	}
	if v := os.Getenv("CHAT_RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse CHAT_RATE_BURST: %w", err)
		}
		c.ChatRateBurst = n
	}

	for name, v := range map[string]string{
		"tab_idle_ttl":     c.TabIdleTTL,
		"tab_state_ttl":    c.TabStateTTL,
		"janitor_interval": c.JanitorInterval,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	}

	return c, nil
}

// IdleTTL is how long an unused tab coordinator stays in memory.
func (c *Config) IdleTTL() time.Duration { return mustDuration(c.TabIdleTTL) }

// StateTTL is how long persisted tab state survives without writes.
func (c *Config) StateTTL() time.Duration { return mustDuration(c.TabStateTTL) }

// JanitorEvery is the interval between expired state purges.
func (c *Config) JanitorEvery() time.Duration { return mustDuration(c.JanitorInterval) }

// IsProduction reports whether the gateway runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// mustDuration parses a duration already checked by Load.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
