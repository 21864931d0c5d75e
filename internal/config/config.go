// Package config loads application configuration from a TOML file with
// environment-variable overrides, bridging to the model-client
// configuration and the tier cascade.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/renoquote/renoquote/internal/llm/configuration"
	"github.com/renoquote/renoquote/internal/orchestrator"
)

// Environment variable names recognized as overrides.
const (
	EnvAPIKey       = "RENOQUOTE_API_KEY"
	EnvRedisAddr    = "RENOQUOTE_REDIS_ADDR"
	EnvTemporalHost = "RENOQUOTE_TEMPORAL_HOST"
	EnvListenAddr   = "RENOQUOTE_LISTEN_ADDR"
)

// Config is the application configuration file shape.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Temporal TemporalConfig `toml:"temporal"`
	Provider ProviderConfig `toml:"provider"`
	Retry    RetryConfig    `toml:"retry"`
	Cache    CacheConfig    `toml:"cache"`
	Vision   VisionConfig   `toml:"vision"`
	Tiers    []TierConfig   `toml:"tiers"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

// TemporalConfig holds worker connection settings.
type TemporalConfig struct {
	HostPort string `toml:"host_port"`
}

// ProviderConfig mirrors the model-provider settings.
type ProviderConfig struct {
	Endpoint       string `toml:"endpoint"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	SafetyOff      bool   `toml:"safety_off"`
}

// RetryConfig mirrors the transport retry settings.
type RetryConfig struct {
	MaxAttempts       int     `toml:"max_attempts"`
	InitialIntervalMS int     `toml:"initial_interval_ms"`
	MaxIntervalMS     int     `toml:"max_interval_ms"`
	Multiplier        float64 `toml:"multiplier"`
	JitterCeilingMS   int     `toml:"jitter_ceiling_ms"`
}

// CacheConfig mirrors the response-cache settings.
type CacheConfig struct {
	Enabled       bool   `toml:"enabled"`
	TTLSeconds    int    `toml:"ttl_seconds"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// VisionConfig mirrors the image-compression settings.
type VisionConfig struct {
	MaxImages    int `toml:"max_images"`
	MaxDimension int `toml:"max_dimension"`
	TargetKB     int `toml:"target_kb"`
}

// TierConfig declares one model tier of the cascade.
type TierConfig struct {
	Name     string `toml:"name"`
	Vision   bool   `toml:"vision"`
	JSONMode bool   `toml:"json_mode"`
}

// Load reads the config file at path (optional, empty path skips the
// file), applies environment overrides, and fills defaults. The returned
// Config is validated for internal consistency.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv(EnvTemporalHost); v != "" {
		c.Temporal.HostPort = v
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		c.Server.ListenAddr = v
	}
}

func (c *Config) fillDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Temporal.HostPort == "" {
		c.Temporal.HostPort = "localhost:7233"
	}
	if c.Provider.Endpoint == "" {
		c.Provider.Endpoint = configuration.DefaultGeminiEndpoint
	}
	if c.Provider.TimeoutSeconds <= 0 {
		c.Provider.TimeoutSeconds = 60
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = configuration.DefaultMaxAttempts
	}
	if c.Retry.InitialIntervalMS <= 0 {
		c.Retry.InitialIntervalMS = int(configuration.DefaultInitialInterval / time.Millisecond)
	}
	if c.Retry.MaxIntervalMS <= 0 {
		c.Retry.MaxIntervalMS = int(configuration.DefaultMaxInterval / time.Millisecond)
	}
	if c.Retry.Multiplier <= 0 {
		c.Retry.Multiplier = configuration.DefaultBackoffMultiplier
	}
	if c.Retry.JitterCeilingMS <= 0 {
		c.Retry.JitterCeilingMS = int(configuration.DefaultJitterCeiling / time.Millisecond)
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = int(configuration.DefaultCacheTTL / time.Second)
	}
	if c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = "localhost:6379"
	}
	if c.Vision.MaxImages <= 0 {
		c.Vision.MaxImages = configuration.DefaultMaxImages
	}
	if c.Vision.MaxDimension <= 0 {
		c.Vision.MaxDimension = configuration.DefaultMaxDimension
	}
	if c.Vision.TargetKB <= 0 {
		c.Vision.TargetKB = configuration.DefaultTargetBytes / 1024
	}
}

func (c *Config) validate() error {
	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("retry multiplier must be >= 1, got %s",
			strconv.FormatFloat(c.Retry.Multiplier, 'f', -1, 64))
	}
	for i, t := range c.Tiers {
		if t.Name == "" {
			return fmt.Errorf("tier %d has no model name", i)
		}
	}
	return nil
}

// ClientConfig converts the file shape into the model-client configuration.
func (c *Config) ClientConfig() *configuration.Config {
	out := configuration.DefaultConfig()
	out.Provider.Endpoint = c.Provider.Endpoint
	out.Provider.APIKey = c.Provider.APIKey
	out.Provider.Timeout = time.Duration(c.Provider.TimeoutSeconds) * time.Second
	out.Provider.SafetyOff = c.Provider.SafetyOff

	out.Retry = configuration.RetryConfig{
		MaxAttempts:     c.Retry.MaxAttempts,
		InitialInterval: time.Duration(c.Retry.InitialIntervalMS) * time.Millisecond,
		MaxInterval:     time.Duration(c.Retry.MaxIntervalMS) * time.Millisecond,
		Multiplier:      c.Retry.Multiplier,
		JitterCeiling:   time.Duration(c.Retry.JitterCeilingMS) * time.Millisecond,
	}

	out.Cache = configuration.CacheConfig{
		Enabled:       c.Cache.Enabled,
		TTL:           time.Duration(c.Cache.TTLSeconds) * time.Second,
		RedisAddr:     c.Cache.RedisAddr,
		RedisPassword: c.Cache.RedisPassword,
		RedisDB:       c.Cache.RedisDB,
	}

	out.Vision.MaxImages = c.Vision.MaxImages
	out.Vision.MaxDimension = c.Vision.MaxDimension
	out.Vision.TargetBytes = c.Vision.TargetKB * 1024
	return out
}

// ModelTiers converts the declared tiers into the cascade order.
// An empty declaration falls back to the built-in default cascade.
func (c *Config) ModelTiers() []orchestrator.ModelTier {
	if len(c.Tiers) == 0 {
		return orchestrator.DefaultTiers()
	}
	tiers := make([]orchestrator.ModelTier, len(c.Tiers))
	for i, t := range c.Tiers {
		tiers[i] = orchestrator.ModelTier{
			Name:             t.Name,
			SupportsVision:   t.Vision,
			SupportsJSONMode: t.JSONMode,
		}
	}
	return tiers
}
