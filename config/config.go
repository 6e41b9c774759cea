package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	USDA       USDAConfig
	Rerank     RerankConfig
	Store      StoreConfig
	Cache      CacheConfig
	Resolution ResolutionConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// USDAConfig holds FoodData Central API configuration
type USDAConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// RerankConfig selects and configures the candidate re-ranking backend.
// Provider is "http", "anthropic", or "off".
type RerankConfig struct {
	Provider        string `mapstructure:"provider"`
	URL             string `mapstructure:"url"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	Model           string `mapstructure:"model"`
}

// StoreConfig holds persistence configuration
type StoreConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
}

// CacheConfig holds food-detail cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// ResolutionConfig holds the fix-nutrition heuristics
type ResolutionConfig struct {
	AutoAcceptConfidence float64 `mapstructure:"auto_accept_confidence"`
	MaxRerankCandidates  int     `mapstructure:"max_rerank_candidates"`
	BreakdownLimit       int     `mapstructure:"breakdown_limit"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/tibera/")

	v.SetEnvPrefix("TIBERA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("usda.base_url", "https://api.nal.usda.gov/fdc")

	v.SetDefault("rerank.provider", "off")
	v.SetDefault("rerank.model", "claude-haiku-4-5-20251001")

	v.SetDefault("store.sqlite_path", "tibera.db")

	v.SetDefault("cache.ttl", "1h")

	// Hardcoded product heuristics, surfaced as configuration.
	v.SetDefault("resolution.auto_accept_confidence", 0.92)
	v.SetDefault("resolution.max_rerank_candidates", 18)
	v.SetDefault("resolution.breakdown_limit", 12)

	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.USDA.APIKey == "" {
		return fmt.Errorf("FDC API key is required (set TIBERA_USDA_API_KEY)")
	}

	switch config.Rerank.Provider {
	case "off":
	case "http":
		if config.Rerank.URL == "" {
			return fmt.Errorf("rerank URL is required when provider is 'http'")
		}
	case "anthropic":
		if config.Rerank.AnthropicAPIKey == "" {
			return fmt.Errorf("Anthropic API key is required when provider is 'anthropic'")
		}
	default:
		return fmt.Errorf("rerank provider must be 'http', 'anthropic', or 'off', got: %s", config.Rerank.Provider)
	}

	if config.Store.SQLitePath == "" {
		return fmt.Errorf("sqlite path is required")
	}

	if config.Resolution.AutoAcceptConfidence < 0 || config.Resolution.AutoAcceptConfidence > 1 {
		return fmt.Errorf("auto accept confidence must be within [0, 1], got: %v", config.Resolution.AutoAcceptConfidence)
	}

	return nil
}
