package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	OpenAI    OpenAIConfig
	Scraper   ScraperConfig
	Scoring   ScoringConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// OpenAIConfig holds LLM API configuration
type OpenAIConfig struct {
	APIKey            string `mapstructure:"api_key"`
	BaseURL           string `mapstructure:"base_url"`
	Model             string `mapstructure:"model"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// ScraperConfig holds the scraper service configuration
type ScraperConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// ScoringConfig holds the ranking algorithm tunables. Zero values mean
// "use the built-in default" so a config file can set only what it changes.
type ScoringConfig struct {
	MissingScore              float64 `mapstructure:"missing_score"`
	AccessoryPenalty          float64 `mapstructure:"accessory_penalty"`
	RatingMidpoint            float64 `mapstructure:"rating_midpoint"`
	RatingSteepness           float64 `mapstructure:"rating_steepness"`
	ReviewCap                 float64 `mapstructure:"review_cap"`
	DeliverySteepness         float64 `mapstructure:"delivery_steepness"`
	DeliveryGraceDays         float64 `mapstructure:"delivery_grace_days"`
	ValidationTopN            int     `mapstructure:"validation_top_n"`
	MaxResults                int     `mapstructure:"max_results"`
	EnableRelevanceValidation bool    `mapstructure:"enable_relevance_validation"`
	EnableLLMDates            bool    `mapstructure:"enable_llm_dates"`
	EnableDebugLogging        bool    `mapstructure:"enable_debug_logging"`
}

// SessionConfig holds session context cache configuration
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shopassist/")

	// Environment variable settings
	v.SetEnvPrefix("SHOPASSIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// OpenAI defaults. The api_key default registers the key with viper so
	// SHOPASSIST_OPENAI_API_KEY is picked up during Unmarshal.
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com")
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.requests_per_minute", 60)

	// Scraper defaults
	v.SetDefault("scraper.base_url", "http://localhost:8642")
	v.SetDefault("scraper.requests_per_minute", 30)

	// Scoring defaults: zero values defer to the scorer's built-ins, but the
	// keys must be registered for env overrides to take effect
	v.SetDefault("scoring.missing_score", 0.0)
	v.SetDefault("scoring.accessory_penalty", 0.0)
	v.SetDefault("scoring.rating_midpoint", 0.0)
	v.SetDefault("scoring.rating_steepness", 0.0)
	v.SetDefault("scoring.review_cap", 0.0)
	v.SetDefault("scoring.delivery_steepness", 0.0)
	v.SetDefault("scoring.delivery_grace_days", 0.0)
	v.SetDefault("scoring.enable_debug_logging", false)
	v.SetDefault("scoring.validation_top_n", 25)
	v.SetDefault("scoring.max_results", 10)
	v.SetDefault("scoring.enable_relevance_validation", true)
	v.SetDefault("scoring.enable_llm_dates", false)

	// Session defaults
	v.SetDefault("session.ttl", "30m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.OpenAI.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required (set SHOPASSIST_OPENAI_API_KEY)")
	}

	if config.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper base URL is required")
	}

	if s := config.Scoring.MissingScore; s < 0 || s >= 1 {
		return fmt.Errorf("scoring missing_score must be in [0, 1), got: %v", s)
	}

	if p := config.Scoring.AccessoryPenalty; p < 0 || p > 1 {
		return fmt.Errorf("scoring accessory_penalty must be in [0, 1], got: %v", p)
	}

	if config.Scoring.MaxResults < 0 {
		return fmt.Errorf("scoring max_results must be non-negative")
	}

	return nil
}
