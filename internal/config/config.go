package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"horse.fit/partyplan/internal/language"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"8"`

	HTTPHost           string `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	HTTPPort           int    `envconfig:"HTTP_PORT" default:"8080"`
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`

	GoogleAPIKey              string        `envconfig:"GOOGLE_API_KEY" default:""`
	LanguageTranslateEndpoint string        `envconfig:"LANGUAGE_TRANSLATE_ENDPOINT" default:"https://translation.googleapis.com/language/translate/v2"`
	StyleTranslateBaseURL     string        `envconfig:"STYLE_TRANSLATE_BASE_URL" default:"https://api.funtranslations.com/translate/"`
	TranslationTimeout        time.Duration `envconfig:"TRANSLATION_TIMEOUT" default:"15s"`
	AuthoringLanguage         string        `envconfig:"AUTHORING_LANGUAGE" default:"pt-br"`
	IntermediateLanguage      string        `envconfig:"INTERMEDIATE_LANGUAGE" default:"en"`
	DetectAuthoringLanguage   bool          `envconfig:"DETECT_AUTHORING_LANGUAGE" default:"true"`
	TranslationWorkers        int           `envconfig:"TRANSLATION_WORKERS" default:"4"`
	TranslationQueueSize      int           `envconfig:"TRANSLATION_QUEUE_SIZE" default:"64"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:""`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	StyleCacheTTL time.Duration `envconfig:"STYLE_CACHE_TTL" default:"24h"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks everything except DATABASE_URL, which only database-backed commands need.
func (c *Config) Validate() error {
	if c.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) cannot exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.TranslationTimeout <= 0 {
		return fmt.Errorf("TRANSLATION_TIMEOUT must be > 0")
	}
	if language.NormalizeTag(c.AuthoringLanguage) == "" {
		return fmt.Errorf("AUTHORING_LANGUAGE %q is not a valid language tag", c.AuthoringLanguage)
	}
	if language.NormalizeTag(c.IntermediateLanguage) == "" {
		return fmt.Errorf("INTERMEDIATE_LANGUAGE %q is not a valid language tag", c.IntermediateLanguage)
	}
	if c.TranslationWorkers < 1 || c.TranslationWorkers > 64 {
		return fmt.Errorf("TRANSLATION_WORKERS must be between 1 and 64")
	}
	if c.TranslationQueueSize < 1 {
		return fmt.Errorf("TRANSLATION_QUEUE_SIZE must be >= 1")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("REDIS_DB must be >= 0")
	}
	if c.StyleCacheTTL < 0 {
		return fmt.Errorf("STYLE_CACHE_TTL must be >= 0")
	}
	return nil
}

// RequireDatabase reports a configuration error when DATABASE_URL is unset.
func (c *Config) RequireDatabase() error {
	if c == nil || strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

func (c *Config) CacheEnabled() bool {
	return c != nil && strings.TrimSpace(c.RedisAddr) != ""
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
