package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/noah-isme/finsight/internal/insights"
)

// envFiles are loaded in order before the environment is processed. Values
// already present in the environment are never overridden.
var envFiles = []string{".env.local", ".env"}

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"NODE_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:"0.0.0.0:3000" validate:"required,hostname_port"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s" validate:"gt=0"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"90s" validate:"gt=0"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"75s" validate:"gt=0"`
	AppRateLimit      int           `envconfig:"APP_RATE_LIMIT" default:"300" validate:"gte=0"`
	AppForceTLS       bool          `envconfig:"APP_FORCE_TLS" default:"false"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty" validate:"oneof=pretty json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiModel   string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash" validate:"required"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL" validate:"omitempty,url"`
	SupabaseURL   string `envconfig:"VITE_SUPABASE_URL"`

	InsightsModelTimeout  time.Duration `envconfig:"INSIGHTS_MODEL_TIMEOUT" default:"60s" validate:"gte=1s,lte=10m"`
	InsightsMaxConcurrent int64         `envconfig:"INSIGHTS_MAX_CONCURRENT" default:"4" validate:"min=1,max=256"`
	InsightsStrictSchema  bool          `envconfig:"INSIGHTS_STRICT_SCHEMA" default:"false"`
	InsightsMaxBodyBytes  int64         `envconfig:"INSIGHTS_MAX_BODY_BYTES" default:"1048576" validate:"min=1024"`
	InsightsRateLimit     int           `envconfig:"INSIGHTS_RATE_LIMIT" default:"20" validate:"gte=0"`
	InsightsCacheTTL      time.Duration `envconfig:"INSIGHTS_CACHE_TTL" default:"0s" validate:"gte=0"`

	RedisAddr     string `envconfig:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`

	StaticDir          string `envconfig:"STATIC_DIR"`
	ViteDevServerURL   string `envconfig:"VITE_DEV_SERVER_URL" default:"http://127.0.0.1:5173" validate:"required,url"`
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// LoadConfig reads configuration from .env files and environment variables.
func LoadConfig() (*Config, error) {
	for _, name := range envFiles {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// HasGemini reports whether a Gemini credential is configured.
func (c *Config) HasGemini() bool {
	return c != nil && c.GeminiAPIKey != ""
}

// HasSupabase reports whether the Supabase URL is configured.
func (c *Config) HasSupabase() bool {
	return c != nil && c.SupabaseURL != ""
}

// CacheEnabled reports whether the Redis response cache should be wired.
func (c *Config) CacheEnabled() bool {
	return c != nil && c.RedisAddr != "" && c.InsightsCacheTTL > 0
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS into a list.
func (c *Config) AllowedOrigins() []string {
	if c == nil || strings.TrimSpace(c.CORSAllowedOrigins) == "" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Insights returns the pipeline configuration derived from c.
func (c *Config) Insights() insights.Config {
	return insights.Config{
		APIKey:        c.GeminiAPIKey,
		Model:         c.GeminiModel,
		ModelTimeout:  c.InsightsModelTimeout,
		MaxConcurrent: c.InsightsMaxConcurrent,
		StrictSchema:  c.InsightsStrictSchema,
	}
}
