package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/rfqpilot/internal/blob"
	"github.com/ziadkadry99/rfqpilot/internal/db"
	"github.com/ziadkadry99/rfqpilot/internal/quote"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".rfqpilot.yml"

const envPrefix = "RFQPILOT_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (RFQPILOT_*). A .env file next to the
// config file is loaded first; it never overrides variables already set.
// Nested keys use a double underscore: RFQPILOT_SERVER__PORT -> server.port.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps RFQPILOT_SERVER__BASE_URL to server.base_url.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderAnthropic:  true,
	ProviderOpenAI:     true,
	ProviderGoogle:     true,
	ProviderOllama:     true,
	ProviderOpenRouter: true,
}

// validQualityTiers is the set of recognized quality tier values.
var validQualityTiers = map[QualityTier]bool{
	QualityLite:   true,
	QualityNormal: true,
	QualityMax:    true,
}

var validEmbeddingProviders = map[string]bool{
	"":       true,
	"none":   true,
	"openai": true,
	"google": true,
	"ollama": true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of anthropic, openai, google, ollama, openrouter", c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("model is required")
	}

	if c.Quality != "" && !validQualityTiers[c.Quality] {
		return fmt.Errorf("invalid quality %q: must be one of lite, normal, max", c.Quality)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.RateLimitRPM < 0 {
		return fmt.Errorf("rate_limit_rpm must be non-negative")
	}

	switch c.Database.Driver {
	case "", db.DriverSQLite:
	case db.DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("invalid database.driver %q: must be sqlite or postgres", c.Database.Driver)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Server.JWTSecret != "" && len(c.Server.JWTSecret) < 16 {
		return fmt.Errorf("server.jwt_secret must be at least 16 characters")
	}
	if c.Server.TokenTTLHours < 0 {
		return fmt.Errorf("server.token_ttl_hours must be non-negative")
	}

	switch blob.Driver(c.Blob.Driver) {
	case "", blob.DriverFilesystem:
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			return fmt.Errorf("blob.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("invalid blob.driver %q: must be fs or s3", c.Blob.Driver)
	}

	if !validEmbeddingProviders[c.Embeddings.Provider] {
		return fmt.Errorf("invalid embeddings.provider %q", c.Embeddings.Provider)
	}

	if c.FX.Base != "" && !quote.ValidCurrency(c.FX.Base) {
		return fmt.Errorf("invalid fx.base %q", c.FX.Base)
	}
	for code, rate := range c.FX.Rates {
		if !quote.ValidCurrency(code) {
			return fmt.Errorf("invalid fx rate currency %q", code)
		}
		if rate <= 0 {
			return fmt.Errorf("fx rate for %s must be positive", strings.ToUpper(code))
		}
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return ""
	}
}
