package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/ziadkadry99/rfqpilot/internal/blob"
	"github.com/ziadkadry99/rfqpilot/internal/db"
	"github.com/ziadkadry99/rfqpilot/internal/quote"
)

// QualityPreset describes the models to use for a given quality tier.
type QualityPreset struct {
	Model          string
	EmbeddingModel string
}

// qualityPresets maps each provider+quality combination to its model choices.
var qualityPresets = map[ProviderType]map[QualityTier]QualityPreset{
	ProviderAnthropic: {
		QualityLite:   {Model: "claude-haiku-4-5-20251001", EmbeddingModel: "text-embedding-3-small"},
		QualityNormal: {Model: "claude-sonnet-4-5-20250929", EmbeddingModel: "text-embedding-3-small"},
		QualityMax:    {Model: "claude-opus-4-1-20250805", EmbeddingModel: "text-embedding-3-large"},
	},
	ProviderOpenAI: {
		QualityLite:   {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
		QualityNormal: {Model: "gpt-4o", EmbeddingModel: "text-embedding-3-small"},
		QualityMax:    {Model: "gpt-4.1", EmbeddingModel: "text-embedding-3-large"},
	},
	ProviderGoogle: {
		QualityLite:   {Model: "gemini-2.5-flash-lite", EmbeddingModel: "gemini-embedding-001"},
		QualityNormal: {Model: "gemini-2.5-flash", EmbeddingModel: "gemini-embedding-001"},
		QualityMax:    {Model: "gemini-2.5-pro", EmbeddingModel: "gemini-embedding-001"},
	},
	ProviderOllama: {
		QualityLite:   {Model: "llama3.2", EmbeddingModel: "nomic-embed-text"},
		QualityNormal: {Model: "llama3.2-vision", EmbeddingModel: "nomic-embed-text"},
		QualityMax:    {Model: "llama3.2-vision:90b", EmbeddingModel: "nomic-embed-text"},
	},
	ProviderOpenRouter: {
		QualityLite:   {Model: "google/gemini-2.5-flash-lite", EmbeddingModel: "text-embedding-3-small"},
		QualityNormal: {Model: "google/gemini-2.5-flash", EmbeddingModel: "text-embedding-3-small"},
		QualityMax:    {Model: "anthropic/claude-sonnet-4.5", EmbeddingModel: "text-embedding-3-large"},
	},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:     ProviderGoogle,
		Model:        "gemini-2.5-flash",
		Quality:      QualityNormal,
		DataDir:      ".rfqpilot",
		RateLimitRPM: 60,
		Database:     DatabaseConfig{Driver: db.DriverSQLite},
		Server: ServerConfig{
			Port:          8080,
			BaseURL:       "http://localhost:8080/",
			TokenTTLHours: 24 * 7,
		},
		Blob: BlobConfig{Driver: string(blob.DriverFilesystem)},
		FX:   FXConfig{Base: "USD"},
	}
}

// GetPreset returns the quality preset for the given provider and tier.
// Returns the Normal Google preset if the combination is not found.
func GetPreset(provider ProviderType, tier QualityTier) QualityPreset {
	if tiers, ok := qualityPresets[provider]; ok {
		if preset, ok := tiers[tier]; ok {
			return preset
		}
	}
	return qualityPresets[ProviderGoogle][QualityNormal]
}

// DatabaseDSN returns the connection string for the configured driver.
func (c *Config) DatabaseDSN() string {
	if c.Database.DSN != "" || c.Database.Driver == db.DriverPostgres {
		return c.Database.DSN
	}
	return filepath.Join(c.DataDir, "rfqpilot.db")
}

// BlobStore returns the blob backend settings.
func (c *Config) BlobStore() blob.Config {
	dir := c.Blob.Dir
	if dir == "" {
		dir = filepath.Join(c.DataDir, "blobs")
	}
	return blob.Config{Driver: c.Blob.Driver, Dir: dir, S3: c.Blob.S3}
}

// FXOptions returns the comparison currency settings.
func (c *Config) FXOptions() quote.Options {
	rates := make(map[string]float64, len(c.FX.Rates))
	for code, rate := range c.FX.Rates {
		rates[strings.ToUpper(code)] = rate
	}
	return quote.Options{Base: strings.ToUpper(c.FX.Base), Rates: rates}
}

// TokenTTL returns how long buyer sessions last.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Server.TokenTTLHours) * time.Hour
}
