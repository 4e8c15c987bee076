package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ziadkadry99/rfqpilot/internal/db"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderGoogle {
		t.Errorf("expected default provider %q, got %q", ProviderGoogle, cfg.Provider)
	}
	if cfg.Quality != QualityNormal {
		t.Errorf("expected default quality %q, got %q", QualityNormal, cfg.Quality)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != db.DriverSQLite {
		t.Errorf("expected sqlite by default, got %q", cfg.Database.Driver)
	}
	if got := cfg.DatabaseDSN(); got != filepath.Join(".rfqpilot", "rfqpilot.db") {
		t.Errorf("DatabaseDSN() = %q", got)
	}
	if got := cfg.BlobStore().Dir; got != filepath.Join(".rfqpilot", "blobs") {
		t.Errorf("BlobStore().Dir = %q", got)
	}
	if cfg.TokenTTL() != 7*24*time.Hour {
		t.Errorf("TokenTTL() = %v", cfg.TokenTTL())
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.rfqpilot.yml")

	original := DefaultConfig()
	original.Provider = ProviderOpenAI
	original.Model = "gpt-4o"
	original.Quality = QualityMax
	original.DataDir = "data"
	original.Server.BaseURL = "https://rfq.example.com/"
	original.Database = DatabaseConfig{Driver: db.DriverPostgres, DSN: "postgres://localhost/rfq"}
	original.FX = FXConfig{Base: "EUR", Rates: map[string]float64{"USD": 0.92}}

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify round-trip.
	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.Quality != original.Quality {
		t.Errorf("quality: got %q, want %q", loaded.Quality, original.Quality)
	}
	if loaded.DataDir != original.DataDir {
		t.Errorf("data_dir: got %q, want %q", loaded.DataDir, original.DataDir)
	}
	if loaded.Server.BaseURL != original.Server.BaseURL {
		t.Errorf("server.base_url: got %q, want %q", loaded.Server.BaseURL, original.Server.BaseURL)
	}
	if loaded.DatabaseDSN() != "postgres://localhost/rfq" {
		t.Errorf("database dsn: got %q", loaded.DatabaseDSN())
	}
	fx := loaded.FXOptions()
	if fx.Base != "EUR" || fx.Rates["USD"] != 0.92 {
		t.Errorf("fx: got %+v", fx)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderGoogle {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("RFQPILOT_PROVIDER", "openai")
	t.Setenv("RFQPILOT_SERVER__PORT", "9090")
	t.Setenv("RFQPILOT_SERVER__BASE_URL", "https://rfq.example.com/")
	t.Setenv("RFQPILOT_FX__RATES__EUR", "1.1")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOpenAI {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderOpenAI)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("server.port: got %d, want 9090", loaded.Server.Port)
	}
	if loaded.Server.BaseURL != "https://rfq.example.com/" {
		t.Errorf("server.base_url: got %q", loaded.Server.BaseURL)
	}
	if got := loaded.FXOptions().Rates["EUR"]; got != 1.1 {
		t.Errorf("fx.rates.eur: got %v, want 1.1", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".rfqpilot.yml")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("RFQPILOT_MODEL=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("RFQPILOT_MODEL") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Model != "from-dotenv" {
		t.Errorf("model: got %q, want from-dotenv", cfg.Model)
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"invalid provider", func(c *Config) { c.Provider = "invalid" }},
		{"empty provider", func(c *Config) { c.Provider = "" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"invalid quality", func(c *Config) { c.Quality = "ultra" }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"negative rate limit", func(c *Config) { c.RateLimitRPM = -1 }},
		{"unknown database", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = db.DriverPostgres }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"short jwt secret", func(c *Config) { c.Server.JWTSecret = "short" }},
		{"unknown blob driver", func(c *Config) { c.Blob.Driver = "gcs" }},
		{"s3 without bucket", func(c *Config) { c.Blob.Driver = "s3" }},
		{"unknown embeddings", func(c *Config) { c.Embeddings.Provider = "cohere" }},
		{"unknown fx base", func(c *Config) { c.FX.Base = "XYZ1" }},
		{"unknown fx currency", func(c *Config) { c.FX.Rates = map[string]float64{"BOGUS": 1} }},
		{"non-positive fx rate", func(c *Config) { c.FX.Rates = map[string]float64{"EUR": 0} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	p := GetPreset(ProviderAnthropic, QualityLite)
	if p.Model != "claude-haiku-4-5-20251001" {
		t.Errorf("expected haiku model, got %q", p.Model)
	}

	p = GetPreset(ProviderOllama, QualityNormal)
	if p.EmbeddingModel != "nomic-embed-text" {
		t.Errorf("expected nomic-embed-text, got %q", p.EmbeddingModel)
	}

	// Unknown combination falls back.
	p = GetPreset("unknown", QualityLite)
	if p.Model != "gemini-2.5-flash" {
		t.Errorf("expected fallback to gemini-2.5-flash, got %q", p.Model)
	}
}

func TestEmbeddingModelFor(t *testing.T) {
	tests := []struct {
		provider string
		preset   QualityPreset
		want     string
	}{
		{"ollama", QualityPreset{EmbeddingModel: "text-embedding-3-large"}, "nomic-embed-text"},
		{"google", QualityPreset{}, "gemini-embedding-001"},
		{"openai", QualityPreset{EmbeddingModel: "text-embedding-3-large"}, "text-embedding-3-large"},
		{"openai", QualityPreset{EmbeddingModel: "nomic-embed-text"}, "text-embedding-3-small"},
	}
	for _, tt := range tests {
		if got := embeddingModelFor(tt.provider, tt.preset); got != tt.want {
			t.Errorf("embeddingModelFor(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderGoogle, "GOOGLE_API_KEY"},
		{ProviderOpenRouter, "OPENROUTER_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestNewSecret(t *testing.T) {
	a, err := newSecret()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := newSecret()
	if len(a) != 64 || a == b {
		t.Errorf("newSecret() = %q, %q", a, b)
	}
}
