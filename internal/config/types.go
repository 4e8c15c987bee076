package config

import "github.com/ziadkadry99/rfqpilot/internal/blob"

// QualityTier controls the model selection and trade-off between speed/cost and quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderOpenAI     ProviderType = "openai"
	ProviderGoogle     ProviderType = "google"
	ProviderOllama     ProviderType = "ollama"
	ProviderOpenRouter ProviderType = "openrouter"
)

// Config is the top-level rfqpilot configuration, corresponding to .rfqpilot.yml.
type Config struct {
	Provider     ProviderType     `yaml:"provider" koanf:"provider"`
	Model        string           `yaml:"model" koanf:"model"`
	ImageModel   string           `yaml:"image_model,omitempty" koanf:"image_model"`
	Quality      QualityTier      `yaml:"quality" koanf:"quality"`
	DataDir      string           `yaml:"data_dir" koanf:"data_dir"`
	RateLimitRPM int              `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	Database     DatabaseConfig   `yaml:"database" koanf:"database"`
	Server       ServerConfig     `yaml:"server" koanf:"server"`
	Blob         BlobConfig       `yaml:"blob" koanf:"blob"`
	Embeddings   EmbeddingsConfig `yaml:"embeddings" koanf:"embeddings"`
	FX           FXConfig         `yaml:"fx" koanf:"fx"`
}

// DatabaseConfig selects the repository backend. An empty DSN for sqlite
// means a file under the data dir.
type DatabaseConfig struct {
	Driver string `yaml:"driver" koanf:"driver"`
	DSN    string `yaml:"dsn,omitempty" koanf:"dsn"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int    `yaml:"port" koanf:"port"`
	BaseURL         string `yaml:"base_url" koanf:"base_url"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	JWTSecret       string `yaml:"jwt_secret,omitempty" koanf:"jwt_secret"`
	TokenTTLHours   int    `yaml:"token_ttl_hours" koanf:"token_ttl_hours"`
}

// BlobConfig selects where uploads and purchase orders are kept.
type BlobConfig struct {
	Driver string        `yaml:"driver" koanf:"driver"`
	Dir    string        `yaml:"dir,omitempty" koanf:"dir"`
	S3     blob.S3Config `yaml:"s3,omitempty" koanf:"s3"`
}

// EmbeddingsConfig configures the supplier index embedder. An empty
// provider disables semantic matching.
type EmbeddingsConfig struct {
	Provider string `yaml:"provider" koanf:"provider"`
	Model    string `yaml:"model,omitempty" koanf:"model"`
}

// FXConfig holds the exchange rates used when quotes come in different
// currencies. Rates[code] is the value of one unit of code in Base.
type FXConfig struct {
	Base  string             `yaml:"base" koanf:"base"`
	Rates map[string]float64 `yaml:"rates,omitempty" koanf:"rates"`
}
