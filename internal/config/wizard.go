package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// embeddingChoices are offered by the wizard; "none" keeps supplier
// matching keyword-based.
var embeddingChoices = []string{"none", "openai", "google", "ollama"}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to rfqpilot! Let's configure your workspace.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"google", "anthropic", "openai", "openrouter", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)

	// 2. Quality tier.
	qualityPrompt := promptui.Select{
		Label: "Select quality tier",
		Items: []string{
			"lite   (fast and cheap)",
			"normal (balanced)",
			"max    (highest quality)",
		},
	}
	qualityIdx, _, err := qualityPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("quality selection: %w", err)
	}
	tiers := []QualityTier{QualityLite, QualityNormal, QualityMax}
	quality := tiers[qualityIdx]

	preset := GetPreset(provider, quality)
	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = preset.Model
	cfg.Quality = quality

	// 3. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory for the database and files",
		Default: cfg.DataDir,
	}
	if cfg.DataDir, err = dataPrompt.Run(); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 4. Server port and public URL.
	portPrompt := promptui.Prompt{
		Label:   "Server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	urlPrompt := promptui.Prompt{
		Label:   "Public URL share links point at",
		Default: fmt.Sprintf("http://localhost:%d/", cfg.Server.Port),
	}
	if cfg.Server.BaseURL, err = urlPrompt.Run(); err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}

	// 5. Supplier matching.
	embedPrompt := promptui.Select{
		Label: "Embeddings for semantic supplier matching",
		Items: embeddingChoices,
	}
	_, embedStr, err := embedPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embeddings selection: %w", err)
	}
	if embedStr != "none" {
		cfg.Embeddings = EmbeddingsConfig{Provider: embedStr, Model: embeddingModelFor(embedStr, preset)}
	}

	secret, err := newSecret()
	if err != nil {
		return nil, err
	}
	cfg.Server.JWTSecret = secret

	// Check for API key.
	envVar := APIKeyEnvVar(provider)
	if envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment or .env before running rfqpilot server.\n", envVar)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// embeddingModelFor picks the embedding model for provider. The preset is
// only used when it belongs to the same provider family.
func embeddingModelFor(provider string, preset QualityPreset) string {
	switch provider {
	case "ollama":
		return "nomic-embed-text"
	case "google":
		return "gemini-embedding-001"
	default:
		if preset.EmbeddingModel == "text-embedding-3-large" {
			return preset.EmbeddingModel
		}
		return "text-embedding-3-small"
	}
}

// newSecret returns a random key for signing buyer sessions.
func newSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
