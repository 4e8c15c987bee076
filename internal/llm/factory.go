package llm

import (
	"fmt"
	"os"
)

// DefaultModels is the model used per provider when none is configured.
var DefaultModels = map[string]string{
	"google":     "gemini-2.5-flash",
	"anthropic":  "claude-sonnet-4-5-20250929",
	"openai":     "gpt-4o-mini",
	"openrouter": "google/gemini-2.5-flash",
	"ollama":     "llama3.2-vision",
}

// NewProvider creates a new LLM provider based on the given provider type and model.
// Supported provider types: "google", "anthropic", "openai", "openrouter", "ollama".
// API keys are read from the environment.
func NewProvider(providerType string, model string) (Provider, error) {
	if model == "" {
		model = DefaultModels[providerType]
	}

	switch providerType {
	case "google":
		apiKey := os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is not set")
		}
		return NewGoogleProvider(apiKey, model), nil

	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		return NewAnthropicProvider(apiKey, model), nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, model), nil

	case "openrouter":
		apiKey := os.Getenv("OPENROUTER_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable is not set")
		}
		return NewOpenRouterProvider(apiKey, model), nil

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
