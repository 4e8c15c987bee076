package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/ziadkadry99/rfqpilot/internal/config"
	"github.com/ziadkadry99/rfqpilot/internal/db"
	"github.com/ziadkadry99/rfqpilot/internal/embeddings"
	"github.com/ziadkadry99/rfqpilot/internal/llm"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `rfqpilot init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// openDatabase opens the configured repository database.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return database, nil
}

// createLLMProviderFromConfig creates the rate-limited LLM provider.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	p, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	return llm.NewRateLimitedProvider(p, cfg.RateLimitRPM), nil
}

// createEmbedderFromConfig creates the supplier index embedder, or nil when
// semantic matching is disabled.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	return embeddings.New(cfg.Embeddings.Provider, cfg.Embeddings.Model)
}

// createTokens returns the session signer. Without a configured secret a
// random one is used and sessions end when the process exits.
func createTokens(cfg *config.Config) (*user.Tokens, error) {
	secret := cfg.Server.JWTSecret
	if secret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generating jwt secret: %w", err)
		}
		secret = hex.EncodeToString(b)
		slog.Warn("server.jwt_secret is not set; sessions will not survive a restart")
	}
	return user.NewTokens(secret, cfg.TokenTTL())
}
