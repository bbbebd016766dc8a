package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Config holds embedder configuration.
type Config struct {
	Provider  string
	APIKey    string
	CacheSize int
}

// New creates an embedder with explicit configuration.
func New(cfg Config) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// NewFromEnv creates an embedder based on environment variables.
// TSQLRAG_EMBEDDING_PROVIDER selects explicitly; otherwise an OpenAI key
// enables the OpenAI provider and the local provider is the fallback.
func NewFromEnv() (Embedder, error) {
	cache := NewCache(DefaultCacheSize)

	if provider := os.Getenv(EnvProvider); provider != "" {
		switch strings.ToLower(provider) {
		case ProviderOpenAI:
			return NewOpenAIProvider("", cache)
		case ProviderLocal:
			return NewLocalProvider(cache)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
		}
	}

	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return NewOpenAIProvider("", cache)
	}
	return NewLocalProvider(cache)
}
