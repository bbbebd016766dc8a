package embedder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Provider names and models.
const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	DefaultOpenAIModel = "text-embedding-3-small"

	OpenAIDimension = 1536
	LocalDimension  = 384

	openaiEmbeddingsURL = "https://api.openai.com/v1/embeddings"
)

// Environment variables consulted by the providers and factory.
const (
	EnvProvider     = "TSQLRAG_EMBEDDING_PROVIDER"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// OpenAIProvider implements Embedder against the OpenAI embeddings API.
type OpenAIProvider struct {
	apiKey     string
	model      string
	httpClient *http.Client
	cache      *Cache
}

// NewOpenAIProvider creates a new OpenAI embedder. An empty key falls back
// to OPENAI_API_KEY.
func NewOpenAIProvider(apiKey string, cache *Cache) (*OpenAIProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvOpenAIAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}

	return &OpenAIProvider{
		apiKey: apiKey,
		model:  DefaultOpenAIModel,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
	}, nil
}

func (o *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if o.cache != nil {
		if vec, ok := o.cache.Get(hash); ok {
			return vec, nil
		}
	}

	vecs, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (o *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateTexts(texts); err != nil {
		return nil, err
	}

	vecs, err := retryWithBackoff(ctx, func() ([][]float32, error) {
		return o.callAPI(ctx, texts)
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, maxRetries, err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrProviderFailed, len(vecs), len(texts))
	}

	if o.cache != nil {
		for i, vec := range vecs {
			o.cache.Set(ComputeHash(texts[i]), vec)
		}
	}

	return vecs, nil
}

func (o *OpenAIProvider) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := map[string]interface{}{
		"input": texts,
		"model": o.model,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiEmbeddingsURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	vecs := make([][]float32, len(apiResp.Data))
	for i, data := range apiResp.Data {
		vecs[i] = data.Embedding
	}
	return vecs, nil
}

func (o *OpenAIProvider) Dimension() int { return OpenAIDimension }

func (o *OpenAIProvider) Provider() string { return ProviderOpenAI }

func (o *OpenAIProvider) Model() string { return o.model }

func (o *OpenAIProvider) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}

// LocalProvider derives deterministic vectors from a content hash. It needs
// no network and keeps identical text mapping to identical vectors, which is
// what offline operation and the test suite rely on.
type LocalProvider struct {
	model string
	cache *Cache
}

// NewLocalProvider creates a new local embedder.
func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{
		model: "local-hash-embeddings",
		cache: cache,
	}, nil
}

func (l *LocalProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if l.cache != nil {
		if vec, ok := l.cache.Get(hash); ok {
			return vec, nil
		}
	}

	// Stretch the 32 hash bytes across the vector so distinct texts land on
	// distinct directions.
	digest := sha256.Sum256([]byte(text))
	vec := make([]float32, LocalDimension)
	for i := range vec {
		b := digest[i%len(digest)]
		rot := byte(i / len(digest))
		vec[i] = (float32(b^rot)/255.0)*2 - 1
	}

	if l.cache != nil {
		l.cache.Set(hash, vec)
	}
	return vec, nil
}

func (l *LocalProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateTexts(texts); err != nil {
		return nil, err
	}

	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := l.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (l *LocalProvider) Dimension() int { return LocalDimension }

func (l *LocalProvider) Provider() string { return ProviderLocal }

func (l *LocalProvider) Model() string { return l.model }

func (l *LocalProvider) Close() error { return nil }
