package embedder

import (
	"context"
	"testing"
)

func TestComputeHash(t *testing.T) {
	tests := []struct {
		name  string
		text1 string
		text2 string
		same  bool
	}{
		{"identical text", "EXEC sp_api_toast @text = N'Hi'", "EXEC sp_api_toast @text = N'Hi'", true},
		{"different text", "SELECT 1", "SELECT 2", false},
		{"case sensitive", "select 1", "SELECT 1", false},
		{"whitespace matters", "SELECT 1", "SELECT 1 ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h1 := ComputeHash(tt.text1)
			h2 := ComputeHash(tt.text2)
			if (h1 == h2) != tt.same {
				t.Errorf("ComputeHash: same=%v, want %v", h1 == h2, tt.same)
			}
			if len(h1) != 64 {
				t.Errorf("hash length = %d, want 64", len(h1))
			}
		})
	}
}

func TestValidateTexts(t *testing.T) {
	tests := []struct {
		name    string
		texts   []string
		wantErr bool
	}{
		{"valid single", []string{"SELECT 1"}, false},
		{"valid multiple", []string{"SELECT 1", "SELECT 2"}, false},
		{"empty slice", []string{}, true},
		{"nil slice", nil, true},
		{"contains empty string", []string{"SELECT 1", ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTexts(tt.texts)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateTexts() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLocalProviderDeterministic(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	if err != nil {
		t.Fatalf("NewLocalProvider: %v", err)
	}
	defer func() { _ = provider.Close() }()

	ctx := context.Background()
	text := "CREATE PROCEDURE dbo.usp_login AS BEGIN EXEC sp_api_modal_text @text = N'Sign in' END"

	vec1, err := provider.Embed(ctx, text)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	vec2, err := provider.Embed(ctx, text)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if len(vec1) != LocalDimension {
		t.Errorf("dimension = %d, want %d", len(vec1), LocalDimension)
	}
	for i := range vec1 {
		if vec1[i] != vec2[i] {
			t.Fatalf("vectors differ at %d: %v != %v", i, vec1[i], vec2[i])
		}
	}

	other, err := provider.Embed(ctx, "SELECT 1")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	identical := true
	for i := range vec1 {
		if vec1[i] != other[i] {
			identical = false
			break
		}
	}
	if identical {
		t.Error("distinct texts produced identical vectors")
	}
}

func TestLocalProviderEmptyText(t *testing.T) {
	provider, _ := NewLocalProvider(nil)

	if _, err := provider.Embed(context.Background(), ""); err == nil {
		t.Error("expected error for empty text")
	}
	if _, err := provider.EmbedBatch(context.Background(), nil); err == nil {
		t.Error("expected error for empty batch")
	}
}

func TestLocalProviderBatch(t *testing.T) {
	provider, _ := NewLocalProvider(nil)

	texts := []string{"SELECT 1", "SELECT 2", "SELECT 3"}
	vecs, err := provider.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("got %d vectors, want %d", len(vecs), len(texts))
	}

	// Batch and single-text paths agree.
	single, err := provider.Embed(context.Background(), texts[1])
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for i := range single {
		if vecs[1][i] != single[i] {
			t.Fatalf("batch/single mismatch at %d", i)
		}
	}
}

func TestCache(t *testing.T) {
	cache := NewCache(2)

	if _, ok := cache.Get("missing"); ok {
		t.Error("expected miss on empty cache")
	}

	cache.Set("a", []float32{1, 2, 3})
	vec, ok := cache.Get("a")
	if !ok {
		t.Fatal("expected hit")
	}

	// The returned copy must not alias the cached value.
	vec[0] = 99
	vec2, _ := cache.Get("a")
	if vec2[0] != 1 {
		t.Errorf("cache value mutated through returned slice: %v", vec2[0])
	}

	// LRU eviction at capacity.
	cache.Set("b", []float32{4})
	cache.Set("c", []float32{5})
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
	if _, ok := cache.Get("a"); ok {
		t.Error("expected oldest entry to be evicted")
	}
}

func TestLocalProviderUsesCache(t *testing.T) {
	cache := NewCache(10)
	provider, _ := NewLocalProvider(cache)

	text := "EXEC sp_api_toast @text = N'Hi'"
	if _, err := provider.Embed(context.Background(), text); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if cache.Len() != 1 {
		t.Errorf("cache Len() = %d, want 1", cache.Len())
	}
	if _, ok := cache.Get(ComputeHash(text)); !ok {
		t.Error("embedding not cached under content hash")
	}
}

func TestNewSelectsProvider(t *testing.T) {
	tests := []struct {
		name         string
		cfg          Config
		wantProvider string
		wantErr      bool
	}{
		{"local", Config{Provider: ProviderLocal}, ProviderLocal, false},
		{"local uppercase", Config{Provider: "LOCAL"}, ProviderLocal, false},
		{"openai with key", Config{Provider: ProviderOpenAI, APIKey: "sk-test"}, ProviderOpenAI, false},
		{"unknown provider", Config{Provider: "cohere"}, "", true},
		{"empty provider", Config{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer func() { _ = emb.Close() }()
			if emb.Provider() != tt.wantProvider {
				t.Errorf("Provider() = %q, want %q", emb.Provider(), tt.wantProvider)
			}
		})
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Run("explicit local", func(t *testing.T) {
		t.Setenv(EnvProvider, ProviderLocal)
		t.Setenv(EnvOpenAIAPIKey, "sk-test")

		emb, err := NewFromEnv()
		if err != nil {
			t.Fatalf("NewFromEnv: %v", err)
		}
		defer func() { _ = emb.Close() }()
		if emb.Provider() != ProviderLocal {
			t.Errorf("Provider() = %q, want %q", emb.Provider(), ProviderLocal)
		}
	})

	t.Run("key enables openai", func(t *testing.T) {
		t.Setenv(EnvProvider, "")
		t.Setenv(EnvOpenAIAPIKey, "sk-test")

		emb, err := NewFromEnv()
		if err != nil {
			t.Fatalf("NewFromEnv: %v", err)
		}
		defer func() { _ = emb.Close() }()
		if emb.Provider() != ProviderOpenAI {
			t.Errorf("Provider() = %q, want %q", emb.Provider(), ProviderOpenAI)
		}
	})

	t.Run("fallback to local", func(t *testing.T) {
		t.Setenv(EnvProvider, "")
		t.Setenv(EnvOpenAIAPIKey, "")

		emb, err := NewFromEnv()
		if err != nil {
			t.Fatalf("NewFromEnv: %v", err)
		}
		defer func() { _ = emb.Close() }()
		if emb.Provider() != ProviderLocal {
			t.Errorf("Provider() = %q, want %q", emb.Provider(), ProviderLocal)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Setenv(EnvProvider, "cohere")

		if _, err := NewFromEnv(); err == nil {
			t.Error("expected error for unknown provider")
		}
	})
}
