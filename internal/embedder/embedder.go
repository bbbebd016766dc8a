package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Common errors
var (
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrUnknownProvider   = errors.New("unknown embedding provider")
	ErrNoProviderEnabled = errors.New("no embedding provider configured")
)

// Embedder generates fixed-dimension embeddings for text. The dimension is
// stable for the lifetime of a provider instance; the index relies on that
// when it pins its dimension at construction.
type Embedder interface {
	// Embed generates a single embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding dimension for this provider.
	Dimension() int

	// Provider returns the provider name.
	Provider() string

	// Model returns the model name.
	Model() string

	// Close releases any resources held by the embedder.
	Close() error
}

// ComputeHash computes the SHA-256 hash of text, used as the cache key.
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

func validateTexts(texts []string) error {
	if len(texts) == 0 {
		return ErrEmptyText
	}
	for _, text := range texts {
		if text == "" {
			return ErrEmptyText
		}
	}
	return nil
}
