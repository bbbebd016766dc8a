// Package generator produces and modifies T-SQL stored procedure code with
// an LLM, grounding each request on procedures retrieved from the index.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/rhodelta66/rag-tsql-agent/pkg/types"
)

// DefaultModel is the chat model used for code generation.
const DefaultModel = openai.ChatModelGPT4o

// generationTemperature keeps output close to the retrieved examples.
const generationTemperature = 0.2

// ErrNoAPIKey indicates the generator could not find an OpenAI API key.
var ErrNoAPIKey = errors.New("OPENAI_API_KEY not set")

// Generator generates T-SQL code through the OpenAI chat completions API.
type Generator struct {
	client openai.Client
	model  string
	log    *slog.Logger
}

// New creates a generator. An empty key falls back to OPENAI_API_KEY.
func New(apiKey string, logger *slog.Logger) (*Generator, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Generator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  DefaultModel,
		log:    logger,
	}, nil
}

// GenerateProcedure creates a new UI stored procedure from a natural-language
// description, using retrieved procedures as in-prompt references.
func (g *Generator) GenerateProcedure(ctx context.Context, description string, similar []types.RetrievalResult) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", errors.New("description cannot be empty")
	}

	prompt, err := renderGeneratePrompt(description, similar)
	if err != nil {
		return "", err
	}

	code, err := g.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate procedure: %w", err)
	}

	g.log.Info("generated procedure code",
		"chars", len(code), "references", len(similar))
	return code, nil
}

// ModifyProcedure rewrites an existing procedure according to a modification
// request, preserving its structure and naming.
func (g *Generator) ModifyProcedure(ctx context.Context, originalCode, modificationRequest string) (string, error) {
	if strings.TrimSpace(originalCode) == "" {
		return "", errors.New("original code cannot be empty")
	}
	if strings.TrimSpace(modificationRequest) == "" {
		return "", errors.New("modification request cannot be empty")
	}

	prompt, err := renderModifyPrompt(originalCode, modificationRequest)
	if err != nil {
		return "", err
	}

	code, err := g.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("modify procedure: %w", err)
	}

	g.log.Info("modified procedure code", "chars", len(code))
	return code, nil
}

// complete sends one chat completion and retries rate-limit errors with
// exponential backoff. Other errors fail immediately.
func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	var content string

	operation := func() error {
		resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Model:       g.model,
			Temperature: openai.Float(generationTemperature),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(errors.New("empty completion response"))
		}
		content = resp.Choices[0].Message.Content
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 60 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
