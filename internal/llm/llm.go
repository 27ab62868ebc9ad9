// Package llm provides the completion service that turns retrieved
// documentation chunks into answers.
package llm

import (
	"context"
	"fmt"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

// CompletionOptions configures the completion request.
type CompletionOptions struct {
	// Temperature controls randomness (0-1).
	Temperature float64

	// MaxTokens limits the response length.
	MaxTokens int
}

// DefaultCompletionOptions returns sensible defaults.
func DefaultCompletionOptions() CompletionOptions {
	return CompletionOptions{
		Temperature: 0.3,
		MaxTokens:   2048,
	}
}

// Service defines the interface for completion services. The service is
// an external collaborator: it receives retrieved chunks embedded in a
// prompt and returns generated text.
type Service interface {
	// Complete generates a completion for the given messages.
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)

	// CompleteStream generates a streaming completion.
	CompleteStream(ctx context.Context, messages []Message, opts CompletionOptions) (<-chan string, <-chan error)

	// ModelName returns the model name.
	ModelName() string
}

// Config selects and configures a completion backend.
type Config struct {
	Model   string
	APIKey  string
	BaseURL string
}

// NewService creates a completion service from the configuration.
func NewService(cfg Config) (Service, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("completion API key is required")
	}
	return NewOpenAIService(cfg.APIKey, cfg.Model, cfg.BaseURL)
}
