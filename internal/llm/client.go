package llm

import (
	"context"
	"fmt"
)

// Client is an abstraction over LLM providers
type Client interface {
	// Complete sends a prompt and returns the raw text completion
	Complete(ctx context.Context, prompt string) (string, error)
	// Model returns the model name requests are sent to
	Model() string
	// Close releases any resources held by the client
	Close() error
}

// ServiceError wraps any failure reported by the provider or the network.
// It is surfaced as-is and never retried.
type ServiceError struct {
	Provider Provider
	Cause    error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Cause)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return NewOpenAIClient(config, apiKey)
	}
}
