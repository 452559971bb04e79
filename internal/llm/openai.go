package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
)

// OpenAIClient implements Client using OpenAI Chat Completions.
type OpenAIClient struct {
	client openai.Client
	config *Config
}

// NewOpenAIClient constructs a new OpenAI client.
func NewOpenAIClient(config *Config, apiKey string) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}

	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(apiKey),
		// Failures surface to the caller as-is.
		openaioption.WithMaxRetries(0),
	}
	if config.Timeout > 0 {
		opts = append(opts, openaioption.WithRequestTimeout(config.Timeout))
	}
	if base := strings.TrimSpace(config.BaseURL); base != "" {
		opts = append(opts, openaioption.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		config: config,
	}, nil
}

// Complete sends a single user message and returns the first choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &ServiceError{Provider: ProviderOpenAI, Cause: err}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.config.Model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(float64(c.config.Temperature)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &ServiceError{Provider: ProviderOpenAI, Cause: fmt.Errorf("HTTP status %d: %w", apiErr.StatusCode, err)}
		}
		return "", &ServiceError{Provider: ProviderOpenAI, Cause: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ServiceError{Provider: ProviderOpenAI, Cause: fmt.Errorf("response missing choices")}
	}

	return resp.Choices[0].Message.Content, nil
}

// Model returns the configured model name
func (c *OpenAIClient) Model() string {
	return c.config.Model
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (c *OpenAIClient) Close() error {
	return nil
}
