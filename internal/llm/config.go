// Package llm provides the language-model client abstraction and its provider implementations.
package llm

import (
	"fmt"
	"strings"
	"time"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderOpenAI is the OpenAI Chat Completions provider
	ProviderOpenAI Provider = "openai"
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// DefaultTemperature is the sampling temperature used when none is configured.
const DefaultTemperature = 0.7

// DefaultTimeout bounds a single completion request.
const DefaultTimeout = 120 * time.Second

// defaultModels holds the model used for each provider when none is configured
var defaultModels = map[Provider]string{
	ProviderOpenAI: "gpt-4o",
	ProviderGemini: "gemini-2.5-flash",
}

// credentialEnv names the environment variable holding each provider's API key
var credentialEnv = map[Provider]string{
	ProviderOpenAI: "OPENAI_API_KEY",
	ProviderGemini: "GEMINI_API_KEY",
}

// Config holds the model configuration for a client
type Config struct {
	Provider    Provider
	Model       string
	Temperature float32
	Timeout     time.Duration
	// BaseURL overrides the provider endpoint; only honored by the OpenAI provider.
	BaseURL string
}

// DefaultConfig returns the default configuration (OpenAI gpt-4o)
func DefaultConfig() *Config {
	return DefaultConfigFor(ProviderOpenAI)
}

// DefaultConfigFor returns the default configuration for a provider
func DefaultConfigFor(provider Provider) *Config {
	return &Config{
		Provider:    provider,
		Model:       defaultModels[provider],
		Temperature: DefaultTemperature,
		Timeout:     DefaultTimeout,
	}
}

// ParseProvider converts a user-supplied provider name.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := defaultModels[p]; !ok {
		return "", fmt.Errorf("unsupported provider %q (expected openai or gemini)", name)
	}
	return p, nil
}

// DefaultModel returns the model used for a provider when none is configured.
func DefaultModel(provider Provider) string {
	return defaultModels[provider]
}

// CredentialEnv returns the environment variable that holds the provider's API key.
func CredentialEnv(provider Provider) string {
	return credentialEnv[provider]
}

// WithModel returns a copy of the config using model. A blank model keeps the current one.
func (c *Config) WithModel(model string) *Config {
	clone := *c
	if model = strings.TrimSpace(model); model != "" {
		clone.Model = model
	}
	return &clone
}

// Validate checks that the config can be used to build a client.
func (c *Config) Validate() error {
	if _, ok := defaultModels[c.Provider]; !ok {
		return fmt.Errorf("unsupported provider %q", c.Provider)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model is required for provider %s", c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %.2f out of range [0, 2]", c.Temperature)
	}
	return nil
}
