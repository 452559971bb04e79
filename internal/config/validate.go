package config

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-tools/internal/llm"
)

// ProblemCode classifies a configuration problem.
type ProblemCode string

// Problem codes
const (
	ProblemMissingCredential ProblemCode = "missing_credential"
	ProblemInvalidProvider   ProblemCode = "invalid_provider"
	ProblemInvalidValue      ProblemCode = "invalid_value"
)

// Problem is one configuration issue.
type Problem struct {
	Code    ProblemCode
	Field   string
	Message string
}

// ValidationResult lists every problem found by Validate.
type ValidationResult struct {
	Problems []Problem
}

// OK reports whether no problems were found.
func (r *ValidationResult) OK() bool {
	return len(r.Problems) == 0
}

// Has reports whether a problem with the given code was found.
func (r *ValidationResult) Has(code ProblemCode) bool {
	for _, p := range r.Problems {
		if p.Code == code {
			return true
		}
	}
	return false
}

func (r *ValidationResult) add(code ProblemCode, field, format string, args ...any) {
	r.Problems = append(r.Problems, Problem{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
}

// MissingCredentialError reports that no API key is available for the provider.
type MissingCredentialError struct {
	Provider llm.Provider
	EnvVar   string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s not found in environment variables.", e.EnvVar)
}

// Remediation tells the user how to supply the credential.
func (e *MissingCredentialError) Remediation() string {
	return fmt.Sprintf("Please add your %s API key to the .env file.", providerLabel(e.Provider))
}

func providerLabel(p llm.Provider) string {
	switch p {
	case llm.ProviderOpenAI:
		return "OpenAI"
	case llm.ProviderGemini:
		return "Gemini"
	default:
		return string(p)
	}
}

// Err converts the result into an error. A missing credential takes precedence
// and is returned as *MissingCredentialError.
func (r *ValidationResult) Err(c *Config) error {
	if r.OK() {
		return nil
	}
	if r.Has(ProblemMissingCredential) {
		provider := llm.Provider(c.LLM.Provider)
		return &MissingCredentialError{Provider: provider, EnvVar: llm.CredentialEnv(provider)}
	}
	msgs := make([]string, 0, len(r.Problems))
	for _, p := range r.Problems {
		msgs = append(msgs, fmt.Sprintf("%s: %s", p.Field, p.Message))
	}
	return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
}

// Validate checks the configuration needed to call the model.
// It never fails fast: every problem is reported.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}

	provider, err := llm.ParseProvider(c.LLM.Provider)
	if err != nil {
		result.add(ProblemInvalidProvider, "llm.provider", "%v", err)
	} else if strings.TrimSpace(c.LLM.APIKey) == "" {
		result.add(ProblemMissingCredential, "llm.api_key", "%s is not set", llm.CredentialEnv(provider))
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		result.add(ProblemInvalidValue, "llm.temperature", "must be between 0 and 2, got %v", c.LLM.Temperature)
	}
	if c.LLM.Timeout < 0 {
		result.add(ProblemInvalidValue, "llm.timeout", "must not be negative")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		result.add(ProblemInvalidValue, "logging.level", "unknown level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		result.add(ProblemInvalidValue, "logging.format", "unknown format %q", c.Logging.Format)
	}

	return result
}

// ValidateServer checks the settings used only by the HTTP API.
func (c *Config) ValidateServer() *ValidationResult {
	result := &ValidationResult{}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		result.add(ProblemInvalidValue, "server.port", "must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit <= 0 {
		result.add(ProblemInvalidValue, "server.rate_limit", "must be positive")
	}
	if c.Server.RateBurst < 1 {
		result.add(ProblemInvalidValue, "server.rate_burst", "must be at least 1")
	}
	if c.Server.MaxConcurrent < 1 {
		result.add(ProblemInvalidValue, "server.max_concurrent", "must be at least 1")
	}
	return result
}
