// Package schemas provides JSON Schema validation for the records produced by the language model.
// Each record shape has an embedded schema that is also shown to the model as its output format.
package schemas

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/jonathan/resume-tools/internal/types"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed *.schema.json
var schemaFiles embed.FS

var (
	compiled   = make(map[types.Shape]*gojsonschema.Schema)
	compiledMu sync.Mutex
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Name    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Name, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// filename maps a shape to its embedded schema file.
func filename(shape types.Shape) string {
	return string(shape) + ".schema.json"
}

// Raw returns the schema document for a shape.
func Raw(shape types.Shape) (string, error) {
	data, err := schemaFiles.ReadFile(filename(shape))
	if err != nil {
		return "", &SchemaLoadError{Name: filename(shape), Message: "unknown shape", Cause: err}
	}
	return string(data), nil
}

// compile returns the cached compiled schema for a shape.
func compile(shape types.Shape) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if schema, ok := compiled[shape]; ok {
		return schema, nil
	}

	raw, err := Raw(shape)
	if err != nil {
		return nil, err
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, &SchemaLoadError{Name: filename(shape), Message: "invalid schema", Cause: err}
	}
	compiled[shape] = schema
	return schema, nil
}

// Validate checks a JSON document against the embedded schema for shape.
func Validate(shape types.Shape, jsonContent string) error {
	schema, err := compile(shape)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(jsonContent))
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	return toValidationError(result)
}

func toValidationError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

// FormatInstructions returns the output-format section appended to structured prompts.
func FormatInstructions(shape types.Shape) (string, error) {
	raw, err := Raw(shape)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("The output should be formatted as a JSON instance that conforms to the JSON schema below.\n")
	sb.WriteString("Every property is required and no other properties are allowed.\n")
	sb.WriteString("Return ONLY the JSON object, no markdown, no explanation.\n\n")
	sb.WriteString("Here is the output schema:\n```\n")
	sb.WriteString(strings.TrimSpace(raw))
	sb.WriteString("\n```")
	return sb.String(), nil
}
