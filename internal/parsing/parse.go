// Package parsing coerces raw model completions into typed records.
// Decoding is strict: a completion must carry every field of the record,
// with the right types, and nothing else.
package parsing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jonathan/resume-tools/internal/llm"
	"github.com/jonathan/resume-tools/internal/schemas"
	"github.com/jonathan/resume-tools/internal/types"
)

// ParseResumeAnalysis parses a resume analysis completion.
func ParseResumeAnalysis(raw string) (*types.ResumeAnalysis, error) {
	var out types.ResumeAnalysis
	if err := decodeStrict(types.ShapeResumeAnalysis, raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseJobAnalysis parses a job analysis completion.
func ParseJobAnalysis(raw string) (*types.JobAnalysis, error) {
	var out types.JobAnalysis
	if err := decodeStrict(types.ShapeJobAnalysis, raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseResumeCustomization parses a customization suggestion completion.
func ParseResumeCustomization(raw string) (*types.ResumeCustomization, error) {
	var out types.ResumeCustomization
	if err := decodeStrict(types.ShapeResumeCustomization, raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseJobMatch parses a job match completion.
func ParseJobMatch(raw string) (*types.JobMatch, error) {
	var out types.JobMatch
	if err := decodeStrict(types.ShapeJobMatch, raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// decodeStrict validates raw against the shape's schema and decodes it into out.
// Only a markdown fence may surround the JSON; prose or a second value is a mismatch.
func decodeStrict(shape types.Shape, raw string, out any) error {
	body := llm.CleanJSONBlock(raw)

	if !json.Valid([]byte(body)) {
		return &ShapeMismatchError{Shape: shape, Raw: raw, Cause: errors.New("completion is not a single JSON object")}
	}

	if err := schemas.Validate(shape, body); err != nil {
		var loadErr *schemas.SchemaLoadError
		if errors.As(err, &loadErr) {
			return fmt.Errorf("cannot validate %s: %w", shape, err)
		}
		return &ShapeMismatchError{Shape: shape, Raw: raw, Cause: err}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return &ShapeMismatchError{Shape: shape, Raw: raw, Cause: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return &ShapeMismatchError{Shape: shape, Raw: raw, Cause: errors.New("trailing data after JSON object")}
	}

	return nil
}
