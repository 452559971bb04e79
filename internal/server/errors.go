package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-tools/internal/llm"
	"github.com/jonathan/resume-tools/internal/loader"
	"github.com/jonathan/resume-tools/internal/parsing"
)

// Error codes returned in ErrorBody.Code
const (
	CodeInvalidRequest = "invalid_request"
	CodeEmptyDocument  = "empty_document"
	CodeShapeMismatch  = "shape_mismatch"
	CodeServiceError   = "service_error"
	CodeTimeout        = "timeout"
	CodeBusy           = "busy"
	CodeRateLimited    = "rate_limited"
	CodeNotFound       = "not_found"
	CodeInternal       = "internal_error"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Code      string   `json:"code"`
	Error     string   `json:"error"`
	Details   []string `json:"details,omitempty"`
	RawOutput string   `json:"raw_output,omitempty"`
}

// ValidationError indicates a malformed or incomplete request
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Problems, "; ")
}

// newValidationError converts validator output into a ValidationError.
func newValidationError(err error) *ValidationError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			problems = append(problems, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			problems = append(problems, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		default:
			problems = append(problems, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return &ValidationError{Problems: problems}
}

// HTTPStatus returns the HTTP status code for an error
func HTTPStatus(err error) int {
	status, _ := classify(err)
	return status
}

// classify maps an error to its status code and response body.
func classify(err error) (int, ErrorBody) {
	var (
		validationErr *ValidationError
		shapeErr      *parsing.ShapeMismatchError
		serviceErr    *llm.ServiceError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, ErrorBody{Code: CodeInvalidRequest, Error: "invalid request", Details: validationErr.Problems}
	case errors.Is(err, loader.ErrEmptyDocument):
		return http.StatusBadRequest, ErrorBody{Code: CodeEmptyDocument, Error: err.Error()}
	case errors.As(err, &shapeErr):
		return http.StatusBadGateway, ErrorBody{Code: CodeShapeMismatch, Error: err.Error(), RawOutput: shapeErr.Raw}
	case errors.As(err, &serviceErr):
		return http.StatusBadGateway, ErrorBody{Code: CodeServiceError, Error: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorBody{Code: CodeTimeout, Error: "request timed out"}
	default:
		return http.StatusInternalServerError, ErrorBody{Code: CodeInternal, Error: err.Error()}
	}
}

// writeError writes the response for a failed request.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	s.jsonResponse(w, status, body)
}
