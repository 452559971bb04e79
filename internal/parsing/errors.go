package parsing

import (
	"fmt"

	"github.com/jonathan/resume-tools/internal/types"
)

// ShapeMismatchError is returned when a completion cannot be coerced into the
// expected record. Raw holds the completion exactly as the model returned it.
type ShapeMismatchError struct {
	Shape types.Shape
	Raw   string
	Cause error
}

func (e *ShapeMismatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model output does not match %s: %v", e.Shape, e.Cause)
	}
	return fmt.Sprintf("model output does not match %s", e.Shape)
}

func (e *ShapeMismatchError) Unwrap() error {
	return e.Cause
}
