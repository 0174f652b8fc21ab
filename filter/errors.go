package filter

import (
	"fmt"
)

// Error types for filter operations
type (
	// CompilationError indicates a filter expression could not be compiled
	CompilationError struct {
		Expression string
		Reason     string
		Column     int // -1 if the position is unknown
		Err        error
	}

	// EvaluationError indicates a filter could not be evaluated against a question
	EvaluationError struct {
		Expression string
		QuestionID int64
		Err        error
	}
)

func (e *CompilationError) Error() string {
	if e.Column >= 0 {
		return fmt.Sprintf("compilation error at column %d in '%s': %s", e.Column, e.Expression, e.Reason)
	}
	return fmt.Sprintf("compilation error in '%s': %s", e.Expression, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation error for '%s' on question %d: %v", e.Expression, e.QuestionID, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
