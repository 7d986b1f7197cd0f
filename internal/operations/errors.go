package operations

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of operation error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeDependency   ErrorType = "dependency"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeCancellation ErrorType = "cancellation"
)

// OperationError is a pipeline failure attributed to a stage
type OperationError struct {
	Type    ErrorType `json:"type"`
	Stage   string    `json:"stage,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Stage != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches on error type, so errors.Is(err, &OperationError{Type: ErrorTypeExecution}) works
func (e *OperationError) Is(target error) bool {
	t, ok := target.(*OperationError)
	if !ok || e == nil {
		return false
	}
	return t.Type == e.Type && (t.Stage == "" || t.Stage == e.Stage)
}

// NewValidationError creates a validation error
func NewValidationError(stage, message string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeValidation,
		Stage:   stage,
		Message: message,
	}
}

// NewDependencyError creates a dependency error
func NewDependencyError(stage, dependency string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeDependency,
		Stage:   stage,
		Message: fmt.Sprintf("dependency %q not found", dependency),
	}
}

// NewExecutionError creates an execution error
func NewExecutionError(stage string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeExecution,
		Stage:   stage,
		Message: "stage failed",
		Cause:   cause,
	}
}

// NewCancellationError creates a cancellation error
func NewCancellationError(stage string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeCancellation,
		Stage:   stage,
		Message: "run cancelled",
		Cause:   cause,
	}
}

// AsOperationError extracts an OperationError from an error chain
func AsOperationError(err error) (*OperationError, bool) {
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}
