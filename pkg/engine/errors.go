package engine

import (
	"errors"
	"fmt"
)

// ErrorClass classifies engine errors by where in the run they belong.
type ErrorClass string

const (
	// ErrorClassConfig indicates an invalid declaration or setup problem
	// detected before traversal starts. No report is produced.
	ErrorClassConfig ErrorClass = "config"

	// ErrorClassExecution indicates a phase hook or provisioner invocation
	// failed. Recorded in the report and subject to the abort policy.
	ErrorClassExecution ErrorClass = "execution"

	// ErrorClassInternal indicates a programming-contract violation inside
	// the engine, such as invoking a phase a component does not implement.
	ErrorClassInternal ErrorClass = "internal"
)

// EngineError is a classified error with component and phase context.
// nolint:revive // EngineError is intentionally named to distinguish from standard errors
type EngineError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Component is the component path that caused the error, if applicable.
	Component string `json:"component,omitempty"`

	// Phase is the lifecycle phase being executed when the error occurred.
	Phase Phase `json:"phase,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	switch {
	case e.Component != "" && e.Phase != "":
		return fmt.Sprintf("[%s] %s (component=%s, phase=%s): %s",
			e.Class, e.Message, e.Component, e.Phase, e.unwrapMessage())
	case e.Component != "":
		return fmt.Sprintf("[%s] %s (component=%s): %s",
			e.Class, e.Message, e.Component, e.unwrapMessage())
	default:
		return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.unwrapMessage())
	}
}

// Unwrap returns the underlying error for error chain inspection.
func (e *EngineError) Unwrap() error {
	return e.Err
}

func (e *EngineError) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewConfigError creates a new config-class error.
func NewConfigError(message string, err error) *EngineError {
	return &EngineError{Class: ErrorClassConfig, Message: message, Err: err}
}

// NewExecutionError creates a new execution-class error.
func NewExecutionError(message string, err error) *EngineError {
	return &EngineError{Class: ErrorClassExecution, Message: message, Err: err}
}

// NewInternalError creates a new internal-class error.
func NewInternalError(message string, err error) *EngineError {
	return &EngineError{Class: ErrorClassInternal, Message: message, Err: err}
}

// WithComponent adds component context to the error.
func (e *EngineError) WithComponent(component string) *EngineError {
	e.Component = component
	return e
}

// WithPhase adds phase context to the error.
func (e *EngineError) WithPhase(phase Phase) *EngineError {
	e.Phase = phase
	return e
}

// WithCode adds an error code to the error.
func (e *EngineError) WithCode(code string) *EngineError {
	e.Code = code
	return e
}

// IsConfig returns true if the error is classified as a config error.
func IsConfig(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassConfig
	}
	return false
}

// IsExecution returns true if the error is classified as an execution failure.
func IsExecution(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassExecution
	}
	return false
}

// IsInternal returns true if the error is a programming-contract violation.
func IsInternal(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassInternal
	}
	return false
}

// classify wraps an arbitrary error as an execution failure, preserving an
// existing EngineError unchanged.
func classify(err error) *EngineError {
	if err == nil {
		return nil
	}
	var e *EngineError
	if errors.As(err, &e) {
		return e
	}
	return NewExecutionError("phase execution failed", err).WithCode(ErrCodeHookFailed)
}

// Common error codes.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeMissingPath       = "MISSING_PATH"
	ErrCodeHookFailed        = "HOOK_FAILED"
	ErrCodeProvisionerFailed = "PROVISIONER_FAILED"
	ErrCodeContractViolation = "CONTRACT_VIOLATION"
	ErrCodePolicyDenied      = "POLICY_DENIED"
	ErrCodeCancelled         = "CANCELLED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)
