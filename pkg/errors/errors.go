package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Comparison errors
	ErrKindMismatch ErrorCode = "KIND_MISMATCH"
	ErrExtraction   ErrorCode = "EXTRACTION"

	// Isolation errors
	ErrIsolationSetup ErrorCode = "ISOLATION_SETUP"

	// Scenario errors
	ErrScenarioInvalid ErrorCode = "SCENARIO_INVALID"
	ErrHookFailed      ErrorCode = "HOOK_FAILED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
)

// ScenarioError represents a structured error with code and details
type ScenarioError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ScenarioError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ScenarioError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *ScenarioError) Is(target error) bool {
	var targetErr *ScenarioError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new ScenarioError with the given code and message
func New(code ErrorCode, message string) *ScenarioError {
	return &ScenarioError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ScenarioError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ScenarioError {
	return &ScenarioError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ScenarioError
func Wrap(err error, code ErrorCode, message string) *ScenarioError {
	if err == nil {
		return nil
	}
	return &ScenarioError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ScenarioError {
	if err == nil {
		return nil
	}
	return &ScenarioError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *ScenarioError) WithDetail(key string, value interface{}) *ScenarioError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var scenarioErr *ScenarioError
	if errors.As(err, &scenarioErr) {
		return scenarioErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a ScenarioError
func GetErrorCode(err error) ErrorCode {
	var scenarioErr *ScenarioError
	if errors.As(err, &scenarioErr) {
		return scenarioErr.Code
	}
	return ErrUnknown
}
