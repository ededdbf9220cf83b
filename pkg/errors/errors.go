// Package errors provides custom error types for the price-visibility-booster
// system. These errors enable programmatic error checking across the fetch,
// reconcile, and output stages, and carry diagnostic context such as partial
// result counts when a run aborts.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the price-visibility-booster system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrRetryExhausted indicates that a transient endpoint error persisted
	// past the retry bound of the active retry policy
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrEmptyInput indicates that a stage was invoked with no upstream
	// records to process
	ErrEmptyInput = errors.New("no input records")

	// ErrAuthRequired indicates that endpoint credentials are required but
	// not configured
	ErrAuthRequired = errors.New("credentials required")
)

// APIError represents an error object reported by a merchant endpoint.
type APIError struct {
	Endpoint string
	Code     int
	Message  string
	Err      error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("API error from %s (code %d): %s", e.Endpoint, e.Code, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Endpoint, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new APIError
func NewAPIError(endpoint string, code int, message string) *APIError {
	return &APIError{
		Endpoint: endpoint,
		Code:     code,
		Message:  message,
	}
}

// RetryExhaustedError represents a transient endpoint error that persisted
// past the retry bound. PartialCount records how many rows had been
// accumulated before the run aborted, for diagnostics only; partial results
// are never persisted.
type RetryExhaustedError struct {
	Endpoint     string
	Attempts     int
	PartialCount int
	Err          error
}

// Error implements the error interface
func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%s: gave up after %d retries (%d rows accumulated): %v",
		e.Endpoint, e.Attempts, e.PartialCount, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *RetryExhaustedError) Is(target error) bool {
	return target == ErrRetryExhausted
}

// EmptyInputError represents a stage invoked with nothing to process.
// This is a fatal, run-aborting condition.
type EmptyInputError struct {
	Stage   string
	Message string
}

// Error implements the error interface
func (e *EmptyInputError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: no input records", e.Stage)
}

// Is implements errors.Is support
func (e *EmptyInputError) Is(target error) bool {
	return target == ErrEmptyInput
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "csv", etc.
	Source  string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("parse error in %s %s: %s", e.Format, e.Source, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, source string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, Source: source, Message: err.Error(), Err: err}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "delete", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Message: err.Error(), Err: err}
}

// AuthenticationError represents an authentication/authorization error
type AuthenticationError struct {
	Method  string // "token", "adc", etc.
	Message string
	Err     error
}

// Error implements the error interface
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication error (%s): %s", e.Method, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthRequired
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryExhausted checks if an error is a retry exhaustion error
func IsRetryExhausted(err error) bool {
	return errors.Is(err, ErrRetryExhausted)
}

// IsEmptyInput checks if an error is an empty input error
func IsEmptyInput(err error) bool {
	return errors.Is(err, ErrEmptyInput)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
