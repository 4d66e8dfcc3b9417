package util

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Common error types for the shardexec CLI
var (
	// ErrInvalidConfig indicates a configuration error
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrShardNotFound indicates a shard is not configured or not connected
	ErrShardNotFound = errors.New("shard not found")

	// ErrConnectionFailed indicates a connection failure
	ErrConnectionFailed = errors.New("connection failed")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCancelled indicates an operation was cancelled
	ErrCancelled = errors.New("operation cancelled")

	// ErrInvalidPlan indicates a malformed execution plan
	ErrInvalidPlan = errors.New("invalid execution plan")

	// ErrAlreadyExists indicates a shard already exists
	ErrAlreadyExists = errors.New("already exists")
)

// ShardError wraps an error with shard context
type ShardError struct {
	ShardName string
	Err       error
}

// Error implements the error interface
func (e *ShardError) Error() string {
	return fmt.Sprintf("shard %q: %v", e.ShardName, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As compatibility
func (e *ShardError) Unwrap() error {
	return e.Err
}

// WrapShardError wraps an error with shard context
func WrapShardError(shardName string, err error) error {
	if err == nil {
		return nil
	}
	return &ShardError{
		ShardName: shardName,
		Err:       err,
	}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	if v.Value != nil {
		return fmt.Sprintf("validation failed for field %q (value: %v): %s", v.Field, v.Value, v.Message)
	}
	return fmt.Sprintf("validation failed for field %q: %s", v.Field, v.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidConfig) match validation failures
func (v *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsCancelled checks if an error is a cancellation error
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrShardNotFound)
}

// IsConnectionError checks if an error is a connection error
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// FriendlyError converts technical errors to user-friendly messages
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case IsTimeout(err):
		return "Operation timed out. Please try again or increase the timeout value with --timeout flag."
	case IsCancelled(err):
		return "Operation was cancelled."
	case IsNotFound(err):
		return "Shard not found. Please check the shard name with 'shardexec shard list'."
	case IsConnectionError(err):
		return "Failed to connect to shard. Please check the DSN and network connectivity."
	case errors.Is(err, ErrInvalidConfig):
		return "Invalid configuration. Please check your config file and command-line flags."
	case errors.Is(err, ErrInvalidPlan):
		return "Invalid execution plan. Every unit needs a shard and SQL text."
	case errors.Is(err, ErrAlreadyExists):
		return "Shard already exists. Use a different name or remove the existing shard first."
	default:
		return err.Error()
	}
}

// CombineErrors combines multiple errors into a single error
// Returns nil if all errors are nil
func CombineErrors(errs ...error) error {
	return multierr.Combine(errs...)
}

// Errors splits an error produced by CombineErrors back into its parts
func Errors(err error) []error {
	return multierr.Errors(err)
}

// WrapErrorf wraps an error with a formatted message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
