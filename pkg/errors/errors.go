// Package errors provides structured error types for the leaderboard.
//
// Errors crossing a component boundary (configuration loading, credential
// refresh, activity fetching, snapshot persistence) use these types so that
// logging and per-athlete failure reporting stay consistent.
package errors

import (
	"fmt"
)

// ErrorCode represents a unique error identifier for categorization.
type ErrorCode string

// Common error codes used throughout the leaderboard.
const (
	// Configuration errors
	CodeConfigMissing ErrorCode = "CONFIG_MISSING"
	CodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Integration errors
	CodeTokenRefreshFailed     ErrorCode = "TOKEN_REFRESH_FAILED"
	CodeIntegrationAuthFailed  ErrorCode = "INTEGRATION_AUTH_FAILED"
	CodeIntegrationRateLimited ErrorCode = "INTEGRATION_RATE_LIMITED"

	// Activity errors
	CodeActivityFetchFailed   ErrorCode = "ACTIVITY_FETCH_FAILED"
	CodeActivityInvalidFormat ErrorCode = "ACTIVITY_INVALID_FORMAT"

	// Snapshot errors
	CodeSnapshotFetchFailed ErrorCode = "SNAPSHOT_FETCH_FAILED"
	CodeSnapshotInvalid     ErrorCode = "SNAPSHOT_INVALID"

	// Infrastructure errors
	CodeStorageError ErrorCode = "STORAGE_ERROR"
	CodePubSubError  ErrorCode = "PUBSUB_ERROR"
	CodeSecretError  ErrorCode = "SECRET_ERROR"

	// General errors
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeTimeoutError  ErrorCode = "TIMEOUT_ERROR"
)

// LeaderboardError is the base error type for all leaderboard errors.
// It carries an error code, retry semantics and contextual metadata.
type LeaderboardError struct {
	Code      ErrorCode         // Unique error code for categorization
	Message   string            // Human-readable error message
	Cause     error             // Underlying error (if any)
	Retryable bool              // Whether the operation could succeed if repeated
	Metadata  map[string]string // Additional context
}

// Error implements the error interface.
func (e *LeaderboardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *LeaderboardError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a LeaderboardError with the same code, so
// sentinels still match after WithCause/WithMessage copies.
func (e *LeaderboardError) Is(target error) bool {
	t, ok := target.(*LeaderboardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause wraps an underlying error.
func (e *LeaderboardError) WithCause(cause error) *LeaderboardError {
	return &LeaderboardError{
		Code:      e.Code,
		Message:   e.Message,
		Cause:     cause,
		Retryable: e.Retryable,
		Metadata:  e.Metadata,
	}
}

// WithMessage adds a custom message.
func (e *LeaderboardError) WithMessage(msg string) *LeaderboardError {
	return &LeaderboardError{
		Code:      e.Code,
		Message:   msg,
		Cause:     e.Cause,
		Retryable: e.Retryable,
		Metadata:  e.Metadata,
	}
}

// WithMetadata adds contextual metadata.
func (e *LeaderboardError) WithMetadata(key, value string) *LeaderboardError {
	meta := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	meta[key] = value
	return &LeaderboardError{
		Code:      e.Code,
		Message:   e.Message,
		Cause:     e.Cause,
		Retryable: e.Retryable,
		Metadata:  meta,
	}
}

// Pre-defined sentinel errors for common cases.
// Use these with errors.Is() or wrap them with .WithCause().
var (
	// Configuration errors
	ErrConfigMissing = &LeaderboardError{Code: CodeConfigMissing, Message: "missing required configuration", Retryable: false}
	ErrConfigInvalid = &LeaderboardError{Code: CodeConfigInvalid, Message: "invalid configuration", Retryable: false}

	// Integration errors
	ErrTokenRefreshFailed     = &LeaderboardError{Code: CodeTokenRefreshFailed, Message: "failed to get access token", Retryable: true}
	ErrIntegrationAuthFailed  = &LeaderboardError{Code: CodeIntegrationAuthFailed, Message: "integration authentication failed", Retryable: false}
	ErrIntegrationRateLimited = &LeaderboardError{Code: CodeIntegrationRateLimited, Message: "integration rate limited", Retryable: true}

	// Activity errors
	ErrActivityFetchFailed   = &LeaderboardError{Code: CodeActivityFetchFailed, Message: "failed to fetch activities", Retryable: true}
	ErrActivityInvalidFormat = &LeaderboardError{Code: CodeActivityInvalidFormat, Message: "invalid activity format", Retryable: false}

	// Snapshot errors
	ErrSnapshotFetchFailed = &LeaderboardError{Code: CodeSnapshotFetchFailed, Message: "failed to fetch data", Retryable: true}
	ErrSnapshotInvalid     = &LeaderboardError{Code: CodeSnapshotInvalid, Message: "invalid snapshot document", Retryable: false}

	// Infrastructure errors
	ErrStorageError = &LeaderboardError{Code: CodeStorageError, Message: "storage error", Retryable: true}
	ErrPubSubError  = &LeaderboardError{Code: CodePubSubError, Message: "pubsub error", Retryable: true}
	ErrSecretError  = &LeaderboardError{Code: CodeSecretError, Message: "secret access error", Retryable: true}

	// General errors
	ErrInternal = &LeaderboardError{Code: CodeInternalError, Message: "internal error", Retryable: false}
	ErrTimeout  = &LeaderboardError{Code: CodeTimeoutError, Message: "timeout", Retryable: true}
)

// New creates a new LeaderboardError with the given code and message.
func New(code ErrorCode, message string) *LeaderboardError {
	return &LeaderboardError{
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// NewRetryable creates a new retryable LeaderboardError.
func NewRetryable(code ErrorCode, message string) *LeaderboardError {
	return &LeaderboardError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// Wrap wraps an error with a LeaderboardError.
func Wrap(cause error, code ErrorCode, message string) *LeaderboardError {
	return &LeaderboardError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: false,
	}
}

// WrapRetryable wraps an error with a retryable LeaderboardError.
func WrapRetryable(cause error, code ErrorCode, message string) *LeaderboardError {
	return &LeaderboardError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: true,
	}
}

// IsRetryable checks if an error, or any error it wraps, is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if lbErr := asLeaderboardError(err); lbErr != nil {
		return lbErr.Retryable
	}
	return false
}

// GetCode extracts the error code from an error, if available.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if lbErr := asLeaderboardError(err); lbErr != nil {
		return lbErr.Code
	}
	return CodeInternalError
}

func asLeaderboardError(err error) *LeaderboardError {
	for err != nil {
		if lbErr, ok := err.(*LeaderboardError); ok {
			return lbErr
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}
