// Package errors defines the error taxonomy shared by the pipeline components.
package errors

import (
	"errors"
	"fmt"
)

// ErrCode classifies an AppError.
type ErrCode string

const (
	ErrCodeConfiguration ErrCode = "CONFIGURATION"
	ErrCodeUpstream      ErrCode = "UPSTREAM"
	ErrCodeFilesystem    ErrCode = "FILESYSTEM"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewConfigurationError reports a missing or invalid setting.
func NewConfigurationError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeConfiguration,
		Message: message,
		Err:     err,
	}
}

// NewUpstreamError reports a failed or malformed response from GitHub.
func NewUpstreamError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeUpstream,
		Message: message,
		Err:     err,
	}
}

// NewFilesystemError reports a cache directory or file that could not be written.
func NewFilesystemError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeFilesystem,
		Message: message,
		Err:     err,
	}
}

// IsConfiguration checks if err wraps a configuration error.
func IsConfiguration(err error) bool {
	return hasCode(err, ErrCodeConfiguration)
}

// IsUpstream checks if err wraps an upstream error.
func IsUpstream(err error) bool {
	return hasCode(err, ErrCodeUpstream)
}

// IsFilesystem checks if err wraps a filesystem error.
func IsFilesystem(err error) bool {
	return hasCode(err, ErrCodeFilesystem)
}

func hasCode(err error, code ErrCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
