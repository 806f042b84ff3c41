// Package errors defines common error types for the application.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown         = "UNKNOWN_ERROR"
	CodeDatabaseError   = "DATABASE_ERROR"
	CodeUploadError     = "UPLOAD_ERROR"
	CodeDownloadError   = "DOWNLOAD_ERROR"
	CodeBuildError      = "BUILD_ERROR"
	CodeEmptyScene      = "EMPTY_SCENE"
	CodeUnsupportedDim  = "UNSUPPORTED_DIMENSIONALITY"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeTimeout         = "TIMEOUT_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeConfigError     = "CONFIG_ERROR"
	CodeDeviceSyncError = "DEVICE_SYNC_ERROR"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	ErrDatabaseError   = New(CodeDatabaseError, "database error")
	ErrUploadError     = New(CodeUploadError, "upload error")
	ErrDownloadError   = New(CodeDownloadError, "download error")
	ErrBuildError      = New(CodeBuildError, "build error")
	ErrEmptyScene      = New(CodeEmptyScene, "scene has no non-empty primitives")
	ErrUnsupportedDim  = New(CodeUnsupportedDim, "unsupported dimensionality")
	ErrInvalidInput    = New(CodeInvalidInput, "invalid input")
	ErrTimeout         = New(CodeTimeout, "operation timeout")
	ErrNotFound        = New(CodeNotFound, "resource not found")
	ErrConfigError     = New(CodeConfigError, "configuration error")
	ErrDeviceSyncError = New(CodeDeviceSyncError, "device synchronization error")
)

// IsDatabaseError checks if the error is a database error.
func IsDatabaseError(err error) bool {
	return errors.Is(err, ErrDatabaseError)
}

// IsUploadError checks if the error is an upload error.
func IsUploadError(err error) bool {
	return errors.Is(err, ErrUploadError)
}

// IsDownloadError checks if the error is a download error.
func IsDownloadError(err error) bool {
	return errors.Is(err, ErrDownloadError)
}

// IsBuildError checks if the error is a build error.
func IsBuildError(err error) bool {
	return errors.Is(err, ErrBuildError)
}

// IsEmptySceneError checks if the error is an empty-scene error.
func IsEmptySceneError(err error) bool {
	return errors.Is(err, ErrEmptyScene)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// ErrorInfo maps short error names to their code, for callers that
// classify errors coming back across the CLI/service boundary.
var ErrorInfo = map[string]string{
	"DatabaseError":  CodeDatabaseError,
	"UploadError":    CodeUploadError,
	"DownloadError":  CodeDownloadError,
	"BuildError":     CodeBuildError,
	"EmptyScene":     CodeEmptyScene,
	"UnsupportedDim": CodeUnsupportedDim,
}
