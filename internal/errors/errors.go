package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Spare Time error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"   // 400
	ErrInvalidFrameSet ErrorCode = "INVALID_FRAME_SET" // 400
	ErrNotFound        ErrorCode = "NOT_FOUND"         // 404
	ErrFileNotFound    ErrorCode = "FILE_NOT_FOUND"    // 404
	ErrMatchNotEmpty   ErrorCode = "MATCH_NOT_EMPTY"   // 409
	ErrConflict        ErrorCode = "CONFLICT"          // 409
	ErrFileTooLarge    ErrorCode = "FILE_TOO_LARGE"    // 413
	ErrInvalidFrame    ErrorCode = "INVALID_FRAME"     // 422
	ErrCancelled       ErrorCode = "CANCELLED"         // 499
	ErrInternal        ErrorCode = "INTERNAL"          // 500
)

// AppError represents a structured error with code, status, and details.
type AppError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidFrameSet creates a 400 error for a frame collection that breaks the
// card contract (wrong count, duplicate or out-of-range frame numbers).
func NewInvalidFrameSet(msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidFrameSet,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidFrame creates a 422 error when entered shots are not legal for the rack.
func NewInvalidFrame(number int, msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidFrame,
		Status:  422,
		Message: fmt.Sprintf("frame %d: %s", number, msg),
		Details: map[string]any{"frame_number": number},
	}
}

// NewNotFound creates a 404 error for when a match cannot be found.
func NewNotFound(identifier string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("match not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *AppError {
	return &AppError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewMatchNotEmpty creates a 409 error when an empty-only delete hits a match with frames.
func NewMatchNotEmpty(id string, frames int) *AppError {
	return &AppError{
		Code:    ErrMatchNotEmpty,
		Status:  409,
		Message: fmt.Sprintf("match %s has %d recorded frames", id, frames),
		Details: map[string]any{"id": id, "frames": frames},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewFileTooLarge creates a 413 error when an import file exceeds the size limit.
func NewFileTooLarge(max, actual int64) *AppError {
	return &AppError{
		Code:    ErrFileTooLarge,
		Status:  413,
		Message: fmt.Sprintf("file exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewCancelled creates a 499 error when the caller's context ends mid-operation.
func NewCancelled(operation string) *AppError {
	return &AppError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AppError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if an error is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}
