package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Rolodex error code.
type ErrorCode string

const (
	ErrInvalidRequest         ErrorCode = "INVALID_REQUEST"          // 400
	ErrNotFound               ErrorCode = "NOT_FOUND"                // 404
	ErrFileNotFound           ErrorCode = "FILE_NOT_FOUND"           // 404
	ErrInvalidCategories      ErrorCode = "INVALID_CATEGORIES"       // 422
	ErrPersistenceReadCorrupt ErrorCode = "PERSISTENCE_READ_CORRUPT" // 500
	ErrPersistenceReadFailed  ErrorCode = "PERSISTENCE_READ_FAILED"  // 503
	ErrPersistenceWriteFailed ErrorCode = "PERSISTENCE_WRITE_FAILED" // 507
	ErrInternal               ErrorCode = "INTERNAL"                 // 500
)

// RolodexError represents a structured error with code, status, and details.
type RolodexError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// Err is the underlying cause, if any. Not exposed to clients.
	Err error
}

// Error implements the error interface.
func (e *RolodexError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RolodexError) Unwrap() error {
	return e.Err
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *RolodexError {
	return &RolodexError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a contact cannot be found.
func NewNotFound(id string) *RolodexError {
	return &RolodexError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("contact not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import or category file.
func NewFileNotFound(path string) *RolodexError {
	return &RolodexError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewInvalidCategories creates a 422 error for a category forest that fails validation.
func NewInvalidCategories(problems []string) *RolodexError {
	return &RolodexError{
		Code:    ErrInvalidCategories,
		Status:  422,
		Message: fmt.Sprintf("invalid category configuration: %v", problems),
		Details: map[string]any{"problems": problems},
	}
}

// NewPersistenceReadCorrupt creates an error for a stored value that does not
// decode as a list of contacts. The store has already fallen back to empty.
func NewPersistenceReadCorrupt(key string, err error) *RolodexError {
	return &RolodexError{
		Code:    ErrPersistenceReadCorrupt,
		Status:  500,
		Message: fmt.Sprintf("stored contacts under %q are corrupt; starting with an empty list", key),
		Details: map[string]any{"key": key},
		Err:     err,
	}
}

// NewPersistenceReadFailed creates a 503 error for a failed read from the persistence channel.
func NewPersistenceReadFailed(key string, err error) *RolodexError {
	return &RolodexError{
		Code:    ErrPersistenceReadFailed,
		Status:  503,
		Message: fmt.Sprintf("could not read stored contacts under %q", key),
		Details: map[string]any{"key": key},
		Err:     err,
	}
}

// NewPersistenceWriteFailed creates a 507 error for a rejected write. The
// in-memory change already took effect and lives only for this session.
func NewPersistenceWriteFailed(key string, err error) *RolodexError {
	return &RolodexError{
		Code:    ErrPersistenceWriteFailed,
		Status:  507,
		Message: "contacts could not be persisted; changes are kept for this session only",
		Details: map[string]any{"key": key},
		Err:     err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *RolodexError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &RolodexError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Err:     err,
	}
}

// Is checks if an error (or anything it wraps) is a RolodexError with the given code.
func Is(err error, code ErrorCode) bool {
	var rErr *RolodexError
	if stderrors.As(err, &rErr) {
		return rErr.Code == code
	}
	return false
}

// As extracts a RolodexError from err, converting anything else to INTERNAL.
func As(err error) *RolodexError {
	var rErr *RolodexError
	if stderrors.As(err, &rErr) {
		return rErr
	}
	return NewInternal(err)
}
