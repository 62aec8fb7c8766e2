package store

import (
	"fmt"
	"net/http"
)

// Error is a store error with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)

	// generic sentinels match any store error that shares their code.
	generic bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is this error, or the generic sentinel for this error's status.
// ErrCourseNotFound therefore matches both ErrCourseNotFound and ErrNotFound.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t == e {
		return true
	}
	return t.generic && t.Code == e.Code
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{
		Code:    e.Code,
		Message: msg,
		Err:     e.Err,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Generic sentinels.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
		generic: true,
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
		generic: true,
	}

	ErrInvalidInput = &Error{
		Code:    http.StatusBadRequest,
		Message: "invalid input",
		generic: true,
	}
)

// Entity-specific errors.
var (
	ErrCategoryNotFound    = &Error{Code: http.StatusNotFound, Message: "category not found"}
	ErrSubcategoryNotFound = &Error{Code: http.StatusNotFound, Message: "subcategory not found"}
	ErrCourseNotFound      = &Error{Code: http.StatusNotFound, Message: "course not found"}
	ErrChapterNotFound     = &Error{Code: http.StatusNotFound, Message: "chapter not found"}
	ErrUserNotFound        = &Error{Code: http.StatusNotFound, Message: "user not found"}
	ErrSessionNotFound     = &Error{Code: http.StatusNotFound, Message: "session not found"}

	ErrSessionExpired     = &Error{Code: http.StatusUnauthorized, Message: "session expired"}
	ErrCourseNotPublished = &Error{Code: http.StatusBadRequest, Message: "course is not published"}
	ErrAlreadyEnrolled    = &Error{Code: http.StatusConflict, Message: "already enrolled"}
	ErrAdminExists        = &Error{Code: http.StatusConflict, Message: "an admin account already exists"}
)

// ErrChapterOrderRange is returned when a chapter order would fall outside
// 1..domain.MaxChapterOrder, including when a course has no order left to assign.
var ErrChapterOrderRange = &Error{Code: http.StatusBadRequest, Message: "chapter order out of range"}

// ErrSubcategoryMismatch is returned when a course names a subcategory that
// belongs to a different category.
var ErrSubcategoryMismatch = &Error{Code: http.StatusBadRequest, Message: "subcategory does not belong to category"}
