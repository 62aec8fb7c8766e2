// Package service implements the catalog operations on top of the store.
//
// Services validate and normalize input, call the store, translate store
// errors into domain errors with user-facing messages and journal the change.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursedeck/coursedeck-server/internal/audit"
	"github.com/coursedeck/coursedeck-server/internal/domain"
	domainerrors "github.com/coursedeck/coursedeck-server/internal/errors"
)

// User-facing messages.
const (
	msgUnauthorized          = "Unauthorized"
	msgCategoryNotFound      = "Category not found"
	msgSubcategoryNotFound   = "Subcategory not found"
	msgCourseNotFound        = "Course not found"
	msgChapterNotFound       = "Chapter not found"
	msgUserNotFound          = "User not found"
	msgCategoryExists        = "Category with this title already exists"
	msgSubcategoryExists     = "Subcategory with this title already exists in this category"
	msgCourseExists          = "Course with this title already exists"
	msgChapterOrderTaken     = "Chapter order already in use"
	msgSubcategoryMismatch   = "Subcategory does not belong to this category"
	msgCourseNotPublished    = "Course is not published"
	msgAlreadyEnrolled       = "Already enrolled in this course"
	msgEmailTaken            = "An account with this email already exists"
	msgInvalidCredentials    = "Invalid email or password"
	msgInvalidRefreshToken   = "Invalid or expired refresh token"
	msgAlreadyConfigured     = "Server is already configured"
	msgInvalidChapterOrder   = "Chapter order must be at least 1"
	msgChapterOrderTooLarge  = "Chapter order must be at most 1000000"
	msgInvalidAccessToken    = "Invalid access token"
	msgExpiredAccessToken    = "Access token expired"
	msgPasswordLengthInvalid = "Password must be between 8 and 1024 characters"
)

// AuditRecorder journals committed changes. Failures are the recorder's concern.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, audit.Entry) {}

// NewNoopAuditRecorder returns a recorder that drops every entry.
func NewNoopAuditRecorder() AuditRecorder {
	return noopAuditRecorder{}
}

// mapping pairs a store error with the domain error it becomes.
type mapping struct {
	target error
	to     *domainerrors.Error
}

func on(target error, to *domainerrors.Error) mapping {
	return mapping{target: target, to: to}
}

// translate converts a store error into a domain error using the first matching mapping.
// Domain errors and context errors pass through unchanged; anything else is wrapped with op.
func translate(err error, op string, mappings ...mapping) error {
	if err == nil {
		return nil
	}

	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m.to.WithCause(err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// canViewUnpublished reports whether viewer may read content of unpublished courses.
// A nil viewer is anonymous.
func canViewUnpublished(viewer *domain.User) bool {
	return viewer != nil && viewer.IsAdmin()
}
