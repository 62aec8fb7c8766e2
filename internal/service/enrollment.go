package service

import (
	"context"
	"log/slog"

	"github.com/coursedeck/coursedeck-server/internal/audit"
	domainerrors "github.com/coursedeck/coursedeck-server/internal/errors"
	"github.com/coursedeck/coursedeck-server/internal/store"
)

// EnrollmentService pairs students with published courses.
type EnrollmentService struct {
	store  *store.Store
	audit  AuditRecorder
	logger *slog.Logger
}

// NewEnrollmentService creates a new enrollment service.
func NewEnrollmentService(store *store.Store, audit AuditRecorder, logger *slog.Logger) *EnrollmentService {
	return &EnrollmentService{
		store:  store,
		audit:  audit,
		logger: logger,
	}
}

// ErrAlreadyEnrolled must be matched before the generic conflict sentinel.
var enrollmentConflicts = []mapping{
	on(store.ErrCourseNotFound, domainerrors.NotFound(msgCourseNotFound)),
	on(store.ErrUserNotFound, domainerrors.NotFound(msgUserNotFound)),
	on(store.ErrCourseNotPublished, domainerrors.Validation(msgCourseNotPublished)),
	on(store.ErrAlreadyEnrolled, domainerrors.Duplicate(msgAlreadyEnrolled)),
}

// Enroll adds userID to a published course.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID string) (*store.Enrollment, error) {
	enrollment, err := s.store.Enroll(ctx, userID, courseID)
	if err != nil {
		return nil, translate(err, "enroll", enrollmentConflicts...)
	}

	s.logger.Info("student enrolled",
		"user_id", userID,
		"course_id", courseID,
		"students", enrollment.Course.EnrollmentCount(),
	)
	s.audit.Record(ctx, audit.Entry{
		ActorID:  userID,
		Action:   audit.ActionEnrolled,
		CourseID: courseID,
		TargetID: userID,
	})

	return enrollment, nil
}

// Unenroll removes userID from a course. Unenrolling twice is not an error.
func (s *EnrollmentService) Unenroll(ctx context.Context, userID, courseID string) (*store.Enrollment, error) {
	enrollment, err := s.store.Unenroll(ctx, userID, courseID)
	if err != nil {
		return nil, translate(err, "unenroll", enrollmentConflicts...)
	}

	s.logger.Info("student unenrolled", "user_id", userID, "course_id", courseID)
	s.audit.Record(ctx, audit.Entry{
		ActorID:  userID,
		Action:   audit.ActionUnenrolled,
		CourseID: courseID,
		TargetID: userID,
	})

	return enrollment, nil
}
