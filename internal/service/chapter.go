package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coursedeck/coursedeck-server/internal/audit"
	"github.com/coursedeck/coursedeck-server/internal/domain"
	domainerrors "github.com/coursedeck/coursedeck-server/internal/errors"
	"github.com/coursedeck/coursedeck-server/internal/id"
	"github.com/coursedeck/coursedeck-server/internal/store"
	"github.com/coursedeck/coursedeck-server/internal/validation"
)

// ChapterService manages the ordered chapters of a course.
type ChapterService struct {
	store     *store.Store
	validator *validation.Validator
	audit     AuditRecorder
	logger    *slog.Logger
}

// NewChapterService creates a new chapter service.
func NewChapterService(
	store *store.Store,
	validator *validation.Validator,
	audit AuditRecorder,
	logger *slog.Logger,
) *ChapterService {
	return &ChapterService{
		store:     store,
		validator: validator,
		audit:     audit,
		logger:    logger,
	}
}

// CreateChapterRequest holds the fields for a new chapter.
// The order is always assigned by the store.
type CreateChapterRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url"`
	Duration    int    `json:"duration,omitempty"`
	IsPublished bool   `json:"is_published,omitempty"`
}

var chapterConflicts = []mapping{
	on(store.ErrCourseNotFound, domainerrors.NotFound(msgCourseNotFound)),
	on(store.ErrChapterNotFound, domainerrors.NotFound(msgChapterNotFound)),
	on(store.ErrAlreadyExists, domainerrors.Duplicate(msgChapterOrderTaken)),
	on(store.ErrChapterOrderRange, domainerrors.Validation(msgChapterOrderTooLarge)),
}

// CreateChapter validates the request and appends a chapter to the course.
// Input is validated before the course is looked up.
func (s *ChapterService) CreateChapter(ctx context.Context, actorID, courseID string, req CreateChapterRequest) (*domain.Chapter, error) {
	chapterID, err := id.Generate(id.PrefixChapter)
	if err != nil {
		return nil, fmt.Errorf("generate chapter ID: %w", err)
	}

	chapter := domain.NewChapter(chapterID, courseID, req.Title, req.Description, req.VideoURL, req.Duration, req.IsPublished)
	if err := s.validator.Validate(chapter); err != nil {
		return nil, err
	}

	if err := s.store.CreateChapter(ctx, chapter); err != nil {
		return nil, translate(err, "create chapter", chapterConflicts...)
	}

	s.logger.Info("chapter created",
		"id", chapter.ID,
		"course_id", courseID,
		"order", chapter.Order,
	)
	s.audit.Record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   audit.ActionChapterCreated,
		CourseID: courseID,
		TargetID: chapter.ID,
		Detail:   fmt.Sprintf("#%d %s", chapter.Order, chapter.Title),
	})

	return chapter, nil
}

// checkVisible returns the course if viewer may read its chapters.
func (s *ChapterService) checkVisible(ctx context.Context, viewer *domain.User, courseID string) (*domain.Course, error) {
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, translate(err, "get course", chapterConflicts...)
	}
	if !course.IsPublished && !canViewUnpublished(viewer) {
		return nil, domainerrors.Unauthorized(msgUnauthorized)
	}
	return course, nil
}

// ListChapters returns a course's chapters by ascending order.
// Chapters of an unpublished course are only visible to admins.
func (s *ChapterService) ListChapters(ctx context.Context, viewer *domain.User, courseID string) ([]*domain.Chapter, error) {
	if _, err := s.checkVisible(ctx, viewer, courseID); err != nil {
		return nil, err
	}

	chapters, err := s.store.ListChapters(ctx, courseID)
	if err != nil {
		return nil, translate(err, "list chapters", chapterConflicts...)
	}
	return chapters, nil
}

// GetChapter returns one chapter of a course, under the same visibility rule as ListChapters.
func (s *ChapterService) GetChapter(ctx context.Context, viewer *domain.User, courseID, chapterID string) (*domain.Chapter, error) {
	if _, err := s.checkVisible(ctx, viewer, courseID); err != nil {
		return nil, err
	}

	chapter, err := s.store.GetChapter(ctx, courseID, chapterID)
	if err != nil {
		return nil, translate(err, "get chapter", chapterConflicts...)
	}
	return chapter, nil
}

// UpdateChapter applies patch to a chapter of courseID.
// A new order must lie in 1..domain.MaxChapterOrder and be unused within the course.
func (s *ChapterService) UpdateChapter(ctx context.Context, actorID, courseID, chapterID string, patch domain.ChapterPatch) (*domain.Chapter, error) {
	if patch.Order != nil {
		switch {
		case *patch.Order < 1:
			return nil, domainerrors.Validation(msgInvalidChapterOrder)
		case *patch.Order > domain.MaxChapterOrder:
			return nil, domainerrors.Validation(msgChapterOrderTooLarge)
		}
	}

	updated, err := s.store.UpdateChapter(ctx, courseID, chapterID, func(ch *domain.Chapter) error {
		ch.Apply(patch)
		return s.validator.Validate(ch)
	})
	if err != nil {
		return nil, translate(err, "update chapter", chapterConflicts...)
	}

	s.logger.Info("chapter updated",
		"id", updated.ID,
		"course_id", courseID,
		"order", updated.Order,
	)
	s.audit.Record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   audit.ActionChapterUpdated,
		CourseID: courseID,
		TargetID: updated.ID,
		Detail:   fmt.Sprintf("#%d %s", updated.Order, updated.Title),
	})

	return updated, nil
}

// DeleteChapter removes a chapter from its course. Remaining chapters keep their order.
func (s *ChapterService) DeleteChapter(ctx context.Context, actorID, courseID, chapterID string) error {
	if err := s.store.DeleteChapter(ctx, courseID, chapterID); err != nil {
		return translate(err, "delete chapter", chapterConflicts...)
	}

	s.logger.Info("chapter deleted", "id", chapterID, "course_id", courseID)
	s.audit.Record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   audit.ActionChapterDeleted,
		CourseID: courseID,
		TargetID: chapterID,
	})

	return nil
}
