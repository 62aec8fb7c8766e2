package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coursedeck/coursedeck-server/internal/audit"
	"github.com/coursedeck/coursedeck-server/internal/domain"
	domainerrors "github.com/coursedeck/coursedeck-server/internal/errors"
	"github.com/coursedeck/coursedeck-server/internal/id"
	"github.com/coursedeck/coursedeck-server/internal/search"
	"github.com/coursedeck/coursedeck-server/internal/store"
	"github.com/coursedeck/coursedeck-server/internal/validation"
)

// CourseService manages courses and their lookups.
type CourseService struct {
	store     *store.Store
	search    *search.CourseIndex
	validator *validation.Validator
	audit     AuditRecorder
	logger    *slog.Logger
}

// NewCourseService creates a new course service.
// search may be nil, in which case SearchCourses reports an internal error.
func NewCourseService(
	store *store.Store,
	searchIndex *search.CourseIndex,
	validator *validation.Validator,
	audit AuditRecorder,
	logger *slog.Logger,
) *CourseService {
	return &CourseService{
		store:     store,
		search:    searchIndex,
		validator: validator,
		audit:     audit,
		logger:    logger,
	}
}

// CreateCourseRequest holds the fields for a new course.
type CreateCourseRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	CategoryID    string `json:"category_id"`
	SubcategoryID string `json:"subcategory_id"`
	Thumbnail     string `json:"thumbnail,omitempty"`
}

var courseConflicts = []mapping{
	on(store.ErrCourseNotFound, domainerrors.NotFound(msgCourseNotFound)),
	on(store.ErrCategoryNotFound, domainerrors.NotFound(msgCategoryNotFound)),
	on(store.ErrSubcategoryNotFound, domainerrors.NotFound(msgSubcategoryNotFound)),
	on(store.ErrSubcategoryMismatch, domainerrors.Validation(msgSubcategoryMismatch)),
	on(store.ErrAlreadyExists, domainerrors.Duplicate(msgCourseExists)),
}

// CreateCourse creates an unpublished course owned by creatorID.
func (s *CourseService) CreateCourse(ctx context.Context, creatorID string, req CreateCourseRequest) (*store.CourseView, error) {
	courseID, err := id.Generate(id.PrefixCourse)
	if err != nil {
		return nil, fmt.Errorf("generate course ID: %w", err)
	}

	course := domain.NewCourse(
		courseID,
		req.Title,
		req.Description,
		strings.TrimSpace(req.CategoryID),
		strings.TrimSpace(req.SubcategoryID),
		creatorID,
		strings.TrimSpace(req.Thumbnail),
	)
	if err := s.validator.Validate(course); err != nil {
		return nil, err
	}

	if err := s.store.CreateCourse(ctx, course); err != nil {
		return nil, translate(err, "create course", courseConflicts...)
	}

	s.logger.Info("course created", "id", course.ID, "slug", course.Slug, "created_by", creatorID)
	s.audit.Record(ctx, audit.Entry{
		ActorID:  creatorID,
		Action:   audit.ActionCourseCreated,
		CourseID: course.ID,
		Detail:   course.Title,
	})

	return s.GetCourse(ctx, course.ID)
}

// GetCourse returns a course with taxonomy, creator and chapters resolved.
func (s *CourseService) GetCourse(ctx context.Context, courseID string) (*store.CourseView, error) {
	view, err := s.store.GetCourseView(ctx, courseID)
	if err != nil {
		return nil, translate(err, "get course", courseConflicts...)
	}
	return view, nil
}

// UpdateCourse applies patch to a course. The slug follows the title and
// taxonomy references are re-checked when either changes.
func (s *CourseService) UpdateCourse(ctx context.Context, actorID, courseID string, patch domain.CoursePatch) (*store.CourseView, error) {
	updated, err := s.store.UpdateCourse(ctx, courseID, func(c *domain.Course) error {
		c.Apply(patch)
		return s.validator.Validate(c)
	})
	if err != nil {
		return nil, translate(err, "update course", courseConflicts...)
	}

	s.logger.Info("course updated",
		"id", updated.ID,
		"slug", updated.Slug,
		"published", updated.IsPublished,
	)
	s.audit.Record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   audit.ActionCourseUpdated,
		CourseID: updated.ID,
		Detail:   updated.Title,
	})

	return s.GetCourse(ctx, updated.ID)
}

// DeleteCourse removes a course, its chapters and every enrollment in it.
func (s *CourseService) DeleteCourse(ctx context.Context, actorID, courseID string) error {
	removal, err := s.store.DeleteCourse(ctx, courseID)
	if err != nil {
		return translate(err, "delete course", courseConflicts...)
	}

	s.logger.Info("course deleted",
		"id", courseID,
		"chapters", len(removal.ChapterIDs),
		"students", len(removal.StudentIDs),
	)
	s.audit.Record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   audit.ActionCourseDeleted,
		CourseID: courseID,
		Detail:   fmt.Sprintf("%s (%d chapters, %d students)", removal.Course.Title, len(removal.ChapterIDs), len(removal.StudentIDs)),
	})

	return nil
}

// ListCourses returns courses matching filter, newest first.
func (s *CourseService) ListCourses(ctx context.Context, filter store.CourseFilter) ([]*store.CourseView, error) {
	views, err := s.store.ListCourseViews(ctx, filter)
	if err != nil {
		return nil, translate(err, "list courses")
	}
	return views, nil
}

// ListEnrolledCourses returns the courses userID is enrolled in, newest first.
func (s *CourseService) ListEnrolledCourses(ctx context.Context, userID string) ([]*store.CourseView, error) {
	views, err := s.store.EnrolledCourses(ctx, userID)
	if err != nil {
		return nil, translate(err, "list enrolled courses", on(store.ErrUserNotFound, domainerrors.NotFound(msgUserNotFound)))
	}
	return views, nil
}

// SearchCourses runs a full-text search over published courses.
func (s *CourseService) SearchCourses(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	if s.search == nil {
		return nil, domainerrors.Internal("search is not available")
	}

	params.PublishedOnly = true
	result, err := s.search.Search(ctx, params)
	if err != nil {
		return nil, translate(err, "search courses")
	}
	return result, nil
}

// EnsureSearchIndex fills an empty search index from the store.
// Returns the number of courses indexed.
func (s *CourseService) EnsureSearchIndex(ctx context.Context) (int, error) {
	if s.search == nil {
		return 0, nil
	}

	count, err := s.search.DocumentCount()
	if err != nil {
		return 0, fmt.Errorf("count indexed courses: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	courses, err := s.store.ListCourses(ctx, store.CourseFilter{})
	if err != nil {
		return 0, fmt.Errorf("list courses: %w", err)
	}
	if len(courses) == 0 {
		return 0, nil
	}

	if err := s.search.IndexCourses(ctx, courses); err != nil {
		return 0, fmt.Errorf("index courses: %w", err)
	}

	s.logger.Info("search index rebuilt", "courses", len(courses))
	return len(courses), nil
}
