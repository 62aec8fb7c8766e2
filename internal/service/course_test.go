package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedeck/coursedeck-server/internal/audit"
	"github.com/coursedeck/coursedeck-server/internal/domain"
	domainerrors "github.com/coursedeck/coursedeck-server/internal/errors"
	"github.com/coursedeck/coursedeck-server/internal/search"
	"github.com/coursedeck/coursedeck-server/internal/store"
	"github.com/coursedeck/coursedeck-server/internal/validation"
)

func TestCourseService_CreateCourse(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t)

	course, err := env.courses.CreateCourse(context.Background(), c.admin.ID, CreateCourseRequest{
		Title:         "Go Fundamentals",
		Description:   "Types, interfaces and goroutines",
		CategoryID:    c.category.ID,
		SubcategoryID: c.subcategory.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "go-fundamentals", course.Slug)
	assert.False(t, course.IsPublished)
	assert.Equal(t, domain.DefaultThumbnail, course.Thumbnail)
	assert.Empty(t, course.ChapterIDs)
	assert.Zero(t, course.EnrollmentCount())
	require.NotNil(t, course.Category)
	assert.Equal(t, "Programming", course.Category.Title)
	require.NotNil(t, course.Subcategory)
	assert.Equal(t, "Go", course.Subcategory.Title)
	require.NotNil(t, course.Creator)
	assert.Equal(t, "Ada Admin", course.Creator.Name)
}

func TestCourseService_CreateCourse_Errors(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t)
	ctx := context.Background()

	env.createCourse(t, c, "Go Fundamentals", false)

	_, err := env.courses.CreateCourse(ctx, c.admin.ID, CreateCourseRequest{Title: "No description", CategoryID: c.category.ID})
	assertDomainError(t, err, domainerrors.CodeValidation, "Missing required fields")

	_, err = env.courses.CreateCourse(ctx, c.admin.ID, CreateCourseRequest{
		Title:         "go fundamentals",
		Description:   "Same slug",
		CategoryID:    c.category.ID,
		SubcategoryID: c.subcategory.ID,
	})
	assertDomainError(t, err, domainerrors.CodeDuplicate, "Course with this title already exists")

	_, err = env.courses.CreateCourse(ctx, c.admin.ID, CreateCourseRequest{
		Title:         "Orphan",
		Description:   "Unknown category",
		CategoryID:    "cat-missing",
		SubcategoryID: c.subcategory.ID,
	})
	assertDomainError(t, err, domainerrors.CodeNotFound, "Category not found")

	design, err := env.taxonomy.CreateCategory(ctx, c.admin.ID, CreateCategoryRequest{Title: "Design"})
	require.NoError(t, err)
	_, err = env.courses.CreateCourse(ctx, c.admin.ID, CreateCourseRequest{
		Title:         "Mismatched",
		Description:   "Subcategory from another category",
		CategoryID:    design.ID,
		SubcategoryID: c.subcategory.ID,
	})
	assertDomainError(t, err, domainerrors.CodeValidation, "Subcategory does not belong to this category")
}

func TestCourseService_UpdateCourse(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t)
	ctx := context.Background()

	course := env.createCourse(t, c, "Go Fundamentals", false)
	env.createCourse(t, c, "Advanced Go", false)

	updated, err := env.courses.UpdateCourse(ctx, c.admin.ID, course.ID, domain.CoursePatch{
		Title:       ptr("Go Basics"),
		IsPublished: ptr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "go-basics", updated.Slug)
	assert.True(t, updated.IsPublished)
	assert.Equal(t, "Learn Go Fundamentals", updated.Description)

	_, err = env.courses.UpdateCourse(ctx, c.admin.ID, course.ID, domain.CoursePatch{Title: ptr("Advanced Go")})
	assertDomainError(t, err, domainerrors.CodeDuplicate, "Course with this title already exists")

	_, err = env.courses.UpdateCourse(ctx, c.admin.ID, course.ID, domain.CoursePatch{SubcategoryID: ptr("sub-missing")})
	assertDomainError(t, err, domainerrors.CodeNotFound, "Subcategory not found")

	_, err = env.courses.UpdateCourse(ctx, c.admin.ID, course.ID, domain.CoursePatch{Description: ptr("")})
	assertDomainError(t, err, domainerrors.CodeValidation, "Missing required fields")

	_, err = env.courses.UpdateCourse(ctx, c.admin.ID, "course-missing", domain.CoursePatch{Title: ptr("x")})
	assertDomainError(t, err, domainerrors.CodeNotFound, "Course not found")

	// Failed updates leave the stored course untouched.
	got, err := env.courses.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go Basics", got.Title)
}

func TestCourseService_DeleteCourse_Cascades(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t)
	ctx := context.Background()

	course := env.createCourse(t, c, "Go Fundamentals", true)
	first := env.createChapter(t, c, course.ID, "Intro")
	env.createChapter(t, c, course.ID, "Types")

	_, err := env.enrollment.Enroll(ctx, c.student.ID, course.ID)
	require.NoError(t, err)

	require.NoError(t, env.courses.DeleteCourse(ctx, c.admin.ID, course.ID))

	_, err = env.courses.GetCourse(ctx, course.ID)
	assertDomainError(t, err, domainerrors.CodeNotFound, "Course not found")

	_, err = env.store.Chapters.Get(ctx, first.ID)
	require.ErrorIs(t, err, store.ErrChapterNotFound)

	student, err := env.store.GetUser(ctx, c.student.ID)
	require.NoError(t, err)
	assert.Empty(t, student.EnrolledCourseIDs)

	err = env.courses.DeleteCourse(ctx, c.admin.ID, course.ID)
	assertDomainError(t, err, domainerrors.CodeNotFound, "Course not found")

	actions := env.auditActions(t, audit.Filter{CourseID: course.ID})
	require.NotEmpty(t, actions)
	assert.Equal(t, audit.ActionCourseDeleted, actions[0])
}

func TestCourseService_GetCourse_ChaptersInOrder(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t)
	ctx := context.Background()

	course := env.createCourse(t, c, "Go Fundamentals", false)
	a := env.createChapter(t, c, course.ID, "A")
	b := env.createChapter(t, c, course.ID, "B")

	// Swap orders through a free slot.
	_, err := env.chapters.UpdateChapter(ctx, c.admin.ID, course.ID, a.ID, domain.ChapterPatch{Order: ptr(3)})
	require.NoError(t, err)
	_, err = env.chapters.UpdateChapter(ctx, c.admin.ID, course.ID, b.ID, domain.ChapterPatch{Order: ptr(1)})
	require.NoError(t, err)

	got, err := env.courses.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, got.Chapters, 2)
	assert.Equal(t, b.ID, got.Chapters[0].ID)
	assert.Equal(t, a.ID, got.Chapters[1].ID)
}

func TestCourseService_ListCourses(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t)
	ctx := context.Background()

	draft := env.createCourse(t, c, "Draft Course", false)
	time.Sleep(2 * time.Millisecond)
	live := env.createCourse(t, c, "Live Course", true)

	all, err := env.courses.ListCourses(ctx, store.CourseFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, live.ID, all[0].ID)
	assert.Equal(t, draft.ID, all[1].ID)
	assert.NotNil(t, all[0].Creator)

	published, err := env.courses.ListCourses(ctx, store.CourseFilter{PublishedOnly: true})
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, live.ID, published[0].ID)

	none, err := env.courses.ListCourses(ctx, store.CourseFilter{CategoryID: "cat-missing"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCourseService_SearchCourses_PublishedOnly(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t)
	ctx := context.Background()

	live := env.createCourse(t, c, "Concurrency Patterns", true)
	env.createCourse(t, c, "Concurrency Drafts", false)

	params := search.DefaultSearchParams()
	params.Query = "concurrency"
	params.PublishedOnly = false // Always forced on

	result, err := env.courses.SearchCourses(ctx, params)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, live.ID, result.Hits[0].ID)
}

func TestCourseService_EnsureSearchIndex(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t)
	ctx := context.Background()

	env.createCourse(t, c, "Go Fundamentals", true)
	env.createCourse(t, c, "Advanced Go", false)

	// An index already in sync is left alone.
	n, err := env.courses.EnsureSearchIndex(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	fresh, err := search.NewCourseIndex(search.Options{DataPath: filepath.Join(env.dir, "fresh")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fresh.Close() })

	svc := NewCourseService(env.store, fresh, validation.New(), NewNoopAuditRecorder(), env.courses.logger)
	n, err = svc.EnsureSearchIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := fresh.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}
