package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedeck/coursedeck-server/internal/domain"
	"github.com/coursedeck/coursedeck-server/internal/store"
)

// seedTaxonomy creates cat-1/sub-1, cat-2/sub-2 and an admin user "admin-1".
func seedTaxonomy(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.CreateCategory(ctx, domain.NewCategory("cat-1", "Programming", "")))
	require.NoError(t, s.CreateCategory(ctx, domain.NewCategory("cat-2", "Design", "")))
	require.NoError(t, s.CreateSubCategory(ctx, domain.NewSubCategory("sub-1", "cat-1", "Go", "")))
	require.NoError(t, s.CreateSubCategory(ctx, domain.NewSubCategory("sub-2", "cat-2", "Typography", "")))
	require.NoError(t, s.CreateUser(ctx, domain.NewUser("admin-1", "admin@example.com", "Ada", domain.RoleAdmin)))
}

func newTestCourse(id, title string) *domain.Course {
	return domain.NewCourse(id, title, "A course about "+title, "cat-1", "sub-1", "admin-1", "")
}

func TestCreateCourse_Defaults(t *testing.T) {
	s := setupTestStore(t)
	seedTaxonomy(t, s)
	ctx := context.Background()

	require.NoError(t, s.CreateCourse(ctx, newTestCourse("course-1", "Go Basics")))

	got, err := s.GetCourse(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, "go-basics", got.Slug)
	assert.False(t, got.IsPublished)
	assert.Equal(t, domain.DefaultThumbnail, got.Thumbnail)
	assert.Empty(t, got.ChapterIDs)
	assert.Zero(t, got.EnrollmentCount())
}

func TestCreateCourse_DuplicateTitle(t *testing.T) {
	s := setupTestStore(t)
	seedTaxonomy(t, s)
	ctx := context.Background()

	require.NoError(t, s.CreateCourse(ctx, newTestCourse("course-1", "Go Basics")))

	err := s.CreateCourse(ctx, newTestCourse("course-2", "Go Basics"))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestCreateCourse_TaxonomyChecks(t *testing.T) {
	s := setupTestStore(t)
	seedTaxonomy(t, s)
	ctx := context.Background()

	missingCategory := domain.NewCourse("c1", "One", "d", "nope", "sub-1", "admin-1", "")
	assert.ErrorIs(t, s.CreateCourse(ctx, missingCategory), store.ErrCategoryNotFound)

	missingSub := domain.NewCourse("c2", "Two", "d", "cat-1", "nope", "admin-1", "")
	assert.ErrorIs(t, s.CreateCourse(ctx, missingSub), store.ErrSubcategoryNotFound)

	mismatch := domain.NewCourse("c3", "Three", "d", "cat-1", "sub-2", "admin-1", "")
	assert.ErrorIs(t, s.CreateCourse(ctx, mismatch), store.ErrSubcategoryMismatch)
}

func TestUpdateCourse_RechecksTaxonomy(t *testing.T) {
	s := setupTestStore(t)
	seedTaxonomy(t, s)
	ctx := context.Background()

	require.NoError(t, s.CreateCourse(ctx, newTestCourse("course-1", "Go Basics")))

	_, err := s.UpdateCourse(ctx, "course-1", func(c *domain.Course) error {
		c.CategoryID = "cat-2"
		return nil
	})
	require.ErrorIs(t, err, store.ErrSubcategoryMismatch)

	updated, err := s.UpdateCourse(ctx, "course-1", func(c *domain.Course) error {
		c.CategoryID = "cat-2"
		c.SubcategoryID = "sub-2"
		c.IsPublished = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, updated.IsPublished)

	inCat2, err := s.ListCourses(ctx, store.CourseFilter{CategoryID: "cat-2"})
	require.NoError(t, err)
	require.Len(t, inCat2, 1)

	inCat1, err := s.ListCourses(ctx, store.CourseFilter{CategoryID: "cat-1"})
	require.NoError(t, err)
	assert.Empty(t, inCat1)
}

func TestUpdateCourse_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.UpdateCourse(context.Background(), "missing", func(*domain.Course) error { return nil })
	assert.ErrorIs(t, err, store.ErrCourseNotFound)
}

func TestListCourses_FiltersAndOrder(t *testing.T) {
	s := setupTestStore(t)
	seedTaxonomy(t, s)
	ctx := context.Background()

	older := newTestCourse("course-a", "Older")
	older.CreatedAt = time.Now().Add(-time.Hour)
	older.IsPublished = true
	require.NoError(t, s.CreateCourse(ctx, older))

	newer := newTestCourse("course-b", "Newer")
	require.NoError(t, s.CreateCourse(ctx, newer))

	all, err := s.ListCourses(ctx, store.CourseFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "course-b", all[0].ID)
	assert.Equal(t, "course-a", all[1].ID)

	published, err := s.ListCourses(ctx, store.CourseFilter{PublishedOnly: true})
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "course-a", published[0].ID)

	bySub, err := s.ListCourses(ctx, store.CourseFilter{SubcategoryID: "sub-2"})
	require.NoError(t, err)
	assert.Empty(t, bySub)
}

func TestGetCourseView_ResolvesReferences(t *testing.T) {
	s := setupTestStore(t)
	seedTaxonomy(t, s)
	ctx := context.Background()

	require.NoError(t, s.CreateCourse(ctx, newTestCourse("course-1", "Go Basics")))
	require.NoError(t, s.CreateChapter(ctx, newTestChapter("ch-1", "course-1", "Intro")))

	view, err := s.GetCourseView(ctx, "course-1")
	require.NoError(t, err)
	require.NotNil(t, view.Category)
	assert.Equal(t, "Programming", view.Category.Title)
	require.NotNil(t, view.Subcategory)
	assert.Equal(t, "Go", view.Subcategory.Title)
	require.NotNil(t, view.Creator)
	assert.Equal(t, "Ada", view.Creator.Name)
	require.Len(t, view.Chapters, 1)
}

func TestDeleteCourse_Cascades(t *testing.T) {
	s := setupTestStore(t)
	seedTaxonomy(t, s)
	ctx := context.Background()

	course := newTestCourse("course-1", "Go Basics")
	course.IsPublished = true
	require.NoError(t, s.CreateCourse(ctx, course))
	require.NoError(t, s.CreateChapter(ctx, newTestChapter("ch-1", "course-1", "Intro")))
	require.NoError(t, s.CreateChapter(ctx, newTestChapter("ch-2", "course-1", "Types")))
	require.NoError(t, s.CreateUser(ctx, domain.NewUser("student-1", "s@example.com", "Sam", domain.RoleStudent)))
	_, err := s.Enroll(ctx, "student-1", "course-1")
	require.NoError(t, err)

	removal, err := s.DeleteCourse(ctx, "course-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ch-1", "ch-2"}, removal.ChapterIDs)
	assert.Equal(t, []string{"student-1"}, removal.StudentIDs)

	_, err = s.GetCourse(ctx, "course-1")
	assert.ErrorIs(t, err, store.ErrCourseNotFound)

	chapters, err := s.ListChapters(ctx, "course-1")
	require.NoError(t, err)
	assert.Empty(t, chapters)

	student, err := s.GetUser(ctx, "student-1")
	require.NoError(t, err)
	assert.Empty(t, student.EnrolledCourseIDs)

	// The title is free again.
	require.NoError(t, s.CreateCourse(ctx, newTestCourse("course-2", "Go Basics")))

	_, err = s.DeleteCourse(ctx, "course-1")
	assert.ErrorIs(t, err, store.ErrCourseNotFound)
}

type recordingIndexer struct {
	indexed []string
	deleted []string
}

func (r *recordingIndexer) IndexCourse(_ context.Context, c *domain.Course) error {
	r.indexed = append(r.indexed, c.ID)
	return nil
}

func (r *recordingIndexer) DeleteCourse(_ context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func TestCourseWrites_UpdateSearchIndex(t *testing.T) {
	s := setupTestStore(t)
	seedTaxonomy(t, s)
	ctx := context.Background()

	idx := &recordingIndexer{}
	s.SetSearchIndexer(idx)

	require.NoError(t, s.CreateCourse(ctx, newTestCourse("course-1", "Go Basics")))
	_, err := s.UpdateCourse(ctx, "course-1", func(c *domain.Course) error {
		c.IsPublished = true
		return nil
	})
	require.NoError(t, err)
	_, err = s.DeleteCourse(ctx, "course-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"course-1", "course-1"}, idx.indexed)
	assert.Equal(t, []string{"course-1"}, idx.deleted)
}
