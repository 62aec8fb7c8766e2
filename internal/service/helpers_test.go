package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedeck/coursedeck-server/internal/audit"
	"github.com/coursedeck/coursedeck-server/internal/auth"
	"github.com/coursedeck/coursedeck-server/internal/domain"
	domainerrors "github.com/coursedeck/coursedeck-server/internal/errors"
	"github.com/coursedeck/coursedeck-server/internal/search"
	"github.com/coursedeck/coursedeck-server/internal/store"
	"github.com/coursedeck/coursedeck-server/internal/validation"
)

// testEnv wires every service against temporary storage.
type testEnv struct {
	dir        string
	store      *store.Store
	journal    *audit.Journal
	index      *search.CourseIndex
	tokens     *auth.TokenService
	taxonomy   *TaxonomyService
	courses    *CourseService
	chapters   *ChapterService
	enrollment *EnrollmentService
	sessions   *SessionService
	auth       *AuthService
	activity   *ActivityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	s, err := store.New(filepath.Join(dir, "db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	journal, err := audit.Open(filepath.Join(dir, "audit.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	index, err := search.NewCourseIndex(search.Options{DataPath: dir, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	s.SetSearchIndexer(index)

	key, err := auth.LoadOrGenerateKey(filepath.Join(dir, "auth.key"))
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	v := validation.New()
	sessions := NewSessionService(s, tokens, logger)

	return &testEnv{
		dir:        dir,
		store:      s,
		journal:    journal,
		index:      index,
		tokens:     tokens,
		taxonomy:   NewTaxonomyService(s, v, journal, logger),
		courses:    NewCourseService(s, index, v, journal, logger),
		chapters:   NewChapterService(s, v, journal, logger),
		enrollment: NewEnrollmentService(s, journal, logger),
		sessions:   sessions,
		auth:       NewAuthService(s, tokens, sessions, v, journal, logger),
		activity:   NewActivityService(journal),
	}
}

// catalog is a minimal taxonomy with an admin author.
type catalog struct {
	admin       *domain.User
	student     *domain.User
	category    *store.CategoryWithSubcategories
	subcategory *domain.SubCategory
}

// seedCatalog creates users directly in the store, skipping password hashing.
func (e *testEnv) seedCatalog(t *testing.T) *catalog {
	t.Helper()
	ctx := context.Background()

	admin := domain.NewUser("user-admin", "admin@example.com", "Ada Admin", domain.RoleAdmin)
	require.NoError(t, e.store.CreateUser(ctx, admin))
	student := domain.NewUser("user-student", "sam@example.com", "Sam Student", domain.RoleStudent)
	require.NoError(t, e.store.CreateUser(ctx, student))

	category, err := e.taxonomy.CreateCategory(ctx, admin.ID, CreateCategoryRequest{
		Title:       "Programming",
		Description: "Writing software",
	})
	require.NoError(t, err)

	sub, err := e.taxonomy.CreateSubCategory(ctx, admin.ID, category.ID, CreateSubCategoryRequest{Title: "Go"})
	require.NoError(t, err)

	return &catalog{admin: admin, student: student, category: category, subcategory: sub}
}

func (e *testEnv) createCourse(t *testing.T, c *catalog, title string, published bool) *store.CourseView {
	t.Helper()
	ctx := context.Background()

	course, err := e.courses.CreateCourse(ctx, c.admin.ID, CreateCourseRequest{
		Title:         title,
		Description:   "Learn " + title,
		CategoryID:    c.category.ID,
		SubcategoryID: c.subcategory.ID,
	})
	require.NoError(t, err)

	if published {
		course, err = e.courses.UpdateCourse(ctx, c.admin.ID, course.ID, domain.CoursePatch{IsPublished: ptr(true)})
		require.NoError(t, err)
	}
	return course
}

func (e *testEnv) createChapter(t *testing.T, c *catalog, courseID, title string) *domain.Chapter {
	t.Helper()
	ch, err := e.chapters.CreateChapter(context.Background(), c.admin.ID, courseID, CreateChapterRequest{
		Title:       title,
		Description: "About " + title,
		VideoURL:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	})
	require.NoError(t, err)
	return ch
}

func (e *testEnv) auditActions(t *testing.T, filter audit.Filter) []audit.Action {
	t.Helper()
	entries, err := e.activity.ListActivity(context.Background(), filter)
	require.NoError(t, err)
	actions := make([]audit.Action, 0, len(entries))
	for _, entry := range entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

// assertDomainError checks the code and, when msg is set, the exact message.
func assertDomainError(t *testing.T, err error, code domainerrors.Code, msg string) {
	t.Helper()
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
	if msg != "" {
		assert.Equal(t, msg, domainErr.Message)
	}
}

func ptr[T any](v T) *T { return &v }
