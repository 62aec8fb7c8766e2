package service

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedeck/coursedeck-server/internal/domain"
	domainerrors "github.com/coursedeck/coursedeck-server/internal/errors"
)

func TestChapterService_CreateChapter_AssignsSequentialOrder(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t)
	course := env.createCourse(t, c, "Go Fundamentals", false)

	for i := 1; i <= 3; i++ {
		ch := env.createChapter(t, c, course.ID, "Chapter")
		assert.Equal(t, i, ch.Order)
	}

	got, err := env.courses.GetCourse(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Len(t, got.ChapterIDs, 3)
}

func TestChapterService_CreateChapter_Errors(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t)
	ctx := context.Background()
	course := env.createCourse(t, c, "Go Fundamentals", false)

	_, err := env.chapters.CreateChapter(ctx, c.admin.ID, course.ID, CreateChapterRequest{Title: "Intro"})
	assertDomainError(t, err, domainerrors.CodeValidation, "Missing required fields")

	_, err = env.chapters.CreateChapter(ctx, c.admin.ID, course.ID, CreateChapterRequest{
		Title:       "Intro",
		Description: "Welcome",
		VideoURL:    "https://vimeo.com/123",
	})
	assertDomainError(t, err, domainerrors.CodeValidation, "")

	_, err = env.chapters.CreateChapter(ctx, c.admin.ID, course.ID, CreateChapterRequest{
		Title:       "Intro",
		Description: "Welcome",
		VideoURL:    "https://youtu.be/dQw4w9WgXcQ",
		Duration:    -1,
	})
	assertDomainError(t, err, domainerrors.CodeValidation, "")

	_, err = env.chapters.CreateChapter(ctx, c.admin.ID, "course-missing", CreateChapterRequest{
		Title:       "Intro",
		Description: "Welcome",
		VideoURL:    "https://youtu.be/dQw4w9WgXcQ",
	})
	assertDomainError(t, err, domainerrors.CodeNotFound, "Course not found")
}

func TestChapterService_CreateChapter_ConcurrentOrdersAreDistinct(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t)
	course := env.createCourse(t, c, "Go Fundamentals", false)

	const workers = 12
	orders := make(chan int, workers)
	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			ch, err := env.chapters.CreateChapter(context.Background(), c.admin.ID, course.ID, CreateChapterRequest{
				Title:       "Parallel",
				Description: "Created concurrently",
				VideoURL:    "https://youtu.be/dQw4w9WgXcQ",
			})
			if assert.NoError(t, err) {
				orders <- ch.Order
			}
		})
	}
	wg.Wait()
	close(orders)

	seen := make(map[int]bool)
	for order := range orders {
		assert.False(t, seen[order], "order %d assigned twice", order)
		seen[order] = true
	}
	assert.Len(t, seen, workers)
	for i := 1; i <= workers; i++ {
		assert.True(t, seen[i], "order %d missing", i)
	}
}

func TestChapterService_Visibility(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t)
	ctx := context.Background()

	draft := env.createCourse(t, c, "Draft", false)
	chapter := env.createChapter(t, c, draft.ID, "Secret")

	for _, viewer := range []*domain.User{nil, c.student} {
		_, err := env.chapters.ListChapters(ctx, viewer, draft.ID)
		assertDomainError(t, err, domainerrors.CodeUnauthorized, "Unauthorized")

		_, err = env.chapters.GetChapter(ctx, viewer, draft.ID, chapter.ID)
		assertDomainError(t, err, domainerrors.CodeUnauthorized, "Unauthorized")
	}

	chapters, err := env.chapters.ListChapters(ctx, c.admin, draft.ID)
	require.NoError(t, err)
	assert.Len(t, chapters, 1)

	_, err = env.courses.UpdateCourse(ctx, c.admin.ID, draft.ID, domain.CoursePatch{IsPublished: ptr(true)})
	require.NoError(t, err)

	got, err := env.chapters.GetChapter(ctx, nil, draft.ID, chapter.ID)
	require.NoError(t, err)
	embed, ok := got.EmbedURL()
	assert.True(t, ok)
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", embed)

	_, err = env.chapters.ListChapters(ctx, nil, "course-missing")
	assertDomainError(t, err, domainerrors.CodeNotFound, "Course not found")

	_, err = env.chapters.GetChapter(ctx, nil, draft.ID, "chapter-missing")
	assertDomainError(t, err, domainerrors.CodeNotFound, "Chapter not found")
}

func TestChapterService_UpdateChapter(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t)
	ctx := context.Background()

	course := env.createCourse(t, c, "Go Fundamentals", false)
	other := env.createCourse(t, c, "Other", false)
	first := env.createChapter(t, c, course.ID, "First")
	env.createChapter(t, c, course.ID, "Second")

	updated, err := env.chapters.UpdateChapter(ctx, c.admin.ID, course.ID, first.ID, domain.ChapterPatch{
		Title:       ptr("Welcome"),
		IsPublished: ptr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "Welcome", updated.Title)
	assert.True(t, updated.IsPublished)
	assert.Equal(t, 1, updated.Order)

	_, err = env.chapters.UpdateChapter(ctx, c.admin.ID, course.ID, first.ID, domain.ChapterPatch{Order: ptr(2)})
	assertDomainError(t, err, domainerrors.CodeDuplicate, "Chapter order already in use")

	_, err = env.chapters.UpdateChapter(ctx, c.admin.ID, course.ID, first.ID, domain.ChapterPatch{Order: ptr(0)})
	assertDomainError(t, err, domainerrors.CodeValidation, "Chapter order must be at least 1")

	_, err = env.chapters.UpdateChapter(ctx, c.admin.ID, course.ID, first.ID, domain.ChapterPatch{Order: ptr(math.MaxInt)})
	assertDomainError(t, err, domainerrors.CodeValidation, "Chapter order must be at most 1000000")

	_, err = env.chapters.UpdateChapter(ctx, c.admin.ID, course.ID, first.ID, domain.ChapterPatch{VideoURL: ptr("not a video")})
	assertDomainError(t, err, domainerrors.CodeValidation, "")

	_, err = env.chapters.UpdateChapter(ctx, c.admin.ID, other.ID, first.ID, domain.ChapterPatch{Title: ptr("Moved")})
	assertDomainError(t, err, domainerrors.CodeNotFound, "Chapter not found")
}

func TestChapterService_DeleteChapter_KeepsGaps(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t)
	ctx := context.Background()

	course := env.createCourse(t, c, "Go Fundamentals", false)
	first := env.createChapter(t, c, course.ID, "First")
	second := env.createChapter(t, c, course.ID, "Second")

	require.NoError(t, env.chapters.DeleteChapter(ctx, c.admin.ID, course.ID, first.ID))

	err := env.chapters.DeleteChapter(ctx, c.admin.ID, course.ID, first.ID)
	assertDomainError(t, err, domainerrors.CodeNotFound, "Chapter not found")

	err = env.chapters.DeleteChapter(ctx, c.admin.ID, "course-missing", second.ID)
	assertDomainError(t, err, domainerrors.CodeNotFound, "Course not found")

	chapters, err := env.chapters.ListChapters(ctx, c.admin, course.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	assert.Equal(t, 2, chapters[0].Order)

	third := env.createChapter(t, c, course.ID, "Third")
	assert.Equal(t, 3, third.Order)
}

func TestChapterService_CreateChapter_OrderExhausted(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t)
	ctx := context.Background()

	course := env.createCourse(t, c, "Go Fundamentals", false)
	last := env.createChapter(t, c, course.ID, "Last")

	moved, err := env.chapters.UpdateChapter(ctx, c.admin.ID, course.ID, last.ID, domain.ChapterPatch{Order: ptr(domain.MaxChapterOrder)})
	require.NoError(t, err)
	assert.Equal(t, domain.MaxChapterOrder, moved.Order)

	_, err = env.chapters.CreateChapter(ctx, c.admin.ID, course.ID, CreateChapterRequest{
		Title:       "One too many",
		Description: "No position left",
		VideoURL:    "https://youtu.be/dQw4w9WgXcQ",
	})
	assertDomainError(t, err, domainerrors.CodeValidation, "Chapter order must be at most 1000000")

	chapters, err := env.chapters.ListChapters(ctx, c.admin, course.ID)
	require.NoError(t, err)
	assert.Len(t, chapters, 1)
}
