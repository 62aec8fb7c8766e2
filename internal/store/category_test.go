package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedeck/coursedeck-server/internal/domain"
	"github.com/coursedeck/coursedeck-server/internal/store"
)

func TestCreateCategory_DuplicateTitle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCategory(ctx, domain.NewCategory("cat-1", "Programming", "")))

	err := s.CreateCategory(ctx, domain.NewCategory("cat-2", "Programming", "again"))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestCreateCategory_DuplicateSlug(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCategory(ctx, domain.NewCategory("cat-1", "Web Dev", "")))

	err := s.CreateCategory(ctx, domain.NewCategory("cat-2", "web dev", ""))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestCreateSubCategory_UpdatesParent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCategory(ctx, domain.NewCategory("cat-1", "Programming", "")))
	require.NoError(t, s.CreateSubCategory(ctx, domain.NewSubCategory("sub-1", "cat-1", "Go", "")))
	require.NoError(t, s.CreateSubCategory(ctx, domain.NewSubCategory("sub-2", "cat-1", "Rust", "")))

	parent, err := s.GetCategory(ctx, "cat-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub-1", "sub-2"}, parent.SubcategoryIDs)

	subs, err := s.ListSubCategories(ctx, "cat-1")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "Go", subs[0].Title)
	assert.Equal(t, "go", subs[0].Slug)
}

func TestCreateSubCategory_MissingParent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	err := s.CreateSubCategory(ctx, domain.NewSubCategory("sub-1", "nope", "Go", ""))
	require.ErrorIs(t, err, store.ErrCategoryNotFound)

	_, err = s.Subcategories.Get(ctx, "sub-1")
	assert.ErrorIs(t, err, store.ErrSubcategoryNotFound)
}

func TestCreateSubCategory_SlugScopedToCategory(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCategory(ctx, domain.NewCategory("cat-1", "Programming", "")))
	require.NoError(t, s.CreateCategory(ctx, domain.NewCategory("cat-2", "Design", "")))
	require.NoError(t, s.CreateSubCategory(ctx, domain.NewSubCategory("sub-1", "cat-1", "Basics", "")))

	err := s.CreateSubCategory(ctx, domain.NewSubCategory("sub-2", "cat-1", "basics", ""))
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	// The same title under another category is fine.
	require.NoError(t, s.CreateSubCategory(ctx, domain.NewSubCategory("sub-3", "cat-2", "Basics", "")))

	parent, err := s.GetCategory(ctx, "cat-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub-1"}, parent.SubcategoryIDs, "failed create must not touch the parent")
}

func TestListCategories_SortedWithSubcategories(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCategory(ctx, domain.NewCategory("cat-b", "Music", "")))
	require.NoError(t, s.CreateCategory(ctx, domain.NewCategory("cat-a", "Design", "")))
	require.NoError(t, s.CreateSubCategory(ctx, domain.NewSubCategory("sub-1", "cat-b", "Guitar", "")))

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Design", cats[0].Title)
	assert.Equal(t, "Music", cats[1].Title)
	require.Len(t, cats[1].Subcategories, 1)
	assert.Equal(t, "Guitar", cats[1].Subcategories[0].Title)
}

func TestUpdateCategory_RederivesSlug(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	c := domain.NewCategory("cat-1", "Programming", "")
	require.NoError(t, s.CreateCategory(ctx, c))

	title := "Software Engineering"
	c.Apply(domain.CategoryPatch{Title: &title})
	require.NoError(t, s.UpdateCategory(ctx, c))

	got, err := s.GetCategory(ctx, "cat-1")
	require.NoError(t, err)
	assert.Equal(t, "software-engineering", got.Slug)
}
