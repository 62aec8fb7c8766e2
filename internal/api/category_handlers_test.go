package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCategory_RequiresAdmin(t *testing.T) {
	ts := setupTestServer(t)
	ts.setupAdmin(t)
	student := ts.registerStudent(t, "sam@example.com")

	body := map[string]any{"title": "Design"}

	env := requireError(t, ts.api.Post("/api/v1/categories", body), http.StatusUnauthorized, "UNAUTHORIZED")
	assert.Equal(t, "Unauthorized", env.Error)

	// Students get the same answer as anonymous callers.
	env = requireError(t, ts.api.Post("/api/v1/categories", bearer(student.AccessToken), body), http.StatusUnauthorized, "UNAUTHORIZED")
	assert.Equal(t, "Unauthorized", env.Error)
}

func TestCreateCategory(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.setupAdmin(t)
	hdr := bearer(admin.AccessToken)

	resp := ts.api.Post("/api/v1/categories", hdr, map[string]any{
		"title":       "  Web Development ",
		"description": "Building for the browser",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	env := decode[CategoryResponse](t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, "Web Development", env.Data.Title)
	assert.Equal(t, "web-development", env.Data.Slug)
	assert.NotNil(t, env.Data.Subcategories)
	assert.Empty(t, env.Data.Subcategories)

	t.Run("same slug is a duplicate", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/categories", hdr, map[string]any{"title": "web development"})
		env := requireError(t, resp, http.StatusBadRequest, "DUPLICATE")
		assert.Equal(t, "Category with this title already exists", env.Error)
	})

	t.Run("title too long", func(t *testing.T) {
		long := make([]byte, 51)
		for i := range long {
			long[i] = 'a'
		}
		resp := ts.api.Post("/api/v1/categories", hdr, map[string]any{"title": string(long)})
		requireError(t, resp, http.StatusBadRequest, "VALIDATION")
	})

	t.Run("missing title", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/categories", hdr, map[string]any{"description": "no title"})
		requireError(t, resp, http.StatusBadRequest, "VALIDATION")
	})
}

func TestGetAndUpdateCategory(t *testing.T) {
	ts := setupTestServer(t)
	fx := ts.seedCatalog(t)
	hdr := bearer(fx.adminToken)

	resp := ts.api.Get("/api/v1/categories/" + fx.category.ID)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	got := decode[CategoryResponse](t, resp).Data
	require.Len(t, got.Subcategories, 1)
	assert.Equal(t, "Go", got.Subcategories[0].Title)

	resp = ts.api.Put("/api/v1/categories/"+fx.category.ID, hdr, map[string]any{
		"title": "Software Engineering",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decode[CategoryResponse](t, resp).Data
	assert.Equal(t, "software-engineering", updated.Slug)
	assert.Equal(t, "Writing software", updated.Description)

	t.Run("slug cannot be set directly", func(t *testing.T) {
		resp := ts.api.Put("/api/v1/categories/"+fx.category.ID, hdr, map[string]any{
			"slug": "hijacked",
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		got := decode[CategoryResponse](t, resp).Data
		assert.Equal(t, "software-engineering", got.Slug)
		assert.Equal(t, "Software Engineering", got.Title)
	})

	t.Run("unknown category", func(t *testing.T) {
		requireError(t, ts.api.Get("/api/v1/categories/cat-missing"), http.StatusNotFound, "NOT_FOUND")
	})
}

func TestListCategories(t *testing.T) {
	ts := setupTestServer(t)
	fx := ts.seedCatalog(t)

	resp := ts.api.Post("/api/v1/categories", bearer(fx.adminToken), map[string]any{"title": "Design"})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Get("/api/v1/categories")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	categories := decode[[]CategoryResponse](t, resp).Data
	require.Len(t, categories, 2)

	bySlug := map[string]CategoryResponse{}
	for _, c := range categories {
		bySlug[c.Slug] = c
	}
	assert.Len(t, bySlug["programming"].Subcategories, 1)
	assert.Empty(t, bySlug["design"].Subcategories)
}

func TestSubcategories(t *testing.T) {
	ts := setupTestServer(t)
	fx := ts.seedCatalog(t)
	hdr := bearer(fx.adminToken)

	resp := ts.api.Post("/api/v1/categories/"+fx.category.ID+"/subcategories", hdr, map[string]any{
		"title":       "Rust",
		"description": "Systems programming",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	rust := decode[SubCategoryResponse](t, resp).Data
	assert.Equal(t, "rust", rust.Slug)
	assert.Equal(t, fx.category.ID, rust.CategoryID)

	resp = ts.api.Get("/api/v1/categories/" + fx.category.ID + "/subcategories")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	subs := decode[[]SubCategoryResponse](t, resp).Data
	require.Len(t, subs, 2)
	assert.Equal(t, "Go", subs[0].Title)
	assert.Equal(t, "Rust", subs[1].Title)

	t.Run("duplicate within category", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/categories/"+fx.category.ID+"/subcategories", hdr, map[string]any{"title": "go"})
		requireError(t, resp, http.StatusBadRequest, "DUPLICATE")
	})

	t.Run("unknown category", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/categories/cat-missing/subcategories", hdr, map[string]any{"title": "Zig"})
		env := requireError(t, resp, http.StatusNotFound, "NOT_FOUND")
		assert.Equal(t, "Category not found", env.Error)
	})

	t.Run("students cannot create", func(t *testing.T) {
		student := ts.registerStudent(t, "sam@example.com")
		resp := ts.api.Post("/api/v1/categories/"+fx.category.ID+"/subcategories", bearer(student.AccessToken), map[string]any{"title": "Zig"})
		requireError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")
	})
}
