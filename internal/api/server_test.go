package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedeck/coursedeck-server/internal/audit"
	"github.com/coursedeck/coursedeck-server/internal/auth"
	"github.com/coursedeck/coursedeck-server/internal/ratelimit"
	"github.com/coursedeck/coursedeck-server/internal/search"
	"github.com/coursedeck/coursedeck-server/internal/service"
	"github.com/coursedeck/coursedeck-server/internal/store"
	"github.com/coursedeck/coursedeck-server/internal/validation"
)

const testPassword = "TestPassword123!"

// testEnvelope decodes the response envelope with a typed payload.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// testServer wraps the API server with the storage behind it.
type testServer struct {
	*Server
	api     humatest.TestAPI
	journal *audit.Journal
}

// setupTestServer wires the full stack against temporary storage.
func setupTestServer(t *testing.T, configure ...func(*Options)) *testServer {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	st, err := store.New(filepath.Join(dir, "db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	journal, err := audit.Open(filepath.Join(dir, "audit.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	index, err := search.NewCourseIndex(search.Options{DataPath: dir, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	st.SetSearchIndexer(index)

	key, err := auth.LoadOrGenerateKey(filepath.Join(dir, "auth.key"))
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	v := validation.New()
	sessions := service.NewSessionService(st, tokens, logger)
	services := &Services{
		Auth:       service.NewAuthService(st, tokens, sessions, v, journal, logger),
		Taxonomy:   service.NewTaxonomyService(st, v, journal, logger),
		Course:     service.NewCourseService(st, index, v, journal, logger),
		Chapter:    service.NewChapterService(st, v, journal, logger),
		Enrollment: service.NewEnrollmentService(st, journal, logger),
		Activity:   service.NewActivityService(journal),
	}

	opts := Options{
		Version:         "test",
		AuthRateLimiter: ratelimit.New(100, 100),
	}
	for _, fn := range configure {
		fn(&opts)
	}

	s := NewServer(st, index, services, opts, logger)

	return &testServer{
		Server:  s,
		api:     humatest.Wrap(t, s.API()),
		journal: journal,
	}
}

// bearer formats an Authorization header for humatest.
func bearer(token string) string {
	return "Authorization: Bearer " + token
}

// decode unmarshals a response envelope.
func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()

	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), "body: %s", resp.Body.String())
	return env
}

// requireError asserts status, error code and success=false.
func requireError(t *testing.T, resp *httptest.ResponseRecorder, status int, code string) testEnvelope[json.RawMessage] {
	t.Helper()

	require.Equal(t, status, resp.Code, "body: %s", resp.Body.String())
	env := decode[json.RawMessage](t, resp)
	assert.Equal(t, 1, env.V)
	assert.False(t, env.Success)
	assert.Equal(t, code, env.Code)
	assert.NotEmpty(t, env.Error)
	return env
}

// setupAdmin runs first-time setup and returns the admin's access token.
func (ts *testServer) setupAdmin(t *testing.T) AuthResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/setup", map[string]any{
		"email":    "admin@example.com",
		"password": testPassword,
		"name":     "Ada Admin",
	})
	require.Equal(t, http.StatusOK, resp.Code, "setup failed: %s", resp.Body.String())
	return decode[AuthResponse](t, resp).Data
}

// registerStudent creates a student account and returns its auth response.
func (ts *testServer) registerStudent(t *testing.T, email string) AuthResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    email,
		"password": testPassword,
		"name":     "Sam Student",
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())
	return decode[AuthResponse](t, resp).Data
}

// catalogFixture is a category, subcategory and course created through the API.
type catalogFixture struct {
	adminToken  string
	category    CategoryResponse
	subcategory SubCategoryResponse
	course      CourseResponse
}

// seedCatalog creates a taxonomy and one unpublished course.
func (ts *testServer) seedCatalog(t *testing.T) catalogFixture {
	t.Helper()

	admin := ts.setupAdmin(t)
	hdr := bearer(admin.AccessToken)

	resp := ts.api.Post("/api/v1/categories", hdr, map[string]any{
		"title":       "Programming",
		"description": "Writing software",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	category := decode[CategoryResponse](t, resp).Data

	resp = ts.api.Post("/api/v1/categories/"+category.ID+"/subcategories", hdr, map[string]any{
		"title": "Go",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	sub := decode[SubCategoryResponse](t, resp).Data

	course := ts.createCourse(t, admin.AccessToken, category.ID, sub.ID, "Concurrency in Go")

	return catalogFixture{
		adminToken:  admin.AccessToken,
		category:    category,
		subcategory: sub,
		course:      course,
	}
}

func (ts *testServer) createCourse(t *testing.T, token, categoryID, subcategoryID, title string) CourseResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/courses", bearer(token), map[string]any{
		"title":          title,
		"description":    "Goroutines, channels and the memory model",
		"category_id":    categoryID,
		"subcategory_id": subcategoryID,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[CourseResponse](t, resp).Data
}

func (ts *testServer) publishCourse(t *testing.T, token, courseID string) {
	t.Helper()

	resp := ts.api.Put("/api/v1/courses/"+courseID, bearer(token), map[string]any{
		"is_published": true,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func (ts *testServer) createChapter(t *testing.T, token, courseID, title string) ChapterResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/courses/"+courseID+"/chapters", bearer(token), map[string]any{
		"title":       title,
		"description": "Chapter " + title,
		"video_url":   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"duration":    300,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[ChapterResponse](t, resp).Data
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[HealthResponse](t, resp)
	assert.Equal(t, 1, env.V)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "healthy", env.Data.Components["database"].Status)
	assert.Equal(t, "healthy", env.Data.Components["search"].Status)
}

func TestRequestID(t *testing.T) {
	ts := setupTestServer(t)

	t.Run("generated when absent", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/health")
		assert.Len(t, resp.Header().Get(HeaderRequestID), 36)
	})

	t.Run("echoed when supplied", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/health", HeaderRequestID+": req-123")
		assert.Equal(t, "req-123", resp.Header().Get(HeaderRequestID))
	})
}

func TestCORS(t *testing.T) {
	ts := setupTestServer(t, func(o *Options) {
		o.CORSAllowedOrigins = []string{"https://app.example.com"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/courses", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	ts.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestValidationErrorsUseEnvelope(t *testing.T) {
	ts := setupTestServer(t)

	// Missing required name.
	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    "sam@example.com",
		"password": testPassword,
	})
	env := requireError(t, resp, http.StatusBadRequest, "VALIDATION")
	assert.Contains(t, env.Error, "name")
}
