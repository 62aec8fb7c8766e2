package api

import (
	"time"

	"github.com/coursedeck/coursedeck-server/internal/domain"
	"github.com/coursedeck/coursedeck-server/internal/store"
)

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// UserResponse is the public view of an account. The password hash never leaves the server.
type UserResponse struct {
	ID                string      `json:"id" doc:"User ID"`
	Email             string      `json:"email" doc:"User email"`
	Name              string      `json:"name" doc:"Display name"`
	Role              domain.Role `json:"role" doc:"admin or student"`
	EnrolledCourseIDs []string    `json:"enrolled_course_ids" doc:"Courses the user is enrolled in"`
	CreatedAt         time.Time   `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt         time.Time   `json:"updated_at" doc:"Last update timestamp"`
	LastLoginAt       time.Time   `json:"last_login_at,omitzero" doc:"Last login timestamp"`
}

func newUserResponse(u *domain.User) UserResponse {
	enrolled := u.EnrolledCourseIDs
	if enrolled == nil {
		enrolled = []string{}
	}
	return UserResponse{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		Role:              u.Role,
		EnrolledCourseIDs: enrolled,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
		LastLoginAt:       u.LastLoginAt,
	}
}

// SubCategoryResponse is a subcategory in API responses.
type SubCategoryResponse struct {
	ID          string    `json:"id" doc:"Subcategory ID"`
	CategoryID  string    `json:"category_id" doc:"Owning category"`
	Title       string    `json:"title" doc:"Title"`
	Slug        string    `json:"slug" doc:"URL-safe slug, unique within the category"`
	Description string    `json:"description" doc:"Description"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last update timestamp"`
}

func newSubCategoryResponse(sc *domain.SubCategory) SubCategoryResponse {
	return SubCategoryResponse{
		ID:          sc.ID,
		CategoryID:  sc.CategoryID,
		Title:       sc.Title,
		Slug:        sc.Slug,
		Description: sc.Description,
		CreatedAt:   sc.CreatedAt,
		UpdatedAt:   sc.UpdatedAt,
	}
}

func newSubCategoryResponses(subs []*domain.SubCategory) []SubCategoryResponse {
	resp := make([]SubCategoryResponse, 0, len(subs))
	for _, sc := range subs {
		resp = append(resp, newSubCategoryResponse(sc))
	}
	return resp
}

// CategoryResponse is a category with its subcategories resolved.
type CategoryResponse struct {
	ID            string                `json:"id" doc:"Category ID"`
	Title         string                `json:"title" doc:"Title"`
	Slug          string                `json:"slug" doc:"URL-safe slug"`
	Description   string                `json:"description" doc:"Description"`
	Subcategories []SubCategoryResponse `json:"subcategories" doc:"Subcategories in creation order"`
	CreatedAt     time.Time             `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt     time.Time             `json:"updated_at" doc:"Last update timestamp"`
}

func newCategoryResponse(c *store.CategoryWithSubcategories) CategoryResponse {
	return CategoryResponse{
		ID:            c.ID,
		Title:         c.Title,
		Slug:          c.Slug,
		Description:   c.Description,
		Subcategories: newSubCategoryResponses(c.Subcategories),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// TaxonomyRef is a resolved category or subcategory reference on a course.
type TaxonomyRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// CreatorRef is the resolved author of a course.
type CreatorRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ChapterResponse is a chapter with its derived video accessors.
type ChapterResponse struct {
	ID          string    `json:"id" doc:"Chapter ID"`
	CourseID    string    `json:"course_id" doc:"Owning course"`
	Title       string    `json:"title" doc:"Title"`
	Description string    `json:"description" doc:"Description"`
	VideoURL    string    `json:"video_url" doc:"Hosted video URL"`
	VideoID     string    `json:"video_id,omitempty" doc:"Video identifier, when recoverable"`
	EmbedURL    string    `json:"embed_url,omitempty" doc:"Embeddable player URL, when recoverable"`
	Order       int       `json:"order" doc:"Position within the course, starting at 1"`
	Duration    int       `json:"duration" doc:"Length in seconds"`
	IsPublished bool      `json:"is_published" doc:"Whether the chapter is published"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last update timestamp"`
}

func newChapterResponse(c *domain.Chapter) ChapterResponse {
	videoID, _ := c.VideoID()
	embedURL, _ := c.EmbedURL()
	return ChapterResponse{
		ID:          c.ID,
		CourseID:    c.CourseID,
		Title:       c.Title,
		Description: c.Description,
		VideoURL:    c.VideoURL,
		VideoID:     videoID,
		EmbedURL:    embedURL,
		Order:       c.Order,
		Duration:    c.Duration,
		IsPublished: c.IsPublished,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func newChapterResponses(chapters []*domain.Chapter) []ChapterResponse {
	resp := make([]ChapterResponse, 0, len(chapters))
	for _, c := range chapters {
		resp = append(resp, newChapterResponse(c))
	}
	return resp
}

// CourseResponse is a course with its references resolved.
// Dangling references are reported as null.
type CourseResponse struct {
	ID              string            `json:"id" doc:"Course ID"`
	Title           string            `json:"title" doc:"Title"`
	Slug            string            `json:"slug" doc:"URL-safe slug"`
	Description     string            `json:"description" doc:"Description"`
	Thumbnail       string            `json:"thumbnail" doc:"Thumbnail path"`
	IsPublished     bool              `json:"is_published" doc:"Whether the course is visible to students"`
	Category        *TaxonomyRef      `json:"category" doc:"Category"`
	Subcategory     *TaxonomyRef      `json:"subcategory" doc:"Subcategory"`
	Creator         *CreatorRef       `json:"creator" doc:"Author"`
	ChapterIDs      []string          `json:"chapter_ids" doc:"Chapters in sequence"`
	Chapters        []ChapterResponse `json:"chapters,omitempty" doc:"Resolved chapters, on single-course reads"`
	EnrollmentCount int               `json:"enrollment_count" doc:"Number of enrolled students"`
	CreatedAt       time.Time         `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt       time.Time         `json:"updated_at" doc:"Last update timestamp"`
}

func newCourseResponse(v *store.CourseView) CourseResponse {
	chapterIDs := v.ChapterIDs
	if chapterIDs == nil {
		chapterIDs = []string{}
	}

	resp := CourseResponse{
		ID:              v.ID,
		Title:           v.Title,
		Slug:            v.Slug,
		Description:     v.Description,
		Thumbnail:       v.Thumbnail,
		IsPublished:     v.IsPublished,
		ChapterIDs:      chapterIDs,
		EnrollmentCount: v.EnrollmentCount(),
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
	if v.Category != nil {
		resp.Category = &TaxonomyRef{ID: v.Category.ID, Title: v.Category.Title, Slug: v.Category.Slug}
	}
	if v.Subcategory != nil {
		resp.Subcategory = &TaxonomyRef{ID: v.Subcategory.ID, Title: v.Subcategory.Title, Slug: v.Subcategory.Slug}
	}
	if v.Creator != nil {
		resp.Creator = &CreatorRef{ID: v.Creator.ID, Name: v.Creator.Name}
	}
	if len(v.Chapters) > 0 {
		resp.Chapters = newChapterResponses(v.Chapters)
	}
	return resp
}

func newCourseResponses(views []*store.CourseView) []CourseResponse {
	resp := make([]CourseResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, newCourseResponse(v))
	}
	return resp
}
