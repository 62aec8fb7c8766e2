package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/coursedeck/coursedeck-server/internal/domain"
	"github.com/coursedeck/coursedeck-server/internal/search"
	"github.com/coursedeck/coursedeck-server/internal/service"
	"github.com/coursedeck/coursedeck-server/internal/store"
)

func (s *Server) registerCourseRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCourses",
		Method:      http.MethodGet,
		Path:        "/api/v1/courses",
		Summary:     "List courses",
		Description: "Returns courses newest first, optionally filtered by category, subcategory and published state",
		Tags:        []string{"Courses"},
	}, s.handleListCourses)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createCourse",
		Method:        http.MethodPost,
		Path:          "/api/v1/courses",
		Summary:       "Create course",
		Description:   "Creates an unpublished course. Admin only.",
		Tags:          []string{"Courses"},
		Security:      bearerAuth,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateCourse)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchCourses",
		Method:      http.MethodGet,
		Path:        "/api/v1/courses/search",
		Summary:     "Search courses",
		Description: "Full-text search over published course titles and descriptions",
		Tags:        []string{"Courses"},
	}, s.handleSearchCourses)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCourse",
		Method:      http.MethodGet,
		Path:        "/api/v1/courses/{id}",
		Summary:     "Get course",
		Description: "Returns a course with its category, subcategory, creator and chapters",
		Tags:        []string{"Courses"},
	}, s.handleGetCourse)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCourse",
		Method:      http.MethodPut,
		Path:        "/api/v1/courses/{id}",
		Summary:     "Update course",
		Description: "Changes course fields. Omitted fields are kept. Admin only.",
		Tags:        []string{"Courses"},
		Security:    bearerAuth,
	}, s.handleUpdateCourse)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCourse",
		Method:      http.MethodDelete,
		Path:        "/api/v1/courses/{id}",
		Summary:     "Delete course",
		Description: "Deletes a course together with its chapters and enrollments. Admin only.",
		Tags:        []string{"Courses"},
		Security:    bearerAuth,
	}, s.handleDeleteCourse)
}

// === DTOs ===

// CourseIDInput identifies a course by path.
type CourseIDInput struct {
	ID string `path:"id" doc:"Course ID"`
}

// ListCoursesInput contains the list filters.
type ListCoursesInput struct {
	Category    string `query:"category" doc:"Only courses in this category"`
	Subcategory string `query:"subcategory" doc:"Only courses in this subcategory"`
	Published   bool   `query:"published" doc:"Only published courses"`
}

// SearchCoursesInput contains the search query and paging.
type SearchCoursesInput struct {
	Query       string `query:"q" doc:"Search text"`
	Category    string `query:"category" doc:"Only courses in this category"`
	Subcategory string `query:"subcategory" doc:"Only courses in this subcategory"`
	Sort        string `query:"sort" enum:"relevance,title,recent" default:"relevance" doc:"Result order"`
	Limit       int    `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Maximum hits"`
	Offset      int    `query:"offset" minimum:"0" doc:"Hits to skip"`
}

// CreateCourseRequest is the request body for creating a course.
type CreateCourseRequest struct {
	Title         string `json:"title" doc:"Title, at most 100 characters"`
	Description   string `json:"description" doc:"Description, at most 500 characters"`
	CategoryID    string `json:"category_id" doc:"Category ID"`
	SubcategoryID string `json:"subcategory_id" doc:"Subcategory ID, must belong to the category"`
	Thumbnail     string `json:"thumbnail,omitempty" doc:"Thumbnail path; a placeholder is used when empty"`
}

// CreateCourseInput wraps the create course request for Huma.
type CreateCourseInput struct {
	Body CreateCourseRequest
}

// UpdateCourseRequest lists the course fields that can change.
// Keys outside these fields, such as created_by, are accepted and ignored.
type UpdateCourseRequest struct {
	_ struct{} `additionalProperties:"true"`

	Title         *string `json:"title,omitempty" doc:"New title"`
	Description   *string `json:"description,omitempty" doc:"New description"`
	CategoryID    *string `json:"category_id,omitempty" doc:"Move to this category"`
	SubcategoryID *string `json:"subcategory_id,omitempty" doc:"Move to this subcategory"`
	Thumbnail     *string `json:"thumbnail,omitempty" doc:"New thumbnail path"`
	IsPublished   *bool   `json:"is_published,omitempty" doc:"Publish or unpublish"`
}

// UpdateCourseInput wraps the update course request for Huma.
type UpdateCourseInput struct {
	ID   string `path:"id" doc:"Course ID"`
	Body UpdateCourseRequest
}

// CourseOutput wraps a course response for Huma.
type CourseOutput struct {
	Body CourseResponse
}

// ListCoursesOutput wraps a course list for Huma.
type ListCoursesOutput struct {
	Body []CourseResponse
}

// SearchCoursesOutput wraps search results for Huma.
type SearchCoursesOutput struct {
	Body *search.SearchResult
}

// === Handlers ===

func (s *Server) handleListCourses(ctx context.Context, input *ListCoursesInput) (*ListCoursesOutput, error) {
	views, err := s.services.Course.ListCourses(ctx, store.CourseFilter{
		CategoryID:    input.Category,
		SubcategoryID: input.Subcategory,
		PublishedOnly: input.Published,
	})
	if err != nil {
		return nil, err
	}
	return &ListCoursesOutput{Body: newCourseResponses(views)}, nil
}

func (s *Server) handleCreateCourse(ctx context.Context, input *CreateCourseInput) (*CourseOutput, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Course.CreateCourse(ctx, admin.ID, service.CreateCourseRequest{
		Title:         input.Body.Title,
		Description:   input.Body.Description,
		CategoryID:    input.Body.CategoryID,
		SubcategoryID: input.Body.SubcategoryID,
		Thumbnail:     input.Body.Thumbnail,
	})
	if err != nil {
		return nil, err
	}
	return &CourseOutput{Body: newCourseResponse(view)}, nil
}

func (s *Server) handleSearchCourses(ctx context.Context, input *SearchCoursesInput) (*SearchCoursesOutput, error) {
	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.CategoryID = input.Category
	params.SubcategoryID = input.Subcategory
	params.Limit = input.Limit
	params.Offset = input.Offset
	if input.Sort != "" {
		params.SortBy = input.Sort
	}
	if params.SortBy == "title" {
		params.SortOrder = "asc"
	}

	result, err := s.services.Course.SearchCourses(ctx, params)
	if err != nil {
		return nil, err
	}
	return &SearchCoursesOutput{Body: result}, nil
}

func (s *Server) handleGetCourse(ctx context.Context, input *CourseIDInput) (*CourseOutput, error) {
	view, err := s.services.Course.GetCourse(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CourseOutput{Body: newCourseResponse(view)}, nil
}

func (s *Server) handleUpdateCourse(ctx context.Context, input *UpdateCourseInput) (*CourseOutput, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Course.UpdateCourse(ctx, admin.ID, input.ID, domain.CoursePatch{
		Title:         input.Body.Title,
		Description:   input.Body.Description,
		CategoryID:    input.Body.CategoryID,
		SubcategoryID: input.Body.SubcategoryID,
		Thumbnail:     input.Body.Thumbnail,
		IsPublished:   input.Body.IsPublished,
	})
	if err != nil {
		return nil, err
	}
	return &CourseOutput{Body: newCourseResponse(view)}, nil
}

func (s *Server) handleDeleteCourse(ctx context.Context, input *CourseIDInput) (*MessageOutput, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Course.DeleteCourse(ctx, admin.ID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Course deleted successfully"}}, nil
}
