package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/coursedeck/coursedeck-server/internal/domain"
	"github.com/coursedeck/coursedeck-server/internal/service"
)

func (s *Server) registerChapterRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listChapters",
		Method:      http.MethodGet,
		Path:        "/api/v1/courses/{id}/chapters",
		Summary:     "List chapters",
		Description: "Returns a course's chapters in order. Chapters of unpublished courses are admin only.",
		Tags:        []string{"Chapters"},
	}, s.handleListChapters)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createChapter",
		Method:        http.MethodPost,
		Path:          "/api/v1/courses/{id}/chapters",
		Summary:       "Create chapter",
		Description:   "Appends a chapter to a course. The order is assigned by the server. Admin only.",
		Tags:          []string{"Chapters"},
		Security:      bearerAuth,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateChapter)

	huma.Register(s.api, huma.Operation{
		OperationID: "getChapter",
		Method:      http.MethodGet,
		Path:        "/api/v1/courses/{id}/chapters/{chapterId}",
		Summary:     "Get chapter",
		Description: "Returns a chapter with its embed URL",
		Tags:        []string{"Chapters"},
	}, s.handleGetChapter)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateChapter",
		Method:      http.MethodPut,
		Path:        "/api/v1/courses/{id}/chapters/{chapterId}",
		Summary:     "Update chapter",
		Description: "Changes chapter fields, including its order. Admin only.",
		Tags:        []string{"Chapters"},
		Security:    bearerAuth,
	}, s.handleUpdateChapter)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteChapter",
		Method:      http.MethodDelete,
		Path:        "/api/v1/courses/{id}/chapters/{chapterId}",
		Summary:     "Delete chapter",
		Description: "Removes a chapter from its course. Admin only.",
		Tags:        []string{"Chapters"},
		Security:    bearerAuth,
	}, s.handleDeleteChapter)
}

// === DTOs ===

// ChapterIDInput identifies a chapter within a course.
type ChapterIDInput struct {
	CourseID  string `path:"id" doc:"Course ID"`
	ChapterID string `path:"chapterId" doc:"Chapter ID"`
}

// CreateChapterRequest is the request body for creating a chapter.
type CreateChapterRequest struct {
	Title       string `json:"title" doc:"Title, at most 100 characters"`
	Description string `json:"description" doc:"Description, at most 500 characters"`
	VideoURL    string `json:"video_url" doc:"YouTube video URL"`
	Duration    int    `json:"duration,omitempty" minimum:"0" doc:"Length in seconds"`
	IsPublished bool   `json:"is_published,omitempty" doc:"Publish immediately"`
}

// CreateChapterInput wraps the create chapter request for Huma.
type CreateChapterInput struct {
	CourseID string `path:"id" doc:"Course ID"`
	Body     CreateChapterRequest
}

// UpdateChapterRequest lists the chapter fields that can change.
// Keys outside these fields are accepted and ignored.
type UpdateChapterRequest struct {
	_ struct{} `additionalProperties:"true"`

	Title       *string `json:"title,omitempty" doc:"New title"`
	Description *string `json:"description,omitempty" doc:"New description"`
	VideoURL    *string `json:"video_url,omitempty" doc:"New video URL"`
	IsPublished *bool   `json:"is_published,omitempty" doc:"Publish or unpublish"`
	Order       *int    `json:"order,omitempty" maximum:"1000000" doc:"New position; must be unused within the course"`
}

// UpdateChapterInput wraps the update chapter request for Huma.
type UpdateChapterInput struct {
	CourseID  string `path:"id" doc:"Course ID"`
	ChapterID string `path:"chapterId" doc:"Chapter ID"`
	Body      UpdateChapterRequest
}

// ChapterOutput wraps a chapter response for Huma.
type ChapterOutput struct {
	Body ChapterResponse
}

// ListChaptersOutput wraps a chapter list for Huma.
type ListChaptersOutput struct {
	Body []ChapterResponse
}

// === Handlers ===

func (s *Server) handleListChapters(ctx context.Context, input *CourseIDInput) (*ListChaptersOutput, error) {
	chapters, err := s.services.Chapter.ListChapters(ctx, currentUser(ctx), input.ID)
	if err != nil {
		return nil, err
	}
	return &ListChaptersOutput{Body: newChapterResponses(chapters)}, nil
}

func (s *Server) handleCreateChapter(ctx context.Context, input *CreateChapterInput) (*ChapterOutput, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	chapter, err := s.services.Chapter.CreateChapter(ctx, admin.ID, input.CourseID, service.CreateChapterRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		VideoURL:    input.Body.VideoURL,
		Duration:    input.Body.Duration,
		IsPublished: input.Body.IsPublished,
	})
	if err != nil {
		return nil, err
	}
	return &ChapterOutput{Body: newChapterResponse(chapter)}, nil
}

func (s *Server) handleGetChapter(ctx context.Context, input *ChapterIDInput) (*ChapterOutput, error) {
	chapter, err := s.services.Chapter.GetChapter(ctx, currentUser(ctx), input.CourseID, input.ChapterID)
	if err != nil {
		return nil, err
	}
	return &ChapterOutput{Body: newChapterResponse(chapter)}, nil
}

func (s *Server) handleUpdateChapter(ctx context.Context, input *UpdateChapterInput) (*ChapterOutput, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	chapter, err := s.services.Chapter.UpdateChapter(ctx, admin.ID, input.CourseID, input.ChapterID, domain.ChapterPatch{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		VideoURL:    input.Body.VideoURL,
		IsPublished: input.Body.IsPublished,
		Order:       input.Body.Order,
	})
	if err != nil {
		return nil, err
	}
	return &ChapterOutput{Body: newChapterResponse(chapter)}, nil
}

func (s *Server) handleDeleteChapter(ctx context.Context, input *ChapterIDInput) (*MessageOutput, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Chapter.DeleteChapter(ctx, admin.ID, input.CourseID, input.ChapterID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Chapter deleted successfully"}}, nil
}
