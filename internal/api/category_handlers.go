package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/coursedeck/coursedeck-server/internal/domain"
	"github.com/coursedeck/coursedeck-server/internal/service"
)

func (s *Server) registerCategoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories",
		Summary:     "List categories",
		Description: "Returns every category with its subcategories",
		Tags:        []string{"Categories"},
	}, s.handleListCategories)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createCategory",
		Method:        http.MethodPost,
		Path:          "/api/v1/categories",
		Summary:       "Create category",
		Description:   "Creates a category. The slug is derived from the title. Admin only.",
		Tags:          []string{"Categories"},
		Security:      bearerAuth,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCategory",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories/{id}",
		Summary:     "Get category",
		Description: "Returns a category with its subcategories",
		Tags:        []string{"Categories"},
	}, s.handleGetCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCategory",
		Method:      http.MethodPut,
		Path:        "/api/v1/categories/{id}",
		Summary:     "Update category",
		Description: "Changes the title or description. A new title re-derives the slug. Admin only.",
		Tags:        []string{"Categories"},
		Security:    bearerAuth,
	}, s.handleUpdateCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSubcategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories/{id}/subcategories",
		Summary:     "List subcategories",
		Description: "Returns the subcategories of a category",
		Tags:        []string{"Categories"},
	}, s.handleListSubcategories)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createSubcategory",
		Method:        http.MethodPost,
		Path:          "/api/v1/categories/{id}/subcategories",
		Summary:       "Create subcategory",
		Description:   "Creates a subcategory under a category. Admin only.",
		Tags:          []string{"Categories"},
		Security:      bearerAuth,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateSubcategory)
}

// === DTOs ===

// CategoryIDInput identifies a category by path.
type CategoryIDInput struct {
	ID string `path:"id" doc:"Category ID"`
}

// CreateCategoryRequest is the request body for creating a category or subcategory.
type CreateCategoryRequest struct {
	Title       string `json:"title" doc:"Title, at most 50 characters"`
	Description string `json:"description,omitempty" doc:"Description, at most 200 characters"`
}

// CreateCategoryInput wraps the create category request for Huma.
type CreateCategoryInput struct {
	Body CreateCategoryRequest
}

// UpdateCategoryRequest lists the category fields that can change. Omitted fields are kept.
// Keys outside these fields are accepted and ignored.
type UpdateCategoryRequest struct {
	_ struct{} `additionalProperties:"true"`

	Title       *string `json:"title,omitempty" doc:"New title"`
	Description *string `json:"description,omitempty" doc:"New description"`
}

// UpdateCategoryInput wraps the update category request for Huma.
type UpdateCategoryInput struct {
	ID   string `path:"id" doc:"Category ID"`
	Body UpdateCategoryRequest
}

// CreateSubcategoryInput wraps the create subcategory request for Huma.
type CreateSubcategoryInput struct {
	ID   string `path:"id" doc:"Parent category ID"`
	Body CreateCategoryRequest
}

// CategoryOutput wraps a category response for Huma.
type CategoryOutput struct {
	Body CategoryResponse
}

// ListCategoriesOutput wraps the category list for Huma.
type ListCategoriesOutput struct {
	Body []CategoryResponse
}

// SubcategoryOutput wraps a subcategory response for Huma.
type SubcategoryOutput struct {
	Body SubCategoryResponse
}

// ListSubcategoriesOutput wraps the subcategory list for Huma.
type ListSubcategoriesOutput struct {
	Body []SubCategoryResponse
}

// === Handlers ===

func (s *Server) handleListCategories(ctx context.Context, _ *struct{}) (*ListCategoriesOutput, error) {
	categories, err := s.services.Taxonomy.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, newCategoryResponse(c))
	}
	return &ListCategoriesOutput{Body: resp}, nil
}

func (s *Server) handleCreateCategory(ctx context.Context, input *CreateCategoryInput) (*CategoryOutput, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	category, err := s.services.Taxonomy.CreateCategory(ctx, admin.ID, service.CreateCategoryRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: newCategoryResponse(category)}, nil
}

func (s *Server) handleGetCategory(ctx context.Context, input *CategoryIDInput) (*CategoryOutput, error) {
	category, err := s.services.Taxonomy.GetCategory(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: newCategoryResponse(category)}, nil
}

func (s *Server) handleUpdateCategory(ctx context.Context, input *UpdateCategoryInput) (*CategoryOutput, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	category, err := s.services.Taxonomy.UpdateCategory(ctx, admin.ID, input.ID, domain.CategoryPatch{
		Title:       input.Body.Title,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: newCategoryResponse(category)}, nil
}

func (s *Server) handleListSubcategories(ctx context.Context, input *CategoryIDInput) (*ListSubcategoriesOutput, error) {
	subs, err := s.services.Taxonomy.ListSubCategories(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ListSubcategoriesOutput{Body: newSubCategoryResponses(subs)}, nil
}

func (s *Server) handleCreateSubcategory(ctx context.Context, input *CreateSubcategoryInput) (*SubcategoryOutput, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := s.services.Taxonomy.CreateSubCategory(ctx, admin.ID, input.ID, service.CreateSubCategoryRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, err
	}
	return &SubcategoryOutput{Body: newSubCategoryResponse(sub)}, nil
}
