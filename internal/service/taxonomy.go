package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coursedeck/coursedeck-server/internal/audit"
	"github.com/coursedeck/coursedeck-server/internal/domain"
	domainerrors "github.com/coursedeck/coursedeck-server/internal/errors"
	"github.com/coursedeck/coursedeck-server/internal/id"
	"github.com/coursedeck/coursedeck-server/internal/store"
	"github.com/coursedeck/coursedeck-server/internal/validation"
)

// TaxonomyService manages categories and their subcategories.
type TaxonomyService struct {
	store     *store.Store
	validator *validation.Validator
	audit     AuditRecorder
	logger    *slog.Logger
}

// NewTaxonomyService creates a new taxonomy service.
func NewTaxonomyService(
	store *store.Store,
	validator *validation.Validator,
	audit AuditRecorder,
	logger *slog.Logger,
) *TaxonomyService {
	return &TaxonomyService{
		store:     store,
		validator: validator,
		audit:     audit,
		logger:    logger,
	}
}

// CreateCategoryRequest holds the fields for a new category.
type CreateCategoryRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CreateSubCategoryRequest holds the fields for a new subcategory.
type CreateSubCategoryRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var categoryConflicts = []mapping{
	on(store.ErrAlreadyExists, domainerrors.Duplicate(msgCategoryExists)),
	on(store.ErrCategoryNotFound, domainerrors.NotFound(msgCategoryNotFound)),
}

// CreateCategory creates a category with an empty subcategory list.
func (s *TaxonomyService) CreateCategory(ctx context.Context, actorID string, req CreateCategoryRequest) (*store.CategoryWithSubcategories, error) {
	categoryID, err := id.Generate(id.PrefixCategory)
	if err != nil {
		return nil, fmt.Errorf("generate category ID: %w", err)
	}

	category := domain.NewCategory(categoryID, req.Title, req.Description)
	if err := s.validator.Validate(category); err != nil {
		return nil, err
	}

	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, translate(err, "create category", categoryConflicts...)
	}

	s.logger.Info("category created", "id", category.ID, "slug", category.Slug)
	s.audit.Record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   audit.ActionCategoryCreated,
		TargetID: category.ID,
		Detail:   category.Title,
	})

	return &store.CategoryWithSubcategories{Category: category, Subcategories: []*domain.SubCategory{}}, nil
}

// GetCategory returns a category with its subcategories resolved.
func (s *TaxonomyService) GetCategory(ctx context.Context, categoryID string) (*store.CategoryWithSubcategories, error) {
	category, err := s.store.GetCategoryWithSubcategories(ctx, categoryID)
	if err != nil {
		return nil, translate(err, "get category", categoryConflicts...)
	}
	return category, nil
}

// UpdateCategory applies patch to a category and re-derives its slug.
func (s *TaxonomyService) UpdateCategory(ctx context.Context, actorID, categoryID string, patch domain.CategoryPatch) (*store.CategoryWithSubcategories, error) {
	updated, err := s.store.Categories.Modify(ctx, categoryID, func(c *domain.Category) error {
		c.Apply(patch)
		return s.validator.Validate(c)
	})
	if err != nil {
		return nil, translate(err, "update category", categoryConflicts...)
	}

	s.logger.Info("category updated", "id", updated.ID, "slug", updated.Slug)
	s.audit.Record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   audit.ActionCategoryUpdated,
		TargetID: updated.ID,
		Detail:   updated.Title,
	})

	return s.GetCategory(ctx, updated.ID)
}

// ListCategories returns every category sorted by title, subcategories resolved.
func (s *TaxonomyService) ListCategories(ctx context.Context) ([]*store.CategoryWithSubcategories, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, translate(err, "list categories")
	}
	return categories, nil
}

// CreateSubCategory creates a subcategory and appends it to its parent.
// The parent is checked first, so an unknown category wins over invalid input.
func (s *TaxonomyService) CreateSubCategory(ctx context.Context, actorID, categoryID string, req CreateSubCategoryRequest) (*domain.SubCategory, error) {
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return nil, translate(err, "get category", categoryConflicts...)
	}

	subcategoryID, err := id.Generate(id.PrefixSubcategory)
	if err != nil {
		return nil, fmt.Errorf("generate subcategory ID: %w", err)
	}

	sub := domain.NewSubCategory(subcategoryID, categoryID, req.Title, req.Description)
	if err := s.validator.Validate(sub); err != nil {
		return nil, err
	}

	if err := s.store.CreateSubCategory(ctx, sub); err != nil {
		return nil, translate(err, "create subcategory",
			on(store.ErrAlreadyExists, domainerrors.Duplicate(msgSubcategoryExists)),
			on(store.ErrCategoryNotFound, domainerrors.NotFound(msgCategoryNotFound)),
		)
	}

	s.logger.Info("subcategory created", "id", sub.ID, "category_id", categoryID, "slug", sub.Slug)
	s.audit.Record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   audit.ActionSubcategoryCreated,
		TargetID: sub.ID,
		Detail:   sub.Title,
	})

	return sub, nil
}

// ListSubCategories returns a category's subcategories in insertion order.
func (s *TaxonomyService) ListSubCategories(ctx context.Context, categoryID string) ([]*domain.SubCategory, error) {
	subs, err := s.store.ListSubCategories(ctx, categoryID)
	if err != nil {
		return nil, translate(err, "list subcategories", categoryConflicts...)
	}
	return subs, nil
}
