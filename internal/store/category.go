package store

import (
	"context"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/coursedeck/coursedeck-server/internal/domain"
)

// CategoryWithSubcategories is a category with its subcategory references resolved.
type CategoryWithSubcategories struct {
	*domain.Category
	Subcategories []*domain.SubCategory
}

// CreateCategory stores a new category.
// Returns ErrAlreadyExists when the title or slug is taken.
func (s *Store) CreateCategory(ctx context.Context, c *domain.Category) error {
	return s.Categories.Create(ctx, c.ID, c)
}

// GetCategory retrieves a category by ID.
func (s *Store) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return s.Categories.Get(ctx, id)
}

// GetCategoryWithSubcategories retrieves a category and resolves its subcategories.
func (s *Store) GetCategoryWithSubcategories(ctx context.Context, id string) (*CategoryWithSubcategories, error) {
	var out *CategoryWithSubcategories
	err := s.view(ctx, func(txn *badger.Txn) error {
		c, err := s.Categories.getTxn(txn, id)
		if err != nil {
			return err
		}
		subs, err := s.Subcategories.getManyTxn(txn, c.SubcategoryIDs)
		if err != nil {
			return err
		}
		out = &CategoryWithSubcategories{Category: c, Subcategories: subs}
		return nil
	})
	return out, err
}

// UpdateCategory replaces a category.
// Returns ErrAlreadyExists when the new title or slug is taken.
func (s *Store) UpdateCategory(ctx context.Context, c *domain.Category) error {
	return s.Categories.Update(ctx, c.ID, c)
}

// ListCategories returns every category ordered by title, with subcategories resolved.
func (s *Store) ListCategories(ctx context.Context) ([]*CategoryWithSubcategories, error) {
	categories, err := s.Categories.Collect(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(categories, func(a, b *domain.Category) int {
		return strings.Compare(a.Title, b.Title)
	})

	out := make([]*CategoryWithSubcategories, 0, len(categories))
	err = s.view(ctx, func(txn *badger.Txn) error {
		for _, c := range categories {
			subs, err := s.Subcategories.getManyTxn(txn, c.SubcategoryIDs)
			if err != nil {
				return err
			}
			out = append(out, &CategoryWithSubcategories{Category: c, Subcategories: subs})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// CreateSubCategory stores a subcategory and appends it to its parent in one transaction.
// Returns ErrCategoryNotFound when the parent does not exist and ErrAlreadyExists
// when the parent already has a subcategory with the same slug.
func (s *Store) CreateSubCategory(ctx context.Context, sc *domain.SubCategory) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		parent, err := s.Categories.getTxn(txn, sc.CategoryID)
		if err != nil {
			return err
		}

		if err := s.Subcategories.insertTxn(txn, sc.ID, sc); err != nil {
			return err
		}

		parent.AddSubcategory(sc.ID)
		parent.Touch()
		return s.Categories.replaceTxn(txn, parent.ID, parent)
	})
}

// ListSubCategories returns the subcategories of a category in insertion order.
func (s *Store) ListSubCategories(ctx context.Context, categoryID string) ([]*domain.SubCategory, error) {
	var out []*domain.SubCategory
	err := s.view(ctx, func(txn *badger.Txn) error {
		parent, err := s.Categories.getTxn(txn, categoryID)
		if err != nil {
			return err
		}
		out, err = s.Subcategories.getManyTxn(txn, parent.SubcategoryIDs)
		return err
	})
	return out, err
}
