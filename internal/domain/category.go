package domain

import (
	"slices"

	"github.com/coursedeck/coursedeck-server/internal/slug"
)

// Category is a top-level node of the course taxonomy.
type Category struct {
	Record
	Title          string   `json:"title" validate:"required,max=50"`
	Slug           string   `json:"slug"`
	Description    string   `json:"description" validate:"max=200"`
	SubcategoryIDs []string `json:"subcategory_ids"`
}

// NewCategory builds a category with its slug derived from title.
func NewCategory(id, title, description string) *Category {
	c := &Category{
		Record:         Record{ID: id},
		Title:          title,
		Description:    description,
		SubcategoryIDs: []string{},
	}
	c.InitTimestamps()
	c.Normalize()
	return c
}

// Normalize cleans the title and re-derives the slug from it.
func (c *Category) Normalize() {
	c.Title = slug.CleanTitle(c.Title)
	c.Slug = slug.Normalize(c.Title)
}

// AddSubcategory appends a subcategory reference, ignoring duplicates.
func (c *Category) AddSubcategory(subcategoryID string) bool {
	var added bool
	c.SubcategoryIDs, added = addID(c.SubcategoryIDs, subcategoryID)
	return added
}

// HasSubcategory reports whether subcategoryID belongs to this category.
func (c *Category) HasSubcategory(subcategoryID string) bool {
	return slices.Contains(c.SubcategoryIDs, subcategoryID)
}

// CategoryPatch lists the category fields that may change after creation.
// Nil fields are left untouched.
type CategoryPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Apply copies the set fields of p onto c and re-derives the slug.
func (c *Category) Apply(p CategoryPatch) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	c.Normalize()
	c.Touch()
}

// SubCategory is a child node of a Category.
// Its slug is only unique within the owning category.
type SubCategory struct {
	Record
	Title       string `json:"title" validate:"required,max=50"`
	Slug        string `json:"slug"`
	Description string `json:"description" validate:"max=200"`
	CategoryID  string `json:"category_id" validate:"required"`
}

// NewSubCategory builds a subcategory under categoryID.
func NewSubCategory(id, categoryID, title, description string) *SubCategory {
	s := &SubCategory{
		Record:      Record{ID: id},
		Title:       title,
		Description: description,
		CategoryID:  categoryID,
	}
	s.InitTimestamps()
	s.Normalize()
	return s
}

// Normalize cleans the title and re-derives the slug from it.
func (s *SubCategory) Normalize() {
	s.Title = slug.CleanTitle(s.Title)
	s.Slug = slug.Normalize(s.Title)
}
