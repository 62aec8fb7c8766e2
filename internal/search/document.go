// Package search provides full-text course search backed by Bleve.
// Courses are indexed with their taxonomy ids so results can be narrowed
// to a category or subcategory, and with their publish flag so public
// searches only see published courses.
package search

import (
	"github.com/coursedeck/coursedeck-server/internal/domain"
)

// CourseDocument is the indexed form of a course.
type CourseDocument struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Slug          string `json:"slug"`
	CategoryID    string `json:"category_id"`
	SubcategoryID string `json:"subcategory_id"`
	Published     bool   `json:"published"`
	Chapters      int    `json:"chapters"`
	Students      int    `json:"students"`

	CreatedAt int64 `json:"created_at"` // Unix millis
	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map keyed by the mapped field names.
// Bleve would otherwise index the Go field names.
func (d *CourseDocument) ToMap() map[string]any {
	return map[string]any{
		"id":             d.ID,
		"title":          d.Title,
		"description":    d.Description,
		"slug":           d.Slug,
		"category_id":    d.CategoryID,
		"subcategory_id": d.SubcategoryID,
		"published":      d.Published,
		"chapters":       d.Chapters,
		"students":       d.Students,
		"created_at":     d.CreatedAt,
		"updated_at":     d.UpdatedAt,
	}
}

// CourseToDocument builds the search document for a course.
func CourseToDocument(c *domain.Course) *CourseDocument {
	return &CourseDocument{
		ID:            c.ID,
		Title:         c.Title,
		Description:   c.Description,
		Slug:          c.Slug,
		CategoryID:    c.CategoryID,
		SubcategoryID: c.SubcategoryID,
		Published:     c.IsPublished,
		Chapters:      len(c.ChapterIDs),
		Students:      c.EnrollmentCount(),
		CreatedAt:     c.CreatedAt.UnixMilli(),
		UpdatedAt:     c.UpdatedAt.UnixMilli(),
	}
}
