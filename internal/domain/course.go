package domain

import (
	"slices"

	"github.com/coursedeck/coursedeck-server/internal/slug"
)

// DefaultThumbnail is used when a course is created without a thumbnail.
const DefaultThumbnail = "/images/course-placeholder.jpg"

// Course is a published unit of learning made of ordered chapters.
type Course struct {
	Record
	Title              string   `json:"title" validate:"required,max=100"`
	Slug               string   `json:"slug"`
	Description        string   `json:"description" validate:"required,max=500"`
	CategoryID         string   `json:"category_id" validate:"required"`
	SubcategoryID      string   `json:"subcategory_id" validate:"required"`
	CreatedBy          string   `json:"created_by" validate:"required"`
	ChapterIDs         []string `json:"chapter_ids"`
	EnrolledStudentIDs []string `json:"enrolled_student_ids"`
	IsPublished        bool     `json:"is_published"`
	Thumbnail          string   `json:"thumbnail"`
}

// NewCourse builds an unpublished course with no chapters or students.
func NewCourse(id, title, description, categoryID, subcategoryID, createdBy, thumbnail string) *Course {
	c := &Course{
		Record:             Record{ID: id},
		Title:              title,
		Description:        description,
		CategoryID:         categoryID,
		SubcategoryID:      subcategoryID,
		CreatedBy:          createdBy,
		ChapterIDs:         []string{},
		EnrolledStudentIDs: []string{},
		Thumbnail:          thumbnail,
	}
	c.InitTimestamps()
	c.Normalize()
	return c
}

// Normalize cleans the title, re-derives the slug and fills the default thumbnail.
func (c *Course) Normalize() {
	c.Title = slug.CleanTitle(c.Title)
	c.Slug = slug.Normalize(c.Title)
	if c.Thumbnail == "" {
		c.Thumbnail = DefaultThumbnail
	}
}

// EnrollmentCount is the number of enrolled students.
func (c *Course) EnrollmentCount() int {
	return len(c.EnrolledStudentIDs)
}

// IsEnrolled reports whether userID is enrolled in the course.
func (c *Course) IsEnrolled(userID string) bool {
	return slices.Contains(c.EnrolledStudentIDs, userID)
}

// AddStudent records userID as enrolled. Returns false if already present.
func (c *Course) AddStudent(userID string) bool {
	var added bool
	c.EnrolledStudentIDs, added = addID(c.EnrolledStudentIDs, userID)
	return added
}

// RemoveStudent drops userID from the enrolled set.
func (c *Course) RemoveStudent(userID string) bool {
	var removed bool
	c.EnrolledStudentIDs, removed = removeID(c.EnrolledStudentIDs, userID)
	return removed
}

// AddChapter appends a chapter reference to the course sequence.
func (c *Course) AddChapter(chapterID string) bool {
	var added bool
	c.ChapterIDs, added = addID(c.ChapterIDs, chapterID)
	return added
}

// RemoveChapter drops a chapter reference from the course sequence.
func (c *Course) RemoveChapter(chapterID string) bool {
	var removed bool
	c.ChapterIDs, removed = removeID(c.ChapterIDs, chapterID)
	return removed
}

// CoursePatch lists the course fields that may change after creation.
// Anything not listed here (slug, creator, chapters, students) cannot be
// set through an update.
type CoursePatch struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	CategoryID    *string `json:"category_id,omitempty"`
	SubcategoryID *string `json:"subcategory_id,omitempty"`
	Thumbnail     *string `json:"thumbnail,omitempty"`
	IsPublished   *bool   `json:"is_published,omitempty"`
}

// TouchesTaxonomy reports whether the patch moves the course to another category or subcategory.
func (p CoursePatch) TouchesTaxonomy() bool {
	return p.CategoryID != nil || p.SubcategoryID != nil
}

// Apply copies the set fields of p onto c and re-derives the slug.
func (c *Course) Apply(p CoursePatch) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.CategoryID != nil {
		c.CategoryID = *p.CategoryID
	}
	if p.SubcategoryID != nil {
		c.SubcategoryID = *p.SubcategoryID
	}
	if p.Thumbnail != nil {
		c.Thumbnail = *p.Thumbnail
	}
	if p.IsPublished != nil {
		c.IsPublished = *p.IsPublished
	}
	c.Normalize()
	c.Touch()
}
