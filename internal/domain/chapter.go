package domain

import (
	"strings"

	"github.com/coursedeck/coursedeck-server/internal/slug"
	"github.com/coursedeck/coursedeck-server/internal/video"
)

// MaxChapterOrder is the highest position a chapter may hold within its course.
const MaxChapterOrder = 1_000_000

// Chapter is a single video lesson inside a course.
type Chapter struct {
	Record
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=500"`
	VideoURL    string `json:"video_url" validate:"required,youtube"`
	CourseID    string `json:"course_id" validate:"required"`
	Order       int    `json:"order" validate:"omitempty,min=1,max=1000000"` // Assigned on insert
	Duration    int    `json:"duration" validate:"gte=0"`                    // Seconds
	IsPublished bool   `json:"is_published"`
}

// NewChapter builds a chapter. The order is assigned when the chapter is stored.
func NewChapter(id, courseID, title, description, videoURL string, duration int, published bool) *Chapter {
	c := &Chapter{
		Record:      Record{ID: id},
		Title:       title,
		Description: description,
		VideoURL:    videoURL,
		CourseID:    courseID,
		Duration:    duration,
		IsPublished: published,
	}
	c.InitTimestamps()
	c.Normalize()
	return c
}

// Normalize trims the free-text fields.
func (c *Chapter) Normalize() {
	c.Title = slug.CleanTitle(c.Title)
	c.VideoURL = strings.TrimSpace(c.VideoURL)
}

// VideoID returns the hosted video identifier, if one can be recovered from the URL.
func (c *Chapter) VideoID() (string, bool) {
	return video.ID(c.VideoURL)
}

// EmbedURL returns the embeddable player URL, if the video identifier can be recovered.
func (c *Chapter) EmbedURL() (string, bool) {
	return video.EmbedURL(c.VideoURL)
}

// ChapterPatch lists the chapter fields that may change after creation.
type ChapterPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	VideoURL    *string `json:"video_url,omitempty"`
	IsPublished *bool   `json:"is_published,omitempty"`
	Order       *int    `json:"order,omitempty"`
}

// Apply copies the set fields of p onto c.
func (c *Chapter) Apply(p ChapterPatch) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.VideoURL != nil {
		c.VideoURL = *p.VideoURL
	}
	if p.IsPublished != nil {
		c.IsPublished = *p.IsPublished
	}
	if p.Order != nil {
		c.Order = *p.Order
	}
	c.Normalize()
	c.Touch()
}
