package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/coursedeck/coursedeck-server/internal/domain"
)

// CourseIndex wraps a Bleve index of courses.
//
// All public methods are safe for concurrent use. The mutex keeps readers
// and writers off the index while Rebuild swaps it out.
type CourseIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Uses a discard logger if nil
}

// mappingVersion is bumped whenever buildIndexMapping changes.
// A mismatch on startup drops and recreates the index.
const mappingVersion = "1"

// batchSize bounds the number of documents per Bleve batch.
const batchSize = 500

// NewCourseIndex creates or opens the course index under opts.DataPath.
// A corrupt index or one built with an older mapping is removed and recreated empty.
func NewCourseIndex(opts Options) (*CourseIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			logger.Info("search index has no version file, will rebuild", "new_version", mappingVersion)
			needsRebuild = true
		case string(existingVersion) != mappingVersion:
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &CourseIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *CourseIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexCourse adds or replaces a course in the index.
func (s *CourseIndex) IndexCourse(_ context.Context, course *domain.Course) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(course.ID, CourseToDocument(course).ToMap())
}

// DeleteCourse removes a course from the index. Removing an unknown id is not an error.
func (s *CourseIndex) DeleteCourse(_ context.Context, courseID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(courseID)
}

// IndexCourses indexes courses in batches.
func (s *CourseIndex) IndexCourses(ctx context.Context, courses []*domain.Course) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := 0; i < len(courses); i += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(i+batchSize, len(courses))

		batch := s.index.NewBatch()
		for _, c := range courses[i:end] {
			if err := batch.Index(c.ID, CourseToDocument(c).ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", c.ID, err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DocumentCount returns the number of indexed courses.
func (s *CourseIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and creates an empty one with the current mapping.
// It holds the write lock, so searches block until it returns.
func (s *CourseIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)

	return nil
}
