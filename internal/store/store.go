// Package store persists the course catalog in an embedded Badger database.
//
// Documents are stored as JSON under a per-type key prefix. Secondary indexes
// live under "<prefix>idx:<name>:" and are maintained in the same transaction
// as the document they point at. Operations that touch more than one document
// (a subcategory and its parent, a chapter and its course, a student and a
// course) run inside a single read-write transaction.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/coursedeck/coursedeck-server/internal/domain"
)

// maxTxnAttempts bounds how often a transaction is replayed after a Badger conflict.
const maxTxnAttempts = 5

// SearchIndexer keeps the course search index in sync with store changes.
// Index failures are logged and never fail the store operation.
type SearchIndexer interface {
	IndexCourse(ctx context.Context, course *domain.Course) error
	DeleteCourse(ctx context.Context, courseID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexCourse is a no-op.
func (NoopSearchIndexer) IndexCourse(context.Context, *domain.Course) error { return nil }

// DeleteCourse is a no-op.
func (NoopSearchIndexer) DeleteCourse(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Set via SetSearchIndexer after store creation to avoid circular dependencies.
	searchIndexer SearchIndexer

	// Serializes chapter order assignment per course.
	courseLocks sync.Map

	Categories    *Entity[domain.Category]
	Subcategories *Entity[domain.SubCategory]
	Courses       *Entity[domain.Course]
	Chapters      *Entity[domain.Chapter]
	Users         *Entity[domain.User]
	Sessions      *Entity[domain.Session]
}

// New opens (or creates) the database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:            db,
		logger:        logger,
		searchIndexer: NewNoopSearchIndexer(),
	}
	s.initEntities()

	logger.Info("Badger database opened successfully", "path", path)

	return s, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	s.logger.Info("Closing database connection")
	return s.db.Close()
}

// SetSearchIndexer sets the search indexer for keeping search in sync.
func (s *Store) SetSearchIndexer(indexer SearchIndexer) {
	s.searchIndexer = indexer
}

// initEntities wires every document type with its indexes.
func (s *Store) initEntities() {
	s.Categories = NewEntity[domain.Category](s, categoryPrefix).
		WithNotFound(ErrCategoryNotFound).
		WithIndex("title", func(c *domain.Category) []string { return []string{c.Title} }).
		WithIndex("slug", func(c *domain.Category) []string { return []string{c.Slug} })

	s.Subcategories = NewEntity[domain.SubCategory](s, subcategoryPrefix).
		WithNotFound(ErrSubcategoryNotFound).
		WithIndex("category_slug", func(sc *domain.SubCategory) []string {
			return []string{sc.CategoryID + ":" + sc.Slug}
		})

	s.Courses = NewEntity[domain.Course](s, coursePrefix).
		WithNotFound(ErrCourseNotFound).
		WithIndex("title", func(c *domain.Course) []string { return []string{c.Title} }).
		WithIndex("slug", func(c *domain.Course) []string { return []string{c.Slug} }).
		WithMultiIndex("category", func(c *domain.Course) []string { return []string{c.CategoryID} }).
		WithMultiIndex("subcategory", func(c *domain.Course) []string { return []string{c.SubcategoryID} })

	s.Chapters = NewEntity[domain.Chapter](s, chapterPrefix).
		WithNotFound(ErrChapterNotFound).
		WithIndex("order", func(c *domain.Chapter) []string { return []string{orderKey(c.CourseID, c.Order)} }).
		WithMultiIndex("course", func(c *domain.Chapter) []string { return []string{c.CourseID} })

	s.Users = NewEntity[domain.User](s, userPrefix).
		WithNotFound(ErrUserNotFound).
		WithIndexTransform("email",
			func(u *domain.User) []string { return []string{domain.NormalizeEmail(u.Email)} },
			domain.NormalizeEmail, // Transform lookups to be case-insensitive
		).
		WithMultiIndex("role", func(u *domain.User) []string { return []string{string(u.Role)} })

	s.Sessions = NewEntity[domain.Session](s, sessionPrefix).
		WithNotFound(ErrSessionNotFound).
		WithIndex("token", func(ss *domain.Session) []string { return []string{ss.RefreshTokenHash} }).
		WithMultiIndex("user", func(ss *domain.Session) []string { return []string{ss.UserID} })
}

// update runs fn in a read-write transaction, replaying it when Badger
// reports a conflict with a concurrently committed transaction.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 1; attempt <= maxTxnAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}

		s.logger.Debug("transaction conflict, retrying", "attempt", attempt)
		time.Sleep(time.Duration(attempt) * time.Millisecond)
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", maxTxnAttempts, err)
}

// view runs fn in a read-only transaction.
func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

// lockCourse serializes order-sensitive writes for a single course.
// The returned function releases the lock.
func (s *Store) lockCourse(courseID string) func() {
	mu, _ := s.courseLocks.LoadOrStore(courseID, &sync.Mutex{})
	m, _ := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// RunGC reclaims space from Badger's value log until nothing is left to rewrite.
// Returns the number of value log files rewritten.
func (s *Store) RunGC(discardRatio float64) (int, error) {
	rewritten := 0
	for {
		err := s.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return rewritten, nil
		}
		if err != nil {
			return rewritten, fmt.Errorf("value log gc: %w", err)
		}
		rewritten++
	}
}

// indexCourse pushes a course into the search index after a commit.
func (s *Store) indexCourse(ctx context.Context, course *domain.Course) {
	if err := s.searchIndexer.IndexCourse(ctx, course); err != nil {
		s.logger.Warn("failed to index course", "course_id", course.ID, "error", err)
	}
}

// unindexCourse removes a course from the search index after a commit.
func (s *Store) unindexCourse(ctx context.Context, courseID string) {
	if err := s.searchIndexer.DeleteCourse(ctx, courseID); err != nil {
		s.logger.Warn("failed to remove course from index", "course_id", courseID, "error", err)
	}
}
