package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/coursedeck/coursedeck-server/internal/domain"
)

// CreateChapter assigns the next order within the chapter's course, stores the
// chapter and appends it to the course, all in one transaction.
//
// Order assignment is serialized per course by an in-process lock. The unique
// (course, order) index and Badger's conflict detection keep the order unique
// even if two writers race past the lock.
func (s *Store) CreateChapter(ctx context.Context, ch *domain.Chapter) error {
	unlock := s.lockCourse(ch.CourseID)
	defer unlock()

	return s.update(ctx, func(txn *badger.Txn) error {
		course, err := s.Courses.getTxn(txn, ch.CourseID)
		if err != nil {
			return err
		}

		maxOrder, err := s.maxOrderTxn(txn, ch.CourseID)
		if err != nil {
			return err
		}
		if maxOrder >= domain.MaxChapterOrder {
			return ErrChapterOrderRange
		}
		ch.Order = maxOrder + 1

		if err := s.Chapters.insertTxn(txn, ch.ID, ch); err != nil {
			return err
		}

		course.AddChapter(ch.ID)
		course.Touch()
		return s.Courses.replaceTxn(txn, course.ID, course)
	})
}

// maxOrderTxn returns the highest chapter order in a course, or 0 if it has no chapters.
func (s *Store) maxOrderTxn(txn *badger.Txn, courseID string) (int, error) {
	prefix := []byte(indexKey(chapterPrefix, "order", courseID+":"))

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	opts.Reverse = true

	it := txn.NewIterator(opts)
	defer it.Close()

	// Seek past every key with this prefix, then step back to the last one.
	seek := append(slices.Clone(prefix), 0xFF)
	it.Seek(seek)
	if !it.ValidForPrefix(prefix) {
		return 0, nil
	}

	suffix := string(it.Item().Key()[len(prefix):])
	order, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, fmt.Errorf("corrupt chapter order key %q: %w", suffix, err)
	}
	return order, nil
}

// getCourseChapterTxn loads a chapter and checks it belongs to courseID.
func (s *Store) getCourseChapterTxn(txn *badger.Txn, courseID, chapterID string) (*domain.Chapter, error) {
	ch, err := s.Chapters.getTxn(txn, chapterID)
	if err != nil {
		return nil, err
	}
	if ch.CourseID != courseID {
		return nil, ErrChapterNotFound
	}
	return ch, nil
}

// GetChapter retrieves a chapter of a course.
func (s *Store) GetChapter(ctx context.Context, courseID, chapterID string) (*domain.Chapter, error) {
	var ch *domain.Chapter
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		ch, err = s.getCourseChapterTxn(txn, courseID, chapterID)
		return err
	})
	return ch, err
}

// UpdateChapter applies fn to a chapter of a course and writes it back atomically.
// Returns ErrAlreadyExists if fn moves the chapter onto an order already in use.
func (s *Store) UpdateChapter(ctx context.Context, courseID, chapterID string, fn func(*domain.Chapter) error) (*domain.Chapter, error) {
	unlock := s.lockCourse(courseID)
	defer unlock()

	var updated *domain.Chapter
	err := s.update(ctx, func(txn *badger.Txn) error {
		ch, err := s.getCourseChapterTxn(txn, courseID, chapterID)
		if err != nil {
			return err
		}
		if err := fn(ch); err != nil {
			return err
		}
		if ch.Order < 1 || ch.Order > domain.MaxChapterOrder {
			return ErrChapterOrderRange
		}
		// The owning course is not part of the patchable surface.
		ch.CourseID = courseID
		if err := s.Chapters.replaceTxn(txn, chapterID, ch); err != nil {
			return err
		}
		updated = ch
		return nil
	})
	return updated, err
}

// DeleteChapter removes a chapter and its reference from the course in one transaction.
// Remaining chapters keep their order values.
func (s *Store) DeleteChapter(ctx context.Context, courseID, chapterID string) error {
	unlock := s.lockCourse(courseID)
	defer unlock()

	return s.update(ctx, func(txn *badger.Txn) error {
		course, err := s.Courses.getTxn(txn, courseID)
		if err != nil {
			return err
		}
		if _, err := s.getCourseChapterTxn(txn, courseID, chapterID); err != nil {
			return err
		}

		if _, err := s.Chapters.removeTxn(txn, chapterID); err != nil {
			return err
		}

		course.RemoveChapter(chapterID)
		course.Touch()
		return s.Courses.replaceTxn(txn, courseID, course)
	})
}

// ListChapters returns the chapters of a course ordered by order.
func (s *Store) ListChapters(ctx context.Context, courseID string) ([]*domain.Chapter, error) {
	var chapters []*domain.Chapter
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		chapters, err = s.listChaptersTxn(txn, courseID)
		return err
	})
	return chapters, err
}

func (s *Store) listChaptersTxn(txn *badger.Txn, courseID string) ([]*domain.Chapter, error) {
	ids, err := s.Chapters.idsTxn(txn, "course", courseID)
	if err != nil {
		return nil, err
	}
	chapters, err := s.Chapters.getManyTxn(txn, ids)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(chapters, func(a, b *domain.Chapter) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return chapters, nil
}
