package store

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/coursedeck/coursedeck-server/internal/domain"
)

// CourseFilter narrows ListCourses. Empty fields match everything.
type CourseFilter struct {
	CategoryID    string
	SubcategoryID string
	PublishedOnly bool
}

func (f CourseFilter) matches(c *domain.Course) bool {
	if f.CategoryID != "" && c.CategoryID != f.CategoryID {
		return false
	}
	if f.SubcategoryID != "" && c.SubcategoryID != f.SubcategoryID {
		return false
	}
	if f.PublishedOnly && !c.IsPublished {
		return false
	}
	return true
}

// CourseView is a course with its references resolved.
// Category, Subcategory and Creator are nil when the reference dangles.
// Chapters is only populated by GetCourseView.
type CourseView struct {
	*domain.Course
	Category    *domain.Category
	Subcategory *domain.SubCategory
	Creator     *domain.User
	Chapters    []*domain.Chapter
}

// CourseRemoval reports what a course deletion cascaded to.
type CourseRemoval struct {
	Course     *domain.Course
	ChapterIDs []string
	StudentIDs []string
}

// checkTaxonomyTxn verifies that the course's category and subcategory exist
// and that the subcategory belongs to the category.
func (s *Store) checkTaxonomyTxn(txn *badger.Txn, c *domain.Course) error {
	category, err := s.Categories.getTxn(txn, c.CategoryID)
	if err != nil {
		return err
	}
	if _, err := s.Subcategories.getTxn(txn, c.SubcategoryID); err != nil {
		return err
	}
	if !category.HasSubcategory(c.SubcategoryID) {
		return ErrSubcategoryMismatch
	}
	return nil
}

// CreateCourse stores a new course after checking its taxonomy references.
func (s *Store) CreateCourse(ctx context.Context, c *domain.Course) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		if err := s.checkTaxonomyTxn(txn, c); err != nil {
			return err
		}
		return s.Courses.insertTxn(txn, c.ID, c)
	})
	if err != nil {
		return err
	}

	s.indexCourse(ctx, c)
	return nil
}

// GetCourse retrieves a course by ID.
func (s *Store) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	return s.Courses.Get(ctx, id)
}

// UpdateCourse applies fn to the stored course and writes it back atomically.
// Taxonomy references are re-checked when fn changes either of them.
func (s *Store) UpdateCourse(ctx context.Context, id string, fn func(*domain.Course) error) (*domain.Course, error) {
	var updated *domain.Course
	err := s.update(ctx, func(txn *badger.Txn) error {
		c, err := s.Courses.getTxn(txn, id)
		if err != nil {
			return err
		}
		categoryID, subcategoryID := c.CategoryID, c.SubcategoryID

		if err := fn(c); err != nil {
			return err
		}

		if c.CategoryID != categoryID || c.SubcategoryID != subcategoryID {
			if err := s.checkTaxonomyTxn(txn, c); err != nil {
				return err
			}
		}

		if err := s.Courses.replaceTxn(txn, id, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.indexCourse(ctx, updated)
	return updated, nil
}

// DeleteCourse removes a course together with its chapters, and drops the
// course from every enrolled student's course list, in one transaction.
func (s *Store) DeleteCourse(ctx context.Context, id string) (*CourseRemoval, error) {
	unlock := s.lockCourse(id)
	defer unlock()

	var removal *CourseRemoval
	err := s.update(ctx, func(txn *badger.Txn) error {
		c, err := s.Courses.getTxn(txn, id)
		if err != nil {
			return err
		}

		chapterIDs, err := s.Chapters.idsTxn(txn, "course", id)
		if err != nil {
			return err
		}
		for _, chapterID := range c.ChapterIDs {
			if !slices.Contains(chapterIDs, chapterID) {
				chapterIDs = append(chapterIDs, chapterID)
			}
		}
		for _, chapterID := range chapterIDs {
			if _, err := s.Chapters.removeTxn(txn, chapterID); err != nil {
				return err
			}
		}

		for _, userID := range c.EnrolledStudentIDs {
			u, err := s.Users.getTxn(txn, userID)
			if errors.Is(err, ErrUserNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if u.RemoveCourse(id) {
				u.Touch()
				if err := s.Users.replaceTxn(txn, userID, u); err != nil {
					return err
				}
			}
		}

		if _, err := s.Courses.removeTxn(txn, id); err != nil {
			return err
		}

		removal = &CourseRemoval{
			Course:     c,
			ChapterIDs: chapterIDs,
			StudentIDs: slices.Clone(c.EnrolledStudentIDs),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.courseLocks.Delete(id)
	s.unindexCourse(ctx, id)
	return removal, nil
}

// ListCourses returns courses matching f, newest first.
func (s *Store) ListCourses(ctx context.Context, f CourseFilter) ([]*domain.Course, error) {
	var (
		courses []*domain.Course
		err     error
	)
	switch {
	case f.SubcategoryID != "":
		courses, err = s.Courses.ListByIndex(ctx, "subcategory", f.SubcategoryID)
	case f.CategoryID != "":
		courses, err = s.Courses.ListByIndex(ctx, "category", f.CategoryID)
	default:
		courses, err = s.Courses.Collect(ctx)
	}
	if err != nil {
		return nil, err
	}

	out := courses[:0]
	for _, c := range courses {
		if f.matches(c) {
			out = append(out, c)
		}
	}

	sortNewestFirst(out)
	return out, nil
}

// ListCourseViews is ListCourses with category, subcategory and creator resolved.
func (s *Store) ListCourseViews(ctx context.Context, f CourseFilter) ([]*CourseView, error) {
	courses, err := s.ListCourses(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.resolveCourses(ctx, courses)
}

// GetCourseView retrieves a course with its references and chapters resolved.
// Chapters are ordered by their order value.
func (s *Store) GetCourseView(ctx context.Context, id string) (*CourseView, error) {
	var view *CourseView
	err := s.view(ctx, func(txn *badger.Txn) error {
		c, err := s.Courses.getTxn(txn, id)
		if err != nil {
			return err
		}
		view, err = s.resolveCourseTxn(txn, c)
		if err != nil {
			return err
		}
		view.Chapters, err = s.listChaptersTxn(txn, id)
		return err
	})
	return view, err
}

func (s *Store) resolveCourses(ctx context.Context, courses []*domain.Course) ([]*CourseView, error) {
	out := make([]*CourseView, 0, len(courses))
	err := s.view(ctx, func(txn *badger.Txn) error {
		for _, c := range courses {
			v, err := s.resolveCourseTxn(txn, c)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

func (s *Store) resolveCourseTxn(txn *badger.Txn, c *domain.Course) (*CourseView, error) {
	view := &CourseView{Course: c}

	category, err := s.Categories.getTxn(txn, c.CategoryID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	view.Category = category

	sub, err := s.Subcategories.getTxn(txn, c.SubcategoryID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	view.Subcategory = sub

	creator, err := s.Users.getTxn(txn, c.CreatedBy)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	view.Creator = creator

	return view, nil
}

func sortNewestFirst(courses []*domain.Course) {
	slices.SortFunc(courses, func(a, b *domain.Course) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
