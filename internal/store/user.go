package store

import (
	"context"
	"github.com/dgraph-io/badger/v4"

	"github.com/coursedeck/coursedeck-server/internal/domain"
)

// CreateUser creates a new user account.
// Returns ErrAlreadyExists if the email is already registered (case-insensitive).
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	return s.Users.Create(ctx, user.ID, user)
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.Users.Get(ctx, id)
}

// GetUserByEmail retrieves a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.Users.GetByIndex(ctx, "email", email)
}

// UpdateUser applies fn to a user and writes it back atomically.
func (s *Store) UpdateUser(ctx context.Context, id string, fn func(*domain.User) error) (*domain.User, error) {
	return s.Users.Modify(ctx, id, fn)
}

// HasAdmin reports whether at least one admin account exists.
func (s *Store) HasAdmin(ctx context.Context) (bool, error) {
	var found bool
	err := s.view(ctx, func(txn *badger.Txn) error {
		ids, err := s.Users.idsTxn(txn, "role", string(domain.RoleAdmin))
		found = len(ids) > 0
		return err
	})
	return found, err
}

// CreateFirstAdmin stores user as an admin only if no admin exists yet.
// The check and the insert share one transaction.
func (s *Store) CreateFirstAdmin(ctx context.Context, user *domain.User) error {
	user.Role = domain.RoleAdmin
	return s.update(ctx, func(txn *badger.Txn) error {
		ids, err := s.Users.idsTxn(txn, "role", string(domain.RoleAdmin))
		if err != nil {
			return err
		}
		if len(ids) > 0 {
			return ErrAdminExists
		}
		return s.Users.insertTxn(txn, user.ID, user)
	})
}

// EnrolledCourses returns the resolved courses a user is enrolled in, newest first.
// Courses deleted since enrollment are skipped.
func (s *Store) EnrolledCourses(ctx context.Context, userID string) ([]*CourseView, error) {
	var courses []*domain.Course
	err := s.view(ctx, func(txn *badger.Txn) error {
		user, err := s.Users.getTxn(txn, userID)
		if err != nil {
			return err
		}
		courses, err = s.Courses.getManyTxn(txn, user.EnrolledCourseIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(courses)
	return s.resolveCourses(ctx, courses)
}
