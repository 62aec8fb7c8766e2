package store

import (
	"context"

	"github.com/dgraph-io/badger/v4"

	"github.com/coursedeck/coursedeck-server/internal/domain"
)

// Enrollment is the committed result of an enroll or unenroll.
type Enrollment struct {
	User   *domain.User
	Course *domain.Course
}

// Enroll adds the course to the user's set and the user to the course's set in one transaction.
//
// Checks run in this order: course exists, course is published, user exists,
// user is not already enrolled.
func (s *Store) Enroll(ctx context.Context, userID, courseID string) (*Enrollment, error) {
	var out *Enrollment
	err := s.update(ctx, func(txn *badger.Txn) error {
		course, err := s.Courses.getTxn(txn, courseID)
		if err != nil {
			return err
		}
		if !course.IsPublished {
			return ErrCourseNotPublished
		}

		user, err := s.Users.getTxn(txn, userID)
		if err != nil {
			return err
		}
		if user.IsEnrolledIn(courseID) || course.IsEnrolled(userID) {
			return ErrAlreadyEnrolled
		}

		user.AddCourse(courseID)
		user.Touch()
		course.AddStudent(userID)
		course.Touch()

		if err := s.Users.replaceTxn(txn, userID, user); err != nil {
			return err
		}
		if err := s.Courses.replaceTxn(txn, courseID, course); err != nil {
			return err
		}
		out = &Enrollment{User: user, Course: course}
		return nil
	})
	return out, err
}

// Unenroll removes the pairing from both sides in one transaction.
// Unenrolling a user who is not enrolled succeeds without changes.
func (s *Store) Unenroll(ctx context.Context, userID, courseID string) (*Enrollment, error) {
	var out *Enrollment
	err := s.update(ctx, func(txn *badger.Txn) error {
		course, err := s.Courses.getTxn(txn, courseID)
		if err != nil {
			return err
		}
		user, err := s.Users.getTxn(txn, userID)
		if err != nil {
			return err
		}

		out = &Enrollment{User: user, Course: course}

		userChanged := user.RemoveCourse(courseID)
		courseChanged := course.RemoveStudent(userID)

		if userChanged {
			user.Touch()
			if err := s.Users.replaceTxn(txn, userID, user); err != nil {
				return err
			}
		}
		if courseChanged {
			course.Touch()
			if err := s.Courses.replaceTxn(txn, courseID, course); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}
