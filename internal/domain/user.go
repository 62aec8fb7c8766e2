package domain

import (
	"slices"
	"strings"
	"time"
)

// Role represents the user's permission level in the system.
type Role string

const (
	// RoleAdmin grants full administrative access.
	RoleAdmin Role = "admin"
	// RoleStudent grants catalog browsing and enrollment.
	RoleStudent Role = "student"
)

// User represents an authenticated account.
type User struct {
	Record
	Email             string    `json:"email" validate:"required,email"`
	Name              string    `json:"name" validate:"required,max=100"`
	PasswordHash      string    `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	Role              Role      `json:"role" validate:"oneof=admin student"`
	EnrolledCourseIDs []string  `json:"enrolled_course_ids"`
	LastLoginAt       time.Time `json:"last_login_at"`
}

// NewUser builds a user with the given role and no enrollments.
func NewUser(id, email, name string, role Role) *User {
	u := &User{
		Record:            Record{ID: id},
		Email:             NormalizeEmail(email),
		Name:              strings.TrimSpace(name),
		Role:              role,
		EnrolledCourseIDs: []string{},
	}
	u.InitTimestamps()
	return u
}

// NormalizeEmail lowercases and trims an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAdmin returns true if the user has administrative privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsEnrolledIn reports whether the user is enrolled in courseID.
func (u *User) IsEnrolledIn(courseID string) bool {
	return slices.Contains(u.EnrolledCourseIDs, courseID)
}

// AddCourse records an enrollment on the user side.
func (u *User) AddCourse(courseID string) bool {
	var added bool
	u.EnrolledCourseIDs, added = addID(u.EnrolledCourseIDs, courseID)
	return added
}

// RemoveCourse drops an enrollment on the user side.
func (u *User) RemoveCourse(courseID string) bool {
	var removed bool
	u.EnrolledCourseIDs, removed = removeID(u.EnrolledCourseIDs, courseID)
	return removed
}

// Session represents an active login with a refresh token.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash,omitempty"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	IPAddress        string    `json:"ip_address,omitempty"`
	UserAgent        string    `json:"user_agent,omitempty"`
}

// Touch updates the session's last seen timestamp.
func (s *Session) Touch() {
	s.LastSeenAt = time.Now()
}

// IsExpired checks if the session has passed its expiration time.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
