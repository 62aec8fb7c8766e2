package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUser(t *testing.T) {
	u := NewUser("user-1", "  Ada@Example.COM ", " Ada ", RoleStudent)

	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, "Ada", u.Name)
	assert.False(t, u.IsAdmin())
	assert.NotNil(t, u.EnrolledCourseIDs)
}

func TestUser_Courses(t *testing.T) {
	u := NewUser("user-1", "ada@example.com", "Ada", RoleAdmin)

	assert.True(t, u.IsAdmin())
	assert.True(t, u.AddCourse("course-1"))
	assert.False(t, u.AddCourse("course-1"))
	assert.True(t, u.IsEnrolledIn("course-1"))
	assert.True(t, u.RemoveCourse("course-1"))
	assert.False(t, u.IsEnrolledIn("course-1"))
}
