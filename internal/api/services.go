package api

import (
	"github.com/coursedeck/coursedeck-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth       *service.AuthService
	Taxonomy   *service.TaxonomyService
	Course     *service.CourseService
	Chapter    *service.ChapterService
	Enrollment *service.EnrollmentService
	Activity   *service.ActivityService // Admin audit trail
}
