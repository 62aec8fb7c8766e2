package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/coursedeck/coursedeck-server/internal/store"
)

func (s *Server) registerEnrollmentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "enroll",
		Method:      http.MethodPost,
		Path:        "/api/v1/courses/{id}/enroll",
		Summary:     "Enroll in course",
		Description: "Enrolls the current user in a published course",
		Tags:        []string{"Enrollment"},
		Security:    bearerAuth,
	}, s.handleEnroll)

	huma.Register(s.api, huma.Operation{
		OperationID: "unenroll",
		Method:      http.MethodDelete,
		Path:        "/api/v1/courses/{id}/enroll",
		Summary:     "Leave course",
		Description: "Removes the current user from a course",
		Tags:        []string{"Enrollment"},
		Security:    bearerAuth,
	}, s.handleUnenroll)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMyCourses",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/courses",
		Summary:     "My courses",
		Description: "Returns the courses the current user is enrolled in",
		Tags:        []string{"Enrollment"},
		Security:    bearerAuth,
	}, s.handleListMyCourses)
}

// EnrollmentResponse reports both sides of an enrollment change.
type EnrollmentResponse struct {
	Message           string   `json:"message" doc:"Status message"`
	CourseID          string   `json:"course_id" doc:"Course ID"`
	EnrollmentCount   int      `json:"enrollment_count" doc:"Students now enrolled in the course"`
	EnrolledCourseIDs []string `json:"enrolled_course_ids" doc:"Courses the user is now enrolled in"`
}

// EnrollmentOutput wraps the enrollment response for Huma.
type EnrollmentOutput struct {
	Body EnrollmentResponse
}

func newEnrollmentOutput(message string, e *store.Enrollment) *EnrollmentOutput {
	enrolled := e.User.EnrolledCourseIDs
	if enrolled == nil {
		enrolled = []string{}
	}
	return &EnrollmentOutput{
		Body: EnrollmentResponse{
			Message:           message,
			CourseID:          e.Course.ID,
			EnrollmentCount:   e.Course.EnrollmentCount(),
			EnrolledCourseIDs: enrolled,
		},
	}
}

func (s *Server) handleEnroll(ctx context.Context, input *CourseIDInput) (*EnrollmentOutput, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.services.Enrollment.Enroll(ctx, user.ID, input.ID)
	if err != nil {
		return nil, err
	}
	return newEnrollmentOutput("Successfully enrolled in course", enrollment), nil
}

func (s *Server) handleUnenroll(ctx context.Context, input *CourseIDInput) (*EnrollmentOutput, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.services.Enrollment.Unenroll(ctx, user.ID, input.ID)
	if err != nil {
		return nil, err
	}
	return newEnrollmentOutput("Successfully unenrolled from course", enrollment), nil
}

func (s *Server) handleListMyCourses(ctx context.Context, _ *struct{}) (*ListCoursesOutput, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	views, err := s.services.Course.ListEnrolledCourses(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &ListCoursesOutput{Body: newCourseResponses(views)}, nil
}
