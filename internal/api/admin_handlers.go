package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/coursedeck/coursedeck-server/internal/audit"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listAuditEntries",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/audit",
		Summary:     "Audit trail",
		Description: "Returns recent catalog and enrollment activity, newest first. Admin only.",
		Tags:        []string{"Admin"},
		Security:    bearerAuth,
	}, s.handleListAuditEntries)
}

// ListAuditInput filters the audit trail.
type ListAuditInput struct {
	CourseID string `query:"course_id" doc:"Only entries for this course"`
	ActorID  string `query:"actor_id" doc:"Only entries by this user"`
	Action   string `query:"action" doc:"Only entries with this action, e.g. enrollment.enrolled"`
	Limit    int    `query:"limit" minimum:"0" maximum:"500" doc:"Maximum entries (default 50)"`
}

// ListAuditOutput wraps the audit entries for Huma.
type ListAuditOutput struct {
	Body []*audit.Entry
}

func (s *Server) handleListAuditEntries(ctx context.Context, input *ListAuditInput) (*ListAuditOutput, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	entries, err := s.services.Activity.ListActivity(ctx, audit.Filter{
		CourseID: input.CourseID,
		ActorID:  input.ActorID,
		Action:   audit.Action(input.Action),
		Limit:    input.Limit,
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}
	return &ListAuditOutput{Body: entries}, nil
}
