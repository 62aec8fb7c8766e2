package service

import (
	"context"
	"fmt"

	"github.com/coursedeck/coursedeck-server/internal/audit"
)

// ActivityService exposes the audit journal to admins.
type ActivityService struct {
	journal *audit.Journal
}

// NewActivityService creates a new activity service.
func NewActivityService(journal *audit.Journal) *ActivityService {
	return &ActivityService{journal: journal}
}

// ListActivity returns journal entries matching filter, newest first.
func (s *ActivityService) ListActivity(ctx context.Context, filter audit.Filter) ([]*audit.Entry, error) {
	entries, err := s.journal.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}
