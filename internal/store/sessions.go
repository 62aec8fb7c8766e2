package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/coursedeck/coursedeck-server/internal/domain"
)

// CreateSession creates a new user session.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	return s.Sessions.Create(ctx, session.ID, session)
}

// GetSession retrieves a session by ID.
// Returns ErrSessionExpired for sessions past their expiry.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	session, err := s.Sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// GetSessionByRefreshToken retrieves a session by its refresh token hash.
func (s *Store) GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	session, err := s.Sessions.GetByIndex(ctx, "token", tokenHash)
	if err != nil {
		return nil, err
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// UpdateSession writes a session back, moving its token index on rotation.
func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	return s.Sessions.Update(ctx, session.ID, session)
}

// DeleteSession deletes a session (logout). Deleting a missing session is not an error.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	return s.Sessions.Delete(ctx, sessionID)
}

// ListUserSessions returns all active sessions for a user.
func (s *Store) ListUserSessions(ctx context.Context, userID string) ([]*domain.Session, error) {
	sessions, err := s.Sessions.ListByIndex(ctx, "user", userID)
	if err != nil {
		return nil, err
	}

	active := sessions[:0]
	for _, session := range sessions {
		if !session.IsExpired() {
			active = append(active, session)
		}
	}
	return active, nil
}

// DeleteExpiredSessions removes all expired sessions and returns how many were removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int, error) {
	var expired []string
	for session, err := range s.Sessions.List(ctx) {
		if err != nil {
			return 0, err
		}
		if session.IsExpired() {
			expired = append(expired, session.ID)
		}
	}

	removed := 0
	for _, id := range expired {
		err := s.update(ctx, func(txn *badger.Txn) error {
			_, err := s.Sessions.removeTxn(txn, id)
			return err
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return removed, err
			}
			s.logger.Warn("failed to delete expired session", "session_id", id, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
