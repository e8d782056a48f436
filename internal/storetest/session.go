package storetest

import (
	"context"
	"sync"

	"github.com/hash-not-analog/isuconquest/internal/model"
)

// SessionTable mirrors one of user_sessions or admin_sessions.
type SessionTable struct {
	mu   sync.Mutex
	Rows []*model.Session
}

func (t *SessionTable) FindSession(_ context.Context, sessionID string) (*model.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.Rows {
		if s.SessionID == sessionID && s.DeletedAt == nil {
			return clone(s), nil
		}
	}
	return nil, noRows()
}

func (t *SessionTable) DeleteSession(_ context.Context, sessionID string, requestAt int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.Rows {
		if s.SessionID == sessionID && s.DeletedAt == nil {
			at := requestAt
			s.DeletedAt = &at
		}
	}
	return nil
}

func (t *SessionTable) DeleteUserSessions(_ context.Context, userID int64, requestAt int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.Rows {
		if s.UserID == userID && s.DeletedAt == nil {
			at := requestAt
			s.DeletedAt = &at
		}
	}
	return nil
}

func (t *SessionTable) InsertSession(_ context.Context, sess *model.Session) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Rows = append(t.Rows, clone(sess))
	return nil
}

// Active returns the non-deleted sessions of userID.
func (t *SessionTable) Active(userID int64) []*model.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return cloneAll(t.Rows, func(s *model.Session) bool { return s.UserID == userID && s.DeletedAt == nil })
}
