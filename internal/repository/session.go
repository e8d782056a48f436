package repository

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/hash-not-analog/isuconquest/internal/model"
)

const (
	userSessionTable  = "user_sessions"
	adminSessionTable = "admin_sessions"
)

// Sessions reads and writes one session table. user_sessions and admin_sessions share a shape.
type Sessions struct {
	q     Queryer
	table string
}

func (r *Repository) UserSessions() *Sessions {
	return &Sessions{q: r.q, table: userSessionTable}
}

func (r *Repository) AdminSessions() *Sessions {
	return &Sessions{q: r.q, table: adminSessionTable}
}

// FindSession 有効な(削除されていない)セッションを取得する
func (s *Sessions) FindSession(ctx context.Context, sessionID string) (*model.Session, error) {
	sess := new(model.Session)
	query := fmt.Sprintf("SELECT * FROM %s WHERE session_id=? AND deleted_at IS NULL", s.table)
	if err := s.q.GetContext(ctx, sess, query, sessionID); err != nil {
		return nil, errors.WithStack(err)
	}
	return sess, nil
}

func (s *Sessions) DeleteSession(ctx context.Context, sessionID string, requestAt int64) error {
	query := fmt.Sprintf("UPDATE %s SET deleted_at=? WHERE session_id=? AND deleted_at IS NULL", s.table)
	_, err := s.q.ExecContext(ctx, query, requestAt, sessionID)
	return errors.WithStack(err)
}

func (s *Sessions) DeleteUserSessions(ctx context.Context, userID int64, requestAt int64) error {
	query := fmt.Sprintf("UPDATE %s SET deleted_at=? WHERE user_id=? AND deleted_at IS NULL", s.table)
	_, err := s.q.ExecContext(ctx, query, requestAt, userID)
	return errors.WithStack(err)
}

func (s *Sessions) InsertSession(ctx context.Context, sess *model.Session) error {
	query := fmt.Sprintf("INSERT INTO %s(id, user_id, session_id, created_at, updated_at, expired_at) VALUES (?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.q.ExecContext(ctx, query, sess.ID, sess.UserID, sess.SessionID, sess.CreatedAt, sess.UpdatedAt, sess.ExpiredAt)
	return errors.WithStack(err)
}

func (r *Repository) FindOneTimeToken(ctx context.Context, token string, tokenType model.TokenType) (*model.UserOneTimeToken, error) {
	tk := new(model.UserOneTimeToken)
	query := "SELECT * FROM user_one_time_tokens WHERE token=? AND token_type=? AND deleted_at IS NULL"
	if err := r.q.GetContext(ctx, tk, query, token, tokenType); err != nil {
		return nil, errors.WithStack(err)
	}
	return tk, nil
}

// ConsumeOneTimeToken 使ったトークンを失効する
func (r *Repository) ConsumeOneTimeToken(ctx context.Context, token string, requestAt int64) error {
	query := "UPDATE user_one_time_tokens SET deleted_at=? WHERE token=? AND deleted_at IS NULL"
	_, err := r.q.ExecContext(ctx, query, requestAt, token)
	return errors.WithStack(err)
}

func (r *Repository) DeleteUserOneTimeTokens(ctx context.Context, userID int64, tokenType model.TokenType, requestAt int64) error {
	query := "UPDATE user_one_time_tokens SET deleted_at=? WHERE user_id=? AND token_type=? AND deleted_at IS NULL"
	_, err := r.q.ExecContext(ctx, query, requestAt, userID, tokenType)
	return errors.WithStack(err)
}

func (r *Repository) InsertOneTimeToken(ctx context.Context, tk *model.UserOneTimeToken) error {
	query := "INSERT INTO user_one_time_tokens(id, user_id, token, token_type, created_at, updated_at, expired_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	_, err := r.q.ExecContext(ctx, query, tk.ID, tk.UserID, tk.Token, tk.TokenType, tk.CreatedAt, tk.UpdatedAt, tk.ExpiredAt)
	return errors.WithStack(err)
}
