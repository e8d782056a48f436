// Package session issues login sessions and one-time tokens.
package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/logica0419/helpisu"

	"github.com/hash-not-analog/isuconquest/internal/idgen"
	"github.com/hash-not-analog/isuconquest/internal/model"
)

// Store is one session table, user_sessions or admin_sessions.
type Store interface {
	FindSession(ctx context.Context, sessionID string) (*model.Session, error)
	DeleteSession(ctx context.Context, sessionID string, requestAt int64) error
	DeleteUserSessions(ctx context.Context, userID int64, requestAt int64) error
	InsertSession(ctx context.Context, sess *model.Session) error
}

type TokenStore interface {
	DeleteUserOneTimeTokens(ctx context.Context, userID int64, tokenType model.TokenType, requestAt int64) error
	InsertOneTimeToken(ctx context.Context, tk *model.UserOneTimeToken) error
}

func newULID() string {
	return helpisu.NewULID()
}

type Issuer struct {
	ids       idgen.Generator
	sessionID func() string
}

// NewUserIssuer session ids are ULIDs.
func NewUserIssuer(ids idgen.Generator) *Issuer {
	return &Issuer{ids: ids, sessionID: newULID}
}

// NewAdminIssuer session ids are random UUIDs.
func NewAdminIssuer(ids idgen.Generator) *Issuer {
	return &Issuer{ids: ids, sessionID: uuid.NewString}
}

// Rotate deletes every active session of userID and issues a new one.
func (i *Issuer) Rotate(ctx context.Context, store Store, userID int64, requestAt int64) (*model.Session, error) {
	if err := store.DeleteUserSessions(ctx, userID, requestAt); err != nil {
		return nil, err
	}

	sID, err := i.ids.NextID(ctx)
	if err != nil {
		return nil, err
	}
	sess := &model.Session{
		ID:        sID,
		UserID:    userID,
		SessionID: i.sessionID(),
		CreatedAt: requestAt,
		UpdatedAt: requestAt,
		ExpiredAt: requestAt + model.SessionTTL,
	}
	if err := store.InsertSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Revoke ログアウト
func (i *Issuer) Revoke(ctx context.Context, store Store, sessionID string, requestAt int64) error {
	return store.DeleteSession(ctx, sessionID, requestAt)
}

// IssueToken generate one time token
func (i *Issuer) IssueToken(ctx context.Context, store TokenStore, userID int64, tokenType model.TokenType, requestAt int64) (*model.UserOneTimeToken, error) {
	if err := store.DeleteUserOneTimeTokens(ctx, userID, tokenType, requestAt); err != nil {
		return nil, err
	}

	tID, err := i.ids.NextID(ctx)
	if err != nil {
		return nil, err
	}
	token := &model.UserOneTimeToken{
		ID:        tID,
		UserID:    userID,
		Token:     newULID(),
		TokenType: tokenType,
		CreatedAt: requestAt,
		UpdatedAt: requestAt,
		ExpiredAt: requestAt + model.OneTimeTokenTTL,
	}
	if err := store.InsertOneTimeToken(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}
