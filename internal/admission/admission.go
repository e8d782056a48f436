// Package admission runs the ordered checks a request passes before its handler.
package admission

import (
	"context"
	"time"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/repository"
	"github.com/hash-not-analog/isuconquest/internal/session"
)

// Request is what the stages read from an inbound request.
type Request struct {
	UserID        int64
	HasUserID     bool
	SessionID     string
	MasterVersion string
	Token         string
	RequestAt     int64
}

// Stage fails with a classified error to stop the request.
type Stage func(ctx context.Context, req *Request) error

// Pipeline runs its stages in order and stops at the first failure.
type Pipeline []Stage

func (p Pipeline) Run(ctx context.Context, req *Request) error {
	for _, stage := range p {
		if err := stage(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

type Store interface {
	GetActiveVersionMaster(ctx context.Context) (*model.VersionMaster, error)
	FindUserBan(ctx context.Context, userID int64) (*model.UserBan, error)
	FindUserDevice(ctx context.Context, userID int64, viewerID string) (*model.UserDevice, error)
	FindOneTimeToken(ctx context.Context, token string, tokenType model.TokenType) (*model.UserOneTimeToken, error)
	ConsumeOneTimeToken(ctx context.Context, token string, requestAt int64) error
}

// Checker builds stages against one store.
type Checker struct {
	store         Store
	userSessions  session.Store
	adminSessions session.Store
}

func NewChecker(store Store, userSessions, adminSessions session.Store) *Checker {
	return &Checker{store: store, userSessions: userSessions, adminSessions: adminSessions}
}

// RequestTime x-isu-date をunixtimeで返す。パースできなければサーバ時刻
func RequestTime(header string, now time.Time) int64 {
	requestAt, err := time.Parse(time.RFC1123, header)
	if err != nil {
		return now.Unix()
	}
	return requestAt.Unix()
}

// MasterVersion マスタ確認
func (c *Checker) MasterVersion() Stage {
	return func(ctx context.Context, req *Request) error {
		masterVersion, err := c.store.GetActiveVersionMaster(ctx)
		if err != nil {
			if repository.IsNoRows(err) {
				return apperror.ErrMasterVersionNotFound.Wrap(err)
			}
			return err
		}

		if masterVersion.MasterVersion != req.MasterVersion {
			return apperror.ErrInvalidMasterVersion
		}
		return nil
	}
}

// Ban check ban. requests without a path user id pass.
func (c *Checker) Ban() Stage {
	return func(ctx context.Context, req *Request) error {
		if !req.HasUserID {
			return nil
		}
		return c.CheckBan(ctx, req.UserID)
	}
}

func (c *Checker) CheckBan(ctx context.Context, userID int64) error {
	_, err := c.store.FindUserBan(ctx, userID)
	if err == nil {
		return apperror.ErrForbidden
	}
	if repository.IsNoRows(err) {
		return nil
	}
	return err
}

// Session checks x-session belongs to the path user.
func (c *Checker) Session() Stage {
	return func(ctx context.Context, req *Request) error {
		sess, err := c.findSession(ctx, c.userSessions, req)
		if err != nil {
			return err
		}
		if !req.HasUserID {
			return apperror.ErrInvalidUserID
		}
		if sess.UserID != req.UserID {
			return apperror.ErrForbidden
		}
		return c.checkExpiry(ctx, c.userSessions, sess, req.RequestAt)
	}
}

// AdminSession admin の path user id は操作対象なので照合しない
func (c *Checker) AdminSession() Stage {
	return func(ctx context.Context, req *Request) error {
		sess, err := c.findSession(ctx, c.adminSessions, req)
		if err != nil {
			return err
		}
		return c.checkExpiry(ctx, c.adminSessions, sess, req.RequestAt)
	}
}

func (c *Checker) findSession(ctx context.Context, store session.Store, req *Request) (*model.Session, error) {
	if req.SessionID == "" {
		return nil, apperror.ErrUnauthorized
	}

	sess, err := store.FindSession(ctx, req.SessionID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperror.ErrUnauthorized.Wrap(err)
		}
		return nil, err
	}
	return sess, nil
}

func (c *Checker) checkExpiry(ctx context.Context, store session.Store, sess *model.Session, requestAt int64) error {
	if sess.ExpiredAt >= requestAt {
		return nil
	}
	if err := store.DeleteSession(ctx, sess.SessionID, requestAt); err != nil {
		return err
	}
	return apperror.ErrExpiredSession
}

// OneTimeToken 使ったトークンは期限に関わらず失効する
func (c *Checker) OneTimeToken(tokenType model.TokenType) Stage {
	return func(ctx context.Context, req *Request) error {
		tk, err := c.store.FindOneTimeToken(ctx, req.Token, tokenType)
		if err != nil {
			if repository.IsNoRows(err) {
				return apperror.ErrInvalidToken.Wrap(err)
			}
			return err
		}

		if err := c.store.ConsumeOneTimeToken(ctx, tk.Token, req.RequestAt); err != nil {
			return err
		}

		if tk.ExpiredAt < req.RequestAt {
			return apperror.ErrInvalidToken
		}
		return nil
	}
}

// CheckViewerID viewerId が端末として登録されているか
func (c *Checker) CheckViewerID(ctx context.Context, userID int64, viewerID string) error {
	if _, err := c.store.FindUserDevice(ctx, userID, viewerID); err != nil {
		if repository.IsNoRows(err) {
			return apperror.ErrUserDeviceNotFound.Wrap(err)
		}
		return err
	}
	return nil
}
