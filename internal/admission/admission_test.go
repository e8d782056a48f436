package admission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/storetest"
)

func newChecker() (*Checker, *storetest.Store) {
	s := storetest.New()
	s.VersionMasters = append(s.VersionMasters,
		&model.VersionMaster{ID: 1, Status: 0, MasterVersion: "1"},
		&model.VersionMaster{ID: 2, Status: model.VersionMasterActive, MasterVersion: "2"},
	)
	s.UserSessions().Rows = append(s.UserSessions().Rows,
		&model.Session{ID: 1, UserID: 10, SessionID: "alive", ExpiredAt: 2000},
		&model.Session{ID: 2, UserID: 11, SessionID: "stale", ExpiredAt: 500},
	)
	s.AdminSessions().Rows = append(s.AdminSessions().Rows,
		&model.Session{ID: 3, UserID: 1, SessionID: "admin", ExpiredAt: 2000},
	)
	return NewChecker(s, s.UserSessions(), s.AdminSessions()), s
}

func TestRequestTime(t *testing.T) {
	now := time.Unix(12345, 0)
	assert.Equal(t, int64(1656601200), RequestTime("Thu, 30 Jun 2022 15:00:00 GMT", now))
	assert.Equal(t, int64(12345), RequestTime("", now))
	assert.Equal(t, int64(12345), RequestTime("yesterday", now))
}

func TestMasterVersion(t *testing.T) {
	c, s := newChecker()
	ctx := context.Background()

	assert.NoError(t, c.MasterVersion()(ctx, &Request{MasterVersion: "2"}))
	assert.ErrorIs(t, c.MasterVersion()(ctx, &Request{MasterVersion: "1"}), apperror.ErrInvalidMasterVersion)
	assert.ErrorIs(t, c.MasterVersion()(ctx, &Request{}), apperror.ErrInvalidMasterVersion)

	s.VersionMasters = nil
	err := c.MasterVersion()(ctx, &Request{MasterVersion: "2"})
	assert.ErrorIs(t, err, apperror.ErrMasterVersionNotFound)
	assert.Equal(t, 404, apperror.KindOf(err).Status())
}

func TestBan(t *testing.T) {
	c, s := newChecker()
	ctx := context.Background()
	deletedAt := int64(1)
	s.Bans = append(s.Bans,
		&model.UserBan{ID: 1, UserID: 10},
		&model.UserBan{ID: 2, UserID: 11, DeletedAt: &deletedAt},
	)

	assert.ErrorIs(t, c.Ban()(ctx, &Request{UserID: 10, HasUserID: true}), apperror.ErrForbidden)
	assert.NoError(t, c.Ban()(ctx, &Request{UserID: 11, HasUserID: true}))
	assert.NoError(t, c.Ban()(ctx, &Request{UserID: 10}))
}

func TestSession(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"valid", Request{UserID: 10, HasUserID: true, SessionID: "alive", RequestAt: 1000}, nil},
		{"missing header", Request{UserID: 10, HasUserID: true, RequestAt: 1000}, apperror.ErrUnauthorized},
		{"unknown session", Request{UserID: 10, HasUserID: true, SessionID: "nope", RequestAt: 1000}, apperror.ErrUnauthorized},
		{"other user", Request{UserID: 11, HasUserID: true, SessionID: "alive", RequestAt: 1000}, apperror.ErrForbidden},
		{"expired", Request{UserID: 11, HasUserID: true, SessionID: "stale", RequestAt: 1000}, apperror.ErrExpiredSession},
		{"admin session is not a user session", Request{UserID: 1, HasUserID: true, SessionID: "admin", RequestAt: 1000}, apperror.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newChecker()
			req := tt.req
			err := c.Session()(ctx, &req)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExpiredSessionIsDeleted(t *testing.T) {
	c, s := newChecker()
	ctx := context.Background()

	err := c.Session()(ctx, &Request{UserID: 11, HasUserID: true, SessionID: "stale", RequestAt: 1000})
	require.ErrorIs(t, err, apperror.ErrExpiredSession)
	assert.Equal(t, apperror.KindExpiredSession, apperror.KindOf(err))

	err = c.Session()(ctx, &Request{UserID: 11, HasUserID: true, SessionID: "stale", RequestAt: 1000})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Empty(t, s.UserSessions().Active(11))
}

func TestAdminSessionIgnoresPathUser(t *testing.T) {
	c, _ := newChecker()
	ctx := context.Background()

	assert.NoError(t, c.AdminSession()(ctx, &Request{UserID: 10, HasUserID: true, SessionID: "admin", RequestAt: 1000}))
	assert.ErrorIs(t, c.AdminSession()(ctx, &Request{SessionID: "alive", RequestAt: 1000}), apperror.ErrUnauthorized)
	assert.ErrorIs(t, c.AdminSession()(ctx, &Request{SessionID: "admin", RequestAt: 3000}), apperror.ErrExpiredSession)
}

func TestOneTimeTokenSingleUse(t *testing.T) {
	c, s := newChecker()
	ctx := context.Background()
	s.Tokens = append(s.Tokens,
		&model.UserOneTimeToken{ID: 1, UserID: 10, Token: "tk", TokenType: model.TokenTypeGacha, ExpiredAt: 1600},
		&model.UserOneTimeToken{ID: 2, UserID: 10, Token: "old", TokenType: model.TokenTypeGacha, ExpiredAt: 900},
	)
	stage := c.OneTimeToken(model.TokenTypeGacha)

	assert.ErrorIs(t, c.OneTimeToken(model.TokenTypeCardExp)(ctx, &Request{Token: "tk", RequestAt: 1000}), apperror.ErrInvalidToken)
	require.NoError(t, stage(ctx, &Request{Token: "tk", RequestAt: 1000}))
	assert.ErrorIs(t, stage(ctx, &Request{Token: "tk", RequestAt: 1000}), apperror.ErrInvalidToken)

	// expired tokens are consumed as well
	assert.ErrorIs(t, stage(ctx, &Request{Token: "old", RequestAt: 1000}), apperror.ErrInvalidToken)
	_, err := s.FindOneTimeToken(ctx, "old", model.TokenTypeGacha)
	assert.Error(t, err)
}

func TestPipelineStopsAtFirstFailure(t *testing.T) {
	var ran []string
	stage := func(name string, err error) Stage {
		return func(context.Context, *Request) error {
			ran = append(ran, name)
			return err
		}
	}
	boom := errors.New("boom")

	err := Pipeline{stage("version", nil), stage("ban", boom), stage("session", nil)}.Run(context.Background(), &Request{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"version", "ban"}, ran)
}

func TestPipelineOrderBanBeforeSession(t *testing.T) {
	c, s := newChecker()
	s.Bans = append(s.Bans, &model.UserBan{ID: 1, UserID: 10})

	p := Pipeline{c.MasterVersion(), c.Ban(), c.Session()}
	err := p.Run(context.Background(), &Request{UserID: 10, HasUserID: true, MasterVersion: "2", RequestAt: 1000})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestCheckViewerID(t *testing.T) {
	c, s := newChecker()
	ctx := context.Background()
	s.Devices = append(s.Devices, &model.UserDevice{ID: 1, UserID: 10, PlatformID: "viewer", PlatformType: 1})

	assert.NoError(t, c.CheckViewerID(ctx, 10, "viewer"))
	assert.ErrorIs(t, c.CheckViewerID(ctx, 10, "other"), apperror.ErrUserDeviceNotFound)
	assert.ErrorIs(t, c.CheckViewerID(ctx, 11, "viewer"), apperror.ErrUserDeviceNotFound)
}
