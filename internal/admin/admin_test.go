package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/idgen"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/session"
	"github.com/hash-not-analog/isuconquest/internal/storetest"
)

func newService() *Service {
	ids := idgen.NewSequence(1000)
	return NewService(ids, session.NewAdminIssuer(ids))
}

func newStore(t *testing.T) *storetest.Store {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	s := storetest.New()
	s.AdminUsers = append(s.AdminUsers, &model.AdminUser{ID: 123, Password: string(hash)})
	s.Users = append(s.Users, &model.User{ID: 1, IsuCoin: 10})
	s.Cards = append(s.Cards,
		&model.UserCard{ID: 11, UserID: 1},
		&model.UserCard{ID: 12, UserID: 1},
		&model.UserCard{ID: 21, UserID: 2},
	)
	s.Devices = append(s.Devices, &model.UserDevice{ID: 5, UserID: 1, PlatformID: "viewer", PlatformType: 1})
	s.Presents = append(s.Presents, &model.UserPresent{ID: 7, UserID: 1})
	s.VersionMasters = append(s.VersionMasters, &model.VersionMaster{ID: 1, Status: 1, MasterVersion: "1"})
	s.ItemMasters = append(s.ItemMasters, &model.ItemMaster{ID: 1}, &model.ItemMaster{ID: 2})
	return s
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NoError(t, verifyPassword(hash, "secret"))
	assert.ErrorIs(t, verifyPassword(hash, "wrong"), apperror.ErrUnauthorized)
}

func TestLogin(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	svc := newService()

	first, err := svc.Login(ctx, s, s.AdminSessions(), 123, "password", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(123), first.UserID)
	assert.Len(t, first.SessionID, 36)
	assert.Equal(t, int64(1000+model.SessionTTL), first.ExpiredAt)
	assert.Equal(t, int64(1000), s.AdminUsers[0].LastActivatedAt)

	second, err := svc.Login(ctx, s, s.AdminSessions(), 123, "password", 1001)
	require.NoError(t, err)
	active := s.AdminSessions().Active(123)
	require.Len(t, active, 1)
	assert.Equal(t, second.SessionID, active[0].SessionID)
	assert.Empty(t, s.UserSessions().Active(123))

	require.NoError(t, svc.Logout(ctx, s.AdminSessions(), second.SessionID, 1002))
	assert.Empty(t, s.AdminSessions().Active(123))
}

func TestLoginErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong password", func(t *testing.T) {
		s := newStore(t)
		_, err := newService().Login(ctx, s, s.AdminSessions(), 123, "wrong", 1000)
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
		assert.Empty(t, s.AdminSessions().Active(123))
		assert.Equal(t, int64(0), s.AdminUsers[0].LastActivatedAt)
	})

	t.Run("unknown admin", func(t *testing.T) {
		s := newStore(t)
		_, err := newService().Login(ctx, s, s.AdminSessions(), 9, "password", 1000)
		assert.ErrorIs(t, err, apperror.ErrUserNotFound)
	})
}

func TestUserDetail(t *testing.T) {
	s := newStore(t)

	d, err := newService().UserDetail(context.Background(), s, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), d.User.IsuCoin)
	assert.Len(t, d.UserCards, 2)
	assert.Len(t, d.UserDevices, 1)
	assert.Len(t, d.UserPresents, 1)
	assert.Empty(t, d.UserDecks)
	assert.Empty(t, d.UserItems)
	assert.Empty(t, d.UserLoginBonuses)
	assert.Empty(t, d.UserPresentAllReceivedHistory)

	_, err = newService().UserDetail(context.Background(), s, 9)
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)
}

func TestBan(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	svc := newService()

	user, err := svc.Ban(ctx, s, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	ban, err := s.FindUserBan(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), ban.CreatedAt)

	// 2回目は updated_at のみ更新
	_, err = svc.Ban(ctx, s, 1, 2000)
	require.NoError(t, err)
	require.Len(t, s.Bans, 1)
	assert.Equal(t, int64(1000), s.Bans[0].CreatedAt)
	assert.Equal(t, int64(2000), s.Bans[0].UpdatedAt)
}

func TestBanUnknownUser(t *testing.T) {
	s := newStore(t)

	_, err := newService().Ban(context.Background(), s, 9, 1000)
	assert.ErrorIs(t, err, apperror.ErrBanTargetNotFound)
	assert.Equal(t, 400, apperror.KindOf(err).Status())
	assert.Empty(t, s.Bans)
}

func TestMasters(t *testing.T) {
	m, err := newService().Masters(context.Background(), newStore(t))
	require.NoError(t, err)
	assert.Len(t, m.VersionMaster, 1)
	assert.Len(t, m.Items, 2)
	assert.Empty(t, m.Gachas)
	assert.Empty(t, m.GachaItems)
	assert.Empty(t, m.PresentAlls)
	assert.Empty(t, m.LoginBonuses)
	assert.Empty(t, m.LoginBonusRewards)
}
