package login

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/grant"
	"github.com/hash-not-analog/isuconquest/internal/idgen"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/present"
	"github.com/hash-not-analog/isuconquest/internal/session"
	"github.com/hash-not-analog/isuconquest/internal/storetest"
)

const day = int64(24 * 60 * 60)

func newService() *Service {
	ids := idgen.NewSequence(10000)
	grants := grant.NewEngine(ids)
	return NewService(ids, grants, present.NewEngine(ids, grants), session.NewUserIssuer(ids))
}

func newStore() *storetest.Store {
	s := storetest.New()
	s.Users = append(s.Users, &model.User{ID: 1})
	s.ItemMasters = append(s.ItemMasters,
		&model.ItemMaster{ID: 1, ItemType: model.ItemTypeCoin},
		&model.ItemMaster{ID: 2, ItemType: model.ItemTypeCard, AmountPerSec: storetest.Int(5)},
	)
	s.LoginBonusMasters = append(s.LoginBonusMasters,
		&model.LoginBonusMaster{ID: 1, StartAt: 0, EndAt: 100 * day, ColumnCount: 5, Looped: false},
		&model.LoginBonusMaster{ID: 2, StartAt: 0, EndAt: 100 * day, ColumnCount: 5, Looped: true},
	)
	for _, bonusID := range []int64{1, 2} {
		for seq := 1; seq <= 5; seq++ {
			s.LoginBonusRewardMasters = append(s.LoginBonusRewardMasters, &model.LoginBonusRewardMaster{
				ID:             bonusID*10 + int64(seq),
				LoginBonusID:   bonusID,
				RewardSequence: seq,
				ItemType:       model.ItemTypeCoin,
				ItemID:         1,
				Amount:         int64(seq * 100),
			})
		}
	}
	return s
}

func TestIsCompleteTodayLogin(t *testing.T) {
	// 2022-07-01 00:00:00 +09:00
	midnight := time.Date(2022, 7, 1, 0, 0, 0, 0, jst).Unix()

	assert.True(t, IsCompleteTodayLogin(midnight, midnight+day-1))
	assert.False(t, IsCompleteTodayLogin(midnight-1, midnight))
	assert.False(t, IsCompleteTodayLogin(midnight, midnight+day))
	// same UTC date, different JST date
	assert.False(t, IsCompleteTodayLogin(midnight-60, midnight+60))
}

func TestObtainLoginBonusCapAndLoop(t *testing.T) {
	s := newStore()
	svc := newService()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		bonuses, err := svc.ObtainLoginBonus(ctx, s, 1, int64(i)*day)
		require.NoError(t, err)
		require.Len(t, bonuses, 2)
		for _, b := range bonuses {
			assert.Equal(t, i, b.LastRewardSequence)
			assert.Equal(t, 1, b.LoopCount)
		}
	}

	user, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	// 2 bonuses * (100+200+300+400+500)
	assert.Equal(t, int64(3000), user.IsuCoin)

	sixth, err := svc.ObtainLoginBonus(ctx, s, 1, 6*day)
	require.NoError(t, err)
	require.Len(t, sixth, 1)
	assert.Equal(t, int64(2), sixth[0].LoginBonusID)
	assert.Equal(t, 1, sixth[0].LastRewardSequence)
	assert.Equal(t, 2, sixth[0].LoopCount)

	user, err = s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3100), user.IsuCoin)

	capped, err := s.FindUserLoginBonus(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, capped.LastRewardSequence)
}

func TestObtainLoginBonusMissingReward(t *testing.T) {
	s := newStore()
	s.LoginBonusRewardMasters = nil

	_, err := newService().ObtainLoginBonus(context.Background(), s, 1, day)
	assert.ErrorIs(t, err, apperror.ErrLoginBonusRewardNotFound)
}

func TestProcess(t *testing.T) {
	s := newStore()
	s.PresentAllMasters = append(s.PresentAllMasters, &model.PresentAllMaster{ID: 1, RegisteredStartAt: 0, RegisteredEndAt: 100 * day, ItemType: model.ItemTypeCoin, ItemID: 1, Amount: 50})

	res, err := newService().Process(context.Background(), s, 1, day)
	require.NoError(t, err)
	assert.Len(t, res.LoginBonuses, 2)
	assert.Len(t, res.Presents, 1)
	assert.Equal(t, int64(200), res.User.IsuCoin)
	assert.Equal(t, day, res.User.LastActivatedAt)
	assert.Equal(t, day, res.User.UpdatedAt)
}

func TestProcessUnknownUser(t *testing.T) {
	_, err := newService().Process(context.Background(), newStore(), 99, day)
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)
}

func TestRegister(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	reg, err := newService().Register(ctx, s, s.UserSessions(), "viewer-1", 2, day)
	require.NoError(t, err)

	assert.Equal(t, "viewer-1", reg.Device.PlatformID)
	assert.Equal(t, 2, reg.Device.PlatformType)
	require.Len(t, reg.Cards, 3)
	for _, c := range reg.Cards {
		assert.Equal(t, int64(2), c.CardID)
		assert.Equal(t, 5, c.AmountPerSec)
	}
	assert.Equal(t, []int64{reg.Cards[0].ID, reg.Cards[1].ID, reg.Cards[2].ID}, reg.Deck.CardIDs())
	assert.Len(t, reg.LoginBonuses, 2)
	assert.Equal(t, day+day, reg.Session.ExpiredAt)
	assert.Len(t, s.UserSessions().Active(reg.User.ID), 1)
}

func TestRegisterWithoutInitialCard(t *testing.T) {
	s := newStore()
	s.ItemMasters = s.ItemMasters[:1]

	_, err := newService().Register(context.Background(), s, s.UserSessions(), "viewer-1", 1, day)
	assert.ErrorIs(t, err, apperror.ErrItemNotFound)
}

func TestLoginSameDaySkipsProcess(t *testing.T) {
	s := newStore()
	svc := newService()
	ctx := context.Background()
	midnight := time.Date(2022, 7, 1, 0, 0, 0, 0, jst).Unix()
	s.LoginBonusMasters[0].EndAt = midnight + 10*day
	s.LoginBonusMasters[1].EndAt = midnight + 10*day

	first, err := svc.Login(ctx, s, s.UserSessions(), 1, midnight+60)
	require.NoError(t, err)
	assert.Len(t, first.LoginBonuses, 2)

	second, err := svc.Login(ctx, s, s.UserSessions(), 1, midnight+120)
	require.NoError(t, err)
	assert.Empty(t, second.LoginBonuses)
	assert.Equal(t, midnight+120, second.User.LastActivatedAt)
	assert.NotEqual(t, first.Session.SessionID, second.Session.SessionID)

	active := s.UserSessions().Active(1)
	require.Len(t, active, 1)
	assert.Equal(t, second.Session.SessionID, active[0].SessionID)

	next, err := svc.Login(ctx, s, s.UserSessions(), 1, midnight+day)
	require.NoError(t, err)
	require.Len(t, next.LoginBonuses, 2)
	assert.Equal(t, 2, next.LoginBonuses[0].LastRewardSequence)
}
