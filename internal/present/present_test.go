package present

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/grant"
	"github.com/hash-not-analog/isuconquest/internal/idgen"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/storetest"
)

func newEngine() *Engine {
	ids := idgen.NewSequence(1000)
	return NewEngine(ids, grant.NewEngine(ids))
}

func newStore() *storetest.Store {
	s := storetest.New()
	s.Users = append(s.Users, &model.User{ID: 1, IsuCoin: 0})
	s.ItemMasters = append(s.ItemMasters,
		&model.ItemMaster{ID: 2, ItemType: model.ItemTypeCard, AmountPerSec: storetest.Int(3)},
		&model.ItemMaster{ID: 5, ItemType: model.ItemTypeEnhance, GainedExp: storetest.Int(50)},
	)
	s.PresentAllMasters = append(s.PresentAllMasters,
		&model.PresentAllMaster{ID: 1, RegisteredStartAt: 0, RegisteredEndAt: 5000, ItemType: model.ItemTypeCoin, ItemID: 1, Amount: 100, PresentMessage: "welcome"},
		&model.PresentAllMaster{ID: 2, RegisteredStartAt: 0, RegisteredEndAt: 500, ItemType: model.ItemTypeCoin, ItemID: 1, Amount: 100, PresentMessage: "expired"},
	)
	return s
}

func TestDistributeIsIdempotent(t *testing.T) {
	s := newStore()
	e := newEngine()
	ctx := context.Background()

	first, err := e.Distribute(ctx, s, 1, 1000)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "welcome", first[0].PresentMessage)
	assert.Equal(t, 100, first[0].Amount)
	assert.Equal(t, int64(1000), first[0].SentAt)

	second, err := e.Distribute(ctx, s, 1, 2000)
	require.NoError(t, err)
	assert.Empty(t, second)

	histories, err := s.ListPresentAllReceivedHistory(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, histories, 1)
	presents, err := s.ListAllUserPresents(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, presents, 1)
}

func TestReceive(t *testing.T) {
	s := newStore()
	e := newEngine()
	ctx := context.Background()
	s.Presents = append(s.Presents,
		&model.UserPresent{ID: 1, UserID: 1, ItemType: model.ItemTypeCoin, ItemID: 1, Amount: 30},
		&model.UserPresent{ID: 2, UserID: 1, ItemType: model.ItemTypeCard, ItemID: 2, Amount: 1},
		&model.UserPresent{ID: 3, UserID: 1, ItemType: model.ItemTypeEnhance, ItemID: 5, Amount: 4},
		&model.UserPresent{ID: 4, UserID: 2, ItemType: model.ItemTypeCoin, ItemID: 1, Amount: 999},
	)

	got, err := e.Receive(ctx, s, 1, []int64{1, 2, 3, 4}, 1500)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, p := range got {
		require.NotNil(t, p.DeletedAt)
		assert.Equal(t, int64(1500), *p.DeletedAt)
	}

	user, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(30), user.IsuCoin)
	cards, err := s.ListUserCards(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, cards, 1)
	items, err := s.ListUserItems(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Amount)

	// receiving again grants nothing
	again, err := e.Receive(ctx, s, 1, []int64{1, 2, 3}, 1600)
	require.NoError(t, err)
	assert.Empty(t, again)
	user, err = s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(30), user.IsuCoin)
}

func TestReceiveEmptyIDs(t *testing.T) {
	_, err := newEngine().Receive(context.Background(), newStore(), 1, nil, 1000)
	assert.ErrorIs(t, err, apperror.ErrEmptyPresentIDs)
	assert.Equal(t, 422, apperror.KindOf(err).Status())
}

func TestReceiveUnknownIDs(t *testing.T) {
	got, err := newEngine().Receive(context.Background(), newStore(), 1, []int64{404, 405}, 1000)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReceiveLostRace(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	s.Presents = append(s.Presents, &model.UserPresent{ID: 1, UserID: 1, ItemType: model.ItemTypeCoin, ItemID: 1, Amount: 30})
	s.BeforeReceivePresent = func(presentID int64) {
		s.BeforeReceivePresent = nil
		// another request receives it first
		_, err := s.ReceiveUserPresent(ctx, presentID, 1400)
		require.NoError(t, err)
	}

	_, err := newEngine().Receive(ctx, s, 1, []int64{1}, 1500)
	assert.ErrorIs(t, err, apperror.ErrReceivedPresent)
	assert.Equal(t, 500, apperror.KindOf(err).Status())

	user, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), user.IsuCoin)
}

func TestReceiveInvalidItemType(t *testing.T) {
	s := newStore()
	s.Presents = append(s.Presents, &model.UserPresent{ID: 1, UserID: 1, ItemType: model.ItemType(7), ItemID: 1, Amount: 30})

	_, err := newEngine().Receive(context.Background(), s, 1, []int64{1}, 1500)
	assert.ErrorIs(t, err, apperror.ErrInvalidItemType)
}

func TestList(t *testing.T) {
	s := newStore()
	e := newEngine()
	ctx := context.Background()
	for i := 1; i <= 150; i++ {
		s.Presents = append(s.Presents, &model.UserPresent{ID: int64(i), UserID: 1, ItemType: model.ItemTypeCoin, Amount: 1, CreatedAt: int64(i / 2)})
	}

	page1, err := e.List(ctx, s, 1, 1)
	require.NoError(t, err)
	assert.Len(t, page1.Presents, 100)
	assert.True(t, page1.IsNext)
	// created_at DESC, id ASC
	assert.Equal(t, int64(150), page1.Presents[0].ID)
	assert.Equal(t, int64(148), page1.Presents[1].ID)
	assert.Equal(t, int64(149), page1.Presents[2].ID)

	page2, err := e.List(ctx, s, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page2.Presents, 50)
	assert.False(t, page2.IsNext)

	_, err = e.List(ctx, s, 1, 0)
	assert.ErrorIs(t, err, apperror.ErrInvalidIndexNumber)
}
