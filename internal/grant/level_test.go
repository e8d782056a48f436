package grant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/idgen"
	"github.com/hash-not-analog/isuconquest/internal/model"
)

func TestNextLevelThreshold(t *testing.T) {
	assert.Equal(t, int64(100), NextLevelThreshold(100, 1))
	assert.Equal(t, int64(120), NextLevelThreshold(100, 2))
	assert.Equal(t, int64(144), NextLevelThreshold(100, 3))
	// 172.79999999999998
	assert.Equal(t, int64(172), NextLevelThreshold(100, 4))
	assert.Equal(t, int64(207), NextLevelThreshold(100, 5))
}

func TestLevelUp(t *testing.T) {
	tests := []struct {
		name       string
		totalExp   int64
		wantLevel  int
		wantAmount int
	}{
		{"below threshold", 99, 1, 3},
		{"exactly threshold", 100, 2, 6},
		{"two levels", 120, 3, 9},
		{"just below truncated threshold", 171, 4, 12},
		{"truncated threshold", 172, 5, 15},
		{"capped at max level", 1 << 40, 10, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := &model.TargetUserCardData{
				Level:            1,
				TotalExp:         tt.totalExp,
				AmountPerSec:     3,
				BaseAmountPerSec: 3,
				MaxLevel:         10,
				MaxAmountPerSec:  30,
				BaseExpPerLevel:  100,
			}
			LevelUp(card)
			assert.Equal(t, tt.wantLevel, card.Level)
			assert.Equal(t, tt.wantAmount, card.AmountPerSec)
		})
	}
}

func TestLevelUpMonotonic(t *testing.T) {
	card := &model.TargetUserCardData{
		Level:            1,
		AmountPerSec:     3,
		BaseAmountPerSec: 3,
		MaxLevel:         10,
		MaxAmountPerSec:  30,
		BaseExpPerLevel:  100,
	}
	prevLevel, prevAmount := card.Level, card.AmountPerSec
	for i := 0; i < 200; i++ {
		card.TotalExp += 37
		LevelUp(card)
		assert.GreaterOrEqual(t, card.Level, prevLevel)
		assert.GreaterOrEqual(t, card.AmountPerSec, prevAmount)
		assert.LessOrEqual(t, card.Level, card.MaxLevel)
		prevLevel, prevAmount = card.Level, card.AmountPerSec
	}
	assert.Equal(t, card.MaxLevel, card.Level)
}

func TestAddExpToCard(t *testing.T) {
	s := newStore()
	s.Cards = append(s.Cards, &model.UserCard{ID: 11, UserID: 1, CardID: 2, AmountPerSec: 3, Level: 1})
	s.Items = append(s.Items, &model.UserItem{ID: 21, UserID: 1, ItemID: 5, ItemType: model.ItemTypeEnhance, Amount: 4, CreatedAt: 10})
	e, cardID := NewEngine(idgen.NewSequence(100)), int64(11)

	res, err := e.AddExpToCard(context.Background(), s, 1, cardID, []Consumption{{ID: 21, Amount: 3}}, 500)
	require.NoError(t, err)

	// 50 * 3 = 150 exp -> lv4
	assert.Equal(t, int64(150), res.Card.TotalExp)
	assert.Equal(t, 4, res.Card.Level)
	assert.Equal(t, 12, res.Card.AmountPerSec)
	assert.Equal(t, int64(500), res.Card.UpdatedAt)
	require.Len(t, res.Items, 1)
	assert.Equal(t, 1, res.Items[0].Amount)
	assert.Equal(t, int64(10), res.Items[0].CreatedAt)

	items, err := s.ListUserItems(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, items[0].Amount)
}

func TestAddExpToCardErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("card of another user", func(t *testing.T) {
		s := newStore()
		s.Cards = append(s.Cards, &model.UserCard{ID: 11, UserID: 2, CardID: 2, Level: 1})
		e, cardID := NewEngine(idgen.NewSequence(100)), int64(11)
		_, err := e.AddExpToCard(ctx, s, 1, cardID, nil, 500)
		assert.ErrorIs(t, err, apperror.ErrCardNotFound)
	})

	t.Run("max level", func(t *testing.T) {
		s := newStore()
		s.Cards = append(s.Cards, &model.UserCard{ID: 11, UserID: 1, CardID: 2, Level: 10})
		e, cardID := NewEngine(idgen.NewSequence(100)), int64(11)
		_, err := e.AddExpToCard(ctx, s, 1, cardID, nil, 500)
		assert.ErrorIs(t, err, apperror.ErrMaxLevel)
	})

	t.Run("not a material", func(t *testing.T) {
		s := newStore()
		s.Cards = append(s.Cards, &model.UserCard{ID: 11, UserID: 1, CardID: 2, Level: 1})
		s.Items = append(s.Items, &model.UserItem{ID: 22, UserID: 1, ItemID: 6, ItemType: model.ItemTypeTimer, Amount: 4})
		e, cardID := NewEngine(idgen.NewSequence(100)), int64(11)
		_, err := e.AddExpToCard(ctx, s, 1, cardID, []Consumption{{ID: 22, Amount: 1}}, 500)
		assert.ErrorIs(t, err, apperror.ErrItemNotFound)
	})

	t.Run("not enough stock", func(t *testing.T) {
		s := newStore()
		s.Cards = append(s.Cards, &model.UserCard{ID: 11, UserID: 1, CardID: 2, Level: 1})
		s.Items = append(s.Items, &model.UserItem{ID: 21, UserID: 1, ItemID: 5, ItemType: model.ItemTypeEnhance, Amount: 2})
		e, cardID := NewEngine(idgen.NewSequence(100)), int64(11)
		_, err := e.AddExpToCard(ctx, s, 1, cardID, []Consumption{{ID: 21, Amount: 3}}, 500)
		assert.ErrorIs(t, err, apperror.ErrNotEnoughItem)

		card, err := s.GetUserCard(ctx, 11)
		require.NoError(t, err)
		assert.Equal(t, int64(0), card.TotalExp)
	})

	t.Run("same item listed twice over stock", func(t *testing.T) {
		s := newStore()
		s.Cards = append(s.Cards, &model.UserCard{ID: 11, UserID: 1, CardID: 2, Level: 1})
		s.Items = append(s.Items, &model.UserItem{ID: 21, UserID: 1, ItemID: 5, ItemType: model.ItemTypeEnhance, Amount: 4})
		e, cardID := NewEngine(idgen.NewSequence(100)), int64(11)
		_, err := e.AddExpToCard(ctx, s, 1, cardID, []Consumption{{ID: 21, Amount: 4}, {ID: 21, Amount: 4}}, 500)
		assert.ErrorIs(t, err, apperror.ErrNotEnoughItem)

		card, err := s.GetUserCard(ctx, 11)
		require.NoError(t, err)
		assert.Equal(t, int64(0), card.TotalExp)
		items, err := s.ListUserItems(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 4, items[0].Amount)
	})
}

func TestAddExpToCardMergesSameItem(t *testing.T) {
	s := newStore()
	s.Cards = append(s.Cards, &model.UserCard{ID: 11, UserID: 1, CardID: 2, AmountPerSec: 3, Level: 1})
	s.Items = append(s.Items, &model.UserItem{ID: 21, UserID: 1, ItemID: 5, ItemType: model.ItemTypeEnhance, Amount: 4})
	e, cardID := NewEngine(idgen.NewSequence(100)), int64(11)

	res, err := e.AddExpToCard(context.Background(), s, 1, cardID, []Consumption{{ID: 21, Amount: 1}, {ID: 21, Amount: 2}}, 500)
	require.NoError(t, err)

	// 50 * (1 + 2) = 150 exp
	assert.Equal(t, int64(150), res.Card.TotalExp)
	require.Len(t, res.Items, 1)
	assert.Equal(t, 1, res.Items[0].Amount)

	items, err := s.ListUserItems(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, items[0].Amount)
}
