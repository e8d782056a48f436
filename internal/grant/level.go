package grant

import (
	"context"
	"math"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/repository"
)

// Consumption 消費する素材と個数
type Consumption struct {
	ID     int64 `json:"id" validate:"required"`
	Amount int   `json:"amount" validate:"gte=0"`
}

type LevelStore interface {
	GetTargetUserCard(ctx context.Context, userID int64, cardID int64) (*model.TargetUserCardData, error)
	GetConsumeUserItem(ctx context.Context, userID int64, userItemID int64) (*model.ConsumeUserItemData, error)
	UpdateUserCardGrowth(ctx context.Context, card *model.UserCard) error
	UpdateUserItemAmount(ctx context.Context, userItemID int64, amount int, requestAt int64) error
	GetUserCard(ctx context.Context, cardID int64) (*model.UserCard, error)
}

// LevelResult 強化後のカードと消費後の素材
type LevelResult struct {
	Card  *model.UserCard
	Items []*model.UserItem
}

// NextLevelThreshold lv -> lv+1 に必要な累計経験値
func NextLevelThreshold(baseExpPerLevel int, level int) int64 {
	return int64(float64(baseExpPerLevel) * math.Pow(1.2, float64(level-1)))
}

// LevelUp applies lv up from the accumulated exp of card. level never passes max_level.
func LevelUp(card *model.TargetUserCardData) {
	for card.Level < card.MaxLevel {
		if NextLevelThreshold(card.BaseExpPerLevel, card.Level) > card.TotalExp {
			break
		}

		// lv up処理
		card.Level++
		card.AmountPerSec += (card.MaxAmountPerSec - card.BaseAmountPerSec) / (card.MaxLevel - 1)
	}
}

// AddExpToCard 装備強化
func (e *Engine) AddExpToCard(ctx context.Context, store LevelStore, userID int64, cardID int64, consumptions []Consumption, requestAt int64) (*LevelResult, error) {
	card, err := store.GetTargetUserCard(ctx, userID, cardID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperror.ErrCardNotFound.Wrap(err)
		}
		return nil, err
	}

	if card.Level >= card.MaxLevel {
		return nil, apperror.ErrMaxLevel
	}

	// 消費アイテムの所持チェック
	merged := mergeConsumptions(consumptions)
	items := make([]*model.ConsumeUserItemData, 0, len(merged))
	for _, v := range merged {
		item, err := store.GetConsumeUserItem(ctx, userID, v.ID)
		if err != nil {
			if repository.IsNoRows(err) {
				return nil, apperror.ErrItemNotFound.Wrap(err)
			}
			return nil, err
		}

		if v.Amount > item.Amount {
			return nil, apperror.ErrNotEnoughItem
		}
		item.ConsumeAmount = v.Amount
		items = append(items, item)
	}

	// 経験値をカードに付与
	for _, v := range items {
		card.TotalExp += int64(v.GainedExp) * int64(v.ConsumeAmount)
	}

	// lvup判定(lv upしたら生産性を加算)
	LevelUp(card)

	// cardのlvと経験値の更新、itemの消費
	if err := store.UpdateUserCardGrowth(ctx, &model.UserCard{
		ID:           card.ID,
		AmountPerSec: card.AmountPerSec,
		Level:        card.Level,
		TotalExp:     card.TotalExp,
		UpdatedAt:    requestAt,
	}); err != nil {
		return nil, err
	}

	resultItems := make([]*model.UserItem, 0, len(items))
	for _, v := range items {
		if err := store.UpdateUserItemAmount(ctx, v.ID, v.Amount-v.ConsumeAmount, requestAt); err != nil {
			return nil, err
		}
		resultItems = append(resultItems, &model.UserItem{
			ID:        v.ID,
			UserID:    v.UserID,
			ItemID:    v.ItemID,
			ItemType:  v.ItemType,
			Amount:    v.Amount - v.ConsumeAmount,
			CreatedAt: v.CreatedAt,
			UpdatedAt: requestAt,
		})
	}

	resultCard, err := store.GetUserCard(ctx, card.ID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperror.ErrCardNotFound.Wrap(err)
		}
		return nil, err
	}

	return &LevelResult{Card: resultCard, Items: resultItems}, nil
}

// mergeConsumptions 同じ所持アイテムの指定は個数を合算する
func mergeConsumptions(consumptions []Consumption) []Consumption {
	merged := make([]Consumption, 0, len(consumptions))
	index := make(map[int64]int, len(consumptions))
	for _, v := range consumptions {
		if i, ok := index[v.ID]; ok {
			merged[i].Amount += v.Amount
			continue
		}
		index[v.ID] = len(merged)
		merged = append(merged, v)
	}
	return merged
}
