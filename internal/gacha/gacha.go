// Package gacha lists active gachas and resolves weighted draws into presents.
package gacha

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/idgen"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/repository"
	"github.com/hash-not-analog/isuconquest/internal/session"
)

type Store interface {
	session.TokenStore

	GetUser(ctx context.Context, userID int64) (*model.User, error)
	UpdateUserCoin(ctx context.Context, userID int64, coin int64) error
	ListActiveGachaMasters(ctx context.Context, requestAt int64) ([]*model.GachaMaster, error)
	GetActiveGachaMaster(ctx context.Context, gachaID int64, requestAt int64) (*model.GachaMaster, error)
	ListGachaItemMasters(ctx context.Context, gachaID int64) ([]*model.GachaItemMaster, error)
	InsertUserPresent(ctx context.Context, present *model.UserPresent) error
}

type Engine struct {
	ids    idgen.Generator
	tokens *session.Issuer

	// Sample returns a value in [0, n).
	Sample func(n int) int
	// Observe is called once per successful draw of n items.
	Observe func(gachaID int64, n int)
}

func NewEngine(ids idgen.Generator, tokens *session.Issuer) *Engine {
	return &Engine{ids: ids, tokens: tokens, Sample: rand.Intn}
}

type GachaData struct {
	Gacha     *model.GachaMaster       `json:"gacha"`
	GachaItem []*model.GachaItemMaster `json:"gachaItemList"`
}

type Listing struct {
	OneTimeToken string       `json:"oneTimeToken"`
	Gachas       []*GachaData `json:"gachas"`
}

// List ガチャ一覧
func (e *Engine) List(ctx context.Context, store Store, userID int64, requestAt int64) (*Listing, error) {
	gachaMasterList, err := store.ListActiveGachaMasters(ctx, requestAt)
	if err != nil {
		return nil, err
	}

	if len(gachaMasterList) == 0 {
		return &Listing{OneTimeToken: "", Gachas: []*GachaData{}}, nil
	}

	// ガチャ排出アイテム取得
	gachaDataList := make([]*GachaData, 0, len(gachaMasterList))
	for _, v := range gachaMasterList {
		gachaItem, err := store.ListGachaItemMasters(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		if len(gachaItem) == 0 {
			return nil, apperror.ErrGachaItemNotFound
		}

		gachaDataList = append(gachaDataList, &GachaData{
			Gacha:     v,
			GachaItem: gachaItem,
		})
	}

	token, err := e.tokens.IssueToken(ctx, store, userID, model.TokenTypeGacha, requestAt)
	if err != nil {
		return nil, err
	}

	return &Listing{OneTimeToken: token.Token, Gachas: gachaDataList}, nil
}

// Draw ガチャを引く。排出されたアイテムはプレゼントに入る
func (e *Engine) Draw(ctx context.Context, store Store, userID int64, gachaID int64, gachaCount int, requestAt int64) ([]*model.UserPresent, error) {
	if gachaCount != 1 && gachaCount != 10 {
		return nil, apperror.ErrInvalidDrawCount
	}

	consumedCoin := int64(gachaCount) * model.GachaCoinPerDraw

	// userのisuconが足りるか
	user, err := store.GetUser(ctx, userID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperror.ErrUserNotFound.Wrap(err)
		}
		return nil, err
	}
	if user.IsuCoin < consumedCoin {
		return nil, apperror.ErrNotEnoughCoin
	}

	// gachaIDからガチャマスタの取得
	gachaInfo, err := store.GetActiveGachaMaster(ctx, gachaID, requestAt)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperror.ErrGachaNotFound.Wrap(err)
		}
		return nil, err
	}

	// gachaItemMasterからアイテムリスト取得
	gachaItemList, err := store.ListGachaItemMasters(ctx, gachaID)
	if err != nil {
		return nil, err
	}
	if len(gachaItemList) == 0 {
		return nil, apperror.ErrGachaItemNotFound
	}

	// weightの合計値を算出
	sum := TotalWeight(gachaItemList)
	if sum <= 0 {
		return nil, apperror.ErrGachaItemNotFound
	}

	// random値の導出 & 抽選
	result := make([]*model.GachaItemMaster, 0, gachaCount)
	for i := 0; i < gachaCount; i++ {
		result = append(result, Pick(gachaItemList, e.Sample(sum)))
	}

	// 直付与 => プレゼントに入れる
	presents := make([]*model.UserPresent, 0, gachaCount)
	for _, v := range result {
		pID, err := e.ids.NextID(ctx)
		if err != nil {
			return nil, err
		}
		present := &model.UserPresent{
			ID:             pID,
			UserID:         userID,
			SentAt:         requestAt,
			ItemType:       v.ItemType,
			ItemID:         v.ItemID,
			Amount:         v.Amount,
			PresentMessage: fmt.Sprintf("%sの付与アイテムです", gachaInfo.Name),
			CreatedAt:      requestAt,
			UpdatedAt:      requestAt,
		}
		if err := store.InsertUserPresent(ctx, present); err != nil {
			return nil, err
		}
		presents = append(presents, present)
	}

	// isuconをへらす
	if err := store.UpdateUserCoin(ctx, user.ID, user.IsuCoin-consumedCoin); err != nil {
		return nil, err
	}

	if e.Observe != nil {
		e.Observe(gachaID, gachaCount)
	}
	return presents, nil
}

func TotalWeight(items []*model.GachaItemMaster) int {
	sum := 0
	for _, v := range items {
		sum += v.Weight
	}
	return sum
}

// Pick returns the first item whose cumulative weight exceeds random.
// random must be in [0, TotalWeight(items)).
func Pick(items []*model.GachaItemMaster, random int) *model.GachaItemMaster {
	boundary := 0
	for _, v := range items {
		boundary += v.Weight
		if random < boundary {
			return v
		}
	}
	return items[len(items)-1]
}
