// Package grant gives coins, cards and materials to users and levels up cards.
package grant

import (
	"context"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/idgen"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/repository"
)

// Grant is one of Coin, Card or Material.
type Grant interface {
	ItemType() model.ItemType
	isGrant()
}

type Coin struct {
	Amount int64
}

type Card struct {
	CardID int64
}

// Material 強化素材(3)またはタイマー(4)
type Material struct {
	Type   model.ItemType
	ItemID int64
	Amount int
}

func (Coin) ItemType() model.ItemType { return model.ItemTypeCoin }

func (Card) ItemType() model.ItemType { return model.ItemTypeCard }

func (m Material) ItemType() model.ItemType { return m.Type }

func (Coin) isGrant() {}

func (Card) isGrant() {}

func (Material) isGrant() {}

// Parse maps a stored (item_type, item_id, amount) triple to its grant.
func Parse(itemType model.ItemType, itemID int64, amount int64) (Grant, error) {
	switch itemType {
	case model.ItemTypeCoin:
		return Coin{Amount: amount}, nil
	case model.ItemTypeCard:
		return Card{CardID: itemID}, nil
	case model.ItemTypeEnhance, model.ItemTypeTimer:
		return Material{Type: itemType, ItemID: itemID, Amount: int(amount)}, nil
	default:
		return nil, apperror.ErrInvalidItemType
	}
}

type Store interface {
	GetUser(ctx context.Context, userID int64) (*model.User, error)
	UpdateUserCoin(ctx context.Context, userID int64, coin int64) error
	GetItemMaster(ctx context.Context, itemID int64, itemType model.ItemType) (*model.ItemMaster, error)
	InsertUserCard(ctx context.Context, card *model.UserCard) error
	FindUserItem(ctx context.Context, userID int64, itemID int64) (*model.UserItem, error)
	InsertUserItem(ctx context.Context, item *model.UserItem) error
	UpdateUserItemAmount(ctx context.Context, userItemID int64, amount int, requestAt int64) error
}

// Engine grants resources inside the caller's transaction.
type Engine struct {
	ids idgen.Generator

	// Observe is called after every successful grant.
	Observe func(model.ItemType)
}

func NewEngine(ids idgen.Generator) *Engine {
	return &Engine{ids: ids}
}

// Grant アイテム付与処理
func (e *Engine) Grant(ctx context.Context, store Store, userID int64, g Grant, requestAt int64) error {
	var err error
	switch g := g.(type) {
	case Coin:
		err = e.grantCoin(ctx, store, userID, g)
	case Card:
		err = e.grantCard(ctx, store, userID, g, requestAt)
	case Material:
		err = e.grantMaterial(ctx, store, userID, g, requestAt)
	default:
		return apperror.ErrInvalidItemType
	}
	if err != nil {
		return err
	}

	if e.Observe != nil {
		e.Observe(g.ItemType())
	}
	return nil
}

func (e *Engine) grantCoin(ctx context.Context, store Store, userID int64, g Coin) error {
	user, err := store.GetUser(ctx, userID)
	if err != nil {
		if repository.IsNoRows(err) {
			return apperror.ErrUserNotFound.Wrap(err)
		}
		return err
	}

	return store.UpdateUserCoin(ctx, user.ID, user.IsuCoin+g.Amount)
}

func (e *Engine) grantCard(ctx context.Context, store Store, userID int64, g Card, requestAt int64) error {
	item, err := store.GetItemMaster(ctx, g.CardID, model.ItemTypeCard)
	if err != nil {
		if repository.IsNoRows(err) {
			return apperror.ErrItemNotFound.Wrap(err)
		}
		return err
	}

	cID, err := e.ids.NextID(ctx)
	if err != nil {
		return err
	}
	card := &model.UserCard{
		ID:           cID,
		UserID:       userID,
		CardID:       item.ID,
		AmountPerSec: intValue(item.AmountPerSec),
		Level:        1,
		TotalExp:     0,
		CreatedAt:    requestAt,
		UpdatedAt:    requestAt,
	}
	return store.InsertUserCard(ctx, card)
}

func (e *Engine) grantMaterial(ctx context.Context, store Store, userID int64, g Material, requestAt int64) error {
	item, err := store.GetItemMaster(ctx, g.ItemID, g.Type)
	if err != nil {
		if repository.IsNoRows(err) {
			return apperror.ErrItemNotFound.Wrap(err)
		}
		return err
	}

	// 所持数取得
	uItem, err := store.FindUserItem(ctx, userID, item.ID)
	if err != nil && !repository.IsNoRows(err) {
		return err
	}

	if uItem != nil { // 更新
		return store.UpdateUserItemAmount(ctx, uItem.ID, uItem.Amount+g.Amount, requestAt)
	}

	// 新規作成
	uItemID, err := e.ids.NextID(ctx)
	if err != nil {
		return err
	}
	uItem = &model.UserItem{
		ID:        uItemID,
		UserID:    userID,
		ItemType:  item.ItemType,
		ItemID:    item.ID,
		Amount:    g.Amount,
		CreatedAt: requestAt,
		UpdatedAt: requestAt,
	}
	return store.InsertUserItem(ctx, uItem)
}

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
