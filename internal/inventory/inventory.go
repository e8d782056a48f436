// Package inventory covers the user's own holdings: items, cards, deck and idle reward.
package inventory

import (
	"context"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/idgen"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/repository"
	"github.com/hash-not-analog/isuconquest/internal/session"
)

type Store interface {
	session.TokenStore

	GetUser(ctx context.Context, userID int64) (*model.User, error)
	UpdateUserReward(ctx context.Context, userID int64, coin int64, requestAt int64) error
	ListUserItems(ctx context.Context, userID int64) ([]*model.UserItem, error)
	ListUserCards(ctx context.Context, userID int64) ([]*model.UserCard, error)
	ListUserCardsByIDs(ctx context.Context, userID int64, cardIDs []int64) ([]*model.UserCard, error)
	FindActiveUserDeck(ctx context.Context, userID int64) (*model.UserDeck, error)
	DeleteUserDecks(ctx context.Context, userID int64, requestAt int64) error
	InsertUserDeck(ctx context.Context, deck *model.UserDeck) error
}

type Service struct {
	ids    idgen.Generator
	tokens *session.Issuer
}

func NewService(ids idgen.Generator, tokens *session.Issuer) *Service {
	return &Service{ids: ids, tokens: tokens}
}

// ItemList アイテムリスト
type ItemList struct {
	OneTimeToken string            `json:"oneTimeToken"`
	User         *model.User       `json:"user"`
	Items        []*model.UserItem `json:"items"`
	Cards        []*model.UserCard `json:"cards"`
}

// ListItems 所持アイテムとカードを返し、強化用のワンタイムトークンを発行する
func (s *Service) ListItems(ctx context.Context, store Store, userID int64, requestAt int64) (*ItemList, error) {
	user, err := getUser(ctx, store, userID)
	if err != nil {
		return nil, err
	}

	itemList, err := store.ListUserItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	cardList, err := store.ListUserCards(ctx, userID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueToken(ctx, store, userID, model.TokenTypeCardExp, requestAt)
	if err != nil {
		return nil, err
	}

	return &ItemList{
		OneTimeToken: token.Token,
		User:         user,
		Items:        itemList,
		Cards:        cardList,
	}, nil
}

// UpdateDeck 装備変更
func (s *Service) UpdateDeck(ctx context.Context, store Store, userID int64, cardIDs []int64, requestAt int64) (*model.UserDeck, error) {
	if len(cardIDs) != model.DeckCardNumber {
		return nil, apperror.ErrInvalidCardIDs
	}

	// カード所持情報のバリデーション
	cards, err := store.ListUserCardsByIDs(ctx, userID, cardIDs)
	if err != nil {
		return nil, err
	}
	if len(cards) != model.DeckCardNumber {
		return nil, apperror.ErrInvalidCardIDs
	}

	// update data
	if err := store.DeleteUserDecks(ctx, userID, requestAt); err != nil {
		return nil, err
	}

	udID, err := s.ids.NextID(ctx)
	if err != nil {
		return nil, err
	}
	newDeck := &model.UserDeck{
		ID:        udID,
		UserID:    userID,
		CardID1:   cardIDs[0],
		CardID2:   cardIDs[1],
		CardID3:   cardIDs[2],
		CreatedAt: requestAt,
		UpdatedAt: requestAt,
	}
	if err := store.InsertUserDeck(ctx, newDeck); err != nil {
		return nil, err
	}

	return newDeck, nil
}

// CollectReward ゲーム報酬受取
func (s *Service) CollectReward(ctx context.Context, store Store, userID int64, requestAt int64) (*model.User, error) {
	// 最後に取得した報酬時刻取得
	user, err := getUser(ctx, store, userID)
	if err != nil {
		return nil, err
	}

	// 使っているデッキの取得
	deck, err := store.FindActiveUserDeck(ctx, userID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperror.ErrDeckNotFound.Wrap(err)
		}
		return nil, err
	}

	cards, err := store.ListUserCardsByIDs(ctx, userID, deck.CardIDs())
	if err != nil {
		return nil, err
	}
	if len(cards) != model.DeckCardNumber {
		return nil, apperror.ErrInvalidCardIDs.WithMessage("invalid cards length")
	}

	// 経過時間*生産性のcoin (1椅子 = 1coin)
	pastTime := requestAt - user.LastGetRewardAt
	getCoin := pastTime * int64(totalAmountPerSec(cards))

	user.IsuCoin += getCoin
	user.LastGetRewardAt = requestAt
	user.UpdatedAt = requestAt

	if err := store.UpdateUserReward(ctx, user.ID, user.IsuCoin, requestAt); err != nil {
		return nil, err
	}

	return user, nil
}

// Home ホーム画面の情報
type Home struct {
	User              *model.User     `json:"user"`
	Deck              *model.UserDeck `json:"deck,omitempty"`
	TotalAmountPerSec int             `json:"totalAmountPerSec"`
	PastTime          int64           `json:"pastTime"` // 経過時間を秒単位で
}

// Home ホーム取得
func (s *Service) Home(ctx context.Context, store Store, userID int64, requestAt int64) (*Home, error) {
	// 装備情報
	deck, err := store.FindActiveUserDeck(ctx, userID)
	if err != nil {
		if !repository.IsNoRows(err) {
			return nil, err
		}
		deck = nil
	}

	// 生産性
	cards := make([]*model.UserCard, 0)
	if deck != nil {
		cards, err = store.ListUserCardsByIDs(ctx, userID, deck.CardIDs())
		if err != nil {
			return nil, err
		}
	}

	// 経過時間
	user, err := getUser(ctx, store, userID)
	if err != nil {
		return nil, err
	}

	return &Home{
		User:              user,
		Deck:              deck,
		TotalAmountPerSec: totalAmountPerSec(cards),
		PastTime:          requestAt - user.LastGetRewardAt,
	}, nil
}

func totalAmountPerSec(cards []*model.UserCard) int {
	total := 0
	for _, v := range cards {
		total += v.AmountPerSec
	}
	return total
}

func getUser(ctx context.Context, store Store, userID int64) (*model.User, error) {
	user, err := store.GetUser(ctx, userID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperror.ErrUserNotFound.Wrap(err)
		}
		return nil, err
	}
	return user, nil
}
