package login

import (
	"context"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/repository"
	"github.com/hash-not-analog/isuconquest/internal/session"
)

// Registration ユーザ作成で作られたリソース
type Registration struct {
	Result
	Device  *model.UserDevice
	Cards   []*model.UserCard
	Deck    *model.UserDeck
	Session *model.Session
}

// Register ユーザの作成
func (s *Service) Register(ctx context.Context, store Store, sessions session.Store, viewerID string, platformType int, requestAt int64) (*Registration, error) {
	userID, err := s.ids.NextID(ctx)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		ID:              userID,
		IsuCoin:         0,
		LastGetRewardAt: requestAt,
		LastActivatedAt: requestAt,
		RegisteredAt:    requestAt,
		CreatedAt:       requestAt,
		UpdatedAt:       requestAt,
	}
	if err := store.InsertUser(ctx, user); err != nil {
		return nil, err
	}

	udID, err := s.ids.NextID(ctx)
	if err != nil {
		return nil, err
	}
	userDevice := &model.UserDevice{
		ID:           udID,
		UserID:       user.ID,
		PlatformID:   viewerID,
		PlatformType: platformType,
		CreatedAt:    requestAt,
		UpdatedAt:    requestAt,
	}
	if err := store.InsertUserDevice(ctx, userDevice); err != nil {
		return nil, err
	}

	// 初期デッキ付与
	initCard, err := store.GetItemMaster(ctx, model.InitialCardID, model.ItemTypeCard)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperror.ErrItemNotFound.Wrap(err)
		}
		return nil, err
	}

	initCards := make([]*model.UserCard, 0, model.DeckCardNumber)
	for i := 0; i < model.DeckCardNumber; i++ {
		cID, err := s.ids.NextID(ctx)
		if err != nil {
			return nil, err
		}
		card := &model.UserCard{
			ID:        cID,
			UserID:    user.ID,
			CardID:    initCard.ID,
			Level:     1,
			TotalExp:  0,
			CreatedAt: requestAt,
			UpdatedAt: requestAt,
		}
		if initCard.AmountPerSec != nil {
			card.AmountPerSec = *initCard.AmountPerSec
		}
		if err := store.InsertUserCard(ctx, card); err != nil {
			return nil, err
		}
		initCards = append(initCards, card)
	}

	deckID, err := s.ids.NextID(ctx)
	if err != nil {
		return nil, err
	}
	initDeck := &model.UserDeck{
		ID:        deckID,
		UserID:    user.ID,
		CardID1:   initCards[0].ID,
		CardID2:   initCards[1].ID,
		CardID3:   initCards[2].ID,
		CreatedAt: requestAt,
		UpdatedAt: requestAt,
	}
	if err := store.InsertUserDeck(ctx, initDeck); err != nil {
		return nil, err
	}

	// ログイン処理
	result, err := s.Process(ctx, store, user.ID, requestAt)
	if err != nil {
		return nil, err
	}

	// generate session
	sess, err := s.sessions.Rotate(ctx, sessions, user.ID, requestAt)
	if err != nil {
		return nil, err
	}

	return &Registration{
		Result:  *result,
		Device:  userDevice,
		Cards:   initCards,
		Deck:    initDeck,
		Session: sess,
	}, nil
}

// LoginResult ログインで更新されたリソース
type LoginResult struct {
	Result
	Session *model.Session
}

// Login sessionを更新し、その日初めてのログインならログイン処理をする
func (s *Service) Login(ctx context.Context, store Store, sessions session.Store, userID int64, requestAt int64) (*LoginResult, error) {
	user, err := getUser(ctx, store, userID)
	if err != nil {
		return nil, err
	}

	// sessionを更新
	sess, err := s.sessions.Rotate(ctx, sessions, user.ID, requestAt)
	if err != nil {
		return nil, err
	}

	// すでにログインしているユーザはログイン処理をしない
	if IsCompleteTodayLogin(user.LastActivatedAt, requestAt) {
		if err := store.UpdateUserActivity(ctx, user.ID, requestAt); err != nil {
			return nil, err
		}
		user.UpdatedAt = requestAt
		user.LastActivatedAt = requestAt
		return &LoginResult{Result: Result{User: user}, Session: sess}, nil
	}

	result, err := s.Process(ctx, store, user.ID, requestAt)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Result: *result, Session: sess}, nil
}
