// Package login runs the daily login process, login bonuses and user registration.
package login

import (
	"context"
	"time"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/grant"
	"github.com/hash-not-analog/isuconquest/internal/idgen"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/present"
	"github.com/hash-not-analog/isuconquest/internal/repository"
	"github.com/hash-not-analog/isuconquest/internal/session"
)

var jst = time.FixedZone("Asia/Tokyo", 9*60*60)

type Store interface {
	present.Store

	InsertUser(ctx context.Context, user *model.User) error
	UpdateUserActivity(ctx context.Context, userID int64, requestAt int64) error
	InsertUserDevice(ctx context.Context, device *model.UserDevice) error
	InsertUserDeck(ctx context.Context, deck *model.UserDeck) error

	ListActiveLoginBonusMasters(ctx context.Context, requestAt int64) ([]*model.LoginBonusMaster, error)
	GetLoginBonusRewardMaster(ctx context.Context, loginBonusID int64, sequence int) (*model.LoginBonusRewardMaster, error)
	FindUserLoginBonus(ctx context.Context, userID int64, loginBonusID int64) (*model.UserLoginBonus, error)
	InsertUserLoginBonus(ctx context.Context, bonus *model.UserLoginBonus) error
	UpdateUserLoginBonus(ctx context.Context, bonus *model.UserLoginBonus) error
}

type Service struct {
	ids      idgen.Generator
	grants   *grant.Engine
	presents *present.Engine
	sessions *session.Issuer
}

func NewService(ids idgen.Generator, grants *grant.Engine, presents *present.Engine, sessions *session.Issuer) *Service {
	return &Service{ids: ids, grants: grants, presents: presents, sessions: sessions}
}

// Result ログイン処理で更新されたリソース
type Result struct {
	User         *model.User
	LoginBonuses []*model.UserLoginBonus
	Presents     []*model.UserPresent
}

// IsCompleteTodayLogin ログイン処理が終わっているか
func IsCompleteTodayLogin(lastActivatedAt, requestAt int64) bool {
	y1, m1, d1 := time.Unix(lastActivatedAt, 0).In(jst).Date()
	y2, m2, d2 := time.Unix(requestAt, 0).In(jst).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Process ログイン処理
func (s *Service) Process(ctx context.Context, store Store, userID int64, requestAt int64) (*Result, error) {
	if _, err := getUser(ctx, store, userID); err != nil {
		return nil, err
	}

	// ログインボーナス処理
	loginBonuses, err := s.ObtainLoginBonus(ctx, store, userID, requestAt)
	if err != nil {
		return nil, err
	}

	// 全員プレゼント取得
	allPresents, err := s.presents.Distribute(ctx, store, userID, requestAt)
	if err != nil {
		return nil, err
	}

	if err := store.UpdateUserActivity(ctx, userID, requestAt); err != nil {
		return nil, err
	}

	user, err := getUser(ctx, store, userID)
	if err != nil {
		return nil, err
	}

	return &Result{User: user, LoginBonuses: loginBonuses, Presents: allPresents}, nil
}

// ObtainLoginBonus 有効なログインボーナスを1日分進めて付与する
func (s *Service) ObtainLoginBonus(ctx context.Context, store Store, userID int64, requestAt int64) ([]*model.UserLoginBonus, error) {
	loginBonuses, err := store.ListActiveLoginBonusMasters(ctx, requestAt)
	if err != nil {
		return nil, err
	}

	sendLoginBonuses := make([]*model.UserLoginBonus, 0)
	for _, bonus := range loginBonuses {
		initBonus := false
		// ボーナスの進捗取得
		userBonus, err := store.FindUserLoginBonus(ctx, userID, bonus.ID)
		if err != nil {
			if !repository.IsNoRows(err) {
				return nil, err
			}
			initBonus = true

			ubID, err := s.ids.NextID(ctx)
			if err != nil {
				return nil, err
			}
			userBonus = &model.UserLoginBonus{
				ID:                 ubID,
				UserID:             userID,
				LoginBonusID:       bonus.ID,
				LastRewardSequence: 0,
				LoopCount:          1,
				CreatedAt:          requestAt,
				UpdatedAt:          requestAt,
			}
		}

		// ボーナス進捗更新
		if !advance(userBonus, bonus) {
			// 上限まで付与完了
			continue
		}
		userBonus.UpdatedAt = requestAt

		// 今回付与するリソース取得
		rewardItem, err := store.GetLoginBonusRewardMaster(ctx, bonus.ID, userBonus.LastRewardSequence)
		if err != nil {
			if repository.IsNoRows(err) {
				return nil, apperror.ErrLoginBonusRewardNotFound.Wrap(err)
			}
			return nil, err
		}

		g, err := grant.Parse(rewardItem.ItemType, rewardItem.ItemID, rewardItem.Amount)
		if err != nil {
			return nil, err
		}
		if err := s.grants.Grant(ctx, store, userID, g, requestAt); err != nil {
			return nil, err
		}

		// 進捗の保存
		if initBonus {
			err = store.InsertUserLoginBonus(ctx, userBonus)
		} else {
			err = store.UpdateUserLoginBonus(ctx, userBonus)
		}
		if err != nil {
			return nil, err
		}

		sendLoginBonuses = append(sendLoginBonuses, userBonus)
	}

	return sendLoginBonuses, nil
}

// advance reports false when a non-looped bonus has already granted every column.
func advance(userBonus *model.UserLoginBonus, bonus *model.LoginBonusMaster) bool {
	if userBonus.LastRewardSequence < bonus.ColumnCount {
		userBonus.LastRewardSequence++
		return true
	}
	if bonus.Looped {
		userBonus.LoopCount++
		userBonus.LastRewardSequence = 1
		return true
	}
	return false
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
