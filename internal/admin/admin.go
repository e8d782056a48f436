// Package admin implements the operator console: login, user inspection, bans and master browsing.
package admin

import (
	"context"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/idgen"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/repository"
	"github.com/hash-not-analog/isuconquest/internal/session"
)

type Store interface {
	GetAdminUser(ctx context.Context, adminID int64) (*model.AdminUser, error)
	UpdateAdminUserActivity(ctx context.Context, adminID int64, requestAt int64) error

	GetUser(ctx context.Context, userID int64) (*model.User, error)
	UpsertUserBan(ctx context.Context, ban *model.UserBan) error
	ListUserDevices(ctx context.Context, userID int64) ([]*model.UserDevice, error)
	ListUserCards(ctx context.Context, userID int64) ([]*model.UserCard, error)
	ListUserDecks(ctx context.Context, userID int64) ([]*model.UserDeck, error)
	ListUserItems(ctx context.Context, userID int64) ([]*model.UserItem, error)
	ListUserLoginBonuses(ctx context.Context, userID int64) ([]*model.UserLoginBonus, error)
	ListAllUserPresents(ctx context.Context, userID int64) ([]*model.UserPresent, error)
	ListPresentAllReceivedHistory(ctx context.Context, userID int64) ([]*model.UserPresentAllReceivedHistory, error)

	ListVersionMasters(ctx context.Context) ([]*model.VersionMaster, error)
	ListItemMasters(ctx context.Context) ([]*model.ItemMaster, error)
	ListGachaMasters(ctx context.Context) ([]*model.GachaMaster, error)
	ListAllGachaItemMasters(ctx context.Context) ([]*model.GachaItemMaster, error)
	ListPresentAllMasters(ctx context.Context) ([]*model.PresentAllMaster, error)
	ListLoginBonusMasters(ctx context.Context) ([]*model.LoginBonusMaster, error)
	ListLoginBonusRewardMasters(ctx context.Context) ([]*model.LoginBonusRewardMaster, error)
}

type Service struct {
	ids      idgen.Generator
	sessions *session.Issuer
}

func NewService(ids idgen.Generator, sessions *session.Issuer) *Service {
	return &Service{ids: ids, sessions: sessions}
}

// HashPassword admin_users.password の生成
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(hash, pw string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)); err != nil {
		return apperror.ErrUnauthorized.Wrap(err)
	}
	return nil
}

// Login 管理者ログイン
func (s *Service) Login(ctx context.Context, store Store, sessions session.Store, adminID int64, password string, requestAt int64) (*model.Session, error) {
	user, err := store.GetAdminUser(ctx, adminID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperror.ErrUserNotFound.Wrap(err)
		}
		return nil, err
	}

	if err := verifyPassword(user.Password, password); err != nil {
		return nil, err
	}

	if err := store.UpdateAdminUserActivity(ctx, user.ID, requestAt); err != nil {
		return nil, err
	}

	return s.sessions.Rotate(ctx, sessions, user.ID, requestAt)
}

// Logout 管理者ログアウト
func (s *Service) Logout(ctx context.Context, sessions session.Store, sessionID string, requestAt int64) error {
	return s.sessions.Revoke(ctx, sessions, sessionID, requestAt)
}

type UserDetail struct {
	User *model.User `json:"user"`

	UserDevices                   []*model.UserDevice                    `json:"userDevices"`
	UserCards                     []*model.UserCard                      `json:"userCards"`
	UserDecks                     []*model.UserDeck                      `json:"userDecks"`
	UserItems                     []*model.UserItem                      `json:"userItems"`
	UserLoginBonuses              []*model.UserLoginBonus                `json:"userLoginBonuses"`
	UserPresents                  []*model.UserPresent                   `json:"userPresents"`
	UserPresentAllReceivedHistory []*model.UserPresentAllReceivedHistory `json:"userPresentAllReceivedHistory"`
}

// UserDetail ユーザの詳細画面
func (s *Service) UserDetail(ctx context.Context, store Store, userID int64) (*UserDetail, error) {
	user, err := store.GetUser(ctx, userID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperror.ErrUserNotFound.Wrap(err)
		}
		return nil, err
	}

	d := &UserDetail{User: user}
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		d.UserDevices, err = store.ListUserDevices(ctx, userID)
		return err
	})
	eg.Go(func() (err error) {
		d.UserCards, err = store.ListUserCards(ctx, userID)
		return err
	})
	eg.Go(func() (err error) {
		d.UserDecks, err = store.ListUserDecks(ctx, userID)
		return err
	})
	eg.Go(func() (err error) {
		d.UserItems, err = store.ListUserItems(ctx, userID)
		return err
	})
	eg.Go(func() (err error) {
		d.UserLoginBonuses, err = store.ListUserLoginBonuses(ctx, userID)
		return err
	})
	eg.Go(func() (err error) {
		d.UserPresents, err = store.ListAllUserPresents(ctx, userID)
		return err
	})
	eg.Go(func() (err error) {
		d.UserPresentAllReceivedHistory, err = store.ListPresentAllReceivedHistory(ctx, userID)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return d, nil
}

// Ban ユーザBAN処理
func (s *Service) Ban(ctx context.Context, store Store, userID int64, requestAt int64) (*model.User, error) {
	user, err := store.GetUser(ctx, userID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperror.ErrBanTargetNotFound.Wrap(err)
		}
		return nil, err
	}

	banID, err := s.ids.NextID(ctx)
	if err != nil {
		return nil, err
	}
	ban := &model.UserBan{
		ID:        banID,
		UserID:    userID,
		CreatedAt: requestAt,
		UpdatedAt: requestAt,
	}
	if err := store.UpsertUserBan(ctx, ban); err != nil {
		return nil, err
	}

	return user, nil
}

type Masters struct {
	VersionMaster     []*model.VersionMaster          `json:"versionMaster"`
	Items             []*model.ItemMaster             `json:"items"`
	Gachas            []*model.GachaMaster            `json:"gachas"`
	GachaItems        []*model.GachaItemMaster        `json:"gachaItems"`
	PresentAlls       []*model.PresentAllMaster       `json:"presentAlls"`
	LoginBonusRewards []*model.LoginBonusRewardMaster `json:"loginBonusRewards"`
	LoginBonuses      []*model.LoginBonusMaster       `json:"loginBonuses"`
}

// Masters マスタデータ閲覧
func (s *Service) Masters(ctx context.Context, store Store) (*Masters, error) {
	m := new(Masters)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		m.VersionMaster, err = store.ListVersionMasters(ctx)
		return err
	})
	eg.Go(func() (err error) {
		m.Items, err = store.ListItemMasters(ctx)
		return err
	})
	eg.Go(func() (err error) {
		m.Gachas, err = store.ListGachaMasters(ctx)
		return err
	})
	eg.Go(func() (err error) {
		m.GachaItems, err = store.ListAllGachaItemMasters(ctx)
		return err
	})
	eg.Go(func() (err error) {
		m.PresentAlls, err = store.ListPresentAllMasters(ctx)
		return err
	})
	eg.Go(func() (err error) {
		m.LoginBonuses, err = store.ListLoginBonusMasters(ctx)
		return err
	})
	eg.Go(func() (err error) {
		m.LoginBonusRewards, err = store.ListLoginBonusRewardMasters(ctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}
