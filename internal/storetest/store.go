// Package storetest is an in-memory stand-in for the MySQL repository used by engine tests.
// Lookups that match nothing fail with sql.ErrNoRows like the real repository does.
package storetest

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/hash-not-analog/isuconquest/internal/model"
)

func noRows() error {
	return errors.WithStack(sql.ErrNoRows)
}

func clone[T any](v *T) *T {
	c := *v
	return &c
}

func cloneAll[T any](vs []*T, keep func(*T) bool) []*T {
	out := make([]*T, 0)
	for _, v := range vs {
		if keep(v) {
			out = append(out, clone(v))
		}
	}
	return out
}

// Store holds every table in slices. Seed it by appending to the exported fields
// before the engine under test runs.
type Store struct {
	mu sync.Mutex

	Users            []*model.User
	Devices          []*model.UserDevice
	Bans             []*model.UserBan
	Cards            []*model.UserCard
	Decks            []*model.UserDeck
	Items            []*model.UserItem
	LoginBonuses     []*model.UserLoginBonus
	Presents         []*model.UserPresent
	PresentHistories []*model.UserPresentAllReceivedHistory
	Tokens           []*model.UserOneTimeToken
	AdminUsers       []*model.AdminUser

	VersionMasters          []*model.VersionMaster
	ItemMasters             []*model.ItemMaster
	GachaMasters            []*model.GachaMaster
	GachaItemMasters        []*model.GachaItemMaster
	LoginBonusMasters       []*model.LoginBonusMaster
	LoginBonusRewardMasters []*model.LoginBonusRewardMaster
	PresentAllMasters       []*model.PresentAllMaster

	// BeforeReceivePresent runs before ReceiveUserPresent takes the lock.
	BeforeReceivePresent func(presentID int64)

	userSessions  *SessionTable
	adminSessions *SessionTable
}

func New() *Store {
	return &Store{
		userSessions:  &SessionTable{},
		adminSessions: &SessionTable{},
	}
}

func (s *Store) UserSessions() *SessionTable { return s.userSessions }

func (s *Store) AdminSessions() *SessionTable { return s.adminSessions }

// //////////////////////////////////////
// user

func (s *Store) GetUser(_ context.Context, userID int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.Users {
		if u.ID == userID {
			return clone(u), nil
		}
	}
	return nil, noRows()
}

func (s *Store) InsertUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Users = append(s.Users, clone(user))
	return nil
}

func (s *Store) updateUser(userID int64, fn func(u *model.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.Users {
		if u.ID == userID {
			fn(u)
		}
	}
	return nil
}

func (s *Store) UpdateUserCoin(_ context.Context, userID int64, coin int64) error {
	return s.updateUser(userID, func(u *model.User) { u.IsuCoin = coin })
}

func (s *Store) UpdateUserActivity(_ context.Context, userID int64, requestAt int64) error {
	return s.updateUser(userID, func(u *model.User) {
		u.UpdatedAt = requestAt
		u.LastActivatedAt = requestAt
	})
}

func (s *Store) UpdateUserReward(_ context.Context, userID int64, coin int64, requestAt int64) error {
	return s.updateUser(userID, func(u *model.User) {
		u.IsuCoin = coin
		u.LastGetRewardAt = requestAt
		u.UpdatedAt = requestAt
	})
}

func (s *Store) InsertUserDevice(_ context.Context, device *model.UserDevice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Devices = append(s.Devices, clone(device))
	return nil
}

func (s *Store) FindUserDevice(_ context.Context, userID int64, viewerID string) (*model.UserDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.Devices {
		if d.UserID == userID && d.PlatformID == viewerID {
			return clone(d), nil
		}
	}
	return nil, noRows()
}

func (s *Store) ListUserDevices(_ context.Context, userID int64) ([]*model.UserDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.Devices, func(d *model.UserDevice) bool { return d.UserID == userID }), nil
}

func (s *Store) FindUserBan(_ context.Context, userID int64) (*model.UserBan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.Bans {
		if b.UserID == userID && b.DeletedAt == nil {
			return clone(b), nil
		}
	}
	return nil, noRows()
}

func (s *Store) UpsertUserBan(_ context.Context, ban *model.UserBan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.Bans {
		if b.UserID == ban.UserID {
			b.UpdatedAt = ban.UpdatedAt
			return nil
		}
	}
	s.Bans = append(s.Bans, clone(ban))
	return nil
}

func (s *Store) GetAdminUser(_ context.Context, adminID int64) (*model.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.AdminUsers {
		if a.ID == adminID {
			return clone(a), nil
		}
	}
	return nil, noRows()
}

func (s *Store) UpdateAdminUserActivity(_ context.Context, adminID int64, requestAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.AdminUsers {
		if a.ID == adminID {
			a.LastActivatedAt = requestAt
			a.UpdatedAt = requestAt
		}
	}
	return nil
}

// //////////////////////////////////////
// one time token

func (s *Store) FindOneTimeToken(_ context.Context, token string, tokenType model.TokenType) (*model.UserOneTimeToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tk := range s.Tokens {
		if tk.Token == token && tk.TokenType == tokenType && tk.DeletedAt == nil {
			return clone(tk), nil
		}
	}
	return nil, noRows()
}

func (s *Store) ConsumeOneTimeToken(_ context.Context, token string, requestAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tk := range s.Tokens {
		if tk.Token == token && tk.DeletedAt == nil {
			at := requestAt
			tk.DeletedAt = &at
		}
	}
	return nil
}

func (s *Store) DeleteUserOneTimeTokens(_ context.Context, userID int64, tokenType model.TokenType, requestAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tk := range s.Tokens {
		if tk.UserID == userID && tk.TokenType == tokenType && tk.DeletedAt == nil {
			at := requestAt
			tk.DeletedAt = &at
		}
	}
	return nil
}

func (s *Store) InsertOneTimeToken(_ context.Context, tk *model.UserOneTimeToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tokens = append(s.Tokens, clone(tk))
	return nil
}

// //////////////////////////////////////
// card, deck

func (s *Store) InsertUserCard(_ context.Context, card *model.UserCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cards = append(s.Cards, clone(card))
	return nil
}

func (s *Store) GetUserCard(_ context.Context, cardID int64) (*model.UserCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.Cards {
		if c.ID == cardID {
			return clone(c), nil
		}
	}
	return nil, noRows()
}

func (s *Store) ListUserCards(_ context.Context, userID int64) ([]*model.UserCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.Cards, func(c *model.UserCard) bool { return c.UserID == userID }), nil
}

func (s *Store) ListUserCardsByIDs(_ context.Context, userID int64, cardIDs []int64) ([]*model.UserCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.Cards, func(c *model.UserCard) bool {
		return c.UserID == userID && contains(cardIDs, c.ID)
	}), nil
}

func (s *Store) GetTargetUserCard(_ context.Context, userID int64, cardID int64) (*model.TargetUserCardData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.Cards {
		if c.ID != cardID || c.UserID != userID {
			continue
		}
		for _, im := range s.ItemMasters {
			if im.ID == c.CardID {
				return &model.TargetUserCardData{
					ID:               c.ID,
					UserID:           c.UserID,
					CardID:           c.CardID,
					AmountPerSec:     c.AmountPerSec,
					Level:            c.Level,
					TotalExp:         c.TotalExp,
					BaseAmountPerSec: deref(im.AmountPerSec),
					MaxLevel:         deref(im.MaxLevel),
					MaxAmountPerSec:  deref(im.MaxAmountPerSec),
					BaseExpPerLevel:  deref(im.BaseExpPerLevel),
				}, nil
			}
		}
	}
	return nil, noRows()
}

func (s *Store) UpdateUserCardGrowth(_ context.Context, card *model.UserCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.Cards {
		if c.ID == card.ID {
			c.AmountPerSec = card.AmountPerSec
			c.Level = card.Level
			c.TotalExp = card.TotalExp
			c.UpdatedAt = card.UpdatedAt
		}
	}
	return nil
}

func (s *Store) FindActiveUserDeck(_ context.Context, userID int64) (*model.UserDeck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.Decks {
		if d.UserID == userID && d.DeletedAt == nil {
			return clone(d), nil
		}
	}
	return nil, noRows()
}

func (s *Store) DeleteUserDecks(_ context.Context, userID int64, requestAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.Decks {
		if d.UserID == userID && d.DeletedAt == nil {
			at := requestAt
			d.UpdatedAt = requestAt
			d.DeletedAt = &at
		}
	}
	return nil
}

func (s *Store) InsertUserDeck(_ context.Context, deck *model.UserDeck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Decks = append(s.Decks, clone(deck))
	return nil
}

func (s *Store) ListUserDecks(_ context.Context, userID int64) ([]*model.UserDeck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.Decks, func(d *model.UserDeck) bool { return d.UserID == userID }), nil
}

// //////////////////////////////////////
// item, login bonus

func (s *Store) FindUserItem(_ context.Context, userID int64, itemID int64) (*model.UserItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.Items {
		if i.UserID == userID && i.ItemID == itemID {
			return clone(i), nil
		}
	}
	return nil, noRows()
}

func (s *Store) InsertUserItem(_ context.Context, item *model.UserItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Items = append(s.Items, clone(item))
	return nil
}

func (s *Store) UpdateUserItemAmount(_ context.Context, userItemID int64, amount int, requestAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.Items {
		if i.ID == userItemID {
			i.Amount = amount
			i.UpdatedAt = requestAt
		}
	}
	return nil
}

func (s *Store) ListUserItems(_ context.Context, userID int64) ([]*model.UserItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.Items, func(i *model.UserItem) bool { return i.UserID == userID }), nil
}

func (s *Store) GetConsumeUserItem(_ context.Context, userID int64, userItemID int64) (*model.ConsumeUserItemData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.Items {
		if i.ID != userItemID || i.UserID != userID || i.ItemType != model.ItemTypeEnhance {
			continue
		}
		for _, im := range s.ItemMasters {
			if im.ID == i.ItemID {
				return &model.ConsumeUserItemData{
					ID:        i.ID,
					UserID:    i.UserID,
					ItemID:    i.ItemID,
					ItemType:  i.ItemType,
					Amount:    i.Amount,
					CreatedAt: i.CreatedAt,
					UpdatedAt: i.UpdatedAt,
					GainedExp: deref(im.GainedExp),
				}, nil
			}
		}
	}
	return nil, noRows()
}

func (s *Store) FindUserLoginBonus(_ context.Context, userID int64, loginBonusID int64) (*model.UserLoginBonus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.LoginBonuses {
		if b.UserID == userID && b.LoginBonusID == loginBonusID && b.DeletedAt == nil {
			return clone(b), nil
		}
	}
	return nil, noRows()
}

func (s *Store) InsertUserLoginBonus(_ context.Context, bonus *model.UserLoginBonus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LoginBonuses = append(s.LoginBonuses, clone(bonus))
	return nil
}

func (s *Store) UpdateUserLoginBonus(_ context.Context, bonus *model.UserLoginBonus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.LoginBonuses {
		if b.ID == bonus.ID {
			b.LastRewardSequence = bonus.LastRewardSequence
			b.LoopCount = bonus.LoopCount
			b.UpdatedAt = bonus.UpdatedAt
		}
	}
	return nil
}

func (s *Store) ListUserLoginBonuses(_ context.Context, userID int64) ([]*model.UserLoginBonus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.LoginBonuses, func(b *model.UserLoginBonus) bool { return b.UserID == userID }), nil
}

// //////////////////////////////////////
// present

func (s *Store) InsertUserPresent(_ context.Context, present *model.UserPresent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Presents = append(s.Presents, clone(present))
	return nil
}

func (s *Store) ListUnreceivedUserPresents(_ context.Context, userID int64, presentIDs []int64) ([]*model.UserPresent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	presents := cloneAll(s.Presents, func(p *model.UserPresent) bool {
		return p.UserID == userID && p.DeletedAt == nil && contains(presentIDs, p.ID)
	})
	sort.Slice(presents, func(i, j int) bool { return presents[i].ID < presents[j].ID })
	return presents, nil
}

func (s *Store) ReceiveUserPresent(_ context.Context, presentID int64, requestAt int64) (bool, error) {
	if s.BeforeReceivePresent != nil {
		s.BeforeReceivePresent(presentID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Presents {
		if p.ID == presentID && p.DeletedAt == nil {
			at := requestAt
			p.DeletedAt = &at
			p.UpdatedAt = requestAt
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListUserPresentsPage(_ context.Context, userID int64, limit, offset int) ([]*model.UserPresent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	presents := cloneAll(s.Presents, func(p *model.UserPresent) bool {
		return p.UserID == userID && p.DeletedAt == nil
	})
	sort.SliceStable(presents, func(i, j int) bool {
		if presents[i].CreatedAt != presents[j].CreatedAt {
			return presents[i].CreatedAt > presents[j].CreatedAt
		}
		return presents[i].ID < presents[j].ID
	})
	if offset >= len(presents) {
		return []*model.UserPresent{}, nil
	}
	end := offset + limit
	if end > len(presents) {
		end = len(presents)
	}
	return presents[offset:end], nil
}

func (s *Store) CountUserPresents(_ context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, p := range s.Presents {
		if p.UserID == userID && p.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListAllUserPresents(_ context.Context, userID int64) ([]*model.UserPresent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.Presents, func(p *model.UserPresent) bool { return p.UserID == userID }), nil
}

func (s *Store) FindPresentAllReceivedHistory(_ context.Context, userID int64, presentAllID int64) (*model.UserPresentAllReceivedHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.PresentHistories {
		if h.UserID == userID && h.PresentAllID == presentAllID && h.DeletedAt == nil {
			return clone(h), nil
		}
	}
	return nil, noRows()
}

func (s *Store) InsertPresentAllReceivedHistory(_ context.Context, history *model.UserPresentAllReceivedHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PresentHistories = append(s.PresentHistories, clone(history))
	return nil
}

func (s *Store) ListPresentAllReceivedHistory(_ context.Context, userID int64) ([]*model.UserPresentAllReceivedHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.PresentHistories, func(h *model.UserPresentAllReceivedHistory) bool { return h.UserID == userID }), nil
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// Int returns a pointer to v, for seeding nullable master columns.
func Int(v int) *int {
	return &v
}
