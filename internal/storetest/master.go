package storetest

import (
	"context"
	"sort"

	"github.com/hash-not-analog/isuconquest/internal/model"
)

func (s *Store) GetActiveVersionMaster(_ context.Context) (*model.VersionMaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.VersionMasters {
		if v.Status == model.VersionMasterActive {
			return clone(v), nil
		}
	}
	return nil, noRows()
}

func (s *Store) GetItemMaster(_ context.Context, itemID int64, itemType model.ItemType) (*model.ItemMaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, im := range s.ItemMasters {
		if im.ID == itemID && im.ItemType == itemType {
			return clone(im), nil
		}
	}
	return nil, noRows()
}

func (s *Store) ListActiveLoginBonusMasters(_ context.Context, requestAt int64) ([]*model.LoginBonusMaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bonuses := cloneAll(s.LoginBonusMasters, func(b *model.LoginBonusMaster) bool {
		return b.StartAt <= requestAt && b.EndAt >= requestAt
	})
	sort.Slice(bonuses, func(i, j int) bool { return bonuses[i].ID < bonuses[j].ID })
	return bonuses, nil
}

func (s *Store) GetLoginBonusRewardMaster(_ context.Context, loginBonusID int64, sequence int) (*model.LoginBonusRewardMaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.LoginBonusRewardMasters {
		if r.LoginBonusID == loginBonusID && r.RewardSequence == sequence {
			return clone(r), nil
		}
	}
	return nil, noRows()
}

func (s *Store) ListActivePresentAllMasters(_ context.Context, requestAt int64) ([]*model.PresentAllMaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	presents := cloneAll(s.PresentAllMasters, func(p *model.PresentAllMaster) bool {
		return p.RegisteredStartAt <= requestAt && p.RegisteredEndAt >= requestAt
	})
	sort.Slice(presents, func(i, j int) bool { return presents[i].ID < presents[j].ID })
	return presents, nil
}

func (s *Store) ListActiveGachaMasters(_ context.Context, requestAt int64) ([]*model.GachaMaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gachas := cloneAll(s.GachaMasters, func(g *model.GachaMaster) bool {
		return g.StartAt <= requestAt && g.EndAt >= requestAt
	})
	sort.SliceStable(gachas, func(i, j int) bool { return gachas[i].DisplayOrder < gachas[j].DisplayOrder })
	return gachas, nil
}

func (s *Store) GetActiveGachaMaster(_ context.Context, gachaID int64, requestAt int64) (*model.GachaMaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.GachaMasters {
		if g.ID == gachaID && g.StartAt <= requestAt && g.EndAt >= requestAt {
			return clone(g), nil
		}
	}
	return nil, noRows()
}

func (s *Store) ListGachaItemMasters(_ context.Context, gachaID int64) ([]*model.GachaItemMaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := cloneAll(s.GachaItemMasters, func(g *model.GachaItemMaster) bool { return g.GachaID == gachaID })
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *Store) ListVersionMasters(_ context.Context) ([]*model.VersionMaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.VersionMasters, all[model.VersionMaster]), nil
}

func (s *Store) ListItemMasters(_ context.Context) ([]*model.ItemMaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.ItemMasters, all[model.ItemMaster]), nil
}

func (s *Store) ListGachaMasters(_ context.Context) ([]*model.GachaMaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.GachaMasters, all[model.GachaMaster]), nil
}

func (s *Store) ListAllGachaItemMasters(_ context.Context) ([]*model.GachaItemMaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.GachaItemMasters, all[model.GachaItemMaster]), nil
}

func (s *Store) ListPresentAllMasters(_ context.Context) ([]*model.PresentAllMaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.PresentAllMasters, all[model.PresentAllMaster]), nil
}

func (s *Store) ListLoginBonusMasters(_ context.Context) ([]*model.LoginBonusMaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.LoginBonusMasters, all[model.LoginBonusMaster]), nil
}

func (s *Store) ListLoginBonusRewardMasters(_ context.Context) ([]*model.LoginBonusRewardMaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.LoginBonusRewardMasters, all[model.LoginBonusRewardMaster]), nil
}

func all[T any](*T) bool { return true }
