package repository

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hash-not-analog/isuconquest/internal/model"
)

func (r *Repository) GetActiveVersionMaster(ctx context.Context) (*model.VersionMaster, error) {
	masterVersion := new(model.VersionMaster)
	query := "SELECT * FROM version_masters WHERE status=?"
	if err := r.q.GetContext(ctx, masterVersion, query, model.VersionMasterActive); err != nil {
		return nil, errors.WithStack(err)
	}
	return masterVersion, nil
}

func (r *Repository) GetItemMaster(ctx context.Context, itemID int64, itemType model.ItemType) (*model.ItemMaster, error) {
	item := new(model.ItemMaster)
	query := "SELECT * FROM item_masters WHERE id=? AND item_type=?"
	if err := r.q.GetContext(ctx, item, query, itemID, itemType); err != nil {
		return nil, errors.WithStack(err)
	}
	return item, nil
}

// ListActiveLoginBonusMasters login bonus masterから有効なログインボーナスを取得
func (r *Repository) ListActiveLoginBonusMasters(ctx context.Context, requestAt int64) ([]*model.LoginBonusMaster, error) {
	bonuses := make([]*model.LoginBonusMaster, 0)
	query := "SELECT * FROM login_bonus_masters WHERE start_at <= ? AND end_at >= ? ORDER BY id"
	if err := r.q.SelectContext(ctx, &bonuses, query, requestAt, requestAt); err != nil {
		return nil, errors.WithStack(err)
	}
	return bonuses, nil
}

func (r *Repository) GetLoginBonusRewardMaster(ctx context.Context, loginBonusID int64, sequence int) (*model.LoginBonusRewardMaster, error) {
	reward := new(model.LoginBonusRewardMaster)
	query := "SELECT * FROM login_bonus_reward_masters WHERE login_bonus_id=? AND reward_sequence=?"
	if err := r.q.GetContext(ctx, reward, query, loginBonusID, sequence); err != nil {
		return nil, errors.WithStack(err)
	}
	return reward, nil
}

func (r *Repository) ListActivePresentAllMasters(ctx context.Context, requestAt int64) ([]*model.PresentAllMaster, error) {
	presents := make([]*model.PresentAllMaster, 0)
	query := "SELECT * FROM present_all_masters WHERE registered_start_at <= ? AND registered_end_at >= ? ORDER BY id"
	if err := r.q.SelectContext(ctx, &presents, query, requestAt, requestAt); err != nil {
		return nil, errors.WithStack(err)
	}
	return presents, nil
}

func (r *Repository) ListActiveGachaMasters(ctx context.Context, requestAt int64) ([]*model.GachaMaster, error) {
	gachas := make([]*model.GachaMaster, 0)
	query := "SELECT * FROM gacha_masters WHERE start_at <= ? AND end_at >= ? ORDER BY display_order ASC"
	if err := r.q.SelectContext(ctx, &gachas, query, requestAt, requestAt); err != nil {
		return nil, errors.WithStack(err)
	}
	return gachas, nil
}

func (r *Repository) GetActiveGachaMaster(ctx context.Context, gachaID int64, requestAt int64) (*model.GachaMaster, error) {
	gacha := new(model.GachaMaster)
	query := "SELECT * FROM gacha_masters WHERE id=? AND start_at <= ? AND end_at >= ?"
	if err := r.q.GetContext(ctx, gacha, query, gachaID, requestAt, requestAt); err != nil {
		return nil, errors.WithStack(err)
	}
	return gacha, nil
}

// ListGachaItemMasters 排出順の判定に使うため id 順で返す
func (r *Repository) ListGachaItemMasters(ctx context.Context, gachaID int64) ([]*model.GachaItemMaster, error) {
	items := make([]*model.GachaItemMaster, 0)
	query := "SELECT * FROM gacha_item_masters WHERE gacha_id=? ORDER BY id ASC"
	if err := r.q.SelectContext(ctx, &items, query, gachaID); err != nil {
		return nil, errors.WithStack(err)
	}
	return items, nil
}

// //////////////////////////////////////
// admin master browsing

func (r *Repository) ListVersionMasters(ctx context.Context) ([]*model.VersionMaster, error) {
	masterVersions := make([]*model.VersionMaster, 0)
	if err := r.q.SelectContext(ctx, &masterVersions, "SELECT * FROM version_masters"); err != nil {
		return nil, errors.WithStack(err)
	}
	return masterVersions, nil
}

func (r *Repository) ListItemMasters(ctx context.Context) ([]*model.ItemMaster, error) {
	items := make([]*model.ItemMaster, 0)
	if err := r.q.SelectContext(ctx, &items, "SELECT * FROM item_masters"); err != nil {
		return nil, errors.WithStack(err)
	}
	return items, nil
}

func (r *Repository) ListGachaMasters(ctx context.Context) ([]*model.GachaMaster, error) {
	gachas := make([]*model.GachaMaster, 0)
	if err := r.q.SelectContext(ctx, &gachas, "SELECT * FROM gacha_masters"); err != nil {
		return nil, errors.WithStack(err)
	}
	return gachas, nil
}

func (r *Repository) ListAllGachaItemMasters(ctx context.Context) ([]*model.GachaItemMaster, error) {
	gachaItems := make([]*model.GachaItemMaster, 0)
	if err := r.q.SelectContext(ctx, &gachaItems, "SELECT * FROM gacha_item_masters ORDER BY id ASC"); err != nil {
		return nil, errors.WithStack(err)
	}
	return gachaItems, nil
}

func (r *Repository) ListPresentAllMasters(ctx context.Context) ([]*model.PresentAllMaster, error) {
	presentAlls := make([]*model.PresentAllMaster, 0)
	if err := r.q.SelectContext(ctx, &presentAlls, "SELECT * FROM present_all_masters"); err != nil {
		return nil, errors.WithStack(err)
	}
	return presentAlls, nil
}

func (r *Repository) ListLoginBonusMasters(ctx context.Context) ([]*model.LoginBonusMaster, error) {
	loginBonuses := make([]*model.LoginBonusMaster, 0)
	if err := r.q.SelectContext(ctx, &loginBonuses, "SELECT * FROM login_bonus_masters"); err != nil {
		return nil, errors.WithStack(err)
	}
	return loginBonuses, nil
}

func (r *Repository) ListLoginBonusRewardMasters(ctx context.Context) ([]*model.LoginBonusRewardMaster, error) {
	loginBonusRewards := make([]*model.LoginBonusRewardMaster, 0)
	if err := r.q.SelectContext(ctx, &loginBonusRewards, "SELECT * FROM login_bonus_reward_masters"); err != nil {
		return nil, errors.WithStack(err)
	}
	return loginBonusRewards, nil
}
