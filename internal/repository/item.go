package repository

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hash-not-analog/isuconquest/internal/model"
)

func (r *Repository) FindUserItem(ctx context.Context, userID int64, itemID int64) (*model.UserItem, error) {
	item := new(model.UserItem)
	query := "SELECT * FROM user_items WHERE user_id=? AND item_id=?"
	if err := r.q.GetContext(ctx, item, query, userID, itemID); err != nil {
		return nil, errors.WithStack(err)
	}
	return item, nil
}

func (r *Repository) InsertUserItem(ctx context.Context, item *model.UserItem) error {
	query := "INSERT INTO user_items(id, user_id, item_id, item_type, amount, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	_, err := r.q.ExecContext(ctx, query, item.ID, item.UserID, item.ItemID, item.ItemType, item.Amount, item.CreatedAt, item.UpdatedAt)
	return errors.WithStack(err)
}

func (r *Repository) UpdateUserItemAmount(ctx context.Context, userItemID int64, amount int, requestAt int64) error {
	query := "UPDATE user_items SET amount=?, updated_at=? WHERE id=?"
	_, err := r.q.ExecContext(ctx, query, amount, requestAt, userItemID)
	return errors.WithStack(err)
}

func (r *Repository) ListUserItems(ctx context.Context, userID int64) ([]*model.UserItem, error) {
	items := make([]*model.UserItem, 0)
	query := "SELECT * FROM user_items WHERE user_id=?"
	if err := r.q.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, errors.WithStack(err)
	}
	return items, nil
}

// GetConsumeUserItem 強化素材(item_type=3)を獲得経験値と合わせて取得
func (r *Repository) GetConsumeUserItem(ctx context.Context, userID int64, userItemID int64) (*model.ConsumeUserItemData, error) {
	item := new(model.ConsumeUserItemData)
	query := `
	SELECT ui.id, ui.user_id, ui.item_id, ui.item_type, ui.amount, ui.created_at, ui.updated_at, im.gained_exp
	FROM user_items as ui
	INNER JOIN item_masters as im ON ui.item_id = im.id
	WHERE ui.item_type = ? AND ui.id=? AND ui.user_id=?
	`
	if err := r.q.GetContext(ctx, item, query, model.ItemTypeEnhance, userItemID, userID); err != nil {
		return nil, errors.WithStack(err)
	}
	return item, nil
}

func (r *Repository) FindUserLoginBonus(ctx context.Context, userID int64, loginBonusID int64) (*model.UserLoginBonus, error) {
	bonus := new(model.UserLoginBonus)
	query := "SELECT * FROM user_login_bonuses WHERE user_id=? AND login_bonus_id=? AND deleted_at IS NULL"
	if err := r.q.GetContext(ctx, bonus, query, userID, loginBonusID); err != nil {
		return nil, errors.WithStack(err)
	}
	return bonus, nil
}

func (r *Repository) InsertUserLoginBonus(ctx context.Context, bonus *model.UserLoginBonus) error {
	query := "INSERT INTO user_login_bonuses(id, user_id, login_bonus_id, last_reward_sequence, loop_count, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	_, err := r.q.ExecContext(ctx, query, bonus.ID, bonus.UserID, bonus.LoginBonusID, bonus.LastRewardSequence, bonus.LoopCount, bonus.CreatedAt, bonus.UpdatedAt)
	return errors.WithStack(err)
}

func (r *Repository) UpdateUserLoginBonus(ctx context.Context, bonus *model.UserLoginBonus) error {
	query := "UPDATE user_login_bonuses SET last_reward_sequence=?, loop_count=?, updated_at=? WHERE id=?"
	_, err := r.q.ExecContext(ctx, query, bonus.LastRewardSequence, bonus.LoopCount, bonus.UpdatedAt, bonus.ID)
	return errors.WithStack(err)
}

func (r *Repository) ListUserLoginBonuses(ctx context.Context, userID int64) ([]*model.UserLoginBonus, error) {
	bonuses := make([]*model.UserLoginBonus, 0)
	query := "SELECT * FROM user_login_bonuses WHERE user_id=?"
	if err := r.q.SelectContext(ctx, &bonuses, query, userID); err != nil {
		return nil, errors.WithStack(err)
	}
	return bonuses, nil
}
