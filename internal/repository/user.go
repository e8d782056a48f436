package repository

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hash-not-analog/isuconquest/internal/model"
)

func (r *Repository) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	user := new(model.User)
	query := "SELECT * FROM users WHERE id=?"
	if err := r.q.GetContext(ctx, user, query, userID); err != nil {
		return nil, errors.WithStack(err)
	}
	return user, nil
}

func (r *Repository) InsertUser(ctx context.Context, user *model.User) error {
	query := "INSERT INTO users(id, isu_coin, last_activated_at, registered_at, last_getreward_at, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?)"
	_, err := r.q.ExecContext(ctx, query, user.ID, user.IsuCoin, user.LastActivatedAt, user.RegisteredAt, user.LastGetRewardAt, user.CreatedAt, user.UpdatedAt)
	return errors.WithStack(err)
}

func (r *Repository) UpdateUserCoin(ctx context.Context, userID int64, coin int64) error {
	query := "UPDATE users SET isu_coin=? WHERE id=?"
	_, err := r.q.ExecContext(ctx, query, coin, userID)
	return errors.WithStack(err)
}

// UpdateUserActivity updated_at, last_activated_at の更新
func (r *Repository) UpdateUserActivity(ctx context.Context, userID int64, requestAt int64) error {
	query := "UPDATE users SET updated_at=?, last_activated_at=? WHERE id=?"
	_, err := r.q.ExecContext(ctx, query, requestAt, requestAt, userID)
	return errors.WithStack(err)
}

// UpdateUserReward 報酬受け取り時刻は updated_at と同じ
func (r *Repository) UpdateUserReward(ctx context.Context, userID int64, coin int64, requestAt int64) error {
	query := "UPDATE users SET isu_coin=?, last_getreward_at=?, updated_at=? WHERE id=?"
	_, err := r.q.ExecContext(ctx, query, coin, requestAt, requestAt, userID)
	return errors.WithStack(err)
}

func (r *Repository) InsertUserDevice(ctx context.Context, device *model.UserDevice) error {
	query := "INSERT INTO user_devices(id, user_id, platform_id, platform_type, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)"
	_, err := r.q.ExecContext(ctx, query, device.ID, device.UserID, device.PlatformID, device.PlatformType, device.CreatedAt, device.UpdatedAt)
	return errors.WithStack(err)
}

func (r *Repository) FindUserDevice(ctx context.Context, userID int64, viewerID string) (*model.UserDevice, error) {
	device := new(model.UserDevice)
	query := "SELECT * FROM user_devices WHERE user_id=? AND platform_id=?"
	if err := r.q.GetContext(ctx, device, query, userID, viewerID); err != nil {
		return nil, errors.WithStack(err)
	}
	return device, nil
}

func (r *Repository) ListUserDevices(ctx context.Context, userID int64) ([]*model.UserDevice, error) {
	devices := make([]*model.UserDevice, 0)
	query := "SELECT * FROM user_devices WHERE user_id=?"
	if err := r.q.SelectContext(ctx, &devices, query, userID); err != nil {
		return nil, errors.WithStack(err)
	}
	return devices, nil
}

func (r *Repository) FindUserBan(ctx context.Context, userID int64) (*model.UserBan, error) {
	ban := new(model.UserBan)
	query := "SELECT * FROM user_bans WHERE user_id=? AND deleted_at IS NULL"
	if err := r.q.GetContext(ctx, ban, query, userID); err != nil {
		return nil, errors.WithStack(err)
	}
	return ban, nil
}

// UpsertUserBan user_id が重複した場合は updated_at のみ更新する
func (r *Repository) UpsertUserBan(ctx context.Context, ban *model.UserBan) error {
	query := "INSERT user_bans(id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?) ON DUPLICATE KEY UPDATE updated_at = ?"
	_, err := r.q.ExecContext(ctx, query, ban.ID, ban.UserID, ban.CreatedAt, ban.UpdatedAt, ban.UpdatedAt)
	return errors.WithStack(err)
}

func (r *Repository) GetAdminUser(ctx context.Context, adminID int64) (*model.AdminUser, error) {
	user := new(model.AdminUser)
	query := "SELECT * FROM admin_users WHERE id=?"
	if err := r.q.GetContext(ctx, user, query, adminID); err != nil {
		return nil, errors.WithStack(err)
	}
	return user, nil
}

func (r *Repository) UpdateAdminUserActivity(ctx context.Context, adminID int64, requestAt int64) error {
	query := "UPDATE admin_users SET last_activated_at=?, updated_at=? WHERE id=?"
	_, err := r.q.ExecContext(ctx, query, requestAt, requestAt, adminID)
	return errors.WithStack(err)
}
