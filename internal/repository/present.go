package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/hash-not-analog/isuconquest/internal/model"
)

func (r *Repository) InsertUserPresent(ctx context.Context, present *model.UserPresent) error {
	query := "INSERT INTO user_presents(id, user_id, sent_at, item_type, item_id, amount, present_message, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.q.ExecContext(ctx, query, present.ID, present.UserID, present.SentAt, present.ItemType, present.ItemID, present.Amount, present.PresentMessage, present.CreatedAt, present.UpdatedAt)
	return errors.WithStack(err)
}

// ListUnreceivedUserPresents user_presentsに入っているが未取得のプレゼント取得
func (r *Repository) ListUnreceivedUserPresents(ctx context.Context, userID int64, presentIDs []int64) ([]*model.UserPresent, error) {
	presents := make([]*model.UserPresent, 0)
	if len(presentIDs) == 0 {
		return presents, nil
	}
	query, params, err := sqlx.In("SELECT * FROM user_presents WHERE id IN (?) AND user_id=? AND deleted_at IS NULL ORDER BY id", presentIDs, userID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := r.q.SelectContext(ctx, &presents, r.q.Rebind(query), params...); err != nil {
		return nil, errors.WithStack(err)
	}
	return presents, nil
}

// ReceiveUserPresent soft-deletes the present and reports whether this call did it.
func (r *Repository) ReceiveUserPresent(ctx context.Context, presentID int64, requestAt int64) (bool, error) {
	query := "UPDATE user_presents SET deleted_at=?, updated_at=? WHERE id=? AND deleted_at IS NULL"
	res, err := r.q.ExecContext(ctx, query, requestAt, requestAt, presentID)
	if err != nil {
		return false, errors.WithStack(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.WithStack(err)
	}
	return n == 1, nil
}

func (r *Repository) ListUserPresentsPage(ctx context.Context, userID int64, limit, offset int) ([]*model.UserPresent, error) {
	presents := make([]*model.UserPresent, 0)
	query := `
	SELECT * FROM user_presents
	WHERE user_id = ? AND deleted_at IS NULL
	ORDER BY created_at DESC, id
	LIMIT ? OFFSET ?`
	if err := r.q.SelectContext(ctx, &presents, query, userID, limit, offset); err != nil {
		return nil, errors.WithStack(err)
	}
	return presents, nil
}

func (r *Repository) CountUserPresents(ctx context.Context, userID int64) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM user_presents WHERE user_id = ? AND deleted_at IS NULL"
	if err := r.q.GetContext(ctx, &count, query, userID); err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}

func (r *Repository) ListAllUserPresents(ctx context.Context, userID int64) ([]*model.UserPresent, error) {
	presents := make([]*model.UserPresent, 0)
	query := "SELECT * FROM user_presents WHERE user_id=?"
	if err := r.q.SelectContext(ctx, &presents, query, userID); err != nil {
		return nil, errors.WithStack(err)
	}
	return presents, nil
}

func (r *Repository) FindPresentAllReceivedHistory(ctx context.Context, userID int64, presentAllID int64) (*model.UserPresentAllReceivedHistory, error) {
	history := new(model.UserPresentAllReceivedHistory)
	query := "SELECT * FROM user_present_all_received_history WHERE user_id=? AND present_all_id=? AND deleted_at IS NULL"
	if err := r.q.GetContext(ctx, history, query, userID, presentAllID); err != nil {
		return nil, errors.WithStack(err)
	}
	return history, nil
}

func (r *Repository) InsertPresentAllReceivedHistory(ctx context.Context, history *model.UserPresentAllReceivedHistory) error {
	query := "INSERT INTO user_present_all_received_history(id, user_id, present_all_id, received_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)"
	_, err := r.q.ExecContext(ctx, query, history.ID, history.UserID, history.PresentAllID, history.ReceivedAt, history.CreatedAt, history.UpdatedAt)
	return errors.WithStack(err)
}

func (r *Repository) ListPresentAllReceivedHistory(ctx context.Context, userID int64) ([]*model.UserPresentAllReceivedHistory, error) {
	histories := make([]*model.UserPresentAllReceivedHistory, 0)
	query := "SELECT * FROM user_present_all_received_history WHERE user_id=?"
	if err := r.q.SelectContext(ctx, &histories, query, userID); err != nil {
		return nil, errors.WithStack(err)
	}
	return histories, nil
}
