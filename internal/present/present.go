// Package present fans out broadcast presents and lets users receive them.
package present

import (
	"context"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/grant"
	"github.com/hash-not-analog/isuconquest/internal/idgen"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/repository"
)

type Store interface {
	grant.Store

	ListActivePresentAllMasters(ctx context.Context, requestAt int64) ([]*model.PresentAllMaster, error)
	FindPresentAllReceivedHistory(ctx context.Context, userID int64, presentAllID int64) (*model.UserPresentAllReceivedHistory, error)
	InsertPresentAllReceivedHistory(ctx context.Context, history *model.UserPresentAllReceivedHistory) error
	InsertUserPresent(ctx context.Context, present *model.UserPresent) error
	ListUnreceivedUserPresents(ctx context.Context, userID int64, presentIDs []int64) ([]*model.UserPresent, error)
	ReceiveUserPresent(ctx context.Context, presentID int64, requestAt int64) (bool, error)
	ListUserPresentsPage(ctx context.Context, userID int64, limit, offset int) ([]*model.UserPresent, error)
	CountUserPresents(ctx context.Context, userID int64) (int, error)
}

type Engine struct {
	ids    idgen.Generator
	grants *grant.Engine
}

func NewEngine(ids idgen.Generator, grants *grant.Engine) *Engine {
	return &Engine{ids: ids, grants: grants}
}

// Distribute 全員プレゼント取得。既に配布済みのものはスキップ
func (e *Engine) Distribute(ctx context.Context, store Store, userID int64, requestAt int64) ([]*model.UserPresent, error) {
	normalPresents, err := store.ListActivePresentAllMasters(ctx, requestAt)
	if err != nil {
		return nil, err
	}

	obtainPresents := make([]*model.UserPresent, 0)
	for _, np := range normalPresents {
		_, err := store.FindPresentAllReceivedHistory(ctx, userID, np.ID)
		if err == nil {
			// プレゼント配布済
			continue
		}
		if !repository.IsNoRows(err) {
			return nil, err
		}

		pID, err := e.ids.NextID(ctx)
		if err != nil {
			return nil, err
		}
		up := &model.UserPresent{
			ID:             pID,
			UserID:         userID,
			SentAt:         requestAt,
			ItemType:       np.ItemType,
			ItemID:         np.ItemID,
			Amount:         int(np.Amount),
			PresentMessage: np.PresentMessage,
			CreatedAt:      requestAt,
			UpdatedAt:      requestAt,
		}
		if err := store.InsertUserPresent(ctx, up); err != nil {
			return nil, err
		}

		// historyに入れる
		phID, err := e.ids.NextID(ctx)
		if err != nil {
			return nil, err
		}
		history := &model.UserPresentAllReceivedHistory{
			ID:           phID,
			UserID:       userID,
			PresentAllID: np.ID,
			ReceivedAt:   requestAt,
			CreatedAt:    requestAt,
			UpdatedAt:    requestAt,
		}
		if err := store.InsertPresentAllReceivedHistory(ctx, history); err != nil {
			return nil, err
		}

		obtainPresents = append(obtainPresents, up)
	}

	return obtainPresents, nil
}

// Receive プレゼント受け取り
func (e *Engine) Receive(ctx context.Context, store Store, userID int64, presentIDs []int64, requestAt int64) ([]*model.UserPresent, error) {
	if len(presentIDs) == 0 {
		return nil, apperror.ErrEmptyPresentIDs
	}

	obtainPresents, err := store.ListUnreceivedUserPresents(ctx, userID, presentIDs)
	if err != nil {
		return nil, err
	}
	if len(obtainPresents) == 0 {
		return []*model.UserPresent{}, nil
	}

	// 配布処理
	for _, p := range obtainPresents {
		if p.DeletedAt != nil {
			return nil, apperror.ErrReceivedPresent
		}

		g, err := grant.Parse(p.ItemType, p.ItemID, int64(p.Amount))
		if err != nil {
			return nil, err
		}

		received, err := store.ReceiveUserPresent(ctx, p.ID, requestAt)
		if err != nil {
			return nil, err
		}
		if !received {
			return nil, apperror.ErrReceivedPresent
		}
		p.UpdatedAt = requestAt
		p.DeletedAt = &requestAt

		if err := e.grants.Grant(ctx, store, userID, g, requestAt); err != nil {
			return nil, err
		}
	}

	return obtainPresents, nil
}

type Page struct {
	Presents []*model.UserPresent `json:"presents"`
	IsNext   bool                 `json:"isNext"`
}

// List プレゼント一覧。n は1始まり
func (e *Engine) List(ctx context.Context, store Store, userID int64, n int) (*Page, error) {
	if n < 1 {
		return nil, apperror.ErrInvalidIndexNumber
	}

	offset := model.PresentCountPerPage * (n - 1)
	presents, err := store.ListUserPresentsPage(ctx, userID, model.PresentCountPerPage, offset)
	if err != nil {
		return nil, err
	}

	presentCount, err := store.CountUserPresents(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Page{
		Presents: presents,
		IsNext:   presentCount > offset+model.PresentCountPerPage,
	}, nil
}
