package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/hash-not-analog/isuconquest/internal/model"
)

func (r *Repository) InsertUserCard(ctx context.Context, card *model.UserCard) error {
	query := "INSERT INTO user_cards(id, user_id, card_id, amount_per_sec, level, total_exp, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.q.ExecContext(ctx, query, card.ID, card.UserID, card.CardID, card.AmountPerSec, card.Level, card.TotalExp, card.CreatedAt, card.UpdatedAt)
	return errors.WithStack(err)
}

func (r *Repository) GetUserCard(ctx context.Context, cardID int64) (*model.UserCard, error) {
	card := new(model.UserCard)
	query := "SELECT * FROM user_cards WHERE id=?"
	if err := r.q.GetContext(ctx, card, query, cardID); err != nil {
		return nil, errors.WithStack(err)
	}
	return card, nil
}

func (r *Repository) ListUserCards(ctx context.Context, userID int64) ([]*model.UserCard, error) {
	cards := make([]*model.UserCard, 0)
	query := "SELECT * FROM user_cards WHERE user_id=?"
	if err := r.q.SelectContext(ctx, &cards, query, userID); err != nil {
		return nil, errors.WithStack(err)
	}
	return cards, nil
}

// ListUserCardsByIDs ユーザが所持しているカードのみ返す
func (r *Repository) ListUserCardsByIDs(ctx context.Context, userID int64, cardIDs []int64) ([]*model.UserCard, error) {
	cards := make([]*model.UserCard, 0)
	if len(cardIDs) == 0 {
		return cards, nil
	}
	query, params, err := sqlx.In("SELECT * FROM user_cards WHERE id IN (?) AND user_id=?", cardIDs, userID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := r.q.SelectContext(ctx, &cards, r.q.Rebind(query), params...); err != nil {
		return nil, errors.WithStack(err)
	}
	return cards, nil
}

// GetTargetUserCard 強化対象のカードをマスタと結合して取得
func (r *Repository) GetTargetUserCard(ctx context.Context, userID int64, cardID int64) (*model.TargetUserCardData, error) {
	card := new(model.TargetUserCardData)
	query := `
	SELECT uc.id , uc.user_id , uc.card_id , uc.amount_per_sec , uc.level, uc.total_exp, im.amount_per_sec as 'base_amount_per_sec', im.max_level , im.max_amount_per_sec , im.base_exp_per_level
	FROM user_cards as uc
	INNER JOIN item_masters as im ON uc.card_id = im.id
	WHERE uc.id = ? AND uc.user_id=?
	`
	if err := r.q.GetContext(ctx, card, query, cardID, userID); err != nil {
		return nil, errors.WithStack(err)
	}
	return card, nil
}

func (r *Repository) UpdateUserCardGrowth(ctx context.Context, card *model.UserCard) error {
	query := "UPDATE user_cards SET amount_per_sec=?, level=?, total_exp=?, updated_at=? WHERE id=?"
	_, err := r.q.ExecContext(ctx, query, card.AmountPerSec, card.Level, card.TotalExp, card.UpdatedAt, card.ID)
	return errors.WithStack(err)
}

func (r *Repository) FindActiveUserDeck(ctx context.Context, userID int64) (*model.UserDeck, error) {
	deck := new(model.UserDeck)
	query := "SELECT * FROM user_decks WHERE user_id=? AND deleted_at IS NULL"
	if err := r.q.GetContext(ctx, deck, query, userID); err != nil {
		return nil, errors.WithStack(err)
	}
	return deck, nil
}

func (r *Repository) DeleteUserDecks(ctx context.Context, userID int64, requestAt int64) error {
	query := "UPDATE user_decks SET updated_at=?, deleted_at=? WHERE user_id=? AND deleted_at IS NULL"
	_, err := r.q.ExecContext(ctx, query, requestAt, requestAt, userID)
	return errors.WithStack(err)
}

func (r *Repository) InsertUserDeck(ctx context.Context, deck *model.UserDeck) error {
	query := "INSERT INTO user_decks(id, user_id, user_card_id_1, user_card_id_2, user_card_id_3, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	_, err := r.q.ExecContext(ctx, query, deck.ID, deck.UserID, deck.CardID1, deck.CardID2, deck.CardID3, deck.CreatedAt, deck.UpdatedAt)
	return errors.WithStack(err)
}

func (r *Repository) ListUserDecks(ctx context.Context, userID int64) ([]*model.UserDeck, error) {
	decks := make([]*model.UserDeck, 0)
	query := "SELECT * FROM user_decks WHERE user_id=?"
	if err := r.q.SelectContext(ctx, &decks, query, userID); err != nil {
		return nil, errors.WithStack(err)
	}
	return decks, nil
}
