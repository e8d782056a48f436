package model

// ItemType item_masters.item_type
type ItemType int

const (
	ItemTypeCoin    ItemType = 1
	ItemTypeCard    ItemType = 2 // ハンマー
	ItemTypeEnhance ItemType = 3 // 強化素材
	ItemTypeTimer   ItemType = 4
)

func (t ItemType) String() string {
	switch t {
	case ItemTypeCoin:
		return "coin"
	case ItemTypeCard:
		return "card"
	case ItemTypeEnhance:
		return "enhance"
	case ItemTypeTimer:
		return "timer"
	default:
		return "unknown"
	}
}

// TokenType user_one_time_tokens.token_type
type TokenType int

const (
	TokenTypeGacha   TokenType = 1
	TokenTypeCardExp TokenType = 2
)

const (
	DeckCardNumber      int = 3
	PresentCountPerPage int = 100

	// InitialCardID ユーザ作成時に付与するカードのマスタID
	InitialCardID int64 = 2

	SessionTTL      int64 = 86400
	OneTimeTokenTTL int64 = 600

	GachaCoinPerDraw int64 = 1000
)

// TargetUserCardData 強化対象のカードとマスタ情報
type TargetUserCardData struct {
	ID           int64 `db:"id"`
	UserID       int64 `db:"user_id"`
	CardID       int64 `db:"card_id"`
	AmountPerSec int   `db:"amount_per_sec"`
	Level        int   `db:"level"`
	TotalExp     int64 `db:"total_exp"`

	// lv1のときの生産性
	BaseAmountPerSec int `db:"base_amount_per_sec"`
	// 最高レベル
	MaxLevel int `db:"max_level"`
	// lv maxのときの生産性
	MaxAmountPerSec int `db:"max_amount_per_sec"`
	// lv1 -> lv2に上がるときのexp
	BaseExpPerLevel int `db:"base_exp_per_level"`
}

// ConsumeUserItemData 強化に使う素材
type ConsumeUserItemData struct {
	ID        int64    `db:"id"`
	UserID    int64    `db:"user_id"`
	ItemID    int64    `db:"item_id"`
	ItemType  ItemType `db:"item_type"`
	Amount    int      `db:"amount"`
	CreatedAt int64    `db:"created_at"`
	UpdatedAt int64    `db:"updated_at"`
	GainedExp int      `db:"gained_exp"`

	ConsumeAmount int `db:"-"` // 消費量
}
