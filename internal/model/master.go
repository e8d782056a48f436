package model

// //////////////////////////////////////
// master

type GachaMaster struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	StartAt      int64  `json:"startAt" db:"start_at"`
	EndAt        int64  `json:"endAt" db:"end_at"`
	DisplayOrder int    `json:"displayOrder" db:"display_order"`
	CreatedAt    int64  `json:"createdAt" db:"created_at"`
}

type GachaItemMaster struct {
	ID        int64    `json:"id" db:"id"`
	GachaID   int64    `json:"gachaId" db:"gacha_id"`
	ItemType  ItemType `json:"itemType" db:"item_type"`
	ItemID    int64    `json:"itemId" db:"item_id"`
	Amount    int      `json:"amount" db:"amount"`
	Weight    int      `json:"weight" db:"weight"`
	CreatedAt int64    `json:"createdAt" db:"created_at"`
}

type ItemMaster struct {
	ID              int64    `json:"id" db:"id"`
	ItemType        ItemType `json:"itemType" db:"item_type"`
	Name            string   `json:"name" db:"name"`
	Description     string   `json:"description" db:"description"`
	AmountPerSec    *int     `json:"amountPerSec" db:"amount_per_sec"`
	MaxLevel        *int     `json:"maxLevel" db:"max_level"`
	MaxAmountPerSec *int     `json:"maxAmountPerSec" db:"max_amount_per_sec"`
	BaseExpPerLevel *int     `json:"baseExpPerLevel" db:"base_exp_per_level"`
	GainedExp       *int     `json:"gainedExp" db:"gained_exp"`
	ShorteningMin   *int64   `json:"shorteningMin" db:"shortening_min"`
	// CreatedAt       int64 `json:"createdAt"`
}

type LoginBonusMaster struct {
	ID          int64 `json:"id" db:"id"`
	StartAt     int64 `json:"startAt" db:"start_at"`
	EndAt       int64 `json:"endAt" db:"end_at"`
	ColumnCount int   `json:"columnCount" db:"column_count"`
	Looped      bool  `json:"looped" db:"looped"`
	CreatedAt   int64 `json:"createdAt" db:"created_at"`
}

type LoginBonusRewardMaster struct {
	ID             int64    `json:"id" db:"id"`
	LoginBonusID   int64    `json:"loginBonusId" db:"login_bonus_id"`
	RewardSequence int      `json:"rewardSequence" db:"reward_sequence"`
	ItemType       ItemType `json:"itemType" db:"item_type"`
	ItemID         int64    `json:"itemId" db:"item_id"`
	Amount         int64    `json:"amount" db:"amount"`
	CreatedAt      int64    `json:"createdAt" db:"created_at"`
}

type PresentAllMaster struct {
	ID                int64    `json:"id" db:"id"`
	RegisteredStartAt int64    `json:"registeredStartAt" db:"registered_start_at"`
	RegisteredEndAt   int64    `json:"registeredEndAt" db:"registered_end_at"`
	ItemType          ItemType `json:"itemType" db:"item_type"`
	ItemID            int64    `json:"itemId" db:"item_id"`
	Amount            int64    `json:"amount" db:"amount"`
	PresentMessage    string   `json:"presentMessage" db:"present_message"`
	CreatedAt         int64    `json:"createdAt" db:"created_at"`
}

type VersionMaster struct {
	ID            int64  `json:"id" db:"id"`
	Status        int    `json:"status" db:"status"`
	MasterVersion string `json:"masterVersion" db:"master_version"`
}

// VersionMasterActive status=1 が有効なマスタバージョン
const VersionMasterActive = 1
