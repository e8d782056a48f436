package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/grant"
	"github.com/hash-not-analog/isuconquest/internal/inventory"
	"github.com/hash-not-analog/isuconquest/internal/login"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/repository"
)

// createUser ユーザの作成
// POST /user
func (h *Handler) createUser(c echo.Context) error {
	// parse body
	defer c.Request().Body.Close()
	req := new(CreateUserRequest)
	if err := parseRequestBody(c, req); err != nil {
		return h.errorResponse(c, err)
	}

	requestAt := getRequestTime(c)
	ctx := c.Request().Context()

	var reg *login.Registration
	err := h.db.Transaction(ctx, func(tx *repository.Repository) (err error) {
		reg, err = h.users.Register(ctx, tx, tx.UserSessions(), req.ViewerID, req.PlatformType, requestAt)
		return err
	})
	if err != nil {
		return h.errorResponse(c, err)
	}

	return successResponse(c, &CreateUserResponse{
		UserID:           reg.User.ID,
		ViewerID:         req.ViewerID,
		SessionID:        reg.Session.SessionID,
		CreatedAt:        requestAt,
		UpdatedResources: makeUpdatedResources(requestAt, reg.User, reg.Device, reg.Cards, []*model.UserDeck{reg.Deck}, nil, reg.LoginBonuses, reg.Presents),
	})
}

type CreateUserRequest struct {
	ViewerID     string `json:"viewerId" validate:"required"`
	PlatformType int    `json:"platformType" validate:"min=1,max=3"`
}

type CreateUserResponse struct {
	UserID           int64            `json:"userId"`
	ViewerID         string           `json:"viewerId"`
	SessionID        string           `json:"sessionId"`
	CreatedAt        int64            `json:"createdAt"`
	UpdatedResources *UpdatedResource `json:"updatedResources"`
}

// login ログイン
// POST /login
func (h *Handler) login(c echo.Context) error {
	defer c.Request().Body.Close()
	req := new(LoginRequest)
	if err := parseRequestBody(c, req); err != nil {
		return h.errorResponse(c, err)
	}

	requestAt := getRequestTime(c)
	ctx := c.Request().Context()

	if _, err := h.db.Repository().GetUser(ctx, req.UserID); err != nil {
		if repository.IsNoRows(err) {
			return h.errorResponse(c, apperror.ErrUserNotFound.Wrap(err))
		}
		return h.errorResponse(c, err)
	}

	// check ban
	if err := h.checker.CheckBan(ctx, req.UserID); err != nil {
		return h.errorResponse(c, err)
	}

	// viewer id check
	if err := h.checker.CheckViewerID(ctx, req.UserID, req.ViewerID); err != nil {
		return h.errorResponse(c, err)
	}

	var res *login.LoginResult
	err := h.db.Transaction(ctx, func(tx *repository.Repository) (err error) {
		res, err = h.users.Login(ctx, tx, tx.UserSessions(), req.UserID, requestAt)
		return err
	})
	if err != nil {
		return h.errorResponse(c, err)
	}

	return successResponse(c, &LoginResponse{
		ViewerID:         req.ViewerID,
		SessionID:        res.Session.SessionID,
		UpdatedResources: makeUpdatedResources(requestAt, res.User, nil, nil, nil, nil, res.LoginBonuses, res.Presents),
	})
}

type LoginRequest struct {
	ViewerID string `json:"viewerId"`
	UserID   int64  `json:"userId" validate:"required"`
}

type LoginResponse struct {
	ViewerID         string           `json:"viewerId"`
	SessionID        string           `json:"sessionId"`
	UpdatedResources *UpdatedResource `json:"updatedResources"`
}

// listItem アイテムリスト
// GET /user/{userID}/item
func (h *Handler) listItem(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.errorResponse(c, apperror.ErrInvalidUserID.Wrap(err))
	}

	requestAt := getRequestTime(c)
	ctx := c.Request().Context()

	var list *inventory.ItemList
	err = h.db.Transaction(ctx, func(tx *repository.Repository) (err error) {
		list, err = h.inventory.ListItems(ctx, tx, userID, requestAt)
		return err
	})
	if err != nil {
		return h.errorResponse(c, err)
	}

	return successResponse(c, list)
}

// addExpToCard 装備強化
// POST /user/{userID}/card/addexp/{cardID}
func (h *Handler) addExpToCard(c echo.Context) error {
	cardID, err := getInt64Param(c, "cardID")
	if err != nil {
		return h.errorResponse(c, err)
	}

	userID, err := getUserID(c)
	if err != nil {
		return h.errorResponse(c, apperror.ErrInvalidUserID.Wrap(err))
	}

	// read body
	defer c.Request().Body.Close()
	req := new(AddExpToCardRequest)
	if err := parseRequestBody(c, req); err != nil {
		return h.errorResponse(c, err)
	}

	requestAt := getRequestTime(c)
	ctx := c.Request().Context()

	if err := h.checker.CheckViewerID(ctx, userID, req.ViewerID); err != nil {
		return h.errorResponse(c, err)
	}

	var result *grant.LevelResult
	err = h.db.Transaction(ctx, func(tx *repository.Repository) (err error) {
		result, err = h.grants.AddExpToCard(ctx, tx, userID, cardID, req.Items, requestAt)
		return err
	})
	if err != nil {
		return h.errorResponse(c, err)
	}

	return successResponse(c, &AddExpToCardResponse{
		UpdatedResources: makeUpdatedResources(requestAt, nil, nil, []*model.UserCard{result.Card}, nil, result.Items, nil, nil),
	})
}

type AddExpToCardRequest struct {
	ViewerID     string              `json:"viewerId"`
	OneTimeToken string              `json:"oneTimeToken"`
	Items        []grant.Consumption `json:"items" validate:"dive"`
}

type AddExpToCardResponse struct {
	UpdatedResources *UpdatedResource `json:"updatedResources"`
}

// updateDeck 装備変更
// POST /user/{userID}/card
func (h *Handler) updateDeck(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.errorResponse(c, apperror.ErrInvalidUserID.Wrap(err))
	}

	// read body
	defer c.Request().Body.Close()
	req := new(UpdateDeckRequest)
	if err := parseRequestBody(c, req); err != nil {
		return h.errorResponse(c, err)
	}

	if len(req.CardIDs) != model.DeckCardNumber {
		return h.errorResponse(c, apperror.ErrInvalidCardIDs.WithMessage("invalid number of cards"))
	}

	requestAt := getRequestTime(c)
	ctx := c.Request().Context()

	if err := h.checker.CheckViewerID(ctx, userID, req.ViewerID); err != nil {
		return h.errorResponse(c, err)
	}

	var deck *model.UserDeck
	err = h.db.Transaction(ctx, func(tx *repository.Repository) (err error) {
		deck, err = h.inventory.UpdateDeck(ctx, tx, userID, req.CardIDs, requestAt)
		return err
	})
	if err != nil {
		return h.errorResponse(c, err)
	}

	return successResponse(c, &UpdateDeckResponse{
		UpdatedResources: makeUpdatedResources(requestAt, nil, nil, nil, []*model.UserDeck{deck}, nil, nil, nil),
	})
}

type UpdateDeckRequest struct {
	ViewerID string  `json:"viewerId"`
	CardIDs  []int64 `json:"cardIds"`
}

type UpdateDeckResponse struct {
	UpdatedResources *UpdatedResource `json:"updatedResources"`
}

// reward ゲーム報酬受取
// POST /user/{userID}/reward
func (h *Handler) reward(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.errorResponse(c, apperror.ErrInvalidUserID.Wrap(err))
	}

	// parse body
	defer c.Request().Body.Close()
	req := new(RewardRequest)
	if err := parseRequestBody(c, req); err != nil {
		return h.errorResponse(c, err)
	}

	requestAt := getRequestTime(c)
	ctx := c.Request().Context()

	if err := h.checker.CheckViewerID(ctx, userID, req.ViewerID); err != nil {
		return h.errorResponse(c, err)
	}

	var user *model.User
	err = h.db.Transaction(ctx, func(tx *repository.Repository) (err error) {
		user, err = h.inventory.CollectReward(ctx, tx, userID, requestAt)
		return err
	})
	if err != nil {
		return h.errorResponse(c, err)
	}

	return successResponse(c, &RewardResponse{
		UpdatedResources: makeUpdatedResources(requestAt, user, nil, nil, nil, nil, nil, nil),
	})
}

type RewardRequest struct {
	ViewerID string `json:"viewerId"`
}

type RewardResponse struct {
	UpdatedResources *UpdatedResource `json:"updatedResources"`
}

// home ホーム取得
// GET /user/{userID}/home
func (h *Handler) home(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.errorResponse(c, apperror.ErrInvalidUserID.Wrap(err))
	}

	requestAt := getRequestTime(c)

	home, err := h.inventory.Home(c.Request().Context(), h.db.Repository(), userID, requestAt)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return successResponse(c, &HomeResponse{
		Now:               requestAt,
		User:              home.User,
		Deck:              home.Deck,
		TotalAmountPerSec: home.TotalAmountPerSec,
		PastTime:          home.PastTime,
	})
}

type HomeResponse struct {
	Now               int64           `json:"now"`
	User              *model.User     `json:"user"`
	Deck              *model.UserDeck `json:"deck,omitempty"`
	TotalAmountPerSec int             `json:"totalAmountPerSec"`
	PastTime          int64           `json:"pastTime"` // 経過時間を秒単位で
}
