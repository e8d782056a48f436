package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/gacha"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/repository"
)

// listGacha ガチャ一覧
// GET /user/{userID}/gacha/index
func (h *Handler) listGacha(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.errorResponse(c, apperror.ErrInvalidUserID.Wrap(err))
	}

	requestAt := getRequestTime(c)
	ctx := c.Request().Context()

	var listing *gacha.Listing
	err = h.db.Transaction(ctx, func(tx *repository.Repository) (err error) {
		listing, err = h.gachas.List(ctx, tx, userID, requestAt)
		return err
	})
	if err != nil {
		return h.errorResponse(c, err)
	}

	return successResponse(c, listing)
}

// drawGacha ガチャを引く
// POST /user/{userID}/gacha/draw/{gachaID}/{n}
func (h *Handler) drawGacha(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.errorResponse(c, apperror.ErrInvalidUserID.Wrap(err))
	}

	gachaID, err := getInt64Param(c, "gachaID")
	if err != nil {
		return h.errorResponse(c, err)
	}

	gachaCount, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		return h.errorResponse(c, apperror.ErrInvalidDrawCount.Wrap(err))
	}

	defer c.Request().Body.Close()
	req := new(DrawGachaRequest)
	if err = parseRequestBody(c, req); err != nil {
		return h.errorResponse(c, err)
	}

	requestAt := getRequestTime(c)
	ctx := c.Request().Context()

	if err = h.checker.CheckViewerID(ctx, userID, req.ViewerID); err != nil {
		return h.errorResponse(c, err)
	}

	var presents []*model.UserPresent
	err = h.db.Transaction(ctx, func(tx *repository.Repository) (err error) {
		presents, err = h.gachas.Draw(ctx, tx, userID, gachaID, gachaCount, requestAt)
		return err
	})
	if err != nil {
		return h.errorResponse(c, err)
	}

	return successResponse(c, &DrawGachaResponse{
		Presents: presents,
	})
}

type DrawGachaRequest struct {
	ViewerID     string `json:"viewerId"`
	OneTimeToken string `json:"oneTimeToken"`
}

type DrawGachaResponse struct {
	Presents []*model.UserPresent `json:"presents"`
}
