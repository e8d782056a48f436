package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/repository"
)

// listPresent プレゼント一覧
// GET /user/{userID}/present/index/{n}
func (h *Handler) listPresent(c echo.Context) error {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		return h.errorResponse(c, apperror.ErrInvalidIndexNumber.WithMessage("invalid index number (n) parameter"))
	}

	userID, err := getUserID(c)
	if err != nil {
		return h.errorResponse(c, apperror.ErrInvalidUserID.Wrap(err))
	}

	page, err := h.presents.List(c.Request().Context(), h.db.Repository(), userID, n)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return successResponse(c, page)
}

// receivePresent プレゼント受け取り
// POST /user/{userID}/present/receive
func (h *Handler) receivePresent(c echo.Context) error {
	// read body
	defer c.Request().Body.Close()
	req := new(ReceivePresentRequest)
	if err := parseRequestBody(c, req); err != nil {
		return h.errorResponse(c, err)
	}

	userID, err := getUserID(c)
	if err != nil {
		return h.errorResponse(c, apperror.ErrInvalidUserID.Wrap(err))
	}

	requestAt := getRequestTime(c)
	ctx := c.Request().Context()

	if len(req.PresentIDs) == 0 {
		return h.errorResponse(c, apperror.ErrEmptyPresentIDs)
	}

	if err = h.checker.CheckViewerID(ctx, userID, req.ViewerID); err != nil {
		return h.errorResponse(c, err)
	}

	var received []*model.UserPresent
	err = h.db.Transaction(ctx, func(tx *repository.Repository) (err error) {
		received, err = h.presents.Receive(ctx, tx, userID, req.PresentIDs, requestAt)
		return err
	})
	if err != nil {
		return h.errorResponse(c, err)
	}

	return successResponse(c, &ReceivePresentResponse{
		UpdatedResources: makeUpdatedResources(requestAt, nil, nil, nil, nil, nil, nil, received),
	})
}

type ReceivePresentRequest struct {
	ViewerID   string  `json:"viewerId"`
	PresentIDs []int64 `json:"presentIds"`
}

type ReceivePresentResponse struct {
	UpdatedResources *UpdatedResource `json:"updatedResources"`
}
