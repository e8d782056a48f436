package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/repository"
)

// adminLogin 管理者権限ログイン
// POST /admin/login
func (h *Handler) adminLogin(c echo.Context) error {
	defer c.Request().Body.Close()
	req := new(AdminLoginRequest)
	if err := parseRequestBody(c, req); err != nil {
		return h.errorResponse(c, err)
	}

	requestAt := getRequestTime(c)
	ctx := c.Request().Context()

	var sess *model.Session
	err := h.db.Transaction(ctx, func(tx *repository.Repository) (err error) {
		sess, err = h.admins.Login(ctx, tx, tx.AdminSessions(), req.UserID, req.Password, requestAt)
		return err
	})
	if err != nil {
		return h.errorResponse(c, err)
	}

	return successResponse(c, &AdminLoginResponse{
		AdminSession: sess,
	})
}

type AdminLoginRequest struct {
	UserID   int64  `json:"userId" validate:"required"`
	Password string `json:"password"`
}

type AdminLoginResponse struct {
	AdminSession *model.Session `json:"session"`
}

// adminLogout 管理者権限ログアウト
// DELETE /admin/logout
func (h *Handler) adminLogout(c echo.Context) error {
	requestAt := getRequestTime(c)
	req := admissionRequest(c)

	repo := h.db.Repository()
	if err := h.admins.Logout(c.Request().Context(), repo.AdminSessions(), req.SessionID, requestAt); err != nil {
		return h.errorResponse(c, err)
	}

	return noContentResponse(c, http.StatusNoContent)
}

// adminListMaster マスタデータ閲覧
// GET /admin/master
func (h *Handler) adminListMaster(c echo.Context) error {
	masters, err := h.admins.Masters(c.Request().Context(), h.db.Repository())
	if err != nil {
		return h.errorResponse(c, err)
	}

	return successResponse(c, masters)
}

// adminUser ユーザの詳細画面
// GET /admin/user/{userID}
func (h *Handler) adminUser(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.errorResponse(c, apperror.ErrInvalidUserID.Wrap(err))
	}

	detail, err := h.admins.UserDetail(c.Request().Context(), h.db.Repository(), userID)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return successResponse(c, detail)
}

// adminBanUser ユーザBAN処理
// POST /admin/user/{userID}/ban
func (h *Handler) adminBanUser(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.errorResponse(c, apperror.ErrInvalidUserID.Wrap(err))
	}

	requestAt := getRequestTime(c)
	ctx := c.Request().Context()

	var user *model.User
	err = h.db.Transaction(ctx, func(tx *repository.Repository) (err error) {
		user, err = h.admins.Ban(ctx, tx, userID, requestAt)
		return err
	})
	if err != nil {
		return h.errorResponse(c, err)
	}

	return successResponse(c, &AdminBanUserResponse{
		User: user,
	})
}

type AdminBanUserResponse struct {
	User *model.User `json:"user"`
}
