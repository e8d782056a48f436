package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/model"
)

type requestValidator struct {
	validate *validator.Validate
}

func newValidator() *requestValidator {
	return &requestValidator{validate: validator.New()}
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return apperror.ErrInvalidRequestBody.Wrap(err)
	}
	return nil
}

// errorResponse returns error.
func (h *Handler) errorResponse(c echo.Context, err error) error {
	appErr := apperror.From(err)
	statusCode := appErr.Kind.Status()

	fields := []zap.Field{
		zap.Int("status", statusCode),
		zap.String("reason", appErr.Reason),
		zap.String("path", c.Path()),
		zap.String("err", fmt.Sprintf("%+v", err)),
	}
	if statusCode >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Info("request rejected", fields...)
	}

	return c.JSON(statusCode, struct {
		StatusCode int    `json:"status_code"`
		Message    string `json:"message"`
		Reason     string `json:"reason"`
	}{
		StatusCode: statusCode,
		Message:    appErr.Message,
		Reason:     appErr.Reason,
	})
}

// successResponse responds success.
func successResponse(c echo.Context, v interface{}) error {
	return c.JSON(http.StatusOK, v)
}

// noContentResponse
func noContentResponse(c echo.Context, status int) error {
	return c.NoContent(status)
}

// getUserID gets userID by path param.
func getUserID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("userID"), 10, 64)
}

func getInt64Param(c echo.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, apperror.ErrInvalidParam.WithMessage("invalid " + name + " parameter")
	}
	return v, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// parseRequestBody parses request body.
func parseRequestBody(c echo.Context, dist interface{}) error {
	if err := c.Bind(dist); err != nil {
		return apperror.ErrInvalidRequestBody.Wrap(err)
	}
	return c.Validate(dist)
}

type UpdatedResource struct {
	Now  int64       `json:"now"`
	User *model.User `json:"user,omitempty"`

	UserDevice       *model.UserDevice       `json:"userDevice,omitempty"`
	UserCards        []*model.UserCard       `json:"userCards,omitempty"`
	UserDecks        []*model.UserDeck       `json:"userDecks,omitempty"`
	UserItems        []*model.UserItem       `json:"userItems,omitempty"`
	UserLoginBonuses []*model.UserLoginBonus `json:"userLoginBonuses,omitempty"`
	UserPresents     []*model.UserPresent    `json:"userPresents,omitempty"`
}

func makeUpdatedResources(
	requestAt int64,
	user *model.User,
	userDevice *model.UserDevice,
	userCards []*model.UserCard,
	userDecks []*model.UserDeck,
	userItems []*model.UserItem,
	userLoginBonuses []*model.UserLoginBonus,
	userPresents []*model.UserPresent,
) *UpdatedResource {
	return &UpdatedResource{
		Now:              requestAt,
		User:             user,
		UserDevice:       userDevice,
		UserCards:        userCards,
		UserItems:        userItems,
		UserDecks:        userDecks,
		UserLoginBonuses: userLoginBonuses,
		UserPresents:     userPresents,
	}
}
