// Package apperror classifies request failures into a status class and a stable reason.
package apperror

import (
	"net/http"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindStore Kind = iota
	KindValidation
	KindUnprocessable
	KindInvalidMasterVersion
	KindUnauthorized
	KindExpiredSession
	KindForbidden
	KindNotFound
	KindConflict
	KindConsistency
)

// Status HTTPステータスコード
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnprocessable, KindInvalidMasterVersion:
		return http.StatusUnprocessableEntity
	case KindUnauthorized, KindExpiredSession:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Reason is stable for clients, Message is for humans.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

func New(kind Kind, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is sentinel同士はKindとReasonで比較する
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Reason == t.Reason
}

// Wrap attaches cause to a copy of the sentinel e, keeping its classification.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Reason: e.Reason, Message: e.Message, Err: cause}
}

// WithMessage returns a copy of the sentinel with a more specific message.
func (e *Error) WithMessage(message string) *Error {
	return &Error{Kind: e.Kind, Reason: e.Reason, Message: message, Err: e.Err}
}

// From resolves the classified error in err's chain. Unclassified errors are store errors.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Kind: KindStore, Reason: "store_error", Message: err.Error(), Err: err}
}

// KindOf returns the kind of err, KindStore when it is unclassified.
func KindOf(err error) Kind {
	return From(err).Kind
}

var (
	ErrInvalidRequestBody   = New(KindValidation, "invalid_request_body", "invalid request body")
	ErrInvalidUserID        = New(KindValidation, "invalid_user_id", "invalid userID parameter")
	ErrInvalidParam         = New(KindValidation, "invalid_param", "invalid path parameter")
	ErrInvalidItemType      = New(KindValidation, "invalid_item_type", "invalid item type")
	ErrInvalidToken         = New(KindValidation, "invalid_token", "invalid token")
	ErrInvalidDrawCount     = New(KindValidation, "invalid_draw_count", "invalid draw gacha times")
	ErrInvalidCardIDs       = New(KindValidation, "invalid_card_ids", "invalid card ids")
	ErrInvalidIndexNumber   = New(KindValidation, "invalid_index_number", "index number (n) should be more than or equal to 1")
	ErrMaxLevel             = New(KindValidation, "max_level", "target card is max level")
	ErrBanTargetNotFound    = New(KindValidation, "ban_target_not_found", "not found user")
	ErrEmptyPresentIDs      = New(KindUnprocessable, "empty_present_ids", "presentIds is empty")
	ErrInvalidMasterVersion = New(KindInvalidMasterVersion, "invalid_master_version", "invalid master version")
	ErrUnauthorized         = New(KindUnauthorized, "unauthorized", "unauthorized user")
	ErrExpiredSession       = New(KindExpiredSession, "session_expired", "session expired")
	ErrForbidden            = New(KindForbidden, "forbidden", "forbidden")

	ErrMasterVersionNotFound    = New(KindNotFound, "master_version_not_found", "active master version is not found")
	ErrUserNotFound             = New(KindNotFound, "user_not_found", "not found user")
	ErrUserDeviceNotFound       = New(KindNotFound, "user_device_not_found", "not found user device")
	ErrItemNotFound             = New(KindNotFound, "item_not_found", "not found item")
	ErrCardNotFound             = New(KindNotFound, "card_not_found", "not found card")
	ErrDeckNotFound             = New(KindNotFound, "deck_not_found", "not found deck")
	ErrGachaNotFound            = New(KindNotFound, "gacha_not_found", "not found gacha")
	ErrGachaItemNotFound        = New(KindNotFound, "gacha_item_not_found", "not found gacha item")
	ErrLoginBonusRewardNotFound = New(KindNotFound, "login_bonus_reward_not_found", "not found login bonus reward")

	ErrNotEnoughCoin = New(KindConflict, "not_enough_coin", "not enough isucon")
	ErrNotEnoughItem = New(KindConflict, "not_enough_item", "item not enough")

	ErrReceivedPresent = New(KindConsistency, "already_received", "received present")
)
