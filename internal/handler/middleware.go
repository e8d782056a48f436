package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/hash-not-analog/isuconquest/internal/admission"
	"github.com/hash-not-analog/isuconquest/internal/apperror"
	"github.com/hash-not-analog/isuconquest/internal/model"
)

const admissionKey = "admission"

// apiMiddleware x-isu-date をリクエスト時刻にする
func (h *Handler) apiMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestAt := admission.RequestTime(c.Request().Header.Get("x-isu-date"), h.now())
		c.Set(admissionKey, newAdmissionRequest(c, requestAt))
		return next(c)
	}
}

// adminMiddleware admin はサーバ時刻を使う
func (h *Handler) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(admissionKey, newAdmissionRequest(c, h.now().Unix()))
		return next(c)
	}
}

func newAdmissionRequest(c echo.Context, requestAt int64) *admission.Request {
	req := &admission.Request{
		SessionID:     c.Request().Header.Get("x-session"),
		MasterVersion: c.Request().Header.Get("x-master-version"),
		RequestAt:     requestAt,
	}
	if userID, err := getUserID(c); err == nil {
		req.UserID = userID
		req.HasUserID = true
	}
	return req
}

func admissionRequest(c echo.Context) *admission.Request {
	if req, ok := c.Get(admissionKey).(*admission.Request); ok {
		return req
	}
	return &admission.Request{}
}

// getRequestTime リクエストを受けた時間をコンテキストからunixtimeで取得する
func getRequestTime(c echo.Context) int64 {
	return admissionRequest(c).RequestAt
}

// admit runs p on the request built by apiMiddleware or adminMiddleware.
func (h *Handler) admit(p admission.Pipeline) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := p.Run(c.Request().Context(), admissionRequest(c)); err != nil {
				return h.errorResponse(c, err)
			}
			return next(c)
		}
	}
}

// drawCountMiddleware ガチャ回数はトークン消費より先に確認する
func (h *Handler) drawCountMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		n, err := strconv.Atoi(c.Param("n"))
		if err != nil || (n != 1 && n != 10) {
			return h.errorResponse(c, apperror.ErrInvalidDrawCount)
		}
		return next(c)
	}
}

// oneTimeTokenMiddleware body の oneTimeToken を検証して失効させる
func (h *Handler) oneTimeTokenMiddleware(tokenType model.TokenType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			buf, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return h.errorResponse(c, apperror.ErrInvalidRequestBody.Wrap(err))
			}
			c.Request().Body = io.NopCloser(bytes.NewReader(buf))

			body := struct {
				OneTimeToken string `json:"oneTimeToken"`
			}{}
			if err := json.Unmarshal(buf, &body); err != nil {
				return h.errorResponse(c, apperror.ErrInvalidRequestBody.Wrap(err))
			}

			req := admissionRequest(c)
			req.Token = body.OneTimeToken
			if err := h.checker.OneTimeToken(tokenType)(c.Request().Context(), req); err != nil {
				return h.errorResponse(c, err)
			}
			return next(c)
		}
	}
}

func (h *Handler) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			h.logger.Debug("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	})
}

func (h *Handler) metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}
		route := c.Path()
		method := c.Request().Method
		h.metrics.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
		h.metrics.RequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
		return err
	}
}
