// Package handler is the echo transport of the game server.
package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hash-not-analog/isuconquest/internal/admin"
	"github.com/hash-not-analog/isuconquest/internal/admission"
	"github.com/hash-not-analog/isuconquest/internal/gacha"
	"github.com/hash-not-analog/isuconquest/internal/grant"
	"github.com/hash-not-analog/isuconquest/internal/idgen"
	"github.com/hash-not-analog/isuconquest/internal/inventory"
	"github.com/hash-not-analog/isuconquest/internal/login"
	"github.com/hash-not-analog/isuconquest/internal/metrics"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/present"
	"github.com/hash-not-analog/isuconquest/internal/repository"
	"github.com/hash-not-analog/isuconquest/internal/session"
)

type Handler struct {
	db      *repository.DB
	checker *admission.Checker

	users     *login.Service
	grants    *grant.Engine
	presents  *present.Engine
	gachas    *gacha.Engine
	inventory *inventory.Service
	admins    *admin.Service

	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(db *repository.DB, ids idgen.Generator, logger *zap.Logger, m *metrics.Metrics) *Handler {
	grants := grant.NewEngine(ids)
	grants.Observe = func(t model.ItemType) {
		m.Grants.WithLabelValues(t.String()).Inc()
	}
	presents := present.NewEngine(ids, grants)
	userSessions := session.NewUserIssuer(ids)

	gachas := gacha.NewEngine(ids, userSessions)
	gachas.Observe = func(gachaID int64, n int) {
		m.GachaDraws.WithLabelValues(formatID(gachaID)).Add(float64(n))
	}

	repo := db.Repository()
	return &Handler{
		db:        db,
		checker:   admission.NewChecker(repo, repo.UserSessions(), repo.AdminSessions()),
		users:     login.NewService(ids, grants, presents, userSessions),
		grants:    grants,
		presents:  presents,
		gachas:    gachas,
		inventory: inventory.NewService(ids, userSessions),
		admins:    admin.NewService(ids, session.NewAdminIssuer(ids)),
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// NewServer builds the echo instance with every route of the game and the admin console.
func NewServer(h *Handler, allowOrigins []string, gatherer prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "x-master-version", "x-session", "x-isu-date"},
	}))
	e.Use(h.requestLogger())
	e.Use(h.metricsMiddleware)

	// utility
	e.GET("/health", h.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	c := h.checker

	// feature
	API := e.Group("", h.apiMiddleware, h.admit(admission.Pipeline{c.MasterVersion(), c.Ban()}))
	API.POST("/user", h.createUser)
	API.POST("/login", h.login)
	sessCheckAPI := API.Group("", h.admit(admission.Pipeline{c.Session()}))
	sessCheckAPI.GET("/user/:userID/gacha/index", h.listGacha)
	sessCheckAPI.POST("/user/:userID/gacha/draw/:gachaID/:n", h.drawGacha, h.drawCountMiddleware, h.oneTimeTokenMiddleware(model.TokenTypeGacha))
	sessCheckAPI.GET("/user/:userID/present/index/:n", h.listPresent)
	sessCheckAPI.POST("/user/:userID/present/receive", h.receivePresent)
	sessCheckAPI.GET("/user/:userID/item", h.listItem)
	sessCheckAPI.POST("/user/:userID/card/addexp/:cardID", h.addExpToCard, h.oneTimeTokenMiddleware(model.TokenTypeCardExp))
	sessCheckAPI.POST("/user/:userID/card", h.updateDeck)
	sessCheckAPI.POST("/user/:userID/reward", h.reward)
	sessCheckAPI.GET("/user/:userID/home", h.home)

	// admin
	adminAPI := e.Group("", h.adminMiddleware)
	adminAPI.POST("/admin/login", h.adminLogin)
	adminAuthAPI := adminAPI.Group("", h.admit(admission.Pipeline{c.AdminSession()}))
	adminAuthAPI.DELETE("/admin/logout", h.adminLogout)
	adminAuthAPI.GET("/admin/master", h.adminListMaster)
	adminAuthAPI.GET("/admin/user/:userID", h.adminUser)
	adminAuthAPI.POST("/admin/user/:userID/ban", h.adminBanUser)

	return e
}

// health ヘルスチェック
func (h *Handler) health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
