package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/agentkyo/jadlog-bot/internal/api/handler"
	"github.com/agentkyo/jadlog-bot/internal/api/middleware"
	"github.com/agentkyo/jadlog-bot/internal/core/ports"
)

// NewRouter builds and returns the Echo instance with all routes registered:
// health probes, Prometheus metrics, and the JWT-protected admin API.
func NewRouter(service ports.RefreshService, db *mongo.Database, rdb *redis.Client, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("jadlogbot_http"))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Metrics ---
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Admin API ---
	adminHandler := handler.NewAdminHandler(service, log)
	admin := e.Group("/admin", middleware.Auth(jwtSecret), middleware.RBAC("admin"))
	admin.GET("/packages", adminHandler.ListPackages)
	admin.POST("/packages", adminHandler.RegisterPackage)
	admin.POST("/refresh", adminHandler.TriggerRefresh)

	return e
}
