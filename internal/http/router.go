package http

import (
	"time"

	"github.com/ecnal/moxiworks-platform/internal/auth"
	"github.com/ecnal/moxiworks-platform/internal/config"
	"github.com/ecnal/moxiworks-platform/internal/http/handlers"
	"github.com/ecnal/moxiworks-platform/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SetupRouter wires the bridge routes. rdb may be nil, which disables rate
// limiting.
func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	actionLogHandler *handlers.ActionLogHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		resp := fiber.Map{"status": "ok"}
		if wsHub != nil {
			resp["ws_connections"] = wsHub.Connections()
		}
		return c.JSON(resp)
	})

	api := app.Group("/api/v1")
	if rdb != nil {
		api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))
	}

	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// ActionLogs
	protected.Post("/action_logs", middleware.RequireScope(auth.ScopeActionLogsWrite), actionLogHandler.CreateActionLog)
	protected.Get("/action_logs", middleware.RequireScope(auth.ScopeActionLogsRead), actionLogHandler.SearchActionLogs)
	protected.Get("/journal", middleware.RequireScope(auth.ScopeActionLogsRead), actionLogHandler.ListJournal)

	// WebSocket
	if wsHub != nil {
		app.Use("/ws", handlers.WSUpgradeMiddleware())
		app.Get("/ws", websocket.New(wsHub.HandleWS))
	}
}
