package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecnal/moxiworks-platform/internal/cache"
	"github.com/ecnal/moxiworks-platform/internal/config"
	"github.com/ecnal/moxiworks-platform/internal/db"
	"github.com/ecnal/moxiworks-platform/internal/events"
	apphttp "github.com/ecnal/moxiworks-platform/internal/http"
	"github.com/ecnal/moxiworks-platform/internal/http/handlers"
	"github.com/ecnal/moxiworks-platform/internal/repositories"
	"github.com/ecnal/moxiworks-platform/internal/services"
	"github.com/ecnal/moxiworks-platform/migrations"
	"github.com/ecnal/moxiworks-platform/pkg/platform"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Platform
	client := platform.NewClient(
		platform.Credentials{Identifier: cfg.PlatformIdentifier, Secret: cfg.PlatformSecret},
		platform.WithBaseURL(cfg.PlatformURL),
		platform.WithTimeout(cfg.PlatformTimeout),
		platform.WithLogger(log.Named("platform")),
		platform.WithDebug(cfg.PlatformDebug),
	)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	journalRepo := repositories.NewJournalRepo(pool)
	searchCache := cache.NewRedisCache(rdb, "actionlog:")
	actionLogService := services.NewActionLogService(client, journalRepo, searchCache, publisher, cfg.SearchCacheTTL, log)

	// Handlers
	actionLogHandler := handlers.NewActionLogHandler(actionLogService, log)
	wsHub := handlers.NewWSHub(cfg.JWTSecret, subscriber, log)
	if err := wsHub.Start(ctx); err != nil {
		log.Fatal("failed to start ws hub", zap.Error(err))
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, actionLogHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting bridge", zap.String("addr", addr), zap.String("platform_url", cfg.PlatformURL))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
