package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lms/config"
	controllers "lms/controllers/course"
	"lms/controllers/payment"
	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/routers"
	"lms/services/notification"
	"lms/services/progress"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	if err := logger.Init(cfg.AppEnv); err != nil {
		log.Fatalf("Failed to initialise logger: %v", err)
	}
	defer logger.Log.Sync()

	database.ConnectDb()
	db := database.Database.Db

	roles := roleCache(cfg)

	mailer := utils.NewMailer(cfg)
	notifications := notification.NewDispatcher(db, mailer, logger.Log)
	engine := progress.NewEngine(progress.NewGormStore(db), notifications, logger.Log)

	webhook := &payment.Webhook{
		Secret:        cfg.StripeWebhookSecret,
		AllowUnsigned: cfg.WebhookAllowsUnsigned(),
		Notifications: notifications,
	}
	if webhook.AllowUnsigned {
		logger.Log.Warn("accepting unsigned payment webhooks (STRIPE_ALLOW_UNSIGNED, development only)")
	}
	if cfg.StripeAPIKey != "" {
		webhook.Sessions = utils.NewStripeClient(cfg.StripeAPIURL, cfg.StripeAPIKey)
	}

	if cfg.ProgressSweepSpec != "" {
		scheduler, err := utils.InitializeProgressScheduler(cfg.ProgressSweepSpec, engine)
		if err != nil {
			logger.Log.Fatal("invalid PROGRESS_SWEEP_SPEC", "spec", cfg.ProgressSweepSpec, "error", err)
		}
		defer scheduler.Stop()
	}

	app := fiber.New(fiber.Config{AppName: "lms"})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization,Stripe-Signature",
	}))
	app.Use(fiberLogger.New(fiberLogger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	routers.Setup(app, routers.Services{
		Course:  controllers.NewHandlers(engine, notifications),
		Webhook: webhook,
		Roles:   roles,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Log.Info("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	logger.Log.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv, "db", cfg.DBDriver)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Log.Error("server stopped", "error", err)
	}
}

// roleCache uses Redis when REDIS_URL is set so role changes propagate across instances.
func roleCache(cfg *config.Config) middleware.RoleCache {
	ttl := time.Duration(cfg.RoleCacheTTLMinutes) * time.Minute
	loader := middleware.UserRoleLoader(database.Database.Db)
	if cfg.RedisURL == "" {
		return middleware.NewMemoryRoleCache(loader, ttl)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := middleware.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Log.Warn("redis unavailable, using in-memory role cache", "error", err)
		return middleware.NewMemoryRoleCache(loader, ttl)
	}
	return middleware.NewRedisRoleCache(client, loader, ttl)
}
