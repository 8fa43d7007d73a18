package routes

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/citizen-portal/citizen_portal/internal/config"
	"github.com/citizen-portal/citizen_portal/internal/middleware"
	"github.com/citizen-portal/citizen_portal/internal/session"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Local    *sql.DB
	Sessions *session.Manager
	Logger   *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Sessions == nil {
		return fmt.Errorf("session manager is required")
	}
	// Outside of dev the login limiter must be shared, so Redis is mandatory.
	if !d.Cfg.IsDev() && d.Cache == nil {
		return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if d.Logger != nil {
		app.Use(middleware.Audit(d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	sessions := session.NewHandler(d.Sessions)
	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.IdempotencyRendering(d.Cache, d.Cfg.IdempotencyTTL, d.Logger, sessions.Snapshot)
	}
	rateLimiter := middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit)
	RegisterSessionRoutes(api, sessions, rateLimiter, idempotency)

	// Protected routes
	protected := api.Group("", middleware.RequireAuthenticated(d.Sessions))
	RegisterProfileRoute(protected, d.Sessions)

	return nil
}
