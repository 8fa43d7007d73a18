package server

import (
    "context"
    "log/slog"
    "time"

    "github.com/gofiber/fiber/v2"

    "github.com/citizen-portal/citizen_portal/internal/app"
    "github.com/citizen-portal/citizen_portal/internal/config"
    "github.com/citizen-portal/citizen_portal/internal/routes"
)

// Server wraps the Fiber application and the portal it serves.
type Server struct {
    app    *fiber.App
    cfg    config.Config
    portal *app.Portal
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, portal *app.Portal, logger *slog.Logger) (*Server, error) {
    fapp := fiber.New(fiber.Config{
        AppName:      cfg.AppName,
        ReadTimeout:  30 * time.Second,
        WriteTimeout: 30 * time.Second,
    })

    res := portal.Resources
    if err := routes.Setup(fapp, routes.Deps{
        Cfg:      cfg,
        DB:       res.DB,
        Cache:    res.Cache,
        Local:    res.Local,
        Sessions: portal.Sessions,
        Logger:   logger,
    }); err != nil {
        return nil, err
    }

    return &Server{app: fapp, cfg: cfg, portal: portal}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
    return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
    return s.app.ShutdownWithContext(ctx)
}
