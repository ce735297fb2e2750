package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/observability"
)

// AppConfig controls how the fiber application is built.
type AppConfig struct {
	Name           string
	RequestTimeout time.Duration
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	Routes         RouteConfig
}

// NewApp builds the fiber application with middlewares and routes attached.
func NewApp(cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(cfg.Logger, cfg.Metrics),
	})
	RegisterMiddlewares(app, cfg.Logger, cfg.Metrics, cfg.RequestTimeout)
	RegisterRoutes(app, cfg.Routes)
	return app
}
