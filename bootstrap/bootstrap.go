package bootstrap

import (
	"invoicehub-backend/internal/config"
	"invoicehub-backend/internal/interfaces/router"
	"invoicehub-backend/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for Vercel serverless (api handler imports this package, not internal).
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	app, _, _, err := router.CreateApp(cfg)
	return app, err
}
