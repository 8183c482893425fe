package handlers

import (
	"time"

	"usersync/internal/middleware"
	"usersync/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// NewApp builds the read-only HTTP view of the remote table.
func NewApp(display *services.DisplayService, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(middleware.RequestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	apiV1 := app.Group("/api/v1")
	NewUserHandler(display, logger).RegisterRoutes(apiV1)
	return app
}
