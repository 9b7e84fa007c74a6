package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := deps.now()

	return func(c *fiber.Ctx) error {
		now := deps.now()
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": now.Format(time.RFC3339),
			"uptime":    now.Sub(startedAt).String(),
		})
	}
}
