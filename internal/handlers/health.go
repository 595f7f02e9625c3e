package handlers

import (
	"context"
	"time"

	"atlasbank/internal/repositories"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck reports the liveness of the API and its backing stores.
func HealthCheck(c *fiber.Ctx) error {
	status := fiber.Map{
		"status": "ok",
		"time":   time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	if repositories.DB != nil {
		sqlDB, err := repositories.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			status["database"] = "down"
			status["status"] = "degraded"
		} else {
			status["database"] = "up"
		}
	}

	if repositories.Cache != nil {
		if _, err := repositories.Cache.Get(ctx, "health:ping"); err != nil && err != repositories.ErrCacheMiss {
			status["cache"] = "down"
			status["status"] = "degraded"
		} else {
			status["cache"] = "up"
		}
	}

	if status["status"] == "degraded" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	return c.JSON(status)
}
