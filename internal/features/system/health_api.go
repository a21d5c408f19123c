package system

import (
	"context"
	"time"

	"go-chat/internal/common/api"
	"go-chat/internal/database"

	"github.com/gofiber/fiber/v2"
)

type HealthApi struct {
	db *database.MongodbDB
}

func NewHealthApi(db *database.MongodbDB) api.Route {
	return &HealthApi{db: db}
}

// Setup registers the health probe.
func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/health", func(ctx *fiber.Ctx) error {
		pingCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
		defer cancel()

		if err := h.db.DB.Client().Ping(pingCtx, nil); err != nil {
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"error":  err.Error(),
			})
		}
		return ctx.JSON(fiber.Map{"status": "ok"})
	})
}
