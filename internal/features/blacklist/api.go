package blacklist

import (
	"go-chat/internal/common/api"
	"go-chat/internal/config"
	"go-chat/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type BlacklistApi struct {
	controller *BlacklistController
	config     *config.Config
}

func NewBlacklistApi(controller *BlacklistController, config *config.Config) api.Route {
	return &BlacklistApi{
		controller: controller,
		config:     config,
	}
}

func (h *BlacklistApi) Setup(app *fiber.App) {
	bl := app.Group("/api/blacklist", middleware.AuthMiddleware(h.config.SkipAuth))

	bl.Post("/:groupId", h.controller.Ban)
	bl.Get("/:groupId", h.controller.List)
	bl.Delete("/:groupId/:userId", h.controller.Unban)
}
