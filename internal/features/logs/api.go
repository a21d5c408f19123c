package logs

import (
	"go-chat/internal/common/api"
	"go-chat/internal/config"
	"go-chat/internal/features/authz"
	"go-chat/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type LogApi struct {
	controller *LogController
	config     *config.Config
}

func NewLogApi(controller *LogController, config *config.Config) api.Route {
	return &LogApi{
		controller: controller,
		config:     config,
	}
}

func (h *LogApi) Setup(app *fiber.App) {
	logsGroup := app.Group("/api/logs",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.RequirePermission(h.config.SkipAuth, authz.PermViewLogs))

	logsGroup.Get("/", h.controller.QueryLogs)
	logsGroup.Post("/sweep",
		middleware.RequireRole(h.config.SkipAuth, authz.RoleAdmin),
		h.controller.SweepLogs)
}
