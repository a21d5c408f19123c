package group

import (
	"go-chat/internal/common/api"
	"go-chat/internal/config"
	"go-chat/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type GroupApi struct {
	controller *GroupController
	config     *config.Config
}

func NewGroupApi(controller *GroupController, config *config.Config) api.Route {
	return &GroupApi{
		controller: controller,
		config:     config,
	}
}

func (h *GroupApi) Setup(app *fiber.App) {
	groups := app.Group("/api/groups", middleware.AuthMiddleware(h.config.SkipAuth))

	groups.Post("/", h.controller.CreateGroup)
	groups.Get("/", h.controller.ListGroups)
	groups.Get("/:id", h.controller.GetGroup)
	groups.Delete("/:id", h.controller.Dissolve)

	groups.Post("/:id/join", h.controller.Join)
	groups.Post("/:id/leave", h.controller.Leave)
	groups.Post("/:id/kick", h.controller.Kick)

	groups.Post("/:id/admins", h.controller.AddAdmin)
	groups.Delete("/:id/admins/:userId", h.controller.RemoveAdmin)

	groups.Get("/:id/requests", h.controller.ListRequests)
	groups.Put("/:id/requests/:requestId/approve", h.controller.ApproveRequest)
	groups.Put("/:id/requests/:requestId/reject", h.controller.RejectRequest)
}
