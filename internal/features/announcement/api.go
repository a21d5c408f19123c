package announcement

import (
	"go-chat/internal/common/api"
	"go-chat/internal/config"
	"go-chat/internal/features/authz"
	"go-chat/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AnnouncementApi struct {
	controller *AnnouncementController
	config     *config.Config
}

func NewAnnouncementApi(controller *AnnouncementController, config *config.Config) api.Route {
	return &AnnouncementApi{
		controller: controller,
		config:     config,
	}
}

func (h *AnnouncementApi) Setup(app *fiber.App) {
	announcements := app.Group("/api/announcements", middleware.AuthMiddleware(h.config.SkipAuth))

	announcements.Get("/", h.controller.Inbox)
	announcements.Post("/",
		middleware.RequirePermission(h.config.SkipAuth, authz.PermManageAnnouncements),
		h.controller.Broadcast)
	announcements.Post("/invitations", h.controller.Invite)
	announcements.Put("/:id/read", h.controller.MarkRead)
	announcements.Put("/:id/respond", h.controller.Respond)
}
