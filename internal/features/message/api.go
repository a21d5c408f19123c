package message

import (
	"go-chat/internal/common/api"
	"go-chat/internal/config"
	"go-chat/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MessageApi struct {
	controller *MessageController
	config     *config.Config
}

func NewMessageApi(controller *MessageController, config *config.Config) api.Route {
	return &MessageApi{
		controller: controller,
		config:     config,
	}
}

func (h *MessageApi) Setup(app *fiber.App) {
	messages := app.Group("/api/messages", middleware.AuthMiddleware(h.config.SkipAuth))

	messages.Get("/:groupId", h.controller.ListMessages)
	messages.Post("/:groupId", h.controller.SendMessage)
	messages.Post("/:groupId/files", h.controller.UploadFiles)
	messages.Get("/:groupId/search", h.controller.SearchMessages)
	messages.Get("/:groupId/export", h.controller.ExportMessages)
	messages.Put("/:groupId/read-all", h.controller.MarkAllRead)
	messages.Put("/:messageId/read", h.controller.MarkRead)
	messages.Delete("/:messageId", h.controller.DeleteMessage)
}
