package user

import (
	"go-chat/internal/common/api"
	"go-chat/internal/config"
	"go-chat/internal/features/authz"
	"go-chat/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserApi struct {
	controller *UserController
	config     *config.Config
}

func NewUserApi(controller *UserController, config *config.Config) api.Route {
	return &UserApi{
		controller: controller,
		config:     config,
	}
}

func (h *UserApi) Setup(app *fiber.App) {
	users := app.Group("/api/users", middleware.AuthMiddleware(h.config.SkipAuth))
	users.Get("/", h.controller.ListUsers)

	perms := app.Group("/api/permissions",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.RequireRole(h.config.SkipAuth, authz.RoleAdmin))

	perms.Get("/roles", h.controller.ListRoles)
	perms.Get("/available", h.controller.ListPermissions)
	perms.Get("/user/:userId", h.controller.GetUserAccess)
	perms.Put("/user/:userId", h.controller.UpdateUserAccess)
}
