package user

import (
	"go-chat/internal/common/apperr"
	"go-chat/internal/features/authz"
	"go-chat/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserController struct {
	Service UserService
}

func NewUserController(service UserService) *UserController {
	return &UserController{Service: service}
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} User
// @Router /api/users [get]
func (c *UserController) ListUsers(ctx *fiber.Ctx) error {
	users, err := c.Service.ListUsers(ctx.UserContext())
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(users)
}

// ListRoles godoc
// @Summary List all available roles
// @Tags permissions
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/permissions/roles [get]
func (c *UserController) ListRoles(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"roles": authz.Roles()})
}

// ListPermissions godoc
// @Summary List all grantable permissions
// @Tags permissions
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/permissions/available [get]
func (c *UserController) ListPermissions(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"permissions": authz.Permissions()})
}

// GetUserAccess godoc
// @Summary Get a user's role and permission overrides
// @Tags permissions
// @Produce json
// @Success 200 {object} User
// @Router /api/permissions/user/{userId} [get]
func (c *UserController) GetUserAccess(ctx *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(ctx.Params("userId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	u, err := c.Service.GetUser(ctx.UserContext(), id)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(fiber.Map{"user": u})
}

// UpdateUserAccess godoc
// @Summary Update a user's role and permission overrides
// @Tags permissions
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/permissions/user/{userId} [put]
func (c *UserController) UpdateUserAccess(ctx *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(ctx.Params("userId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var body struct {
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if body.Role == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "role is required"})
	}

	claims, ok := middleware.ClaimsFrom(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	u, err := c.Service.UpdateAccess(ctx.UserContext(), claims.Role, id, body.Role, body.Permissions)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "User access updated", "user": u})
}
