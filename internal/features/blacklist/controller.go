package blacklist

import (
	"go-chat/internal/common/apperr"
	"go-chat/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BlacklistController struct {
	Service BlacklistService
}

func NewBlacklistController(service BlacklistService) *BlacklistController {
	return &BlacklistController{Service: service}
}

func params(ctx *fiber.Ctx) (actor, groupID primitive.ObjectID, err error) {
	claims, ok := middleware.ClaimsFrom(ctx)
	if !ok {
		return primitive.NilObjectID, primitive.NilObjectID, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	actor, err = primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID in token")
	}
	groupID, err = primitive.ObjectIDFromHex(ctx.Params("groupId"))
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, fiber.NewError(fiber.StatusBadRequest, "Invalid group ID")
	}
	return actor, groupID, nil
}

// Ban godoc
// @Summary Ban a user from a group (group owner or admin)
// @Tags blacklist
// @Accept json
// @Produce json
// @Success 201 {object} Entry
// @Router /api/blacklist/{groupId} [post]
func (c *BlacklistController) Ban(ctx *fiber.Ctx) error {
	actor, groupID, err := params(ctx)
	if err != nil {
		return err
	}

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	target, err := primitive.ObjectIDFromHex(body.UserID)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	entry, err := c.Service.Ban(ctx.UserContext(), actor, groupID, target)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(entry)
}

// Unban godoc
// @Summary Remove a user from a group's blacklist (group owner or admin)
// @Tags blacklist
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/blacklist/{groupId}/{userId} [delete]
func (c *BlacklistController) Unban(ctx *fiber.Ctx) error {
	actor, groupID, err := params(ctx)
	if err != nil {
		return err
	}
	target, err := primitive.ObjectIDFromHex(ctx.Params("userId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	if err := c.Service.Unban(ctx.UserContext(), actor, groupID, target); err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "User removed from blacklist"})
}

// List godoc
// @Summary List a group's blacklist (group owner or admin)
// @Tags blacklist
// @Produce json
// @Success 200 {array} Entry
// @Router /api/blacklist/{groupId} [get]
func (c *BlacklistController) List(ctx *fiber.Ctx) error {
	actor, groupID, err := params(ctx)
	if err != nil {
		return err
	}

	entries, err := c.Service.List(ctx.UserContext(), actor, groupID)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(entries)
}
