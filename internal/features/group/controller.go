package group

import (
	"go-chat/internal/common/apperr"
	"go-chat/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GroupController struct {
	Service GroupService
}

func NewGroupController(service GroupService) *GroupController {
	return &GroupController{Service: service}
}

func actorID(ctx *fiber.Ctx) (primitive.ObjectID, string, error) {
	claims, ok := middleware.ClaimsFrom(ctx)
	if !ok {
		return primitive.NilObjectID, "", fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID in token")
	}
	return id, claims.Role, nil
}

func groupParam(ctx *fiber.Ctx) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return primitive.NilObjectID, fiber.NewError(fiber.StatusBadRequest, "Invalid group ID")
	}
	return id, nil
}

// CreateGroup godoc
// @Summary Create a group
// @Tags groups
// @Accept json
// @Produce json
// @Success 201 {object} Group
// @Router /api/groups [post]
func (c *GroupController) CreateGroup(ctx *fiber.Ctx) error {
	actor, _, err := actorID(ctx)
	if err != nil {
		return err
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	group, err := c.Service.CreateGroup(ctx.UserContext(), actor, body.Name)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(group)
}

// ListGroups godoc
// @Summary List groups the caller belongs to (all groups for the system owner)
// @Tags groups
// @Produce json
// @Success 200 {array} Group
// @Router /api/groups [get]
func (c *GroupController) ListGroups(ctx *fiber.Ctx) error {
	actor, role, err := actorID(ctx)
	if err != nil {
		return err
	}

	groups, err := c.Service.ListGroups(ctx.UserContext(), actor, role)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(groups)
}

// GetGroup godoc
// @Summary Get a group by ID
// @Tags groups
// @Produce json
// @Success 200 {object} Group
// @Router /api/groups/{id} [get]
func (c *GroupController) GetGroup(ctx *fiber.Ctx) error {
	actor, _, err := actorID(ctx)
	if err != nil {
		return err
	}
	groupID, err := groupParam(ctx)
	if err != nil {
		return err
	}

	group, err := c.Service.GetGroup(ctx.UserContext(), actor, groupID)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(group)
}

// Join godoc
// @Summary Send a join request to a group
// @Tags groups
// @Produce json
// @Success 201 {object} GroupRequest
// @Router /api/groups/{id}/join [post]
func (c *GroupController) Join(ctx *fiber.Ctx) error {
	actor, _, err := actorID(ctx)
	if err != nil {
		return err
	}
	groupID, err := groupParam(ctx)
	if err != nil {
		return err
	}

	request, err := c.Service.RequestJoin(ctx.UserContext(), actor, groupID)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Join request sent, awaiting approval",
		"request": request,
	})
}

// Leave godoc
// @Summary Leave a group
// @Tags groups
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/groups/{id}/leave [post]
func (c *GroupController) Leave(ctx *fiber.Ctx) error {
	actor, _, err := actorID(ctx)
	if err != nil {
		return err
	}
	groupID, err := groupParam(ctx)
	if err != nil {
		return err
	}

	group, err := c.Service.Leave(ctx.UserContext(), actor, groupID)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	if group == nil {
		return ctx.JSON(fiber.Map{"message": "Group deleted: no members remain"})
	}
	return ctx.JSON(group)
}

// AddAdmin godoc
// @Summary Promote a member to admin (group owner only)
// @Tags groups
// @Accept json
// @Produce json
// @Success 200 {object} Group
// @Router /api/groups/{id}/admins [post]
func (c *GroupController) AddAdmin(ctx *fiber.Ctx) error {
	actor, _, err := actorID(ctx)
	if err != nil {
		return err
	}
	groupID, err := groupParam(ctx)
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

	group, err := c.Service.PromoteAdmin(ctx.UserContext(), actor, groupID, target)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(group)
}

// RemoveAdmin godoc
// @Summary Demote an admin (group owner only)
// @Tags groups
// @Produce json
// @Success 200 {object} Group
// @Router /api/groups/{id}/admins/{userId} [delete]
func (c *GroupController) RemoveAdmin(ctx *fiber.Ctx) error {
	actor, _, err := actorID(ctx)
	if err != nil {
		return err
	}
	groupID, err := groupParam(ctx)
	if err != nil {
		return err
	}
	target, err := primitive.ObjectIDFromHex(ctx.Params("userId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	group, err := c.Service.DemoteAdmin(ctx.UserContext(), actor, groupID, target)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(group)
}

// Kick godoc
// @Summary Kick a member (group owner or admin)
// @Tags groups
// @Accept json
// @Produce json
// @Success 200 {object} Group
// @Router /api/groups/{id}/kick [post]
func (c *GroupController) Kick(ctx *fiber.Ctx) error {
	actor, _, err := actorID(ctx)
	if err != nil {
		return err
	}
	groupID, err := groupParam(ctx)
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

	group, err := c.Service.Kick(ctx.UserContext(), actor, groupID, target)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(group)
}

// ListRequests godoc
// @Summary List pending join requests (group owner or admin)
// @Tags groups
// @Produce json
// @Success 200 {array} GroupRequest
// @Router /api/groups/{id}/requests [get]
func (c *GroupController) ListRequests(ctx *fiber.Ctx) error {
	actor, _, err := actorID(ctx)
	if err != nil {
		return err
	}
	groupID, err := groupParam(ctx)
	if err != nil {
		return err
	}

	requests, err := c.Service.ListRequests(ctx.UserContext(), actor, groupID)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(requests)
}

// ApproveRequest godoc
// @Summary Approve a join request (group owner or admin)
// @Tags groups
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/groups/{id}/requests/{requestId}/approve [put]
func (c *GroupController) ApproveRequest(ctx *fiber.Ctx) error {
	actor, _, err := actorID(ctx)
	if err != nil {
		return err
	}
	groupID, err := groupParam(ctx)
	if err != nil {
		return err
	}
	requestID, err := primitive.ObjectIDFromHex(ctx.Params("requestId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID"})
	}

	if err := c.Service.ApproveRequest(ctx.UserContext(), actor, groupID, requestID); err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Join request approved"})
}

// RejectRequest godoc
// @Summary Reject a join request (group owner or admin)
// @Tags groups
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/groups/{id}/requests/{requestId}/reject [put]
func (c *GroupController) RejectRequest(ctx *fiber.Ctx) error {
	actor, _, err := actorID(ctx)
	if err != nil {
		return err
	}
	groupID, err := groupParam(ctx)
	if err != nil {
		return err
	}
	requestID, err := primitive.ObjectIDFromHex(ctx.Params("requestId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID"})
	}

	if err := c.Service.RejectRequest(ctx.UserContext(), actor, groupID, requestID); err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Join request rejected"})
}

// Dissolve godoc
// @Summary Dissolve a group (group owner or system owner)
// @Tags groups
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/groups/{id} [delete]
func (c *GroupController) Dissolve(ctx *fiber.Ctx) error {
	actor, role, err := actorID(ctx)
	if err != nil {
		return err
	}
	groupID, err := groupParam(ctx)
	if err != nil {
		return err
	}

	if err := c.Service.Dissolve(ctx.UserContext(), actor, role, groupID); err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Group dissolved"})
}
