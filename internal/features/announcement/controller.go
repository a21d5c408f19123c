package announcement

import (
	"go-chat/internal/common/apperr"
	"go-chat/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AnnouncementController struct {
	service AnnouncementService
}

func NewAnnouncementController(service AnnouncementService) *AnnouncementController {
	return &AnnouncementController{service: service}
}

type broadcastRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type inviteRequest struct {
	GroupID     string `json:"group_id"`
	RecipientID string `json:"recipient_id"`
}

type respondRequest struct {
	Accept bool `json:"accept"`
}

func actorID(ctx *fiber.Ctx) (primitive.ObjectID, error) {
	claims, ok := middleware.ClaimsFrom(ctx)
	if !ok {
		return primitive.NilObjectID, apperr.Forbidden("missing credentials")
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, apperr.BadRequest("invalid user id in token")
	}
	return id, nil
}

// Broadcast godoc
// @Summary      Broadcast a system announcement
// @Description  Delivers an announcement to the inbox of every registered user. Requires the manage_announcements permission.
// @Tags         Announcements
// @Accept       json
// @Produce      json
// @Param        body  body  broadcastRequest  true  "Announcement"
// @Success      201  {object}  map[string]interface{}
// @Router       /api/announcements [post]
func (ac *AnnouncementController) Broadcast(ctx *fiber.Ctx) error {
	actor, err := actorID(ctx)
	if err != nil {
		return apperr.Respond(ctx, err)
	}

	var req broadcastRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Respond(ctx, apperr.BadRequest("invalid request body"))
	}

	recipients, err := ac.service.Broadcast(ctx.UserContext(), actor, req.Title, req.Content)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Announcement sent",
		"recipients": recipients,
	})
}

// Invite godoc
// @Summary      Invite a user to a group
// @Description  Sends a group invitation to a user's inbox. The caller must be a member of the group.
// @Tags         Announcements
// @Accept       json
// @Produce      json
// @Param        body  body  inviteRequest  true  "Invitation"
// @Success      201  {object}  announcement.Announcement
// @Router       /api/announcements/invitations [post]
func (ac *AnnouncementController) Invite(ctx *fiber.Ctx) error {
	actor, err := actorID(ctx)
	if err != nil {
		return apperr.Respond(ctx, err)
	}

	var req inviteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Respond(ctx, apperr.BadRequest("invalid request body"))
	}
	groupID, err := primitive.ObjectIDFromHex(req.GroupID)
	if err != nil {
		return apperr.Respond(ctx, apperr.BadRequest("invalid group_id"))
	}
	recipient, err := primitive.ObjectIDFromHex(req.RecipientID)
	if err != nil {
		return apperr.Respond(ctx, apperr.BadRequest("invalid recipient_id"))
	}

	a, err := ac.service.Invite(ctx.UserContext(), actor, groupID, recipient)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(a)
}

// Inbox godoc
// @Summary      List my announcements
// @Tags         Announcements
// @Produce      json
// @Success      200  {array}  announcement.Announcement
// @Router       /api/announcements [get]
func (ac *AnnouncementController) Inbox(ctx *fiber.Ctx) error {
	actor, err := actorID(ctx)
	if err != nil {
		return apperr.Respond(ctx, err)
	}

	items, err := ac.service.Inbox(ctx.UserContext(), actor)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(items)
}

// MarkRead godoc
// @Summary      Mark an announcement as read
// @Tags         Announcements
// @Produce      json
// @Param        id  path  string  true  "Announcement ID"
// @Success      200  {object}  map[string]string
// @Router       /api/announcements/{id}/read [put]
func (ac *AnnouncementController) MarkRead(ctx *fiber.Ctx) error {
	actor, err := actorID(ctx)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	id, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return apperr.Respond(ctx, apperr.BadRequest("invalid id"))
	}

	if err := ac.service.MarkRead(ctx.UserContext(), actor, id); err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Announcement marked as read"})
}

// Respond godoc
// @Summary      Respond to a group invitation
// @Description  Accepts or rejects an invitation. Accepting files a pending join request for the group.
// @Tags         Announcements
// @Accept       json
// @Produce      json
// @Param        id    path  string          true  "Announcement ID"
// @Param        body  body  respondRequest  true  "Response"
// @Success      200  {object}  announcement.Announcement
// @Router       /api/announcements/{id}/respond [put]
func (ac *AnnouncementController) Respond(ctx *fiber.Ctx) error {
	actor, err := actorID(ctx)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	id, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return apperr.Respond(ctx, apperr.BadRequest("invalid id"))
	}

	var req respondRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Respond(ctx, apperr.BadRequest("invalid request body"))
	}

	a, err := ac.service.Respond(ctx.UserContext(), actor, id, req.Accept)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(a)
}
