package message

import (
	"mime/multipart"
	"time"

	"go-chat/internal/common/apperr"
	"go-chat/internal/features/storage"
	"go-chat/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageController struct {
	service MessageService
	store   storage.FileStore
}

func NewMessageController(service MessageService, store storage.FileStore) *MessageController {
	return &MessageController{service: service, store: store}
}

type sendMessageRequest struct {
	Content string `json:"content"`
	ReplyTo string `json:"reply_to,omitempty"`
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

func objectIDParam(ctx *fiber.Ctx, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(ctx.Params(name))
	if err != nil {
		return primitive.NilObjectID, apperr.BadRequest("invalid %s", name)
	}
	return id, nil
}

// ListMessages godoc
// @Summary      List group messages
// @Description  Returns the full message history of a group, oldest first. Members only.
// @Tags         Messages
// @Produce      json
// @Param        groupId  path  string  true  "Group ID"
// @Success      200  {array}  message.Message
// @Router       /api/messages/{groupId} [get]
func (mc *MessageController) ListMessages(ctx *fiber.Ctx) error {
	actor, err := actorID(ctx)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	groupID, err := objectIDParam(ctx, "groupId")
	if err != nil {
		return apperr.Respond(ctx, err)
	}

	messages, err := mc.service.List(ctx.UserContext(), actor, groupID)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(messages)
}

// SendMessage godoc
// @Summary      Send a text message
// @Description  Sends a message to a group the caller belongs to. reply_to, when set, must reference a message in the same group.
// @Tags         Messages
// @Accept       json
// @Produce      json
// @Param        groupId  path  string              true  "Group ID"
// @Param        body     body  sendMessageRequest  true  "Message"
// @Success      201  {object}  message.Message
// @Router       /api/messages/{groupId} [post]
func (mc *MessageController) SendMessage(ctx *fiber.Ctx) error {
	actor, err := actorID(ctx)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	groupID, err := objectIDParam(ctx, "groupId")
	if err != nil {
		return apperr.Respond(ctx, err)
	}

	var req sendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Respond(ctx, apperr.BadRequest("invalid request body"))
	}

	var replyTo *primitive.ObjectID
	if req.ReplyTo != "" {
		id, err := primitive.ObjectIDFromHex(req.ReplyTo)
		if err != nil {
			return apperr.Respond(ctx, apperr.BadRequest("invalid reply_to"))
		}
		replyTo = &id
	}

	msg, err := mc.service.Send(ctx.UserContext(), actor, groupID, req.Content, replyTo)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(msg)
}

// UploadFiles godoc
// @Summary      Send file messages
// @Description  Uploads one or more files to a group; each file becomes its own message.
// @Tags         Messages
// @Accept       multipart/form-data
// @Produce      json
// @Param        groupId  path      string  true  "Group ID"
// @Param        files    formData  file    true  "Files to upload"
// @Success      201  {array}  message.Message
// @Router       /api/messages/{groupId}/files [post]
func (mc *MessageController) UploadFiles(ctx *fiber.Ctx) error {
	actor, err := actorID(ctx)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	groupID, err := objectIDParam(ctx, "groupId")
	if err != nil {
		return apperr.Respond(ctx, err)
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return apperr.Respond(ctx, apperr.BadRequest("invalid multipart form"))
	}
	files := form.File["files"]
	if len(files) == 0 {
		return apperr.Respond(ctx, apperr.BadRequest("no files provided"))
	}

	sent := make([]*Message, 0, len(files))
	for _, header := range files {
		msg, err := mc.storeAndSend(ctx, actor, groupID, header)
		if err != nil {
			return apperr.Respond(ctx, err)
		}
		sent = append(sent, msg)
	}
	return ctx.Status(fiber.StatusCreated).JSON(sent)
}

func (mc *MessageController) storeAndSend(ctx *fiber.Ctx, actor, groupID primitive.ObjectID, header *multipart.FileHeader) (*Message, error) {
	src, err := header.Open()
	if err != nil {
		return nil, apperr.BadRequest("cannot read uploaded file %s", header.Filename)
	}
	defer src.Close()

	stored, err := mc.store.Save(src, header.Filename, header.Header.Get("Content-Type"), header.Size)
	if err != nil {
		return nil, err
	}
	return mc.service.SendFile(ctx.UserContext(), actor, groupID, stored)
}

// DeleteMessage godoc
// @Summary      Delete a message
// @Description  Removes a message. Allowed for the sender, the group owner, and group admins.
// @Tags         Messages
// @Produce      json
// @Param        messageId  path  string  true  "Message ID"
// @Success      200  {object}  map[string]string
// @Router       /api/messages/{messageId} [delete]
func (mc *MessageController) DeleteMessage(ctx *fiber.Ctx) error {
	actor, err := actorID(ctx)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	messageID, err := objectIDParam(ctx, "messageId")
	if err != nil {
		return apperr.Respond(ctx, err)
	}

	if err := mc.service.Delete(ctx.UserContext(), actor, messageID); err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Message deleted"})
}

// MarkRead godoc
// @Summary      Mark a message as read
// @Description  Records a read receipt for the caller. Idempotent; only users in the message's recipient snapshot may call it.
// @Tags         Messages
// @Produce      json
// @Param        messageId  path  string  true  "Message ID"
// @Success      200  {object}  message.Message
// @Router       /api/messages/{messageId}/read [put]
func (mc *MessageController) MarkRead(ctx *fiber.Ctx) error {
	actor, err := actorID(ctx)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	messageID, err := objectIDParam(ctx, "messageId")
	if err != nil {
		return apperr.Respond(ctx, err)
	}

	msg, err := mc.service.MarkRead(ctx.UserContext(), actor, messageID)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(msg)
}

// MarkAllRead godoc
// @Summary      Mark all group messages as read
// @Tags         Messages
// @Produce      json
// @Param        groupId  path  string  true  "Group ID"
// @Success      200  {object}  map[string]string
// @Router       /api/messages/{groupId}/read-all [put]
func (mc *MessageController) MarkAllRead(ctx *fiber.Ctx) error {
	actor, err := actorID(ctx)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	groupID, err := objectIDParam(ctx, "groupId")
	if err != nil {
		return apperr.Respond(ctx, err)
	}

	if err := mc.service.MarkAllRead(ctx.UserContext(), actor, groupID); err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "All messages marked as read"})
}

// SearchMessages godoc
// @Summary      Search group messages
// @Description  Filters a group's messages by keyword and an optional RFC3339 time window.
// @Tags         Messages
// @Produce      json
// @Param        groupId  path   string  true   "Group ID"
// @Param        keyword  query  string  false  "Case-insensitive content match"
// @Param        start    query  string  false  "Window start (RFC3339)"
// @Param        end      query  string  false  "Window end (RFC3339)"
// @Success      200  {array}  message.Message
// @Router       /api/messages/{groupId}/search [get]
func (mc *MessageController) SearchMessages(ctx *fiber.Ctx) error {
	actor, err := actorID(ctx)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	groupID, err := objectIDParam(ctx, "groupId")
	if err != nil {
		return apperr.Respond(ctx, err)
	}

	query := SearchQuery{Keyword: ctx.Query("keyword")}
	if raw := ctx.Query("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperr.Respond(ctx, apperr.BadRequest("invalid start time"))
		}
		query.Start = &t
	}
	if raw := ctx.Query("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperr.Respond(ctx, apperr.BadRequest("invalid end time"))
		}
		query.End = &t
	}

	messages, err := mc.service.Search(ctx.UserContext(), actor, groupID, query)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	return ctx.JSON(messages)
}

// ExportMessages godoc
// @Summary      Export group messages as a spreadsheet
// @Description  Streams the group's message history as an xlsx workbook. Group owner and admins only.
// @Tags         Messages
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        groupId  path  string  true  "Group ID"
// @Success      200  {file}  binary
// @Router       /api/messages/{groupId}/export [get]
func (mc *MessageController) ExportMessages(ctx *fiber.Ctx) error {
	actor, err := actorID(ctx)
	if err != nil {
		return apperr.Respond(ctx, err)
	}
	groupID, err := objectIDParam(ctx, "groupId")
	if err != nil {
		return apperr.Respond(ctx, err)
	}

	buf, err := mc.service.ExportGroup(ctx.UserContext(), actor, groupID)
	if err != nil {
		return apperr.Respond(ctx, err)
	}

	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="messages.xlsx"`)
	return ctx.Send(buf.Bytes())
}
