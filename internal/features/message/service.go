package message

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"path"
	"time"

	"go-chat/internal/common/apperr"
	"go-chat/internal/features/group"
	"go-chat/internal/features/realtime"
	"go-chat/internal/features/storage"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const storeTimeout = 10 * time.Second

// DeletedEvent is the message-deleted fan-out payload.
type DeletedEvent struct {
	MessageID string `json:"message_id"`
	GroupID   string `json:"group_id"`
}

type MessageService interface {
	List(ctx context.Context, actor, groupID primitive.ObjectID) ([]Message, error)
	Send(ctx context.Context, actor, groupID primitive.ObjectID, content string, replyTo *primitive.ObjectID) (*Message, error)
	SendFile(ctx context.Context, actor, groupID primitive.ObjectID, file *storage.StoredFile) (*Message, error)
	Delete(ctx context.Context, actor, messageID primitive.ObjectID) error
	MarkRead(ctx context.Context, actor, messageID primitive.ObjectID) (*Message, error)
	MarkAllRead(ctx context.Context, actor, groupID primitive.ObjectID) error
	Search(ctx context.Context, actor, groupID primitive.ObjectID, query SearchQuery) ([]Message, error)
	ExportGroup(ctx context.Context, actor, groupID primitive.ObjectID) (*bytes.Buffer, error)

	// PurgeGroup backs the dissolve cascade.
	PurgeGroup(ctx context.Context, groupID primitive.ObjectID) error
}

type MessageServiceImpl struct {
	repo        MessageRepository
	groups      group.GroupRepository
	store       storage.FileStore
	broadcaster realtime.Broadcaster
	log         *zap.Logger
}

func NewMessageService(
	repo MessageRepository,
	groups group.GroupRepository,
	store storage.FileStore,
	broadcaster realtime.Broadcaster,
	log *zap.Logger,
) MessageService {
	return &MessageServiceImpl{
		repo:        repo,
		groups:      groups,
		store:       store,
		broadcaster: broadcaster,
		log:         log,
	}
}

func (s *MessageServiceImpl) List(ctx context.Context, actor, groupID primitive.ObjectID) ([]Message, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if _, err := s.memberGroup(ctx, actor, groupID); err != nil {
		return nil, err
	}
	return s.repo.FindByGroup(ctx, groupID)
}

// Send persists a text message. Content is escaped against markup
// injection before it is stored; the read ledger is seeded with the
// group's membership as of right now, sender pre-marked read.
func (s *MessageServiceImpl) Send(ctx context.Context, actor, groupID primitive.ObjectID, content string, replyTo *primitive.ObjectID) (*Message, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	g, err := s.memberGroup(ctx, actor, groupID)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, apperr.BadRequest("message content is required")
	}

	if replyTo != nil {
		parent, err := s.repo.FindByID(ctx, *replyTo)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.BadRequest("replied-to message does not exist")
		}
		if err != nil {
			return nil, err
		}
		if parent.Group != groupID {
			return nil, apperr.BadRequest("cannot reply to a message from another group")
		}
	}

	message := &Message{
		Sender:     actor,
		Group:      groupID,
		Content:    html.EscapeString(content),
		ReplyTo:    replyTo,
		ReadStatus: seedReadStatus(g.Members, actor),
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, err
	}

	s.broadcaster.Publish(groupID.Hex(), realtime.EventMessageCreated, message)
	return message, nil
}

// SendFile persists a file message. The attachment was already handed to
// the file store; if the message cannot be persisted the stored file is
// deleted best-effort so no orphan remains.
func (s *MessageServiceImpl) SendFile(ctx context.Context, actor, groupID primitive.ObjectID, file *storage.StoredFile) (*Message, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	g, err := s.memberGroup(ctx, actor, groupID)
	if err != nil {
		s.discard(file)
		return nil, err
	}

	message := &Message{
		Sender:     actor,
		Group:      groupID,
		Content:    "[file] " + file.OriginalName,
		FileURL:    file.URL,
		FileName:   file.OriginalName,
		FileSize:   file.Size,
		FileType:   file.MimeType,
		ReadStatus: seedReadStatus(g.Members, actor),
	}
	if err := s.repo.Create(ctx, message); err != nil {
		s.discard(file)
		return nil, err
	}

	s.broadcaster.Publish(groupID.Hex(), realtime.EventMessageCreated, message)
	return message, nil
}

// Delete hard-deletes a message. Replies that referenced it are left in
// place; rendering the gap is the consumer's concern.
func (s *MessageServiceImpl) Delete(ctx context.Context, actor, messageID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	message, err := s.findMessage(ctx, messageID)
	if err != nil {
		return err
	}

	g, err := s.groups.FindByID(ctx, message.Group)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound("group not found")
	}
	if err != nil {
		return err
	}

	if !g.CanModerate(actor) && message.Sender != actor {
		return apperr.Forbidden("only the group owner, an admin, or the sender may delete a message")
	}

	if err := s.repo.Delete(ctx, messageID); err != nil {
		return err
	}
	if message.FileURL != "" {
		// Best-effort collaborator delete; never fails the operation.
		_ = s.store.Delete(path.Base(message.FileURL))
	}

	s.log.Info("message deleted",
		zap.String("message_id", messageID.Hex()),
		zap.String("group_id", message.Group.Hex()),
		zap.String("actor", actor.Hex()))
	s.broadcaster.Publish(message.Group.Hex(), realtime.EventMessageDeleted,
		&DeletedEvent{MessageID: messageID.Hex(), GroupID: message.Group.Hex()})
	return nil
}

// MarkRead is idempotent. Users outside the send-time snapshot are
// rejected: late joiners never appear in a message's ledger.
func (s *MessageServiceImpl) MarkRead(ctx context.Context, actor, messageID primitive.ObjectID) (*Message, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	message, err := s.findMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !message.InSnapshot(actor) {
		return nil, apperr.Forbidden("not a recipient of this message")
	}
	if message.ReadBy(actor) {
		return message, nil
	}

	now := time.Now()
	if err := s.repo.MarkRead(ctx, messageID, actor, now); err != nil {
		return nil, err
	}

	for i := range message.ReadStatus {
		if message.ReadStatus[i].UserID == actor {
			message.ReadStatus[i].Read = true
			message.ReadStatus[i].ReadAt = &now
		}
	}
	return message, nil
}

func (s *MessageServiceImpl) MarkAllRead(ctx context.Context, actor, groupID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if _, err := s.memberGroup(ctx, actor, groupID); err != nil {
		return err
	}
	return s.repo.MarkAllRead(ctx, groupID, actor, time.Now())
}

func (s *MessageServiceImpl) Search(ctx context.Context, actor, groupID primitive.ObjectID, query SearchQuery) ([]Message, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if _, err := s.memberGroup(ctx, actor, groupID); err != nil {
		return nil, err
	}
	return s.repo.Search(ctx, groupID, query)
}

// ExportGroup renders a group's full message history as a spreadsheet.
// Reserved to the group owner and admins.
func (s *MessageServiceImpl) ExportGroup(ctx context.Context, actor, groupID primitive.ObjectID) (*bytes.Buffer, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	g, err := s.groups.FindByID(ctx, groupID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("group not found")
	}
	if err != nil {
		return nil, err
	}
	if !g.CanModerate(actor) {
		return nil, apperr.Forbidden("only the group owner or an admin may export messages")
	}

	messages, err := s.repo.FindByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Messages"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})

	headers := []string{"Sent At", "Sender", "Content", "Attachment", "Read By"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for row, m := range messages {
		readCount := 0
		for _, r := range m.ReadStatus {
			if r.Read {
				readCount++
			}
		}
		values := []interface{}{
			m.CreatedAt.Format(time.RFC3339),
			m.Sender.Hex(),
			m.Content,
			m.FileName,
			fmt.Sprintf("%d/%d", readCount, len(m.ReadStatus)),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	return f.WriteToBuffer()
}

func (s *MessageServiceImpl) PurgeGroup(ctx context.Context, groupID primitive.ObjectID) error {
	return s.repo.DeleteByGroup(ctx, groupID)
}

func (s *MessageServiceImpl) memberGroup(ctx context.Context, actor, groupID primitive.ObjectID) (*group.Group, error) {
	g, err := s.groups.FindByID(ctx, groupID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("group not found")
	}
	if err != nil {
		return nil, err
	}
	if !g.IsMember(actor) {
		return nil, apperr.Forbidden("not a member of this group")
	}
	return g, nil
}

func (s *MessageServiceImpl) findMessage(ctx context.Context, id primitive.ObjectID) (*Message, error) {
	message, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("message not found")
	}
	return message, err
}

func (s *MessageServiceImpl) discard(file *storage.StoredFile) {
	if file == nil {
		return
	}
	if err := s.store.Delete(file.Locator); err != nil {
		s.log.Warn("failed to discard attachment", zap.String("locator", file.Locator), zap.Error(err))
	}
}

// seedReadStatus builds the send-time snapshot ledger, sender pre-read.
func seedReadStatus(members []primitive.ObjectID, sender primitive.ObjectID) []ReadReceipt {
	now := time.Now()
	receipts := make([]ReadReceipt, 0, len(members))
	for _, m := range members {
		r := ReadReceipt{UserID: m}
		if m == sender {
			r.Read = true
			r.ReadAt = &now
		}
		receipts = append(receipts, r)
	}
	return receipts
}
