package announcement

import (
	"context"
	"errors"
	"html"
	"time"

	"go-chat/internal/common/apperr"
	"go-chat/internal/features/group"
	"go-chat/internal/features/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const storeTimeout = 10 * time.Second

// JoinRequester files a membership request on behalf of a user who
// accepted an invitation. Satisfied by the group service.
type JoinRequester interface {
	RequestJoin(ctx context.Context, userID, groupID primitive.ObjectID) (*group.GroupRequest, error)
}

type AnnouncementService interface {
	Broadcast(ctx context.Context, sender primitive.ObjectID, title, content string) (int, error)
	Invite(ctx context.Context, sender, groupID, recipient primitive.ObjectID) (*Announcement, error)
	Inbox(ctx context.Context, actor primitive.ObjectID) ([]Announcement, error)
	MarkRead(ctx context.Context, actor, id primitive.ObjectID) error
	Respond(ctx context.Context, actor, id primitive.ObjectID, accept bool) (*Announcement, error)

	// PurgeGroup drops a dissolved group's invitations.
	PurgeGroup(ctx context.Context, groupID primitive.ObjectID) error
}

type AnnouncementServiceImpl struct {
	repo   AnnouncementRepository
	users  user.UserRepository
	groups group.GroupRepository
	joiner JoinRequester
	log    *zap.Logger
}

func NewAnnouncementService(
	repo AnnouncementRepository,
	users user.UserRepository,
	groups group.GroupRepository,
	joiner JoinRequester,
	log *zap.Logger,
) AnnouncementService {
	return &AnnouncementServiceImpl{
		repo:   repo,
		users:  users,
		groups: groups,
		joiner: joiner,
		log:    log,
	}
}

// Broadcast fans a system announcement out to every registered user.
// Returns the number of recipients.
func (s *AnnouncementServiceImpl) Broadcast(ctx context.Context, sender primitive.ObjectID, title, content string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if title == "" || content == "" {
		return 0, apperr.BadRequest("title and content are required")
	}

	ids, err := s.users.AllIDs(ctx)
	if err != nil {
		return 0, err
	}

	items := make([]Announcement, 0, len(ids))
	for _, id := range ids {
		items = append(items, Announcement{
			Type:      KindAnnouncement,
			Sender:    sender,
			Recipient: id,
			Title:     html.EscapeString(title),
			Content:   html.EscapeString(content),
			Status:    StatusUnread,
		})
	}
	if err := s.repo.CreateMany(ctx, items); err != nil {
		return 0, err
	}

	s.log.Info("announcement broadcast",
		zap.String("sender", sender.Hex()),
		zap.Int("recipients", len(items)))
	return len(items), nil
}

func (s *AnnouncementServiceImpl) Invite(ctx context.Context, sender, groupID, recipient primitive.ObjectID) (*Announcement, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	g, err := s.groups.FindByID(ctx, groupID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("group not found")
	}
	if err != nil {
		return nil, err
	}
	if !g.IsMember(sender) {
		return nil, apperr.Forbidden("only members may invite to a group")
	}
	if g.IsMember(recipient) {
		return nil, apperr.Conflict("user is already a member")
	}
	if _, err := s.users.FindByID(ctx, recipient); errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("user not found")
	} else if err != nil {
		return nil, err
	}

	a := &Announcement{
		Type:             KindInvitation,
		Sender:           sender,
		Recipient:        recipient,
		Group:            &groupID,
		Title:            "Group invitation",
		Content:          "You have been invited to join " + html.EscapeString(g.Name),
		Status:           StatusUnread,
		InvitationStatus: InvitationPending,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AnnouncementServiceImpl) Inbox(ctx context.Context, actor primitive.ObjectID) ([]Announcement, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return s.repo.FindByRecipient(ctx, actor)
}

func (s *AnnouncementServiceImpl) MarkRead(ctx context.Context, actor, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	a, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if a.Recipient != actor {
		return apperr.Forbidden("not the recipient of this announcement")
	}
	if a.Status != StatusUnread {
		return nil
	}
	return s.repo.UpdateStatus(ctx, id, StatusRead)
}

// Respond settles an invitation exactly once. Accepting files a pending
// join request rather than adding the user directly, so the group's
// moderators keep the final say.
func (s *AnnouncementServiceImpl) Respond(ctx context.Context, actor, id primitive.ObjectID, accept bool) (*Announcement, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Recipient != actor {
		return nil, apperr.Forbidden("not the recipient of this invitation")
	}
	if a.Type != KindInvitation {
		return nil, apperr.BadRequest("announcement is not an invitation")
	}
	if a.InvitationStatus != InvitationPending {
		return nil, apperr.Conflict("invitation already settled")
	}

	if accept {
		if a.Group == nil {
			return nil, apperr.BadRequest("invitation has no group")
		}
		if _, err := s.joiner.RequestJoin(ctx, actor, *a.Group); err != nil {
			return nil, err
		}
	}

	settled := InvitationRejected
	if accept {
		settled = InvitationAccepted
	}
	if err := s.repo.UpdateInvitation(ctx, id, settled); err != nil {
		return nil, err
	}

	a.InvitationStatus = settled
	a.Status = StatusResponded
	return a, nil
}

func (s *AnnouncementServiceImpl) PurgeGroup(ctx context.Context, groupID primitive.ObjectID) error {
	return s.repo.DeleteByGroup(ctx, groupID)
}

func (s *AnnouncementServiceImpl) find(ctx context.Context, id primitive.ObjectID) (*Announcement, error) {
	a, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("announcement not found")
	}
	return a, err
}
