package group

import (
	"context"
	"errors"
	"time"

	"go-chat/internal/common/apperr"
	"go-chat/internal/features/authz"
	"go-chat/internal/features/realtime"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// BanList is the slice of the blacklist feature this service consults.
// Wired via an adapter in main to avoid an import cycle.
type BanList interface {
	IsBanned(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
	PurgeGroup(ctx context.Context, groupID primitive.ObjectID) error
}

// MessagePurger deletes a group's messages during dissolve.
type MessagePurger interface {
	PurgeGroup(ctx context.Context, groupID primitive.ObjectID) error
}

type GroupService interface {
	CreateGroup(ctx context.Context, creator primitive.ObjectID, name string) (*Group, error)
	ListGroups(ctx context.Context, userID primitive.ObjectID, role string) ([]Group, error)
	GetGroup(ctx context.Context, userID, groupID primitive.ObjectID) (*Group, error)
	RequestJoin(ctx context.Context, userID, groupID primitive.ObjectID) (*GroupRequest, error)
	Leave(ctx context.Context, userID, groupID primitive.ObjectID) (*Group, error)
	PromoteAdmin(ctx context.Context, actor, groupID, target primitive.ObjectID) (*Group, error)
	DemoteAdmin(ctx context.Context, actor, groupID, target primitive.ObjectID) (*Group, error)
	Kick(ctx context.Context, actor, groupID, target primitive.ObjectID) (*Group, error)
	ListRequests(ctx context.Context, actor, groupID primitive.ObjectID) ([]GroupRequest, error)
	ApproveRequest(ctx context.Context, actor, groupID, requestID primitive.ObjectID) error
	RejectRequest(ctx context.Context, actor, groupID, requestID primitive.ObjectID) error
	Dissolve(ctx context.Context, actor primitive.ObjectID, actorRole string, groupID primitive.ObjectID) error
}

const storeTimeout = 10 * time.Second

type GroupServiceImpl struct {
	repo        GroupRepository
	requests    RequestRepository
	bans        BanList
	messages    MessagePurger
	broadcaster realtime.Broadcaster
	locks       *LockMap
	log         *zap.Logger
}

func NewGroupService(
	repo GroupRepository,
	requests RequestRepository,
	bans BanList,
	messages MessagePurger,
	broadcaster realtime.Broadcaster,
	locks *LockMap,
	log *zap.Logger,
) GroupService {
	return &GroupServiceImpl{
		repo:        repo,
		requests:    requests,
		bans:        bans,
		messages:    messages,
		broadcaster: broadcaster,
		locks:       locks,
		log:         log,
	}
}

func (s *GroupServiceImpl) CreateGroup(ctx context.Context, creator primitive.ObjectID, name string) (*Group, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if name == "" {
		return nil, apperr.BadRequest("group name is required")
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, apperr.Conflict("a group named %q already exists", name)
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	group := &Group{
		Name:    name,
		Owner:   creator,
		Admins:  []primitive.ObjectID{creator},
		Members: []primitive.ObjectID{creator},
	}

	if err := s.repo.Create(ctx, group); err != nil {
		return nil, err
	}

	s.log.Info("group created",
		zap.String("group_id", group.ID.Hex()),
		zap.String("actor", creator.Hex()),
		zap.String("name", name))
	return group, nil
}

// ListGroups returns every group for a system owner, otherwise the
// caller's own groups.
func (s *GroupServiceImpl) ListGroups(ctx context.Context, userID primitive.ObjectID, role string) ([]Group, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if role == authz.RoleOwner {
		return s.repo.FindAll(ctx)
	}
	return s.repo.FindByMember(ctx, userID)
}

func (s *GroupServiceImpl) GetGroup(ctx context.Context, userID, groupID primitive.ObjectID) (*Group, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(userID) {
		return nil, apperr.Forbidden("not a member of this group")
	}
	return group, nil
}

// RequestJoin creates a pending join request. Membership, blacklist and
// duplicate-request checks run under the group lock so concurrent joins
// cannot slip through.
func (s *GroupServiceImpl) RequestJoin(ctx context.Context, userID, groupID primitive.ObjectID) (*GroupRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	unlock := s.locks.Lock(groupID.Hex())
	defer unlock()

	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.IsMember(userID) {
		return nil, apperr.Conflict("already a member of this group")
	}

	banned, err := s.bans.IsBanned(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if banned {
		return nil, apperr.Forbidden("you are banned from this group")
	}

	if _, err := s.requests.FindPending(ctx, groupID, userID); err == nil {
		return nil, apperr.Conflict("a join request for this group is already pending")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	request := &GroupRequest{
		Group:  groupID,
		User:   userID,
		Status: RequestPending,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// Leave removes the user; if the owner leaves, ownership passes to the
// first remaining admin, else the first remaining member (promoted to
// admin), else the group is dissolved.
func (s *GroupServiceImpl) Leave(ctx context.Context, userID, groupID primitive.ObjectID) (*Group, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	unlock := s.locks.Lock(groupID.Hex())
	defer unlock()

	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(userID) {
		return nil, apperr.BadRequest("not a member of this group")
	}

	group.Members = removeID(group.Members, userID)
	group.Admins = removeID(group.Admins, userID)

	if group.Owner == userID {
		switch {
		case len(group.Admins) > 0:
			group.Owner = group.Admins[0]
		case len(group.Members) > 0:
			group.Owner = group.Members[0]
			group.Admins = append(group.Admins, group.Members[0])
		default:
			// Last member left: the group goes away with its dependents.
			if err := s.cascadeDelete(ctx, group); err != nil {
				return nil, err
			}
			s.log.Info("group deleted after last member left",
				zap.String("group_id", groupID.Hex()),
				zap.String("actor", userID.Hex()))
			return nil, nil
		}
	}

	if err := s.repo.Replace(ctx, group); err != nil {
		return nil, err
	}

	s.broadcaster.Publish(groupID.Hex(), realtime.EventMemberLeft, &MemberEvent{Group: group, UserID: userID.Hex()})
	return group, nil
}

func (s *GroupServiceImpl) PromoteAdmin(ctx context.Context, actor, groupID, target primitive.ObjectID) (*Group, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	unlock := s.locks.Lock(groupID.Hex())
	defer unlock()

	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Owner != actor {
		return nil, apperr.Forbidden("only the group owner may add admins")
	}
	if !group.IsMember(target) {
		return nil, apperr.BadRequest("user is not a member of this group")
	}
	if group.IsAdmin(target) {
		return nil, apperr.BadRequest("user is already an admin")
	}

	group.Admins = append(group.Admins, target)
	if err := s.repo.Replace(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupServiceImpl) DemoteAdmin(ctx context.Context, actor, groupID, target primitive.ObjectID) (*Group, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	unlock := s.locks.Lock(groupID.Hex())
	defer unlock()

	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Owner != actor {
		return nil, apperr.Forbidden("only the group owner may remove admins")
	}
	if !group.IsAdmin(target) {
		return nil, apperr.BadRequest("user is not an admin")
	}

	group.Admins = removeID(group.Admins, target)
	if err := s.repo.Replace(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupServiceImpl) Kick(ctx context.Context, actor, groupID, target primitive.ObjectID) (*Group, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	unlock := s.locks.Lock(groupID.Hex())
	defer unlock()

	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.CanModerate(actor) {
		return nil, apperr.Forbidden("only the group owner or an admin may kick members")
	}
	if target == actor {
		return nil, apperr.BadRequest("cannot kick yourself; leave the group instead")
	}
	if target == group.Owner {
		return nil, apperr.Forbidden("cannot kick the group owner")
	}
	if !group.IsMember(target) {
		return nil, apperr.BadRequest("user is not a member of this group")
	}

	group.Members = removeID(group.Members, target)
	group.Admins = removeID(group.Admins, target)
	if err := s.repo.Replace(ctx, group); err != nil {
		return nil, err
	}

	s.log.Info("member kicked",
		zap.String("group_id", groupID.Hex()),
		zap.String("actor", actor.Hex()),
		zap.String("target", target.Hex()))
	s.broadcaster.Publish(groupID.Hex(), realtime.EventMemberKicked, &MemberEvent{Group: group, UserID: target.Hex()})
	return group, nil
}

func (s *GroupServiceImpl) ListRequests(ctx context.Context, actor, groupID primitive.ObjectID) ([]GroupRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.CanModerate(actor) {
		return nil, apperr.Forbidden("only the group owner or an admin may view join requests")
	}
	return s.requests.FindPendingByGroup(ctx, groupID)
}

// ApproveRequest admits the requester. The blacklist is consulted again
// here: state may have changed since the request was created.
func (s *GroupServiceImpl) ApproveRequest(ctx context.Context, actor, groupID, requestID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	unlock := s.locks.Lock(groupID.Hex())
	defer unlock()

	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.CanModerate(actor) {
		return apperr.Forbidden("only the group owner or an admin may approve join requests")
	}

	request, err := s.findRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.Group != groupID {
		return apperr.BadRequest("request does not belong to this group")
	}
	if request.Status != RequestPending {
		return apperr.Conflict("request has already been processed")
	}
	if group.IsMember(request.User) {
		return apperr.Conflict("user is already a member of this group")
	}

	banned, err := s.bans.IsBanned(ctx, groupID, request.User)
	if err != nil {
		return err
	}
	if banned {
		return apperr.Forbidden("user is banned from this group")
	}

	if err := s.repo.AddMember(ctx, groupID, request.User); err != nil {
		return err
	}
	if err := s.requests.UpdateStatus(ctx, requestID, RequestApproved); err != nil {
		return err
	}

	group.Members = append(group.Members, request.User)
	s.log.Info("join request approved",
		zap.String("group_id", groupID.Hex()),
		zap.String("actor", actor.Hex()),
		zap.String("user_id", request.User.Hex()))
	s.broadcaster.Publish(groupID.Hex(), realtime.EventMemberJoined, &MemberEvent{Group: group, UserID: request.User.Hex()})
	return nil
}

func (s *GroupServiceImpl) RejectRequest(ctx context.Context, actor, groupID, requestID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	unlock := s.locks.Lock(groupID.Hex())
	defer unlock()

	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.CanModerate(actor) {
		return apperr.Forbidden("only the group owner or an admin may reject join requests")
	}

	request, err := s.findRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.Group != groupID {
		return apperr.BadRequest("request does not belong to this group")
	}
	if request.Status != RequestPending {
		return apperr.Conflict("request has already been processed")
	}

	return s.requests.UpdateStatus(ctx, requestID, RequestRejected)
}

// Dissolve deletes the group and everything hanging off it. Allowed for
// the group's owner and for a system-level owner.
func (s *GroupServiceImpl) Dissolve(ctx context.Context, actor primitive.ObjectID, actorRole string, groupID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	unlock := s.locks.Lock(groupID.Hex())
	defer unlock()

	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.Owner != actor && actorRole != authz.RoleOwner {
		return apperr.Forbidden("only the group owner or a system owner may dissolve a group")
	}

	if err := s.cascadeDelete(ctx, group); err != nil {
		return err
	}
	s.log.Info("group dissolved",
		zap.String("group_id", groupID.Hex()),
		zap.String("actor", actor.Hex()))
	return nil
}

// cascadeDelete runs messages -> requests -> blacklist -> group, in that
// order. Each step is idempotent, so a retry after a mid-sequence failure
// re-runs the remaining deletions; the group document goes last so the
// cascade can always be resumed.
func (s *GroupServiceImpl) cascadeDelete(ctx context.Context, group *Group) error {
	if err := s.messages.PurgeGroup(ctx, group.ID); err != nil {
		return err
	}
	if err := s.requests.DeleteByGroup(ctx, group.ID); err != nil {
		return err
	}
	if err := s.bans.PurgeGroup(ctx, group.ID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, group.ID); err != nil {
		return err
	}
	s.locks.Forget(group.ID.Hex())
	return nil
}

func (s *GroupServiceImpl) findGroup(ctx context.Context, id primitive.ObjectID) (*Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("group not found")
	}
	return group, err
}

func (s *GroupServiceImpl) findRequest(ctx context.Context, id primitive.ObjectID) (*GroupRequest, error) {
	request, err := s.requests.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("request not found")
	}
	return request, err
}
