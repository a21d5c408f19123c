package blacklist

import (
	"context"
	"errors"
	"time"

	"go-chat/internal/common/apperr"
	"go-chat/internal/features/group"
	"go-chat/internal/features/realtime"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type BlacklistService interface {
	Ban(ctx context.Context, actor, groupID, target primitive.ObjectID) (*Entry, error)
	Unban(ctx context.Context, actor, groupID, target primitive.ObjectID) error
	List(ctx context.Context, actor, groupID primitive.ObjectID) ([]Entry, error)

	// Consulted by the membership side on join and approval paths.
	IsBanned(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
	PurgeGroup(ctx context.Context, groupID primitive.ObjectID) error
}

const storeTimeout = 10 * time.Second

type BlacklistServiceImpl struct {
	repo        BlacklistRepository
	groups      group.GroupRepository
	locks       *group.LockMap
	broadcaster realtime.Broadcaster
	log         *zap.Logger
}

func NewBlacklistService(
	repo BlacklistRepository,
	groups group.GroupRepository,
	locks *group.LockMap,
	broadcaster realtime.Broadcaster,
	log *zap.Logger,
) BlacklistService {
	return &BlacklistServiceImpl{
		repo:        repo,
		groups:      groups,
		locks:       locks,
		broadcaster: broadcaster,
		log:         log,
	}
}

// Ban blacklists a user. A banned member is evicted from the membership
// and admin sets in the same locked sequence, an implicit kick.
func (s *BlacklistServiceImpl) Ban(ctx context.Context, actor, groupID, target primitive.ObjectID) (*Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	unlock := s.locks.Lock(groupID.Hex())
	defer unlock()

	g, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.CanModerate(actor) {
		return nil, apperr.Forbidden("only the group owner or an admin may ban users")
	}
	if target == g.Owner {
		return nil, apperr.Forbidden("cannot ban the group owner")
	}

	banned, err := s.repo.Exists(ctx, groupID, target)
	if err != nil {
		return nil, err
	}
	if banned {
		return nil, apperr.Conflict("user is already banned")
	}

	// Eviction first: a user must never be both member and banned.
	if g.IsMember(target) {
		evicted := *g
		evicted.Members = removeID(evicted.Members, target)
		evicted.Admins = removeID(evicted.Admins, target)
		if err := s.groups.Replace(ctx, &evicted); err != nil {
			return nil, err
		}
		s.broadcaster.Publish(groupID.Hex(), realtime.EventMemberKicked,
			&group.MemberEvent{Group: &evicted, UserID: target.Hex()})
	}

	entry := &Entry{Group: groupID, User: target}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.log.Info("user banned",
		zap.String("group_id", groupID.Hex()),
		zap.String("actor", actor.Hex()),
		zap.String("target", target.Hex()))
	return entry, nil
}

func (s *BlacklistServiceImpl) Unban(ctx context.Context, actor, groupID, target primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	unlock := s.locks.Lock(groupID.Hex())
	defer unlock()

	g, err := s.findGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.CanModerate(actor) {
		return apperr.Forbidden("only the group owner or an admin may unban users")
	}

	deleted, err := s.repo.Delete(ctx, groupID, target)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.BadRequest("user is not banned")
	}

	s.log.Info("user unbanned",
		zap.String("group_id", groupID.Hex()),
		zap.String("actor", actor.Hex()),
		zap.String("target", target.Hex()))
	return nil
}

func (s *BlacklistServiceImpl) List(ctx context.Context, actor, groupID primitive.ObjectID) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	g, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.CanModerate(actor) {
		return nil, apperr.Forbidden("only the group owner or an admin may view the blacklist")
	}
	return s.repo.FindByGroup(ctx, groupID)
}

func (s *BlacklistServiceImpl) IsBanned(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	return s.repo.Exists(ctx, groupID, userID)
}

func (s *BlacklistServiceImpl) PurgeGroup(ctx context.Context, groupID primitive.ObjectID) error {
	return s.repo.DeleteByGroup(ctx, groupID)
}

func (s *BlacklistServiceImpl) findGroup(ctx context.Context, id primitive.ObjectID) (*group.Group, error) {
	g, err := s.groups.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("group not found")
	}
	return g, err
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
