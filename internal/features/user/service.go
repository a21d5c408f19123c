package user

import (
	"context"
	"errors"

	"go-chat/internal/common/apperr"
	"go-chat/internal/features/authz"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type UserService interface {
	GetUser(ctx context.Context, id primitive.ObjectID) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateAccess(ctx context.Context, actorRole string, target primitive.ObjectID, role string, permissions []string) (*User, error)
}

type UserServiceImpl struct {
	repo UserRepository
	log  *zap.Logger
}

func NewUserService(repo UserRepository, log *zap.Logger) UserService {
	return &UserServiceImpl{repo: repo, log: log}
}

func (s *UserServiceImpl) GetUser(ctx context.Context, id primitive.ObjectID) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("user not found")
	}
	return u, err
}

func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.FindAll(ctx)
}

// UpdateAccess replaces a user's role and explicit permission overrides.
// Granting the owner role is reserved to a system owner.
func (s *UserServiceImpl) UpdateAccess(ctx context.Context, actorRole string, target primitive.ObjectID, role string, permissions []string) (*User, error) {
	if authz.RankOf(role) == 0 {
		return nil, apperr.BadRequest("unknown role: %s", role)
	}
	for _, p := range permissions {
		if !knownPermission(p) {
			return nil, apperr.BadRequest("unknown permission: %s", p)
		}
	}
	if role == authz.RoleOwner && actorRole != authz.RoleOwner {
		return nil, apperr.Forbidden("only the owner may grant the owner role")
	}

	u, err := s.repo.UpdateAccess(ctx, target, role, permissions)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("user not found")
	}
	if err == nil {
		s.log.Info("user access updated",
			zap.String("actor", actorRole),
			zap.String("user_id", target.Hex()),
			zap.String("role", role))
	}
	return u, err
}

func knownPermission(p string) bool {
	for _, known := range authz.Permissions() {
		if p == known {
			return true
		}
	}
	return false
}
