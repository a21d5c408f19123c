package user

import (
	"context"
	"testing"

	"go-chat/internal/common/apperr"
	"go-chat/internal/features/authz"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type memUserRepo struct {
	users map[primitive.ObjectID]*User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[primitive.ObjectID]*User{}}
}

func (r *memUserRepo) Create(_ context.Context, u *User) error {
	u.ID = primitive.NewObjectID()
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return u, nil
}

func (r *memUserRepo) FindAll(_ context.Context) ([]User, error) {
	var out []User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *memUserRepo) AllIDs(_ context.Context) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	for id := range r.users {
		out = append(out, id)
	}
	return out, nil
}

func (r *memUserRepo) UpdateAccess(_ context.Context, id primitive.ObjectID, role string, permissions []string) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	u.Role = role
	u.Permissions = permissions
	return u, nil
}

func (r *memUserRepo) EnsureIndexes(_ context.Context) error { return nil }

func TestUpdateAccess(t *testing.T) {
	repo := newMemUserRepo()
	target := &User{Username: "bob", RealName: "Bob", Role: authz.RoleUser}
	if err := repo.Create(context.Background(), target); err != nil {
		t.Fatalf("Create: %v", err)
	}
	service := NewUserService(repo, zap.NewNop())

	tests := []struct {
		name        string
		actorRole   string
		role        string
		permissions []string
		wantKind    apperr.Kind
	}{
		{"promote to moderator", authz.RoleAdmin, authz.RoleModerator, nil, 0},
		{"grant extra permission", authz.RoleAdmin, authz.RoleUser, []string{authz.PermViewLogs}, 0},
		{"unknown role", authz.RoleAdmin, "superuser", nil, apperr.KindBadRequest},
		{"unknown permission", authz.RoleAdmin, authz.RoleUser, []string{"fly"}, apperr.KindBadRequest},
		{"admin cannot grant owner", authz.RoleAdmin, authz.RoleOwner, nil, apperr.KindForbidden},
		{"owner may grant owner", authz.RoleOwner, authz.RoleOwner, nil, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u, err := service.UpdateAccess(context.Background(), tc.actorRole, target.ID, tc.role, tc.permissions)
			if tc.wantKind != 0 {
				if !apperr.IsKind(err, tc.wantKind) {
					t.Fatalf("expected kind %v, got %v", tc.wantKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateAccess: %v", err)
			}
			if u.Role != tc.role {
				t.Errorf("role = %q, want %q", u.Role, tc.role)
			}
		})
	}
}

func TestUpdateAccessUnknownUser(t *testing.T) {
	service := NewUserService(newMemUserRepo(), zap.NewNop())

	_, err := service.UpdateAccess(context.Background(), authz.RoleOwner, primitive.NewObjectID(), authz.RoleUser, nil)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
