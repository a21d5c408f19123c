package blacklist

import (
	"context"
	"testing"
	"time"

	"go-chat/internal/common/apperr"
	"go-chat/internal/features/group"
	"go-chat/internal/features/realtime"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type memEntryRepo struct {
	entries []Entry
}

func (r *memEntryRepo) Create(_ context.Context, entry *Entry) error {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memEntryRepo) Exists(_ context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	for _, e := range r.entries {
		if e.Group == groupID && e.User == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memEntryRepo) FindByGroup(_ context.Context, groupID primitive.ObjectID) ([]Entry, error) {
	var out []Entry
	for _, e := range r.entries {
		if e.Group == groupID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEntryRepo) Delete(_ context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	for i, e := range r.entries {
		if e.Group == groupID && e.User == userID {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *memEntryRepo) DeleteByGroup(_ context.Context, groupID primitive.ObjectID) error {
	var kept []Entry
	for _, e := range r.entries {
		if e.Group != groupID {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	return nil
}

func (r *memEntryRepo) EnsureIndexes(_ context.Context) error { return nil }

type stubGroupRepo struct {
	group *group.Group
}

func (r *stubGroupRepo) Create(_ context.Context, _ *group.Group) error   { return nil }
func (r *stubGroupRepo) FindAll(_ context.Context) ([]group.Group, error) { return nil, nil }
func (r *stubGroupRepo) FindByID(_ context.Context, id primitive.ObjectID) (*group.Group, error) {
	if r.group == nil || r.group.ID != id {
		return nil, mongo.ErrNoDocuments
	}
	copied := *r.group
	copied.Admins = append([]primitive.ObjectID(nil), r.group.Admins...)
	copied.Members = append([]primitive.ObjectID(nil), r.group.Members...)
	return &copied, nil
}
func (r *stubGroupRepo) FindByName(_ context.Context, _ string) (*group.Group, error) {
	return nil, mongo.ErrNoDocuments
}
func (r *stubGroupRepo) FindByMember(_ context.Context, _ primitive.ObjectID) ([]group.Group, error) {
	return nil, nil
}
func (r *stubGroupRepo) Replace(_ context.Context, g *group.Group) error {
	r.group = g
	return nil
}
func (r *stubGroupRepo) AddMember(_ context.Context, _, _ primitive.ObjectID) error { return nil }
func (r *stubGroupRepo) Delete(_ context.Context, _ primitive.ObjectID) error       { return nil }
func (r *stubGroupRepo) EnsureIndexes(_ context.Context) error                      { return nil }

type eventRecorder struct {
	kinds []realtime.EventKind
}

func (r *eventRecorder) Publish(_ string, kind realtime.EventKind, _ interface{}) {
	r.kinds = append(r.kinds, kind)
}

type banFixture struct {
	service BlacklistService
	groups  *stubGroupRepo
	events  *eventRecorder
	owner   primitive.ObjectID
	admin   primitive.ObjectID
	member  primitive.ObjectID
}

func newBanFixture(t *testing.T) *banFixture {
	t.Helper()

	owner := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()
	groups := &stubGroupRepo{group: &group.Group{
		ID:      primitive.NewObjectID(),
		Name:    "dev",
		Owner:   owner,
		Admins:  []primitive.ObjectID{owner, admin},
		Members: []primitive.ObjectID{owner, admin, member},
	}}

	events := &eventRecorder{}
	service := NewBlacklistService(&memEntryRepo{}, groups, group.NewLockMap(), events, zap.NewNop())
	return &banFixture{service: service, groups: groups, events: events, owner: owner, admin: admin, member: member}
}

func TestBanEvictsMember(t *testing.T) {
	f := newBanFixture(t)
	groupID := f.groups.group.ID

	entry, err := f.service.Ban(context.Background(), f.admin, groupID, f.member)
	if err != nil {
		t.Fatalf("Ban: %v", err)
	}
	if entry.Group != groupID || entry.User != f.member {
		t.Errorf("unexpected entry: %+v", entry)
	}

	if f.groups.group.IsMember(f.member) {
		t.Error("banned member must be evicted")
	}
	if len(f.events.kinds) != 1 || f.events.kinds[0] != realtime.EventMemberKicked {
		t.Errorf("expected member-kicked event, got %v", f.events.kinds)
	}

	banned, err := f.service.IsBanned(context.Background(), groupID, f.member)
	if err != nil || !banned {
		t.Errorf("IsBanned = %v, %v; want true", banned, err)
	}
}

func TestBanOutsiderSkipsEviction(t *testing.T) {
	f := newBanFixture(t)
	outsider := primitive.NewObjectID()

	if _, err := f.service.Ban(context.Background(), f.owner, f.groups.group.ID, outsider); err != nil {
		t.Fatalf("Ban: %v", err)
	}
	if len(f.events.kinds) != 0 {
		t.Errorf("no eviction event expected, got %v", f.events.kinds)
	}
}

func TestBanRules(t *testing.T) {
	f := newBanFixture(t)
	groupID := f.groups.group.ID

	// Plain members cannot ban.
	if _, err := f.service.Ban(context.Background(), f.member, groupID, f.admin); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	// The owner is untouchable.
	if _, err := f.service.Ban(context.Background(), f.admin, groupID, f.owner); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected Forbidden for owner target, got %v", err)
	}

	if _, err := f.service.Ban(context.Background(), f.owner, groupID, f.member); err != nil {
		t.Fatalf("Ban: %v", err)
	}
	// Double ban is refused.
	if _, err := f.service.Ban(context.Background(), f.owner, groupID, f.member); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestUnban(t *testing.T) {
	f := newBanFixture(t)
	groupID := f.groups.group.ID

	if _, err := f.service.Ban(context.Background(), f.owner, groupID, f.member); err != nil {
		t.Fatalf("Ban: %v", err)
	}

	// Unbanning someone who is not banned is an error.
	if err := f.service.Unban(context.Background(), f.owner, groupID, primitive.NewObjectID()); !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}

	if err := f.service.Unban(context.Background(), f.owner, groupID, f.member); err != nil {
		t.Fatalf("Unban: %v", err)
	}
	banned, _ := f.service.IsBanned(context.Background(), groupID, f.member)
	if banned {
		t.Error("user should no longer be banned")
	}

	// Unban does not restore membership.
	if f.groups.group.IsMember(f.member) {
		t.Error("unban must not silently restore membership")
	}
}

func TestListRequiresModerator(t *testing.T) {
	f := newBanFixture(t)
	groupID := f.groups.group.ID

	if _, err := f.service.List(context.Background(), f.member, groupID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}

	if _, err := f.service.Ban(context.Background(), f.owner, groupID, f.member); err != nil {
		t.Fatalf("Ban: %v", err)
	}
	entries, err := f.service.List(context.Background(), f.owner, groupID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}
}
