package message

import (
	"context"
	"io"
	"testing"
	"time"

	"go-chat/internal/common/apperr"
	"go-chat/internal/features/group"
	"go-chat/internal/features/realtime"
	"go-chat/internal/features/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeMessageRepo struct {
	messages map[primitive.ObjectID]*Message
	created  []*Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: map[primitive.ObjectID]*Message{}}
}

func (r *fakeMessageRepo) Create(_ context.Context, m *Message) error {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.CreatedAt = time.Now()
	r.messages[m.ID] = m
	r.created = append(r.created, m)
	return nil
}

func (r *fakeMessageRepo) FindByID(_ context.Context, id primitive.ObjectID) (*Message, error) {
	m, ok := r.messages[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return m, nil
}

func (r *fakeMessageRepo) FindByGroup(_ context.Context, groupID primitive.ObjectID) ([]Message, error) {
	var out []Message
	for _, m := range r.messages {
		if m.Group == groupID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) Search(_ context.Context, groupID primitive.ObjectID, _ SearchQuery) ([]Message, error) {
	return r.FindByGroup(context.Background(), groupID)
}

func (r *fakeMessageRepo) MarkRead(_ context.Context, id, userID primitive.ObjectID, at time.Time) error {
	m, ok := r.messages[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	for i := range m.ReadStatus {
		if m.ReadStatus[i].UserID == userID {
			m.ReadStatus[i].Read = true
			m.ReadStatus[i].ReadAt = &at
		}
	}
	return nil
}

func (r *fakeMessageRepo) MarkAllRead(_ context.Context, groupID, userID primitive.ObjectID, at time.Time) error {
	for _, m := range r.messages {
		if m.Group == groupID {
			_ = r.MarkRead(context.Background(), m.ID, userID, at)
		}
	}
	return nil
}

func (r *fakeMessageRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	delete(r.messages, id)
	return nil
}

func (r *fakeMessageRepo) DeleteByGroup(_ context.Context, groupID primitive.ObjectID) error {
	for id, m := range r.messages {
		if m.Group == groupID {
			delete(r.messages, id)
		}
	}
	return nil
}

type fakeGroupRepo struct {
	groups map[primitive.ObjectID]*group.Group
}

func (r *fakeGroupRepo) Create(_ context.Context, g *group.Group) error { return nil }
func (r *fakeGroupRepo) FindAll(_ context.Context) ([]group.Group, error) {
	return nil, nil
}
func (r *fakeGroupRepo) FindByID(_ context.Context, id primitive.ObjectID) (*group.Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return g, nil
}
func (r *fakeGroupRepo) FindByName(_ context.Context, _ string) (*group.Group, error) {
	return nil, mongo.ErrNoDocuments
}
func (r *fakeGroupRepo) FindByMember(_ context.Context, _ primitive.ObjectID) ([]group.Group, error) {
	return nil, nil
}
func (r *fakeGroupRepo) Replace(_ context.Context, g *group.Group) error { return nil }
func (r *fakeGroupRepo) AddMember(_ context.Context, _, _ primitive.ObjectID) error {
	return nil
}
func (r *fakeGroupRepo) Delete(_ context.Context, _ primitive.ObjectID) error { return nil }
func (r *fakeGroupRepo) EnsureIndexes(_ context.Context) error                { return nil }

type fakeStore struct {
	deleted []string
}

func (s *fakeStore) Save(_ io.Reader, name, mime string, size int64) (*storage.StoredFile, error) {
	return &storage.StoredFile{Locator: "loc-" + name, URL: "/files/loc-" + name, OriginalName: name, Size: size, MimeType: mime}, nil
}

func (s *fakeStore) Delete(locator string) error {
	s.deleted = append(s.deleted, locator)
	return nil
}

type recordingBroadcaster struct {
	events []realtime.EventKind
}

func (b *recordingBroadcaster) Publish(_ string, kind realtime.EventKind, _ interface{}) {
	b.events = append(b.events, kind)
}

type messageFixture struct {
	service  MessageService
	repo     *fakeMessageRepo
	store    *fakeStore
	events   *recordingBroadcaster
	group    *group.Group
	owner    primitive.ObjectID
	member   primitive.ObjectID
	outsider primitive.ObjectID
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()

	owner := primitive.NewObjectID()
	member := primitive.NewObjectID()
	g := &group.Group{
		ID:      primitive.NewObjectID(),
		Name:    "dev",
		Owner:   owner,
		Members: []primitive.ObjectID{owner, member},
	}

	repo := newFakeMessageRepo()
	store := &fakeStore{}
	events := &recordingBroadcaster{}
	service := NewMessageService(repo, &fakeGroupRepo{groups: map[primitive.ObjectID]*group.Group{g.ID: g}}, store, events, zap.NewNop())

	return &messageFixture{
		service:  service,
		repo:     repo,
		store:    store,
		events:   events,
		group:    g,
		owner:    owner,
		member:   member,
		outsider: primitive.NewObjectID(),
	}
}

func TestSendSeedsReadLedgerFromMembership(t *testing.T) {
	f := newMessageFixture(t)

	msg, err := f.service.Send(context.Background(), f.owner, f.group.ID, "hello", nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(msg.ReadStatus) != 2 {
		t.Fatalf("expected 2 receipts, got %d", len(msg.ReadStatus))
	}
	if !msg.ReadBy(f.owner) {
		t.Error("sender should be pre-marked read")
	}
	if msg.ReadBy(f.member) {
		t.Error("recipient should start unread")
	}
	if len(f.events.events) != 1 || f.events.events[0] != realtime.EventMessageCreated {
		t.Errorf("expected one message-created event, got %v", f.events.events)
	}
}

func TestSendEscapesContent(t *testing.T) {
	f := newMessageFixture(t)

	msg, err := f.service.Send(context.Background(), f.member, f.group.ID, `<b onload="x">&`, nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	want := "&lt;b onload=&#34;x&#34;&gt;&amp;"
	if msg.Content != want {
		t.Errorf("content = %q, want %q", msg.Content, want)
	}
}

func TestSendRejectsNonMember(t *testing.T) {
	f := newMessageFixture(t)

	_, err := f.service.Send(context.Background(), f.outsider, f.group.ID, "hi", nil)
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if len(f.events.events) != 0 {
		t.Error("no event should be published for a rejected send")
	}
}

func TestSendRejectsCrossGroupReply(t *testing.T) {
	f := newMessageFixture(t)

	other := &Message{ID: primitive.NewObjectID(), Group: primitive.NewObjectID(), Sender: f.owner}
	f.repo.messages[other.ID] = other

	_, err := f.service.Send(context.Background(), f.owner, f.group.ID, "re", &other.ID)
	if !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
}

func TestSendReplyInSameGroup(t *testing.T) {
	f := newMessageFixture(t)

	parent, err := f.service.Send(context.Background(), f.owner, f.group.ID, "first", nil)
	if err != nil {
		t.Fatalf("Send parent: %v", err)
	}
	reply, err := f.service.Send(context.Background(), f.member, f.group.ID, "second", &parent.ID)
	if err != nil {
		t.Fatalf("Send reply: %v", err)
	}
	if reply.ReplyTo == nil || *reply.ReplyTo != parent.ID {
		t.Error("reply should reference the parent message")
	}
}

func TestMarkReadIdempotentAndSnapshotBound(t *testing.T) {
	f := newMessageFixture(t)

	msg, err := f.service.Send(context.Background(), f.owner, f.group.ID, "hello", nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	first, err := f.service.MarkRead(context.Background(), f.member, msg.ID)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !first.ReadBy(f.member) {
		t.Fatal("receipt not recorded")
	}
	firstAt := readAt(t, first, f.member)

	second, err := f.service.MarkRead(context.Background(), f.member, msg.ID)
	if err != nil {
		t.Fatalf("second MarkRead: %v", err)
	}
	if !readAt(t, second, f.member).Equal(firstAt) {
		t.Error("second MarkRead must not move the timestamp")
	}

	// A user added after the send never enters the snapshot.
	if _, err := f.service.MarkRead(context.Background(), f.outsider, msg.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected Forbidden for out-of-snapshot user, got %v", err)
	}
}

func readAt(t *testing.T, m *Message, user primitive.ObjectID) time.Time {
	t.Helper()
	for _, r := range m.ReadStatus {
		if r.UserID == user {
			if r.ReadAt == nil {
				t.Fatal("receipt has no timestamp")
			}
			return *r.ReadAt
		}
	}
	t.Fatalf("user %s not in ledger", user.Hex())
	return time.Time{}
}

func TestDeletePermissions(t *testing.T) {
	cases := []struct {
		name    string
		actor   func(f *messageFixture) primitive.ObjectID
		wantErr apperr.Kind
	}{
		{"sender may delete", func(f *messageFixture) primitive.ObjectID { return f.member }, 0},
		{"owner may delete", func(f *messageFixture) primitive.ObjectID { return f.owner }, 0},
		{"other member may not", func(f *messageFixture) primitive.ObjectID { return f.bystander() }, apperr.KindForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newMessageFixture(t)
			msg, err := f.service.Send(context.Background(), f.member, f.group.ID, "bye", nil)
			if err != nil {
				t.Fatalf("Send: %v", err)
			}

			err = f.service.Delete(context.Background(), tc.actor(f), msg.ID)
			if tc.wantErr == 0 {
				if err != nil {
					t.Fatalf("Delete: %v", err)
				}
				if _, ok := f.repo.messages[msg.ID]; ok {
					t.Error("message still present after delete")
				}
				last := f.events.events[len(f.events.events)-1]
				if last != realtime.EventMessageDeleted {
					t.Errorf("expected message-deleted event, got %v", last)
				}
				return
			}
			if !apperr.IsKind(err, tc.wantErr) {
				t.Fatalf("expected kind %v, got %v", tc.wantErr, err)
			}
		})
	}
}

// bystander adds a plain third member to the fixture group.
func (f *messageFixture) bystander() primitive.ObjectID {
	id := primitive.NewObjectID()
	f.group.Members = append(f.group.Members, id)
	return id
}

func TestSendFileCleansUpOnRejection(t *testing.T) {
	f := newMessageFixture(t)

	stored := &storage.StoredFile{Locator: "loc-a", URL: "/files/loc-a", OriginalName: "a.txt", Size: 3, MimeType: "text/plain"}
	_, err := f.service.SendFile(context.Background(), f.outsider, f.group.ID, stored)
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if len(f.store.deleted) != 1 || f.store.deleted[0] != "loc-a" {
		t.Errorf("stored file should be discarded on rejection, deleted=%v", f.store.deleted)
	}
}

func TestDeleteFileMessageRemovesAttachment(t *testing.T) {
	f := newMessageFixture(t)

	stored := &storage.StoredFile{Locator: "loc-b", URL: "/files/loc-b", OriginalName: "b.txt", Size: 3, MimeType: "text/plain"}
	msg, err := f.service.SendFile(context.Background(), f.member, f.group.ID, stored)
	if err != nil {
		t.Fatalf("SendFile: %v", err)
	}
	if msg.Content != "[file] b.txt" {
		t.Errorf("content = %q", msg.Content)
	}

	if err := f.service.Delete(context.Background(), f.member, msg.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(f.store.deleted) != 1 || f.store.deleted[0] != "loc-b" {
		t.Errorf("attachment not removed, deleted=%v", f.store.deleted)
	}
}

func TestMarkAllReadRequiresMembership(t *testing.T) {
	f := newMessageFixture(t)

	if _, err := f.service.Send(context.Background(), f.owner, f.group.ID, "one", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := f.service.Send(context.Background(), f.owner, f.group.ID, "two", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := f.service.MarkAllRead(context.Background(), f.outsider, f.group.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}

	if err := f.service.MarkAllRead(context.Background(), f.member, f.group.ID); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	for _, m := range f.repo.messages {
		if !m.ReadBy(f.member) {
			t.Errorf("message %s not marked read", m.ID.Hex())
		}
	}
}
