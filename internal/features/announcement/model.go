package announcement

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind separates broadcast announcements from group invitations, which
// share the notification collection and inbox surface.
type Kind string

const (
	KindAnnouncement Kind = "announcement"
	KindInvitation   Kind = "invitation"
)

type Status string

const (
	StatusUnread    Status = "unread"
	StatusRead      Status = "read"
	StatusResponded Status = "responded"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

type Announcement struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Type      Kind                `bson:"type" json:"type"`
	Sender    primitive.ObjectID  `bson:"sender" json:"sender"`
	Recipient primitive.ObjectID  `bson:"recipient" json:"recipient"`
	Group     *primitive.ObjectID `bson:"group,omitempty" json:"group,omitempty"`
	Title     string              `bson:"title" json:"title"`
	Content   string              `bson:"content" json:"content"`
	Status    Status              `bson:"status" json:"status"`

	// InvitationStatus is only meaningful for KindInvitation.
	InvitationStatus InvitationStatus `bson:"invitation_status,omitempty" json:"invitation_status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
