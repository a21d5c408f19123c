package message

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReadReceipt tracks one recipient's read state. last-write-wins per
// (message, user); there is no per-device reconciliation.
type ReadReceipt struct {
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	Read   bool               `bson:"read" json:"read"`
	ReadAt *time.Time         `bson:"read_at,omitempty" json:"read_at,omitempty"`
}

// Message belongs to exactly one group forever. ReadStatus is seeded with
// the membership snapshot at send time; users who join later are not added.
type Message struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Sender     primitive.ObjectID  `bson:"sender" json:"sender"`
	Group      primitive.ObjectID  `bson:"group" json:"group"`
	Content    string              `bson:"content" json:"content"`
	FileURL    string              `bson:"file_url,omitempty" json:"file_url,omitempty"`
	FileName   string              `bson:"file_name,omitempty" json:"file_name,omitempty"`
	FileSize   int64               `bson:"file_size,omitempty" json:"file_size,omitempty"`
	FileType   string              `bson:"file_type,omitempty" json:"file_type,omitempty"`
	ReplyTo    *primitive.ObjectID `bson:"reply_to,omitempty" json:"reply_to,omitempty"`
	ReadStatus []ReadReceipt       `bson:"read_status" json:"read_status"`
	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
}

// InSnapshot reports whether the user was a member when the message was sent.
func (m *Message) InSnapshot(userID primitive.ObjectID) bool {
	for _, r := range m.ReadStatus {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// ReadBy reports whether the user has already read the message.
func (m *Message) ReadBy(userID primitive.ObjectID) bool {
	for _, r := range m.ReadStatus {
		if r.UserID == userID {
			return r.Read
		}
	}
	return false
}
