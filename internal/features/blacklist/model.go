package blacklist

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Entry bans one user from one group. Unique per (group, user); a banned
// user is never simultaneously a member.
type Entry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Group     primitive.ObjectID `bson:"group" json:"group"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
