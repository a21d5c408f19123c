package group

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a chat group. Invariants held by every mutation: the owner is a
// member, admins are a subset of members, and a blacklisted user is never
// a member.
type Group struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name" json:"name"`
	Owner     primitive.ObjectID   `bson:"owner" json:"owner"`
	Admins    []primitive.ObjectID `bson:"admins" json:"admins"`
	Members   []primitive.ObjectID `bson:"members" json:"members"`
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at" json:"updated_at"`
}

func (g *Group) IsMember(id primitive.ObjectID) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	return false
}

func (g *Group) IsAdmin(id primitive.ObjectID) bool {
	for _, a := range g.Admins {
		if a == id {
			return true
		}
	}
	return false
}

// CanModerate reports whether the user is the group owner or a group admin.
func (g *Group) CanModerate(id primitive.ObjectID) bool {
	return g.Owner == id || g.IsAdmin(id)
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// GroupRequest is a join request. At most one pending request exists per
// (group, user) pair; resolved requests are kept for audit.
type GroupRequest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Group     primitive.ObjectID `bson:"group" json:"group"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Status    RequestStatus      `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// MemberEvent is the payload fanned out for member-joined/left/kicked,
// carrying the updated group snapshot.
type MemberEvent struct {
	Group  *Group `json:"group"`
	UserID string `json:"user_id"`
}
