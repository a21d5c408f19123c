package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the directory entry the auth collaborator maintains. This core
// reads it for display names and writes only role/permission overrides.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username    string             `bson:"username" json:"username"`
	RealName    string             `bson:"real_name,omitempty" json:"real_name,omitempty"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role        string             `bson:"role" json:"role"`
	Permissions []string           `bson:"permissions,omitempty" json:"permissions,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
