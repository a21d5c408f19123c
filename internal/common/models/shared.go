package models

import (
	"time"
)

// Log is an action-log entry persisted by the async zap sink and read
// back by the logs feature.
type Log struct {
	Message      string    `bson:"message" json:"message"`
	ActorID      string    `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	IpAddress    string    `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	Caller       string    `bson:"caller,omitempty" json:"caller,omitempty"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
