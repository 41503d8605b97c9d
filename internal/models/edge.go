package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Edge kinds. Both relations are symmetric: adding (a,b) also adds (b,a).
const (
	EdgeFriend    = "friend"
	EdgeBlacklist = "blacklist"
)

// RelationEdge is one direction of a symmetric user relation. Writes are
// upserts keyed on (user_id, other_id, kind), so repeated adds do not
// accumulate duplicates.
type RelationEdge struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	OtherID   primitive.ObjectID `bson:"other_id" json:"other_id"`
	Kind      string             `bson:"kind" json:"kind"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
