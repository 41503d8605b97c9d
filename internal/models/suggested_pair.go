package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SuggestedPair statuses. The dispatcher moves pending pairs to sent;
// pairs whose users disappeared are marked rejected.
const (
	PairPending  = "pending"
	PairSent     = "sent"
	PairRejected = "rejected"
)

// SuggestedPair is a candidate match produced by the suggestion engine,
// consumed by the dispatcher. It is distinct from the in-chat BotMessage
// card that the dispatcher renders from it.
type SuggestedPair struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"user_id" json:"user_id"`
	SuggestedUserID primitive.ObjectID `bson:"suggested_user_id" json:"suggested_user_id"`
	Status          string             `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}
