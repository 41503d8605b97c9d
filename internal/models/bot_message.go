package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Suggestion statuses. Pending is the initial state; accepted and
// rejected are terminal, there is no reverse transition.
const (
	SuggestionPending  = "pending"
	SuggestionAccepted = "accepted"
	SuggestionRejected = "rejected"
)

// BotMessage is a bot-authored card in a user's bot chat proposing a
// connection with SuggestedUserID. A card with IsMatchCard set is the
// second-stage request shown to the suggested party.
type BotMessage struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ChatID          primitive.ObjectID   `bson:"chat_id" json:"chat_id"`
	SenderID        primitive.ObjectID   `bson:"sender_id" json:"sender_id"`
	RecipientID     primitive.ObjectID   `bson:"recipient_id" json:"recipient_id"`
	SuggestedUserID primitive.ObjectID   `bson:"suggested_user_id,omitempty" json:"suggested_user_id,omitempty"`
	Status          string               `bson:"status" json:"status"`
	IsMatchCard     bool                 `bson:"is_match_card" json:"is_match_card"`
	Content         string               `bson:"content" json:"content"`
	ReadBy          []primitive.ObjectID `bson:"read_by,omitempty" json:"read_by,omitempty"`
	CreatedAt       time.Time            `bson:"created_at" json:"created_at"`
}
