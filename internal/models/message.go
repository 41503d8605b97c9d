package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a plain chat message. The message log is append-only and
// ReadBy only ever grows.
type Message struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ChatID    primitive.ObjectID   `bson:"chat_id" json:"chat_id"`
	SenderID  primitive.ObjectID   `bson:"sender_id" json:"sender_id"`
	Content   string               `bson:"content,omitempty" json:"content,omitempty"`
	ImageURL  string               `bson:"image_url,omitempty" json:"image_url,omitempty"`
	ReadBy    []primitive.ObjectID `bson:"read_by,omitempty" json:"read_by,omitempty"`
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
}
