package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member roles inside a chat.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type ChatMember struct {
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role   string             `bson:"role" json:"role"`
}

// LatestMessageRef is the denormalized pointer to the newest message in a
// chat, kept on the chat document so chat lists render without a join.
type LatestMessageRef struct {
	MessageID primitive.ObjectID `bson:"message_id" json:"message_id"`
	SenderID  primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Chat aggregates its member ids. Private chats always have exactly two
// members; group chats created by the match flow have three (both users
// plus the bot as admin).
type Chat struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	IsGroup       bool               `bson:"is_group" json:"is_group"`
	Members       []ChatMember       `bson:"members" json:"members"`
	LatestMessage *LatestMessageRef  `bson:"latest_message,omitempty" json:"latest_message,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

// HasMember reports whether the user belongs to the chat.
func (c *Chat) HasMember(userID primitive.ObjectID) bool {
	for _, m := range c.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
