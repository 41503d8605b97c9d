package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription statuses recognized by the suggestion engine.
const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
)

// User is a read-only view of an account owned by the external user
// directory. The matchmaking core never writes this collection.
type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name               string             `bson:"name" json:"name"`
	Category           string             `bson:"category" json:"category"`
	SubscriptionStatus string             `bson:"subscription_status" json:"subscription_status"`
	ProfileImageURL    string             `bson:"profile_image_url,omitempty" json:"profile_image_url,omitempty"`
	Strengths          string             `bson:"strengths,omitempty" json:"strengths,omitempty"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
}

// IsActive reports whether the user is eligible for suggestions.
func (u *User) IsActive() bool {
	return u.SubscriptionStatus == SubscriptionActive
}
