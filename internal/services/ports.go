package services

import (
	"context"

	"github.com/comy-dev/comy-server/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserDirectory is the read-only port to the externally owned user
// collection. Lookups return (nil, nil) when the user does not exist.
type UserDirectory interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindActiveUsers(ctx context.Context) ([]models.User, error)
}

type ChatStore interface {
	CreateChat(ctx context.Context, chat *models.Chat) (*models.Chat, error)
	FindPrivateChat(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error)
	UpdateLatestMessage(ctx context.Context, chatID primitive.ObjectID, ref *models.LatestMessageRef) error
}

type MessageStore interface {
	InsertMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetChatMessages(ctx context.Context, chatID primitive.ObjectID) ([]models.Message, error)
	MarkAllRead(ctx context.Context, chatID, userID primitive.ObjectID) error
}

type BotMessageStore interface {
	Create(ctx context.Context, msg *models.BotMessage) (*models.BotMessage, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.BotMessage, error)
	FindPendingCard(ctx context.Context, chatID, senderID, recipientID, suggestedID primitive.ObjectID) (*models.BotMessage, error)
	GetChatMessages(ctx context.Context, chatID primitive.ObjectID) ([]models.BotMessage, error)
	TransitionStatus(ctx context.Context, id primitive.ObjectID, status string) (bool, error)
	MarkAllRead(ctx context.Context, chatID, userID primitive.ObjectID) error
}

type SuggestedPairStore interface {
	Create(ctx context.Context, pair *models.SuggestedPair) (*models.SuggestedPair, error)
	FindPending(ctx context.Context) ([]models.SuggestedPair, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error
	MarkSent(ctx context.Context, ids []primitive.ObjectID) error
}

type EdgeStore interface {
	Upsert(ctx context.Context, kind string, userID, otherID primitive.ObjectID) error
	Exists(ctx context.Context, kind string, a, b primitive.ObjectID) (bool, error)
	ListFor(ctx context.Context, kind string, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}
