package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comy-dev/comy-server/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BotMessageRepository struct {
	collection *mongo.Collection
}

func NewBotMessageRepository(db *mongo.Database) *BotMessageRepository {
	return &BotMessageRepository{collection: db.Collection("bot_messages")}
}

func (r *BotMessageRepository) Create(ctx context.Context, msg *models.BotMessage) (*models.BotMessage, error) {
	msg.CreatedAt = time.Now()
	if msg.Status == "" {
		msg.Status = models.SuggestionPending
	}

	result, err := r.collection.InsertOne(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot message: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	msg.ID = insertedID

	return msg, nil
}

// FindByID returns the bot message, or (nil, nil) when it does not exist.
func (r *BotMessageRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.BotMessage, error) {
	var msg models.BotMessage
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find bot message: %v", err)
	}
	return &msg, nil
}

// FindPendingCard looks for an undecided card matching the full
// (chat, sender, recipient, suggested user) tuple. The dispatcher and the
// accepted suggestion flow use it as their duplicate guard.
func (r *BotMessageRepository) FindPendingCard(ctx context.Context, chatID, senderID, recipientID, suggestedID primitive.ObjectID) (*models.BotMessage, error) {
	filter := bson.M{
		"chat_id":           chatID,
		"sender_id":         senderID,
		"recipient_id":      recipientID,
		"suggested_user_id": suggestedID,
		"status":            models.SuggestionPending,
	}

	var msg models.BotMessage
	err := r.collection.FindOne(ctx, filter).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending card: %v", err)
	}
	return &msg, nil
}

// GetChatMessages returns all bot cards of a chat in creation order.
func (r *BotMessageRepository) GetChatMessages(ctx context.Context, chatID primitive.ObjectID) ([]models.BotMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bot messages: %v", err)
	}
	defer cursor.Close(ctx)

	var cards []models.BotMessage
	for cursor.Next(ctx) {
		var card models.BotMessage
		if err := cursor.Decode(&card); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// TransitionStatus flips a pending card to the given terminal status.
// The filter matches on the pending status, so a card that was already
// decided reports false and the caller can surface AlreadyProcessed.
func (r *BotMessageRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, status string) (bool, error) {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.SuggestionPending},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to update bot message status: %v", err)
	}
	return result.ModifiedCount == 1, nil
}

// MarkAllRead adds the user to read_by on every card in the chat.
func (r *BotMessageRepository) MarkAllRead(ctx context.Context, chatID, userID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(
		ctx,
		bson.M{"chat_id": chatID},
		bson.M{"$addToSet": bson.M{"read_by": userID}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark bot messages read: %v", err)
	}
	return nil
}
