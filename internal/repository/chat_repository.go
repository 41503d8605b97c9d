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
)

type ChatRepository struct {
	collection *mongo.Collection
}

func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{collection: db.Collection("chats")}
}

// CreateChat inserts a new chat document.
func (r *ChatRepository) CreateChat(ctx context.Context, chat *models.Chat) (*models.Chat, error) {
	chat.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	chat.ID = insertedID

	return chat, nil
}

// FindPrivateChat looks up the non-group chat whose member set is exactly
// {a, b}. Returns (nil, nil) when no such chat exists.
func (r *ChatRepository) FindPrivateChat(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	filter := bson.M{
		"is_group":        false,
		"members.user_id": bson.M{"$all": []primitive.ObjectID{a, b}},
		"members":         bson.M{"$size": 2},
	}

	var chat models.Chat
	err := r.collection.FindOne(ctx, filter).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find private chat: %v", err)
	}
	return &chat, nil
}

// FindByID returns the chat, or (nil, nil) when it does not exist.
func (r *ChatRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find chat: %v", err)
	}
	return &chat, nil
}

// UpdateLatestMessage refreshes the denormalized latest-message pointer.
func (r *ChatRepository) UpdateLatestMessage(ctx context.Context, chatID primitive.ObjectID, ref *models.LatestMessageRef) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": chatID},
		bson.M{"$set": bson.M{"latest_message": ref}},
	)
	if err != nil {
		return fmt.Errorf("failed to update latest message: %v", err)
	}
	return nil
}
