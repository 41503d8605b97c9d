package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/comy-dev/comy-server/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type SuggestedPairRepository struct {
	collection *mongo.Collection
}

func NewSuggestedPairRepository(db *mongo.Database) *SuggestedPairRepository {
	return &SuggestedPairRepository{collection: db.Collection("suggested_pairs")}
}

func (r *SuggestedPairRepository) Create(ctx context.Context, pair *models.SuggestedPair) (*models.SuggestedPair, error) {
	pair.CreatedAt = time.Now()
	pair.Status = models.PairPending

	result, err := r.collection.InsertOne(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("failed to create suggested pair: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	pair.ID = insertedID

	return pair, nil
}

// FindPending returns all pairs the dispatcher still has to deliver.
func (r *SuggestedPairRepository) FindPending(ctx context.Context) ([]models.SuggestedPair, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"status": models.PairPending})
	if err != nil {
		return nil, fmt.Errorf("failed to find pending pairs: %v", err)
	}
	defer cursor.Close(ctx)

	var pairs []models.SuggestedPair
	for cursor.Next(ctx) {
		var pair models.SuggestedPair
		if err := cursor.Decode(&pair); err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func (r *SuggestedPairRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return fmt.Errorf("failed to update pair status: %v", err)
	}
	return nil
}

// MarkSent flips all given pairs to sent in one batched update.
func (r *SuggestedPairRepository) MarkSent(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.collection.UpdateMany(
		ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"status": models.PairSent}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark pairs sent: %v", err)
	}
	return nil
}
