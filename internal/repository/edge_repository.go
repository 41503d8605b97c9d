package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/comy-dev/comy-server/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EdgeRepository stores one document per relation direction. Upsert keyed
// on (user_id, other_id, kind) keeps repeated writes from piling up
// duplicate edges.
type EdgeRepository struct {
	collection *mongo.Collection
}

func NewEdgeRepository(db *mongo.Database) *EdgeRepository {
	return &EdgeRepository{collection: db.Collection("relation_edges")}
}

func (r *EdgeRepository) Upsert(ctx context.Context, kind string, userID, otherID primitive.ObjectID) error {
	filter := bson.M{"user_id": userID, "other_id": otherID, "kind": kind}
	update := bson.M{"$setOnInsert": bson.M{
		"user_id":    userID,
		"other_id":   otherID,
		"kind":       kind,
		"created_at": time.Now(),
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert %s edge: %v", kind, err)
	}
	return nil
}

// Exists is a symmetric membership test: it matches either direction, so
// the transient window where only one direction has been written still
// reads as related.
func (r *EdgeRepository) Exists(ctx context.Context, kind string, a, b primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"kind": kind,
		"$or": []bson.M{
			{"user_id": a, "other_id": b},
			{"user_id": b, "other_id": a},
		},
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check %s edge: %v", kind, err)
	}
	return count > 0, nil
}

// ListFor enumerates the neighbor ids of a user for the given kind.
func (r *EdgeRepository) ListFor(ctx context.Context, kind string, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"kind": kind, "user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s edges: %v", kind, err)
	}
	defer cursor.Close(ctx)

	var neighbors []primitive.ObjectID
	for cursor.Next(ctx) {
		var edge models.RelationEdge
		if err := cursor.Decode(&edge); err != nil {
			return nil, err
		}
		neighbors = append(neighbors, edge.OtherID)
	}
	return neighbors, nil
}
