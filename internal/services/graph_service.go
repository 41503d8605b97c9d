package services

import (
	"context"
	"fmt"

	"github.com/comy-dev/comy-server/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GraphService maintains the two symmetric user relations, Friend and
// Blacklist. Adding an edge writes both directions through idempotent
// upserts; the narrow window where only one direction exists is an
// accepted transient state, which is why Exists checks both.
type GraphService struct {
	edges EdgeStore
}

func NewGraphService(edges EdgeStore) *GraphService {
	return &GraphService{edges: edges}
}

func (s *GraphService) add(ctx context.Context, kind string, a, b primitive.ObjectID) error {
	if a == b {
		return fmt.Errorf("cannot relate a user to themselves")
	}
	if err := s.edges.Upsert(ctx, kind, a, b); err != nil {
		return err
	}
	if err := s.edges.Upsert(ctx, kind, b, a); err != nil {
		return err
	}
	return nil
}

// AddFriend records the symmetric friend relation between a and b.
func (s *GraphService) AddFriend(ctx context.Context, a, b primitive.ObjectID) error {
	return s.add(ctx, models.EdgeFriend, a, b)
}

// AddBlacklist records the symmetric blacklist relation between a and b.
func (s *GraphService) AddBlacklist(ctx context.Context, a, b primitive.ObjectID) error {
	return s.add(ctx, models.EdgeBlacklist, a, b)
}

func (s *GraphService) AreFriends(ctx context.Context, a, b primitive.ObjectID) (bool, error) {
	return s.edges.Exists(ctx, models.EdgeFriend, a, b)
}

func (s *GraphService) IsBlacklisted(ctx context.Context, a, b primitive.ObjectID) (bool, error) {
	return s.edges.Exists(ctx, models.EdgeBlacklist, a, b)
}

// FriendsOf enumerates a user's friends.
func (s *GraphService) FriendsOf(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.edges.ListFor(ctx, models.EdgeFriend, userID)
}

// BlacklistOf enumerates the users a user has blacklisted.
func (s *GraphService) BlacklistOf(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.edges.ListFor(ctx, models.EdgeBlacklist, userID)
}
