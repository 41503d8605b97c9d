package jobs

import (
	"context"
	"math/rand"
	"testing"

	"github.com/comy-dev/comy-server/internal/models"
	"github.com/comy-dev/comy-server/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func activeUser(name string) models.User {
	return models.User{
		ID:                 primitive.NewObjectID(),
		Name:               name,
		SubscriptionStatus: models.SubscriptionActive,
	}
}

type engineFixture struct {
	engine *SuggestionEngine
	pairs  *memPairs
	edges  *memEdges
	chats  *memChats
	botID  primitive.ObjectID
}

func newEngineFixture(users ...models.User) *engineFixture {
	botID := primitive.NewObjectID()
	pairs := &memPairs{}
	edges := newMemEdges()
	chats := &memChats{}
	cards := &memBotMessages{}
	gw := &fakeGateway{}

	graph := services.NewGraphService(edges)
	chatService := services.NewChatService(chats, &memMessages{}, cards, gw, botID)
	engine := NewSuggestionEngine(
		newMemDirectory(users...), pairs, graph, chatService,
		botID, rand.New(rand.NewSource(42)),
	)
	return &engineFixture{engine: engine, pairs: pairs, edges: edges, chats: chats, botID: botID}
}

func TestEngineRefusesWithFewerThanTwoEligible(t *testing.T) {
	f := newEngineFixture(activeUser("solo"))

	_, err := f.engine.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotEnoughUsers)
}

func TestEngineAssignsAtMostOneTargetPerUser(t *testing.T) {
	users := []models.User{
		activeUser("a"), activeUser("b"), activeUser("c"), activeUser("d"),
	}
	f := newEngineFixture(users...)

	summary, err := f.engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Eligible)
	assert.Equal(t, 4, summary.Assigned)

	for _, u := range users {
		mine := f.pairs.forUser(u.ID)
		assert.LessOrEqual(t, len(mine), 1)
		for _, p := range mine {
			assert.NotEqual(t, u.ID, p.SuggestedUserID, "self-assignment")
			assert.NotEqual(t, f.botID, p.SuggestedUserID, "bot assigned as target")
			assert.Equal(t, models.PairPending, p.Status)
		}
	}
}

func TestEngineNeverAssignsFriendsOrBlacklisted(t *testing.T) {
	a := activeUser("a")
	b := activeUser("b")
	c := activeUser("c")
	f := newEngineFixture(a, b, c)

	// A and B are already friends; A has blacklisted no one.
	graph := services.NewGraphService(f.edges)
	require.NoError(t, graph.AddFriend(context.Background(), a.ID, b.ID))

	_, err := f.engine.Run(context.Background())
	require.NoError(t, err)

	for _, p := range f.pairs.forUser(a.ID) {
		assert.Equal(t, c.ID, p.SuggestedUserID, "friend B must never be A's target")
	}
	for _, p := range f.pairs.forUser(b.ID) {
		assert.Equal(t, c.ID, p.SuggestedUserID)
	}
}

func TestEngineSkipsUserWithEmptyPool(t *testing.T) {
	a := activeUser("a")
	b := activeUser("b")
	f := newEngineFixture(a, b)

	// Mutual blacklist leaves both pools empty even after the fallback.
	graph := services.NewGraphService(f.edges)
	require.NoError(t, graph.AddBlacklist(context.Background(), a.ID, b.ID))

	summary, err := f.engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Assigned)
	assert.Equal(t, 2, summary.Skipped)
	assert.Empty(t, f.pairs.pairs)
}

func TestEngineRunIsDeterministicWithSeededRand(t *testing.T) {
	users := []models.User{activeUser("a"), activeUser("b"), activeUser("c")}

	targets := func() map[primitive.ObjectID]primitive.ObjectID {
		f := newEngineFixture(users...)
		f.engine.fanout = 1 // sequential, so the seeded rand is the only variable
		_, err := f.engine.Run(context.Background())
		require.NoError(t, err)
		out := make(map[primitive.ObjectID]primitive.ObjectID)
		for _, p := range f.pairs.pairs {
			out[p.UserID] = p.SuggestedUserID
		}
		return out
	}

	assert.Equal(t, targets(), targets())
}

func TestEngineIsolatesPerUserFailures(t *testing.T) {
	a := activeUser("a")
	b := activeUser("b")
	c := activeUser("c")
	f := newEngineFixture(a, b, c)
	f.pairs.failForUser = a.ID

	summary, err := f.engine.Run(context.Background())
	require.NoError(t, err, "one user's failure must not abort the run")
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Assigned)
}

func TestEngineEnsuresBotChatPerAssignment(t *testing.T) {
	a := activeUser("a")
	b := activeUser("b")
	f := newEngineFixture(a, b)

	_, err := f.engine.Run(context.Background())
	require.NoError(t, err)

	for _, u := range []models.User{a, b} {
		chat, err := f.chats.FindPrivateChat(context.Background(), f.botID, u.ID)
		require.NoError(t, err)
		assert.NotNil(t, chat, "bot chat missing for %s", u.Name)
	}
}
