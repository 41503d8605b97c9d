package jobs

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/comy-dev/comy-server/internal/models"
	"github.com/comy-dev/comy-server/internal/services"
	"github.com/comy-dev/comy-server/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// ErrNotEnoughUsers is returned when a run is refused because fewer than
// two eligible users exist. It is a precondition, not a job failure.
var ErrNotEnoughUsers = errors.New("not enough eligible users")

// SuggestionEngine is the batch job that proposes candidate pairs among
// active subscribers. One run assigns each eligible user at most one
// random target, never the bot, never a friend or blacklisted user, and
// writes a pending SuggestedPair per assignment for the dispatcher to
// deliver. Per-user failures are logged and do not abort the run.
type SuggestionEngine struct {
	directory services.UserDirectory
	pairs     services.SuggestedPairStore
	graph     *services.GraphService
	chats     *services.ChatService
	botID     primitive.ObjectID
	rng       *rand.Rand
	fanout    int
}

// NewSuggestionEngine wires the engine. The rand source is injected so
// runs are deterministic under test.
func NewSuggestionEngine(
	directory services.UserDirectory,
	pairs services.SuggestedPairStore,
	graph *services.GraphService,
	chats *services.ChatService,
	botID primitive.ObjectID,
	rng *rand.Rand,
) *SuggestionEngine {
	return &SuggestionEngine{
		directory: directory,
		pairs:     pairs,
		graph:     graph,
		chats:     chats,
		botID:     botID,
		rng:       rng,
		fanout:    4,
	}
}

// EngineSummary reports what a run did.
type EngineSummary struct {
	Eligible int `json:"eligible"`
	Assigned int `json:"assigned"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Run executes one engine pass. It refuses to run with fewer than two
// eligible users.
func (e *SuggestionEngine) Run(ctx context.Context) (*EngineSummary, error) {
	users, err := e.directory.FindActiveUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active users: %v", err)
	}

	var eligible []models.User
	for _, u := range users {
		if u.ID != e.botID && u.IsActive() {
			eligible = append(eligible, u)
		}
	}
	if len(eligible) < 2 {
		return nil, fmt.Errorf("%w: need at least 2, have %d", ErrNotEnoughUsers, len(eligible))
	}

	summary := &EngineSummary{Eligible: len(eligible)}

	// The picked set is the only state shared across the fan-out; the
	// mutex also guards the rand source and the summary counters.
	picked := make(map[primitive.ObjectID]bool)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.fanout)

	for _, user := range eligible {
		user := user
		g.Go(func() error {
			assigned, err := e.assignOne(gctx, user, eligible, picked, &mu)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Failed++
				logger.Log.WithError(err).Errorf("Suggestion assignment failed for user %s", user.ID.Hex())
			case assigned:
				summary.Assigned++
			default:
				summary.Skipped++
			}
			return nil // per-user isolation: never abort the run
		})
	}
	_ = g.Wait()

	logger.Log.WithFields(map[string]interface{}{
		"eligible": summary.Eligible,
		"assigned": summary.Assigned,
		"skipped":  summary.Skipped,
		"failed":   summary.Failed,
	}).Info("Suggestion engine run completed")

	return summary, nil
}

func (e *SuggestionEngine) assignOne(ctx context.Context, user models.User, eligible []models.User, picked map[primitive.ObjectID]bool, mu *sync.Mutex) (bool, error) {
	blacklist, err := e.graph.BlacklistOf(ctx, user.ID)
	if err != nil {
		return false, err
	}
	friends, err := e.graph.FriendsOf(ctx, user.ID)
	if err != nil {
		return false, err
	}

	excluded := make(map[primitive.ObjectID]bool, len(blacklist)+len(friends)+2)
	excluded[user.ID] = true
	excluded[e.botID] = true
	for _, id := range blacklist {
		excluded[id] = true
	}
	for _, id := range friends {
		excluded[id] = true
	}

	var candidates []models.User
	for _, other := range eligible {
		if !excluded[other.ID] {
			candidates = append(candidates, other)
		}
	}

	// Pick and record under one lock so two users cannot grab the same
	// target. The fallback drops only the picked-this-run constraint;
	// blacklist and friend exclusion always hold.
	mu.Lock()
	var pool []models.User
	for _, c := range candidates {
		if !picked[c.ID] {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		pool = candidates
	}
	if len(pool) == 0 {
		mu.Unlock()
		return false, nil
	}
	target := pool[e.rng.Intn(len(pool))]
	picked[target.ID] = true
	mu.Unlock()

	if _, err := e.chats.FindOrCreateBotChat(ctx, user.ID); err != nil {
		return false, err
	}
	if _, err := e.pairs.Create(ctx, &models.SuggestedPair{
		UserID:          user.ID,
		SuggestedUserID: target.ID,
	}); err != nil {
		return false, err
	}

	return true, nil
}
