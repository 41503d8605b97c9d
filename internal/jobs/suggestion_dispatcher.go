package jobs

import (
	"context"
	"fmt"

	"github.com/comy-dev/comy-server/internal/gateway"
	"github.com/comy-dev/comy-server/internal/models"
	"github.com/comy-dev/comy-server/internal/services"
	"github.com/comy-dev/comy-server/pkg/logger"
	"github.com/comy-dev/comy-server/pkg/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SuggestionDispatcher turns pending SuggestedPair records into suggestion
// cards in each user's bot chat. Cards are pushed in one bulk gateway call
// and all handled pairs are flipped to sent in one batched update, so
// re-running over the same data never duplicates a delivered card.
type SuggestionDispatcher struct {
	directory   services.UserDirectory
	pairs       services.SuggestedPairStore
	botMessages services.BotMessageStore
	chats       *services.ChatService
	gw          gateway.Gateway
	registry    *templates.Registry
	botID       primitive.ObjectID
}

func NewSuggestionDispatcher(
	directory services.UserDirectory,
	pairs services.SuggestedPairStore,
	botMessages services.BotMessageStore,
	chats *services.ChatService,
	gw gateway.Gateway,
	registry *templates.Registry,
	botID primitive.ObjectID,
) *SuggestionDispatcher {
	return &SuggestionDispatcher{
		directory:   directory,
		pairs:       pairs,
		botMessages: botMessages,
		chats:       chats,
		gw:          gw,
		registry:    registry,
		botID:       botID,
	}
}

// DispatchSummary reports what a run did.
type DispatchSummary struct {
	Pending   int `json:"pending"`
	Delivered int `json:"delivered"`
	Duplicate int `json:"duplicate"`
	Rejected  int `json:"rejected"`
	Failed    int `json:"failed"`
}

// Run executes one dispatcher pass over all pending pairs. Per-pair
// failures are logged and leave the pair pending for the next run.
func (d *SuggestionDispatcher) Run(ctx context.Context) (*DispatchSummary, error) {
	pending, err := d.pairs.FindPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending pairs: %v", err)
	}

	summary := &DispatchSummary{Pending: len(pending)}
	var outbound []gateway.Outbound
	var sentIDs []primitive.ObjectID

	for _, pair := range pending {
		user, err := d.directory.FindByID(ctx, pair.UserID)
		if err != nil {
			summary.Failed++
			logger.Log.WithError(err).Errorf("Failed to resolve user for pair %s", pair.ID.Hex())
			continue
		}
		suggested, err := d.directory.FindByID(ctx, pair.SuggestedUserID)
		if err != nil {
			summary.Failed++
			logger.Log.WithError(err).Errorf("Failed to resolve suggested user for pair %s", pair.ID.Hex())
			continue
		}
		if user == nil || suggested == nil {
			if err := d.pairs.UpdateStatus(ctx, pair.ID, models.PairRejected); err != nil {
				logger.Log.WithError(err).Errorf("Failed to reject orphaned pair %s", pair.ID.Hex())
			}
			summary.Rejected++
			continue
		}

		chat, err := d.chats.FindOrCreateBotChat(ctx, user.ID)
		if err != nil {
			summary.Failed++
			logger.Log.WithError(err).Errorf("Failed to open bot chat for pair %s", pair.ID.Hex())
			continue
		}

		// Duplicate guard: an identical undecided card means a previous
		// run already delivered this pair.
		existing, err := d.botMessages.FindPendingCard(ctx, chat.ID, d.botID, user.ID, suggested.ID)
		if err != nil {
			summary.Failed++
			logger.Log.WithError(err).Errorf("Duplicate check failed for pair %s", pair.ID.Hex())
			continue
		}
		if existing != nil {
			summary.Duplicate++
			sentIDs = append(sentIDs, pair.ID)
			continue
		}

		rendered, err := d.registry.Render(templates.KeySuggestionCard, templates.Vars{
			"UserName":      user.Name,
			"SuggestedName": suggested.Name,
			"Category":      suggested.Category,
			"Strengths":     suggested.Strengths,
		})
		if err != nil || len(rendered.Texts) == 0 {
			summary.Failed++
			logger.Log.WithError(err).Errorf("Failed to render card for pair %s", pair.ID.Hex())
			continue
		}

		card, err := d.chats.AppendMatchCard(ctx, chat.ID, user.ID, suggested.ID, rendered.Texts[0])
		if err != nil {
			summary.Failed++
			logger.Log.WithError(err).Errorf("Failed to store card for pair %s", pair.ID.Hex())
			continue
		}

		outbound = append(outbound, gateway.Outbound{ChatID: chat.ID.Hex(), Payload: card})
		sentIDs = append(sentIDs, pair.ID)
		summary.Delivered++
	}

	d.gw.EmitBulk(outbound)
	if err := d.pairs.MarkSent(ctx, sentIDs); err != nil {
		return summary, fmt.Errorf("failed to mark pairs sent: %v", err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"pending":   summary.Pending,
		"delivered": summary.Delivered,
		"duplicate": summary.Duplicate,
		"rejected":  summary.Rejected,
		"failed":    summary.Failed,
	}).Info("Suggestion dispatcher run completed")

	return summary, nil
}
