package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/comy-dev/comy-server/internal/apperrors"
	"github.com/comy-dev/comy-server/internal/gateway"
	"github.com/comy-dev/comy-server/internal/models"
	"github.com/comy-dev/comy-server/pkg/logger"
	"github.com/comy-dev/comy-server/pkg/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AcceptFlow selects what an accepted response does: a suggestion card
// forwards a match request to the other party, a match card seals the
// connection. The shared pipeline (validate, fetch, read, transition,
// echo) is identical for both.
type AcceptFlow int

const (
	FlowSuggestion AcceptFlow = iota
	FlowMatch
)

// The two response literals a card accepts. Anything else is invalid.
const (
	ResponseAccept = "desires match"
	ResponseReject = "does not desire match"
)

// Narration pacing. The echo pause and the beat between scripted
// messages are product-visible ordering, not performance waits.
const (
	echoDelay      = 800 * time.Millisecond
	narrationDelay = 400 * time.Millisecond
)

// RespondInput is a user's reply to a suggestion or match card.
type RespondInput struct {
	MessageID string
	Response  string
	UserID    string
}

// RespondResult carries the bot's confirmation text and, for the match
// flow, the id of the newly opened group chat.
type RespondResult struct {
	Message string `json:"message"`
	ChatID  string `json:"chatId,omitempty"`
}

// ResponseService drives the suggestion state machine: pending is the
// initial state, accepted and rejected are terminal. Once the status
// transition lands, later narration failures are logged and never rolled
// back.
type ResponseService struct {
	botMessages BotMessageStore
	directory   UserDirectory
	chats       *ChatService
	graph       *GraphService
	gw          gateway.Gateway
	registry    *templates.Registry
	delay       Delayer
	botID       primitive.ObjectID
}

func NewResponseService(
	botMessages BotMessageStore,
	directory UserDirectory,
	chats *ChatService,
	graph *GraphService,
	gw gateway.Gateway,
	registry *templates.Registry,
	delay Delayer,
	botID primitive.ObjectID,
) *ResponseService {
	return &ResponseService{
		botMessages: botMessages,
		directory:   directory,
		chats:       chats,
		graph:       graph,
		gw:          gw,
		registry:    registry,
		delay:       delay,
		botID:       botID,
	}
}

// Respond processes one reply end to end. Steps are strictly ordered:
// validate, load, mark read, transition, echo, then the flow-specific
// branch. The status check and transition are not globally locked; the
// transition itself is conditional on pending, so a lost race surfaces
// as AlreadyProcessed.
func (s *ResponseService) Respond(ctx context.Context, in RespondInput, flow AcceptFlow) (*RespondResult, error) {
	if in.Response != ResponseAccept && in.Response != ResponseReject {
		return nil, fmt.Errorf("%w: unknown response %q", apperrors.ErrInvalidInput, in.Response)
	}

	messageID, err := primitive.ObjectIDFromHex(in.MessageID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed message id", apperrors.ErrInvalidInput)
	}
	userID, err := primitive.ObjectIDFromHex(in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed user id", apperrors.ErrInvalidInput)
	}

	card, err := s.botMessages.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if card == nil || card.SuggestedUserID.IsZero() || card.RecipientID != userID {
		return nil, fmt.Errorf("%w: suggestion %s", apperrors.ErrNotFound, in.MessageID)
	}
	if card.Status != models.SuggestionPending {
		return nil, fmt.Errorf("%w: suggestion %s is %s", apperrors.ErrAlreadyProcessed, in.MessageID, card.Status)
	}

	user, err := s.directory.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	suggested, err := s.directory.FindByID(ctx, card.SuggestedUserID)
	if err != nil {
		return nil, err
	}
	if user == nil || suggested == nil {
		return nil, fmt.Errorf("%w: user behind suggestion %s", apperrors.ErrNotFound, in.MessageID)
	}

	if err := s.chats.MarkChatRead(ctx, card.ChatID, userID); err != nil {
		return nil, err
	}

	status := models.SuggestionRejected
	if in.Response == ResponseAccept {
		status = models.SuggestionAccepted
	}
	ok, err := s.botMessages.TransitionStatus(ctx, card.ID, status)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: suggestion %s", apperrors.ErrAlreadyProcessed, in.MessageID)
	}

	// The suggestion is terminal from here on. Everything below is
	// narration and side effects: failures are logged, not rolled back.
	if _, err := s.chats.AppendMessage(ctx, card.ChatID, userID, in.Response, ""); err != nil {
		logger.Log.WithError(err).Errorf("Failed to echo response for suggestion %s", card.ID.Hex())
	}
	s.pause(ctx, echoDelay)

	vars := templates.Vars{
		"UserName":      user.Name,
		"SuggestedName": suggested.Name,
		"Category":      user.Category,
	}

	if status == models.SuggestionRejected {
		return s.finishRejected(ctx, card, user, suggested, vars)
	}

	switch flow {
	case FlowMatch:
		return s.finishAcceptedMatch(ctx, card, user, suggested, vars)
	default:
		return s.finishAcceptedSuggestion(ctx, card, user, suggested, vars)
	}
}

// finishRejected blacklists the pair in both directions and plays the
// scripted rejection narrative: three texts plus one image message.
func (s *ResponseService) finishRejected(ctx context.Context, card *models.BotMessage, user, suggested *models.User, vars templates.Vars) (*RespondResult, error) {
	if err := s.graph.AddBlacklist(ctx, user.ID, suggested.ID); err != nil {
		logger.Log.WithError(err).Errorf("Failed to blacklist pair %s/%s", user.ID.Hex(), suggested.ID.Hex())
	}

	rendered, err := s.registry.Render(templates.KeyRejectionNarrative, vars)
	if err != nil {
		logger.Log.WithError(err).Error("Rejection narrative template failed")
		return &RespondResult{Message: ""}, nil
	}

	for _, text := range rendered.Texts {
		s.pause(ctx, narrationDelay)
		if _, err := s.chats.AppendMessage(ctx, card.ChatID, s.botID, text, ""); err != nil {
			logger.Log.WithError(err).Errorf("Failed to push rejection narration in chat %s", card.ChatID.Hex())
		}
	}
	s.pause(ctx, narrationDelay)
	if _, err := s.chats.AppendMessage(ctx, card.ChatID, s.botID, "", rendered.ImageURL); err != nil {
		logger.Log.WithError(err).Errorf("Failed to push rejection image in chat %s", card.ChatID.Hex())
	}

	return &RespondResult{Message: strings.Join(rendered.Texts, "\n")}, nil
}

// finishAcceptedSuggestion confirms to the responder, then forwards a
// match-request card to the suggested user's bot chat unless an
// identical pending request already exists.
func (s *ResponseService) finishAcceptedSuggestion(ctx context.Context, card *models.BotMessage, user, suggested *models.User, vars templates.Vars) (*RespondResult, error) {
	confirm := s.renderSingle(templates.KeySuggestionAccept, vars)
	if _, err := s.chats.AppendMessage(ctx, card.ChatID, s.botID, confirm, ""); err != nil {
		logger.Log.WithError(err).Errorf("Failed to push confirmation in chat %s", card.ChatID.Hex())
	}

	otherChat, err := s.chats.FindOrCreateBotChat(ctx, suggested.ID)
	if err != nil {
		logger.Log.WithError(err).Errorf("Failed to open bot chat for %s", suggested.ID.Hex())
		return &RespondResult{Message: confirm}, nil
	}

	// Duplicate guard: same parties, still pending, nothing new to send.
	existing, err := s.botMessages.FindPendingCard(ctx, otherChat.ID, s.botID, suggested.ID, user.ID)
	if err != nil {
		logger.Log.WithError(err).Error("Match-request duplicate check failed")
		return &RespondResult{Message: confirm}, nil
	}
	if existing == nil {
		content := s.renderSingle(templates.KeyMatchRequestCard, vars)
		matchCard, err := s.chats.AppendMatchCard(ctx, otherChat.ID, suggested.ID, user.ID, content)
		if err != nil {
			logger.Log.WithError(err).Errorf("Failed to send match request to %s", suggested.ID.Hex())
		} else {
			s.gw.Emit(otherChat.ID.Hex(), matchCard)
		}
	}

	return &RespondResult{Message: confirm}, nil
}

// finishAcceptedMatch makes the pair friends, opens the group chat with
// the scripted introduction, and notifies the suggested user.
func (s *ResponseService) finishAcceptedMatch(ctx context.Context, card *models.BotMessage, user, suggested *models.User, vars templates.Vars) (*RespondResult, error) {
	if err := s.graph.AddFriend(ctx, user.ID, suggested.ID); err != nil {
		logger.Log.WithError(err).Errorf("Failed to add friend edge %s/%s", user.ID.Hex(), suggested.ID.Hex())
	}

	confirm := s.renderSingle(templates.KeyMatchAccept, vars)
	if _, err := s.chats.AppendMessage(ctx, card.ChatID, s.botID, confirm, ""); err != nil {
		logger.Log.WithError(err).Errorf("Failed to push confirmation in chat %s", card.ChatID.Hex())
	}

	result := &RespondResult{Message: confirm}

	group, err := s.chats.CreateGroupChat(ctx, user.ID, suggested.ID)
	if err != nil {
		logger.Log.WithError(err).Errorf("Failed to create group chat for %s/%s", user.ID.Hex(), suggested.ID.Hex())
	} else {
		result.ChatID = group.ID.Hex()
		if intro, err := s.registry.Render(templates.KeyGroupIntroNarrative, vars); err != nil {
			logger.Log.WithError(err).Error("Group intro template failed")
		} else {
			for _, text := range intro.Texts {
				s.pause(ctx, narrationDelay)
				if _, err := s.chats.AppendMessage(ctx, group.ID, s.botID, text, ""); err != nil {
					logger.Log.WithError(err).Errorf("Failed to push intro narration in chat %s", group.ID.Hex())
				}
			}
		}
	}

	otherChat, err := s.chats.FindOrCreateBotChat(ctx, suggested.ID)
	if err != nil {
		logger.Log.WithError(err).Errorf("Failed to open bot chat for %s", suggested.ID.Hex())
		return result, nil
	}
	notification := s.renderSingle(templates.KeyMatchNotification, vars)
	if _, err := s.chats.AppendMessage(ctx, otherChat.ID, s.botID, notification, ""); err != nil {
		logger.Log.WithError(err).Errorf("Failed to notify %s", suggested.ID.Hex())
	}

	return result, nil
}

// renderSingle renders a one-text template, falling back to empty on a
// template failure (logged; templates are validated at startup, so this
// only fires on a bad vars/key pairing).
func (s *ResponseService) renderSingle(key string, vars templates.Vars) string {
	rendered, err := s.registry.Render(key, vars)
	if err != nil || len(rendered.Texts) == 0 {
		logger.Log.WithError(err).Errorf("Template %s failed to render", key)
		return ""
	}
	return rendered.Texts[0]
}

func (s *ResponseService) pause(ctx context.Context, d time.Duration) {
	if err := s.delay.Wait(ctx, d); err != nil {
		logger.Log.WithError(err).Warn("Narration delay interrupted")
	}
}
