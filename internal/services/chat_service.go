package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/comy-dev/comy-server/internal/gateway"
	"github.com/comy-dev/comy-server/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatService owns chat and message persistence plus the real-time push.
// Messages are appended, never edited; the latest-message pointer on the
// chat is refreshed on every append.
type ChatService struct {
	chats       ChatStore
	messages    MessageStore
	botMessages BotMessageStore
	gw          gateway.Gateway
	botID       primitive.ObjectID
}

func NewChatService(chats ChatStore, messages MessageStore, botMessages BotMessageStore, gw gateway.Gateway, botID primitive.ObjectID) *ChatService {
	return &ChatService{
		chats:       chats,
		messages:    messages,
		botMessages: botMessages,
		gw:          gw,
		botID:       botID,
	}
}

// FindOrCreateBotChat returns the user's private chat with the bot,
// creating it on first use. Safe to call repeatedly.
func (s *ChatService) FindOrCreateBotChat(ctx context.Context, userID primitive.ObjectID) (*models.Chat, error) {
	chat, err := s.chats.FindPrivateChat(ctx, s.botID, userID)
	if err != nil {
		return nil, err
	}
	if chat != nil {
		return chat, nil
	}

	return s.chats.CreateChat(ctx, &models.Chat{
		IsGroup: false,
		Members: []models.ChatMember{
			{UserID: userID, Role: models.RoleMember},
			{UserID: s.botID, Role: models.RoleMember},
		},
	})
}

// CreateGroupChat opens the three-member chat the match flow drops both
// users into, with the bot as admin.
func (s *ChatService) CreateGroupChat(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	return s.chats.CreateChat(ctx, &models.Chat{
		IsGroup: true,
		Members: []models.ChatMember{
			{UserID: a, Role: models.RoleMember},
			{UserID: b, Role: models.RoleMember},
			{UserID: s.botID, Role: models.RoleAdmin},
		},
	})
}

// AppendMessage stores a message, refreshes the chat's latest-message
// pointer and pushes the message through the gateway.
func (s *ChatService) AppendMessage(ctx context.Context, chatID, senderID primitive.ObjectID, content, imageURL string) (*models.Message, error) {
	msg, err := s.messages.InsertMessage(ctx, &models.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
		ImageURL: imageURL,
	})
	if err != nil {
		return nil, err
	}

	if err := s.chats.UpdateLatestMessage(ctx, chatID, &models.LatestMessageRef{
		MessageID: msg.ID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: msg.CreatedAt,
	}); err != nil {
		return nil, err
	}

	s.gw.Emit(chatID.Hex(), msg)
	return msg, nil
}

// AppendMatchCard stores a bot card in the chat and refreshes the
// latest-message pointer. It does not push: the dispatcher batches its
// pushes and the response flow emits the card itself.
func (s *ChatService) AppendMatchCard(ctx context.Context, chatID, recipientID, suggestedID primitive.ObjectID, content string) (*models.BotMessage, error) {
	card, err := s.botMessages.Create(ctx, &models.BotMessage{
		ChatID:          chatID,
		SenderID:        s.botID,
		RecipientID:     recipientID,
		SuggestedUserID: suggestedID,
		Status:          models.SuggestionPending,
		IsMatchCard:     true,
		Content:         content,
	})
	if err != nil {
		return nil, err
	}

	if err := s.chats.UpdateLatestMessage(ctx, chatID, &models.LatestMessageRef{
		MessageID: card.ID,
		SenderID:  s.botID,
		Content:   content,
		CreatedAt: card.CreatedAt,
	}); err != nil {
		return nil, fmt.Errorf("card stored but pointer update failed: %v", err)
	}

	return card, nil
}

// MarkChatRead adds the user to the read set of every message and card in
// the chat. Read sets only grow.
func (s *ChatService) MarkChatRead(ctx context.Context, chatID, userID primitive.ObjectID) error {
	if err := s.messages.MarkAllRead(ctx, chatID, userID); err != nil {
		return err
	}
	return s.botMessages.MarkAllRead(ctx, chatID, userID)
}

// History returns the chat's full log in creation order, plain messages
// and bot cards interleaved. This is the recovery path that makes
// best-effort gateway delivery acceptable, so cards must be in it: a
// client that missed the push still has to find the actionable card.
func (s *ChatService) History(ctx context.Context, chatID primitive.ObjectID) ([]interface{}, error) {
	msgs, err := s.messages.GetChatMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	cards, err := s.botMessages.GetChatMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}

	type entry struct {
		at   time.Time
		item interface{}
	}
	entries := make([]entry, 0, len(msgs)+len(cards))
	for i := range msgs {
		entries = append(entries, entry{msgs[i].CreatedAt, msgs[i]})
	}
	for i := range cards {
		entries = append(entries, entry{cards[i].CreatedAt, cards[i]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].at.Before(entries[j].at)
	})

	log := make([]interface{}, len(entries))
	for i, e := range entries {
		log[i] = e.item
	}
	return log, nil
}

// ChatByID exposes chat lookup for the HTTP layer's membership check.
func (s *ChatService) ChatByID(ctx context.Context, chatID primitive.ObjectID) (*models.Chat, error) {
	return s.chats.FindByID(ctx, chatID)
}
