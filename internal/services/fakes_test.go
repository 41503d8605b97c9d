package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/comy-dev/comy-server/internal/gateway"
	"github.com/comy-dev/comy-server/internal/models"
	"github.com/comy-dev/comy-server/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

// In-memory fakes for the persistence ports and the gateway.

type memDirectory struct {
	users map[primitive.ObjectID]models.User
}

func newMemDirectory(users ...models.User) *memDirectory {
	d := &memDirectory{users: make(map[primitive.ObjectID]models.User)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *memDirectory) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (d *memDirectory) FindActiveUsers(_ context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range d.users {
		if u.IsActive() {
			out = append(out, u)
		}
	}
	return out, nil
}

type memChats struct {
	chats []*models.Chat
}

func (s *memChats) CreateChat(_ context.Context, chat *models.Chat) (*models.Chat, error) {
	chat.ID = primitive.NewObjectID()
	chat.CreatedAt = time.Now()
	s.chats = append(s.chats, chat)
	return chat, nil
}

func (s *memChats) FindPrivateChat(_ context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	for _, c := range s.chats {
		if !c.IsGroup && len(c.Members) == 2 && c.HasMember(a) && c.HasMember(b) {
			return c, nil
		}
	}
	return nil, nil
}

func (s *memChats) FindByID(_ context.Context, id primitive.ObjectID) (*models.Chat, error) {
	for _, c := range s.chats {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (s *memChats) UpdateLatestMessage(_ context.Context, chatID primitive.ObjectID, ref *models.LatestMessageRef) error {
	for _, c := range s.chats {
		if c.ID == chatID {
			c.LatestMessage = ref
			return nil
		}
	}
	return fmt.Errorf("chat %s not found", chatID.Hex())
}

type memMessages struct {
	msgs []*models.Message
}

func (s *memMessages) InsertMessage(_ context.Context, msg *models.Message) (*models.Message, error) {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	s.msgs = append(s.msgs, msg)
	return msg, nil
}

func (s *memMessages) GetChatMessages(_ context.Context, chatID primitive.ObjectID) ([]models.Message, error) {
	var out []models.Message
	for _, m := range s.msgs {
		if m.ChatID == chatID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *memMessages) MarkAllRead(_ context.Context, chatID, userID primitive.ObjectID) error {
	for _, m := range s.msgs {
		if m.ChatID != chatID {
			continue
		}
		seen := false
		for _, r := range m.ReadBy {
			if r == userID {
				seen = true
			}
		}
		if !seen {
			m.ReadBy = append(m.ReadBy, userID)
		}
	}
	return nil
}

func (s *memMessages) inChat(chatID primitive.ObjectID) []*models.Message {
	var out []*models.Message
	for _, m := range s.msgs {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

type memBotMessages struct {
	cards []*models.BotMessage
}

func (s *memBotMessages) Create(_ context.Context, msg *models.BotMessage) (*models.BotMessage, error) {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	if msg.Status == "" {
		msg.Status = models.SuggestionPending
	}
	s.cards = append(s.cards, msg)
	return msg, nil
}

func (s *memBotMessages) FindByID(_ context.Context, id primitive.ObjectID) (*models.BotMessage, error) {
	for _, c := range s.cards {
		if c.ID == id {
			found := *c
			return &found, nil
		}
	}
	return nil, nil
}

func (s *memBotMessages) FindPendingCard(_ context.Context, chatID, senderID, recipientID, suggestedID primitive.ObjectID) (*models.BotMessage, error) {
	for _, c := range s.cards {
		if c.ChatID == chatID && c.SenderID == senderID && c.RecipientID == recipientID &&
			c.SuggestedUserID == suggestedID && c.Status == models.SuggestionPending {
			found := *c
			return &found, nil
		}
	}
	return nil, nil
}

func (s *memBotMessages) GetChatMessages(_ context.Context, chatID primitive.ObjectID) ([]models.BotMessage, error) {
	var out []models.BotMessage
	for _, c := range s.cards {
		if c.ChatID == chatID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memBotMessages) TransitionStatus(_ context.Context, id primitive.ObjectID, status string) (bool, error) {
	for _, c := range s.cards {
		if c.ID == id && c.Status == models.SuggestionPending {
			c.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (s *memBotMessages) MarkAllRead(_ context.Context, chatID, userID primitive.ObjectID) error {
	for _, c := range s.cards {
		if c.ChatID == chatID {
			c.ReadBy = append(c.ReadBy, userID)
		}
	}
	return nil
}

type edgeKey struct {
	user, other primitive.ObjectID
	kind        string
}

type memEdges struct {
	edges map[edgeKey]bool
}

func newMemEdges() *memEdges {
	return &memEdges{edges: make(map[edgeKey]bool)}
}

func (s *memEdges) Upsert(_ context.Context, kind string, userID, otherID primitive.ObjectID) error {
	s.edges[edgeKey{userID, otherID, kind}] = true
	return nil
}

func (s *memEdges) Exists(_ context.Context, kind string, a, b primitive.ObjectID) (bool, error) {
	return s.edges[edgeKey{a, b, kind}] || s.edges[edgeKey{b, a, kind}], nil
}

func (s *memEdges) ListFor(_ context.Context, kind string, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	for k := range s.edges {
		if k.kind == kind && k.user == userID {
			out = append(out, k.other)
		}
	}
	return out, nil
}

type fakeGateway struct {
	emits []gateway.Outbound
	bulks int
}

func (g *fakeGateway) Emit(chatID string, payload interface{}) {
	g.emits = append(g.emits, gateway.Outbound{ChatID: chatID, Payload: payload})
}

func (g *fakeGateway) EmitBulk(batch []gateway.Outbound) {
	g.bulks++
	g.emits = append(g.emits, batch...)
}

type instantDelayer struct {
	waits []time.Duration
}

func (d *instantDelayer) Wait(_ context.Context, dur time.Duration) error {
	d.waits = append(d.waits, dur)
	return nil
}
