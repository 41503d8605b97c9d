// Package gateway is the push-only real-time transport. Delivery is
// best-effort: the message log in Mongo is the source of truth and a
// socket push is only a freshness hint, so clients must recover by
// re-fetching chat history.
package gateway

// Outbound is one payload addressed to a chat room.
type Outbound struct {
	ChatID  string
	Payload interface{}
}

// Gateway pushes payloads to connected clients. Emit is fire-and-forget;
// failures are logged and dropped, never retried.
type Gateway interface {
	Emit(chatID string, payload interface{})
	EmitBulk(batch []Outbound)
}
