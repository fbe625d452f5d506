package session

import (
	"context"
)

// DefaultMaxHistoryMessages is the window handed to routing and generation.
const DefaultMaxHistoryMessages = 20

// History reads and writes whole turns on top of a Store.
type History struct {
	store       Store
	maxMessages int
}

// NewHistory creates a History. maxMessages bounds Recent.
func NewHistory(store Store, maxMessages int) *History {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxHistoryMessages
	}
	return &History{
		store:       store,
		maxMessages: maxMessages,
	}
}

// Store returns the underlying store.
func (h *History) Store() Store {
	return h.store
}

// Recent returns the last maxMessages messages of the session.
func (h *History) Recent(ctx context.Context, sessionID string) ([]Message, error) {
	msgs, err := h.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return Window(msgs, h.maxMessages), nil
}

// AppendTurn stores a user message and the assistant reply in one write.
func (h *History) AppendTurn(ctx context.Context, sessionID, userMsg, assistantMsg string) error {
	return h.store.Append(ctx, sessionID, UserMessage(userMsg), AssistantMessage(assistantMsg))
}

// Window returns the last n messages of msgs. The result shares no memory
// with msgs.
func Window(msgs []Message, n int) []Message {
	if n > 0 && n < len(msgs) {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
