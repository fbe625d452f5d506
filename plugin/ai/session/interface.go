// Package session keeps ordered, expiring conversation history per session.
package session

import (
	"context"
	"time"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one immutable entry of a session history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists session histories. Implementations must be safe for
// concurrent use; distinct sessions never block each other.
type Store interface {
	// Append adds msgs to the end of the session, creating it if absent, and
	// restarts its TTL. Either every message is stored or none is.
	Append(ctx context.Context, sessionID string, msgs ...Message) error

	// Load returns a copy of the history in insertion order. Missing and
	// expired sessions return an empty slice.
	Load(ctx context.Context, sessionID string) ([]Message, error)

	// Clear removes the session immediately.
	Clear(ctx context.Context, sessionID string) error
}

// Expirer purges expired sessions. Used by CleanupJob.
type Expirer interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// UserMessage builds a user message stamped now.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, CreatedAt: time.Now()}
}

// AssistantMessage builds an assistant message stamped now.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, CreatedAt: time.Now()}
}
