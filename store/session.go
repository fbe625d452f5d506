package store

// SessionMessage is one persisted message of a conversation session.
type SessionMessage struct {
	ID        int64
	SessionID string
	Role      string
	Content   string
	CreatedTs int64
}

// AppendSessionMessages adds messages to a session and moves its expiry.
// All messages are written in one transaction.
type AppendSessionMessages struct {
	SessionID string
	Messages  []*SessionMessage
	// NowTs is the write time. A session already expired at NowTs starts over.
	NowTs     int64
	ExpiresTs int64
}

// FindSessionMessage selects the messages of a live session.
type FindSessionMessage struct {
	SessionID string
	// NowTs filters out sessions whose expiry is not after it.
	NowTs int64
}

// DeleteSession removes a session and its messages.
type DeleteSession struct {
	SessionID string
}
