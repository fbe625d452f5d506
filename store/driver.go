package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Session history related methods.
	AppendSessionMessages(ctx context.Context, create *AppendSessionMessages) error
	ListSessionMessages(ctx context.Context, find *FindSessionMessage) ([]*SessionMessage, error)
	DeleteSession(ctx context.Context, delete *DeleteSession) error
	DeleteExpiredSessions(ctx context.Context, nowTs int64) (int64, error)
}
