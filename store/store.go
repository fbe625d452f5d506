package store

import (
	"context"

	"github.com/shvkateryna/internship/internal/profile"
)

// Store provides database access to session history.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) AppendSessionMessages(ctx context.Context, create *AppendSessionMessages) error {
	return s.driver.AppendSessionMessages(ctx, create)
}

func (s *Store) ListSessionMessages(ctx context.Context, find *FindSessionMessage) ([]*SessionMessage, error) {
	return s.driver.ListSessionMessages(ctx, find)
}

func (s *Store) DeleteSession(ctx context.Context, delete *DeleteSession) error {
	return s.driver.DeleteSession(ctx, delete)
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, nowTs int64) (int64, error) {
	return s.driver.DeleteExpiredSessions(ctx, nowTs)
}
