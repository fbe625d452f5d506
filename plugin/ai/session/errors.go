package session

import (
	"errors"
	"fmt"
)

// ErrEmptySessionID is returned for operations without a session id.
var ErrEmptySessionID = errors.New("session id is empty")

// SessionStoreError reports that the backing store could not serve a request.
type SessionStoreError struct {
	Op        string // append, load, clear or cleanup
	SessionID string
	Err       error
}

func (e *SessionStoreError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("session store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("session store %s %q: %v", e.Op, e.SessionID, e.Err)
}

func (e *SessionStoreError) Unwrap() error {
	return e.Err
}

// IsStoreError reports whether err is, or wraps, a *SessionStoreError.
func IsStoreError(err error) bool {
	var se *SessionStoreError
	return errors.As(err, &se)
}
