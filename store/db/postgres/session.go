package postgres

import (
	"context"
	"fmt"

	"github.com/shvkateryna/internship/store"
)

func (d *DB) AppendSessionMessages(ctx context.Context, create *store.AppendSessionMessages) error {
	if create == nil || create.SessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// An expired session starts over instead of resurrecting old messages.
	reset := `
		DELETE FROM session_message
		WHERE session_id IN (SELECT session_id FROM session WHERE session_id = $1 AND expires_ts <= $2)
	`
	if _, err := tx.ExecContext(ctx, reset, create.SessionID, create.NowTs); err != nil {
		return fmt.Errorf("failed to reset expired session: %w", err)
	}

	upsert := `
		INSERT INTO session (session_id, expires_ts, updated_ts)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE SET
			expires_ts = EXCLUDED.expires_ts,
			updated_ts = EXCLUDED.updated_ts
	`
	if _, err := tx.ExecContext(ctx, upsert, create.SessionID, create.ExpiresTs, create.NowTs); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO session_message (session_id, role, content, created_ts) VALUES ($1, $2, $3, $4) RETURNING id")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range create.Messages {
		if err := stmt.QueryRowContext(ctx, create.SessionID, m.Role, m.Content, m.CreatedTs).Scan(&m.ID); err != nil {
			return fmt.Errorf("failed to insert session message: %w", err)
		}
		m.SessionID = create.SessionID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session messages: %w", err)
	}
	return nil
}

func (d *DB) ListSessionMessages(ctx context.Context, find *store.FindSessionMessage) ([]*store.SessionMessage, error) {
	if find == nil || find.SessionID == "" {
		return nil, fmt.Errorf("session id cannot be empty")
	}

	query := `
		SELECT m.id, m.session_id, m.role, m.content, m.created_ts
		FROM session_message m
		JOIN session s ON s.session_id = m.session_id
		WHERE m.session_id = $1 AND s.expires_ts > $2
		ORDER BY m.id ASC
	`
	rows, err := d.db.QueryContext(ctx, query, find.SessionID, find.NowTs)
	if err != nil {
		return nil, fmt.Errorf("failed to list session messages: %w", err)
	}
	defer rows.Close()

	list := []*store.SessionMessage{}
	for rows.Next() {
		var m store.SessionMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan session message: %w", err)
		}
		list = append(list, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session messages: %w", err)
	}
	return list, nil
}

func (d *DB) DeleteSession(ctx context.Context, delete *store.DeleteSession) error {
	if delete == nil || delete.SessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM session_message WHERE session_id = $1", delete.SessionID); err != nil {
		return fmt.Errorf("failed to delete session messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM session WHERE session_id = $1", delete.SessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return tx.Commit()
}

func (d *DB) DeleteExpiredSessions(ctx context.Context, nowTs int64) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	expiredMessages := `
		DELETE FROM session_message
		WHERE session_id IN (SELECT session_id FROM session WHERE expires_ts <= $1)
	`
	if _, err := tx.ExecContext(ctx, expiredMessages, nowTs); err != nil {
		return 0, fmt.Errorf("failed to delete expired messages: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM session WHERE expires_ts <= $1", nowTs)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count expired sessions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit cleanup: %w", err)
	}
	return deleted, nil
}
