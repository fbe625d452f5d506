package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

// Schema files live at migration/{driver}/LATEST.sql. Every statement is
// idempotent so Migrate runs on each start.

//go:embed migration
var migrationFS embed.FS

// LatestSchemaFileName is the name of the latest schema file.
const LatestSchemaFileName = "LATEST.sql"

// Migrate applies the latest schema for the configured driver.
func (s *Store) Migrate(ctx context.Context) error {
	filePath := fmt.Sprintf("migration/%s/%s", s.profile.Driver, LatestSchemaFileName)
	bytes, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema file: %s", filePath)
	}

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	if err := execute(ctx, tx, string(bytes)); err != nil {
		return errors.Wrapf(err, "failed to execute schema %s", filePath)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	slog.Info("database schema applied", slog.String("driver", s.profile.Driver))
	return nil
}

// execute runs each semicolon separated statement of stmt.
func execute(ctx context.Context, tx *sql.Tx, stmt string) error {
	for _, part := range strings.Split(stmt, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, part); err != nil {
			return errors.Wrap(err, part)
		}
	}
	return nil
}
