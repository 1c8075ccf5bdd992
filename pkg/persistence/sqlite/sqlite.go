// Package sqlite provides an embedded SQLite cache, suited to single-user installs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence/sqlbase"
	// SQLite driver (registers "sqlite").
	_ "modernc.org/sqlite"
)

// NewPersistence opens (or creates) the database at databaseURL. Both
// "sqlite://path/to/file.db" and a bare DSN are accepted.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	slots, err := NewSlots(ctx, logger, databaseURL)
	if err != nil {
		return nil, err
	}

	return persistence.NewCache(slots), nil
}

// NewSlots opens the database and returns the raw slot store.
func NewSlots(ctx context.Context, logger *slog.Logger, databaseURL string) (*sqlbase.Slots, error) {
	dsn := strings.TrimPrefix(databaseURL, "sqlite://")

	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// One writer at a time avoids SQLITE_BUSY between pooled connections.
	database.SetMaxOpenConns(1)

	if _, err := database.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	slots, err := sqlbase.NewSlots(ctx, logger, database, sqlbase.QuestionDialect)
	if err != nil {
		_ = database.Close()

		return nil, err
	}

	return slots, nil
}
