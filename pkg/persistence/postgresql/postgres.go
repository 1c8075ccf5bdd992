// Package postgresql provides PostgreSQL persistence for the builder cache.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence/sqlbase"
)

// NewPersistence connects to PostgreSQL, runs migrations and returns the typed cache.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	slots, err := NewSlots(ctx, logger, databaseURL)
	if err != nil {
		return nil, err
	}

	return persistence.NewCache(slots), nil
}

// NewSlots opens the database and returns the raw slot store.
func NewSlots(ctx context.Context, logger *slog.Logger, databaseURL string) (*sqlbase.Slots, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slots, err := sqlbase.NewSlots(ctx, logger, database, sqlbase.DollarDialect)
	if err != nil {
		_ = database.Close()

		return nil, err
	}

	return slots, nil
}
