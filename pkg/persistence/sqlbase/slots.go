package sqlbase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence"
)

// Migrations creates the slot table. The SQL is portable between PostgreSQL and SQLite.
func Migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE cache_slots (
				slot_key VARCHAR(512) PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`,
	}
}

// Dialect renders the n-th (1-based) bind parameter.
type Dialect func(n int) string

// DollarDialect renders $1, $2, ... (PostgreSQL).
func DollarDialect(n int) string {
	return "$" + strconv.Itoa(n)
}

// QuestionDialect renders ? (SQLite, MySQL).
func QuestionDialect(int) string {
	return "?"
}

// Slots implements persistence.Slots on a cache_slots table.
type Slots struct {
	db      *sql.DB
	logger  *slog.Logger
	dialect Dialect
}

var _ persistence.Slots = (*Slots)(nil)

// NewSlots runs the slot migrations on db and returns the slot store.
func NewSlots(ctx context.Context, logger *slog.Logger, db *sql.DB, dialect Dialect) (*Slots, error) {
	if err := NewMigrationManager(logger, db, Migrations()).RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Slots{db: db, logger: logger, dialect: dialect}, nil
}

func (s *Slots) Get(ctx context.Context, key string) ([]byte, error) {
	var value string

	query := "SELECT value FROM cache_slots WHERE slot_key = " + s.dialect(1)

	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrSlotNotFound
		}

		return nil, persistence.NewSlotError("Get", key, err)
	}

	return []byte(value), nil
}

func (s *Slots) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO cache_slots (slot_key, value, updated_at)
		VALUES (` + s.dialect(1) + `, ` + s.dialect(2) + `, CURRENT_TIMESTAMP)
		ON CONFLICT (slot_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, key, string(value)); err != nil {
		return persistence.NewSlotError("Put", key, err)
	}

	return nil
}

func (s *Slots) Delete(ctx context.Context, key string) error {
	query := "DELETE FROM cache_slots WHERE slot_key = " + s.dialect(1)

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return persistence.NewSlotError("Delete", key, err)
	}

	return nil
}

func (s *Slots) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM cache_slots"); err != nil {
		return fmt.Errorf("failed to clear slots: %w", err)
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (s *Slots) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *Slots) Close(_ context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	return nil
}
