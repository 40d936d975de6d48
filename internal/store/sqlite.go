// Package store persists processed flood events in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/flood-recovery-service/internal/domain"
)

// ErrNotFound is returned by Get when no event has the requested ID.
var ErrNotFound = errors.New("event not found")

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id                  TEXT PRIMARY KEY,
	flood_date          TEXT NOT NULL,
	lat                 REAL NOT NULL,
	lon                 REAL NOT NULL,
	recovery_percentage REAL NOT NULL,
	processed_at        TEXT NOT NULL,
	result              TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_processed_at ON events (processed_at);
`

// Store is a SQLite-backed event store. Safe for concurrent use; the
// underlying *sql.DB serializes writes.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the schema exists. Use ":memory:" for an ephemeral store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Insert persists a processed result and returns its assigned ID.
func (s *Store) Insert(ctx context.Context, result *domain.FloodEventResult) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (id, flood_date, lat, lon, recovery_percentage, processed_at, result)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		result.FloodDate.UTC().Format("2006-01-02"),
		result.Location.Lat,
		result.Location.Lon,
		result.RecoveryMetrics.RecoveryPercentage,
		result.ProcessedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("inserting event: %w", err)
	}

	s.logger.Debug("event stored", "event_id", id)
	return id, nil
}

// Get returns the stored event with the given ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (domain.StoredEvent, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM events WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StoredEvent{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return domain.StoredEvent{}, fmt.Errorf("querying event: %w", err)
	}

	event := domain.StoredEvent{ID: id}
	if err := json.Unmarshal([]byte(payload), &event.Result); err != nil {
		return domain.StoredEvent{}, fmt.Errorf("decoding stored result: %w", err)
	}
	return event, nil
}

// List returns all stored events ordered by processing time, newest first.
func (s *Store) List(ctx context.Context) ([]domain.StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, result FROM events ORDER BY processed_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []domain.StoredEvent
	for rows.Next() {
		var (
			id      string
			payload string
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		event := domain.StoredEvent{ID: id}
		if err := json.Unmarshal([]byte(payload), &event.Result); err != nil {
			return nil, fmt.Errorf("decoding stored result %s: %w", id, err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
