// Package blobstore is the local persistence layer: opaque payload slots for
// cached reference data and the saved favorites list, backed by SQLite.
package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // CGo-based SQLite driver
	"railwatch.transitlabs.org/internal/models"
)

// Slot keys for cached reference payloads.
const (
	SlotStops     = "stops"
	SlotSchedules = "schedules"
)

// ErrNotFound is returned by Get when a slot has never been written.
var ErrNotFound = errors.New("blob not found")

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS favorites (
	start_station TEXT NOT NULL,
	end_station   TEXT NOT NULL,
	position      INTEGER NOT NULL,
	PRIMARY KEY (start_station, end_station)
);
`

// Store is the main entry point for local persistence.
type Store struct {
	db *sql.DB
}

// Open creates or opens the store at path. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open blob store: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to create blob store tables: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the payload stored under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM blobs WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob %q: %w", key, err)
	}
	return payload, nil
}

// Put stores payload under key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing blob %q: %w", key, err)
	}
	return nil
}

// Favorites returns the saved station pairs in their saved order.
func (s *Store) Favorites(ctx context.Context) ([]models.StationPair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT start_station, end_station FROM favorites ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("reading favorites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pairs []models.StationPair
	for rows.Next() {
		var pair models.StationPair
		if err := rows.Scan(&pair.Start, &pair.End); err != nil {
			return nil, fmt.Errorf("scanning favorite: %w", err)
		}
		pairs = append(pairs, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading favorites: %w", err)
	}
	return pairs, nil
}

// SaveFavorites replaces the saved favorites list atomically.
func (s *Store) SaveFavorites(ctx context.Context, pairs []models.StationPair) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving favorites: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM favorites`); err != nil {
		return fmt.Errorf("clearing favorites: %w", err)
	}
	for i, pair := range pairs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO favorites (start_station, end_station, position) VALUES (?, ?, ?)`,
			pair.Start, pair.End, i); err != nil {
			return fmt.Errorf("inserting favorite %s: %w", pair.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("saving favorites: %w", err)
	}
	return nil
}
