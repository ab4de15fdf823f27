package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// DefaultHistoryLimit is how many play history rows are kept.
const DefaultHistoryLimit = 500

// Store is the local cache of songs, history, favorites and user playlists, backed by Postgres.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// SongRow is a cached song.
type SongRow struct {
	ID         int64
	Name       string
	Artist     string
	Album      string
	CoverURL   string
	DurationMs int64
	Source     string
	URL        string
	UpdatedAt  time.Time
}

// HistoryRow is one play of a song.
type HistoryRow struct {
	ID             int64
	SongID         int64
	SongName       string
	Artist         string
	CoverURL       string
	PlayedAt       time.Time
	PlayDurationMs int64
}

// FavoriteRow is a favorited song.
type FavoriteRow struct {
	SongID     int64
	SongName   string
	Artist     string
	Album      string
	CoverURL   string
	DurationMs int64
	AddedAt    time.Time
}

// PlaylistRow is a user-defined playlist.
type PlaylistRow struct {
	ID          int64
	Name        string
	Description string
	CoverURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PlaylistSongRow links a song to a playlist at a position.
type PlaylistSongRow struct {
	ID         int64
	PlaylistID int64
	SongID     int64
	SongName   string
	Artist     string
	Album      string
	CoverURL   string
	DurationMs int64
	OrderIndex int
	AddedAt    time.Time
}
