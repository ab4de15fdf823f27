package store

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertHistory records a play and trims the table to the keep most recent rows.
func (s *Store) InsertHistory(ctx context.Context, row HistoryRow, keep int) error {
	if keep <= 0 {
		keep = DefaultHistoryLimit
	}
	playedAt := row.PlayedAt
	if playedAt.IsZero() {
		playedAt = s.now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO play_history (song_id, song_name, artist, cover_url, played_at, play_duration_ms)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, row.SongID, row.SongName, row.Artist, row.CoverURL, playedAt, row.PlayDurationMs); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
		if _, err := tx.ExecContext(ctx, trimHistorySQL, keep); err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
		return nil
	})
}

const trimHistorySQL = `
			DELETE FROM play_history
			WHERE id NOT IN (
				SELECT id FROM play_history ORDER BY played_at DESC, id DESC LIMIT $1
			)`

// History returns the most recent plays, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]HistoryRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, song_id, song_name, artist, cover_url, played_at, play_duration_ms
		FROM play_history
		ORDER BY played_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(&h.ID, &h.SongID, &h.SongName, &h.Artist, &h.CoverURL, &h.PlayedAt, &h.PlayDurationMs); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// ClearHistory deletes every play.
func (s *Store) ClearHistory(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM play_history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
