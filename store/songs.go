package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const upsertSongSQL = `
		INSERT INTO songs (id, name, artist, album, cover_url, duration_ms, source, url, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			artist = EXCLUDED.artist,
			album = EXCLUDED.album,
			cover_url = EXCLUDED.cover_url,
			duration_ms = EXCLUDED.duration_ms,
			source = EXCLUDED.source,
			url = EXCLUDED.url,
			updated_at = EXCLUDED.updated_at`

// UpsertSongs inserts or replaces songs, refreshing their update time.
func (s *Store) UpsertSongs(ctx context.Context, songs []SongRow) error {
	if len(songs) == 0 {
		return nil
	}
	now := s.now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, song := range songs {
			if _, err := tx.ExecContext(ctx, upsertSongSQL,
				song.ID, song.Name, song.Artist, song.Album, song.CoverURL,
				song.DurationMs, song.Source, song.URL, now,
			); err != nil {
				return fmt.Errorf("upsert song %d: %w", song.ID, err)
			}
		}
		return nil
	})
}

// DeleteExpiredSongs removes songs not refreshed since before and reports how many were removed.
func (s *Store) DeleteExpiredSongs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM songs WHERE updated_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired songs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
