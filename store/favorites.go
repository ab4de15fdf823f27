package store

import (
	"context"
	"fmt"
)

// UpsertFavorite marks a song as favorite; adding it twice keeps the first add time.
func (s *Store) UpsertFavorite(ctx context.Context, fav FavoriteRow) error {
	addedAt := fav.AddedAt
	if addedAt.IsZero() {
		addedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorite_songs (song_id, song_name, artist, album, cover_url, duration_ms, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (song_id) DO UPDATE SET
			song_name = EXCLUDED.song_name,
			artist = EXCLUDED.artist,
			album = EXCLUDED.album,
			cover_url = EXCLUDED.cover_url,
			duration_ms = EXCLUDED.duration_ms
	`, fav.SongID, fav.SongName, fav.Artist, fav.Album, fav.CoverURL, fav.DurationMs, addedAt)
	if err != nil {
		return fmt.Errorf("upsert favorite: %w", err)
	}
	return nil
}

// DeleteFavorite removes a favorite; removing a missing one is not an error.
func (s *Store) DeleteFavorite(ctx context.Context, songID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM favorite_songs WHERE song_id = $1`, songID); err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	return nil
}

func (s *Store) IsFavorite(ctx context.Context, songID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM favorite_songs WHERE song_id = $1)`, songID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query favorite: %w", err)
	}
	return exists, nil
}

// Favorites lists favorites, most recently added first.
func (s *Store) Favorites(ctx context.Context) ([]FavoriteRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT song_id, song_name, artist, album, cover_url, duration_ms, added_at
		FROM favorite_songs
		ORDER BY added_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	var out []FavoriteRow
	for rows.Next() {
		var f FavoriteRow
		if err := rows.Scan(&f.SongID, &f.SongName, &f.Artist, &f.Album, &f.CoverURL, &f.DurationMs, &f.AddedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}
	return out, nil
}
