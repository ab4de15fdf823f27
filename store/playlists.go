package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// foreignKeyViolation is the postgres SQLSTATE for a missing referenced row.
const foreignKeyViolation = "23503"

// ErrEmptyName is returned when a playlist name is blank.
var ErrEmptyName = errors.New("playlist name is required")

// CreatePlaylist inserts a playlist and returns it with its generated id.
func (s *Store) CreatePlaylist(ctx context.Context, name, description string) (*PlaylistRow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	now := s.now()
	row := PlaylistRow{Name: name, Description: description, CreatedAt: now, UpdatedAt: now}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO playlists (name, description, cover_url, created_at, updated_at)
		VALUES ($1, $2, '', $3, $3)
		RETURNING id
	`, name, description, now).Scan(&row.ID)
	if err != nil {
		return nil, fmt.Errorf("insert playlist: %w", err)
	}
	return &row, nil
}

// Playlists lists user playlists, most recently updated first.
func (s *Store) Playlists(ctx context.Context) ([]PlaylistRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, cover_url, created_at, updated_at
		FROM playlists
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	defer rows.Close()

	var out []PlaylistRow
	for rows.Next() {
		var p PlaylistRow
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CoverURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	return out, nil
}

// DeletePlaylist removes a playlist; its songs go with it.
func (s *Store) DeletePlaylist(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	return expectOne(res)
}

// AddPlaylistSong appends a song at the end of a playlist. Adding a song already present is a no-op.
func (s *Store) AddPlaylistSong(ctx context.Context, row PlaylistSongRow) error {
	now := s.now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO playlist_songs
				(playlist_id, song_id, song_name, artist, album, cover_url, duration_ms, order_index, added_at)
			SELECT $1, $2, $3, $4, $5, $6, $7,
				COALESCE((SELECT MAX(order_index) + 1 FROM playlist_songs WHERE playlist_id = $1), 0), $8
			ON CONFLICT (playlist_id, song_id) DO NOTHING
		`, row.PlaylistID, row.SongID, row.SongName, row.Artist, row.Album, row.CoverURL, row.DurationMs, now); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
				return ErrNotFound
			}
			return fmt.Errorf("insert playlist song: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE playlists
			SET updated_at = $2,
				cover_url = CASE WHEN cover_url = '' THEN $3 ELSE cover_url END
			WHERE id = $1
		`, row.PlaylistID, now, row.CoverURL)
		if err != nil {
			return fmt.Errorf("touch playlist: %w", err)
		}
		return expectOne(res)
	})
}

func (s *Store) RemovePlaylistSong(ctx context.Context, playlistID, songID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM playlist_songs WHERE playlist_id = $1 AND song_id = $2`, playlistID, songID)
	if err != nil {
		return fmt.Errorf("delete playlist song: %w", err)
	}
	return nil
}

// PlaylistSongs returns a playlist's songs in order.
func (s *Store) PlaylistSongs(ctx context.Context, playlistID int64) ([]PlaylistSongRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, playlist_id, song_id, song_name, artist, album, cover_url, duration_ms, order_index, added_at
		FROM playlist_songs
		WHERE playlist_id = $1
		ORDER BY order_index
	`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("query playlist songs: %w", err)
	}
	defer rows.Close()

	var out []PlaylistSongRow
	for rows.Next() {
		var r PlaylistSongRow
		if err := rows.Scan(&r.ID, &r.PlaylistID, &r.SongID, &r.SongName, &r.Artist, &r.Album,
			&r.CoverURL, &r.DurationMs, &r.OrderIndex, &r.AddedAt); err != nil {
			return nil, fmt.Errorf("scan playlist song: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist songs: %w", err)
	}
	return out, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
