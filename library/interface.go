package library

import (
	"context"
	"errors"
	"time"

	"github.com/yhkl-dev/freemusic/domain"
)

// Library is the repository the controller and UI talk to.
// Every failure is a *Failure carrying a human-readable message.
type Library interface {
	SearchSongs(ctx context.Context, keywords string) ([]domain.Song, error)
	SongURL(ctx context.Context, songID int64) (string, error)
	Lyric(ctx context.Context, songID int64) (string, error)
	RecommendPlaylists(ctx context.Context) ([]domain.Playlist, error)
	PlaylistDetail(ctx context.Context, playlistID int64) (*domain.Playlist, error)
	HotSearches(ctx context.Context) ([]domain.HotSearch, error)
	DailyRecommend(ctx context.Context) ([]domain.Song, error)

	AddFavorite(ctx context.Context, song *domain.Song) error
	RemoveFavorite(ctx context.Context, songID int64) error
	IsFavorite(ctx context.Context, songID int64) (bool, error)
	ToggleFavorite(ctx context.Context, song *domain.Song) (bool, error)
	Favorites(ctx context.Context) ([]domain.Song, error)

	AddHistory(ctx context.Context, song *domain.Song) error
	History(ctx context.Context, limit int) ([]domain.Song, error)
	ClearHistory(ctx context.Context) error

	CreatePlaylist(ctx context.Context, name, description string) (*domain.Playlist, error)
	UserPlaylists(ctx context.Context) ([]domain.Playlist, error)
	AddToPlaylist(ctx context.Context, playlistID int64, song *domain.Song) error
	RemoveFromPlaylist(ctx context.Context, playlistID, songID int64) error
	PlaylistSongs(ctx context.Context, playlistID int64) ([]domain.Song, error)
	DeletePlaylist(ctx context.Context, playlistID int64) error

	PurgeExpired(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Failure is the only error kind the repository returns
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Message
	}
	return f.Message + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func fail(message string, err error) error {
	return &Failure{Message: message, Err: err}
}

// Message returns the text to show a user for err
func Message(err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.Message
	}
	return err.Error()
}
