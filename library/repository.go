package library

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/yhkl-dev/freemusic/cache"
	"github.com/yhkl-dev/freemusic/domain"
	"github.com/yhkl-dev/freemusic/netease"
	"github.com/yhkl-dev/freemusic/store"
)

// Remote is the subset of the Netease client the repository uses
type Remote interface {
	SearchSongs(ctx context.Context, keywords string, limit, offset int) (*netease.SearchResult, error)
	SongURL(ctx context.Context, id int64, level netease.Level) (*netease.SongURLDTO, error)
	Lyric(ctx context.Context, id int64) (*netease.LyricDTO, error)
	RecommendPlaylists(ctx context.Context, limit int) ([]netease.PlaylistDTO, error)
	PlaylistDetail(ctx context.Context, id int64) (*netease.PlaylistDetailDTO, error)
	HotSearches(ctx context.Context) ([]netease.HotSearchDTO, error)
	DailyRecommend(ctx context.Context) ([]netease.SongDTO, error)
}

// Local is the subset of the store the repository uses
type Local interface {
	UpsertSongs(ctx context.Context, songs []store.SongRow) error
	DeleteExpiredSongs(ctx context.Context, before time.Time) (int64, error)

	InsertHistory(ctx context.Context, row store.HistoryRow, keep int) error
	History(ctx context.Context, limit int) ([]store.HistoryRow, error)
	ClearHistory(ctx context.Context) error

	UpsertFavorite(ctx context.Context, fav store.FavoriteRow) error
	DeleteFavorite(ctx context.Context, songID int64) error
	IsFavorite(ctx context.Context, songID int64) (bool, error)
	Favorites(ctx context.Context) ([]store.FavoriteRow, error)

	CreatePlaylist(ctx context.Context, name, description string) (*store.PlaylistRow, error)
	Playlists(ctx context.Context) ([]store.PlaylistRow, error)
	DeletePlaylist(ctx context.Context, id int64) error
	AddPlaylistSong(ctx context.Context, row store.PlaylistSongRow) error
	RemovePlaylistSong(ctx context.Context, playlistID, songID int64) error
	PlaylistSongs(ctx context.Context, playlistID int64) ([]store.PlaylistSongRow, error)
}

// Options tune the repository
type Options struct {
	Quality       netease.Level
	SearchLimit   int
	PlaylistLimit int
	HistoryLimit  int
	URLTTL        time.Duration
	LyricTTL      time.Duration
}

// Repository combines the Netease API with the local store.
// Searches write through to the song cache; history and favorites read from the store.
type Repository struct {
	remote Remote
	local  Local
	cache  cache.Cache
	opts   Options
	log    zerolog.Logger
}

var _ Library = (*Repository)(nil)

func NewRepository(remote Remote, local Local, c cache.Cache, opts Options, logger zerolog.Logger) *Repository {
	if c == nil {
		c = cache.Nop{}
	}
	if opts.Quality == "" {
		opts.Quality = netease.LevelStandard
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = store.DefaultHistoryLimit
	}
	if opts.URLTTL <= 0 {
		opts.URLTTL = 15 * time.Minute
	}
	if opts.LyricTTL <= 0 {
		opts.LyricTTL = 24 * time.Hour
	}
	return &Repository{
		remote: remote,
		local:  local,
		cache:  c,
		opts:   opts,
		log:    logger.With().Str("component", "library").Logger(),
	}
}

// normalizeKeywords folds full-width characters and collapses whitespace
func normalizeKeywords(keywords string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(keywords)), " ")
}

func (r *Repository) SearchSongs(ctx context.Context, keywords string) ([]domain.Song, error) {
	keywords = normalizeKeywords(keywords)
	if keywords == "" {
		return nil, nil
	}

	res, err := r.remote.SearchSongs(ctx, keywords, r.opts.SearchLimit, 0)
	if err != nil {
		return nil, fail("search failed", err)
	}
	songs := convertToDomainSongs(res.Songs)
	r.writeThrough(ctx, songs)
	return songs, nil
}

func (r *Repository) writeThrough(ctx context.Context, songs []domain.Song) {
	if len(songs) == 0 {
		return
	}
	if err := r.local.UpsertSongs(ctx, songsToRows(songs)); err != nil {
		r.log.Warn().Err(err).Int("songs", len(songs)).Msg("failed to cache songs")
	}
}

func (r *Repository) SongURL(ctx context.Context, songID int64) (string, error) {
	key := cache.URLKey(songID, string(r.opts.Quality))
	if url, ok := r.cached(ctx, key); ok {
		return url, nil
	}

	dto, err := r.remote.SongURL(ctx, songID, r.opts.Quality)
	if err != nil {
		if errors.Is(err, netease.ErrEmpty) {
			return "", fail("no playable url", err)
		}
		return "", fail("failed to get play url", err)
	}

	r.remember(ctx, key, dto.URL, r.opts.URLTTL)
	return dto.URL, nil
}

func (r *Repository) Lyric(ctx context.Context, songID int64) (string, error) {
	key := cache.LyricKey(songID)
	if text, ok := r.cached(ctx, key); ok {
		return text, nil
	}

	dto, err := r.remote.Lyric(ctx, songID)
	if err != nil {
		return "", fail("failed to get lyric", err)
	}

	r.remember(ctx, key, dto.Lyric, r.opts.LyricTTL)
	return dto.Lyric, nil
}

func (r *Repository) cached(ctx context.Context, key string) (string, bool) {
	val, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.log.Debug().Err(err).Str("key", key).Msg("cache read failed")
		return "", false
	}
	return val, ok && val != ""
}

func (r *Repository) remember(ctx context.Context, key, val string, ttl time.Duration) {
	if err := r.cache.Set(ctx, key, val, ttl); err != nil {
		r.log.Debug().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (r *Repository) RecommendPlaylists(ctx context.Context) ([]domain.Playlist, error) {
	dtos, err := r.remote.RecommendPlaylists(ctx, r.opts.PlaylistLimit)
	if err != nil {
		return nil, fail("failed to get recommended playlists", err)
	}
	if len(dtos) == 0 {
		return nil, fail("failed to get recommended playlists", nil)
	}
	playlists := make([]domain.Playlist, len(dtos))
	for i, dto := range dtos {
		playlists[i] = convertToDomainPlaylist(dto)
	}
	return playlists, nil
}

func (r *Repository) PlaylistDetail(ctx context.Context, playlistID int64) (*domain.Playlist, error) {
	dto, err := r.remote.PlaylistDetail(ctx, playlistID)
	if err != nil {
		return nil, fail("failed to get playlist detail", err)
	}
	playlist := convertPlaylistDetail(dto)
	r.writeThrough(ctx, playlist.Songs)
	return playlist, nil
}

func (r *Repository) HotSearches(ctx context.Context) ([]domain.HotSearch, error) {
	dtos, err := r.remote.HotSearches(ctx)
	if err != nil {
		return nil, fail("failed to get hot searches", err)
	}
	out := make([]domain.HotSearch, len(dtos))
	for i, dto := range dtos {
		out[i] = convertHotSearch(dto)
	}
	return out, nil
}

func (r *Repository) DailyRecommend(ctx context.Context) ([]domain.Song, error) {
	dtos, err := r.remote.DailyRecommend(ctx)
	if err != nil {
		return nil, fail("failed to get daily recommendations", err)
	}
	songs := convertToDomainSongs(dtos)
	r.writeThrough(ctx, songs)
	return songs, nil
}

func (r *Repository) AddFavorite(ctx context.Context, song *domain.Song) error {
	if err := r.local.UpsertFavorite(ctx, favoriteFromSong(song)); err != nil {
		return fail("failed to add favorite", err)
	}
	return nil
}

func (r *Repository) RemoveFavorite(ctx context.Context, songID int64) error {
	if err := r.local.DeleteFavorite(ctx, songID); err != nil {
		return fail("failed to remove favorite", err)
	}
	return nil
}

func (r *Repository) IsFavorite(ctx context.Context, songID int64) (bool, error) {
	fav, err := r.local.IsFavorite(ctx, songID)
	if err != nil {
		return false, fail("failed to check favorite", err)
	}
	return fav, nil
}

// ToggleFavorite flips the favorite flag and returns the new value
func (r *Repository) ToggleFavorite(ctx context.Context, song *domain.Song) (bool, error) {
	fav, err := r.IsFavorite(ctx, song.ID)
	if err != nil {
		return false, err
	}
	if fav {
		return false, r.RemoveFavorite(ctx, song.ID)
	}
	return true, r.AddFavorite(ctx, song)
}

func (r *Repository) Favorites(ctx context.Context) ([]domain.Song, error) {
	rows, err := r.local.Favorites(ctx)
	if err != nil {
		return nil, fail("failed to load favorites", err)
	}
	songs := make([]domain.Song, len(rows))
	for i, row := range rows {
		songs[i] = songFromFavorite(row)
	}
	return songs, nil
}

func (r *Repository) AddHistory(ctx context.Context, song *domain.Song) error {
	if err := r.local.InsertHistory(ctx, historyFromSong(song), r.opts.HistoryLimit); err != nil {
		return fail("failed to record history", err)
	}
	return nil
}

func (r *Repository) History(ctx context.Context, limit int) ([]domain.Song, error) {
	rows, err := r.local.History(ctx, limit)
	if err != nil {
		return nil, fail("failed to load history", err)
	}
	songs := make([]domain.Song, len(rows))
	for i, row := range rows {
		songs[i] = songFromHistory(row)
	}
	return songs, nil
}

func (r *Repository) ClearHistory(ctx context.Context) error {
	if err := r.local.ClearHistory(ctx); err != nil {
		return fail("failed to clear history", err)
	}
	return nil
}

func (r *Repository) CreatePlaylist(ctx context.Context, name, description string) (*domain.Playlist, error) {
	row, err := r.local.CreatePlaylist(ctx, name, description)
	if err != nil {
		if errors.Is(err, store.ErrEmptyName) {
			return nil, fail("playlist name is required", err)
		}
		return nil, fail("failed to create playlist", err)
	}
	p := playlistFromRow(*row)
	return &p, nil
}

func (r *Repository) UserPlaylists(ctx context.Context) ([]domain.Playlist, error) {
	rows, err := r.local.Playlists(ctx)
	if err != nil {
		return nil, fail("failed to load playlists", err)
	}
	out := make([]domain.Playlist, len(rows))
	for i, row := range rows {
		out[i] = playlistFromRow(row)
	}
	return out, nil
}

func (r *Repository) AddToPlaylist(ctx context.Context, playlistID int64, song *domain.Song) error {
	if err := r.local.AddPlaylistSong(ctx, playlistSongFromSong(playlistID, song)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail("playlist not found", err)
		}
		return fail("failed to add to playlist", err)
	}
	return nil
}

func (r *Repository) RemoveFromPlaylist(ctx context.Context, playlistID, songID int64) error {
	if err := r.local.RemovePlaylistSong(ctx, playlistID, songID); err != nil {
		return fail("failed to remove from playlist", err)
	}
	return nil
}

func (r *Repository) PlaylistSongs(ctx context.Context, playlistID int64) ([]domain.Song, error) {
	rows, err := r.local.PlaylistSongs(ctx, playlistID)
	if err != nil {
		return nil, fail("failed to load playlist songs", err)
	}
	songs := make([]domain.Song, len(rows))
	for i, row := range rows {
		songs[i] = songFromPlaylistSong(row)
	}
	return songs, nil
}

func (r *Repository) DeletePlaylist(ctx context.Context, playlistID int64) error {
	if err := r.local.DeletePlaylist(ctx, playlistID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail("playlist not found", err)
		}
		return fail("failed to delete playlist", err)
	}
	return nil
}

// PurgeExpired drops cached songs older than maxAge
func (r *Repository) PurgeExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := r.local.DeleteExpiredSongs(ctx, time.Now().UTC().Add(-maxAge))
	if err != nil {
		return 0, fail("failed to purge song cache", err)
	}
	if n > 0 {
		r.log.Info().Int64("songs", n).Msg("purged expired songs")
	}
	return n, nil
}
