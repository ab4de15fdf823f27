package control

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"

	"github.com/yhkl-dev/freemusic/domain"
	"github.com/yhkl-dev/freemusic/library"
	"github.com/yhkl-dev/freemusic/store"
)

// Library is the local playlist and history store managed remotely.
// *library.Repository satisfies it.
type Library interface {
	UserPlaylists(ctx context.Context) ([]domain.Playlist, error)
	CreatePlaylist(ctx context.Context, name, description string) (*domain.Playlist, error)
	DeletePlaylist(ctx context.Context, playlistID int64) error
	PlaylistSongs(ctx context.Context, playlistID int64) ([]domain.Song, error)
	AddToPlaylist(ctx context.Context, playlistID int64, song *domain.Song) error
	RemoveFromPlaylist(ctx context.Context, playlistID, songID int64) error
	History(ctx context.Context, limit int) ([]domain.Song, error)
	ClearHistory(ctx context.Context) error
}

const defaultHistoryLimit = 100

type playlistView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"trackCount"`
}

func newPlaylistView(p domain.Playlist) playlistView {
	return playlistView{ID: p.ID, Name: p.Name, Description: p.Description, TrackCount: p.TrackCount}
}

func songViews(songs []domain.Song) []songView {
	out := make([]songView, len(songs))
	for i := range songs {
		out[i] = newSongView(&songs[i])
	}
	return out
}

func (s *Server) libraryRoutes(r chi.Router) {
	r.Get("/playlists", s.handlePlaylists)
	r.Post("/playlists", s.handleCreatePlaylist)
	r.Delete("/playlists/{id}", s.handleDeletePlaylist)
	r.Get("/playlists/{id}/songs", s.handlePlaylistSongs)
	r.Post("/playlists/{id}/songs", s.handleAddCurrent)
	r.Delete("/playlists/{id}/songs/{songID}", s.handleRemoveSong)
	r.Get("/history", s.handleHistory)
	r.Delete("/history", s.handleClearHistory)
}

// libraryError maps a repository failure to a status code and its user message
func libraryError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrEmptyName):
		status = http.StatusBadRequest
	}
	writeError(w, status, library.Message(err))
}

func playlistID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := cast.ToInt64E(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "playlist id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (s *Server) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := s.lib.UserPlaylists(r.Context())
	if err != nil {
		libraryError(w, err)
		return
	}
	out := make([]playlistView, len(playlists))
	for i, p := range playlists {
		out[i] = newPlaylistView(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlists": out})
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := s.lib.CreatePlaylist(r.Context(), q.Get("name"), q.Get("description"))
	if err != nil {
		libraryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPlaylistView(*p))
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, ok := playlistID(w, r)
	if !ok {
		return
	}
	if err := s.lib.DeletePlaylist(r.Context(), id); err != nil {
		libraryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlaylistSongs(w http.ResponseWriter, r *http.Request) {
	id, ok := playlistID(w, r)
	if !ok {
		return
	}
	songs, err := s.lib.PlaylistSongs(r.Context(), id)
	if err != nil {
		libraryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"songs": songViews(songs)})
}

// handleAddCurrent adds the song being played to the playlist
func (s *Server) handleAddCurrent(w http.ResponseWriter, r *http.Request) {
	id, ok := playlistID(w, r)
	if !ok {
		return
	}
	current := s.ctrl.Snapshot().Current()
	if current == nil {
		writeError(w, http.StatusConflict, "nothing is playing")
		return
	}
	song := *current
	if err := s.lib.AddToPlaylist(r.Context(), id, &song); err != nil {
		libraryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSongView(&song))
}

func (s *Server) handleRemoveSong(w http.ResponseWriter, r *http.Request) {
	id, ok := playlistID(w, r)
	if !ok {
		return
	}
	songID, err := cast.ToInt64E(chi.URLParam(r, "songID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "song id must be an integer")
		return
	}
	if err := s.lib.RemoveFromPlaylist(r.Context(), id, songID); err != nil {
		libraryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := cast.ToIntE(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	songs, err := s.lib.History(r.Context(), limit)
	if err != nil {
		libraryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"songs": songViews(songs)})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.lib.ClearHistory(r.Context()); err != nil {
		libraryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
