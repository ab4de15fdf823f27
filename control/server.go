// Package control exposes playback controls over a local HTTP API with a
// WebSocket status stream, for media keys, scripts and companion devices.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"

	"github.com/yhkl-dev/freemusic/domain"
	"github.com/yhkl-dev/freemusic/playback"
)

// Controller is what the remote surface drives. *playback.Controller satisfies it.
type Controller interface {
	Snapshot() playback.Snapshot
	Changes(ctx context.Context) <-chan struct{}
	Resume() error
	Pause() error
	TogglePause() error
	Next() error
	Previous() error
	Jump(index int) error
	TogglePlayMode() (domain.PlayMode, error)
	SeekTo(positionMs int64) error
	Volume() (int, error)
	SetVolume(volume int) error
}

const writeWait = 5 * time.Second

type Server struct {
	ctrl     Controller
	lib      Library
	token    string
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewServer builds the remote surface. With a nil lib the playlist and history
// routes are not mounted.
func NewServer(ctrl Controller, lib Library, token string, logger zerolog.Logger) *Server {
	return &Server{
		ctrl:  ctrl,
		lib:   lib,
		token: token,
		log:   logger.With().Str("component", "control").Logger(),
		upgrader: websocket.Upgrader{
			// loopback only; the token guards everything else
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the chi router with every route
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogging(s.log))
	r.Use(recovery(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(s.token))

		r.Get("/status", s.handleStatus)
		r.Get("/queue", s.handleQueue)
		r.Post("/queue/{index}", s.handleJump)
		r.Post("/play", s.command(s.ctrl.Resume))
		r.Post("/pause", s.command(s.ctrl.Pause))
		r.Post("/toggle", s.command(s.ctrl.TogglePause))
		r.Post("/next", s.command(s.ctrl.Next))
		r.Post("/previous", s.command(s.ctrl.Previous))
		r.Post("/mode", s.handleMode)
		r.Post("/seek", s.handleSeek)
		r.Get("/volume", s.handleVolume)
		r.Post("/volume", s.handleSetVolume)
		r.Get("/ws", s.handleWS)
		if s.lib != nil {
			s.libraryRoutes(r)
		}
	})
	return r
}

// Run serves on addr until ctx is done
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("remote control listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": "freemusic"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStatus(s.ctrl.Snapshot()))
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	snap := s.ctrl.Snapshot()
	songs := make([]songView, 0, len(snap.Queue))
	for _, song := range snap.Queue {
		songs = append(songs, newSongView(song))
	}
	writeJSON(w, http.StatusOK, map[string]any{"index": snap.Index, "songs": songs})
}

// command adapts a no-argument controller action to a handler returning the new status
func (s *Server) command(action func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := action(); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, newStatus(s.ctrl.Snapshot()))
	}
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	index, err := cast.ToIntE(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	s.command(func() error { return s.ctrl.Jump(index) })(w, r)
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ctrl.TogglePlayMode(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newStatus(s.ctrl.Snapshot()))
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	ms, err := cast.ToInt64E(r.URL.Query().Get("ms"))
	if err != nil || r.URL.Query().Get("ms") == "" {
		writeError(w, http.StatusBadRequest, "ms must be an integer")
		return
	}
	s.command(func() error { return s.ctrl.SeekTo(ms) })(w, r)
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	v, err := s.ctrl.Volume()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"volume": v})
}

func (s *Server) handleSetVolume(w http.ResponseWriter, r *http.Request) {
	v, err := cast.ToIntE(r.URL.Query().Get("value"))
	if err != nil || v < 0 || v > 100 {
		writeError(w, http.StatusBadRequest, "value must be an integer in [0,100]")
		return
	}
	if err := s.ctrl.SetVolume(v); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"volume": v})
}

// handleWS streams a status document after every controller change until the
// client goes away
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("ws upgrade")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// reads only detect the close; clients send nothing meaningful
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for range s.ctrl.Changes(ctx) {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(newStatus(s.ctrl.Snapshot())); err != nil {
			s.log.Debug().Err(err).Msg("ws write")
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
