package control

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yhkl-dev/freemusic/domain"
	"github.com/yhkl-dev/freemusic/library"
	"github.com/yhkl-dev/freemusic/playback"
	"github.com/yhkl-dev/freemusic/player"
	"github.com/yhkl-dev/freemusic/store"
)

type MockLibrary struct {
	mock.Mock
}

func (m *MockLibrary) UserPlaylists(ctx context.Context) ([]domain.Playlist, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Playlist), args.Error(1)
}

func (m *MockLibrary) CreatePlaylist(ctx context.Context, name, description string) (*domain.Playlist, error) {
	args := m.Called(ctx, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Playlist), args.Error(1)
}

func (m *MockLibrary) DeletePlaylist(ctx context.Context, playlistID int64) error {
	return m.Called(ctx, playlistID).Error(0)
}

func (m *MockLibrary) PlaylistSongs(ctx context.Context, playlistID int64) ([]domain.Song, error) {
	args := m.Called(ctx, playlistID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Song), args.Error(1)
}

func (m *MockLibrary) AddToPlaylist(ctx context.Context, playlistID int64, song *domain.Song) error {
	return m.Called(ctx, playlistID, song).Error(0)
}

func (m *MockLibrary) RemoveFromPlaylist(ctx context.Context, playlistID, songID int64) error {
	return m.Called(ctx, playlistID, songID).Error(0)
}

func (m *MockLibrary) History(ctx context.Context, limit int) ([]domain.Song, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Song), args.Error(1)
}

func (m *MockLibrary) ClearHistory(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var _ Library = (*library.Repository)(nil)

func newLibraryServer(t *testing.T, songs []*domain.Song) (*httptest.Server, *MockLibrary) {
	t.Helper()
	ctrl := playback.New(player.NewFake())
	require.NoError(t, ctrl.PlayList(songs, 0))

	lib := &MockLibrary{}
	t.Cleanup(func() { lib.AssertExpectations(t) })
	srv := httptest.NewServer(NewServer(ctrl, lib, "", zerolog.Nop()).Router())
	t.Cleanup(srv.Close)
	return srv, lib
}

func statusCode(t *testing.T, method, url string) int {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestListAndCreatePlaylists(t *testing.T) {
	srv, lib := newLibraryServer(t, nil)
	lib.On("UserPlaylists", mock.Anything).Return([]domain.Playlist{{ID: 3, Name: "road", TrackCount: 2}}, nil)
	lib.On("CreatePlaylist", mock.Anything, "gym", "loud").Return(&domain.Playlist{ID: 4, Name: "gym", Description: "loud"}, nil)

	resp, body := do(t, http.MethodGet, srv.URL+"/playlists", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	playlists := body["playlists"].([]any)
	require.Len(t, playlists, 1)
	assert.Equal(t, "road", playlists[0].(map[string]any)["name"])
	assert.EqualValues(t, 2, playlists[0].(map[string]any)["trackCount"])

	resp, body = do(t, http.MethodPost, srv.URL+"/playlists?name=gym&description=loud", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 4, body["id"])
}

func TestCreatePlaylistWithoutName(t *testing.T) {
	srv, lib := newLibraryServer(t, nil)
	lib.On("CreatePlaylist", mock.Anything, "", "").
		Return(nil, &library.Failure{Message: "playlist name is required", Err: store.ErrEmptyName})

	resp, body := do(t, http.MethodPost, srv.URL+"/playlists", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "playlist name is required", body["error"])
}

func TestAddCurrentSongToPlaylist(t *testing.T) {
	srv, lib := newLibraryServer(t, []*domain.Song{{ID: 7, Name: "seven", URL: "http://cdn/7"}})
	lib.On("AddToPlaylist", mock.Anything, int64(3), mock.MatchedBy(func(s *domain.Song) bool {
		return s.ID == 7
	})).Return(nil)
	lib.On("AddToPlaylist", mock.Anything, int64(9), mock.Anything).
		Return(&library.Failure{Message: "playlist not found", Err: store.ErrNotFound})

	resp, body := do(t, http.MethodPost, srv.URL+"/playlists/3/songs", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "seven", body["name"])

	resp, body = do(t, http.MethodPost, srv.URL+"/playlists/9/songs", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "playlist not found", body["error"])
}

func TestAddCurrentSongWithEmptyQueue(t *testing.T) {
	srv, _ := newLibraryServer(t, nil)
	resp, body := do(t, http.MethodPost, srv.URL+"/playlists/3/songs", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "nothing is playing", body["error"])
}

func TestPlaylistSongsAndRemoval(t *testing.T) {
	srv, lib := newLibraryServer(t, nil)
	lib.On("PlaylistSongs", mock.Anything, int64(3)).Return([]domain.Song{{ID: 1, Name: "one"}, {ID: 2, Name: "two"}}, nil)
	lib.On("RemoveFromPlaylist", mock.Anything, int64(3), int64(2)).Return(nil)
	lib.On("DeletePlaylist", mock.Anything, int64(3)).Return(nil)

	resp, body := do(t, http.MethodGet, srv.URL+"/playlists/3/songs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["songs"].([]any), 2)

	assert.Equal(t, http.StatusNoContent, statusCode(t, http.MethodDelete, srv.URL+"/playlists/3/songs/2"))
	assert.Equal(t, http.StatusNoContent, statusCode(t, http.MethodDelete, srv.URL+"/playlists/3"))
	assert.Equal(t, http.StatusBadRequest, statusCode(t, http.MethodDelete, srv.URL+"/playlists/x"))
	assert.Equal(t, http.StatusBadRequest, statusCode(t, http.MethodDelete, srv.URL+"/playlists/3/songs/y"))
}

func TestHistoryRoutes(t *testing.T) {
	srv, lib := newLibraryServer(t, nil)
	lib.On("History", mock.Anything, defaultHistoryLimit).Return([]domain.Song{{ID: 5}}, nil)
	lib.On("History", mock.Anything, 2).Return([]domain.Song{}, nil)
	lib.On("ClearHistory", mock.Anything).Return(nil).Once()

	resp, body := do(t, http.MethodGet, srv.URL+"/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["songs"].([]any), 1)

	resp, _ = do(t, http.MethodGet, srv.URL+"/history?limit=2", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/history?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, http.StatusNoContent, statusCode(t, http.MethodDelete, srv.URL+"/history"))
}

func TestLibraryRoutesNeedLibrary(t *testing.T) {
	srv, _, _ := newTestServer(t, "")
	assert.Equal(t, http.StatusNotFound, statusCode(t, http.MethodGet, srv.URL+"/playlists"))
}
