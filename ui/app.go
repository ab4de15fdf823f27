package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"github.com/yhkl-dev/freemusic/config"
	"github.com/yhkl-dev/freemusic/coverart"
	"github.com/yhkl-dev/freemusic/domain"
	"github.com/yhkl-dev/freemusic/library"
	"github.com/yhkl-dev/freemusic/lyric"
	"github.com/yhkl-dev/freemusic/playback"
)

// App represents the TUI application. It only reads controller and library
// state and dispatches intents; all widget access happens on the tview goroutine.
type App struct {
	tviewApp *tview.Application
	cfg      *config.Config
	library  library.Library
	ctrl     *playback.Controller
	ctx      context.Context
	log      zerolog.Logger

	current  listing
	previous listing // restored when a search is cleared
	home     listing

	currentPage int
	pageSize    int

	rootFlex    *tview.Flex
	header      *tview.TextView
	songTable   *tview.Table
	statusBar   *tview.TextView
	progressBar *tview.TextView
	searchInput *tview.InputField
	helpView     *HelpView
	queueView    *QueueView
	playlistView *PlaylistView
	keys         *KeyBindingManager
	confirming   bool

	coverConverter *coverart.Converter
	currentCover   string
	favorite       bool
	flash          string
}

// NewApp creates a new TUI application with dependency injection
func NewApp(ctx context.Context, cfg *config.Config, lib library.Library, ctrl *playback.Controller, cover *coverart.Converter, logger zerolog.Logger) *App {
	pageSize := cfg.UI.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return &App{
		tviewApp:       tview.NewApplication(),
		cfg:            cfg,
		library:        lib,
		ctrl:           ctrl,
		ctx:            ctx,
		log:            logger.With().Str("component", "ui").Logger(),
		pageSize:       pageSize,
		currentPage:    1,
		coverConverter: cover,
		currentCover:   coverart.Placeholder(),
	}
}

// Run builds the layout and blocks until the user quits or ctx is done
func (a *App) Run() error {
	a.createHomepage()
	go a.watchPlayback()
	go a.loadHome()
	go a.handleTerminalResize()
	go func() {
		<-a.ctx.Done()
		a.tviewApp.Stop()
	}()

	a.log.Info().Msg("starting freemusic ui")
	return a.tviewApp.Run()
}

// Stop stops the application
func (a *App) Stop() {
	if a.tviewApp != nil {
		a.tviewApp.Stop()
	}
}

// watchPlayback re-renders the now-playing panel on every controller change
func (a *App) watchPlayback() {
	var (
		lyricText string
		lyrics    lyric.Lyrics
		songID    int64
	)
	for range a.ctrl.Changes(a.ctx) {
		snap := a.ctrl.Snapshot()
		if snap.Lyric != lyricText {
			lyricText = snap.Lyric
			lyrics = lyric.Parse(lyricText)
		}
		if cur := snap.Current(); cur != nil && cur.ID != songID {
			songID = cur.ID
			go a.loadCoverArt(*cur)
			go a.refreshFavorite(cur.ID)
		}

		volume, err := a.ctrl.Volume()
		if err != nil {
			volume = -1
		}
		np := NowPlaying{
			Snapshot:  snap,
			Volume:    volume,
			LyricLine: lyrics.Text(lyrics.LineAt(snap.Position)),
			BarWidth:  a.cfg.UI.ProgressBarWidth,
		}
		a.tviewApp.QueueUpdateDraw(func() {
			np.Cover = a.currentCover
			np.Favorite = a.favorite
			if !a.cfg.UI.ShowCover {
				np.Cover = ""
			}
			a.statusBar.SetText(FormatNowPlaying(np))
			a.progressBar.SetText(FormatProgress(np))
		})
	}
}

// loadHome fetches recommendations. Failures are logged and leave the home view empty.
func (a *App) loadHome() {
	home := listing{kind: viewHome, title: "Home"}

	daily, err := a.library.DailyRecommend(a.ctx)
	if err != nil {
		a.log.Debug().Err(err).Msg("daily recommend unavailable")
	} else if len(daily) > 0 {
		home.playlists = append(home.playlists, domain.Playlist{
			Name:       "Daily Recommendations",
			TrackCount: len(daily),
			Songs:      daily,
		})
	}

	playlists, err := a.library.RecommendPlaylists(a.ctx)
	if err != nil {
		a.log.Debug().Err(err).Msg("recommend playlists unavailable")
	}
	home.playlists = append(home.playlists, playlists...)

	a.tviewApp.QueueUpdateDraw(func() {
		a.home = home
		if a.current.kind == viewHome {
			a.showListing(home)
		}
	})
}

// handleTerminalResize re-renders the table when the column layout must change
func (a *App) handleTerminalResize() {
	lastWidth := TerminalWidth()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			width := TerminalWidth()
			if width != lastWidth {
				a.tviewApp.QueueUpdateDraw(a.renderTable)
			}
			lastWidth = width
		case <-a.ctx.Done():
			return
		}
	}
}

// loadCoverArt renders the cover of song for the now-playing panel
func (a *App) loadCoverArt(song domain.Song) {
	if !a.cfg.UI.ShowCover || a.coverConverter == nil {
		return
	}
	ascii, err := a.coverConverter.ConvertFromURL(a.ctx, song.CoverURL)
	if err != nil {
		a.log.Debug().Err(err).Int64("song", song.ID).Msg("failed to load cover art")
	}
	a.tviewApp.QueueUpdateDraw(func() {
		if cur := a.ctrl.CurrentSong(); cur != nil && cur.ID == song.ID {
			a.currentCover = ascii
		}
	})
}

func (a *App) refreshFavorite(songID int64) {
	fav, err := a.library.IsFavorite(a.ctx, songID)
	if err != nil {
		a.log.Debug().Err(err).Msg("favorite lookup")
		return
	}
	a.tviewApp.QueueUpdateDraw(func() { a.favorite = fav })
}

// playSong starts song on its own without blocking the ui goroutine
func (a *App) playSong(song domain.Song) {
	go func() {
		err := a.ctrl.PlaySong(a.ctx, &song)
		if err != nil && !errors.Is(err, playback.ErrSuperseded) {
			a.log.Warn().Err(err).Int64("song", song.ID).Msg("play song")
		}
	}()
}

// playSongs starts songs at index without blocking the ui goroutine
func (a *App) playSongs(songs []domain.Song, index int) {
	list := append([]domain.Song(nil), songs...)
	go func() {
		err := a.ctrl.PlaySongs(a.ctx, list, index)
		if err != nil && !errors.Is(err, playback.ErrSuperseded) {
			a.log.Warn().Err(err).Msg("play songs")
		}
	}()
}

// run executes a controller intent and reports a failure in the header
func (a *App) run(name string, intent func() error) {
	if err := intent(); err != nil {
		a.log.Warn().Err(err).Str("intent", name).Msg("intent failed")
		a.setFlash(fmt.Sprintf("[red]%s failed: %s", name, library.Message(err)))
	}
}

// setFlash shows a transient message in the header. Call on the ui goroutine.
func (a *App) setFlash(msg string) {
	a.flash = msg
	a.renderHeader()
	go func() {
		time.Sleep(3 * time.Second)
		a.tviewApp.QueueUpdateDraw(func() {
			if a.flash == msg {
				a.flash = ""
				a.renderHeader()
			}
		})
	}()
}
