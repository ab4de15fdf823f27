package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/yhkl-dev/freemusic/domain"
	"github.com/yhkl-dev/freemusic/library"
)

const (
	pagePick = "pick"
	pageName = "name"
)

// PlaylistView picks one of the local playlists to add a song to, or names a
// new playlist
type PlaylistView struct {
	modal
	pages *tview.Pages
	list  *tview.List
	name  *tview.InputField

	song      *domain.Song // nil when only creating
	playlists []domain.Playlist
	loading   bool
}

func NewPlaylistView(app *App) *PlaylistView {
	pv := &PlaylistView{}
	pv.list = tview.NewList().ShowSecondaryText(false)
	pv.list.SetSelectedFunc(func(i int, _, _ string, _ rune) {
		if pv.loading {
			return
		}
		if i < len(pv.playlists) {
			pv.add(pv.playlists[i])
			return
		}
		pv.askName()
	})

	pv.name = tview.NewInputField().
		SetLabel("[yellow]Name: ").
		SetFieldWidth(0).
		SetFieldBackgroundColor(tcell.ColorBlack)
	pv.name.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			pv.create(strings.TrimSpace(pv.name.GetText()))
		}
	})

	pv.pages = tview.NewPages().
		AddPage(pagePick, pv.list, true, true).
		AddPage(pageName, pv.name, true, false)

	pv.modal = newModal(app, pv.pages, " Playlists (ESC to close) ", 50, 16)
	pv.container.SetBorderColor(tcell.ColorLightGreen)
	return pv
}

// ShowAdd lets the user pick a playlist for song
func (pv *PlaylistView) ShowAdd(song domain.Song) {
	pv.song = &song
	pv.playlists = nil
	pv.loading = true
	pv.list.Clear()
	pv.list.AddItem("[gray]loading...", "", 0, nil)
	pv.pages.SwitchToPage(pagePick)
	pv.open()

	go func() {
		playlists, err := pv.app.library.UserPlaylists(pv.app.ctx)
		pv.app.tviewApp.QueueUpdateDraw(func() {
			if err != nil {
				pv.Close()
				pv.app.setFlash("[red]" + library.Message(err))
				return
			}
			pv.playlists = playlists
			pv.loading = false
			pv.list.Clear()
			for _, pl := range playlists {
				pv.list.AddItem(fmt.Sprintf("%s [gray](%d)", pl.Name, pl.TrackCount), "", 0, nil)
			}
			pv.list.AddItem("[lightgreen]+ New playlist", "", 0, nil)
		})
	}()
}

// ShowCreate asks for the name of a new, empty playlist
func (pv *PlaylistView) ShowCreate() {
	pv.song = nil
	pv.open()
	pv.askName()
}

func (pv *PlaylistView) askName() {
	pv.name.SetText("")
	pv.pages.SwitchToPage(pageName)
	pv.app.tviewApp.SetFocus(pv.name)
}

func (pv *PlaylistView) add(pl domain.Playlist) {
	song := *pv.song
	pv.Close()
	go func() {
		err := pv.app.library.AddToPlaylist(pv.app.ctx, pl.ID, &song)
		pv.app.tviewApp.QueueUpdateDraw(func() {
			if err != nil {
				pv.app.setFlash("[red]" + library.Message(err))
				return
			}
			pv.app.setFlash(fmt.Sprintf("[lightgreen]Added to %s", pl.Name))
			pv.app.reloadLibraryView()
		})
	}()
}

func (pv *PlaylistView) create(name string) {
	song := pv.song
	pv.Close()
	go func() {
		pl, err := pv.app.library.CreatePlaylist(pv.app.ctx, name, "")
		if err == nil && song != nil {
			err = pv.app.library.AddToPlaylist(pv.app.ctx, pl.ID, song)
		}
		pv.app.tviewApp.QueueUpdateDraw(func() {
			if err != nil {
				pv.app.setFlash("[red]" + library.Message(err))
				return
			}
			pv.app.setFlash("[lightgreen]Created " + pl.Name)
			pv.app.reloadLibraryView()
		})
	}()
}

// addToPlaylist offers the current song, or the selected song row when nothing plays
func (a *App) addToPlaylist() {
	if song := a.ctrl.CurrentSong(); song != nil {
		a.playlistView.ShowAdd(*song)
		return
	}
	if song, ok := a.selectedSong(); ok {
		a.playlistView.ShowAdd(song)
	}
}

func (a *App) createPlaylist() {
	a.playlistView.ShowCreate()
}

func (a *App) selectedSong() (domain.Song, bool) {
	row, _ := a.songTable.GetSelection()
	i := globalIndex(a.currentPage, a.pageSize, row, a.current.len())
	if i < 0 || !a.current.hasSongs() {
		return domain.Song{}, false
	}
	return a.current.songs[i], true
}

// removeSelected drops the selected song from a local playlist, deletes the selected
// playlist or clears the history, depending on the listing
func (a *App) removeSelected() {
	row, _ := a.songTable.GetSelection()
	i := globalIndex(a.currentPage, a.pageSize, row, a.current.len())

	switch removalFor(a.current) {
	case removeSong:
		if i < 0 {
			return
		}
		playlistID, song := a.current.playlistID, a.current.songs[i]
		a.inBackground("remove song", func() error {
			return a.library.RemoveFromPlaylist(a.ctx, playlistID, song.ID)
		})
	case removePlaylist:
		if i < 0 {
			return
		}
		pl := a.current.playlists[i]
		a.confirm(fmt.Sprintf("Delete playlist %q?", pl.Name), func() {
			a.inBackground("delete playlist", func() error {
				return a.library.DeletePlaylist(a.ctx, pl.ID)
			})
		})
	case removeHistory:
		a.confirm("Clear the whole play history?", func() {
			a.inBackground("clear history", func() error {
				return a.library.ClearHistory(a.ctx)
			})
		})
	}
}

// inBackground runs a library call off the ui goroutine and reloads the listing after
func (a *App) inBackground(name string, call func() error) {
	go func() {
		err := call()
		a.tviewApp.QueueUpdateDraw(func() {
			if err != nil {
				a.log.Warn().Err(err).Str("intent", name).Msg("library call failed")
				a.setFlash(fmt.Sprintf("[red]%s failed: %s", name, library.Message(err)))
				return
			}
			a.reloadLibraryView()
		})
	}()
}

// reloadLibraryView refetches the listing when it shows local data
func (a *App) reloadLibraryView() {
	l := a.current
	go func() {
		var err error
		switch {
		case l.kind == viewHistory:
			l.songs, err = a.library.History(a.ctx, a.cfg.Cache.HistoryLimit)
		case l.kind == viewUserPlaylists:
			l.playlists, err = a.library.UserPlaylists(a.ctx)
		case l.kind == viewPlaylist && l.playlistID != 0:
			l.songs, err = a.library.PlaylistSongs(a.ctx, l.playlistID)
		default:
			return
		}
		a.tviewApp.QueueUpdateDraw(func() {
			if err != nil {
				a.setFlash("[red]" + library.Message(err))
				return
			}
			if a.current.kind == l.kind && a.current.playlistID == l.playlistID {
				page := a.currentPage
				a.showListing(l)
				a.currentPage = min(page, totalPages(l.len(), a.pageSize))
				a.renderTable()
			}
		})
	}()
}

// confirm asks a yes/no question over the main layout
func (a *App) confirm(text string, onYes func()) {
	dialog := tview.NewModal().
		SetText(text).
		AddButtons([]string{"Yes", "No"}).
		SetDoneFunc(func(_ int, label string) {
			a.confirming = false
			a.tviewApp.SetRoot(a.rootFlex, true)
			a.tviewApp.SetFocus(a.songTable)
			if label == "Yes" {
				onYes()
			}
		})
	a.confirming = true
	a.tviewApp.SetRoot(dialog, true)
	a.tviewApp.SetFocus(dialog)
}
