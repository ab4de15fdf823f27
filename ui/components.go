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
	seekStepMs = 10000
	volumeStep = 5
)

// createHomepage sets up the UI layout
func (a *App) createHomepage() {
	a.progressBar = tview.NewTextView().
		SetDynamicColors(true)
	a.progressBar.SetBorder(false)

	a.statusBar = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false).
		SetWrap(true)
	a.statusBar.SetBorder(false)
	a.statusBar.SetText(CreateWelcomeMessage())

	a.header = tview.NewTextView().
		SetDynamicColors(true)

	a.searchInput = tview.NewInputField().
		SetLabel("[yellow]Search: ").
		SetFieldWidth(0).
		SetPlaceholder("Type to search, ENTER to run, ESC to leave...").
		SetFieldBackgroundColor(tcell.ColorBlack)
	a.searchInput.SetBorder(false)

	a.songTable = tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false).
		SetFixed(1, 0)
	a.songTable.SetBorder(false)

	a.helpView = NewHelpView(a)
	a.queueView = NewQueueView(a)
	a.playlistView = NewPlaylistView(a)

	a.setupSearchInput()
	a.setupKeyBindings()
	a.setupInputHandlers()

	leftPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.statusBar, 0, 1, false)

	rightPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.searchInput, 1, 0, false).
		AddItem(a.header, 1, 0, false).
		AddItem(a.songTable, 0, 1, true)

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(leftPanel, 0, 1, false).
		AddItem(rightPanel, 0, 2, true)

	a.rootFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainLayout, 0, 1, true).
		AddItem(a.progressBar, 3, 0, false)

	a.showListing(listing{kind: viewHome, title: "Home"})
	a.tviewApp.SetRoot(a.rootFlex, true)
}

// setupSearchInput wires the search field: hot searches while empty, ENTER runs the query
func (a *App) setupSearchInput() {
	a.searchInput.SetFocusFunc(func() {
		if a.searchInput.GetText() == "" {
			go a.loadHotSearches()
		}
	})

	a.searchInput.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			if query := strings.TrimSpace(a.searchInput.GetText()); query != "" {
				a.performSearch(query)
			}
		case tcell.KeyEscape:
			a.clearSearch()
		}
	})

	a.searchInput.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyDown || event.Key() == tcell.KeyTab {
			a.tviewApp.SetFocus(a.songTable)
			return nil
		}
		return event
	})
}

// setupKeyBindings registers the global shortcuts
func (a *App) setupKeyBindings() {
	km := NewKeyBindingManager()

	km.RegisterKeyBinding(KeyAction{name: "toggle", handler: func() { a.run("pause", a.ctrl.TogglePause) }}, nil, []rune{' '})
	km.RegisterKeyBinding(KeyAction{name: "next", handler: func() { a.run("next", a.ctrl.Next) }}, nil, []rune{'n', 'N'})
	km.RegisterKeyBinding(KeyAction{name: "previous", handler: func() { a.run("previous", a.ctrl.Previous) }}, nil, []rune{'p', 'P'})
	km.RegisterKeyBinding(KeyAction{name: "mode", handler: a.togglePlayMode}, nil, []rune{'m', 'M'})
	km.RegisterKeyBinding(KeyAction{name: "favorite", handler: a.toggleFavorite}, nil, []rune{'f', 'F'})
	km.RegisterKeyBinding(KeyAction{name: "seekForward", handler: func() {
		a.run("seek", func() error { return a.ctrl.SeekBy(seekStepMs) })
	}}, []tcell.Key{tcell.KeyRight}, nil)
	km.RegisterKeyBinding(KeyAction{name: "seekBackward", handler: func() {
		a.run("seek", func() error { return a.ctrl.SeekBy(-seekStepMs) })
	}}, []tcell.Key{tcell.KeyLeft}, nil)
	km.RegisterKeyBinding(KeyAction{name: "search", handler: func() { a.tviewApp.SetFocus(a.searchInput) }}, nil, []rune{'/'})
	km.RegisterKeyBinding(KeyAction{name: "home", handler: a.showHome}, nil, []rune{'r', 'R'})
	km.RegisterKeyBinding(KeyAction{name: "library", handler: a.showLibrary}, nil, []rune{'l', 'L'})
	km.RegisterKeyBinding(KeyAction{name: "queue", handler: a.showQueue}, nil, []rune{'q', 'Q'})
	km.RegisterKeyBinding(KeyAction{name: "addToPlaylist", handler: a.addToPlaylist}, nil, []rune{'a', 'A'})
	km.RegisterKeyBinding(KeyAction{name: "newPlaylist", handler: a.createPlaylist}, nil, []rune{'c', 'C'})
	km.RegisterKeyBinding(KeyAction{name: "remove", handler: a.removeSelected}, []tcell.Key{tcell.KeyDelete}, []rune{'d', 'D'})
	km.RegisterKeyBinding(KeyAction{name: "help", handler: a.showHelp}, nil, []rune{'?'})
	km.RegisterKeyBinding(KeyAction{name: "nextPage", handler: a.nextPage}, []tcell.Key{tcell.KeyPgDn}, []rune{'J', ']'})
	km.RegisterKeyBinding(KeyAction{name: "previousPage", handler: a.previousPage}, []tcell.Key{tcell.KeyPgUp}, []rune{'K', '['})
	km.RegisterKeyBinding(KeyAction{name: "goEnd", handler: a.lastPage}, nil, []rune{'G'})
	km.RegisterSequence("gg", KeyAction{name: "goStart", handler: a.firstPage})
	km.RegisterKeyBinding(KeyAction{name: "volumeUp", handler: func() { a.changeVolume(volumeStep) }}, nil, []rune{'+', '='})
	km.RegisterKeyBinding(KeyAction{name: "volumeDown", handler: func() { a.changeVolume(-volumeStep) }}, nil, []rune{'-', '_'})
	km.RegisterKeyBinding(KeyAction{name: "exit", handler: a.handleEscape}, []tcell.Key{tcell.KeyEscape}, nil)
	km.RegisterKeyBinding(KeyAction{name: "quit", handler: a.Stop}, []tcell.Key{tcell.KeyCtrlC}, nil)

	a.keys = km
}

// setupInputHandlers routes keys to modals first, then to the binding manager
func (a *App) setupInputHandlers() {
	a.songTable.SetSelectedFunc(func(row, column int) {
		a.activateRow(row)
	})

	a.tviewApp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if a.confirming {
			return event
		}
		if a.playlistView != nil && a.playlistView.IsActive() {
			if event.Key() == tcell.KeyEscape {
				a.playlistView.Close()
				return nil
			}
			return event
		}
		if a.helpView != nil && a.helpView.IsActive() {
			if event.Key() == tcell.KeyEscape || event.Rune() == '?' {
				a.helpView.Close()
				return nil
			}
			return event
		}
		if a.queueView != nil && a.queueView.IsActive() {
			if event.Key() == tcell.KeyEscape || event.Rune() == 'q' || event.Rune() == 'Q' {
				a.queueView.Close()
				return nil
			}
			return event
		}

		// the search field owns typing
		if a.searchInput.HasFocus() {
			a.keys.ResetPending()
			if event.Key() == tcell.KeyCtrlC {
				a.Stop()
				return nil
			}
			return event
		}

		if a.keys.HandleKey(event) {
			return nil
		}
		return event
	})
}

// handleEscape leaves a search first and quits otherwise
func (a *App) handleEscape() {
	if a.current.kind == viewSearch || a.current.kind == viewHotSearch {
		a.clearSearch()
		return
	}
	a.Stop()
}

// activateRow plays a song row, opens a playlist row or runs a hot search
func (a *App) activateRow(row int) {
	i := globalIndex(a.currentPage, a.pageSize, row, a.current.len())
	if i < 0 {
		return
	}

	switch {
	case a.current.playsAlone():
		a.playSong(a.current.songs[i])
	case a.current.hasSongs():
		a.playSongs(a.current.songs, i)
	case a.current.kind == viewHotSearch:
		word := a.current.hot[i].Word
		a.searchInput.SetText(word)
		a.performSearch(word)
	case a.current.kind == viewHome, a.current.kind == viewUserPlaylists:
		a.openPlaylist(a.current.playlists[i])
	}
}

// openPlaylist shows the songs of pl and starts playing from the first one
func (a *App) openPlaylist(pl domain.Playlist) {
	fromLibrary := a.current.kind == viewUserPlaylists
	go func() {
		songs := pl.Songs
		if len(songs) == 0 {
			var (
				err    error
				detail *domain.Playlist
			)
			if fromLibrary {
				songs, err = a.library.PlaylistSongs(a.ctx, pl.ID)
			} else if detail, err = a.library.PlaylistDetail(a.ctx, pl.ID); err == nil {
				songs = detail.Songs
			}
			if err != nil {
				a.tviewApp.QueueUpdateDraw(func() {
					a.setFlash("[red]" + library.Message(err))
				})
				return
			}
		}

		a.tviewApp.QueueUpdateDraw(func() {
			l := listing{kind: viewPlaylist, title: pl.Name, songs: songs}
			if fromLibrary {
				l.playlistID = pl.ID
			}
			a.showListing(l)
		})
		if len(songs) > 0 {
			a.playSongs(songs, 0)
		}
	}()
}

func (a *App) togglePlayMode() {
	mode, err := a.ctrl.TogglePlayMode()
	if err != nil {
		a.run("mode", func() error { return err })
		return
	}
	a.setFlash("[lightgreen]Mode: " + mode.String())
}

func (a *App) toggleFavorite() {
	song := a.ctrl.CurrentSong()
	if song == nil {
		return
	}
	s := *song
	go func() {
		fav, err := a.library.ToggleFavorite(a.ctx, &s)
		a.tviewApp.QueueUpdateDraw(func() {
			if err != nil {
				a.setFlash("[red]" + library.Message(err))
				return
			}
			a.favorite = fav
			if fav {
				a.setFlash("[lightgreen]♥ Added to favorites")
			} else {
				a.setFlash("[gray]Removed from favorites")
			}
		})
	}()
}

func (a *App) changeVolume(delta int) {
	go func() {
		v, err := a.ctrl.Volume()
		if err != nil {
			return
		}
		v = min(max(v+delta, 0), 100)
		if err := a.ctrl.SetVolume(v); err != nil {
			a.log.Debug().Err(err).Msg("set volume")
		}
	}()
}

func (a *App) showHome() {
	a.showListing(a.home)
	if a.home.len() == 0 {
		go a.loadHome()
	}
}

// showLibrary cycles favorites, history and my playlists
func (a *App) showLibrary() {
	kind := viewFavorites
	if a.current.kind.isLibrary() {
		kind = nextLibraryTab(a.current.kind)
	}

	go func() {
		l := listing{kind: kind, title: kind.String()}
		var err error
		switch kind {
		case viewFavorites:
			l.songs, err = a.library.Favorites(a.ctx)
		case viewHistory:
			l.songs, err = a.library.History(a.ctx, a.cfg.Cache.HistoryLimit)
		case viewUserPlaylists:
			l.playlists, err = a.library.UserPlaylists(a.ctx)
		}
		a.tviewApp.QueueUpdateDraw(func() {
			if err != nil {
				a.setFlash("[red]" + library.Message(err))
			}
			a.showListing(l)
		})
	}()
}

func (a *App) loadHotSearches() {
	hot, err := a.library.HotSearches(a.ctx)
	if err != nil {
		a.log.Debug().Err(err).Msg("hot searches unavailable")
		return
	}
	a.tviewApp.QueueUpdateDraw(func() {
		if a.searchInput.GetText() != "" {
			return
		}
		a.enterSearch(listing{kind: viewHotSearch, title: "Hot searches", hot: hot})
	})
}

// performSearch runs query and shows the results
func (a *App) performSearch(query string) {
	a.setFlash("[yellow]Searching " + query + "...")
	go func() {
		songs, err := a.library.SearchSongs(a.ctx, query)
		a.tviewApp.QueueUpdateDraw(func() {
			if err != nil {
				a.setFlash("[red]Search failed: " + library.Message(err))
				return
			}
			a.enterSearch(listing{kind: viewSearch, title: fmt.Sprintf("Results for %q", query), songs: songs})
			a.searchInput.SetFieldBackgroundColor(tcell.ColorDarkGreen)
			a.tviewApp.SetFocus(a.songTable)
		})
	}()
}

// enterSearch shows a search listing, remembering what to go back to
func (a *App) enterSearch(l listing) {
	if a.current.kind != viewSearch && a.current.kind != viewHotSearch {
		a.previous = a.current
	}
	a.showListing(l)
}

// clearSearch restores the listing shown before searching
func (a *App) clearSearch() {
	if a.current.kind == viewSearch || a.current.kind == viewHotSearch {
		a.showListing(a.previous)
	}
	a.searchInput.SetText("")
	a.searchInput.SetFieldBackgroundColor(tcell.ColorBlack)
	a.tviewApp.SetFocus(a.songTable)
}

// showListing replaces the table content and resets paging
func (a *App) showListing(l listing) {
	a.current = l
	a.currentPage = 1
	a.renderTable()
}

func (a *App) nextPage() {
	if a.currentPage < totalPages(a.current.len(), a.pageSize) {
		a.currentPage++
		a.renderTable()
	}
}

func (a *App) previousPage() {
	if a.currentPage > 1 {
		a.currentPage--
		a.renderTable()
	}
}

func (a *App) firstPage() {
	a.currentPage = 1
	a.renderTable()
}

func (a *App) lastPage() {
	a.currentPage = totalPages(a.current.len(), a.pageSize)
	a.renderTable()
	a.songTable.Select(a.songTable.GetRowCount()-1, 0)
}

func (a *App) renderHeader() {
	if a.header == nil {
		return
	}
	text := fmt.Sprintf("[yellow]%s[gray] | Page %d/%d | %d items",
		a.current.title, a.currentPage, totalPages(a.current.len(), a.pageSize), a.current.len())
	if a.flash != "" {
		text += "  " + a.flash
	}
	a.header.SetText(text)
}

// renderTable renders the current page of the listing
func (a *App) renderTable() {
	a.songTable.Clear()
	a.renderHeader()

	start, end := pageBounds(a.currentPage, a.pageSize, a.current.len())
	cols := ColumnsFor(TerminalWidth())
	maxWidth := a.cfg.UI.MaxColumnWidth

	headerStyle := tcell.StyleDefault.Foreground(tcell.ColorGray).Attributes(tcell.AttrBold)
	rowStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDefault)
	setHeader := func(titles ...string) {
		for col, title := range titles {
			a.songTable.SetCell(0, col, tview.NewTableCell(title).SetStyle(headerStyle).SetSelectable(false))
		}
	}

	if start == end {
		setHeader("")
		a.songTable.SetCell(1, 0, tview.NewTableCell("Nothing here yet").
			SetTextColor(tcell.ColorGray).
			SetExpansion(1))
		return
	}

	switch {
	case a.current.hasSongs():
		setHeader(cols.SongHeaders()...)
		for i, song := range a.current.songs[start:end] {
			row := i + 1
			for col, text := range cols.SongCells(start+i+1, song, maxWidth) {
				cell := tview.NewTableCell(text).SetStyle(rowStyle.Foreground(tcell.ColorGray))
				switch col {
				case 0:
					cell.SetStyle(rowStyle.Foreground(tcell.ColorLightGreen)).SetAlign(tview.AlignRight)
				case 1:
					cell.SetStyle(rowStyle).SetExpansion(1)
				}
				a.songTable.SetCell(row, col, cell)
			}
		}

	case a.current.kind == viewHotSearch:
		setHeader("#", "Keyword", "Score", "")
		for i, h := range a.current.hot[start:end] {
			row := i + 1
			a.songTable.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf("%d:", start+i+1)).
				SetStyle(rowStyle.Foreground(tcell.ColorLightGreen)).SetAlign(tview.AlignRight))
			a.songTable.SetCell(row, 1, tview.NewTableCell(Truncate(h.Word, maxWidth)).SetStyle(rowStyle).SetExpansion(1))
			a.songTable.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf("%d", h.Score)).
				SetStyle(rowStyle.Foreground(tcell.ColorGray)).SetAlign(tview.AlignRight))
			a.songTable.SetCell(row, 3, tview.NewTableCell(Truncate(h.Content, maxWidth)).SetStyle(rowStyle.Foreground(tcell.ColorGray)))
		}

	default:
		setHeader("#", "Playlist", "Tracks", "Plays")
		for i, pl := range a.current.playlists[start:end] {
			row := i + 1
			a.songTable.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf("%d:", start+i+1)).
				SetStyle(rowStyle.Foreground(tcell.ColorLightGreen)).SetAlign(tview.AlignRight))
			a.songTable.SetCell(row, 1, tview.NewTableCell(Truncate(pl.Name, maxWidth)).SetStyle(rowStyle).SetExpansion(1))
			a.songTable.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf("%d", pl.TrackCount)).
				SetStyle(rowStyle.Foreground(tcell.ColorGray)).SetAlign(tview.AlignRight))
			a.songTable.SetCell(row, 3, tview.NewTableCell(FormatCount(pl.PlayCount)).
				SetStyle(rowStyle.Foreground(tcell.ColorGray)).SetAlign(tview.AlignRight))
		}
	}

	a.songTable.SetSelectedStyle(tcell.StyleDefault.
		Background(tcell.ColorDarkGreen).
		Foreground(tcell.ColorWhite))
	a.songTable.Select(1, 0)
	a.songTable.ScrollToBeginning()
}

// showModal centers content over the main layout
func (a *App) showModal(content tview.Primitive, width, height int) {
	modal := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			SetDirection(tview.FlexColumn).
			AddItem(nil, 0, 1, false).
			AddItem(content, width, 0, true).
			AddItem(nil, 0, 1, false), height, 0, true).
		AddItem(nil, 0, 1, false)
	a.tviewApp.SetRoot(modal, true)
}

func (a *App) showHelp() {
	a.helpView.Show()
}

func (a *App) showQueue() {
	a.queueView.Show()
}
