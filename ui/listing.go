package ui

import "github.com/yhkl-dev/freemusic/domain"

type viewKind int

const (
	viewHome viewKind = iota
	viewSearch
	viewHotSearch
	viewFavorites
	viewHistory
	viewUserPlaylists
	viewPlaylist
)

func (k viewKind) String() string {
	switch k {
	case viewHome:
		return "Home"
	case viewSearch, viewHotSearch:
		return "Search"
	case viewFavorites:
		return "Favorites"
	case viewHistory:
		return "History"
	case viewUserPlaylists:
		return "My Playlists"
	case viewPlaylist:
		return "Playlist"
	}
	return ""
}

// isLibrary reports whether k is one of the tabs cycled with the library key
func (k viewKind) isLibrary() bool {
	return k == viewFavorites || k == viewHistory || k == viewUserPlaylists
}

// nextLibraryTab cycles favorites, history, my playlists
func nextLibraryTab(k viewKind) viewKind {
	switch k {
	case viewFavorites:
		return viewHistory
	case viewHistory:
		return viewUserPlaylists
	default:
		return viewFavorites
	}
}

// listing is whatever the table currently shows. Exactly one of the slices is used,
// chosen by kind.
type listing struct {
	kind      viewKind
	title     string
	songs     []domain.Song
	playlists []domain.Playlist
	hot       []domain.HotSearch

	playlistID int64 // set for a local playlist opened from my playlists
}

func (l listing) len() int {
	switch l.kind {
	case viewHome, viewUserPlaylists:
		return len(l.playlists)
	case viewHotSearch:
		return len(l.hot)
	default:
		return len(l.songs)
	}
}

func (l listing) hasSongs() bool {
	switch l.kind {
	case viewSearch, viewFavorites, viewHistory, viewPlaylist:
		return true
	}
	return false
}

// playsAlone reports whether a song picked from l is played on its own. Search
// results are unrelated to each other, so only the picked one is queued.
func (l listing) playsAlone() bool {
	return l.kind == viewSearch
}

// removal is what the delete key does on a listing
type removal int

const (
	removeNothing removal = iota
	removeSong
	removePlaylist
	removeHistory
)

func removalFor(l listing) removal {
	switch {
	case l.kind == viewPlaylist && l.playlistID != 0:
		return removeSong
	case l.kind == viewUserPlaylists:
		return removePlaylist
	case l.kind == viewHistory:
		return removeHistory
	}
	return removeNothing
}

// totalPages is at least 1 so an empty listing still has a page to show
func totalPages(items, pageSize int) int {
	if pageSize <= 0 || items <= 0 {
		return 1
	}
	return (items + pageSize - 1) / pageSize
}

// pageBounds returns the [start, end) item range of page (1-based), clamped
func pageBounds(page, pageSize, items int) (int, int) {
	if pageSize <= 0 {
		return 0, items
	}
	pages := totalPages(items, pageSize)
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > items {
		start = items
	}
	if end > items {
		end = items
	}
	return start, end
}

// globalIndex maps a table row (row 0 is the header) on page to an item index, or -1
func globalIndex(page, pageSize, row, items int) int {
	if row < 1 {
		return -1
	}
	start, end := pageBounds(page, pageSize, items)
	i := start + row - 1
	if i >= end {
		return -1
	}
	return i
}
