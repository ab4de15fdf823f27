package domain

import (
	"fmt"
	"time"
)

// SourceNetease tags songs coming from the Netease API.
const SourceNetease = "netease"

// Song represents a music track with metadata.
// URL and Lyric stay empty until they are resolved explicitly.
type Song struct {
	ID       int64
	Name     string
	Artist   string
	Album    string
	CoverURL string
	Duration int64 // in milliseconds
	Source   string
	URL      string
	Lyric    string
}

// FormattedDuration returns the duration as mm:ss
func (s *Song) FormattedDuration() string {
	return FormatMillis(s.Duration)
}

// Display is used for one-line listings and log messages
func (s *Song) Display() string {
	return s.Name + " - " + s.Artist
}

// HasURL reports whether a playable url has been resolved
func (s *Song) HasURL() bool {
	return s.URL != ""
}

// TrackID is the identifier handed to the media engine
func (s *Song) TrackID() string {
	return fmt.Sprintf("%d", s.ID)
}

// Playlist is an ordered list of songs. It is not modified after construction.
type Playlist struct {
	ID          int64
	Name        string
	Description string
	CoverURL    string
	PlayCount   int64
	TrackCount  int
	Songs       []Song
}

// HotSearch is a trending search keyword
type HotSearch struct {
	Word    string
	Content string
	Score   int64
}

// QueueItem represents an item in the media engine's playback queue
type QueueItem struct {
	TrackID    string
	URL        string
	Title      string
	Artist     string
	DurationMs int64
}

// NewQueueItem builds the (trackId, url) pair the media engine consumes
func NewQueueItem(s *Song) QueueItem {
	return QueueItem{
		TrackID:    s.TrackID(),
		URL:        s.URL,
		Title:      s.Name,
		Artist:     s.Artist,
		DurationMs: s.Duration,
	}
}

// FormatMillis converts milliseconds to mm:ss
func FormatMillis(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	d := time.Duration(ms) * time.Millisecond
	minutes := int(d / time.Minute)
	seconds := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
