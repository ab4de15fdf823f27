package control

import (
	"github.com/yhkl-dev/freemusic/domain"
	"github.com/yhkl-dev/freemusic/lyric"
	"github.com/yhkl-dev/freemusic/playback"
)

type songView struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	CoverURL   string `json:"coverUrl,omitempty"`
	DurationMs int64  `json:"durationMs"`
	Playable   bool   `json:"playable"`
}

type statusView struct {
	State      string    `json:"state"`
	Message    string    `json:"message,omitempty"`
	Song       *songView `json:"song,omitempty"`
	Index      int       `json:"index"`
	QueueSize  int       `json:"queueSize"`
	Mode       string    `json:"mode"`
	PositionMs int64     `json:"positionMs"`
	LyricLine  string    `json:"lyricLine,omitempty"`
}

func newSongView(s *domain.Song) songView {
	return songView{
		ID:         s.ID,
		Name:       s.Name,
		Artist:     s.Artist,
		Album:      s.Album,
		CoverURL:   s.CoverURL,
		DurationMs: s.Duration,
		Playable:   s.HasURL(),
	}
}

func newStatus(snap playback.Snapshot) statusView {
	v := statusView{
		State:      snap.State.Kind.String(),
		Message:    snap.State.Message,
		Index:      snap.Index,
		QueueSize:  len(snap.Queue),
		Mode:       snap.Mode.String(),
		PositionMs: snap.Position,
	}
	if cur := snap.Current(); cur != nil {
		sv := newSongView(cur)
		v.Song = &sv
	}
	if snap.Lyric != "" {
		l := lyric.Parse(snap.Lyric)
		v.LyricLine = l.Text(l.LineAt(snap.Position))
	}
	return v
}
