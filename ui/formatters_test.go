package ui

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"

	"github.com/yhkl-dev/freemusic/domain"
	"github.com/yhkl-dev/freemusic/playback"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "unlimited", Truncate("unlimited", 0))

	got := Truncate("a very long song title", 10)
	assert.LessOrEqual(t, runewidth.StringWidth(got), 10)
	assert.True(t, strings.HasSuffix(got, "…"))

	// wide runes take two cells each
	got = Truncate("晴天晴天晴天", 7)
	assert.LessOrEqual(t, runewidth.StringWidth(got), 7)
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "9999", FormatCount(9999))
	assert.Equal(t, "1.2w", FormatCount(12000))
	assert.Equal(t, "3.5亿", FormatCount(350000000))
}

func TestColumnsFor(t *testing.T) {
	song := domain.Song{Name: "晴天", Artist: "周杰伦", Album: "叶惠美", Duration: 269000}

	wide := ColumnsFor(120)
	assert.Equal(t, []string{"#", "Title", "Artist", "Album", "Time"}, wide.SongHeaders())
	assert.Equal(t, []string{"3:", "晴天", "周杰伦", "叶惠美", "04:29"}, wide.SongCells(3, song, 40))

	medium := ColumnsFor(80)
	assert.Equal(t, []string{"#", "Title", "Artist", "Time"}, medium.SongHeaders())
	assert.Len(t, medium.SongCells(1, song, 40), 4)

	narrow := ColumnsFor(40)
	assert.Equal(t, []string{"#", "Title", "Artist"}, narrow.SongHeaders())
}

func TestCreateProgressBar(t *testing.T) {
	bar := CreateProgressBar(0.5, 10)
	assert.Equal(t, 5, strings.Count(bar, "▓"))
	assert.Equal(t, 5, strings.Count(bar, "░"))
	assert.Contains(t, bar, "50.0%")

	assert.Equal(t, 10, strings.Count(CreateProgressBar(1.7, 10), "▓"))
	assert.Equal(t, 10, strings.Count(CreateProgressBar(-1, 10), "░"))
}

func TestFormatNowPlaying(t *testing.T) {
	song := &domain.Song{ID: 1, Name: "晴天", Artist: "周杰伦", Album: "叶惠美", Duration: 269000}
	np := NowPlaying{
		Snapshot: playback.Snapshot{
			State:    domain.Playing(song),
			Queue:    []*domain.Song{song, {ID: 2}},
			Index:    0,
			Mode:     domain.Shuffle,
			Position: 134500,
		},
		Volume:    80,
		LyricLine: "故事的小黄花",
		BarWidth:  10,
		Favorite:  true,
	}

	text := FormatNowPlaying(np)
	assert.Contains(t, text, "Current 1/2")
	assert.Contains(t, text, "♥")
	assert.Contains(t, text, "Playing")
	assert.Contains(t, text, "周杰伦")
	assert.Contains(t, text, "故事的小黄花")
	assert.Contains(t, text, "shuffle")

	progress := FormatProgress(np)
	assert.Contains(t, progress, "02:14/04:29")
	assert.Contains(t, progress, "80%")
	assert.Equal(t, 5, strings.Count(progress, "▓"))
}

func TestFormatNowPlayingIdle(t *testing.T) {
	assert.Equal(t, CreateWelcomeMessage(), FormatNowPlaying(NowPlaying{Snapshot: playback.Snapshot{Index: -1}}))

	failed := FormatNowPlaying(NowPlaying{Snapshot: playback.Snapshot{State: domain.Failed("no url"), Index: -1}})
	assert.Contains(t, failed, "no url")

	assert.Contains(t, FormatProgress(NowPlaying{Snapshot: playback.Snapshot{Index: -1}, Volume: -1}), "idle")
}
