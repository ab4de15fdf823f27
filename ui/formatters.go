package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/yhkl-dev/freemusic/domain"
	"github.com/yhkl-dev/freemusic/playback"
)

const defaultTerminalWidth = 80

// NowPlaying is everything the status panel and progress bar render
type NowPlaying struct {
	Snapshot  playback.Snapshot
	Volume    int // -1 when unknown
	LyricLine string
	BarWidth  int
	Cover     string
	Favorite  bool
}

// TerminalWidth returns the current terminal width, or 80 when stdout is not a terminal
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultTerminalWidth
	}
	return width
}

// Truncate shortens s to width display cells, appending an ellipsis. CJK runes count double.
func Truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// FormatCount shortens large play counts, e.g. 1.2w for 12000
func FormatCount(n int64) string {
	switch {
	case n >= 100000000:
		return fmt.Sprintf("%.1f亿", float64(n)/100000000)
	case n >= 10000:
		return fmt.Sprintf("%.1fw", float64(n)/10000)
	}
	return fmt.Sprintf("%d", n)
}

// Columns selects which song columns fit the terminal
type Columns struct {
	Album    bool
	Duration bool
}

// ColumnsFor drops album below 100 cells and duration below 60
func ColumnsFor(width int) Columns {
	return Columns{
		Album:    width >= 100,
		Duration: width >= 60,
	}
}

func (c Columns) SongHeaders() []string {
	headers := []string{"#", "Title", "Artist"}
	if c.Album {
		headers = append(headers, "Album")
	}
	if c.Duration {
		headers = append(headers, "Time")
	}
	return headers
}

// SongCells renders one song row; number is 1-based across all pages
func (c Columns) SongCells(number int, s domain.Song, maxWidth int) []string {
	cells := []string{
		fmt.Sprintf("%d:", number),
		Truncate(s.Name, maxWidth),
		Truncate(s.Artist, maxWidth),
	}
	if c.Album {
		cells = append(cells, Truncate(s.Album, maxWidth))
	}
	if c.Duration {
		cells = append(cells, s.FormattedDuration())
	}
	return cells
}

// CreateProgressBar creates a visual progress bar
func CreateProgressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filledWidth := int(progress * float64(width))

	var bar strings.Builder
	for i := 0; i < width; i++ {
		if i < filledWidth {
			bar.WriteString("[lightgreen]▓")
		} else {
			bar.WriteString("[darkgray]░")
		}
	}
	return bar.String() + fmt.Sprintf("[white] %.1f%%", progress*100)
}

func stateLabel(state domain.PlaybackState) string {
	switch state.Kind {
	case domain.StatePlaying:
		return "[lightgreen]▶ Playing"
	case domain.StatePaused:
		return "[yellow]⏸ Paused"
	case domain.StateLoading:
		return "[gray]… Loading"
	case domain.StateError:
		return "[red]✗ " + state.Message
	}
	return "[darkgray]■ Stopped"
}

// FormatNowPlaying renders the left panel
func FormatNowPlaying(np NowPlaying) string {
	snap := np.Snapshot
	song := snap.Current()
	if song == nil {
		if snap.State.Kind == domain.StateError {
			return "\n" + stateLabel(snap.State) + "\n\n" + CreateWelcomeMessage()
		}
		return CreateWelcomeMessage()
	}

	var b strings.Builder
	if np.Cover != "" {
		b.WriteString(np.Cover)
		b.WriteString("\n")
	}

	heart := ""
	if np.Favorite {
		heart = " [red]♥"
	}
	fmt.Fprintf(&b, "\n[white]Current %d/%d:%s\n%s\n\n", snap.Index+1, len(snap.Queue), heart, stateLabel(snap.State))
	fmt.Fprintf(&b, "[white]%s\n", song.Name)
	fmt.Fprintf(&b, "[gray]Artist: [white]%s\n", song.Artist)
	fmt.Fprintf(&b, "[gray]Album:  [white]%s\n", song.Album)
	fmt.Fprintf(&b, "[darkgray][duration] %s [darkgray][mode] %s\n", song.FormattedDuration(), snap.Mode)

	if np.LyricLine != "" {
		fmt.Fprintf(&b, "\n[lightblue]♪ %s\n", np.LyricLine)
	}

	b.WriteString(`
[darkgray] SPACE (pause)
[darkgray] n/p (next/prev)
[darkgray] ←/→ (seek)
[darkgray] m (mode) f (favorite)
[darkgray] a (add to playlist)
[darkgray] +/- (volume)
[darkgray] ? (help)`)
	return b.String()
}

// FormatProgress renders the bottom bar: progress, times and volume
func FormatProgress(np NowPlaying) string {
	song := np.Snapshot.Current()
	if song == nil {
		return "\n[darkgray][idle]"
	}

	var progress float64
	if song.Duration > 0 {
		progress = float64(np.Snapshot.Position) / float64(song.Duration)
	}
	width := np.BarWidth
	if width <= 0 {
		width = 30
	}

	volume := "--"
	if np.Volume >= 0 {
		volume = fmt.Sprintf("%d%%", np.Volume)
	}

	return fmt.Sprintf("%s\n[darkgray]%s/%s [darkgray]vol [white]%s [darkgray](%s)",
		CreateProgressBar(progress, width),
		domain.FormatMillis(np.Snapshot.Position), song.FormattedDuration(),
		volume, np.Snapshot.Mode)
}

// CreateWelcomeMessage creates the welcome screen message
func CreateWelcomeMessage() string {
	return `
[lightgreen] Welcome to freemusic
[darkgray][play] Ready to Play Music!
[darkgray][source] Source: Netease Cloud Music

[gray]  SPACE (play/pause)
[gray]  n/p (next/prev) | m (mode)
[gray]  J/K (page) | gg/G (start/end)
[gray]  / (search) | l (library) | r (home)
[gray]  q (queue) | ? (help)
[gray]  ESC to exit`
}
