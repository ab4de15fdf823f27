// Package lyric parses LRC text and finds the line for a playback position.
package lyric

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Line is one lyric line. Untimed lines have Time -1.
type Line struct {
	Time int64 // milliseconds
	Text string
}

type Lyrics struct {
	Lines []Line
	Timed bool
}

var (
	timeTag = regexp.MustCompile(`\[(\d{1,3}):(\d{1,2})(?:[.:](\d{1,3}))?\]`)
	metaTag = regexp.MustCompile(`^\[[a-zA-Z]+:.*\]$`)
)

// Parse reads LRC text. A line may carry several time tags and is emitted once per tag.
// Metadata tags such as [ar:...] are dropped. Text with no time tags at all is kept as
// untimed lines in original order.
func Parse(text string) Lyrics {
	var timed, plain []Line
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		tags := timeTag.FindAllStringSubmatchIndex(raw, -1)
		if len(tags) == 0 {
			if !metaTag.MatchString(raw) {
				plain = append(plain, Line{Time: -1, Text: raw})
			}
			continue
		}

		// tags are leading; the text follows the last one
		end := 0
		var times []int64
		for _, loc := range tags {
			if loc[0] != end {
				break
			}
			times = append(times, tagMillis(raw, loc))
			end = loc[1]
		}
		body := strings.TrimSpace(raw[end:])
		for _, ms := range times {
			timed = append(timed, Line{Time: ms, Text: body})
		}
	}

	if len(timed) == 0 {
		return Lyrics{Lines: plain}
	}
	sort.SliceStable(timed, func(i, j int) bool { return timed[i].Time < timed[j].Time })
	return Lyrics{Lines: timed, Timed: true}
}

func tagMillis(s string, loc []int) int64 {
	mins, _ := strconv.ParseInt(s[loc[2]:loc[3]], 10, 64)
	sec, _ := strconv.ParseInt(s[loc[4]:loc[5]], 10, 64)
	ms := (mins*60 + sec) * 1000
	if loc[6] >= 0 {
		frac := s[loc[6]:loc[7]]
		f, _ := strconv.ParseInt(frac, 10, 64)
		switch len(frac) {
		case 1:
			f *= 100
		case 2:
			f *= 10
		}
		ms += f
	}
	return ms
}

// LineAt returns the index of the line being sung at positionMs, or -1 before the
// first line. Untimed lyrics always return -1.
func (l Lyrics) LineAt(positionMs int64) int {
	if !l.Timed {
		return -1
	}
	i := sort.Search(len(l.Lines), func(i int) bool { return l.Lines[i].Time > positionMs })
	return i - 1
}

// Text returns the line at i, or "" when i is out of range
func (l Lyrics) Text(i int) string {
	if i < 0 || i >= len(l.Lines) {
		return ""
	}
	return l.Lines[i].Text
}

func (l Lyrics) Empty() bool {
	return len(l.Lines) == 0
}
