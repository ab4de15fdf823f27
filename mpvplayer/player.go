package mpvplayer

import (
	"fmt"
	"strconv"

	"github.com/wildeyedskies/go-mpv/mpv"
)

// reply ids passed to ObserveProperty, echoed back in property-change events
const (
	observePause uint64 = iota + 1
	observePausedForCache
	observeIdle
)

// Mpvplayer wraps the raw libmpv handle. ReplaceInProgress is set by the caller
// before replacing a loaded file, so the resulting end-file event is not taken
// for the natural end of a track.
type Mpvplayer struct {
	*mpv.Mpv
	ReplaceInProgress bool
}

// Load replaces whatever is playing with url
func (m *Mpvplayer) Load(url string) error {
	return m.Command([]string{"loadfile", url, "replace"})
}

func (m *Mpvplayer) Stop() error {
	return m.Command([]string{"stop"})
}

func (m *Mpvplayer) SetPaused(paused bool) error {
	return m.Command([]string{"set", "pause", yesNo(paused)})
}

// Seek moves to an absolute position in milliseconds
func (m *Mpvplayer) Seek(ms int64) error {
	return m.Command([]string{"seek", strconv.FormatFloat(float64(ms)/1000, 'f', 3, 64), "absolute"})
}

func (m *Mpvplayer) SetLoopFile(loop bool) error {
	value := "no"
	if loop {
		value = "inf"
	}
	return m.Command([]string{"set", "loop-file", value})
}

func (m *Mpvplayer) SetVolume(volume int) error {
	return m.Command([]string{"set", "volume", strconv.Itoa(volume)})
}

func (m *Mpvplayer) GetVolume() (float64, error) {
	v, err := m.GetProperty("volume", mpv.FORMAT_DOUBLE)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// GetProgress returns position and duration in milliseconds. Both are 0 when nothing is loaded.
func (m *Mpvplayer) GetProgress() (int64, int64) {
	return m.doubleMillis("time-pos"), m.doubleMillis("duration")
}

func (m *Mpvplayer) doubleMillis(name string) int64 {
	v, err := m.GetProperty(name, mpv.FORMAT_DOUBLE)
	if err != nil {
		return 0
	}
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return int64(f * 1000)
}

func (m *Mpvplayer) flag(name string) bool {
	v, err := m.GetProperty(name, mpv.FORMAT_FLAG)
	if err != nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

func (m *Mpvplayer) IsIdle() bool {
	return m.flag("idle-active")
}

func (m *Mpvplayer) IsPaused() bool {
	return m.flag("pause")
}

func (m *Mpvplayer) IsBuffering() bool {
	return m.flag("paused-for-cache")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func CreateMPVInstance(volume int) (*mpv.Mpv, error) {
	mpvInstance := mpv.Create()

	mpvInstance.SetOptionString("audio-display", "no")
	mpvInstance.SetOptionString("video", "no")
	mpvInstance.SetOptionString("idle", "yes")
	mpvInstance.SetOptionString("volume", strconv.Itoa(volume))
	mpvInstance.ObserveProperty(observePause, "pause", mpv.FORMAT_FLAG)
	mpvInstance.ObserveProperty(observePausedForCache, "paused-for-cache", mpv.FORMAT_FLAG)
	mpvInstance.ObserveProperty(observeIdle, "idle-active", mpv.FORMAT_FLAG)

	err := mpvInstance.Initialize()
	if err != nil {
		mpvInstance.TerminateDestroy()
		return nil, fmt.Errorf("initialize mpv: %w", err)
	}
	return mpvInstance, nil
}
