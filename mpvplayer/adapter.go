package mpvplayer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wildeyedskies/go-mpv/mpv"

	"github.com/yhkl-dev/freemusic/domain"
	"github.com/yhkl-dev/freemusic/player"
)

var errNotInitialized = errors.New("MPV instance not initialized")

// MPVPlayer implements player.Player on top of libmpv. It keeps the queue itself and
// loads one item at a time, so track advance is left to the playback controller.
type MPVPlayer struct {
	mu       sync.Mutex
	instance *Mpvplayer
	queue    []domain.QueueItem
	index    int
	active   bool // a file was started and has not ended
	loading  bool // started but not loaded yet

	events chan player.Event
	cancel context.CancelFunc
	done   chan struct{}
	log    zerolog.Logger
}

var _ player.Player = (*MPVPlayer)(nil)

// NewMPVPlayer creates a new MPVPlayer instance
func NewMPVPlayer(ctx context.Context, volume int, logger zerolog.Logger) (*MPVPlayer, error) {
	mpvInstance, err := CreateMPVInstance(volume)
	if err != nil {
		return nil, fmt.Errorf("failed to create MPV instance: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &MPVPlayer{
		instance: &Mpvplayer{Mpv: mpvInstance},
		events:   make(chan player.Event, 64),
		cancel:   cancel,
		done:     make(chan struct{}),
		log:      logger.With().Str("component", "mpv").Logger(),
	}
	go p.listen(ctx)
	return p, nil
}

// listen forwards translated libmpv events until ctx is done
func (p *MPVPlayer) listen(ctx context.Context) {
	defer close(p.done)
	defer close(p.events)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		e := p.instance.WaitEvent(1)
		if e == nil || e.Event_Id == mpv.EVENT_NONE {
			continue
		}
		if e.Event_Id == mpv.EVENT_SHUTDOWN {
			return
		}

		ev, ok := p.translate(e)
		if !ok {
			continue
		}
		select {
		case p.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (p *MPVPlayer) translate(e *mpv.Event) (player.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Event_Id {
	case mpv.EVENT_START_FILE:
		p.active = true
		p.loading = true
		return player.Event{Kind: player.TrackChanged}, true

	case mpv.EVENT_FILE_LOADED:
		p.loading = false
		return player.Event{Kind: player.StateChanged}, true

	case mpv.EVENT_END_FILE:
		neverLoaded := p.loading
		p.active = false
		p.loading = false
		if p.instance.ReplaceInProgress {
			p.instance.ReplaceInProgress = false
			return player.Event{Kind: player.StateChanged}, true
		}
		if neverLoaded {
			// a stream that fails to open must not auto-advance
			p.log.Warn().Int("index", p.index).Msg("track failed to load")
			return player.Event{Kind: player.StateChanged}, true
		}
		return player.Event{Kind: player.Ended}, true

	case mpv.EVENT_IDLE:
		return player.Event{Kind: player.StateChanged}, true

	case mpv.EVENT_PROPERTY_CHANGE:
		if e.Reply_Userdata == observePause {
			return player.Event{Kind: player.PlayingChanged}, true
		}
		return player.Event{Kind: player.StateChanged}, true
	}
	return player.Event{}, false
}

func (p *MPVPlayer) loadLocked(index int) error {
	if p.instance == nil || p.instance.Mpv == nil {
		return errNotInitialized
	}
	if index < 0 || index >= len(p.queue) {
		return fmt.Errorf("queue index %d out of range [0,%d)", index, len(p.queue))
	}
	item := p.queue[index]
	p.index = index
	p.instance.ReplaceInProgress = p.active
	if err := p.instance.Load(item.URL); err != nil {
		p.instance.ReplaceInProgress = false
		return fmt.Errorf("load %s: %w", item.TrackID, err)
	}
	p.log.Debug().Str("track", item.TrackID).Str("title", item.Title).Int("index", index).Msg("loading track")
	return p.instance.SetPaused(false)
}

func (p *MPVPlayer) SetQueue(items []domain.QueueItem, start int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append([]domain.QueueItem(nil), items...)
	if len(p.queue) == 0 {
		p.index = 0
		p.instance.ReplaceInProgress = p.active
		return p.instance.Stop()
	}
	return p.loadLocked(start)
}

func (p *MPVPlayer) PlayIndex(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadLocked(index)
}

func (p *MPVPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active && len(p.queue) > 0 {
		return p.loadLocked(p.index)
	}
	return p.instance.SetPaused(false)
}

func (p *MPVPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.instance.SetPaused(true)
}

func (p *MPVPlayer) Resume() error {
	return p.Play()
}

// Stop unloads the current file. The queue and index stay for a later PlayIndex.
func (p *MPVPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.instance == nil || p.instance.Mpv == nil {
		return errNotInitialized
	}
	p.instance.ReplaceInProgress = p.active
	p.loading = false
	return p.instance.Stop()
}

func (p *MPVPlayer) SeekTo(positionMs int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return nil
	}
	if positionMs < 0 {
		positionMs = 0
	}
	if _, dur := p.instance.GetProgress(); dur > 0 && positionMs > dur {
		positionMs = dur
	}
	return p.instance.Seek(positionMs)
}

func (p *MPVPlayer) SetLoopOne(loop bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.instance.SetLoopFile(loop)
}

func (p *MPVPlayer) Status() player.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos, dur := p.instance.GetProgress()
	idle := p.instance.IsIdle()
	return player.Status{
		Idle:       idle && !p.loading,
		Buffering:  p.loading || p.instance.IsBuffering(),
		Playing:    !idle && !p.instance.IsPaused(),
		PositionMs: pos,
		DurationMs: dur,
		Index:      p.index,
	}
}

func (p *MPVPlayer) Volume() (int, error) {
	v, err := p.instance.GetVolume()
	if err != nil {
		return 0, err
	}
	return int(math.Round(v)), nil
}

func (p *MPVPlayer) SetVolume(volume int) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	return p.instance.SetVolume(volume)
}

func (p *MPVPlayer) Events() <-chan player.Event {
	return p.events
}

// Close stops the event listener, then quits and destroys the mpv handle
func (p *MPVPlayer) Close() error {
	p.cancel()
	<-p.done
	if p.instance != nil && p.instance.Mpv != nil {
		_ = p.instance.Command([]string{"quit"})
		p.instance.TerminateDestroy()
		p.instance.Mpv = nil
	}
	return nil
}
