// Package playback owns the play queue, the play mode and the derived playback state.
// All mutations go through Controller; state is published through observable cells.
package playback

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"go.uber.org/atomic"

	"github.com/yhkl-dev/freemusic/domain"
	"github.com/yhkl-dev/freemusic/library"
	"github.com/yhkl-dev/freemusic/observable"
	"github.com/yhkl-dev/freemusic/player"
)

// ErrSuperseded is returned by PlaySong and PlaySongs when a newer play request won
var ErrSuperseded = errors.New("superseded by a newer play request")

const positionInterval = 500 * time.Millisecond

// Snapshot is a consistent read of every published field
type Snapshot struct {
	State    domain.PlaybackState
	Queue    []*domain.Song
	Index    int
	Mode     domain.PlayMode
	Position int64
	Lyric    string
}

// Current returns the song at Index, or nil
func (s Snapshot) Current() *domain.Song {
	if s.Index < 0 || s.Index >= len(s.Queue) {
		return nil
	}
	return s.Queue[s.Index]
}

type Controller struct {
	mu       sync.Mutex
	player   player.Player
	resolver Resolver
	intn     func(int) int
	prefetch int
	log      zerolog.Logger
	ctx      context.Context // background url lookups, replaced by Run

	// bumped by every play request and move; async work started under an older value is dropped
	gen atomic.Uint64

	queue []*domain.Song
	index int
	mode  domain.PlayMode

	// held is set while the controller owns the published state: the last start
	// failed or the current url is still resolving. Engine status is not projected.
	held bool
	// synced is set once the engine holds the current queue with every known url
	synced bool
	// lyricFor is the song whose lyric is being fetched for the current generation
	lyricFor lyricKey

	state    *observable.Cell[domain.PlaybackState]
	queueC   *observable.Cell[[]*domain.Song]
	indexC   *observable.Cell[int]
	modeC    *observable.Cell[domain.PlayMode]
	position *observable.Cell[int64]
	lyric    *observable.Cell[string]
}

type Option func(*Controller)

// WithResolver enables PlaySong and PlaySongs
func WithResolver(r Resolver) Option {
	return func(c *Controller) { c.resolver = r }
}

// WithRand sets the source used for shuffle picks; intn returns a value in [0, n)
func WithRand(intn func(n int) int) Option {
	return func(c *Controller) { c.intn = intn }
}

// WithPrefetch sets how many songs after the start of PlaySongs get their url
// looked up ahead of time. Zero leaves every song to be resolved when reached.
func WithPrefetch(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.prefetch = n
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.log = logger }
}

func New(p player.Player, opts ...Option) *Controller {
	c := &Controller{
		player:   p,
		intn:     rand.Intn,
		prefetch: 2,
		log:      zerolog.Nop(),
		ctx:      context.Background(),
		state:    observable.New(domain.Idle()),
		queueC:   observable.New[[]*domain.Song](nil),
		indexC:   observable.New(0),
		modeC:    observable.New(domain.Sequential),
		position: observable.New[int64](0),
		lyric:    observable.New(""),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "playback").Logger()
	return c
}

func (c *Controller) State() *observable.Cell[domain.PlaybackState] { return c.state }
func (c *Controller) Queue() *observable.Cell[[]*domain.Song]        { return c.queueC }
func (c *Controller) Index() *observable.Cell[int]                   { return c.indexC }
func (c *Controller) Mode() *observable.Cell[domain.PlayMode]        { return c.modeC }
func (c *Controller) Position() *observable.Cell[int64]              { return c.position }

// Lyric publishes the LRC text of the current song, empty until fetched
func (c *Controller) Lyric() *observable.Cell[string] { return c.lyric }

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:    c.state.Get(),
		Queue:    append([]*domain.Song(nil), c.queue...),
		Index:    c.index,
		Mode:     c.mode,
		Position: c.position.Get(),
		Lyric:    c.lyric.Get(),
	}
}

// CurrentSong returns the song at the current index, or nil when the queue is empty
func (c *Controller) CurrentSong() *domain.Song {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

func (c *Controller) currentLocked() *domain.Song {
	if c.index < 0 || c.index >= len(c.queue) {
		return nil
	}
	return c.queue[c.index]
}

// Play replaces the queue with song and starts it
func (c *Controller) Play(song *domain.Song) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen.Inc()
	return c.playLocked([]*domain.Song{song}, 0)
}

// PlayList replaces the queue with songs and starts at startIndex, clamped into range.
// An empty list clears the queue without touching the engine.
func (c *Controller) PlayList(songs []*domain.Song, startIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen.Inc()
	return c.playLocked(songs, startIndex)
}

func (c *Controller) playLocked(songs []*domain.Song, start int) error {
	c.replaceQueueLocked(songs, start)
	if len(c.queue) == 0 {
		c.held = false
		c.state.Set(domain.Idle())
		return nil
	}
	return c.startLocked()
}

func (c *Controller) replaceQueueLocked(songs []*domain.Song, start int) {
	c.queue = append([]*domain.Song(nil), songs...)
	c.index = clampIndex(start, len(c.queue))
	c.synced = false
	c.lyric.Set("")
	c.position.Set(0)
	c.publishQueueLocked()
}

// startLocked hands the current song to the engine. A song without a url is looked
// up in the background when a resolver is configured and fails otherwise.
func (c *Controller) startLocked() error {
	song := c.queue[c.index]
	if !song.HasURL() {
		if c.resolver != nil {
			c.resolveLocked(song)
			return nil
		}
		return c.failLocked(fmt.Errorf("no playable url for %s", song.Display()))
	}

	if c.synced {
		if err := c.player.PlayIndex(c.index); err != nil {
			return c.failLocked(fmt.Errorf("play index %d: %w", c.index, err))
		}
	} else {
		items := make([]domain.QueueItem, len(c.queue))
		for i, s := range c.queue {
			items[i] = domain.NewQueueItem(s)
		}
		if err := c.player.SetQueue(items, c.index); err != nil {
			return c.failLocked(fmt.Errorf("start playback: %w", err))
		}
		c.synced = true
		c.log.Info().Int("songs", len(items)).Int("index", c.index).Str("song", song.Display()).Msg("queue replaced")
	}
	c.held = false
	c.state.Set(domain.Loading())
	return nil
}

// resolveLocked stops the engine and looks up the url of the current song in the
// background. A newer move or play request drops the result.
func (c *Controller) resolveLocked(song *domain.Song) {
	gen := c.gen.Inc()
	if err := c.player.Stop(); err != nil {
		c.log.Debug().Err(err).Msg("stop before resolving")
	}
	c.held = true
	c.state.Set(domain.Loading())
	go c.resolveCurrent(c.ctx, gen, c.index, song)
}

// failLocked stops the engine and publishes err. The error stays until another
// song starts, whatever the engine reports meanwhile.
func (c *Controller) failLocked(err error) error {
	if stopErr := c.player.Stop(); stopErr != nil {
		c.log.Debug().Err(stopErr).Msg("stop after failure")
	}
	c.held = true
	c.state.Set(domain.Failed(library.Message(err)))
	c.log.Warn().Err(err).Msg("playback failed")
	return err
}

func (c *Controller) publishQueueLocked() {
	c.queueC.Set(append([]*domain.Song(nil), c.queue...))
	c.indexC.Set(c.index)
}

// Next advances according to the play mode. RepeatOne restarts the current song.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return nil
	}
	if c.mode == domain.RepeatOne {
		return c.restartLocked()
	}
	return c.moveLocked(nextIndex(c.mode, c.index, len(c.queue), c.intn))
}

// Previous goes back one song, wrapping from the first to the last
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return nil
	}
	return c.moveLocked(previousIndex(c.index, len(c.queue)))
}

// Jump plays the queue entry at index
func (c *Controller) Jump(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.queue) {
		return fmt.Errorf("queue index %d out of range [0,%d)", index, len(c.queue))
	}
	return c.moveLocked(index)
}

func (c *Controller) restartLocked() error {
	if c.held {
		return c.startLocked()
	}
	c.position.Set(0)
	if err := c.player.SeekTo(0); err != nil {
		return fmt.Errorf("restart: %w", err)
	}
	return c.player.Resume()
}

func (c *Controller) moveLocked(index int) error {
	c.gen.Inc()
	c.index = index
	c.lyric.Set("")
	c.position.Set(0)
	c.indexC.Set(index)
	return c.startLocked()
}

// SeekTo moves the engine and updates the published position without waiting for it
func (c *Controller) SeekTo(positionMs int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if positionMs < 0 {
		positionMs = 0
	}
	if cur := c.currentLocked(); cur != nil && cur.Duration > 0 && positionMs > cur.Duration {
		positionMs = cur.Duration
	}
	if err := c.player.SeekTo(positionMs); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	c.position.Set(positionMs)
	return nil
}

// SeekBy moves relative to the current position
func (c *Controller) SeekBy(deltaMs int64) error {
	return c.SeekTo(c.position.Get() + deltaMs)
}

// TogglePlayMode cycles Sequential, Shuffle, RepeatOne and returns the new mode
func (c *Controller) TogglePlayMode() (domain.PlayMode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mode := c.mode.Next()
	if err := c.player.SetLoopOne(mode == domain.RepeatOne); err != nil {
		return c.mode, fmt.Errorf("set loop: %w", err)
	}
	c.mode = mode
	c.modeC.Set(mode)
	return mode, nil
}

func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 || c.held {
		return nil
	}
	return c.player.Pause()
}

// Resume continues the current song. After a failed start it retries the start
// instead, since the engine may still hold a replaced queue.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return nil
	}
	if c.held {
		if c.state.Get().Kind == domain.StateError {
			return c.startLocked()
		}
		return nil
	}
	return c.player.Play()
}

// TogglePause pauses while playing and resumes otherwise
func (c *Controller) TogglePause() error {
	if c.state.Get().IsPlaying() {
		return c.Pause()
	}
	return c.Resume()
}

// Volume and SetVolume pass through to the engine
func (c *Controller) Volume() (int, error) {
	return c.player.Volume()
}

func (c *Controller) SetVolume(volume int) error {
	return c.player.SetVolume(volume)
}

// Project recomputes the playback state from an engine status. It is the only
// place engine callbacks turn into state and may be called from any goroutine.
func (c *Controller) Project(status player.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projectLocked(status)
}

func (c *Controller) projectLocked(status player.Status) {
	if c.held {
		return
	}
	c.position.Set(status.PositionMs)
	c.state.Set(project(status, c.currentLocked()))
}

// HandleEvent applies one engine callback. The status is read under the lock so
// it cannot predate a queue switch made by a concurrent intent.
func (c *Controller) HandleEvent(ev player.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held {
		// the engine is stopped, or still on a queue that was replaced
		return
	}
	status := c.player.Status()

	switch ev.Kind {
	case player.TrackChanged:
		if len(c.queue) > 0 && status.Index != c.index {
			c.index = clampIndex(status.Index, len(c.queue))
			c.lyric.Set("")
			c.indexC.Set(c.index)
		}
	case player.Ended:
		c.log.Debug().Int("index", c.index).Str("mode", c.mode.String()).Msg("track ended")
		if err := c.advanceLocked(); err != nil {
			c.log.Warn().Err(err).Msg("auto advance failed")
			return
		}
		if c.held {
			return
		}
		status = c.player.Status()
	}
	c.projectLocked(status)
}

// advanceLocked moves on after a track finished on its own
func (c *Controller) advanceLocked() error {
	if len(c.queue) == 0 {
		return nil
	}
	if c.mode == domain.RepeatOne {
		return c.moveLocked(c.index)
	}
	return c.moveLocked(nextIndex(c.mode, c.index, len(c.queue), c.intn))
}

// Run consumes engine events until ctx is done or the engine closes its channel.
// Between events the position is refreshed periodically.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(positionInterval)
	defer ticker.Stop()

	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	events := c.player.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.HandleEvent(ev)
			if ev.Kind == player.TrackChanged {
				c.loadLyric(ctx)
			}
		case <-ticker.C:
			c.refreshPosition()
		}
	}
}

// Changes signals after any published field changes. Bursts coalesce into one
// signal. The channel is closed once ctx is done.
func (c *Controller) Changes(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)
	notify := func() {
		select {
		case out <- struct{}{}:
		default:
		}
	}

	var wg conc.WaitGroup
	wg.Go(func() { drain(c.state.Subscribe(ctx), notify) })
	wg.Go(func() { drain(c.queueC.Subscribe(ctx), notify) })
	wg.Go(func() { drain(c.indexC.Subscribe(ctx), notify) })
	wg.Go(func() { drain(c.modeC.Subscribe(ctx), notify) })
	wg.Go(func() { drain(c.position.Subscribe(ctx), notify) })
	wg.Go(func() { drain(c.lyric.Subscribe(ctx), notify) })
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func drain[T any](ch <-chan T, notify func()) {
	for range ch {
		notify()
	}
}

type lyricKey struct {
	gen  uint64
	song int64
}

// loadLyric fetches the lyric of a song reached through next, previous or auto
// advance. It reports whether a fetch was started; a song whose lyric is already
// being fetched in this generation is skipped.
func (c *Controller) loadLyric(ctx context.Context) bool {
	if c.resolver == nil {
		return false
	}
	c.mu.Lock()
	current := c.currentLocked()
	if current == nil {
		c.mu.Unlock()
		return false
	}
	if current.Lyric != "" {
		c.lyric.Set(current.Lyric)
		c.mu.Unlock()
		return false
	}
	key := lyricKey{gen: c.gen.Load(), song: current.ID}
	if c.lyricFor == key {
		c.mu.Unlock()
		return false
	}
	c.lyricFor = key
	c.mu.Unlock()

	go func() {
		lyric, err := c.resolver.Lyric(ctx, key.song)
		if err != nil {
			c.log.Debug().Err(err).Int64("song", key.song).Msg("no lyric")
			return
		}
		c.attachLyric(key.gen, key.song, lyric)
	}()
	return true
}

func (c *Controller) refreshPosition() {
	if !c.state.Get().IsPlaying() {
		return
	}
	c.position.Set(c.player.Status().PositionMs)
}
