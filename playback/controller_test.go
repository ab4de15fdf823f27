package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/yhkl-dev/freemusic/domain"
	"github.com/yhkl-dev/freemusic/player"
)

func songs(ids ...int64) []*domain.Song {
	out := make([]*domain.Song, len(ids))
	for i, id := range ids {
		out[i] = &domain.Song{
			ID:       id,
			Name:     fmt.Sprintf("song %d", id),
			Artist:   "artist",
			Duration: 180000,
			URL:      fmt.Sprintf("http://cdn/%d.mp3", id),
		}
	}
	return out
}

type stubResolver struct {
	mu         sync.Mutex
	urls       map[int64]string
	lyrics     map[int64]string
	block      map[int64]chan struct{}
	started    chan int64
	history    []int64
	urlCalls   int
	lyricCalls int
}

func newStubResolver() *stubResolver {
	return &stubResolver{
		urls:    map[int64]string{},
		lyrics:  map[int64]string{},
		block:   map[int64]chan struct{}{},
		started: make(chan int64, 16),
	}
}

func (r *stubResolver) SongURL(ctx context.Context, id int64) (string, error) {
	r.started <- id
	r.mu.Lock()
	r.urlCalls++
	wait := r.block[id]
	url, ok := r.urls[id]
	r.mu.Unlock()
	if wait != nil {
		select {
		case <-wait:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if !ok {
		return "", errors.New("no url")
	}
	return url, nil
}

func (r *stubResolver) Lyric(_ context.Context, id int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lyricCalls++
	l, ok := r.lyrics[id]
	if !ok {
		return "", errors.New("no lyric")
	}
	return l, nil
}

func (r *stubResolver) AddHistory(_ context.Context, song *domain.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, song.ID)
	return nil
}

func (r *stubResolver) History() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.history...)
}

func (r *stubResolver) URLCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.urlCalls
}

func (r *stubResolver) LyricCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lyricCalls
}

// lockCheckPlayer notes any Status call made while the controller lock is free
type lockCheckPlayer struct {
	*player.Fake
	c        *Controller
	unlocked atomic.Bool
}

func (p *lockCheckPlayer) Status() player.Status {
	if p.c.mu.TryLock() {
		p.c.mu.Unlock()
		p.unlocked.Store(true)
	}
	return p.Fake.Status()
}

func lastCommand(f *player.Fake) string {
	cmds := f.Commands()
	if len(cmds) == 0 {
		return ""
	}
	return cmds[len(cmds)-1]
}

func TestPlayListStartsAtIndexAndNextAdvances(t *testing.T) {
	fake := player.NewFake()
	c := New(fake)

	require.NoError(t, c.PlayList(songs(1, 2, 3), 1))
	assert.Equal(t, 1, c.Index().Get())
	assert.Equal(t, domain.StateLoading, c.State().Get().Kind)
	assert.Len(t, fake.Queue(), 3)

	require.NoError(t, c.Next())
	assert.Equal(t, 2, c.Index().Get())
	assert.Equal(t, int64(3), c.CurrentSong().ID)

	require.NoError(t, c.Next())
	assert.Equal(t, 0, c.Index().Get(), "sequential wraps")

	assert.Equal(t, []string{"set-queue 3 1", "play-index 2", "play-index 0"}, fake.Commands())
}

func TestPlayListClampsStart(t *testing.T) {
	c := New(player.NewFake())
	require.NoError(t, c.PlayList(songs(1, 2), 9))
	assert.Equal(t, 1, c.Index().Get())
}

func TestPreviousWrapsToLast(t *testing.T) {
	c := New(player.NewFake())
	require.NoError(t, c.PlayList(songs(1, 2, 3), 0))
	require.NoError(t, c.Previous())
	assert.Equal(t, 2, c.Index().Get())
}

func TestEmptyQueueIsNoop(t *testing.T) {
	fake := player.NewFake()
	c := New(fake)

	require.NoError(t, c.PlayList(nil, 0))
	require.NoError(t, c.Next())
	require.NoError(t, c.Previous())
	require.NoError(t, c.Pause())
	require.NoError(t, c.Resume())

	assert.Empty(t, fake.Commands())
	assert.Nil(t, c.CurrentSong())
	assert.Equal(t, domain.StateIdle, c.State().Get().Kind)
}

func TestPlayWithoutURLFails(t *testing.T) {
	fake := player.NewFake()
	c := New(fake)

	song := &domain.Song{ID: 7, Name: "x", Artist: "y"}
	err := c.Play(song)
	require.Error(t, err)
	assert.Equal(t, domain.StateError, c.State().Get().Kind)
	assert.Equal(t, []string{"stop"}, fake.Commands())

	// an idle engine does not hide the error
	c.Project(player.Status{Idle: true})
	assert.Equal(t, domain.StateError, c.State().Get().Kind)
}

func TestFailedStartStopsEngineAndKeepsError(t *testing.T) {
	fake := player.NewFake()
	c := New(fake)
	require.NoError(t, c.PlayList(songs(1, 2), 0))
	fake.SetStatus(player.Status{Playing: true})
	c.HandleEvent(player.Event{Kind: player.PlayingChanged})
	require.Equal(t, domain.StatePlaying, c.State().Get().Kind)

	require.Error(t, c.Play(&domain.Song{ID: 99, Name: "silent"}))
	assert.Equal(t, "stop", lastCommand(fake))
	assert.True(t, fake.Status().Idle)

	// a late callback from the replaced queue does not revive it
	fake.SetStatus(player.Status{Playing: true})
	c.HandleEvent(player.Event{Kind: player.PlayingChanged})
	st := c.State().Get()
	assert.Equal(t, domain.StateError, st.Kind)
	assert.Contains(t, st.Message, "silent")

	// resume retries the failed song instead of unpausing the old queue
	assert.Error(t, c.Resume())
	assert.NotContains(t, fake.Commands(), "play")
	assert.Equal(t, domain.StateError, c.State().Get().Kind)
	require.NoError(t, c.Pause())
	assert.NotContains(t, fake.Commands(), "pause")
}

func TestFailedStartRecoversOnNextSong(t *testing.T) {
	fake := player.NewFake()
	c := New(fake)
	list := []*domain.Song{{ID: 1, Name: "no url"}, songs(2)[0]}

	require.Error(t, c.PlayList(list, 0))
	assert.Equal(t, []string{"stop"}, fake.Commands())

	// the engine never got this queue, so it is handed over in full
	require.NoError(t, c.Next())
	assert.Equal(t, "set-queue 2 1", lastCommand(fake))
	assert.Equal(t, domain.StateLoading, c.State().Get().Kind)

	fake.SetStatus(player.Status{Playing: true, Index: 1})
	c.HandleEvent(player.Event{Kind: player.PlayingChanged})
	st := c.State().Get()
	assert.Equal(t, domain.StatePlaying, st.Kind)
	assert.Equal(t, int64(2), st.Song.ID)
}

func TestMoveOntoSongWithoutURLStopsEngine(t *testing.T) {
	fake := player.NewFake()
	c := New(fake)
	list := []*domain.Song{songs(1)[0], {ID: 2, Name: "no url"}}
	require.NoError(t, c.PlayList(list, 0))

	require.Error(t, c.Next())
	assert.Equal(t, "stop", lastCommand(fake))

	fake.SetStatus(player.Status{Playing: true, Index: 0})
	c.HandleEvent(player.Event{Kind: player.PlayingChanged})
	assert.Equal(t, domain.StateError, c.State().Get().Kind)
	assert.Equal(t, 1, c.Index().Get())

	require.NoError(t, c.Previous())
	assert.Equal(t, "play-index 0", lastCommand(fake))
	assert.Equal(t, domain.StateLoading, c.State().Get().Kind)
}

func TestHandleEventReadsStatusUnderLock(t *testing.T) {
	p := &lockCheckPlayer{Fake: player.NewFake()}
	c := New(p)
	p.c = c
	require.NoError(t, c.PlayList(songs(1, 2, 3), 0))

	p.SetStatus(player.Status{Playing: true, Index: 1})
	c.HandleEvent(player.Event{Kind: player.TrackChanged})
	c.HandleEvent(player.Event{Kind: player.PlayingChanged})
	c.HandleEvent(player.Event{Kind: player.Ended})

	assert.False(t, p.unlocked.Load())
	assert.Equal(t, 2, c.Index().Get())
}

func TestTogglePlayModeCycles(t *testing.T) {
	fake := player.NewFake()
	c := New(fake)

	mode, err := c.TogglePlayMode()
	require.NoError(t, err)
	assert.Equal(t, domain.Shuffle, mode)

	mode, _ = c.TogglePlayMode()
	assert.Equal(t, domain.RepeatOne, mode)
	assert.True(t, fake.LoopOne())

	mode, _ = c.TogglePlayMode()
	assert.Equal(t, domain.Sequential, mode)
	assert.False(t, fake.LoopOne())
	assert.Equal(t, domain.Sequential, c.Mode().Get())
}

func TestRepeatOneNextRestarts(t *testing.T) {
	fake := player.NewFake()
	c := New(fake)
	require.NoError(t, c.PlayList(songs(1, 2), 0))
	c.TogglePlayMode()
	c.TogglePlayMode()

	require.NoError(t, c.Next())
	assert.Equal(t, 0, c.Index().Get())
	cmds := fake.Commands()
	assert.Equal(t, []string{"seek 0", "resume"}, cmds[len(cmds)-2:])
}

func TestShuffleUsesRandomSource(t *testing.T) {
	c := New(player.NewFake(), WithRand(func(n int) int { return n - 1 }))
	require.NoError(t, c.PlayList(songs(1, 2, 3, 4), 0))
	c.TogglePlayMode()

	require.NoError(t, c.Next())
	assert.Equal(t, 3, c.Index().Get())
}

func TestProjectUsesCurrentSong(t *testing.T) {
	c := New(player.NewFake())
	list := songs(1, 2)
	require.NoError(t, c.PlayList(list, 1))

	c.Project(player.Status{Buffering: true})
	assert.Equal(t, domain.StateLoading, c.State().Get().Kind)

	c.Project(player.Status{Playing: true, PositionMs: 1200, Index: 1})
	st := c.State().Get()
	assert.Equal(t, domain.StatePlaying, st.Kind)
	assert.Same(t, list[1], st.Song)
	assert.Equal(t, int64(1200), c.Position().Get())

	c.Project(player.Status{Index: 1})
	assert.Equal(t, domain.StatePaused, c.State().Get().Kind)
}

func TestSeekClampsAndUpdatesPosition(t *testing.T) {
	fake := player.NewFake()
	c := New(fake)
	require.NoError(t, c.PlayList(songs(1), 0))

	require.NoError(t, c.SeekTo(-5))
	assert.Equal(t, int64(0), c.Position().Get())

	require.NoError(t, c.SeekTo(999999))
	assert.Equal(t, int64(180000), c.Position().Get())

	require.NoError(t, c.SeekBy(-10000))
	assert.Equal(t, int64(170000), c.Position().Get())
}

func TestTogglePause(t *testing.T) {
	fake := player.NewFake()
	c := New(fake)
	require.NoError(t, c.PlayList(songs(1), 0))
	c.Project(player.Status{Playing: true})

	require.NoError(t, c.TogglePause())
	c.Project(fake.Status())
	assert.Equal(t, domain.StatePaused, c.State().Get().Kind)

	require.NoError(t, c.TogglePause())
	c.Project(fake.Status())
	assert.Equal(t, domain.StatePlaying, c.State().Get().Kind)
}

func TestRunAdvancesOnEnded(t *testing.T) {
	fake := player.NewFake()
	c := New(fake)
	require.NoError(t, c.PlayList(songs(1, 2, 3), 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	fake.Emit(player.Ended)
	assert.Eventually(t, func() bool { return c.Index().Get() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRunSyncsIndexOnTrackChanged(t *testing.T) {
	fake := player.NewFake()
	c := New(fake)
	require.NoError(t, c.PlayList(songs(1, 2, 3), 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	fake.SetStatus(player.Status{Playing: true, Index: 2})
	fake.Emit(player.TrackChanged)
	assert.Eventually(t, func() bool {
		return c.Index().Get() == 2 && c.State().Get().Kind == domain.StatePlaying
	}, time.Second, 5*time.Millisecond)
}

func TestRunStopsWhenEngineCloses(t *testing.T) {
	fake := player.NewFake()
	c := New(fake)
	require.NoError(t, fake.Close())
	assert.NoError(t, c.Run(context.Background()))
}

func TestPlaySongResolvesAndAttachesLyric(t *testing.T) {
	res := newStubResolver()
	res.urls[5] = "http://cdn/5.mp3"
	res.lyrics[5] = "[00:01.00]hello"

	fake := player.NewFake()
	c := New(fake, WithResolver(res))

	song := &domain.Song{ID: 5, Name: "five", Artist: "a"}
	require.NoError(t, c.PlaySong(context.Background(), song))

	assert.Equal(t, "http://cdn/5.mp3", fake.Queue()[0].URL)
	assert.Equal(t, "", song.URL, "caller's song is not mutated")
	assert.Equal(t, []int64{5}, res.History())
	assert.Equal(t, "[00:01.00]hello", c.Lyric().Get())
	assert.Equal(t, "[00:01.00]hello", c.CurrentSong().Lyric)
}

func TestPlaySongURLFailureSetsError(t *testing.T) {
	res := newStubResolver()
	c := New(player.NewFake(), WithResolver(res))

	err := c.PlaySong(context.Background(), &domain.Song{ID: 9})
	require.Error(t, err)
	st := c.State().Get()
	assert.Equal(t, domain.StateError, st.Kind)
	assert.Equal(t, "no url", st.Message)
	assert.Empty(t, res.History())
}

func TestPlaySongSupersededByLaterRequest(t *testing.T) {
	res := newStubResolver()
	res.urls[1] = "http://cdn/1.mp3"
	res.urls[2] = "http://cdn/2.mp3"
	release := make(chan struct{})
	res.block[1] = release

	fake := player.NewFake()
	c := New(fake, WithResolver(res))

	first := make(chan error, 1)
	go func() {
		first <- c.PlaySong(context.Background(), &domain.Song{ID: 1, Name: "x"})
	}()
	require.Equal(t, int64(1), <-res.started)

	require.NoError(t, c.PlaySong(context.Background(), &domain.Song{ID: 2, Name: "y"}))
	<-res.started
	close(release)

	assert.ErrorIs(t, <-first, ErrSuperseded)
	queue := c.Queue().Get()
	require.Len(t, queue, 1)
	assert.Equal(t, int64(2), queue[0].ID)
	assert.Equal(t, []string{"set-queue 1 0"}, fake.Commands())
	assert.Equal(t, []int64{2}, res.History())
}

func TestPlaySongsResolvesOnlyTheStartSong(t *testing.T) {
	res := newStubResolver()
	list := make([]domain.Song, 500)
	for i := range list {
		id := int64(i + 1)
		list[i] = domain.Song{ID: id, Name: fmt.Sprintf("song %d", id)}
		res.urls[id] = fmt.Sprintf("http://cdn/%d.mp3", id)
	}

	fake := player.NewFake()
	c := New(fake, WithResolver(res), WithPrefetch(0))
	require.NoError(t, c.PlaySongs(context.Background(), list, 3))

	assert.Equal(t, 1, res.URLCalls())
	assert.Equal(t, int64(4), <-res.started)
	queue := fake.Queue()
	require.Len(t, queue, 500)
	assert.Equal(t, "http://cdn/4.mp3", queue[3].URL)
	assert.Equal(t, "", queue[4].URL)
	assert.Equal(t, []string{"set-queue 500 3"}, fake.Commands())
	assert.Equal(t, []int64{4}, res.History())
}

func TestPlaySongsPrefetchesUpcoming(t *testing.T) {
	res := newStubResolver()
	list := make([]domain.Song, 6)
	for i := range list {
		id := int64(i + 1)
		list[i] = domain.Song{ID: id}
		res.urls[id] = fmt.Sprintf("http://cdn/%d.mp3", id)
	}

	fake := player.NewFake()
	c := New(fake, WithResolver(res), WithPrefetch(2))
	require.NoError(t, c.PlaySongs(context.Background(), list, 4))

	// the two songs after index 4 wrap around to the head of the list
	assert.Eventually(t, func() bool {
		q := c.Queue().Get()
		return q[5].HasURL() && q[0].HasURL()
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, res.URLCalls())
	assert.False(t, c.Queue().Get()[1].HasURL())

	// the engine gets the prefetched urls with the next hand-off
	require.NoError(t, c.Next())
	assert.Equal(t, "set-queue 6 5", lastCommand(fake))
	assert.Equal(t, "http://cdn/6.mp3", fake.Queue()[5].URL)
}

func TestNextResolvesUnresolvedSong(t *testing.T) {
	res := newStubResolver()
	res.urls[1] = "http://cdn/1.mp3"
	res.urls[2] = "http://cdn/2.mp3"
	release := make(chan struct{})
	res.block[2] = release

	fake := player.NewFake()
	c := New(fake, WithResolver(res), WithPrefetch(0))
	require.NoError(t, c.PlaySongs(context.Background(), []domain.Song{{ID: 1}, {ID: 2}, {ID: 3}}, 0))
	<-res.started

	require.NoError(t, c.Next())
	require.Equal(t, int64(2), <-res.started)
	assert.Equal(t, domain.StateLoading, c.State().Get().Kind)
	assert.Equal(t, "stop", lastCommand(fake))

	// engine callbacks while resolving leave the loading state alone
	c.HandleEvent(player.Event{Kind: player.StateChanged})
	assert.Equal(t, domain.StateLoading, c.State().Get().Kind)

	close(release)
	assert.Eventually(t, func() bool { return lastCommand(fake) == "set-queue 3 1" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "http://cdn/2.mp3", c.CurrentSong().URL)
	assert.Equal(t, "http://cdn/2.mp3", fake.Queue()[1].URL)

	fake.SetStatus(player.Status{Playing: true, Index: 1})
	c.HandleEvent(player.Event{Kind: player.PlayingChanged})
	assert.Equal(t, domain.StatePlaying, c.State().Get().Kind)
}

func TestUnresolvableSongFailsAndKeepsQueue(t *testing.T) {
	res := newStubResolver()
	res.urls[1] = "http://cdn/1.mp3"
	res.urls[3] = "http://cdn/3.mp3"

	fake := player.NewFake()
	c := New(fake, WithResolver(res), WithPrefetch(0))
	require.NoError(t, c.PlaySongs(context.Background(), []domain.Song{{ID: 1}, {ID: 2}, {ID: 3}}, 2))
	assert.Equal(t, "1", fake.Queue()[0].TrackID)

	require.NoError(t, c.Previous())
	assert.Eventually(t, func() bool { return c.State().Get().Kind == domain.StateError }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "no url", c.State().Get().Message)
	assert.Equal(t, 1, c.Index().Get())
	assert.Len(t, c.Queue().Get(), 3)
}

func TestStaleResolutionIsDropped(t *testing.T) {
	res := newStubResolver()
	res.urls[1] = "http://cdn/1.mp3"
	res.urls[2] = "http://cdn/2.mp3"
	release := make(chan struct{})
	res.block[2] = release

	fake := player.NewFake()
	c := New(fake, WithResolver(res), WithPrefetch(0))
	list := []domain.Song{{ID: 1}, {ID: 2}, {ID: 3, URL: "http://cdn/3.mp3"}}
	require.NoError(t, c.PlaySongs(context.Background(), list, 0))
	<-res.started

	require.NoError(t, c.Next())
	<-res.started
	require.NoError(t, c.Next())
	assert.Equal(t, "play-index 2", lastCommand(fake))

	close(release)
	assert.Never(t, func() bool {
		return c.Index().Get() != 2 || lastCommand(fake) != "play-index 2"
	}, 100*time.Millisecond, 5*time.Millisecond)
	assert.False(t, c.Queue().Get()[1].HasURL())
}

func TestPlaySongsWithFailingStartSong(t *testing.T) {
	res := newStubResolver()
	fake := player.NewFake()
	c := New(fake, WithResolver(res), WithPrefetch(0))

	err := c.PlaySongs(context.Background(), []domain.Song{{ID: 1}, {ID: 2}}, 0)
	require.Error(t, err)
	assert.Equal(t, domain.StateError, c.State().Get().Kind)
	assert.Len(t, c.Queue().Get(), 2)
	assert.Equal(t, []string{"stop"}, fake.Commands())
	assert.Empty(t, res.History())
}

func TestLyricFetchedOncePerStart(t *testing.T) {
	res := newStubResolver()
	res.urls[5] = "http://cdn/5.mp3"
	ctx := context.Background()

	fake := player.NewFake()
	c := New(fake, WithResolver(res))
	require.NoError(t, c.PlaySong(ctx, &domain.Song{ID: 5, Name: "five"}))
	require.Equal(t, 1, res.LyricCalls())

	// the engine announces the track the play request already fetched for
	fake.SetStatus(player.Status{Playing: true, Index: 0})
	c.HandleEvent(player.Event{Kind: player.TrackChanged})
	assert.False(t, c.loadLyric(ctx))
	assert.Equal(t, 1, res.LyricCalls())

	// a move is a new start and fetches again
	res.lyrics[6] = "[00:01.00]six"
	require.NoError(t, c.PlaySongs(ctx, []domain.Song{{ID: 5, URL: "http://cdn/5.mp3"}, {ID: 6, URL: "http://cdn/6.mp3"}}, 0))
	require.Equal(t, 2, res.LyricCalls())
	require.NoError(t, c.Next())
	assert.True(t, c.loadLyric(ctx))
	assert.False(t, c.loadLyric(ctx))
	assert.Eventually(t, func() bool { return c.Lyric().Get() == "[00:01.00]six" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, res.LyricCalls())
}

func TestSnapshotIsConsistentCopy(t *testing.T) {
	c := New(player.NewFake())
	require.NoError(t, c.PlayList(songs(1, 2), 1))

	snap := c.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, int64(2), snap.Current().ID)
	snap.Queue[0] = nil
	assert.NotNil(t, c.Snapshot().Queue[0])
}

func TestJump(t *testing.T) {
	fake := player.NewFake()
	c := New(fake)
	require.NoError(t, c.PlayList(songs(1, 2, 3), 0))

	require.NoError(t, c.Jump(2))
	assert.Equal(t, 2, c.Index().Get())
	assert.Error(t, c.Jump(3))
	assert.Equal(t, 2, c.Index().Get())
}

func TestChangesSignalsAndCloses(t *testing.T) {
	c := New(player.NewFake())
	ctx, cancel := context.WithCancel(context.Background())
	changes := c.Changes(ctx)

	// initial values count as a change
	<-changes

	require.NoError(t, c.PlayList(songs(1), 0))
	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("no change signal after PlayList")
	}

	cancel()
	assert.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-changes:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 5*time.Millisecond)
}
