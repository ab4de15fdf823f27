package playback

import (
	"context"
	"errors"

	"github.com/sourcegraph/conc/iter"

	"github.com/yhkl-dev/freemusic/domain"
)

// Resolver is the part of the library the controller needs to start a song.
// library.Library satisfies it.
type Resolver interface {
	SongURL(ctx context.Context, songID int64) (string, error)
	Lyric(ctx context.Context, songID int64) (string, error)
	AddHistory(ctx context.Context, song *domain.Song) error
}

var errNoResolver = errors.New("playback: no resolver configured")

// PlaySong resolves the stream URL of song and plays it alone. On success the song
// is recorded in history and its lyric is attached once fetched. Returns
// ErrSuperseded when another play request started while the URL was resolving.
func (c *Controller) PlaySong(ctx context.Context, song *domain.Song) error {
	if c.resolver == nil {
		return errNoResolver
	}
	gen := c.begin()

	resolved := *song
	url, err := c.resolver.SongURL(ctx, song.ID)

	c.mu.Lock()
	if c.gen.Load() != gen {
		c.mu.Unlock()
		c.log.Debug().Int64("song", song.ID).Msg("discarding stale url resolution")
		return ErrSuperseded
	}
	if err != nil {
		err = c.failLocked(err)
		c.mu.Unlock()
		return err
	}
	resolved.URL = url
	err = c.playLocked([]*domain.Song{&resolved}, 0)
	c.lyricFor = lyricKey{gen: gen, song: resolved.ID}
	c.mu.Unlock()
	if err != nil {
		return err
	}

	c.afterStart(ctx, gen, &resolved)
	return nil
}

// PlaySongs plays songs from start. Only the start song is resolved before playback
// begins. The next few are looked up in the background and the rest when playback
// reaches them, so no url sits in the queue long enough to expire.
func (c *Controller) PlaySongs(ctx context.Context, songs []domain.Song, start int) error {
	if c.resolver == nil {
		return errNoResolver
	}
	if len(songs) == 0 {
		return c.PlayList(nil, 0)
	}
	gen := c.begin()

	queue := make([]*domain.Song, len(songs))
	for i := range songs {
		s := songs[i]
		queue[i] = &s
	}
	start = clampIndex(start, len(queue))
	first := *queue[start]
	var err error
	if !first.HasURL() {
		first.URL, err = c.resolver.SongURL(ctx, first.ID)
	}
	queue[start] = &first

	c.mu.Lock()
	if c.gen.Load() != gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.replaceQueueLocked(queue, start)
	if err != nil {
		// the list stays queued so next and previous still work
		err = c.failLocked(err)
		c.mu.Unlock()
		return err
	}
	err = c.startLocked()
	c.lyricFor = lyricKey{gen: gen, song: first.ID}
	ahead := c.upcomingLocked(c.prefetch)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if len(ahead) > 0 {
		go c.prefetchURLs(ctx, ahead)
	}
	c.afterStart(ctx, gen, &first)
	return nil
}

// begin marks a new play intent and shows it as loading
func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.gen.Inc()
	c.state.Set(domain.Loading())
	return gen
}

// resolveCurrent finishes a start deferred by resolveLocked
func (c *Controller) resolveCurrent(ctx context.Context, gen uint64, index int, song *domain.Song) {
	url, err := c.resolver.SongURL(ctx, song.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen.Load() != gen {
		c.log.Debug().Int64("song", song.ID).Msg("discarding stale url resolution")
		return
	}
	if err != nil {
		_ = c.failLocked(err)
		return
	}

	resolved := *song
	resolved.URL = url
	c.queue[index] = &resolved
	c.synced = false
	c.publishQueueLocked()
	if err := c.startLocked(); err != nil {
		c.log.Warn().Err(err).Int64("song", song.ID).Msg("start resolved song")
	}
}

// upcomingLocked returns up to n songs after the current one, in queue order,
// that still have no url
func (c *Controller) upcomingLocked(n int) []*domain.Song {
	var out []*domain.Song
	for step := 1; step < len(c.queue) && len(out) < n; step++ {
		if s := c.queue[(c.index+step)%len(c.queue)]; !s.HasURL() {
			out = append(out, s)
		}
	}
	return out
}

// prefetchURLs looks up the urls of songs concurrently and attaches those found
func (c *Controller) prefetchURLs(ctx context.Context, songs []*domain.Song) {
	mapper := iter.Mapper[*domain.Song, string]{MaxGoroutines: len(songs)}
	urls := mapper.Map(songs, func(s **domain.Song) string {
		url, err := c.resolver.SongURL(ctx, (*s).ID)
		if err != nil {
			c.log.Debug().Err(err).Int64("song", (*s).ID).Msg("prefetch url")
			return ""
		}
		return url
	})

	found := make(map[int64]string, len(urls))
	for i, url := range urls {
		if url != "" {
			found[songs[i].ID] = url
		}
	}
	c.attachURLs(found)
}

// attachURLs swaps in copies of queued songs carrying their prefetched url.
// The engine gets the new urls with the next queue hand-off.
func (c *Controller) attachURLs(urls map[int64]string) {
	if len(urls) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := false
	for i, s := range c.queue {
		url, ok := urls[s.ID]
		if !ok || s.HasURL() {
			continue
		}
		updated := *s
		updated.URL = url
		c.queue[i] = &updated
		changed = true
	}
	if changed {
		c.synced = false
		c.publishQueueLocked()
	}
}

// afterStart records history and attaches the lyric for a song that just started
func (c *Controller) afterStart(ctx context.Context, gen uint64, song *domain.Song) {
	if err := c.resolver.AddHistory(ctx, song); err != nil {
		c.log.Warn().Err(err).Int64("song", song.ID).Msg("add history")
	}

	lyric, err := c.resolver.Lyric(ctx, song.ID)
	if err != nil {
		c.log.Debug().Err(err).Int64("song", song.ID).Msg("no lyric")
		return
	}
	c.attachLyric(gen, song.ID, lyric)
}

// attachLyric swaps in a copy of the current song carrying lyric. Published songs
// are never mutated in place.
func (c *Controller) attachLyric(gen uint64, songID int64, lyric string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen.Load() != gen {
		return
	}
	current := c.currentLocked()
	if current == nil || current.ID != songID {
		return
	}

	updated := *current
	updated.Lyric = lyric
	c.queue[c.index] = &updated
	c.publishQueueLocked()
	c.lyric.Set(lyric)

	if st := c.state.Get(); st.Song != nil && st.Song.ID == songID {
		st.Song = &updated
		c.state.Set(st)
	}
}
