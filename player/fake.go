package player

import (
	"fmt"
	"sync"

	"github.com/yhkl-dev/freemusic/domain"
)

// Fake is an in-memory Player for tests. It records commands and lets the test
// drive the status and emit events.
type Fake struct {
	mu       sync.Mutex
	queue    []domain.QueueItem
	status   Status
	loopOne  bool
	volume   int
	commands []string
	events   chan Event
	closed   bool
}

func NewFake() *Fake {
	return &Fake{
		status: Status{Idle: true},
		volume: 100,
		events: make(chan Event, 64),
	}
}

func (f *Fake) record(format string, args ...any) {
	f.commands = append(f.commands, fmt.Sprintf(format, args...))
}

func (f *Fake) SetQueue(items []domain.QueueItem, start int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append([]domain.QueueItem(nil), items...)
	f.status = Status{Playing: true, Index: start}
	f.record("set-queue %d %d", len(items), start)
	return nil
}

func (f *Fake) PlayIndex(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= len(f.queue) {
		return fmt.Errorf("index %d out of range", index)
	}
	f.status = Status{Playing: true, Index: index}
	f.record("play-index %d", index)
	return nil
}

func (f *Fake) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Idle = false
	f.status.Playing = true
	f.record("play")
	return nil
}

func (f *Fake) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Playing = false
	f.record("pause")
	return nil
}

func (f *Fake) Resume() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Playing = true
	f.record("resume")
	return nil
}

func (f *Fake) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = Status{Idle: true, Index: f.status.Index}
	f.record("stop")
	return nil
}

func (f *Fake) SeekTo(positionMs int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.PositionMs = positionMs
	f.record("seek %d", positionMs)
	return nil
}

func (f *Fake) SetLoopOne(loop bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loopOne = loop
	f.record("loop-one %t", loop)
	return nil
}

func (f *Fake) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *Fake) Volume() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume, nil
}

func (f *Fake) SetVolume(volume int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = volume
	f.record("volume %d", volume)
	return nil
}

func (f *Fake) Events() <-chan Event {
	return f.events
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

// SetStatus replaces the status the next Status call returns
func (f *Fake) SetStatus(s Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}

// Emit pushes an event as the engine would
func (f *Fake) Emit(kind EventKind) {
	f.events <- Event{Kind: kind}
}

// Queue returns the items last handed to SetQueue
func (f *Fake) Queue() []domain.QueueItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.QueueItem(nil), f.queue...)
}

// Commands returns every command received, in order
func (f *Fake) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func (f *Fake) LoopOne() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loopOne
}
