package player

import "github.com/yhkl-dev/freemusic/domain"

// Player is the media engine the playback controller drives.
// Implementations emit an Event for every state change on Events; the controller
// reads Status afterwards, so events carry no payload beyond their kind.
type Player interface {
	// SetQueue replaces the queue and starts playing items[start]
	SetQueue(items []domain.QueueItem, start int) error

	// PlayIndex starts playing the queue item at index
	PlayIndex(index int) error

	// Play resumes the current item, or starts the current index when stopped
	Play() error

	Pause() error
	Resume() error

	// Stop halts output without an Ended event. The queue is kept.
	Stop() error

	// SeekTo moves to an absolute position in milliseconds
	SeekTo(positionMs int64) error

	// SetLoopOne toggles single-track repeat
	SetLoopOne(loop bool) error

	Status() Status

	Volume() (int, error)
	SetVolume(volume int) error

	Events() <-chan Event

	// Close stops playback and releases the engine
	Close() error
}

// Status is a snapshot of the engine
type Status struct {
	Idle       bool
	Buffering  bool
	Playing    bool
	PositionMs int64
	DurationMs int64
	Index      int
}

// EventKind tells which aspect of the engine changed
type EventKind int

const (
	StateChanged EventKind = iota
	PlayingChanged
	TrackChanged
	Ended
)

func (k EventKind) String() string {
	switch k {
	case StateChanged:
		return "state-changed"
	case PlayingChanged:
		return "playing-changed"
	case TrackChanged:
		return "track-changed"
	case Ended:
		return "ended"
	}
	return "unknown"
}

// Event is an asynchronous engine callback
type Event struct {
	Kind EventKind
}
