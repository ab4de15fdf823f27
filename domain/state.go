package domain

// StateKind identifies the active PlaybackState variant
type StateKind int

const (
	StateIdle StateKind = iota
	StateLoading
	StatePlaying
	StatePaused
	StateError
)

func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	}
	return "unknown"
}

// PlaybackState is derived from media engine events; the UI never sets it.
// Song is only set for Playing and Paused, Message only for Error.
type PlaybackState struct {
	Kind    StateKind
	Song    *Song
	Message string
}

func Idle() PlaybackState    { return PlaybackState{Kind: StateIdle} }
func Loading() PlaybackState { return PlaybackState{Kind: StateLoading} }

func Playing(song *Song) PlaybackState {
	return PlaybackState{Kind: StatePlaying, Song: song}
}

func Paused(song *Song) PlaybackState {
	return PlaybackState{Kind: StatePaused, Song: song}
}

// Failed builds the Error variant
func Failed(message string) PlaybackState {
	return PlaybackState{Kind: StateError, Message: message}
}

// IsPlaying reports whether the state is Playing
func (s PlaybackState) IsPlaying() bool {
	return s.Kind == StatePlaying
}

// PlayMode is the queue advance policy
type PlayMode int

const (
	Sequential PlayMode = iota
	Shuffle
	RepeatOne
)

// Next returns the mode that follows m: Sequential -> Shuffle -> RepeatOne -> Sequential
func (m PlayMode) Next() PlayMode {
	switch m {
	case Sequential:
		return Shuffle
	case Shuffle:
		return RepeatOne
	default:
		return Sequential
	}
}

func (m PlayMode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Shuffle:
		return "shuffle"
	case RepeatOne:
		return "repeat-one"
	}
	return "unknown"
}
