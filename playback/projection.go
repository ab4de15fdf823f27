package playback

import (
	"github.com/yhkl-dev/freemusic/domain"
	"github.com/yhkl-dev/freemusic/player"
)

// project derives the playback state from an engine status. Precedence:
// idle, then buffering, then playing or paused when a song is current, else idle.
func project(status player.Status, current *domain.Song) domain.PlaybackState {
	switch {
	case status.Idle:
		return domain.Idle()
	case status.Buffering:
		return domain.Loading()
	case current != nil && status.Playing:
		return domain.Playing(current)
	case current != nil:
		return domain.Paused(current)
	default:
		return domain.Idle()
	}
}
