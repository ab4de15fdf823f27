package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yhkl-dev/freemusic/domain"
	"github.com/yhkl-dev/freemusic/player"
)

func TestNextIndexSequentialCycles(t *testing.T) {
	for length := 1; length <= 5; length++ {
		for start := 0; start < length; start++ {
			i := start
			for n := 0; n < length; n++ {
				i = nextIndex(domain.Sequential, i, length, nil)
			}
			assert.Equal(t, start, i, "length %d start %d", length, start)
		}
	}
}

func TestNextIndexEmpty(t *testing.T) {
	assert.Equal(t, -1, nextIndex(domain.Sequential, 0, 0, nil))
	assert.Equal(t, -1, previousIndex(0, 0))
}

func TestNextIndexRepeatOneStays(t *testing.T) {
	assert.Equal(t, 2, nextIndex(domain.RepeatOne, 2, 4, nil))
}

func TestNextIndexShuffleUsesSource(t *testing.T) {
	got := nextIndex(domain.Shuffle, 0, 10, func(n int) int {
		assert.Equal(t, 10, n)
		return 7
	})
	assert.Equal(t, 7, got)
}

func TestPreviousIndexWraps(t *testing.T) {
	assert.Equal(t, 3, previousIndex(0, 4))
	assert.Equal(t, 1, previousIndex(2, 4))
	assert.Equal(t, 0, previousIndex(0, 1))
}

func TestClampIndex(t *testing.T) {
	assert.Equal(t, 0, clampIndex(-3, 5))
	assert.Equal(t, 4, clampIndex(9, 5))
	assert.Equal(t, 0, clampIndex(3, 0))
}

func TestProject(t *testing.T) {
	song := &domain.Song{ID: 1, Name: "a"}

	tests := []struct {
		name   string
		status player.Status
		song   *domain.Song
		want   domain.StateKind
	}{
		{"idle wins", player.Status{Idle: true, Buffering: true, Playing: true}, song, domain.StateIdle},
		{"buffering", player.Status{Buffering: true, Playing: true}, song, domain.StateLoading},
		{"playing", player.Status{Playing: true}, song, domain.StatePlaying},
		{"paused", player.Status{}, song, domain.StatePaused},
		{"no song", player.Status{Playing: true}, nil, domain.StateIdle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := project(tt.status, tt.song)
			assert.Equal(t, tt.want, got.Kind)
			if tt.want == domain.StatePlaying || tt.want == domain.StatePaused {
				assert.Same(t, song, got.Song)
			}
		})
	}
}
