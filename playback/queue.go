package playback

import "github.com/yhkl-dev/freemusic/domain"

// nextIndex returns the index after current under mode, or -1 for an empty queue.
// RepeatOne keeps the current index.
func nextIndex(mode domain.PlayMode, current, length int, intn func(int) int) int {
	if length <= 0 {
		return -1
	}
	switch mode {
	case domain.Shuffle:
		// may pick current again
		return intn(length)
	case domain.RepeatOne:
		return clampIndex(current, length)
	default:
		return (current + 1) % length
	}
}

// previousIndex wraps from 0 to the last item, or returns -1 for an empty queue
func previousIndex(current, length int) int {
	if length <= 0 {
		return -1
	}
	if current <= 0 {
		return length - 1
	}
	return clampIndex(current-1, length)
}

// clampIndex forces index into [0, length); 0 for an empty queue
func clampIndex(index, length int) int {
	if length <= 0 || index < 0 {
		return 0
	}
	if index >= length {
		return length - 1
	}
	return index
}
