package domwatch

import "time"

// State is the acquisition state of the watcher's retry machine.
type State int

const (
	// StateIdle means acquisition has not started (or was re-armed).
	StateIdle State = iota
	// StateWaiting means the container was absent and a retry is pending.
	StateWaiting
	// StateFound means the container was located and the watch is live.
	StateFound
	// StateGaveUp means retries are exhausted for this page load. Only a
	// re-arm (navigation) leaves this state.
	StateGaveUp
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateFound:
		return "found"
	case StateGaveUp:
		return "gave-up"
	default:
		return "unknown"
	}
}

// backoffDelay returns the delay before retry attempt n (1-based): the
// base delay doubled per attempt, capped at max.
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
