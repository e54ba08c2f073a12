package snapshot

import "time"

// EventKind identifies a scheduler notification channel.
type EventKind int

// Scheduler notification channels.
const (
	EventStarted EventKind = iota + 1
	EventAlreadyRunning
	EventCompleted
	EventFailed
	EventError
	EventTimeout
	EventStopped
	EventNotRunning
	EventOverlap
)

var eventNames = map[EventKind]string{
	EventStarted:        "started",
	EventAlreadyRunning: "already-running",
	EventCompleted:      "completed",
	EventFailed:         "failed",
	EventError:          "error",
	EventTimeout:        "timeout",
	EventStopped:        "stopped",
	EventNotRunning:     "not-running",
	EventOverlap:        "overlap",
}

// String returns the channel name.
func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is one scheduler notification.
//
// Only the fields relevant to Kind are set: Interval for started,
// Filename for completed and failed (when already computed), Err for
// failed, error and timeout, Overlaps for overlap, Duration for completed
// and failed.
type Event struct {
	Kind     EventKind
	Time     time.Time
	Interval time.Duration
	Filename string
	Err      error
	Overlaps int
	Duration time.Duration
}
