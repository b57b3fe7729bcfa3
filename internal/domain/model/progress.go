package model

import "time"

// ProgressEvent is one append-only record of a unit's lifecycle. Events for a
// single unit are emitted in non-decreasing attempt order; events across
// units carry no ordering guarantee.
type ProgressEvent struct {
	EventID string     `json:"event_id"` // ULID, monotonic per process
	BatchID string     `json:"batch_id"`
	UnitID  string     `json:"unit_id"`
	Status  UnitStatus `json:"status"`
	Attempt int        `json:"attempt"`
	Message string     `json:"message,omitempty"`
	At      time.Time  `json:"at"`
}

// ProgressSink receives the event stream. Implementations must be safe for
// concurrent use; the orchestrator calls it from several unit goroutines.
type ProgressSink interface {
	Emit(ev ProgressEvent)
}

// ProgressSinkFunc adapts a function to the ProgressSink interface.
type ProgressSinkFunc func(ev ProgressEvent)

func (f ProgressSinkFunc) Emit(ev ProgressEvent) { f(ev) }
