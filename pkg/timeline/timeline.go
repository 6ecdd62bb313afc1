// Package timeline records a battle's append-only sequence of
// (label, timestamp) checkpoints. Adapted from the teacher module's
// pkg/progress package: percent-complete and per-stage messages don't
// apply here (a battle's timeline is a flat event log, not a
// percent-progress stream), so Stage/Update/Reporter become
// Label/Event/Recorder and lose their percent/message fields, but the
// concurrency-safe shape (Recorder interface, mutex-guarded Log that
// several goroutines record into) is kept.
package timeline

import (
	"sync"
	"time"
)

// Event is one checkpoint in a battle's timeline.
type Event struct {
	Label     string
	Timestamp float64
}

// Recorder accepts timeline events. BattleGenerator and WorkerClient both
// write through a Recorder so the battle's final timeline reflects every
// component's checkpoints in wall-clock order once sorted.
type Recorder interface {
	Record(label string)
}

// Clock returns the current time as a float64 unix timestamp; overridable
// in tests for deterministic event ordering.
type Clock func() float64

func defaultClock() float64 { return float64(time.Now().UnixNano()) / 1e9 }

// Log is the default Recorder: an in-memory, mutex-guarded, append-only
// list of events, matching battle.py's plain `timings` list threaded
// through generate_audio/generate_battle.
type Log struct {
	mu     sync.Mutex
	clock  Clock
	events []Event
}

// NewLog returns a Log using the real wall clock.
func NewLog() *Log { return &Log{clock: defaultClock} }

// NewLogWithClock returns a Log using a caller-supplied clock, for tests
// that need deterministic timestamps.
func NewLogWithClock(clock Clock) *Log { return &Log{clock: clock} }

func (l *Log) Record(label string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, Event{Label: label, Timestamp: l.clock()})
}

// Events returns a snapshot of the recorded events in insertion order.
func (l *Log) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}
