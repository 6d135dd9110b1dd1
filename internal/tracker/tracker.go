// Package tracker decouples settlement from best-effort progress
// collaborators (missions, achievements, events, leveling). Events are
// queued onto a buffered channel and consumed by a worker; failures are
// logged and never reach the caller.
package tracker

import (
	"context"

	"github.com/rosterleague/roster-clash/internal/logging"
)

// Event is a fire-and-forget progress notification.
type Event struct {
	UserID uint
	Type   string
	Count  int
}

// Common event types emitted after settlement.
const (
	EventMatchPlayed  = "match_played"
	EventMatchWon     = "match_won"
	EventRankedPlayed = "ranked_played"
	EventRankedWon    = "ranked_won"
	EventPvEPlayed    = "pve_played"
)

// Sink receives tracker events. Implementations may call external services;
// errors are logged by the dispatcher and never propagated.
type Sink interface {
	Track(ctx context.Context, ev Event) error
}

// LogSink is the default sink: it only records the event.
type LogSink struct{}

func (LogSink) Track(_ context.Context, ev Event) error {
	logging.Info("progress event", logging.Fields{"user_id": ev.UserID, "event": ev.Type, "count": ev.Count})
	return nil
}

// Dispatcher owns the outbound event queue and its consumer goroutine.
type Dispatcher struct {
	sink   Sink
	events chan Event
	done   chan struct{}
}

func NewDispatcher(sink Sink, buffer int) *Dispatcher {
	if sink == nil {
		sink = LogSink{}
	}
	if buffer <= 0 {
		buffer = 256
	}
	d := &Dispatcher{sink: sink, events: make(chan Event, buffer), done: make(chan struct{})}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	for ev := range d.events {
		if err := d.sink.Track(context.Background(), ev); err != nil {
			logging.Error("progress tracker failed", err, logging.Fields{"user_id": ev.UserID, "event": ev.Type})
		}
	}
	close(d.done)
}

// Publish enqueues an event without blocking the caller. When the queue is
// full the event is dropped and logged; trackers are best-effort by design.
func (d *Dispatcher) Publish(ev Event) {
	select {
	case d.events <- ev:
	default:
		logging.Error("progress event dropped, queue full", nil, logging.Fields{"user_id": ev.UserID, "event": ev.Type})
	}
}

// Close drains the queue and stops the worker.
func (d *Dispatcher) Close() {
	close(d.events)
	<-d.done
}
