// Package queue holds the in-memory matchmaking queues. One Manager owns
// both queues behind a single mutex; all pairing decisions happen inside
// that lock so a player can never be matched twice.
package queue

import (
	"errors"
	"time"

	"github.com/rosterleague/roster-clash/internal/game"
)

var (
	ErrUnknownMode = errors.New("unknown queue mode")
	ErrQueueFull   = errors.New("queue is full")
)

// Ticket is everything the match layer needs about one matched side. AI
// opponents are synthesized as tickets with IsAI set and no connection.
type Ticket struct {
	ConnectionID string
	UserID       uint
	Username     string
	Rating       int
	IsAI         bool
	Snapshot     *game.DeckSnapshot
}

// Notifier pushes queue events to a waiting connection.
type Notifier interface {
	Send(connectionID, event string, payload interface{})
}

// Starter hands a matched pair off to the match layer. It is called outside
// the queue lock.
type Starter interface {
	Start(mode game.Mode, a, b Ticket)
}

// Entry is one waiting player.
type Entry struct {
	ConnectionID string
	UserID       uint
	Username     string
	Rating       int
	Tier         game.Tier
	DeckID       uint
	Snapshot     *game.DeckSnapshot
	JoinedAt     time.Time

	timer *time.Timer
}

func (e *Entry) ticket() Ticket {
	return Ticket{
		ConnectionID: e.ConnectionID,
		UserID:       e.UserID,
		Username:     e.Username,
		Rating:       e.Rating,
		Snapshot:     e.Snapshot,
	}
}

type pairKey struct {
	low, high uint
}

func keyFor(a, b uint) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{low: a, high: b}
}

// QueueSizePayload is broadcast to every waiter when a queue's depth changes.
type QueueSizePayload struct {
	Mode game.Mode `json:"mode"`
	Size int       `json:"size"`
}
