package match

import (
	"math/rand"
	"sync"

	"github.com/rosterleague/roster-clash/internal/config"
	"github.com/rosterleague/roster-clash/internal/game"
	"github.com/rosterleague/roster-clash/internal/queue"
)

// Registry tracks live sessions by connection and by user. It is the queue
// manager's Starter: a matched pair lands here as a new session.
type Registry struct {
	mu sync.Mutex

	cfg      *config.Config
	notifier Notifier
	settler  Settler
	rng      *rand.Rand

	byConn map[string]*Session
	byUser map[uint]*Session
}

func NewRegistry(cfg *config.Config, notifier Notifier, settler Settler, rng *rand.Rand) *Registry {
	return &Registry{
		cfg:      cfg,
		notifier: notifier,
		settler:  settler,
		rng:      rng,
		byConn:   map[string]*Session{},
		byUser:   map[uint]*Session{},
	}
}

// Start creates and launches a session for a matched pair.
func (r *Registry) Start(mode game.Mode, a, b queue.Ticket) {
	s := newSession(mode, a, b, r.cfg, r.notifier, r.settler, r.rng, r.remove)

	r.mu.Lock()
	for _, t := range []queue.Ticket{a, b} {
		if t.IsAI {
			continue
		}
		r.byConn[t.ConnectionID] = s
		r.byUser[t.UserID] = s
	}
	r.mu.Unlock()

	s.begin()
}

// SessionFor returns the live session attached to a connection.
func (r *Registry) SessionFor(connectionID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byConn[connectionID]
	return s, ok
}

// UserInMatch reports whether the user has a live session, which blocks
// queue entry.
func (r *Registry) UserInMatch(userID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byUser[userID]
	return ok
}

// HandleDisconnect forfeits the session bound to a dropped connection.
func (r *Registry) HandleDisconnect(connectionID string) {
	if s, ok := r.SessionFor(connectionID); ok {
		s.Disconnect(connectionID)
	}
}

func (r *Registry) remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, connID := range s.connectionIDs() {
		if r.byConn[connID] == s {
			delete(r.byConn, connID)
		}
	}
	for _, sd := range s.sides {
		if !sd.ticket.IsAI && r.byUser[sd.ticket.UserID] == s {
			delete(r.byUser, sd.ticket.UserID)
		}
	}
}
