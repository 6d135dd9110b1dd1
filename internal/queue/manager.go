package queue

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rosterleague/roster-clash/internal/config"
	"github.com/rosterleague/roster-clash/internal/constants"
	"github.com/rosterleague/roster-clash/internal/game"
	"github.com/rosterleague/roster-clash/internal/logging"
	"github.com/rosterleague/roster-clash/internal/storage"
)

// aiNames gives the practice bot a little variety.
var aiNames = []string{"Scrim Bot", "Practice Partner", "Solo Queue Ghost", "Coach Kim"}

// Manager owns the ranked and practice queues and the anti-rematch ledger.
type Manager struct {
	mu sync.Mutex

	cfg      *config.Config
	repo     storage.Repository
	notifier Notifier
	starter  Starter
	rng      *rand.Rand

	queues map[game.Mode][]*Entry
	// recent blocks a pair from re-matching until the cooldown expires.
	// Keyed per queue mode so a ranked rematch block does not leak into
	// practice pairing.
	recent map[game.Mode]map[pairKey]time.Time

	now func() time.Time
	// afterFunc is swapped out in tests to drive timers by hand.
	afterFunc func(d time.Duration, f func()) *time.Timer
}

func NewManager(cfg *config.Config, repo storage.Repository, notifier Notifier, starter Starter, rng *rand.Rand) *Manager {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Manager{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		starter:  starter,
		rng:      rng,
		queues: map[game.Mode][]*Entry{
			game.ModeRanked:   nil,
			game.ModePractice: nil,
		},
		recent: map[game.Mode]map[pairKey]time.Time{
			game.ModeRanked:   {},
			game.ModePractice: {},
		},
		now:       time.Now,
		afterFunc: time.AfterFunc,
	}
}

// Join places the player into the named queue, or pairs them immediately
// when a compatible opponent is already waiting. A player queued anywhere
// under the same user id is silently replaced.
func (m *Manager) Join(mode game.Mode, e *Entry) error {
	if mode != game.ModeRanked && mode != game.ModePractice {
		return ErrUnknownMode
	}

	m.mu.Lock()
	// Capacity is judged before the rejoin eviction, not counting the
	// player's own entry, so a full queue never costs them a held spot.
	occupied := 0
	for _, waiting := range m.queues[mode] {
		if waiting.UserID != e.UserID {
			occupied++
		}
	}
	if occupied >= m.cfg.QueueLimit {
		m.mu.Unlock()
		return ErrQueueFull
	}
	m.removeByUserLocked(e.UserID)

	e.JoinedAt = m.now()
	opp := m.searchLocked(mode, e, false)
	if opp != nil {
		m.takeLocked(mode, opp)
		m.markRecentLocked(mode, e.UserID, opp.UserID)
		m.broadcastSizeLocked(mode)
		m.mu.Unlock()

		logging.Info("queue matched", logging.Fields{
			constants.LogFieldQueue:  mode,
			constants.LogFieldUserID: e.UserID,
			"opponent_id":            opp.UserID,
		})
		m.starter.Start(mode, e.ticket(), opp.ticket())
		return nil
	}

	if mode == game.ModePractice {
		e.timer = m.afterFunc(m.cfg.PracticeAutoMatchIn, func() {
			m.autoMatch(e)
		})
	}
	m.queues[mode] = append(m.queues[mode], e)
	m.broadcastSizeLocked(mode)
	m.mu.Unlock()

	logging.Info("queue joined", logging.Fields{
		constants.LogFieldQueue:  mode,
		constants.LogFieldUserID: e.UserID,
	})
	return nil
}

// Leave removes the connection from whichever queue holds it.
func (m *Manager) Leave(connectionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for mode, list := range m.queues {
		for i, e := range list {
			if e.ConnectionID == connectionID {
				if e.timer != nil {
					e.timer.Stop()
				}
				m.queues[mode] = append(list[:i], list[i+1:]...)
				m.broadcastSizeLocked(mode)
				return true
			}
		}
	}
	return false
}

// Sizes reports current queue depths, for the periodic health log.
func (m *Manager) Sizes() map[game.Mode]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[game.Mode]int, len(m.queues))
	for mode, list := range m.queues {
		out[mode] = len(list)
	}
	return out
}

// CollectExpired drops anti-rematch marks past their cooldown. Wired to a
// periodic job; pairing also skips expired marks on its own.
func (m *Manager) CollectExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for _, marks := range m.recent {
		for k, expires := range marks {
			if now.After(expires) {
				delete(marks, k)
				removed++
			}
		}
	}
	return removed
}

// autoMatch fires when a practice waiter's timer elapses: first a forced
// search over the live queue, then an AI opponent as the fallback.
func (m *Manager) autoMatch(e *Entry) {
	m.mu.Lock()
	if !m.containsLocked(game.ModePractice, e) {
		// Left or matched before the timer fired.
		m.mu.Unlock()
		return
	}
	opp := m.searchLocked(game.ModePractice, e, true)
	if opp != nil {
		m.takeLocked(game.ModePractice, e)
		m.takeLocked(game.ModePractice, opp)
		m.markRecentLocked(game.ModePractice, e.UserID, opp.UserID)
		m.broadcastSizeLocked(game.ModePractice)
		m.mu.Unlock()
		m.starter.Start(game.ModePractice, e.ticket(), opp.ticket())
		return
	}
	m.takeLocked(game.ModePractice, e)
	m.broadcastSizeLocked(game.ModePractice)
	name := aiNames[m.rng.Intn(len(aiNames))]
	m.mu.Unlock()

	snap, err := m.repo.RandomDeckSnapshot()
	if err != nil {
		logging.Error("failed to build AI deck", err, logging.Fields{
			constants.LogFieldUserID: e.UserID,
		})
		m.notifier.Send(e.ConnectionID, constants.EventQueueError, map[string]string{
			constants.JSONKeyError: constants.ErrFailedCreateSession,
		})
		return
	}
	logging.Info("practice fallback to AI", logging.Fields{
		constants.LogFieldUserID: e.UserID,
	})
	m.starter.Start(game.ModeAI, e.ticket(), Ticket{
		IsAI:     true,
		Username: name,
		Rating:   e.Rating,
		Snapshot: snap,
	})
}

// searchLocked scans the queue in arrival order for the first compatible
// opponent. The forced pass (practice auto-match timeout) drops every
// filter, anti-rematch included; only the primary pass enforces them.
func (m *Manager) searchLocked(mode game.Mode, e *Entry, forced bool) *Entry {
	for _, cand := range m.queues[mode] {
		if cand.UserID == e.UserID {
			continue
		}
		if forced {
			return cand
		}
		if m.recentlyMatchedLocked(mode, e.UserID, cand.UserID) {
			continue
		}
		if mode == game.ModeRanked {
			diff := e.Rating - cand.Rating
			if diff < 0 {
				diff = -diff
			}
			if diff > m.cfg.RatingWindow {
				continue
			}
			if !game.TiersCompatible(e.Tier, cand.Tier) {
				continue
			}
		}
		return cand
	}
	return nil
}

func (m *Manager) recentlyMatchedLocked(mode game.Mode, a, b uint) bool {
	expires, ok := m.recent[mode][keyFor(a, b)]
	if !ok {
		return false
	}
	if m.now().After(expires) {
		delete(m.recent[mode], keyFor(a, b))
		return false
	}
	return true
}

func (m *Manager) markRecentLocked(mode game.Mode, a, b uint) {
	m.recent[mode][keyFor(a, b)] = m.now().Add(m.cfg.RematchCooldown)
}

func (m *Manager) containsLocked(mode game.Mode, e *Entry) bool {
	for _, cand := range m.queues[mode] {
		if cand == e {
			return true
		}
	}
	return false
}

// takeLocked removes the entry and cancels its timer. No-op when absent.
func (m *Manager) takeLocked(mode game.Mode, e *Entry) {
	for i, cand := range m.queues[mode] {
		if cand == e {
			if cand.timer != nil {
				cand.timer.Stop()
			}
			m.queues[mode] = append(m.queues[mode][:i], m.queues[mode][i+1:]...)
			return
		}
	}
}

func (m *Manager) removeByUserLocked(userID uint) {
	for mode, list := range m.queues {
		for i, e := range list {
			if e.UserID == userID {
				if e.timer != nil {
					e.timer.Stop()
				}
				m.queues[mode] = append(list[:i], list[i+1:]...)
				m.broadcastSizeLocked(mode)
				return
			}
		}
	}
}

func (m *Manager) broadcastSizeLocked(mode game.Mode) {
	payload := QueueSizePayload{Mode: mode, Size: len(m.queues[mode])}
	for _, e := range m.queues[mode] {
		m.notifier.Send(e.ConnectionID, constants.EventQueueSize, payload)
	}
}
