package queue

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rosterleague/roster-clash/internal/config"
	"github.com/rosterleague/roster-clash/internal/game"
	"github.com/rosterleague/roster-clash/internal/storage"
)

type stubRepo struct {
	storage.Repository
	randomSnap *game.DeckSnapshot
	randomErr  error
}

func (s *stubRepo) RandomDeckSnapshot() (*game.DeckSnapshot, error) {
	return s.randomSnap, s.randomErr
}

type recordNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordNotifier) Send(connID, event string, payload interface{}) {
	n.mu.Lock()
	n.events = append(n.events, connID+":"+event)
	n.mu.Unlock()
}

type recordStarter struct {
	mu      sync.Mutex
	started []struct {
		Mode game.Mode
		A, B Ticket
	}
}

func (s *recordStarter) Start(mode game.Mode, a, b Ticket) {
	s.mu.Lock()
	s.started = append(s.started, struct {
		Mode game.Mode
		A, B Ticket
	}{mode, a, b})
	s.mu.Unlock()
}

func (s *recordStarter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.started)
}

// stub timer factory that never fires on its own; tests invoke the callback.
type manualTimers struct {
	mu    sync.Mutex
	funcs []func()
}

func (mt *manualTimers) afterFunc(_ time.Duration, f func()) *time.Timer {
	mt.mu.Lock()
	mt.funcs = append(mt.funcs, f)
	mt.mu.Unlock()
	t := time.NewTimer(time.Hour)
	t.Stop()
	return t
}

func (mt *manualTimers) fire(i int) {
	mt.mu.Lock()
	f := mt.funcs[i]
	mt.mu.Unlock()
	f()
}

func newTestManager(repo storage.Repository) (*Manager, *recordStarter, *recordNotifier, *manualTimers) {
	starter := &recordStarter{}
	notifier := &recordNotifier{}
	timers := &manualTimers{}
	m := NewManager(config.Default(), repo, notifier, starter, rand.New(rand.NewSource(7)))
	m.afterFunc = timers.afterFunc
	return m, starter, notifier, timers
}

func entryFor(userID uint, name string, rating int) *Entry {
	return &Entry{
		ConnectionID: name + "-conn",
		UserID:       userID,
		Username:     name,
		Rating:       rating,
		Tier:         game.TierForRating(rating),
		Snapshot:     &game.DeckSnapshot{OwnerID: userID},
	}
}

func TestRankedPairsWithinRatingWindow(t *testing.T) {
	m, starter, _, timers := newTestManager(&stubRepo{})

	if err := m.Join(game.ModeRanked, entryFor(1, "alpha", 1000)); err != nil {
		t.Fatalf("first join: %v", err)
	}
	if starter.count() != 0 {
		t.Fatal("match started with an empty queue")
	}
	if err := m.Join(game.ModeRanked, entryFor(2, "beta", 1050)); err != nil {
		t.Fatalf("second join: %v", err)
	}
	if starter.count() != 1 {
		t.Fatalf("expected immediate match, started=%d", starter.count())
	}
	got := starter.started[0]
	if got.Mode != game.ModeRanked {
		t.Errorf("mode = %v", got.Mode)
	}
	if got.A.UserID != 2 || got.B.UserID != 1 {
		t.Errorf("paired %d vs %d, want joiner 2 vs waiter 1", got.A.UserID, got.B.UserID)
	}
	if sizes := m.Sizes(); sizes[game.ModeRanked] != 0 {
		t.Errorf("ranked queue not drained: %d", sizes[game.ModeRanked])
	}
	timers.mu.Lock()
	armed := len(timers.funcs)
	timers.mu.Unlock()
	if armed != 0 {
		t.Errorf("ranked joins must not arm auto-match timers, armed=%d", armed)
	}
}

func TestRankedRespectsRatingWindow(t *testing.T) {
	m, starter, _, _ := newTestManager(&stubRepo{})

	m.Join(game.ModeRanked, entryFor(1, "alpha", 1000))
	m.Join(game.ModeRanked, entryFor(2, "beta", 1300))
	if starter.count() != 0 {
		t.Fatal("players 300 apart should not match on the primary pass")
	}
	if sizes := m.Sizes(); sizes[game.ModeRanked] != 2 {
		t.Errorf("both should wait, size=%d", sizes[game.ModeRanked])
	}
}

func TestRankedRespectsTierDistance(t *testing.T) {
	m, starter, _, _ := newTestManager(&stubRepo{})
	m.cfg.RatingWindow = 1000

	// Gold (1450) vs Diamond (1950): two tiers apart, blocked even though
	// the widened rating window would allow it.
	m.Join(game.ModeRanked, entryFor(1, "alpha", 1450))
	m.Join(game.ModeRanked, entryFor(2, "beta", 1950))
	if starter.count() != 0 {
		t.Fatal("non-adjacent tiers should not pair")
	}
}

func TestAntiRematchBlocksThenExpires(t *testing.T) {
	m, starter, _, _ := newTestManager(&stubRepo{})
	clock := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	m.Join(game.ModeRanked, entryFor(1, "alpha", 1200))
	m.Join(game.ModeRanked, entryFor(2, "beta", 1210))
	if starter.count() != 1 {
		t.Fatal("first pairing should succeed")
	}

	// Immediate requeue: same pair is inside the cooldown.
	m.Join(game.ModeRanked, entryFor(1, "alpha", 1200))
	m.Join(game.ModeRanked, entryFor(2, "beta", 1210))
	if starter.count() != 1 {
		t.Fatal("rematch inside the cooldown should be blocked")
	}

	clock = clock.Add(m.cfg.RematchCooldown + time.Second)
	m.Leave("beta-conn")
	m.Join(game.ModeRanked, entryFor(2, "beta", 1210))
	if starter.count() != 2 {
		t.Fatal("pairing should resume once the cooldown expires")
	}
}

func TestPracticeFallsBackToAI(t *testing.T) {
	snap := &game.DeckSnapshot{}
	m, starter, _, timers := newTestManager(&stubRepo{randomSnap: snap})

	m.Join(game.ModePractice, entryFor(1, "alpha", 1100))
	if starter.count() != 0 {
		t.Fatal("solo practice join should wait for the timer")
	}
	timers.fire(0)
	if starter.count() != 1 {
		t.Fatalf("timer should produce an AI match, started=%d", starter.count())
	}
	got := starter.started[0]
	if got.Mode != game.ModeAI {
		t.Errorf("mode = %v, want ai", got.Mode)
	}
	if !got.B.IsAI || got.B.Snapshot != snap {
		t.Errorf("opponent should be the synthesized AI ticket: %+v", got.B)
	}
	if sizes := m.Sizes(); sizes[game.ModePractice] != 0 {
		t.Errorf("practice queue not drained: %d", sizes[game.ModePractice])
	}
}

func TestPracticeTimerForcedPassBypassesAntiRematch(t *testing.T) {
	m, starter, _, timers := newTestManager(&stubRepo{})
	m.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	// The pair matched recently, so the primary pass leaves both waiting.
	m.markRecentLocked(game.ModePractice, 1, 2)

	m.Join(game.ModePractice, entryFor(1, "alpha", 1100))
	m.Join(game.ModePractice, entryFor(2, "beta", 1100))
	if starter.count() != 0 {
		t.Fatal("cooldown pair should not match on join")
	}

	// Alpha's timer fires; the forced pass drops every filter and prefers
	// the waiting human over the AI fallback.
	timers.fire(0)
	if starter.count() != 1 {
		t.Fatalf("timer should produce a match, started=%d", starter.count())
	}
	got := starter.started[0]
	if got.Mode != game.ModePractice || got.A.IsAI || got.B.IsAI {
		t.Errorf("expected forced human match, got %+v", got)
	}
	if sizes := m.Sizes(); sizes[game.ModePractice] != 0 {
		t.Errorf("practice queue not drained, size=%d", sizes[game.ModePractice])
	}
}

func TestRejoinReplacesExistingEntry(t *testing.T) {
	m, _, _, _ := newTestManager(&stubRepo{})

	m.Join(game.ModeRanked, entryFor(1, "alpha", 1200))
	// Same user hops to practice; the ranked entry must vanish.
	m.Join(game.ModePractice, entryFor(1, "alpha", 1200))

	sizes := m.Sizes()
	if sizes[game.ModeRanked] != 0 || sizes[game.ModePractice] != 1 {
		t.Errorf("sizes = %v, want ranked drained and practice holding one", sizes)
	}
}

func TestFullQueueRejectionKeepsHeldSpot(t *testing.T) {
	m, _, _, _ := newTestManager(&stubRepo{})
	m.cfg.QueueLimit = 1

	m.Join(game.ModeRanked, entryFor(1, "alpha", 1200))
	if err := m.Join(game.ModePractice, entryFor(2, "beta", 1200)); err != nil {
		t.Fatalf("practice join: %v", err)
	}

	// Practice is at capacity; the hop must fail without evicting alpha's
	// ranked entry.
	if err := m.Join(game.ModePractice, entryFor(1, "alpha", 1200)); err != ErrQueueFull {
		t.Fatalf("hop into full queue: err = %v, want ErrQueueFull", err)
	}
	sizes := m.Sizes()
	if sizes[game.ModeRanked] != 1 {
		t.Errorf("rejected hop evicted the held ranked entry: sizes = %v", sizes)
	}

	if err := m.Join(game.ModePractice, entryFor(3, "gamma", 1200)); err != ErrQueueFull {
		t.Errorf("fresh join into full queue: err = %v, want ErrQueueFull", err)
	}

	// A waiter already in the full queue may still replace themselves.
	if err := m.Join(game.ModePractice, entryFor(2, "beta", 1200)); err != nil {
		t.Errorf("self-replace in full queue: %v", err)
	}
	if sizes := m.Sizes(); sizes[game.ModePractice] != 1 {
		t.Errorf("practice sizes = %v, want 1", sizes)
	}
}

func TestLeaveCancelsWaiting(t *testing.T) {
	m, starter, _, _ := newTestManager(&stubRepo{})

	m.Join(game.ModeRanked, entryFor(1, "alpha", 1200))
	if !m.Leave("alpha-conn") {
		t.Fatal("leave should find the waiting entry")
	}
	m.Join(game.ModeRanked, entryFor(2, "beta", 1200))
	if starter.count() != 0 {
		t.Fatal("departed player must not be matched")
	}
}

func TestUnknownModeRejected(t *testing.T) {
	m, _, _, _ := newTestManager(&stubRepo{})
	if err := m.Join(game.Mode("blitz"), entryFor(1, "alpha", 1200)); err != ErrUnknownMode {
		t.Fatalf("err = %v, want ErrUnknownMode", err)
	}
}

func TestQueueSizeBroadcast(t *testing.T) {
	m, _, notifier, _ := newTestManager(&stubRepo{})

	m.Join(game.ModeRanked, entryFor(1, "alpha", 1000))
	m.Join(game.ModeRanked, entryFor(2, "beta", 1300))

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	var alphaGot bool
	for _, ev := range notifier.events {
		if ev == "alpha-conn:queue.size" {
			alphaGot = true
		}
	}
	if !alphaGot {
		t.Error("existing waiter should hear the depth change")
	}
}

func TestCollectExpired(t *testing.T) {
	m, _, _, _ := newTestManager(&stubRepo{})
	clock := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	m.markRecentLocked(game.ModeRanked, 1, 2)
	m.markRecentLocked(game.ModeRanked, 3, 4)
	if n := m.CollectExpired(); n != 0 {
		t.Fatalf("nothing should expire yet, removed %d", n)
	}
	clock = clock.Add(m.cfg.RematchCooldown + time.Second)
	if n := m.CollectExpired(); n != 2 {
		t.Fatalf("removed = %d, want 2", n)
	}
}
