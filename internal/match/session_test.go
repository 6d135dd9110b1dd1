package match

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rosterleague/roster-clash/internal/config"
	"github.com/rosterleague/roster-clash/internal/constants"
	"github.com/rosterleague/roster-clash/internal/game"
	"github.com/rosterleague/roster-clash/internal/queue"
	"github.com/rosterleague/roster-clash/internal/settle"
)

type sentEvent struct {
	ConnID  string
	Event   string
	Payload interface{}
}

type recordNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordNotifier) Send(connID, event string, payload interface{}) {
	n.mu.Lock()
	n.events = append(n.events, sentEvent{connID, event, payload})
	n.mu.Unlock()
}

func (n *recordNotifier) byEvent(event string) []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentEvent
	for _, e := range n.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type chanSettler struct {
	outcomes chan settle.Outcome
}

func newChanSettler() *chanSettler {
	return &chanSettler{outcomes: make(chan settle.Outcome, 4)}
}

func (s *chanSettler) Settle(out settle.Outcome) error {
	s.outcomes <- out
	return nil
}

func (s *chanSettler) wait(t *testing.T) settle.Outcome {
	t.Helper()
	select {
	case out := <-s.outcomes:
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("settlement never arrived")
		return settle.Outcome{}
	}
}

func (s *chanSettler) expectNone(t *testing.T) {
	t.Helper()
	select {
	case out := <-s.outcomes:
		t.Fatalf("unexpected second settlement: %+v", out)
	case <-time.After(100 * time.Millisecond):
	}
}

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

// fireNext runs the most recently armed timer.
func (mt *manualTimers) fireNext() {
	mt.mu.Lock()
	f := mt.funcs[len(mt.funcs)-1]
	mt.mu.Unlock()
	f()
}

func uniformSnapshot(owner uint, value int) *game.DeckSnapshot {
	cards := make([]game.SnapshotCard, 0, len(game.Positions))
	for _, p := range game.Positions {
		cards = append(cards, game.SnapshotCard{
			Slot:    p,
			Name:    string(p),
			Overall: value,
			Attributes: map[game.Attribute]int{
				game.AttrLaning: value, game.AttrMechanics: value, game.AttrAggression: value,
				game.AttrTeamfight: value, game.AttrPositioning: value, game.AttrVision: value,
				game.AttrMacro: value, game.AttrMental: value,
			},
		})
	}
	return &game.DeckSnapshot{OwnerID: owner, Cards: cards}
}

func ticketFor(userID uint, name string, power int) queue.Ticket {
	return queue.Ticket{
		ConnectionID: name + "-conn",
		UserID:       userID,
		Username:     name,
		Rating:       1200,
		Snapshot:     uniformSnapshot(userID, power),
	}
}

func newTestSession(t *testing.T, mode game.Mode, a, b queue.Ticket) (*Session, *recordNotifier, *chanSettler, *manualTimers) {
	t.Helper()
	cfg := config.Default()
	cfg.LiveJitterPercent = 0
	notifier := &recordNotifier{}
	settler := newChanSettler()
	timers := &manualTimers{}
	s := newSession(mode, a, b, cfg, notifier, settler, rand.New(rand.NewSource(11)), nil)
	s.afterFunc = timers.afterFunc
	return s, notifier, settler, timers
}

func TestStrongerDeckSweepsWithNeutralPicks(t *testing.T) {
	s, notifier, settler, timers := newTestSession(t, game.ModeRanked,
		ticketFor(1, "alpha", 100), ticketFor(2, "beta", 80))

	s.begin()
	if got := notifier.byEvent(constants.EventMatchFound); len(got) != 2 {
		t.Fatalf("match.found sent to %d connections, want 2", len(got))
	}
	timers.fireNext() // lineup preview elapses

	for round := 1; round <= 3; round++ {
		if s.state != StateRoundOpen {
			t.Fatalf("round %d: state = %s", round, s.state)
		}
		// Identical picks keep the counter multiplier neutral.
		if err := s.SubmitStrategy("alpha-conn", "aggressive"); err != nil {
			t.Fatalf("alpha pick: %v", err)
		}
		if err := s.SubmitStrategy("beta-conn", "aggressive"); err != nil {
			t.Fatalf("beta pick: %v", err)
		}
		if round < 3 {
			timers.fireNext() // inter-round pause
		}
	}

	out := settler.wait(t)
	if out.A.Score != 3 || out.B.Score != 0 {
		t.Errorf("score %d-%d, want 3-0", out.A.Score, out.B.Score)
	}
	if out.Rounds != 3 || out.Mode != game.ModeRanked {
		t.Errorf("rounds=%d mode=%v", out.Rounds, out.Mode)
	}

	results := notifier.byEvent(constants.EventRoundResult)
	if len(results) != 6 {
		t.Fatalf("expected 6 round.result events, got %d", len(results))
	}
	first := results[0].Payload.(RoundResultPayload)
	if first.YourPower <= first.OpponentPower {
		t.Errorf("alpha power %d should exceed beta power %d", first.YourPower, first.OpponentPower)
	}
}

func TestCounterPickBeatsEqualDeck(t *testing.T) {
	s, _, settler, timers := newTestSession(t, game.ModeRanked,
		ticketFor(1, "alpha", 90), ticketFor(2, "beta", 90))

	s.begin()
	timers.fireNext()

	// Equal decks: beta wins every round purely on the counter multiplier.
	// In every phase table aggressive counters teamfight.
	for round := 1; round <= 3; round++ {
		if err := s.SubmitStrategy("alpha-conn", "teamfight"); err != nil {
			t.Fatalf("alpha pick: %v", err)
		}
		if err := s.SubmitStrategy("beta-conn", "aggressive"); err != nil {
			t.Fatalf("beta pick: %v", err)
		}
		if round < 3 {
			timers.fireNext()
		}
	}

	out := settler.wait(t)
	if out.B.Score != 3 || out.A.Score != 0 {
		t.Errorf("score %d-%d, want beta sweep", out.A.Score, out.B.Score)
	}
}

func TestTieGoesToFirstSide(t *testing.T) {
	s, notifier, _, timers := newTestSession(t, game.ModeRanked,
		ticketFor(1, "alpha", 90), ticketFor(2, "beta", 90))

	s.begin()
	timers.fireNext()
	s.SubmitStrategy("alpha-conn", "defensive")
	s.SubmitStrategy("beta-conn", "defensive")

	results := notifier.byEvent(constants.EventRoundResult)
	if len(results) != 2 {
		t.Fatalf("expected 2 round.result events, got %d", len(results))
	}
	for _, ev := range results {
		p := ev.Payload.(RoundResultPayload)
		if ev.ConnID == "alpha-conn" && !p.Won {
			t.Error("dead-even round should fall to the first-listed side")
		}
		if ev.ConnID == "beta-conn" && p.Won {
			t.Error("second side must not take the tie")
		}
	}
}

func TestTimeoutFillsMissingPicks(t *testing.T) {
	s, notifier, _, timers := newTestSession(t, game.ModeRanked,
		ticketFor(1, "alpha", 100), ticketFor(2, "beta", 80))

	s.begin()
	timers.fireNext() // preview
	if s.state != StateRoundOpen {
		t.Fatalf("state = %s", s.state)
	}
	timers.fireNext() // round timer, nobody picked

	results := notifier.byEvent(constants.EventRoundResult)
	if len(results) != 2 {
		t.Fatalf("timeout should still resolve the round, got %d results", len(results))
	}
	p := results[0].Payload.(RoundResultPayload)
	if p.YourStrategy == "" || p.OpponentStrategy == "" {
		t.Errorf("auto-filled picks missing from payload: %+v", p)
	}
	if s.state != StateRoundResolving {
		t.Errorf("state = %s, want inter-round pause", s.state)
	}
}

func TestLateTimerCannotDoubleResolve(t *testing.T) {
	s, notifier, _, timers := newTestSession(t, game.ModeRanked,
		ticketFor(1, "alpha", 100), ticketFor(2, "beta", 80))

	s.begin()
	timers.fireNext()
	s.SubmitStrategy("alpha-conn", "aggressive")
	s.SubmitStrategy("beta-conn", "aggressive")

	// Round 1's deadline callback fires after the round already resolved.
	timers.mu.Lock()
	stale := timers.funcs[1]
	timers.mu.Unlock()
	stale()

	if got := len(notifier.byEvent(constants.EventRoundResult)); got != 2 {
		t.Fatalf("stale timer re-resolved the round: %d results", got)
	}
}

func TestAIOpponentAutoPicks(t *testing.T) {
	ai := queue.Ticket{IsAI: true, Username: "Scrim Bot", Snapshot: uniformSnapshot(0, 60)}
	s, notifier, settler, timers := newTestSession(t, game.ModeAI,
		ticketFor(1, "alpha", 100), ai)

	s.begin()
	if got := notifier.byEvent(constants.EventMatchFound); len(got) != 1 {
		t.Fatalf("AI side must not receive events, match.found count=%d", len(got))
	}
	timers.fireNext()

	for round := 1; round <= 3; round++ {
		// The AI picked at round open, so the human's pick resolves at once.
		if err := s.SubmitStrategy("alpha-conn", "teamfight"); err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		if round < 3 {
			timers.fireNext()
		}
	}

	out := settler.wait(t)
	if !out.B.IsAI || out.A.Score != 3 {
		t.Errorf("outcome %+v, want human sweep over AI", out)
	}
}

func TestForfeitSettlesOnceWithLeaverZero(t *testing.T) {
	s, _, settler, timers := newTestSession(t, game.ModeRanked,
		ticketFor(1, "alpha", 90), ticketFor(2, "beta", 90))

	s.begin()
	timers.fireNext()
	s.SubmitStrategy("alpha-conn", "aggressive")
	s.SubmitStrategy("beta-conn", "teamfight") // alpha counters, leads 1-0
	timers.fireNext()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Forfeit("alpha-conn")
		}()
	}
	wg.Wait()

	out := settler.wait(t)
	if out.A.Score != 0 || out.B.Score != 3 {
		t.Errorf("score %d-%d, want leaver 0 and opponent 3", out.A.Score, out.B.Score)
	}
	settler.expectNone(t)

	// A pick after completion is rejected.
	if err := s.SubmitStrategy("beta-conn", "aggressive"); err == nil {
		t.Error("completed session accepted a pick")
	}
}

func TestForfeitAfterNaturalCompletionIsIgnored(t *testing.T) {
	s, _, settler, timers := newTestSession(t, game.ModeRanked,
		ticketFor(1, "alpha", 100), ticketFor(2, "beta", 80))

	s.begin()
	timers.fireNext()
	for round := 1; round <= 3; round++ {
		s.SubmitStrategy("alpha-conn", "aggressive")
		s.SubmitStrategy("beta-conn", "aggressive")
		if round < 3 {
			timers.fireNext()
		}
	}
	// Beta rage-quits right after the natural 3-0; the terminal state must
	// keep the real score line and settle only once.
	s.Forfeit("beta-conn")

	out := settler.wait(t)
	if out.A.Score != 3 || out.B.Score != 0 {
		t.Errorf("score %d-%d, want the natural 3-0 preserved", out.A.Score, out.B.Score)
	}
	settler.expectNone(t)
}

func TestInvalidStrategyRejected(t *testing.T) {
	s, _, _, timers := newTestSession(t, game.ModeRanked,
		ticketFor(1, "alpha", 90), ticketFor(2, "beta", 90))
	s.begin()
	timers.fireNext()

	if err := s.SubmitStrategy("alpha-conn", "macro"); err == nil {
		t.Error("phase names are not valid live picks")
	}
	if err := s.SubmitStrategy("stranger-conn", "aggressive"); err == nil {
		t.Error("unknown connection accepted")
	}
}

func TestRegistryLifecycle(t *testing.T) {
	cfg := config.Default()
	cfg.LiveJitterPercent = 0
	notifier := &recordNotifier{}
	settler := newChanSettler()
	r := NewRegistry(cfg, notifier, settler, rand.New(rand.NewSource(3)))

	a := ticketFor(1, "alpha", 100)
	b := ticketFor(2, "beta", 80)
	r.Start(game.ModeRanked, a, b)

	if _, ok := r.SessionFor("alpha-conn"); !ok {
		t.Fatal("session not registered for alpha")
	}
	if !r.UserInMatch(1) || !r.UserInMatch(2) {
		t.Error("both users should read as in-match")
	}

	r.HandleDisconnect("beta-conn")
	out := settler.wait(t)
	if out.A.Score != 3 || out.B.Score != 0 {
		t.Errorf("disconnect outcome %d-%d, want 3-0 for the survivor", out.A.Score, out.B.Score)
	}
	if r.UserInMatch(1) || r.UserInMatch(2) {
		t.Error("completed session should unregister both users")
	}
	if _, ok := r.SessionFor("alpha-conn"); ok {
		t.Error("connection mapping should be cleared")
	}
}
