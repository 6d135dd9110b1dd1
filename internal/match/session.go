// Package match runs live best-of-five sessions. Each session is a small
// state machine owned by its own mutex; round timers re-check state after
// re-acquiring the lock so a late callback can never act on a finished match.
package match

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rosterleague/roster-clash/internal/config"
	"github.com/rosterleague/roster-clash/internal/constants"
	"github.com/rosterleague/roster-clash/internal/game"
	"github.com/rosterleague/roster-clash/internal/logging"
	"github.com/rosterleague/roster-clash/internal/power"
	"github.com/rosterleague/roster-clash/internal/queue"
	"github.com/rosterleague/roster-clash/internal/settle"
	"github.com/rosterleague/roster-clash/internal/strategy"
)

// State is the session lifecycle phase.
type State string

const (
	StateAwaitingRoundStart State = "AWAITING_ROUND_START"
	StateRoundOpen          State = "ROUND_OPEN"
	StateRoundResolving     State = "ROUND_RESOLVING"
	StateComplete           State = "MATCH_COMPLETE"
)

const winningScore = 3

// Notifier pushes session events to a connection.
type Notifier interface {
	Send(connectionID, event string, payload interface{})
}

// Settler persists a finished match exactly once.
type Settler interface {
	Settle(out settle.Outcome) error
}

type side struct {
	ticket queue.Ticket
	score  int
	pick   *strategy.LiveStrategy
}

// Session is one live match between two sides. Side 0 holds the tie-break
// advantage on equal round power.
type Session struct {
	mu sync.Mutex

	ID   string
	Mode game.Mode

	cfg      *config.Config
	notifier Notifier
	settler  Settler
	rng      *rand.Rand
	onClose  func(*Session)

	state   State
	round   int
	sides   [2]*side
	timer   *time.Timer
	settled bool

	afterFunc func(d time.Duration, f func()) *time.Timer
}

func newSession(mode game.Mode, a, b queue.Ticket, cfg *config.Config, notifier Notifier, settler Settler, rng *rand.Rand, onClose func(*Session)) *Session {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Session{
		ID:        uuid.NewString(),
		Mode:      mode,
		cfg:       cfg,
		notifier:  notifier,
		settler:   settler,
		rng:       rng,
		onClose:   onClose,
		state:     StateAwaitingRoundStart,
		sides:     [2]*side{{ticket: a}, {ticket: b}},
		afterFunc: time.AfterFunc,
	}
}

// MatchFoundPayload introduces the opponent and both lineups during the
// preview window before round one.
type MatchFoundPayload struct {
	MatchID        string             `json:"match_id"`
	Mode           game.Mode          `json:"mode"`
	OpponentName   string             `json:"opponent_name"`
	OpponentRating int                `json:"opponent_rating"`
	YourDeck       *game.DeckSnapshot `json:"your_deck"`
	OpponentDeck   *game.DeckSnapshot `json:"opponent_deck"`
	PreviewSeconds int                `json:"preview_seconds"`
}

// RoundStartPayload opens a round for strategy submission.
type RoundStartPayload struct {
	Round        int                   `json:"round"`
	Category     strategy.LiveStrategy `json:"category"`
	TimerSeconds int                   `json:"timer_seconds"`
}

// RoundResultPayload reports one resolved round from the receiver's side.
type RoundResultPayload struct {
	Round            int                   `json:"round"`
	Category         strategy.LiveStrategy `json:"category"`
	YourStrategy     strategy.LiveStrategy `json:"your_strategy"`
	OpponentStrategy strategy.LiveStrategy `json:"opponent_strategy"`
	YourPower        int                   `json:"your_power"`
	OpponentPower    int                   `json:"opponent_power"`
	Won              bool                  `json:"won"`
	YourScore        int                   `json:"your_score"`
	OpponentScore    int                   `json:"opponent_score"`
}

// begin announces the match and schedules round one after the lineup preview.
func (s *Session) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sd := range s.sides {
		opp := s.sides[1-i]
		if sd.ticket.IsAI {
			continue
		}
		s.notifier.Send(sd.ticket.ConnectionID, constants.EventMatchFound, MatchFoundPayload{
			MatchID:        s.ID,
			Mode:           s.Mode,
			OpponentName:   opp.ticket.Username,
			OpponentRating: opp.ticket.Rating,
			YourDeck:       sd.ticket.Snapshot,
			OpponentDeck:   opp.ticket.Snapshot,
			PreviewSeconds: int(s.cfg.LineupPreviewDelay / time.Second),
		})
	}
	logging.Info("match started", logging.Fields{
		constants.LogFieldMatchID: s.ID,
		"mode":                    s.Mode,
	})
	s.timer = s.afterFunc(s.cfg.LineupPreviewDelay, s.nextRound)
}

// nextRound opens the next round, auto-picking for the AI side.
func (s *Session) nextRound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateComplete {
		return
	}

	s.round++
	s.state = StateRoundOpen
	for _, sd := range s.sides {
		sd.pick = nil
		if sd.ticket.IsAI {
			p := strategy.RandomLive(s.rng)
			sd.pick = &p
		}
	}
	cat := strategy.CategoryForRound(s.round)
	payload := RoundStartPayload{
		Round:        s.round,
		Category:     cat,
		TimerSeconds: int(s.cfg.RoundTimer / time.Second),
	}
	for _, sd := range s.sides {
		if !sd.ticket.IsAI {
			s.notifier.Send(sd.ticket.ConnectionID, constants.EventRoundStart, payload)
		}
	}

	round := s.round
	s.timer = s.afterFunc(s.cfg.RoundTimer, func() {
		s.roundTimeout(round)
	})
}

// SubmitStrategy records a hidden pick. Resubmission before the round
// resolves overwrites the earlier pick. Resolution fires as soon as both
// sides have chosen.
func (s *Session) SubmitStrategy(connectionID, raw string) error {
	pick, ok := strategy.ParseLive(raw)
	if !ok {
		return fmt.Errorf("%s: %q", constants.ErrInvalidStrategy, raw)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRoundOpen {
		return fmt.Errorf("round not open for picks (state %s)", s.state)
	}
	sd := s.sideFor(connectionID)
	if sd == nil {
		return fmt.Errorf("connection %s is not in match %s", connectionID, s.ID)
	}
	sd.pick = &pick

	if s.sides[0].pick != nil && s.sides[1].pick != nil {
		if s.timer != nil {
			s.timer.Stop()
		}
		s.resolveLocked()
	}
	return nil
}

// roundTimeout fills missing picks at the deadline. The round guard drops
// callbacks from timers that were superseded before they could be stopped.
func (s *Session) roundTimeout(round int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRoundOpen || s.round != round {
		return
	}
	for _, sd := range s.sides {
		if sd.pick == nil {
			p := strategy.RandomLive(s.rng)
			sd.pick = &p
		}
	}
	s.resolveLocked()
}

// resolveLocked compares jittered round power and advances the score. Both
// picks are set when this runs.
func (s *Session) resolveLocked() {
	s.state = StateRoundResolving
	cat := strategy.CategoryForRound(s.round)

	var final [2]float64
	var base [2]int
	for i, sd := range s.sides {
		opp := s.sides[1-i]
		base[i] = power.LivePower(sd.ticket.Snapshot, *sd.pick, nil)
		adv := strategy.LiveAdvantage(*sd.pick, *opp.pick, cat)
		jitter := 1.0 + (s.rng.Float64()*2-1)*s.cfg.LiveJitterPercent/100
		final[i] = float64(base[i]) * adv * jitter
	}

	// Side 0 takes ties.
	winner := 0
	if final[1] > final[0] {
		winner = 1
	}
	s.sides[winner].score++

	for i, sd := range s.sides {
		if sd.ticket.IsAI {
			continue
		}
		opp := s.sides[1-i]
		s.notifier.Send(sd.ticket.ConnectionID, constants.EventRoundResult, RoundResultPayload{
			Round:            s.round,
			Category:         cat,
			YourStrategy:     *sd.pick,
			OpponentStrategy: *opp.pick,
			YourPower:        int(final[i]),
			OpponentPower:    int(final[1-i]),
			Won:              i == winner,
			YourScore:        sd.score,
			OpponentScore:    opp.score,
		})
	}
	s.sendCommentaryLocked(cat, s.sides[winner].ticket.Username)

	logging.Info("round resolved", logging.Fields{
		constants.LogFieldMatchID: s.ID,
		constants.LogFieldRound:   s.round,
		"category":                cat,
		"winner":                  s.sides[winner].ticket.Username,
	})

	if s.sides[winner].score >= winningScore {
		s.completeLocked()
		return
	}
	round := s.round
	s.timer = s.afterFunc(s.cfg.InterRoundPause, func() {
		s.mu.Lock()
		stale := s.state != StateRoundResolving || s.round != round
		s.mu.Unlock()
		if !stale {
			s.nextRound()
		}
	})
}

// Forfeit ends the match immediately: the leaver's score drops to zero and
// the remaining side takes the win.
func (s *Session) Forfeit(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateComplete {
		return
	}
	leaver := s.sideFor(connectionID)
	if leaver == nil {
		return
	}
	for i, sd := range s.sides {
		if sd == leaver {
			sd.score = 0
			s.sides[1-i].score = winningScore
		}
	}
	logging.Info("match forfeited", logging.Fields{
		constants.LogFieldMatchID: s.ID,
		constants.LogFieldConnID:  connectionID,
	})
	s.completeLocked()
}

// Disconnect treats a dropped connection as a forfeit.
func (s *Session) Disconnect(connectionID string) {
	s.Forfeit(connectionID)
}

// completeLocked settles exactly once and tears the session down.
func (s *Session) completeLocked() {
	if s.settled {
		return
	}
	s.settled = true
	s.state = StateComplete
	if s.timer != nil {
		s.timer.Stop()
	}

	out := settle.Outcome{
		MatchID: s.ID,
		Mode:    s.Mode,
		Rounds:  s.round,
		A:       participant(s.sides[0]),
		B:       participant(s.sides[1]),
	}
	// Settlement owns its own persistence and notifications; errors there
	// are already logged and must not resurrect the session.
	go func() {
		_ = s.settler.Settle(out)
	}()
	if s.onClose != nil {
		s.onClose(s)
	}
}

func participant(sd *side) settle.Participant {
	return settle.Participant{
		UserID:       sd.ticket.UserID,
		ConnectionID: sd.ticket.ConnectionID,
		Username:     sd.ticket.Username,
		IsAI:         sd.ticket.IsAI,
		Score:        sd.score,
	}
}

func (s *Session) sideFor(connectionID string) *side {
	for _, sd := range s.sides {
		if !sd.ticket.IsAI && sd.ticket.ConnectionID == connectionID {
			return sd
		}
	}
	return nil
}

// connectionIDs lists the real connections attached to this session.
func (s *Session) connectionIDs() []string {
	out := make([]string, 0, 2)
	for _, sd := range s.sides {
		if !sd.ticket.IsAI {
			out = append(out, sd.ticket.ConnectionID)
		}
	}
	return out
}

var commentaryLines = map[strategy.LiveStrategy][]string{
	strategy.LiveAggressive: {
		"%s draws first blood in lane!",
		"%s snowballs the early skirmishes.",
	},
	strategy.LiveTeamfight: {
		"%s wins the five-on-five around the objective!",
		"%s cleans up a chaotic teamfight.",
	},
	strategy.LiveDefensive: {
		"%s scales quietly and takes over the map.",
		"%s wins the vision war and closes it out.",
	},
}

// sendCommentaryLocked emits a flavor line; delivery is best effort.
func (s *Session) sendCommentaryLocked(cat strategy.LiveStrategy, winnerName string) {
	lines := commentaryLines[cat]
	if len(lines) == 0 {
		return
	}
	text := fmt.Sprintf(lines[s.rng.Intn(len(lines))], winnerName)
	payload := map[string]interface{}{
		"round": s.round,
		"text":  text,
	}
	for _, sd := range s.sides {
		if !sd.ticket.IsAI {
			s.notifier.Send(sd.ticket.ConnectionID, constants.EventRoundFlavor, payload)
		}
	}
}
