// Package settle applies a finished match to persistent state: rating,
// points, streak and time-window bonuses, match record and history rows.
// A settlement is a single transaction invoked exactly once per session.
package settle

import (
	"time"

	"github.com/rosterleague/roster-clash/internal/config"
	"github.com/rosterleague/roster-clash/internal/constants"
	"github.com/rosterleague/roster-clash/internal/game"
	"github.com/rosterleague/roster-clash/internal/logging"
	"github.com/rosterleague/roster-clash/internal/storage"
	"github.com/rosterleague/roster-clash/internal/tracker"
)

// Participant is one side of a finished match as seen by settlement.
type Participant struct {
	UserID       uint
	ConnectionID string
	Username     string
	IsAI         bool
	Score        int
}

// Outcome carries everything settlement needs about a finished match.
type Outcome struct {
	MatchID string
	Mode    game.Mode
	Rounds  int
	A, B    Participant
}

// Notifier pushes the per-participant result payload over the transport.
type Notifier interface {
	Send(connectionID, event string, payload interface{})
}

// ResultPayload is one participant's own view of the settled match.
type ResultPayload struct {
	MatchID        string `json:"match_id"`
	Mode           string `json:"mode"`
	Outcome        string `json:"outcome"`
	YourScore      int    `json:"your_score"`
	OpponentScore  int    `json:"opponent_score"`
	OpponentName   string `json:"opponent_name"`
	PointsDelta    int    `json:"points_delta"`
	StreakBonus    int    `json:"streak_bonus"`
	HappyHourBonus int    `json:"happy_hour_bonus"`
	RatingDelta    int    `json:"rating_delta"`
	NewRating      int    `json:"new_rating"`
	Tier           string `json:"tier"`
}

type Service struct {
	repo     storage.Repository
	trackers *tracker.Dispatcher
	notifier Notifier
	cfg      *config.Config

	// now is injectable so the happy-hour window is testable.
	now func() time.Time
}

func NewService(repo storage.Repository, trackers *tracker.Dispatcher, notifier Notifier, cfg *config.Config) *Service {
	return &Service{repo: repo, trackers: trackers, notifier: notifier, cfg: cfg, now: time.Now}
}

// Settle persists the outcome and notifies the real participants. It is
// atomic: either the record, histories and profile updates all land, or the
// error is surfaced and nothing is written. Tracker notifications happen
// after the transaction and are fire-and-forget.
func (s *Service) Settle(out Outcome) error {
	aWon := out.A.Score > out.B.Score

	type settled struct {
		part    Participant
		user    *game.User
		won     bool
		payload ResultPayload
	}
	sides := make([]*settled, 0, 2)

	for _, pair := range []struct {
		p, opp Participant
		won    bool
	}{
		{out.A, out.B, aWon},
		{out.B, out.A, !aWon},
	} {
		if pair.p.IsAI {
			continue
		}
		u, err := s.repo.GetUserByID(pair.p.UserID)
		if err != nil {
			logging.Error("settlement user lookup failed", err, logging.Fields{
				constants.LogFieldMatchID: out.MatchID,
				constants.LogFieldUserID:  pair.p.UserID,
			})
			s.notifyFailure(out)
			return err
		}
		sides = append(sides, &settled{part: pair.p, user: u, won: pair.won, payload: ResultPayload{
			MatchID:       out.MatchID,
			Mode:          string(out.Mode),
			YourScore:     pair.p.Score,
			OpponentScore: pair.opp.Score,
			OpponentName:  pair.opp.Username,
		}})
	}

	// Ranked rating is computed from both current ratings before either is
	// mutated, then clamped at the floor for the loser.
	if out.Mode == game.ModeRanked && len(sides) == 2 {
		ra, rb := sides[0].user.Rating, sides[1].user.Rating
		for i, side := range sides {
			opp := rb
			if i == 1 {
				opp = ra
			}
			mine := ra
			if i == 1 {
				mine = rb
			}
			score := 0.0
			if side.won {
				score = 1.0
			}
			delta := ratingDelta(mine, opp, score, s.cfg.EloKFactor)
			newRating := clampFloor(mine+delta, s.cfg.RatingFloor)
			side.payload.RatingDelta = newRating - mine
			side.payload.NewRating = newRating
			side.user.Rating = newRating
			side.user.Tier = string(game.TierForRating(newRating))
			side.payload.Tier = side.user.Tier
		}
	}

	for _, side := range sides {
		base := s.basePoints(out.Mode, side.won)
		if side.won {
			side.user.WinStreak++
			side.user.Wins++
			side.payload.Outcome = "win"
			side.payload.StreakBonus = s.streakBonus(side.user.WinStreak)
		} else {
			side.user.WinStreak = 0
			side.user.Losses++
			side.payload.Outcome = "loss"
		}
		side.payload.HappyHourBonus = s.happyHourBonus(base)
		side.payload.PointsDelta = base + side.payload.StreakBonus + side.payload.HappyHourBonus
		side.user.Points += side.payload.PointsDelta
		side.user.GamesPlayed++
		if side.payload.Tier == "" {
			side.payload.Tier = side.user.Tier
		}
	}

	record := &game.MatchRecord{
		MatchID: out.MatchID,
		Mode:    out.Mode,
		ScoreA:  out.A.Score,
		ScoreB:  out.B.Score,
		Rounds:  out.Rounds,
	}
	if !out.A.IsAI {
		id := out.A.UserID
		record.PlayerAID = &id
	}
	if !out.B.IsAI {
		id := out.B.UserID
		record.PlayerBID = &id
	}
	if aWon && !out.A.IsAI {
		id := out.A.UserID
		record.WinnerUserID = &id
	} else if !aWon && !out.B.IsAI {
		id := out.B.UserID
		record.WinnerUserID = &id
	}

	histories := make([]game.MatchHistory, 0, len(sides))
	users := make([]*game.User, 0, len(sides))
	for _, side := range sides {
		histories = append(histories, game.MatchHistory{
			UserID:      side.part.UserID,
			Outcome:     side.payload.Outcome,
			PointsDelta: side.payload.PointsDelta,
			RatingDelta: side.payload.RatingDelta,
			RatingAfter: side.user.Rating,
		})
		users = append(users, side.user)
	}

	if err := s.repo.SaveMatchOutcome(record, histories, users); err != nil {
		logging.Error("settlement persistence failed", err, logging.Fields{constants.LogFieldMatchID: out.MatchID})
		s.notifyFailure(out)
		return err
	}

	for _, side := range sides {
		if s.notifier != nil && side.part.ConnectionID != "" {
			s.notifier.Send(side.part.ConnectionID, constants.EventMatchComplete, side.payload)
		}
		s.publishTrackers(out.Mode, side.part.UserID, side.won)
	}

	logging.Info("match settled", logging.Fields{
		constants.LogFieldMatchID: out.MatchID,
		"mode":                    out.Mode,
		"score_a":                 out.A.Score,
		"score_b":                 out.B.Score,
	})
	return nil
}

// notifyFailure tells the real participants their result could not be
// recorded, so a failed settlement is never silent on the client side.
func (s *Service) notifyFailure(out Outcome) {
	if s.notifier == nil {
		return
	}
	for _, p := range []Participant{out.A, out.B} {
		if p.IsAI || p.ConnectionID == "" {
			continue
		}
		s.notifier.Send(p.ConnectionID, constants.EventMatchError, map[string]string{
			constants.JSONKeyMessage: constants.ErrSettlementFailed,
			"match_id":               out.MatchID,
		})
	}
}

func (s *Service) basePoints(mode game.Mode, won bool) int {
	if mode == game.ModeRanked {
		if won {
			return s.cfg.RankedWinPoints
		}
		return s.cfg.RankedLossPoints
	}
	if won {
		return s.cfg.PracticeWinPoints
	}
	return s.cfg.PracticeLossPoints
}

// streakBonus escalates with the consecutive-win count and caps out.
func (s *Service) streakBonus(streak int) int {
	if streak <= 1 {
		return 0
	}
	bonus := (streak - 1) * s.cfg.StreakBonusStep
	if bonus > s.cfg.StreakBonusCap {
		bonus = s.cfg.StreakBonusCap
	}
	return bonus
}

// happyHourBonus is a flat percentage on the base reward inside the
// configured daily window.
func (s *Service) happyHourBonus(base int) int {
	hour := s.now().Hour()
	if hour < s.cfg.HappyHourStart || hour >= s.cfg.HappyHourEnd {
		return 0
	}
	return base * s.cfg.HappyHourPercent / 100
}

func (s *Service) publishTrackers(mode game.Mode, userID uint, won bool) {
	if s.trackers == nil {
		return
	}
	s.trackers.Publish(tracker.Event{UserID: userID, Type: tracker.EventMatchPlayed, Count: 1})
	if won {
		s.trackers.Publish(tracker.Event{UserID: userID, Type: tracker.EventMatchWon, Count: 1})
	}
	switch mode {
	case game.ModeRanked:
		s.trackers.Publish(tracker.Event{UserID: userID, Type: tracker.EventRankedPlayed, Count: 1})
		if won {
			s.trackers.Publish(tracker.Event{UserID: userID, Type: tracker.EventRankedWon, Count: 1})
		}
	case game.ModeAI:
		s.trackers.Publish(tracker.Event{UserID: userID, Type: tracker.EventPvEPlayed, Count: 1})
	}
}
