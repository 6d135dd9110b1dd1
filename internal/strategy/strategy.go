package strategy

import "math/rand"

// LiveStrategy is the hidden per-round pick in the realtime flow. The same
// closed enum doubles as the round category: round N's power comparison uses
// the stat set of the category the round cycles to.
type LiveStrategy string

const (
	LiveAggressive LiveStrategy = "aggressive"
	LiveTeamfight  LiveStrategy = "teamfight"
	LiveDefensive  LiveStrategy = "defensive"
)

// LiveStrategies lists every realtime pick in cycle order.
var LiveStrategies = []LiveStrategy{LiveAggressive, LiveTeamfight, LiveDefensive}

// TurnStrategy is a deck's per-phase selector in the turn-based flow.
type TurnStrategy string

const (
	TurnAggressive TurnStrategy = "aggressive"
	TurnBalanced   TurnStrategy = "balanced"
	TurnDefensive  TurnStrategy = "defensive"
)

// TurnPhase identifies one of the three turn-based phase tables.
type TurnPhase string

const (
	PhaseLaning    TurnPhase = "laning"
	PhaseTeamfight TurnPhase = "teamfight"
	PhaseMacro     TurnPhase = "macro"
)

// Counter magnitudes differ by flow and are deliberately not unified.
const (
	liveCounterDelta = 0.05
	turnCounterDelta = 0.15
)

// Each phase keeps its own table even when the cycle content coincides;
// phases are tuned independently.
var liveBeats = map[LiveStrategy]map[LiveStrategy]LiveStrategy{
	LiveAggressive: {LiveAggressive: LiveTeamfight, LiveTeamfight: LiveDefensive, LiveDefensive: LiveAggressive},
	LiveTeamfight:  {LiveAggressive: LiveTeamfight, LiveTeamfight: LiveDefensive, LiveDefensive: LiveAggressive},
	LiveDefensive:  {LiveAggressive: LiveTeamfight, LiveTeamfight: LiveDefensive, LiveDefensive: LiveAggressive},
}

var turnBeats = map[TurnPhase]map[TurnStrategy]TurnStrategy{
	PhaseLaning:    {TurnAggressive: TurnBalanced, TurnBalanced: TurnDefensive, TurnDefensive: TurnAggressive},
	PhaseTeamfight: {TurnAggressive: TurnBalanced, TurnBalanced: TurnDefensive, TurnDefensive: TurnAggressive},
	PhaseMacro:     {TurnAggressive: TurnBalanced, TurnBalanced: TurnDefensive, TurnDefensive: TurnAggressive},
}

// LiveAdvantage returns the realtime counter multiplier for mine against opp
// in the given phase: 1+delta when mine beats opp, 1-delta when it loses to
// it, 1.0 otherwise.
func LiveAdvantage(mine, opp, phase LiveStrategy) float64 {
	table, ok := liveBeats[phase]
	if !ok {
		return 1.0
	}
	if table[mine] == opp {
		return 1.0 + liveCounterDelta
	}
	if table[opp] == mine {
		return 1.0 - liveCounterDelta
	}
	return 1.0
}

// TurnAdvantage is the turn-based counterpart with its own magnitude.
func TurnAdvantage(mine, opp TurnStrategy, phase TurnPhase) float64 {
	table, ok := turnBeats[phase]
	if !ok {
		return 1.0
	}
	if table[mine] == opp {
		return 1.0 + turnCounterDelta
	}
	if table[opp] == mine {
		return 1.0 - turnCounterDelta
	}
	return 1.0
}

// LiveBeats returns the strategy that mine counters in the given phase table.
func LiveBeats(mine, phase LiveStrategy) (LiveStrategy, bool) {
	table, ok := liveBeats[phase]
	if !ok {
		return "", false
	}
	out, ok := table[mine]
	return out, ok
}

// TurnBeats returns the strategy that mine counters in the given phase table.
func TurnBeats(mine TurnStrategy, phase TurnPhase) (TurnStrategy, bool) {
	table, ok := turnBeats[phase]
	if !ok {
		return "", false
	}
	out, ok := table[mine]
	return out, ok
}

// CategoryForRound cycles aggressive -> teamfight -> defensive, round 1 first.
func CategoryForRound(round int) LiveStrategy {
	if round < 1 {
		round = 1
	}
	return LiveStrategies[(round-1)%len(LiveStrategies)]
}

// ParseLive validates a client-supplied strategy string.
func ParseLive(s string) (LiveStrategy, bool) {
	switch LiveStrategy(s) {
	case LiveAggressive, LiveTeamfight, LiveDefensive:
		return LiveStrategy(s), true
	}
	return "", false
}

// RandomLive picks a uniformly random strategy, used when a round timer
// elapses with a side undecided and for AI auto-play.
func RandomLive(rng *rand.Rand) LiveStrategy {
	return LiveStrategies[rng.Intn(len(LiveStrategies))]
}
