// Package power computes deck and category power scores: enhancement
// curves, position-weighted stat blends, team synergy and roster bonuses.
// It is pure computation; callers supply a frozen deck snapshot.
package power

import (
	"math"

	"github.com/rosterleague/roster-clash/internal/game"
	"github.com/rosterleague/roster-clash/internal/strategy"
)

// Blend weights between enhanced overall and the weighted stat average.
// The pair is a tunable constant, not a law; both sides of one resolution
// always use the same values so the comparison stays fair.
var (
	blendOverallWeight = 0.5
	blendStatWeight    = 0.4
)

// SetBlendWeights overrides the blend ratio from configuration.
func SetBlendWeights(overall, stat float64) {
	if overall > 0 {
		blendOverallWeight = overall
	}
	if stat > 0 {
		blendStatWeight = stat
	}
}

// Exact-count team synergy buckets. A 4-stack earns only the 4 bucket.
var (
	flatSynergyBonus = map[int]int{3: 15, 4: 35, 5: 70}
	multSynergyBonus = map[int]float64{3: 1.05, 4: 1.10, 5: 1.20}
)

// EnhancementBonus maps an enhancement level (0-10) to its cumulative stat
// bonus: +1 per level for 1-4, +2 for 5-7, +5 for 8-10. Monotonic with
// breakpoints at 4 and 7; out-of-range input is clamped.
func EnhancementBonus(level int) int {
	if level < 0 {
		level = 0
	}
	if level > 10 {
		level = 10
	}
	bonus := 0
	for l := 1; l <= level; l++ {
		switch {
		case l <= 4:
			bonus += 1
		case l <= 7:
			bonus += 2
		default:
			bonus += 5
		}
	}
	return bonus
}

// DeckPower is the simple whole-deck score used by the turn-based flow:
// enhanced overall per occupied slot, flat modifiers, flat team synergy and
// roster bonuses. Empty decks and missing slots contribute zero.
func DeckPower(snap *game.DeckSnapshot, mods []Modifier) int {
	cards := viewCards(snap)
	if len(cards) == 0 {
		return 0
	}
	total := 0
	for _, c := range cards {
		total += c.enhancedOverall + flatBonus(mods, c)
	}
	total += flatTeamSynergy(cards)
	total += rosterBonus(cards)
	return total
}

// CategoryPower scores a deck for one turn-based category: a per-slot blend
// of enhanced overall and the position-weighted average of the category's
// attribute subset, plus flat synergy and roster bonuses.
func CategoryPower(snap *game.DeckSnapshot, cat Category, mods []Modifier) int {
	attrs, ok := categoryAttrs[cat]
	if !ok {
		return 0
	}
	cards := viewCards(snap)
	if len(cards) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range cards {
		base := float64(c.enhancedOverall+flatBonus(mods, c))*blendOverallWeight +
			weightedAverage(c, attrs)*blendStatWeight
		sum += base * strategyMultiplier(mods, string(cat))
	}
	sum += float64(flatTeamSynergy(cards))
	sum += float64(rosterBonus(cards))
	return int(math.Round(sum))
}

// LivePower scores a deck for one realtime round category. Synergy is
// multiplicative here (x1.05/x1.10/x1.20 by exact stack size) and stacks
// across canonical teams.
func LivePower(snap *game.DeckSnapshot, strat strategy.LiveStrategy, mods []Modifier) int {
	attrs, ok := liveAttrs[strat]
	if !ok {
		return 0
	}
	cards := viewCards(snap)
	if len(cards) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range cards {
		base := float64(c.enhancedOverall+flatBonus(mods, c))*blendOverallWeight +
			weightedAverage(c, attrs)*blendStatWeight
		sum += base * strategyMultiplier(mods, string(strat))
	}
	sum *= multTeamSynergy(cards)
	sum += float64(rosterBonus(cards))
	return int(math.Round(sum))
}

// weightedAverage is the position-weighted mean of the card's values for
// the given attribute subset.
func weightedAverage(c cardView, attrs []game.Attribute) float64 {
	var weighted, weightSum float64
	for _, a := range attrs {
		w := attributeWeight(c.slot, a)
		weighted += float64(c.attrs[a]) * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return weighted / weightSum
}

func flatTeamSynergy(cards []cardView) int {
	total := 0
	for _, count := range teamCounts(cards) {
		if bonus, ok := flatSynergyBonus[count]; ok {
			total += bonus
		}
	}
	return total
}

func multTeamSynergy(cards []cardView) float64 {
	factor := 1.0
	for _, count := range teamCounts(cards) {
		if mult, ok := multSynergyBonus[count]; ok {
			factor *= mult
		}
	}
	return factor
}
