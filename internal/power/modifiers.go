package power

import (
	"strings"

	"github.com/rosterleague/roster-clash/internal/game"
)

// ModifierKind discriminates how an external buff targets cards.
type ModifierKind string

const (
	ModifierOverall  ModifierKind = "overall"
	ModifierPosition ModifierKind = "position"
	ModifierTeam     ModifierKind = "team"
	ModifierStrategy ModifierKind = "strategy"
)

// Modifier is an external buff supplied by the caller (event buffs, item
// effects). Overall/position/team kinds add a flat amount to matching
// cards; the strategy kind scales a card's contribution by a percentage
// when the active category or strategy matches Target. Unmatched targets
// pass through unchanged.
type Modifier struct {
	Kind    ModifierKind `json:"kind"`
	Target  string       `json:"target"`
	Amount  int          `json:"amount"`
	Percent float64      `json:"percent"`
}

// flatBonus is the additive part of all matching modifiers for one card.
func flatBonus(mods []Modifier, card cardView) int {
	total := 0
	for _, m := range mods {
		switch m.Kind {
		case ModifierOverall:
			total += m.Amount
		case ModifierPosition:
			if strings.EqualFold(m.Target, string(card.slot)) {
				total += m.Amount
			}
		case ModifierTeam:
			canon := CanonicalTeam(m.Target)
			for _, t := range card.teams {
				if CanonicalTeam(t) == canon {
					total += m.Amount
					break
				}
			}
		}
	}
	return total
}

// strategyMultiplier is the combined percentage scale of strategy-kind
// modifiers matching the active category name. activeKey is empty for the
// plain deck power path, where strategy buffs never match.
func strategyMultiplier(mods []Modifier, activeKey string) float64 {
	mult := 1.0
	if activeKey == "" {
		return mult
	}
	for _, m := range mods {
		if m.Kind == ModifierStrategy && strings.EqualFold(m.Target, activeKey) {
			mult *= 1.0 + m.Percent/100.0
		}
	}
	return mult
}

// cardView is the power engine's internal read of one snapshot card.
type cardView struct {
	slot   game.Position
	name   string
	season string
	teams  []string
	attrs  map[game.Attribute]int
	// overall with the enhancement bonus already applied
	enhancedOverall int
}

func viewCards(snap *game.DeckSnapshot) []cardView {
	if snap == nil {
		return nil
	}
	out := make([]cardView, 0, len(snap.Cards))
	for i := range snap.Cards {
		c := &snap.Cards[i]
		out = append(out, cardView{
			slot:            c.Slot,
			name:            c.Name,
			season:          c.SeasonTag,
			teams:           c.Teams,
			attrs:           c.Attributes,
			enhancedOverall: c.Overall + EnhancementBonus(c.EnhancementLevel),
		})
	}
	return out
}
