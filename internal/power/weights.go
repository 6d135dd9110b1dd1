package power

import (
	"github.com/rosterleague/roster-clash/internal/game"
	"github.com/rosterleague/roster-clash/internal/strategy"
)

// Category selects the attribute subset for the turn-based flow.
type Category string

const (
	CategoryLaning    Category = "laning"
	CategoryTeamfight Category = "teamfight"
	CategoryMacro     Category = "macro"
	CategoryMental    Category = "mental"
)

// Each category reads three of the eight card attributes.
var categoryAttrs = map[Category][]game.Attribute{
	CategoryLaning:    {game.AttrLaning, game.AttrMechanics, game.AttrAggression},
	CategoryTeamfight: {game.AttrTeamfight, game.AttrPositioning, game.AttrMechanics},
	CategoryMacro:     {game.AttrMacro, game.AttrVision, game.AttrMental},
	CategoryMental:    {game.AttrMental, game.AttrPositioning, game.AttrVision},
}

// Realtime strategies read their own 3-of-8 stat sets.
var liveAttrs = map[strategy.LiveStrategy][]game.Attribute{
	strategy.LiveAggressive: {game.AttrLaning, game.AttrMechanics, game.AttrAggression},
	strategy.LiveTeamfight:  {game.AttrTeamfight, game.AttrPositioning, game.AttrVision},
	strategy.LiveDefensive:  {game.AttrVision, game.AttrMacro, game.AttrMental},
}

// positionWeights skews the weighted stat average by slot: a jungle card
// weights vision/objective play above raw laning, a support card weights
// vision and positioning, and so on. Missing entries fall back to 1.0.
var positionWeights = map[game.Position]map[game.Attribute]float64{
	game.PositionTop: {
		game.AttrLaning:    1.3,
		game.AttrMechanics: 1.1,
		game.AttrTeamfight: 1.1,
		game.AttrVision:    0.8,
	},
	game.PositionJungle: {
		game.AttrLaning:     0.7,
		game.AttrVision:     1.3,
		game.AttrMacro:      1.2,
		game.AttrAggression: 1.2,
	},
	game.PositionMid: {
		game.AttrLaning:    1.2,
		game.AttrMechanics: 1.3,
		game.AttrMacro:     1.1,
	},
	game.PositionADC: {
		game.AttrMechanics:   1.3,
		game.AttrPositioning: 1.3,
		game.AttrLaning:      1.1,
		game.AttrVision:      0.8,
	},
	game.PositionSupport: {
		game.AttrVision:      1.4,
		game.AttrPositioning: 1.2,
		game.AttrMacro:       1.1,
		game.AttrLaning:      0.8,
		game.AttrMechanics:   0.8,
	},
}

// attributeWeight returns the per-position weight for an attribute; unknown
// positions or attributes are neutral.
func attributeWeight(pos game.Position, attr game.Attribute) float64 {
	byAttr, ok := positionWeights[pos]
	if !ok {
		return 1.0
	}
	w, ok := byAttr[attr]
	if !ok {
		return 1.0
	}
	return w
}
