package game

import (
	"gorm.io/gorm"
)

// Position is the fixed deck slot a pro-player card is bound to. A deck
// holds exactly one card per position.
type Position string

const (
	PositionTop     Position = "top"
	PositionJungle  Position = "jungle"
	PositionMid     Position = "mid"
	PositionADC     Position = "adc"
	PositionSupport Position = "support"
)

// Positions lists every deck slot in canonical order.
var Positions = []Position{PositionTop, PositionJungle, PositionMid, PositionADC, PositionSupport}

// Attribute is one of the eight per-card stats the power engine reads.
type Attribute string

const (
	AttrLaning      Attribute = "laning"
	AttrMechanics   Attribute = "mechanics"
	AttrAggression  Attribute = "aggression"
	AttrTeamfight   Attribute = "teamfight"
	AttrPositioning Attribute = "positioning"
	AttrVision      Attribute = "vision"
	AttrMacro       Attribute = "macro"
	AttrMental      Attribute = "mental"
)

// Mode distinguishes how a match was made and how it settles.
type Mode string

const (
	ModeRanked   Mode = "ranked"
	ModePractice Mode = "practice"
	ModeAI       Mode = "ai"
)

// Team is a professional organization a card can belong to. Cards keep a
// row per listed team; historical rebrands are collapsed by the power
// engine's alias table, not in the database.
type Team struct {
	gorm.Model
	Name string `json:"name" gorm:"uniqueIndex"`
}

// CardTemplate is the printed card: a pro player in a given season, bound
// to one position, with eight attributes and an overall score.
type CardTemplate struct {
	gorm.Model
	Name     string   `json:"name"`
	Position Position `json:"position" gorm:"index"`
	// SeasonTag identifies the roster year the card depicts (e.g. "2016").
	SeasonTag string `json:"season_tag"`
	Teams     []Team `json:"teams" gorm:"many2many:card_template_teams;"`
	Overall   int    `json:"overall"`
	// Salary feeds the deck cost-cap eligibility check.
	Salary int `json:"salary"`

	Laning      int `json:"laning"`
	Mechanics   int `json:"mechanics"`
	Aggression  int `json:"aggression"`
	Teamfight   int `json:"teamfight"`
	Positioning int `json:"positioning"`
	Vision      int `json:"vision"`
	Macro       int `json:"macro"`
	Mental      int `json:"mental"`
}

func (CardTemplate) TableName() string { return "card_templates" }

// AttributeValue returns the named attribute, 0 for unknown keys.
func (t *CardTemplate) AttributeValue(a Attribute) int {
	switch a {
	case AttrLaning:
		return t.Laning
	case AttrMechanics:
		return t.Mechanics
	case AttrAggression:
		return t.Aggression
	case AttrTeamfight:
		return t.Teamfight
	case AttrPositioning:
		return t.Positioning
	case AttrVision:
		return t.Vision
	case AttrMacro:
		return t.Macro
	case AttrMental:
		return t.Mental
	}
	return 0
}

// CardInstance is a card owned by one user. Enhancement is mutated by the
// enhancement/fusion flows and read-only here.
type CardInstance struct {
	gorm.Model
	TemplateID       uint         `json:"template_id"`
	Template         CardTemplate `json:"template"`
	OwnerID          uint         `json:"-" gorm:"index"`
	EnhancementLevel int          `json:"enhancement_level"`
}

func (CardInstance) TableName() string { return "card_instances" }

// Deck binds up to five card instances to fixed position slots. A deck with
// any empty slot cannot enter a queue. The three strategy selectors feed
// the turn-based flow only.
type Deck struct {
	gorm.Model
	OwnerID  uint   `json:"-" gorm:"index"`
	Name     string `json:"name" gorm:"size:32"`
	IsActive bool   `json:"is_active"`

	TopCardID     *uint `json:"top_card_id"`
	JungleCardID  *uint `json:"jungle_card_id"`
	MidCardID     *uint `json:"mid_card_id"`
	ADCCardID     *uint `json:"adc_card_id"`
	SupportCardID *uint `json:"support_card_id"`

	LaningStrategy    string `json:"laning_strategy"`
	TeamfightStrategy string `json:"teamfight_strategy"`
	MacroStrategy     string `json:"macro_strategy"`
}

// SlotCardID returns the card instance id bound to the given slot, nil when empty.
func (d *Deck) SlotCardID(p Position) *uint {
	switch p {
	case PositionTop:
		return d.TopCardID
	case PositionJungle:
		return d.JungleCardID
	case PositionMid:
		return d.MidCardID
	case PositionADC:
		return d.ADCCardID
	case PositionSupport:
		return d.SupportCardID
	}
	return nil
}

// User stores player identity, rating and aggregate reward state.
type User struct {
	gorm.Model
	PlayerUUID  string `gorm:"index"`
	PlayerName  string
	Email       string `gorm:"uniqueIndex"`
	Rating      int
	Tier        string
	Points      int
	GamesPlayed int
	Wins        int
	Losses      int
	WinStreak   int
}

func (User) TableName() string { return "player_profiles" }

// MatchRecord is the persisted outcome of one settled match.
type MatchRecord struct {
	gorm.Model
	MatchID string `json:"match_id" gorm:"uniqueIndex"`
	Mode    Mode   `json:"mode"`
	// AI participants persist as a nil user reference.
	PlayerAID    *uint `json:"player_a_id"`
	PlayerBID    *uint `json:"player_b_id"`
	ScoreA       int   `json:"score_a"`
	ScoreB       int   `json:"score_b"`
	WinnerUserID *uint `json:"winner_user_id"`
	Rounds       int   `json:"rounds"`
}

func (MatchRecord) TableName() string { return "match_records" }

// MatchHistory is one real participant's view of a settled match.
type MatchHistory struct {
	gorm.Model
	UserID        uint   `json:"user_id" gorm:"index"`
	MatchRecordID uint   `json:"match_record_id"`
	Outcome       string `json:"outcome"` // win | loss
	PointsDelta   int    `json:"points_delta"`
	RatingDelta   int    `json:"rating_delta"`
	RatingAfter   int    `json:"rating_after"`
}

func (MatchHistory) TableName() string { return "match_histories" }
