package game

// SnapshotCard is a materialized card row inside a deck snapshot. Stats are
// copied out of the template at resolution time so later deck or card edits
// never change a live match.
type SnapshotCard struct {
	Slot             Position `json:"slot"`
	Name             string   `json:"name"`
	Teams            []string `json:"teams"`
	SeasonTag        string   `json:"season_tag"`
	EnhancementLevel int      `json:"enhancement_level"`
	Overall          int      `json:"overall"`

	Attributes map[Attribute]int `json:"attributes"`
}

// DeckSnapshot is the frozen view of a deck the power engine and a match
// session operate on. Missing slots are simply absent from Cards.
type DeckSnapshot struct {
	DeckID  uint           `json:"deck_id"`
	OwnerID uint           `json:"owner_id"`
	Cards   []SnapshotCard `json:"cards"`
}

// Card returns the snapshot card bound to the given slot, nil when empty.
func (s *DeckSnapshot) Card(p Position) *SnapshotCard {
	if s == nil {
		return nil
	}
	for i := range s.Cards {
		if s.Cards[i].Slot == p {
			return &s.Cards[i]
		}
	}
	return nil
}
