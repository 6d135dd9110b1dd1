package power

import "strings"

// teamAliases collapses historical rebrand pairs to one canonical key so a
// 2016 card and a 2021 card of the same organization stack together.
var teamAliases = map[string]string{
	"skt":            "t1",
	"sk telecom t1":  "t1",
	"samsung galaxy": "gen.g",
	"samsung white":  "gen.g",
	"geng":           "gen.g",
	"koo tigers":     "rox tigers",
	"rox":            "rox tigers",
	"longzhu gaming": "kingzone",
	"kingzone dragonx": "kingzone",
}

// CanonicalTeam normalizes a team name for synergy grouping. Unknown names
// pass through lower-cased.
func CanonicalTeam(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if canon, ok := teamAliases[key]; ok {
		return canon
	}
	return key
}

// teamCounts groups occupied slots by canonical team identity. A card with
// multiple listed teams contributes to every one of them.
func teamCounts(cards []cardView) map[string]int {
	counts := make(map[string]int)
	for _, c := range cards {
		seen := make(map[string]bool, len(c.teams))
		for _, t := range c.teams {
			canon := CanonicalTeam(t)
			if canon == "" || seen[canon] {
				continue
			}
			seen[canon] = true
			counts[canon]++
		}
	}
	return counts
}

// rosterSet is a named historical lineup. All members must be present
// (and match the season tag when set) for the bonus to apply. Sets are
// independent and may stack.
type rosterSet struct {
	name    string
	season  string
	members []string
	bonus   int
}

var legendaryRosters = []rosterSet{
	{name: "t1 2015", season: "2015", members: []string{"MaRin", "Bengi", "Faker", "Bang", "Wolf"}, bonus: 50},
	{name: "rox 2016", season: "2016", members: []string{"Smeb", "Peanut", "Kuro", "PraY", "GorillA"}, bonus: 40},
	{name: "gen.g 2017", season: "2017", members: []string{"CuVee", "Ambition", "Crown", "Ruler", "CoreJJ"}, bonus: 40},
	{name: "kingzone 2018", season: "2018", members: []string{"Khan", "Peanut", "Bdd", "PraY", "GorillA"}, bonus: 35},
}

// rosterBonus sums every legendary-roster bonus the deck completes.
func rosterBonus(cards []cardView) int {
	total := 0
	for _, set := range legendaryRosters {
		if rosterComplete(set, cards) {
			total += set.bonus
		}
	}
	return total
}

func rosterComplete(set rosterSet, cards []cardView) bool {
	for _, member := range set.members {
		found := false
		for _, c := range cards {
			if !strings.EqualFold(c.name, member) {
				continue
			}
			if set.season != "" && c.season != set.season {
				continue
			}
			found = true
			break
		}
		if !found {
			return false
		}
	}
	return true
}
