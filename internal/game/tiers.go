package game

// Tier buckets players by rating for matchmaking compatibility and display.
type Tier string

const (
	TierBronze     Tier = "bronze"
	TierSilver     Tier = "silver"
	TierGold       Tier = "gold"
	TierPlatinum   Tier = "platinum"
	TierDiamond    Tier = "diamond"
	TierChallenger Tier = "challenger"
)

var tierOrder = map[Tier]int{
	TierBronze:     0,
	TierSilver:     1,
	TierGold:       2,
	TierPlatinum:   3,
	TierDiamond:    4,
	TierChallenger: 5,
}

// TierForRating classifies a rating into its tier bucket.
func TierForRating(rating int) Tier {
	switch {
	case rating >= 2200:
		return TierChallenger
	case rating >= 1900:
		return TierDiamond
	case rating >= 1600:
		return TierPlatinum
	case rating >= 1400:
		return TierGold
	case rating >= 1200:
		return TierSilver
	default:
		return TierBronze
	}
}

// TiersCompatible reports whether two tiers may be paired on the primary
// search path. Adjacent tiers are compatible; anything wider needs the
// relaxed pass.
func TiersCompatible(a, b Tier) bool {
	oa, oka := tierOrder[a]
	ob, okb := tierOrder[b]
	if !oka || !okb {
		return true
	}
	d := oa - ob
	if d < 0 {
		d = -d
	}
	return d <= 1
}
