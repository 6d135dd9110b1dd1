package settle

import "math"

// expectedScore is the standard ELO expectation of `rating` against `opp`.
func expectedScore(rating, opp int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(opp-rating)/400.0))
}

// ratingDelta computes the signed rating change for a player who scored
// `score` (1 win, 0 loss) against an opponent, with the given K-factor.
func ratingDelta(rating, opp int, score float64, kFactor int) int {
	return int(math.Round(float64(kFactor) * (score - expectedScore(rating, opp))))
}

// clampFloor applies the hard rating floor.
func clampFloor(rating, floor int) int {
	if rating < floor {
		return floor
	}
	return rating
}
