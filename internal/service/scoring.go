package service

import "luckabet/internal/models"

// Award constants. A numeric prediction earns 10 points minus the minutes it
// was off, floored at 0. A correct wont-come call pays a flat bonus.
const (
	maxAccuracyPoints = 10
	wontComeBonus     = 15
)

// awardForOutcome computes the points a single bet earns once the outcome is
// revealed. Wont-come bets only pay when the subject really stayed away;
// numeric predictions only pay when she showed up.
func awardForOutcome(prediction int, isWontComeBet bool, outcome models.Outcome) int {
	if outcome.DidntCome {
		if isWontComeBet {
			return wontComeBonus
		}
		return 0
	}
	if isWontComeBet {
		return 0
	}
	diff := absInt(prediction - outcome.ActualTime)
	if diff >= maxAccuracyPoints {
		return 0
	}
	return maxAccuracyPoints - diff
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
