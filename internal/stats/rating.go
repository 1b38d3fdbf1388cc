package stats

import (
	"math"

	"github.com/league-engine/internal/domain"
)

const (
	baseRating   = 1500
	ratingSpread = 1000
	formWindow   = 5
)

// EloRating computes the simplified Elo-like rating from an ordered history:
// 1500 + (winRate - 0.5) * 1000, rounded. Opponent strength is ignored; this
// is a flat all-time approximation, not adaptive Elo.
func EloRating(results []domain.GameResult) int {
	if len(results) == 0 {
		return baseRating
	}
	wins := 0
	for _, r := range results {
		if r.Won {
			wins++
		}
	}
	winRate := float64(wins) / float64(len(results))
	return baseRating + int(math.Round((winRate-0.5)*ratingSpread))
}

// CurrentStreak counts consecutive wins ending at the most recent game. The
// first non-win scanning backward resets it to zero.
func CurrentStreak(results []domain.GameResult) int {
	streak := 0
	for i := len(results) - 1; i >= 0; i-- {
		if !results[i].Won {
			break
		}
		streak++
	}
	return streak
}

// BestStreak finds the longest run of consecutive wins anywhere in the
// chronological history
func BestStreak(results []domain.GameResult) int {
	best, run := 0, 0
	for _, r := range results {
		if r.Won {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

// RecentForm returns the last up-to-5 results as W/L tokens, most recent last
func RecentForm(results []domain.GameResult) []string {
	start := 0
	if len(results) > formWindow {
		start = len(results) - formWindow
	}
	form := make([]string, 0, len(results)-start)
	for _, r := range results[start:] {
		if r.Won {
			form = append(form, "W")
		} else {
			form = append(form, "L")
		}
	}
	return form
}

// EstimateRating composes the rating and streak metrics for one player's
// ordered game history
func EstimateRating(playerID string, results []domain.GameResult) domain.PlayerRating {
	return domain.PlayerRating{
		PlayerID:      playerID,
		Rating:        EloRating(results),
		CurrentStreak: CurrentStreak(results),
		BestStreak:    BestStreak(results),
		RecentForm:    RecentForm(results),
	}
}
