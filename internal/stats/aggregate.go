package stats

import (
	"slices"

	"github.com/league-engine/internal/domain"
)

// Aggregate folds a scope's game records into cumulative per-player totals.
// The fold uses only sums and a max over dates, so the result is invariant to
// the order games are supplied in. Every player in the roster is seeded with
// a zero aggregate so zero-game players still appear ranked last; players
// found only in placements are added on the fly.
func Aggregate(players []domain.Player, games []domain.GameRecord) map[string]*domain.PlayerAggregate {
	aggregates := make(map[string]*domain.PlayerAggregate, len(players))
	for _, p := range players {
		aggregates[p.ID] = &domain.PlayerAggregate{PlayerID: p.ID}
	}

	for i := range games {
		game := &games[i]
		for _, pl := range game.Placements {
			if pl.PlayerID == "" {
				continue
			}
			agg, ok := aggregates[pl.PlayerID]
			if !ok {
				agg = &domain.PlayerAggregate{PlayerID: pl.PlayerID}
				aggregates[pl.PlayerID] = agg
			}

			agg.TotalPoints += pl.Points
			agg.GamesPlayed++
			if pl.Place == 1 {
				agg.Wins++
			} else {
				agg.Losses++
			}
			if game.PlayedAt.After(agg.LastActive) {
				agg.LastActive = game.PlayedAt
			}
		}
	}

	return aggregates
}

// History extracts a player's chronological win/loss history from a set of
// game records. Games the player did not place in are skipped.
func History(playerID string, games []domain.GameRecord) []domain.GameResult {
	var results []domain.GameResult
	for i := range games {
		pl, ok := games[i].PlacementFor(playerID)
		if !ok {
			continue
		}
		results = append(results, domain.GameResult{
			PlayedAt: games[i].PlayedAt,
			Won:      pl.Place == 1,
		})
	}

	slices.SortStableFunc(results, func(a, b domain.GameResult) int {
		return a.PlayedAt.Compare(b.PlayedAt)
	})
	return results
}

// ObjectiveCounts tallies how many objective claims each player holds across
// a set of games
func ObjectiveCounts(games []domain.GameRecord) map[string]int {
	counts := make(map[string]int)
	for i := range games {
		for _, claimant := range games[i].Objectives {
			if claimant != "" {
				counts[claimant]++
			}
		}
	}
	return counts
}
