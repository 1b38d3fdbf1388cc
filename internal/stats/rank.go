package stats

import (
	"cmp"
	"slices"

	"github.com/league-engine/internal/domain"
)

// RankSnapshot maps player id to the rank computed in a previous pass. It
// feeds the trend field; a nil snapshot yields "same" everywhere.
type RankSnapshot map[string]int

// Rank orders aggregates into a strict ordinal 1..N leaderboard. The sort key
// is total points, then wins, then win rate, all descending; ties beyond that
// keep stable input order and still receive consecutive distinct ranks. This
// is a deliberate departure from standard competition ranking: dense indices
// are simpler to render.
func Rank(aggregates []domain.PlayerAggregate, previous RankSnapshot) []domain.LeaderboardEntry {
	sorted := make([]domain.PlayerAggregate, len(aggregates))
	copy(sorted, aggregates)

	slices.SortStableFunc(sorted, func(a, b domain.PlayerAggregate) int {
		if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Wins, a.Wins); c != 0 {
			return c
		}
		return cmp.Compare(b.WinRate(), a.WinRate())
	})

	entries := make([]domain.LeaderboardEntry, len(sorted))
	for i, agg := range sorted {
		rank := i + 1
		entries[i] = domain.LeaderboardEntry{
			Rank:        rank,
			PlayerID:    agg.PlayerID,
			TotalPoints: agg.TotalPoints,
			GamesPlayed: agg.GamesPlayed,
			Wins:        agg.Wins,
			Losses:      agg.Losses,
			WinRate:     agg.WinRate(),
			Trend:       trendFor(agg.PlayerID, rank, previous),
			LastActive:  agg.LastActive,
		}
	}
	return entries
}

func trendFor(playerID string, rank int, previous RankSnapshot) domain.Trend {
	if previous == nil {
		return domain.TrendSame
	}
	prev, ok := previous[playerID]
	if !ok || prev == rank {
		return domain.TrendSame
	}
	if rank < prev {
		return domain.TrendUp
	}
	return domain.TrendDown
}

// SnapshotOf captures the rank assignment of a computed leaderboard for use
// as the previous snapshot of the next pass
func SnapshotOf(entries []domain.LeaderboardEntry) RankSnapshot {
	snapshot := make(RankSnapshot, len(entries))
	for _, e := range entries {
		snapshot[e.PlayerID] = e.Rank
	}
	return snapshot
}
