package stats

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/league-engine/internal/domain"
)

func day(n int) time.Time {
	return time.Date(2025, 1, n, 18, 0, 0, 0, time.UTC)
}

func podGame(id string, playedAt time.Time, placements ...domain.Placement) domain.GameRecord {
	return domain.GameRecord{
		ID:         id,
		LeagueID:   "league-1",
		Kind:       domain.GameKindCommander,
		PlayedAt:   playedAt,
		Placements: placements,
	}
}

func TestAggregateBasicFold(t *testing.T) {
	players := []domain.Player{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	games := []domain.GameRecord{
		podGame("g1", day(1),
			domain.Placement{PlayerID: "a", Place: 1, Points: 4},
			domain.Placement{PlayerID: "b", Place: 2, Points: 2},
		),
		podGame("g2", day(3),
			domain.Placement{PlayerID: "b", Place: 1, Points: 4},
			domain.Placement{PlayerID: "a", Place: 2, Points: 2},
		),
	}

	aggs := Aggregate(players, games)

	a := aggs["a"]
	if a.TotalPoints != 6 || a.GamesPlayed != 2 || a.Wins != 1 || a.Losses != 1 {
		t.Errorf("unexpected aggregate for a: %+v", a)
	}
	if !a.LastActive.Equal(day(3)) {
		t.Errorf("lastActive = %v, want %v", a.LastActive, day(3))
	}

	// Seeded player with zero games keeps a zero aggregate.
	c := aggs["c"]
	if c.TotalPoints != 0 || c.GamesPlayed != 0 {
		t.Errorf("expected zero aggregate for c, got %+v", c)
	}
}

func TestAggregateOrderInvariant(t *testing.T) {
	players := []domain.Player{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	games := make([]domain.GameRecord, 0, 12)
	for i := 0; i < 12; i++ {
		games = append(games, podGame("g", day(i%28+1),
			domain.Placement{PlayerID: "a", Place: 1 + i%4, Points: 1 + i%3},
			domain.Placement{PlayerID: "b", Place: 1 + (i+1)%4, Points: 2},
			domain.Placement{PlayerID: "c", Place: 1 + (i+2)%4, Points: i % 5},
		))
	}

	want := Aggregate(players, games)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]domain.GameRecord, len(games))
		copy(shuffled, games)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := Aggregate(players, shuffled)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("aggregate differs after shuffle %d", trial)
		}
	}
}

func TestAggregateUnrosteredPlacement(t *testing.T) {
	// A placement for a player missing from the roster still folds in rather
	// than blowing up the computation.
	games := []domain.GameRecord{
		podGame("g1", day(2), domain.Placement{PlayerID: "ghost", Place: 1, Points: 3}),
	}

	aggs := Aggregate(nil, games)
	if aggs["ghost"] == nil || aggs["ghost"].Wins != 1 {
		t.Errorf("expected ghost aggregate with one win, got %+v", aggs["ghost"])
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	aggs := Aggregate(nil, nil)
	if len(aggs) != 0 {
		t.Errorf("expected empty aggregates, got %d", len(aggs))
	}
}

func TestHistoryChronological(t *testing.T) {
	games := []domain.GameRecord{
		podGame("g2", day(5), domain.Placement{PlayerID: "a", Place: 2, Points: 1}),
		podGame("g1", day(1), domain.Placement{PlayerID: "a", Place: 1, Points: 4}),
		podGame("g3", day(9), domain.Placement{PlayerID: "b", Place: 1, Points: 4}),
	}

	results := History("a", games)
	if len(results) != 2 {
		t.Fatalf("history length = %d, want 2", len(results))
	}
	if !results[0].Won || results[1].Won {
		t.Errorf("history not in chronological order: %+v", results)
	}
}

func TestObjectiveCounts(t *testing.T) {
	games := []domain.GameRecord{
		{Objectives: map[string]string{"gold_1": "a", "gold_2": "b"}},
		{Objectives: map[string]string{"silver_1": "a"}},
	}

	counts := ObjectiveCounts(games)
	if counts["a"] != 2 || counts["b"] != 1 {
		t.Errorf("unexpected objective counts: %v", counts)
	}
}
