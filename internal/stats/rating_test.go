package stats

import (
	"reflect"
	"testing"
	"time"

	"github.com/league-engine/internal/domain"
)

func history(results ...bool) []domain.GameResult {
	out := make([]domain.GameResult, len(results))
	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, won := range results {
		out[i] = domain.GameResult{PlayedAt: base.AddDate(0, 0, i), Won: won}
	}
	return out
}

func TestEloRating(t *testing.T) {
	cases := []struct {
		results []domain.GameResult
		want    int
	}{
		{nil, 1500},
		{history(true, true, false, false), 1500},
		{history(true, true, true, true), 2000},
		{history(false, false, false, false), 1000},
		{history(true, true, false), 1667}, // 1500 + (2/3 - 0.5) * 1000
	}

	for i, tc := range cases {
		if got := EloRating(tc.results); got != tc.want {
			t.Errorf("case %d: rating = %d, want %d", i, got, tc.want)
		}
	}
}

func TestStreaksAndForm(t *testing.T) {
	// Oldest to newest: W W L W W.
	results := history(true, true, false, true, true)

	if got := CurrentStreak(results); got != 2 {
		t.Errorf("current streak = %d, want 2", got)
	}
	if got := BestStreak(results); got != 2 {
		t.Errorf("best streak = %d, want 2", got)
	}
	if got := RecentForm(results); !reflect.DeepEqual(got, []string{"W", "W", "L", "W", "W"}) {
		t.Errorf("recent form = %v", got)
	}
}

func TestCurrentStreakResetOnLoss(t *testing.T) {
	if got := CurrentStreak(history(true, true, true, false)); got != 0 {
		t.Errorf("current streak = %d, want 0 after trailing loss", got)
	}
}

func TestBestStreakInMiddle(t *testing.T) {
	if got := BestStreak(history(false, true, true, true, false, true)); got != 3 {
		t.Errorf("best streak = %d, want 3", got)
	}
}

func TestRecentFormWindow(t *testing.T) {
	results := history(true, false, true, false, true, true, false)
	got := RecentForm(results)
	if !reflect.DeepEqual(got, []string{"W", "L", "W", "W", "L"}) {
		t.Errorf("recent form = %v, want last five results", got)
	}
}

func TestEstimateRatingComposes(t *testing.T) {
	rating := EstimateRating("a", history(true, true, false, true, true))
	if rating.PlayerID != "a" {
		t.Errorf("player id = %s", rating.PlayerID)
	}
	if rating.Rating != 1800 { // 4/5 win rate
		t.Errorf("rating = %d, want 1800", rating.Rating)
	}
	if rating.CurrentStreak != 2 || rating.BestStreak != 2 {
		t.Errorf("streaks = %d/%d, want 2/2", rating.CurrentStreak, rating.BestStreak)
	}
}

func TestEstimateRatingEmptyHistory(t *testing.T) {
	rating := EstimateRating("new", nil)
	if rating.Rating != 1500 || rating.CurrentStreak != 0 || rating.BestStreak != 0 {
		t.Errorf("unexpected rating for empty history: %+v", rating)
	}
	if len(rating.RecentForm) != 0 {
		t.Errorf("recent form = %v, want empty", rating.RecentForm)
	}
}
