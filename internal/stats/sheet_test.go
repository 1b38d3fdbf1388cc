package stats

import (
	"testing"

	"github.com/league-engine/internal/domain"
)

func statValues(b domain.StatBlock) []int {
	return []int{b.Strength, b.Dexterity, b.Constitution, b.Intelligence, b.Wisdom}
}

func TestStatFromRatioBounds(t *testing.T) {
	cases := []struct {
		value, max float64
		want       int
	}{
		{0, 100, 8},
		{50, 100, 14},
		{100, 100, 20},
		{500, 100, 20}, // clamped above
		{10, 0, 8},     // zero max collapses to the floor
	}
	for i, tc := range cases {
		if got := statFromRatio(tc.value, tc.max); got != tc.want {
			t.Errorf("case %d: stat = %d, want %d", i, got, tc.want)
		}
	}
}

func TestDeriveSheetStatsInBounds(t *testing.T) {
	aggregates := []domain.PlayerAggregate{
		{},
		{PlayerID: "low", TotalPoints: 1, GamesPlayed: 1, Losses: 1},
		{PlayerID: "mid", TotalPoints: 60, GamesPlayed: 12, Wins: 7, Losses: 5},
		{PlayerID: "high", TotalPoints: 100000, GamesPlayed: 9999, Wins: 9999},
	}

	for _, agg := range aggregates {
		sheet := DeriveSheet(agg, 0)
		for i, v := range statValues(sheet.Stats) {
			if v < 8 || v > 20 {
				t.Errorf("player %q stat %d = %d, out of [8, 20]", agg.PlayerID, i, v)
			}
		}
	}
}

func TestDeriveSheetLevelProgression(t *testing.T) {
	sheet := DeriveSheet(domain.PlayerAggregate{PlayerID: "a", TotalPoints: 45, GamesPlayed: 9, Wins: 3, Losses: 6}, 0)

	if sheet.XP != 450 {
		t.Errorf("xp = %d, want 450", sheet.XP)
	}
	if sheet.Level != 3 { // 450/200 + 1
		t.Errorf("level = %d, want 3", sheet.Level)
	}
	if sheet.NextLevelXP != 600 {
		t.Errorf("next level xp = %d, want 600", sheet.NextLevelXP)
	}
}

func TestDeriveSheetZeroInputMinimumLevel(t *testing.T) {
	sheet := DeriveSheet(domain.PlayerAggregate{PlayerID: "new"}, 0)
	if sheet.Level != 1 {
		t.Errorf("level = %d, want minimum 1", sheet.Level)
	}
	if sheet.XP != 0 || sheet.NextLevelXP != 200 {
		t.Errorf("xp = %d, next = %d", sheet.XP, sheet.NextLevelXP)
	}
}

func TestAchievements(t *testing.T) {
	def := DeriveSheet(domain.PlayerAggregate{PlayerID: "new", GamesPlayed: 1, Losses: 1, TotalPoints: 1}, 0)
	if len(def.Achievements) != 1 || def.Achievements[0] != "Rising Star" {
		t.Errorf("achievements = %v, want default Rising Star", def.Achievements)
	}

	loaded := DeriveSheet(domain.PlayerAggregate{
		PlayerID:    "champ",
		TotalPoints: 150,
		GamesPlayed: 25,
		Wins:        16,
		Losses:      9,
	}, 12)

	want := map[string]bool{
		"Unstoppable":      true,
		"Veteran":          true,
		"Point Hoarder":    true,
		"Apex Strategist":  true,
		"Objective Hunter": true,
	}
	if len(loaded.Achievements) != len(want) {
		t.Fatalf("achievements = %v, want all five badges", loaded.Achievements)
	}
	for _, badge := range loaded.Achievements {
		if !want[badge] {
			t.Errorf("unexpected badge %q", badge)
		}
	}
}
