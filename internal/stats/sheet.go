package stats

import (
	"math"

	"github.com/league-engine/internal/domain"
)

const (
	statFloor   = 8
	statCeiling = 20

	xpPerPoint = 10
	xpPerLevel = 200

	// Reference maxima for the stat ratios. Performance at or beyond these
	// values pins the stat at 20.
	maxPointsRef       = 200.0
	maxGamesRef        = 20.0
	maxPointsPerGame   = 10.0
	targetWinRatePct   = 60.0
	defaultAchievement = "Rising Star"
)

// statFromRatio maps value/max onto the bounded [8, 20] stat range. The
// percentage is clamped to [0, 100] first, so any non-negative input stays in
// bounds.
func statFromRatio(value, max float64) int {
	pct := 0.0
	if max > 0 {
		pct = value / max * 100
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return statFloor + int(math.Round(float64(statCeiling-statFloor)*pct/100))
}

// DeriveSheet maps an aggregate (plus the player's objective claim count)
// into a character sheet. Missing input simply defaults to zero; there are no
// failure modes here.
func DeriveSheet(agg domain.PlayerAggregate, objectiveClaims int) domain.CharacterSheet {
	winRatePct := agg.WinRate() * 100

	pointsPerGame := 0.0
	if agg.GamesPlayed > 0 {
		pointsPerGame = float64(agg.TotalPoints) / float64(agg.GamesPlayed)
	}

	stats := domain.StatBlock{
		Strength:     statFromRatio(float64(agg.TotalPoints), maxPointsRef),
		Dexterity:    statFromRatio(100-math.Abs(winRatePct-targetWinRatePct), 100),
		Constitution: statFromRatio(float64(agg.GamesPlayed), maxGamesRef),
		Intelligence: statFromRatio(winRatePct, 100),
		Wisdom:       statFromRatio(pointsPerGame, maxPointsPerGame),
	}

	xp := agg.TotalPoints * xpPerPoint
	level := xp/xpPerLevel + 1
	if level < 1 {
		level = 1
	}

	return domain.CharacterSheet{
		PlayerID:     agg.PlayerID,
		Level:        level,
		XP:           xp,
		NextLevelXP:  level * xpPerLevel,
		Stats:        stats,
		Achievements: achievements(agg, objectiveClaims),
		TotalPoints:  agg.TotalPoints,
		GamesPlayed:  agg.GamesPlayed,
		Wins:         agg.Wins,
	}
}

// achievements evaluates threshold badges independently; they are additive,
// never exclusive. No badge triggered yields the default placeholder.
func achievements(agg domain.PlayerAggregate, objectiveClaims int) []string {
	var badges []string
	if agg.Wins >= 10 {
		badges = append(badges, "Unstoppable")
	}
	if agg.GamesPlayed >= 20 {
		badges = append(badges, "Veteran")
	}
	if agg.TotalPoints >= 100 {
		badges = append(badges, "Point Hoarder")
	}
	if agg.GamesPlayed >= 5 && agg.WinRate() >= 0.6 {
		badges = append(badges, "Apex Strategist")
	}
	if objectiveClaims >= 10 {
		badges = append(badges, "Objective Hunter")
	}
	if len(badges) == 0 {
		badges = []string{defaultAchievement}
	}
	return badges
}
