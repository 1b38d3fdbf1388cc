package scoring

import (
	"strings"
	"unicode"

	"github.com/league-engine/internal/domain"
)

// participationFloor is awarded when a placement matches no rule at all, so
// showing up never scores zero. Intentional league policy, not a bug.
const participationFloor = 1

// CountObjectives tallies a player's objective claims per normalized tag.
// Claim keys look like "gold_1" or "silver-2"; the tag is the leading letter
// run, lowercased.
func CountObjectives(claims map[string]string, playerID string) map[string]int {
	if len(claims) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for key, claimant := range claims {
		if claimant != playerID {
			continue
		}
		tag := objectiveTag(key)
		if tag == "" {
			continue
		}
		counts[tag]++
	}
	return counts
}

func objectiveTag(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	end := 0
	for _, r := range key {
		if !unicode.IsLetter(r) {
			break
		}
		end++
	}
	return key[:end]
}

// EvaluatePlacement computes one player's total points for a game from their
// place and objective claim counts. Pure function of its inputs.
func EvaluatePlacement(place int, objectiveCounts map[string]int, rules []CompiledRule) int {
	total := 0
	participationFired := false

	for _, rule := range rules {
		switch rule.Kind {
		case KindPlacement:
			if rule.Place == place {
				total += rule.Points
			}
		case KindObjective:
			if count := objectiveCounts[rule.Objective]; count > 0 {
				total += rule.Points * count
			}
		case KindParticipation:
			total += rule.Points
			participationFired = true
		}
	}

	if total == 0 && !participationFired {
		total = participationFloor
	}
	return total
}

// EvaluateGame computes per-player point totals for every placement in a
// game. An unknown game kind awards zero points across the board rather than
// failing the league computation.
func EvaluateGame(game *domain.GameRecord, rules RuleSet) map[string]int {
	points := make(map[string]int, len(game.Placements))

	if !game.Kind.Valid() {
		for _, pl := range game.Placements {
			points[pl.PlayerID] = 0
		}
		return points
	}

	kindRules := rules.ForKind(game.Kind)
	for _, pl := range game.Placements {
		counts := CountObjectives(game.Objectives, pl.PlayerID)
		points[pl.PlayerID] = EvaluatePlacement(pl.Place, counts, kindRules)
	}
	return points
}
