package domain

import (
	"time"
)

// GameKind identifies the format a game was played in
type GameKind string

const (
	GameKindCommander GameKind = "commander"
	GameKindDraft     GameKind = "draft"
	GameKindStandard  GameKind = "standard"
)

// Valid reports whether the kind is one of the known formats
func (k GameKind) Valid() bool {
	switch k {
	case GameKindCommander, GameKindDraft, GameKindStandard:
		return true
	}
	return false
}

// AllGameKinds lists every known game format
func AllGameKinds() []GameKind {
	return []GameKind{GameKindCommander, GameKindDraft, GameKindStandard}
}

// Placement is a single player's finishing position and awarded points within one game
type Placement struct {
	PlayerID string `json:"player_id"`
	Place    int    `json:"place"`
	Points   int    `json:"points"`
}

// GameRecord is one played match or pod. Placements and objective claims are
// decoded into typed structures at the storage boundary; the core never sees
// serialized text.
type GameRecord struct {
	ID         string            `json:"id"`
	LeagueID   string            `json:"league_id"`
	Kind       GameKind          `json:"kind"`
	PlayedAt   time.Time         `json:"played_at"`
	Placements []Placement       `json:"placements"`
	Objectives map[string]string `json:"objectives,omitempty"` // claim key -> claimant player ID
	Notes      string            `json:"notes,omitempty"`
}

// PlacementFor returns the placement belonging to the given player, if any
func (g *GameRecord) PlacementFor(playerID string) (Placement, bool) {
	for _, p := range g.Placements {
		if p.PlayerID == playerID {
			return p, true
		}
	}
	return Placement{}, false
}

// PlacementSubmission is a single player's reported finish in a submitted game
type PlacementSubmission struct {
	PlayerID string `json:"player_id"`
	Place    int    `json:"place"`
}

// GameSubmission is a request to record a played game. Points are not part of
// the submission; they are evaluated from the league's scoring rules at ingest.
type GameSubmission struct {
	LeagueID   string                `json:"league_id"`
	Kind       GameKind              `json:"kind"`
	PlayedAt   time.Time             `json:"played_at,omitempty"`
	Placements []PlacementSubmission `json:"placements"`
	Objectives map[string]string     `json:"objectives,omitempty"`
	Notes      string                `json:"notes,omitempty"`
}

// BatchGameSubmission is a set of game submissions processed together
type BatchGameSubmission struct {
	Games []GameSubmission `json:"games"`
}
