package domain

import "time"

// ScoringRule is a named point rule for a (league, game kind) pair, such as
// "Placement 1st" or "Gold Objective". Rule names are unique among active
// rules within one (league, kind).
type ScoringRule struct {
	ID        string    `json:"id"`
	LeagueID  string    `json:"league_id"`
	Kind      GameKind  `json:"kind"`
	Name      string    `json:"name"`
	Points    int       `json:"points"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRuleRequest is a request to add a scoring rule to a league
type CreateRuleRequest struct {
	Kind   GameKind `json:"kind"`
	Name   string   `json:"name"`
	Points int      `json:"points"`
}
