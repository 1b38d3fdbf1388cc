package domain

import "time"

// UnknownPlayerName is rendered when an aggregate references a player id
// absent from the roster.
const UnknownPlayerName = "Unknown Player"

// Player represents a league member
type Player struct {
	ID        string    `json:"id"`
	LeagueID  string    `json:"league_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// PlayerAggregate holds cumulative per-player totals derived by folding all
// relevant game records. It is recomputed on demand and never stored
// authoritatively.
type PlayerAggregate struct {
	PlayerID    string    `json:"player_id"`
	TotalPoints int       `json:"total_points"`
	GamesPlayed int       `json:"games_played"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	LastActive  time.Time `json:"last_active,omitempty"`
}

// WinRate returns wins over games played, treating 0/0 as 0
func (a *PlayerAggregate) WinRate() float64 {
	if a.GamesPlayed == 0 {
		return 0
	}
	return float64(a.Wins) / float64(a.GamesPlayed)
}

// GameResult is one entry of a player's ordered win/loss history
type GameResult struct {
	PlayedAt time.Time `json:"played_at"`
	Won      bool      `json:"won"`
}
