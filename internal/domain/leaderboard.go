package domain

import "time"

// Trend describes a player's rank movement relative to the previous snapshot
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendSame Trend = "same"
)

// LeaderboardEntry is a ranked view over a player's aggregate. Ranks are
// strict ordinals: equal-key entries receive consecutive distinct ranks in
// stable input order, keeping indices dense.
type LeaderboardEntry struct {
	Rank          int       `json:"rank"`
	PlayerID      string    `json:"player_id"`
	PlayerName    string    `json:"player_name"`
	TotalPoints   int       `json:"total_points"`
	GamesPlayed   int       `json:"games_played"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	WinRate       float64   `json:"win_rate"`
	Trend         Trend     `json:"trend"`
	CurrentStreak int       `json:"current_streak"`
	BestStreak    int       `json:"best_streak"`
	LastActive    time.Time `json:"last_active,omitempty"`
}

// PlayerRating is the simplified Elo-like rating and form summary for one
// player. The rating ignores opponent strength on purpose; it is a display
// approximation, not true Elo.
type PlayerRating struct {
	PlayerID      string   `json:"player_id"`
	Rating        int      `json:"rating"`
	CurrentStreak int      `json:"current_streak"`
	BestStreak    int      `json:"best_streak"`
	RecentForm    []string `json:"recent_form"`
}

// StatBlock holds the five bounded character-sheet stats, each in [8, 20]
type StatBlock struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
}

// CharacterSheet is a purely presentational mapping of aggregate performance
// into an RPG-style stat block
type CharacterSheet struct {
	PlayerID     string    `json:"player_id"`
	PlayerName   string    `json:"player_name"`
	Level        int       `json:"level"`
	XP           int       `json:"xp"`
	NextLevelXP  int       `json:"next_level_xp"`
	Stats        StatBlock `json:"stats"`
	Achievements []string  `json:"achievements"`
	TotalPoints  int       `json:"total_points"`
	GamesPlayed  int       `json:"games_played"`
	Wins         int       `json:"wins"`
}

// RecalculationResult reports the outcome of re-running the rule evaluator
// over a league's stored games
type RecalculationResult struct {
	LeagueID     string `json:"league_id"`
	GamesScanned int    `json:"games_scanned"`
	Changed      int    `json:"changed"`
}

// LeagueStats contains summary statistics for a league
type LeagueStats struct {
	LeagueID     string `json:"league_id"`
	TotalPlayers int    `json:"total_players"`
	TotalGames   int    `json:"total_games"`
	TopScore     int    `json:"top_score,omitempty"`
}
