package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/league-engine/internal/config"
	"github.com/league-engine/internal/domain"
)

// Repository is the record store adapter. Placements and objective claims are
// stored as JSONB but decoded into typed structures here, at the boundary;
// nothing above this layer touches serialized text.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS leagues (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			season VARCHAR(64) DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			id VARCHAR(64) PRIMARY KEY,
			league_id VARCHAR(64) NOT NULL REFERENCES leagues(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			id VARCHAR(64) PRIMARY KEY,
			league_id VARCHAR(64) NOT NULL REFERENCES leagues(id) ON DELETE CASCADE,
			kind VARCHAR(20) NOT NULL,
			played_at TIMESTAMP NOT NULL,
			placements JSONB NOT NULL,
			objectives JSONB,
			notes TEXT DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS scoring_rules (
			id VARCHAR(64) PRIMARY KEY,
			league_id VARCHAR(64) NOT NULL REFERENCES leagues(id) ON DELETE CASCADE,
			kind VARCHAR(20) NOT NULL,
			name VARCHAR(128) NOT NULL,
			points INT NOT NULL,
			active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(league_id, kind, name)
		)`,
		`CREATE TABLE IF NOT EXISTS standings (
			league_id VARCHAR(64) NOT NULL REFERENCES leagues(id) ON DELETE CASCADE,
			kind VARCHAR(20) NOT NULL,
			player_id VARCHAR(64) NOT NULL,
			rank INT NOT NULL,
			total_points INT NOT NULL,
			games_played INT NOT NULL,
			wins INT NOT NULL,
			losses INT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY(league_id, kind, player_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_league ON games(league_id, played_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_games_league_kind ON games(league_id, kind)`,
		`CREATE INDEX IF NOT EXISTS idx_players_league ON players(league_id)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// CreateLeague creates a new league
func (r *Repository) CreateLeague(ctx context.Context, league domain.League) error {
	query := `
		INSERT INTO leagues (id, name, season, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
	`
	_, err := r.pool.Exec(ctx, query, league.ID, league.Name, league.Season, time.Now())
	if err != nil {
		return fmt.Errorf("creating league: %w", err)
	}
	return nil
}

// GetLeague retrieves a league by ID
func (r *Repository) GetLeague(ctx context.Context, leagueID string) (*domain.League, error) {
	query := `SELECT id, name, season, created_at, updated_at FROM leagues WHERE id = $1`
	var league domain.League
	err := r.pool.QueryRow(ctx, query, leagueID).Scan(
		&league.ID,
		&league.Name,
		&league.Season,
		&league.CreatedAt,
		&league.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLeagueNotFound
		}
		return nil, fmt.Errorf("getting league: %w", err)
	}
	return &league, nil
}

// ListLeagues retrieves all leagues
func (r *Repository) ListLeagues(ctx context.Context) ([]domain.League, error) {
	query := `SELECT id, name, season, created_at, updated_at FROM leagues ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing leagues: %w", err)
	}
	defer rows.Close()

	var leagues []domain.League
	for rows.Next() {
		var league domain.League
		if err := rows.Scan(&league.ID, &league.Name, &league.Season, &league.CreatedAt, &league.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning league: %w", err)
		}
		leagues = append(leagues, league)
	}
	return leagues, nil
}

// LeagueExists checks if a league exists
func (r *Repository) LeagueExists(ctx context.Context, leagueID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM leagues WHERE id = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, leagueID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking league existence: %w", err)
	}
	return exists, nil
}

// CreatePlayer adds a player to a league roster
func (r *Repository) CreatePlayer(ctx context.Context, player domain.Player) error {
	query := `
		INSERT INTO players (id, league_id, name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = $3
	`
	_, err := r.pool.Exec(ctx, query, player.ID, player.LeagueID, player.Name, time.Now())
	if err != nil {
		return fmt.Errorf("creating player: %w", err)
	}
	return nil
}

// ListPlayers retrieves a league's roster
func (r *Repository) ListPlayers(ctx context.Context, leagueID string) ([]domain.Player, error) {
	query := `SELECT id, league_id, name, created_at FROM players WHERE league_id = $1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.ID, &p.LeagueID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, p)
	}
	return players, nil
}

// InsertGame stores a game record
func (r *Repository) InsertGame(ctx context.Context, game domain.GameRecord) error {
	placements, err := json.Marshal(game.Placements)
	if err != nil {
		return fmt.Errorf("marshaling placements: %w", err)
	}

	var objectives []byte
	if game.Objectives != nil {
		objectives, err = json.Marshal(game.Objectives)
		if err != nil {
			return fmt.Errorf("marshaling objectives: %w", err)
		}
	}

	query := `
		INSERT INTO games (id, league_id, kind, played_at, placements, objectives, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.pool.Exec(ctx, query,
		game.ID,
		game.LeagueID,
		string(game.Kind),
		game.PlayedAt,
		placements,
		objectives,
		game.Notes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("inserting game: %w", err)
	}
	return nil
}

// ListGames retrieves a league's game records, optionally filtered by kind.
// A game whose placement payload fails to decode is skipped with a warning
// rather than failing the whole scope.
func (r *Repository) ListGames(ctx context.Context, leagueID string, kind domain.GameKind) ([]domain.GameRecord, error) {
	query := `
		SELECT id, league_id, kind, played_at, placements, objectives, notes
		FROM games
		WHERE league_id = $1 AND ($2 = '' OR kind = $2)
		ORDER BY played_at ASC
	`
	rows, err := r.pool.Query(ctx, query, leagueID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	var games []domain.GameRecord
	for rows.Next() {
		game, err := r.scanGame(rows)
		if err != nil {
			r.logger.Warn("skipping malformed game record", "error", err)
			continue
		}
		games = append(games, game)
	}
	return games, nil
}

// ListRecentGames retrieves a league's most recent games, newest first
func (r *Repository) ListRecentGames(ctx context.Context, leagueID string, limit int) ([]domain.GameRecord, error) {
	query := `
		SELECT id, league_id, kind, played_at, placements, objectives, notes
		FROM games
		WHERE league_id = $1
		ORDER BY played_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, leagueID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent games: %w", err)
	}
	defer rows.Close()

	var games []domain.GameRecord
	for rows.Next() {
		game, err := r.scanGame(rows)
		if err != nil {
			r.logger.Warn("skipping malformed game record", "error", err)
			continue
		}
		games = append(games, game)
	}
	return games, nil
}

func (r *Repository) scanGame(rows pgx.Rows) (domain.GameRecord, error) {
	var game domain.GameRecord
	var kind string
	var placements, objectives []byte
	if err := rows.Scan(&game.ID, &game.LeagueID, &kind, &game.PlayedAt, &placements, &objectives, &game.Notes); err != nil {
		return domain.GameRecord{}, fmt.Errorf("scanning game: %w", err)
	}
	game.Kind = domain.GameKind(kind)

	if err := json.Unmarshal(placements, &game.Placements); err != nil {
		return domain.GameRecord{}, fmt.Errorf("decoding placements for game %s: %w", game.ID, err)
	}
	if len(objectives) > 0 {
		if err := json.Unmarshal(objectives, &game.Objectives); err != nil {
			return domain.GameRecord{}, fmt.Errorf("decoding objectives for game %s: %w", game.ID, err)
		}
	}
	return game, nil
}

// UpdatePlacements rewrites the placement payloads of multiple games in one
// batch, used by the admin recalculation flow
func (r *Repository) UpdatePlacements(ctx context.Context, games []domain.GameRecord) error {
	if len(games) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `UPDATE games SET placements = $2 WHERE id = $1`

	for _, game := range games {
		placements, err := json.Marshal(game.Placements)
		if err != nil {
			return fmt.Errorf("marshaling placements for game %s: %w", game.ID, err)
		}
		batch.Queue(query, game.ID, placements)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range games {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch updating placements: %w", err)
		}
	}
	return nil
}

// CreateScoringRule adds a scoring rule to a league
func (r *Repository) CreateScoringRule(ctx context.Context, rule domain.ScoringRule) error {
	query := `
		INSERT INTO scoring_rules (id, league_id, kind, name, points, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		rule.ID,
		rule.LeagueID,
		string(rule.Kind),
		rule.Name,
		rule.Points,
		rule.Active,
		time.Now(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrRuleExists
		}
		return fmt.Errorf("creating scoring rule: %w", err)
	}
	return nil
}

// ListScoringRules retrieves all of a league's scoring rules. Active
// filtering happens when the rule set is compiled.
func (r *Repository) ListScoringRules(ctx context.Context, leagueID string) ([]domain.ScoringRule, error) {
	query := `
		SELECT id, league_id, kind, name, points, active, created_at
		FROM scoring_rules
		WHERE league_id = $1
		ORDER BY kind, name
	`
	rows, err := r.pool.Query(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("listing scoring rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.ScoringRule
	for rows.Next() {
		var rule domain.ScoringRule
		var kind string
		if err := rows.Scan(&rule.ID, &rule.LeagueID, &kind, &rule.Name, &rule.Points, &rule.Active, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning scoring rule: %w", err)
		}
		rule.Kind = domain.GameKind(kind)
		rules = append(rules, rule)
	}
	return rules, nil
}

// UpsertStandings persists a computed leaderboard as the league's standings
// snapshot
func (r *Repository) UpsertStandings(ctx context.Context, leagueID string, kind domain.GameKind, entries []domain.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO standings (league_id, kind, player_id, rank, total_points, games_played, wins, losses, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (league_id, kind, player_id)
		DO UPDATE SET rank = $4, total_points = $5, games_played = $6, wins = $7, losses = $8, updated_at = $9
	`
	now := time.Now()
	for _, e := range entries {
		batch.Queue(query, leagueID, string(kind), e.PlayerID, e.Rank, e.TotalPoints, e.GamesPlayed, e.Wins, e.Losses, now)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch upserting standings: %w", err)
		}
	}
	return nil
}

// CountGames returns the number of games recorded for a league
func (r *Repository) CountGames(ctx context.Context, leagueID string) (int, error) {
	query := `SELECT COUNT(*) FROM games WHERE league_id = $1`
	var count int
	if err := r.pool.QueryRow(ctx, query, leagueID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting games: %w", err)
	}
	return count, nil
}
