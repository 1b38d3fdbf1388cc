package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/league-engine/internal/config"
	"github.com/league-engine/internal/domain"
	"github.com/league-engine/internal/scoring"
	"github.com/league-engine/internal/stats"
	"github.com/league-engine/internal/websocket"
)

// RecordStore is the contract with the relational record store
type RecordStore interface {
	CreateLeague(ctx context.Context, league domain.League) error
	GetLeague(ctx context.Context, leagueID string) (*domain.League, error)
	ListLeagues(ctx context.Context) ([]domain.League, error)
	LeagueExists(ctx context.Context, leagueID string) (bool, error)
	CreatePlayer(ctx context.Context, player domain.Player) error
	ListPlayers(ctx context.Context, leagueID string) ([]domain.Player, error)
	InsertGame(ctx context.Context, game domain.GameRecord) error
	ListGames(ctx context.Context, leagueID string, kind domain.GameKind) ([]domain.GameRecord, error)
	ListRecentGames(ctx context.Context, leagueID string, limit int) ([]domain.GameRecord, error)
	UpdatePlacements(ctx context.Context, games []domain.GameRecord) error
	CreateScoringRule(ctx context.Context, rule domain.ScoringRule) error
	ListScoringRules(ctx context.Context, leagueID string) ([]domain.ScoringRule, error)
	UpsertStandings(ctx context.Context, leagueID string, kind domain.GameKind, entries []domain.LeaderboardEntry) error
	CountGames(ctx context.Context, leagueID string) (int, error)
}

// SnapshotStore is the injected cache and rank-snapshot contract. The
// computation itself stays cache-agnostic; only this service talks to it, and
// invalidation is always explicit.
type SnapshotStore interface {
	GetRankSnapshot(ctx context.Context, leagueID string, kind domain.GameKind) (map[string]int, error)
	SetRankSnapshot(ctx context.Context, leagueID string, kind domain.GameKind, snapshot map[string]int) error
	GetCachedLeaderboard(ctx context.Context, leagueID string, kind domain.GameKind) ([]domain.LeaderboardEntry, bool, error)
	SetCachedLeaderboard(ctx context.Context, leagueID string, kind domain.GameKind, entries []domain.LeaderboardEntry) error
	InvalidateLeague(ctx context.Context, leagueID string) error
	MirrorPoints(ctx context.Context, leagueID string, kind domain.GameKind, entries []domain.LeaderboardEntry) error
	TopScore(ctx context.Context, leagueID string, kind domain.GameKind) (int, bool, error)
}

// LeagueService provides the scoring, ranking and derived-statistics
// operations over stored game records
type LeagueService struct {
	store     RecordStore
	snapshots SnapshotStore
	config    *config.LeaderboardConfig
	logger    *slog.Logger
	hub       *websocket.Hub
}

// NewLeagueService creates a new league service
func NewLeagueService(
	store RecordStore,
	snapshots SnapshotStore,
	cfg *config.LeaderboardConfig,
	logger *slog.Logger,
) *LeagueService {
	return &LeagueService{
		store:     store,
		snapshots: snapshots,
		config:    cfg,
		logger:    logger,
	}
}

// SetHub attaches the websocket hub used for leaderboard broadcasts
func (s *LeagueService) SetHub(hub *websocket.Hub) {
	s.hub = hub
}

// ComputeLeaderboard returns the ranked leaderboard for a league, optionally
// filtered by game kind. Results come from the cache when fresh; otherwise a
// full recomputation runs against the current game set.
func (s *LeagueService) ComputeLeaderboard(ctx context.Context, leagueID string, kind domain.GameKind, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	if cached, ok, err := s.snapshots.GetCachedLeaderboard(ctx, leagueID, kind); err != nil {
		s.logger.Warn("leaderboard cache read failed", "league_id", leagueID, "error", err)
	} else if ok {
		return truncate(cached, limit), nil
	}

	entries, err := s.computeEntries(ctx, leagueID, kind)
	if err != nil {
		return nil, err
	}

	if err := s.snapshots.SetCachedLeaderboard(ctx, leagueID, kind, entries); err != nil {
		s.logger.Warn("leaderboard cache write failed", "league_id", leagueID, "error", err)
	}

	return truncate(entries, limit), nil
}

// computeEntries runs the full pipeline: fetch, aggregate, rank, decorate.
// Aggregates are fed to the ranking engine in player-id order so full-key
// ties resolve identically on every run.
func (s *LeagueService) computeEntries(ctx context.Context, leagueID string, kind domain.GameKind) ([]domain.LeaderboardEntry, error) {
	players, err := s.store.ListPlayers(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("fetching players: %w", err)
	}

	games, err := s.store.ListGames(ctx, leagueID, kind)
	if err != nil {
		return nil, fmt.Errorf("fetching games: %w", err)
	}

	aggregates := stats.Aggregate(players, games)
	ordered := make([]domain.PlayerAggregate, 0, len(aggregates))
	for _, agg := range aggregates {
		ordered = append(ordered, *agg)
	}
	slices.SortFunc(ordered, func(a, b domain.PlayerAggregate) int {
		return cmp.Compare(a.PlayerID, b.PlayerID)
	})

	previous, err := s.snapshots.GetRankSnapshot(ctx, leagueID, kind)
	if err != nil {
		s.logger.Warn("rank snapshot read failed", "league_id", leagueID, "error", err)
		previous = nil
	}

	entries := stats.Rank(ordered, previous)

	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}

	for i := range entries {
		name, ok := names[entries[i].PlayerID]
		if !ok || name == "" {
			name = domain.UnknownPlayerName
		}
		entries[i].PlayerName = name

		history := stats.History(entries[i].PlayerID, games)
		entries[i].CurrentStreak = stats.CurrentStreak(history)
		entries[i].BestStreak = stats.BestStreak(history)
	}

	return entries, nil
}

// RefreshStandings recomputes a scope's leaderboard and persists every
// derived artifact: the standings table, the rank snapshot used for trends,
// the cache, and the points mirror. Subscribed websocket clients receive the
// refreshed board.
func (s *LeagueService) RefreshStandings(ctx context.Context, leagueID string, kind domain.GameKind) error {
	entries, err := s.computeEntries(ctx, leagueID, kind)
	if err != nil {
		return fmt.Errorf("computing standings: %w", err)
	}

	if err := s.store.UpsertStandings(ctx, leagueID, kind, entries); err != nil {
		return fmt.Errorf("persisting standings: %w", err)
	}

	if err := s.snapshots.SetRankSnapshot(ctx, leagueID, kind, stats.SnapshotOf(entries)); err != nil {
		s.logger.Warn("rank snapshot write failed", "league_id", leagueID, "error", err)
	}
	if err := s.snapshots.SetCachedLeaderboard(ctx, leagueID, kind, entries); err != nil {
		s.logger.Warn("leaderboard cache write failed", "league_id", leagueID, "error", err)
	}
	if err := s.snapshots.MirrorPoints(ctx, leagueID, kind, entries); err != nil {
		s.logger.Warn("points mirror write failed", "league_id", leagueID, "error", err)
	}

	if s.hub != nil && kind == "" {
		s.hub.BroadcastLeaderboardUpdate(leagueID, entries, len(entries))
	}

	return nil
}

// ComputeCharacterSheets derives the presentational stat blocks for every
// player in a league scope, ordered by total points
func (s *LeagueService) ComputeCharacterSheets(ctx context.Context, leagueID string, kind domain.GameKind) ([]domain.CharacterSheet, error) {
	players, err := s.store.ListPlayers(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("fetching players: %w", err)
	}

	games, err := s.store.ListGames(ctx, leagueID, kind)
	if err != nil {
		return nil, fmt.Errorf("fetching games: %w", err)
	}

	aggregates := stats.Aggregate(players, games)
	claims := stats.ObjectiveCounts(games)

	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}

	sheets := make([]domain.CharacterSheet, 0, len(aggregates))
	for _, agg := range aggregates {
		sheet := stats.DeriveSheet(*agg, claims[agg.PlayerID])
		name, ok := names[agg.PlayerID]
		if !ok || name == "" {
			name = domain.UnknownPlayerName
		}
		sheet.PlayerName = name
		sheets = append(sheets, sheet)
	}

	slices.SortFunc(sheets, func(a, b domain.CharacterSheet) int {
		if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerName, b.PlayerName)
	})

	return sheets, nil
}

// GetPlayerRating computes the Elo-like rating and form summary for one
// player. A player with no recorded games gets the neutral baseline rating.
func (s *LeagueService) GetPlayerRating(ctx context.Context, leagueID, playerID string, kind domain.GameKind) (*domain.PlayerRating, error) {
	games, err := s.store.ListGames(ctx, leagueID, kind)
	if err != nil {
		return nil, fmt.Errorf("fetching games: %w", err)
	}

	rating := stats.EstimateRating(playerID, stats.History(playerID, games))
	return &rating, nil
}

// RecalculatePoints re-runs the rule evaluator over every stored game of a
// league against the current rule set, applies the corrected placement
// points, and reports how many placements changed. Running it twice without
// new games yields a zero diff on the second run.
func (s *LeagueService) RecalculatePoints(ctx context.Context, leagueID string) (*domain.RecalculationResult, error) {
	rules, err := s.store.ListScoringRules(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("fetching scoring rules: %w", err)
	}
	ruleSet := scoring.NewRuleSet(rules)

	games, err := s.store.ListGames(ctx, leagueID, "")
	if err != nil {
		return nil, fmt.Errorf("fetching games: %w", err)
	}

	result := &domain.RecalculationResult{LeagueID: leagueID, GamesScanned: len(games)}

	var modified []domain.GameRecord
	for i := range games {
		game := games[i]
		points := scoring.EvaluateGame(&game, ruleSet)

		gameChanged := false
		for j := range game.Placements {
			want := points[game.Placements[j].PlayerID]
			if game.Placements[j].Points != want {
				game.Placements[j].Points = want
				result.Changed++
				gameChanged = true
			}
		}
		if gameChanged {
			modified = append(modified, game)
		}
	}

	if len(modified) > 0 {
		if err := s.store.UpdatePlacements(ctx, modified); err != nil {
			return nil, fmt.Errorf("applying recalculated points: %w", err)
		}
		if err := s.snapshots.InvalidateLeague(ctx, leagueID); err != nil {
			s.logger.Warn("cache invalidation failed after recalculation", "league_id", leagueID, "error", err)
		}
	}

	s.logger.Info("recalculation completed",
		"league_id", leagueID,
		"games_scanned", result.GamesScanned,
		"changed", result.Changed,
	)
	return result, nil
}

// RecordGame evaluates and stores a submitted game. Points are assigned from
// the league's compiled rules at ingest, so reads never re-evaluate.
func (s *LeagueService) RecordGame(ctx context.Context, submission domain.GameSubmission) (*domain.GameRecord, error) {
	if submission.LeagueID == "" || len(submission.Placements) == 0 {
		return nil, domain.ErrInvalidGame
	}
	if !submission.Kind.Valid() {
		return nil, domain.ErrInvalidGameKind
	}
	for _, pl := range submission.Placements {
		if pl.PlayerID == "" || pl.Place < 1 {
			return nil, domain.ErrInvalidGame
		}
	}

	exists, err := s.store.LeagueExists(ctx, submission.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("checking league existence: %w", err)
	}
	if !exists {
		return nil, domain.ErrLeagueNotFound
	}

	rules, err := s.store.ListScoringRules(ctx, submission.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("fetching scoring rules: %w", err)
	}
	ruleSet := scoring.NewRuleSet(rules)

	playedAt := submission.PlayedAt
	if playedAt.IsZero() {
		playedAt = time.Now()
	}

	game := domain.GameRecord{
		ID:         uuid.NewString(),
		LeagueID:   submission.LeagueID,
		Kind:       submission.Kind,
		PlayedAt:   playedAt,
		Objectives: submission.Objectives,
		Notes:      submission.Notes,
		Placements: make([]domain.Placement, len(submission.Placements)),
	}
	for i, pl := range submission.Placements {
		game.Placements[i] = domain.Placement{PlayerID: pl.PlayerID, Place: pl.Place}
	}

	points := scoring.EvaluateGame(&game, ruleSet)
	for i := range game.Placements {
		game.Placements[i].Points = points[game.Placements[i].PlayerID]
	}

	if err := s.store.InsertGame(ctx, game); err != nil {
		return nil, fmt.Errorf("storing game: %w", err)
	}

	if err := s.snapshots.InvalidateLeague(ctx, game.LeagueID); err != nil {
		s.logger.Warn("cache invalidation failed after game ingest", "league_id", game.LeagueID, "error", err)
	}
	if s.hub != nil {
		s.hub.BroadcastGameRecorded(game.LeagueID, game)
	}
	if err := s.RefreshStandings(ctx, game.LeagueID, ""); err != nil {
		s.logger.Warn("standings refresh failed after game ingest", "league_id", game.LeagueID, "error", err)
	}

	return &game, nil
}

// RecordGameBatch records multiple games, continuing past individual
// failures
func (s *LeagueService) RecordGameBatch(ctx context.Context, batch domain.BatchGameSubmission) error {
	for _, submission := range batch.Games {
		if _, err := s.RecordGame(ctx, submission); err != nil {
			s.logger.Error("failed to record game in batch",
				"league_id", submission.LeagueID,
				"error", err,
			)
		}
	}
	return nil
}

// ListRecentGames returns a league's most recent games, newest first
func (s *LeagueService) ListRecentGames(ctx context.Context, leagueID string, limit int) ([]domain.GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}
	return s.store.ListRecentGames(ctx, leagueID, limit)
}

// CreateLeague creates a new league
func (s *LeagueService) CreateLeague(ctx context.Context, req domain.CreateLeagueRequest) (*domain.League, error) {
	if req.ID == "" || req.Name == "" {
		return nil, domain.ErrInvalidRequest
	}
	league := req.ToLeague()
	if err := s.store.CreateLeague(ctx, league); err != nil {
		return nil, fmt.Errorf("creating league: %w", err)
	}
	return &league, nil
}

// ListLeagues returns all leagues
func (s *LeagueService) ListLeagues(ctx context.Context) ([]domain.League, error) {
	return s.store.ListLeagues(ctx)
}

// GetLeague returns a league by ID
func (s *LeagueService) GetLeague(ctx context.Context, leagueID string) (*domain.League, error) {
	return s.store.GetLeague(ctx, leagueID)
}

// AddPlayer adds a player to a league roster
func (s *LeagueService) AddPlayer(ctx context.Context, leagueID, playerID, name string) (*domain.Player, error) {
	if name == "" {
		return nil, domain.ErrInvalidRequest
	}

	exists, err := s.store.LeagueExists(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("checking league existence: %w", err)
	}
	if !exists {
		return nil, domain.ErrLeagueNotFound
	}

	if playerID == "" {
		playerID = uuid.NewString()
	}
	player := domain.Player{ID: playerID, LeagueID: leagueID, Name: name, CreatedAt: time.Now()}
	if err := s.store.CreatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("adding player: %w", err)
	}
	return &player, nil
}

// ListPlayers returns a league's roster
func (s *LeagueService) ListPlayers(ctx context.Context, leagueID string) ([]domain.Player, error) {
	return s.store.ListPlayers(ctx, leagueID)
}

// CreateRule adds a scoring rule to a league
func (s *LeagueService) CreateRule(ctx context.Context, leagueID string, req domain.CreateRuleRequest) (*domain.ScoringRule, error) {
	if req.Name == "" {
		return nil, domain.ErrInvalidRequest
	}
	if !req.Kind.Valid() {
		return nil, domain.ErrInvalidGameKind
	}

	exists, err := s.store.LeagueExists(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("checking league existence: %w", err)
	}
	if !exists {
		return nil, domain.ErrLeagueNotFound
	}

	rule := domain.ScoringRule{
		ID:        uuid.NewString(),
		LeagueID:  leagueID,
		Kind:      req.Kind,
		Name:      req.Name,
		Points:    req.Points,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateScoringRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("creating rule: %w", err)
	}

	// New rules change how future recalculations score existing games.
	if err := s.snapshots.InvalidateLeague(ctx, leagueID); err != nil {
		s.logger.Warn("cache invalidation failed after rule change", "league_id", leagueID, "error", err)
	}

	return &rule, nil
}

// ListRules returns a league's scoring rules
func (s *LeagueService) ListRules(ctx context.Context, leagueID string) ([]domain.ScoringRule, error) {
	return s.store.ListScoringRules(ctx, leagueID)
}

// GetLeagueStats returns summary statistics for a league
func (s *LeagueService) GetLeagueStats(ctx context.Context, leagueID string) (*domain.LeagueStats, error) {
	players, err := s.store.ListPlayers(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("fetching players: %w", err)
	}
	gameCount, err := s.store.CountGames(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("counting games: %w", err)
	}

	statsOut := &domain.LeagueStats{
		LeagueID:     leagueID,
		TotalPlayers: len(players),
		TotalGames:   gameCount,
	}

	if top, ok, err := s.snapshots.TopScore(ctx, leagueID, ""); err == nil && ok {
		statsOut.TopScore = top
	}

	return statsOut, nil
}

func truncate(entries []domain.LeaderboardEntry, limit int) []domain.LeaderboardEntry {
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
