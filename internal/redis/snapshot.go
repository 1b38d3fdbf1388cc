package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/league-engine/internal/config"
	"github.com/league-engine/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SnapshotStore keeps the derived leaderboard artifacts in Redis: the
// previous-rank hash feeding trend computation, a short-lived cache of the
// rendered leaderboard, and a sorted-set mirror of total points. All writes
// are explicit; the computation core never sees this layer.
type SnapshotStore struct {
	client   *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewSnapshotStore creates a new Redis-backed snapshot store
func NewSnapshotStore(cfg *config.RedisConfig, logger *slog.Logger) (*SnapshotStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &SnapshotStore{
		client:   client,
		cacheTTL: cfg.CacheTTL,
		logger:   logger,
	}, nil
}

// Close closes the Redis connection
func (s *SnapshotStore) Close() error {
	return s.client.Close()
}

// Client returns the underlying Redis client
func (s *SnapshotStore) Client() *redis.Client {
	return s.client
}

func (s *SnapshotStore) ranksKey(leagueID string, kind domain.GameKind) string {
	return fmt.Sprintf("league:%s:%s:ranks", leagueID, kindSegment(kind))
}

func (s *SnapshotStore) boardKey(leagueID string, kind domain.GameKind) string {
	return fmt.Sprintf("league:%s:%s:board", leagueID, kindSegment(kind))
}

func (s *SnapshotStore) pointsKey(leagueID string, kind domain.GameKind) string {
	return fmt.Sprintf("league:%s:%s:points", leagueID, kindSegment(kind))
}

func kindSegment(kind domain.GameKind) string {
	if kind == "" {
		return "all"
	}
	return string(kind)
}

// GetRankSnapshot returns the previously stored rank assignment for a scope,
// nil if none exists yet
func (s *SnapshotStore) GetRankSnapshot(ctx context.Context, leagueID string, kind domain.GameKind) (map[string]int, error) {
	result, err := s.client.HGetAll(ctx, s.ranksKey(leagueID, kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting rank snapshot: %w", err)
	}
	if len(result) == 0 {
		return nil, nil
	}

	snapshot := make(map[string]int, len(result))
	for playerID, rankStr := range result {
		rank, err := strconv.Atoi(rankStr)
		if err != nil {
			continue
		}
		snapshot[playerID] = rank
	}
	return snapshot, nil
}

// SetRankSnapshot replaces the stored rank assignment for a scope
func (s *SnapshotStore) SetRankSnapshot(ctx context.Context, leagueID string, kind domain.GameKind, snapshot map[string]int) error {
	key := s.ranksKey(leagueID, kind)

	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	if len(snapshot) > 0 {
		fields := make(map[string]interface{}, len(snapshot))
		for playerID, rank := range snapshot {
			fields[playerID] = rank
		}
		pipe.HSet(ctx, key, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("setting rank snapshot: %w", err)
	}
	return nil
}

// GetCachedLeaderboard returns a cached leaderboard for a scope, reporting
// whether one was present
func (s *SnapshotStore) GetCachedLeaderboard(ctx context.Context, leagueID string, kind domain.GameKind) ([]domain.LeaderboardEntry, bool, error) {
	data, err := s.client.Get(ctx, s.boardKey(leagueID, kind)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("getting cached leaderboard: %w", err)
	}

	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		// Drop the poisoned cache entry rather than surface it
		s.logger.Warn("discarding undecodable cached leaderboard", "league_id", leagueID, "error", err)
		s.client.Del(ctx, s.boardKey(leagueID, kind))
		return nil, false, nil
	}
	return entries, true, nil
}

// SetCachedLeaderboard caches a computed leaderboard for a scope with the
// configured TTL
func (s *SnapshotStore) SetCachedLeaderboard(ctx context.Context, leagueID string, kind domain.GameKind, entries []domain.LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling leaderboard: %w", err)
	}
	if err := s.client.Set(ctx, s.boardKey(leagueID, kind), data, s.cacheTTL).Err(); err != nil {
		return fmt.Errorf("setting cached leaderboard: %w", err)
	}
	return nil
}

// InvalidateLeague drops every cached artifact for a league across all game
// kind scopes. Called whenever the league's game set or rules change.
func (s *SnapshotStore) InvalidateLeague(ctx context.Context, leagueID string) error {
	kinds := append(domain.AllGameKinds(), domain.GameKind(""))
	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, s.boardKey(leagueID, kind))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidating league cache: %w", err)
	}
	return nil
}

// MirrorPoints maintains the sorted-set mirror of total points for a scope
func (s *SnapshotStore) MirrorPoints(ctx context.Context, leagueID string, kind domain.GameKind, entries []domain.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}

	key := s.pointsKey(leagueID, kind)
	members := make([]redis.Z, len(entries))
	for i, e := range entries {
		members[i] = redis.Z{Score: float64(e.TotalPoints), Member: e.PlayerID}
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.ZAdd(ctx, key, members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirroring points: %w", err)
	}
	return nil
}

// TopScore returns the highest mirrored point total for a scope, reporting
// whether any players were present
func (s *SnapshotStore) TopScore(ctx context.Context, leagueID string, kind domain.GameKind) (int, bool, error) {
	results, err := s.client.ZRevRangeWithScores(ctx, s.pointsKey(leagueID, kind), 0, 0).Result()
	if err != nil {
		return 0, false, fmt.Errorf("getting top score: %w", err)
	}
	if len(results) == 0 {
		return 0, false, nil
	}
	return int(results[0].Score), true, nil
}
