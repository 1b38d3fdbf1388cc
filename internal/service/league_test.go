package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/league-engine/internal/config"
	"github.com/league-engine/internal/domain"
)

// fakeRecordStore is an in-memory RecordStore for service tests
type fakeRecordStore struct {
	leagues map[string]domain.League
	players map[string][]domain.Player
	games   map[string][]domain.GameRecord
	rules   map[string][]domain.ScoringRule

	standingsUpserts int
	placementUpdates int
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{
		leagues: make(map[string]domain.League),
		players: make(map[string][]domain.Player),
		games:   make(map[string][]domain.GameRecord),
		rules:   make(map[string][]domain.ScoringRule),
	}
}

func (f *fakeRecordStore) CreateLeague(_ context.Context, league domain.League) error {
	f.leagues[league.ID] = league
	return nil
}

func (f *fakeRecordStore) GetLeague(_ context.Context, leagueID string) (*domain.League, error) {
	league, ok := f.leagues[leagueID]
	if !ok {
		return nil, domain.ErrLeagueNotFound
	}
	return &league, nil
}

func (f *fakeRecordStore) ListLeagues(_ context.Context) ([]domain.League, error) {
	out := make([]domain.League, 0, len(f.leagues))
	for _, l := range f.leagues {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeRecordStore) LeagueExists(_ context.Context, leagueID string) (bool, error) {
	_, ok := f.leagues[leagueID]
	return ok, nil
}

func (f *fakeRecordStore) CreatePlayer(_ context.Context, player domain.Player) error {
	f.players[player.LeagueID] = append(f.players[player.LeagueID], player)
	return nil
}

func (f *fakeRecordStore) ListPlayers(_ context.Context, leagueID string) ([]domain.Player, error) {
	return f.players[leagueID], nil
}

func (f *fakeRecordStore) InsertGame(_ context.Context, game domain.GameRecord) error {
	f.games[game.LeagueID] = append(f.games[game.LeagueID], game)
	return nil
}

func (f *fakeRecordStore) ListGames(_ context.Context, leagueID string, kind domain.GameKind) ([]domain.GameRecord, error) {
	var out []domain.GameRecord
	for _, g := range f.games[leagueID] {
		if kind == "" || g.Kind == kind {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeRecordStore) ListRecentGames(_ context.Context, leagueID string, limit int) ([]domain.GameRecord, error) {
	games := f.games[leagueID]
	if len(games) > limit {
		games = games[len(games)-limit:]
	}
	return games, nil
}

func (f *fakeRecordStore) UpdatePlacements(_ context.Context, games []domain.GameRecord) error {
	f.placementUpdates++
	for _, updated := range games {
		stored := f.games[updated.LeagueID]
		for i := range stored {
			if stored[i].ID == updated.ID {
				stored[i].Placements = updated.Placements
			}
		}
	}
	return nil
}

func (f *fakeRecordStore) CreateScoringRule(_ context.Context, rule domain.ScoringRule) error {
	f.rules[rule.LeagueID] = append(f.rules[rule.LeagueID], rule)
	return nil
}

func (f *fakeRecordStore) ListScoringRules(_ context.Context, leagueID string) ([]domain.ScoringRule, error) {
	return f.rules[leagueID], nil
}

func (f *fakeRecordStore) UpsertStandings(_ context.Context, _ string, _ domain.GameKind, _ []domain.LeaderboardEntry) error {
	f.standingsUpserts++
	return nil
}

func (f *fakeRecordStore) CountGames(_ context.Context, leagueID string) (int, error) {
	return len(f.games[leagueID]), nil
}

// fakeSnapshotStore is an in-memory SnapshotStore for service tests
type fakeSnapshotStore struct {
	snapshots     map[string]map[string]int
	boards        map[string][]domain.LeaderboardEntry
	points        map[string]map[string]int
	invalidations int
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{
		snapshots: make(map[string]map[string]int),
		boards:    make(map[string][]domain.LeaderboardEntry),
		points:    make(map[string]map[string]int),
	}
}

func scopeKey(leagueID string, kind domain.GameKind) string {
	return leagueID + "/" + string(kind)
}

func (f *fakeSnapshotStore) GetRankSnapshot(_ context.Context, leagueID string, kind domain.GameKind) (map[string]int, error) {
	return f.snapshots[scopeKey(leagueID, kind)], nil
}

func (f *fakeSnapshotStore) SetRankSnapshot(_ context.Context, leagueID string, kind domain.GameKind, snapshot map[string]int) error {
	f.snapshots[scopeKey(leagueID, kind)] = snapshot
	return nil
}

func (f *fakeSnapshotStore) GetCachedLeaderboard(_ context.Context, leagueID string, kind domain.GameKind) ([]domain.LeaderboardEntry, bool, error) {
	entries, ok := f.boards[scopeKey(leagueID, kind)]
	return entries, ok, nil
}

func (f *fakeSnapshotStore) SetCachedLeaderboard(_ context.Context, leagueID string, kind domain.GameKind, entries []domain.LeaderboardEntry) error {
	f.boards[scopeKey(leagueID, kind)] = entries
	return nil
}

func (f *fakeSnapshotStore) InvalidateLeague(_ context.Context, leagueID string) error {
	f.invalidations++
	for _, kind := range append(domain.AllGameKinds(), domain.GameKind("")) {
		delete(f.boards, scopeKey(leagueID, kind))
	}
	return nil
}

func (f *fakeSnapshotStore) MirrorPoints(_ context.Context, leagueID string, kind domain.GameKind, entries []domain.LeaderboardEntry) error {
	mirror := make(map[string]int, len(entries))
	for _, e := range entries {
		mirror[e.PlayerID] = e.TotalPoints
	}
	f.points[scopeKey(leagueID, kind)] = mirror
	return nil
}

func (f *fakeSnapshotStore) TopScore(_ context.Context, leagueID string, kind domain.GameKind) (int, bool, error) {
	mirror, ok := f.points[scopeKey(leagueID, kind)]
	if !ok || len(mirror) == 0 {
		return 0, false, nil
	}
	top := 0
	for _, pts := range mirror {
		if pts > top {
			top = pts
		}
	}
	return top, true, nil
}

func newTestService(store *fakeRecordStore, snapshots *fakeSnapshotStore) *LeagueService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.LeaderboardConfig{DefaultLimit: 100, MaxLimit: 1000}
	return NewLeagueService(store, snapshots, cfg, logger)
}

func seedLeague(t *testing.T, store *fakeRecordStore) {
	t.Helper()
	ctx := context.Background()

	if err := store.CreateLeague(ctx, domain.League{ID: "summer", Name: "Summer League"}); err != nil {
		t.Fatalf("seeding league: %v", err)
	}
	for _, p := range []domain.Player{
		{ID: "alice", LeagueID: "summer", Name: "Alice"},
		{ID: "bob", LeagueID: "summer", Name: "Bob"},
		{ID: "carol", LeagueID: "summer", Name: "Carol"},
	} {
		if err := store.CreatePlayer(ctx, p); err != nil {
			t.Fatalf("seeding player: %v", err)
		}
	}
	for _, r := range []domain.ScoringRule{
		{ID: "r1", LeagueID: "summer", Kind: domain.GameKindCommander, Name: "Placement 1st", Points: 5, Active: true},
		{ID: "r2", LeagueID: "summer", Kind: domain.GameKindCommander, Name: "Placement 2nd", Points: 3, Active: true},
	} {
		if err := store.CreateScoringRule(ctx, r); err != nil {
			t.Fatalf("seeding rule: %v", err)
		}
	}
}

func TestRecordGameAssignsPointsAtIngest(t *testing.T) {
	store := newFakeRecordStore()
	snapshots := newFakeSnapshotStore()
	svc := newTestService(store, snapshots)
	seedLeague(t, store)

	game, err := svc.RecordGame(context.Background(), domain.GameSubmission{
		LeagueID: "summer",
		Kind:     domain.GameKindCommander,
		Placements: []domain.PlacementSubmission{
			{PlayerID: "alice", Place: 1},
			{PlayerID: "bob", Place: 2},
			{PlayerID: "carol", Place: 3},
		},
	})
	if err != nil {
		t.Fatalf("RecordGame: %v", err)
	}

	if game.ID == "" {
		t.Error("expected generated game ID")
	}

	want := map[string]int{"alice": 5, "bob": 3, "carol": 1}
	for _, pl := range game.Placements {
		if pl.Points != want[pl.PlayerID] {
			t.Errorf("player %s: points = %d, want %d", pl.PlayerID, pl.Points, want[pl.PlayerID])
		}
	}

	if len(store.games["summer"]) != 1 {
		t.Fatalf("stored games = %d, want 1", len(store.games["summer"]))
	}
	if store.standingsUpserts == 0 {
		t.Error("expected standings refresh after ingest")
	}
}

func TestRecordGameRejectsInvalidSubmissions(t *testing.T) {
	store := newFakeRecordStore()
	svc := newTestService(store, newFakeSnapshotStore())
	seedLeague(t, store)

	cases := []struct {
		name       string
		submission domain.GameSubmission
		wantErr    error
	}{
		{
			name: "unknown kind",
			submission: domain.GameSubmission{
				LeagueID:   "summer",
				Kind:       "chess",
				Placements: []domain.PlacementSubmission{{PlayerID: "alice", Place: 1}},
			},
			wantErr: domain.ErrInvalidGameKind,
		},
		{
			name: "no placements",
			submission: domain.GameSubmission{
				LeagueID: "summer",
				Kind:     domain.GameKindCommander,
			},
			wantErr: domain.ErrInvalidGame,
		},
		{
			name: "zero place",
			submission: domain.GameSubmission{
				LeagueID:   "summer",
				Kind:       domain.GameKindCommander,
				Placements: []domain.PlacementSubmission{{PlayerID: "alice", Place: 0}},
			},
			wantErr: domain.ErrInvalidGame,
		},
		{
			name: "missing league",
			submission: domain.GameSubmission{
				LeagueID:   "winter",
				Kind:       domain.GameKindCommander,
				Placements: []domain.PlacementSubmission{{PlayerID: "alice", Place: 1}},
			},
			wantErr: domain.ErrLeagueNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordGame(context.Background(), tc.submission)
			if err != tc.wantErr {
				t.Errorf("RecordGame error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestComputeLeaderboardNamesAndOrder(t *testing.T) {
	store := newFakeRecordStore()
	snapshots := newFakeSnapshotStore()
	svc := newTestService(store, snapshots)
	seedLeague(t, store)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := svc.RecordGame(ctx, domain.GameSubmission{
			LeagueID: "summer",
			Kind:     domain.GameKindCommander,
			PlayedAt: time.Date(2026, 8, 1+i, 19, 0, 0, 0, time.UTC),
			Placements: []domain.PlacementSubmission{
				{PlayerID: "alice", Place: 1},
				{PlayerID: "bob", Place: 2},
				{PlayerID: "dave", Place: 3},
			},
		}); err != nil {
			t.Fatalf("RecordGame: %v", err)
		}
	}

	entries, err := svc.ComputeLeaderboard(ctx, "summer", "", 0)
	if err != nil {
		t.Fatalf("ComputeLeaderboard: %v", err)
	}

	// Rostered alice, bob, carol plus unrostered dave
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(entries))
	}

	if entries[0].PlayerID != "alice" || entries[0].Rank != 1 {
		t.Errorf("top entry = %s rank %d, want alice rank 1", entries[0].PlayerID, entries[0].Rank)
	}
	if entries[0].PlayerName != "Alice" {
		t.Errorf("top entry name = %q, want Alice", entries[0].PlayerName)
	}
	if entries[0].TotalPoints != 10 || entries[0].Wins != 2 {
		t.Errorf("alice points/wins = %d/%d, want 10/2", entries[0].TotalPoints, entries[0].Wins)
	}

	// The unrostered player falls back to the placeholder name
	for _, e := range entries {
		if e.PlayerID == "dave" && e.PlayerName != domain.UnknownPlayerName {
			t.Errorf("unrostered name = %q, want %q", e.PlayerName, domain.UnknownPlayerName)
		}
	}

	// Ranks cover 1..N with no gaps
	for i, e := range entries {
		if e.Rank != i+1 {
			t.Errorf("entry %d rank = %d, want %d", i, e.Rank, i+1)
		}
	}
}

func TestComputeLeaderboardEmptyLeague(t *testing.T) {
	store := newFakeRecordStore()
	svc := newTestService(store, newFakeSnapshotStore())
	seedLeague(t, store)

	entries, err := svc.ComputeLeaderboard(context.Background(), "summer", "", 0)
	if err != nil {
		t.Fatalf("ComputeLeaderboard: %v", err)
	}

	// Rostered players appear even before any games are played
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	for _, e := range entries {
		if e.TotalPoints != 0 || e.GamesPlayed != 0 {
			t.Errorf("player %s has nonzero aggregate before any games", e.PlayerID)
		}
	}
}

func TestComputeLeaderboardServesCache(t *testing.T) {
	store := newFakeRecordStore()
	snapshots := newFakeSnapshotStore()
	svc := newTestService(store, snapshots)
	seedLeague(t, store)

	cached := []domain.LeaderboardEntry{{Rank: 1, PlayerID: "zed", PlayerName: "Zed", TotalPoints: 99}}
	if err := snapshots.SetCachedLeaderboard(context.Background(), "summer", "", cached); err != nil {
		t.Fatalf("seeding cache: %v", err)
	}

	entries, err := svc.ComputeLeaderboard(context.Background(), "summer", "", 0)
	if err != nil {
		t.Fatalf("ComputeLeaderboard: %v", err)
	}
	if len(entries) != 1 || entries[0].PlayerID != "zed" {
		t.Errorf("expected cached board to be served, got %+v", entries)
	}
}

func TestRecalculatePointsIsIdempotent(t *testing.T) {
	store := newFakeRecordStore()
	snapshots := newFakeSnapshotStore()
	svc := newTestService(store, snapshots)
	seedLeague(t, store)

	ctx := context.Background()
	if _, err := svc.RecordGame(ctx, domain.GameSubmission{
		LeagueID: "summer",
		Kind:     domain.GameKindCommander,
		Placements: []domain.PlacementSubmission{
			{PlayerID: "alice", Place: 1},
			{PlayerID: "bob", Place: 2},
		},
	}); err != nil {
		t.Fatalf("RecordGame: %v", err)
	}

	// A second first-place rule stacks, changing what the win is worth
	if _, err := svc.CreateRule(ctx, "summer", domain.CreateRuleRequest{
		Kind:   domain.GameKindCommander,
		Name:   "Placement 1",
		Points: 2,
	}); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}

	first, err := svc.RecalculatePoints(ctx, "summer")
	if err != nil {
		t.Fatalf("RecalculatePoints: %v", err)
	}
	if first.GamesScanned != 1 {
		t.Errorf("games scanned = %d, want 1", first.GamesScanned)
	}
	if first.Changed != 1 {
		t.Errorf("first run changed = %d, want 1", first.Changed)
	}

	// Stored placements now reflect the corrected points
	game := store.games["summer"][0]
	if pl, ok := game.PlacementFor("alice"); !ok || pl.Points != 7 {
		t.Errorf("alice points after recalc = %d, want 7", pl.Points)
	}

	second, err := svc.RecalculatePoints(ctx, "summer")
	if err != nil {
		t.Fatalf("RecalculatePoints (second): %v", err)
	}
	if second.Changed != 0 {
		t.Errorf("second run changed = %d, want 0", second.Changed)
	}
}

func TestRefreshStandingsPersistsSnapshot(t *testing.T) {
	store := newFakeRecordStore()
	snapshots := newFakeSnapshotStore()
	svc := newTestService(store, snapshots)
	seedLeague(t, store)

	ctx := context.Background()
	if _, err := svc.RecordGame(ctx, domain.GameSubmission{
		LeagueID: "summer",
		Kind:     domain.GameKindCommander,
		Placements: []domain.PlacementSubmission{
			{PlayerID: "alice", Place: 1},
			{PlayerID: "bob", Place: 2},
		},
	}); err != nil {
		t.Fatalf("RecordGame: %v", err)
	}

	snapshot := snapshots.snapshots[scopeKey("summer", "")]
	if snapshot == nil {
		t.Fatal("expected rank snapshot after ingest")
	}
	if snapshot["alice"] != 1 {
		t.Errorf("snapshot rank for alice = %d, want 1", snapshot["alice"])
	}

	// The next board shows movement against the stored snapshot: bob wins
	// two games and overtakes alice
	for i := 0; i < 2; i++ {
		if _, err := svc.RecordGame(ctx, domain.GameSubmission{
			LeagueID: "summer",
			Kind:     domain.GameKindCommander,
			Placements: []domain.PlacementSubmission{
				{PlayerID: "bob", Place: 1},
				{PlayerID: "carol", Place: 2},
			},
		}); err != nil {
			t.Fatalf("RecordGame: %v", err)
		}
	}

	entries, err := svc.ComputeLeaderboard(ctx, "summer", "", 0)
	if err != nil {
		t.Fatalf("ComputeLeaderboard: %v", err)
	}
	if entries[0].PlayerID != "bob" {
		t.Fatalf("leader = %s, want bob", entries[0].PlayerID)
	}
}

func TestGetLeagueStats(t *testing.T) {
	store := newFakeRecordStore()
	snapshots := newFakeSnapshotStore()
	svc := newTestService(store, snapshots)
	seedLeague(t, store)

	ctx := context.Background()
	if _, err := svc.RecordGame(ctx, domain.GameSubmission{
		LeagueID: "summer",
		Kind:     domain.GameKindCommander,
		Placements: []domain.PlacementSubmission{
			{PlayerID: "alice", Place: 1},
			{PlayerID: "bob", Place: 2},
		},
	}); err != nil {
		t.Fatalf("RecordGame: %v", err)
	}

	stats, err := svc.GetLeagueStats(ctx, "summer")
	if err != nil {
		t.Fatalf("GetLeagueStats: %v", err)
	}
	if stats.TotalPlayers != 3 {
		t.Errorf("total players = %d, want 3", stats.TotalPlayers)
	}
	if stats.TotalGames != 1 {
		t.Errorf("total games = %d, want 1", stats.TotalGames)
	}
	if stats.TopScore != 5 {
		t.Errorf("top score = %d, want 5", stats.TopScore)
	}
}

func TestAddPlayerGeneratesID(t *testing.T) {
	store := newFakeRecordStore()
	svc := newTestService(store, newFakeSnapshotStore())
	seedLeague(t, store)

	player, err := svc.AddPlayer(context.Background(), "summer", "", "Dana")
	if err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if player.ID == "" {
		t.Error("expected generated player ID")
	}
	if player.LeagueID != "summer" {
		t.Errorf("league = %q, want summer", player.LeagueID)
	}

	if _, err := svc.AddPlayer(context.Background(), "summer", "", ""); err != domain.ErrInvalidRequest {
		t.Errorf("empty name error = %v, want %v", err, domain.ErrInvalidRequest)
	}
	if _, err := svc.AddPlayer(context.Background(), "winter", "", "Eve"); err != domain.ErrLeagueNotFound {
		t.Errorf("missing league error = %v, want %v", err, domain.ErrLeagueNotFound)
	}
}
