package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/league-engine/internal/config"
	"github.com/league-engine/internal/domain"
	"github.com/league-engine/internal/service"
)

// StandingsWorker periodically recomputes every league's standings and
// persists the derived artifacts: standings rows, rank snapshots for trend
// computation, the leaderboard cache and the points mirror
type StandingsWorker struct {
	service *service.LeagueService
	config  *config.SnapshotConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewStandingsWorker creates a new standings worker
func NewStandingsWorker(
	svc *service.LeagueService,
	cfg *config.SnapshotConfig,
	logger *slog.Logger,
) *StandingsWorker {
	return &StandingsWorker{
		service: svc,
		config:  cfg,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins the background snapshot process
func (w *StandingsWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("standings worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background snapshot process
func (w *StandingsWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("standings worker stopped")
	return nil
}

// run is the main worker loop
func (w *StandingsWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.refreshAll(ctx)
		}
	}
}

// refreshAll recomputes standings for every league across all scopes
func (w *StandingsWorker) refreshAll(ctx context.Context) {
	w.logger.Info("starting standings refresh cycle")
	startTime := time.Now()

	leagues, err := w.service.ListLeagues(ctx)
	if err != nil {
		w.logger.Error("failed to list leagues for refresh", "error", err)
		return
	}

	refreshedCount := 0
	errorCount := 0

	for _, league := range leagues {
		if err := w.RefreshLeague(ctx, league.ID); err != nil {
			w.logger.Error("failed to refresh league standings",
				"league_id", league.ID,
				"error", err,
			)
			errorCount++
		} else {
			refreshedCount++
		}
	}

	duration := time.Since(startTime)
	w.logger.Info("standings refresh cycle completed",
		"duration", duration,
		"refreshed", refreshedCount,
		"errors", errorCount,
	)
}

// RefreshLeague refreshes one league's standings for the combined scope and
// each individual game kind
func (w *StandingsWorker) RefreshLeague(ctx context.Context, leagueID string) error {
	if err := w.service.RefreshStandings(ctx, leagueID, ""); err != nil {
		return err
	}

	for _, kind := range domain.AllGameKinds() {
		if err := w.service.RefreshStandings(ctx, leagueID, kind); err != nil {
			w.logger.Error("failed to refresh kind scope",
				"league_id", leagueID,
				"kind", kind,
				"error", err,
			)
			// Continue with other kinds
		}
	}

	return nil
}

// IsRunning returns whether the worker is currently running
func (w *StandingsWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single refresh cycle (useful for startup warm and manual
// triggers)
func (w *StandingsWorker) RunOnce(ctx context.Context) {
	w.refreshAll(ctx)
}
