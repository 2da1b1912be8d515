package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/covergate/sessiond/internal/session/store"
	"github.com/covergate/sessiond/pkg/clockx"
)

// HousekeepingService periodically prunes the used-refresh-token ledger and
// expired one-time codes so neither table grows without bound.
//
// Ledger rows are only deletable once the token they record could no longer
// pass expiry validation anyway; PurgeGrace pads the cutoff against clock
// skew between issuer and store.
type HousekeepingService struct {
	Store      store.Store
	Logger     *slog.Logger
	Clock      clockx.Clock
	Interval   time.Duration
	RefreshTTL time.Duration
	PurgeGrace time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService wires a housekeeping worker. A non-positive
// interval defaults to 1 hour; a non-positive grace to 24 hours.
func NewHousekeepingService(
	st store.Store,
	logger *slog.Logger,
	clock clockx.Clock,
	interval, refreshTTL, purgeGrace time.Duration,
) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	if purgeGrace <= 0 {
		purgeGrace = 24 * time.Hour
	}
	if clock == nil {
		clock = clockx.System{}
	}

	return &HousekeepingService{
		Store:      st,
		Logger:     logger,
		Clock:      clock,
		Interval:   interval,
		RefreshTTL: refreshTTL,
		PurgeGrace: purgeGrace,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start launches the background worker. Non-blocking; pair with Stop.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop shuts the worker down, waiting out any in-progress sweep.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep runs one cleanup pass. Each deletion is independent; one failing
// does not stop the other.
func (s *HousekeepingService) Sweep(ctx context.Context) {
	now := s.Clock.Now()
	cutoff := now.Add(-s.RefreshTTL - s.PurgeGrace)

	if err := s.Store.UsedRefreshTokens().DeleteIssuedBefore(ctx, cutoff); err != nil {
		s.Logger.Error("failed to prune used-refresh-token ledger", "error", err)
	} else {
		s.Logger.Debug("pruned used-refresh-token ledger", "cutoff", cutoff)
	}

	if err := s.Store.OneTimeCodes().DeleteExpired(ctx, now); err != nil {
		s.Logger.Error("failed to prune expired one-time codes", "error", err)
	} else {
		s.Logger.Debug("pruned expired one-time codes")
	}
}
