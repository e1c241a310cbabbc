package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/scripthub/internal/admin/store"
)

// Sweeper purges expired in-memory state and reports how much it removed.
type Sweeper interface {
	Sweep() int
}

// HousekeepingService periodically purges expired refresh token records and
// sweeps in-memory state (rate-limit counters, CSRF nonces).
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Sweepers map[string]Sweeper

	now    func() time.Time
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to one minute.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration, sweepers map[string]Sweeper) *HousekeepingService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		Sweepers: sweepers,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one pass. Each task is independent; a failure in one does
// not stop the others.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	if s.Store != nil {
		n, err := s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, s.now())
		if err != nil {
			s.Logger.Error("failed to delete expired refresh tokens", "error", err)
		} else if n > 0 {
			s.Logger.Debug("deleted expired refresh tokens", "count", n)
		}
	}

	for name, sw := range s.Sweepers {
		if n := sw.Sweep(); n > 0 {
			s.Logger.Debug("swept expired entries", "task", name, "count", n)
		}
	}
}
