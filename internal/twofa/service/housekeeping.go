package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/huddlehq/twofa/internal/twofa/store"
)

// pendingEnrollmentMaxAge is how long an unfinished enrollment's secret may
// sit in the database before it is swept.
const pendingEnrollmentMaxAge = time.Hour

// HousekeepingService periodically cleans up expired step-up sessions,
// abandoned pending enrollments, and resolved in-memory challenges.
type HousekeepingService struct {
	Store    store.Store
	Registry *ChallengeRegistry
	Logger   *slog.Logger
	Interval time.Duration

	// Internal channels for lifecycle management
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 10 minutes.
func NewHousekeepingService(st store.Store, reg *ChallengeRegistry, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	return &HousekeepingService{
		Store:    st,
		Registry: reg,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop() to shut it
// down.
func (s *HousekeepingService) Start() {
	s.started = true
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker. Blocks until any
// in-progress cleanup has finished. No-op if Start was never called.
func (s *HousekeepingService) Stop() {
	if !s.started {
		return
	}
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup performs the actual deletions. Each step is independent; a failure
// in one doesn't stop the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()

	if n, err := s.Store.StepUpSessions().DeleteExpired(ctx, time.Now()); err != nil {
		s.Logger.Error("failed to delete expired step-up sessions", "error", err)
	} else if n > 0 {
		s.Logger.Debug("deleted expired step-up sessions", "count", n)
	}

	cutoff := time.Now().Add(-pendingEnrollmentMaxAge)
	if n, err := s.Store.Credentials().DeletePendingOlderThan(ctx, cutoff); err != nil {
		s.Logger.Error("failed to delete stale pending enrollments", "error", err)
	} else if n > 0 {
		s.Logger.Debug("deleted stale pending enrollments", "count", n)
	}

	if s.Registry != nil {
		if n := s.Registry.SweepClosed(); n > 0 {
			s.Logger.Debug("swept resolved challenges", "count", n)
		}
	}
}
