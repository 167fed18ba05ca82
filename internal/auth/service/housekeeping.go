package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/openfab/gatekeeper/internal/auth/store"
)

// HousekeepingService periodically removes expired sessions and deactivates
// expired invite codes so the tables do not grow without bound. The sweep
// races harmlessly with live lookups: expired rows are already excluded from
// every validity check, so deleting them changes no observable behaviour.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService builds the sweeper. A non-positive interval defaults
// to one hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background sweep loop. Non-blocking; pair with Stop.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop shuts the loop down, blocking until any in-progress sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// First sweep at startup so a long interval does not delay cleanup of a
	// backlog accumulated while the process was down.
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

// Sweep runs one cleanup pass. Each step is independent; a failure in one
// does not stop the others.
func (s *HousekeepingService) Sweep(ctx context.Context) {
	now := time.Now()

	if err := s.Store.Sessions().DeleteExpiredSessions(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
	} else {
		s.Logger.Debug("deleted expired sessions")
	}

	if err := s.Store.InviteCodes().DeactivateExpiredInviteCodes(ctx, now); err != nil {
		s.Logger.Error("failed to deactivate expired invite codes", "error", err)
	} else {
		s.Logger.Debug("deactivated expired invite codes")
	}
}
