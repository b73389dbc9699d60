package service

import (
	"context"
	"time"

	"bookd/internal/billing/repository"
	"bookd/pkg/config"
)

// Sweeper periodically cancels subscriptions the billing processor will never
// tell us about: trials that ran out and paid subscriptions past their end
// date. It runs off the local clock only.
type Sweeper struct {
	repo repository.SubscriptionRepository
	cfg  *config.Config
	now  func() time.Time
}

func NewSweeper(repo repository.SubscriptionRepository, cfg *config.Config) *Sweeper {
	return &Sweeper{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

// Run blocks until ctx is cancelled, sweeping once immediately and then on
// every tick.
func (s *Sweeper) Run(ctx context.Context) {
	s.cfg.Log.Info("Subscription sweeper started", "interval", s.cfg.SweepInterval)

	s.Sweep(ctx)

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.cfg.Log.Info("Subscription sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.now().UTC()

	expiredTrials, err := s.repo.CancelTrialsEndedBefore(ctx, now)
	if err != nil {
		s.cfg.Log.Error("Failed to cancel expired trials", "error", err)
	}

	lapsed, err := s.repo.CancelLapsedBefore(ctx, now)
	if err != nil {
		s.cfg.Log.Error("Failed to cancel lapsed subscriptions", "error", err)
	}

	if expiredTrials > 0 || lapsed > 0 {
		s.cfg.Log.Info("Subscription sweep completed",
			"expired_trials", expiredTrials,
			"lapsed", lapsed,
		)
	}
}
