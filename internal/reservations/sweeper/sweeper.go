// Package sweeper drives the time-based booking transitions in the
// background: lapsed pay-later holds get cancelled and confirmed stays past
// check-out get completed. Reads already apply both rules lazily, so the
// sweeper only makes the persisted state catch up; every pass is idempotent
// and safe to run on more than one node.
package sweeper

import (
	"context"
	"time"

	"innkeep/pkg/config"
	"innkeep/pkg/model"
)

// Store is the slice of the booking repository the sweeper scans.
type Store interface {
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error)
	FindDeparted(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error)
}

// Lifecycle is the slice of the booking service the sweeper drives.
type Lifecycle interface {
	Expire(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) (*model.Booking, error)
}

type Sweeper struct {
	store     Store
	lifecycle Lifecycle
	cfg       *config.Config
	now       func() time.Time
}

func New(store Store, lifecycle Lifecycle, cfg *config.Config) *Sweeper {
	return &Sweeper{
		store:     store,
		lifecycle: lifecycle,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.cfg.Log.Info("Sweeper started",
		"interval", s.cfg.SweepInterval,
		"batch_size", s.cfg.SweepBatchSize,
	)

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.cfg.Log.Info("Sweeper stopped")
			return
		case <-ticker.C:
			expired, completed := s.RunOnce(ctx)
			if expired > 0 || completed > 0 {
				s.cfg.Log.Info("Sweep pass finished",
					"expired", expired,
					"completed", completed,
				)
			}
		}
	}
}

// RunOnce performs one expiry pass and one completion pass, returning how
// many bookings each pass transitioned. A failure on one booking is logged
// and does not stop the pass.
func (s *Sweeper) RunOnce(ctx context.Context) (expired, completed int) {
	now := s.now().UTC()

	lapsed, err := s.store.FindExpired(ctx, now, s.cfg.SweepBatchSize)
	if err != nil {
		s.cfg.Log.Error("Failed to scan for expired holds", "error", err)
	} else {
		for _, booking := range lapsed {
			if err := s.lifecycle.Expire(ctx, booking.ID); err != nil {
				s.cfg.Log.Error("Failed to expire hold", "id", booking.ID, "error", err)
				continue
			}
			expired++
		}
	}

	departed, err := s.store.FindDeparted(ctx, now, s.cfg.SweepBatchSize)
	if err != nil {
		s.cfg.Log.Error("Failed to scan for departed stays", "error", err)
		return expired, completed
	}
	for _, booking := range departed {
		if _, err := s.lifecycle.Complete(ctx, booking.ID); err != nil {
			s.cfg.Log.Error("Failed to complete stay", "id", booking.ID, "error", err)
			continue
		}
		completed++
	}

	return expired, completed
}
