// Package allocator binds a booking intent to one physical room instance.
// It owns no state of its own: the inventory repository's conditional
// updates carry all the atomicity, the allocator interprets the result as a
// domain outcome.
package allocator

import (
	"context"
	"errors"

	inverrors "innkeep/internal/inventory/errors"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"
)

// Store is the slice of the inventory repository the allocator needs.
type Store interface {
	TryReserve(ctx context.Context, roomTypeID string, stay model.Interval) (string, error)
	Release(ctx context.Context, instanceID string, stay model.Interval) error
}

type Allocator struct {
	store   Store
	retries int
	log     *logger.Logger
}

func New(store Store, retries int, log *logger.Logger) *Allocator {
	if retries < 0 {
		retries = 0
	}
	return &Allocator{
		store:   store,
		retries: retries,
		log:     log,
	}
}

// Allocate reserves one free instance of the room type for the stay range.
// A scan that finds nothing is retried a bounded number of times: the scan
// may have lost a conditional-update race on an instance that a concurrent
// cancellation has since freed. After the retries, exhaustion is surfaced as
// ErrNoInstanceFree, a normal business outcome that is terminal for this
// request.
func (a *Allocator) Allocate(ctx context.Context, roomTypeID string, stay model.Interval) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= a.retries; attempt++ {
		instanceID, err := a.store.TryReserve(ctx, roomTypeID, stay)
		if err == nil {
			a.log.Debug("Instance allocated",
				"room_type_id", roomTypeID,
				"instance_id", instanceID,
				"attempt", attempt+1,
			)
			return instanceID, nil
		}

		lastErr = err
		if !errors.Is(err, inverrors.ErrNoInstanceFree) {
			return "", err
		}
	}

	return "", lastErr
}

// Deallocate frees a previously reserved range, e.g. on cancellation of a
// confirmed booking. Safe to call more than once with the same arguments.
func (a *Allocator) Deallocate(ctx context.Context, instanceID string, stay model.Interval) error {
	return a.store.Release(ctx, instanceID, stay)
}
