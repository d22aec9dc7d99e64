package sweeper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"innkeep/pkg/config"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"
)

type fakeStore struct {
	expired  []*model.Booking
	departed []*model.Booking
	scanErr  error
}

func (f *fakeStore) FindExpired(context.Context, time.Time, int) ([]*model.Booking, error) {
	return f.expired, f.scanErr
}

func (f *fakeStore) FindDeparted(context.Context, time.Time, int) ([]*model.Booking, error) {
	return f.departed, f.scanErr
}

type fakeLifecycle struct {
	expiredIDs   []string
	completedIDs []string
	expireErrFor string
}

func (f *fakeLifecycle) Expire(_ context.Context, id string) error {
	if id == f.expireErrFor {
		return fmt.Errorf("store unavailable")
	}
	f.expiredIDs = append(f.expiredIDs, id)
	return nil
}

func (f *fakeLifecycle) Complete(_ context.Context, id string) (*model.Booking, error) {
	f.completedIDs = append(f.completedIDs, id)
	return &model.Booking{ID: id, Status: model.StatusCompleted}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		SweepInterval:  time.Minute,
		SweepBatchSize: 100,
		Log:            logger.New(logger.Config{Level: "error", Service: "test"}),
	}
}

func booking(id string) *model.Booking {
	return &model.Booking{ID: id}
}

func TestRunOnceTransitionsBothPasses(t *testing.T) {
	store := &fakeStore{
		expired:  []*model.Booking{booking("a"), booking("b")},
		departed: []*model.Booking{booking("c")},
	}
	lifecycle := &fakeLifecycle{}

	expired, completed := New(store, lifecycle, testConfig()).RunOnce(context.Background())

	if expired != 2 || completed != 1 {
		t.Fatalf("expected (2, 1), got (%d, %d)", expired, completed)
	}
	if len(lifecycle.expiredIDs) != 2 || len(lifecycle.completedIDs) != 1 {
		t.Fatalf("unexpected transitions: %v %v", lifecycle.expiredIDs, lifecycle.completedIDs)
	}
}

func TestRunOnceContinuesPastFailures(t *testing.T) {
	store := &fakeStore{
		expired: []*model.Booking{booking("a"), booking("bad"), booking("c")},
	}
	lifecycle := &fakeLifecycle{expireErrFor: "bad"}

	expired, _ := New(store, lifecycle, testConfig()).RunOnce(context.Background())

	if expired != 2 {
		t.Fatalf("expected 2 expired, got %d", expired)
	}
}

func TestRunOnceEmptyScansAreQuiet(t *testing.T) {
	lifecycle := &fakeLifecycle{}

	expired, completed := New(&fakeStore{}, lifecycle, testConfig()).RunOnce(context.Background())

	if expired != 0 || completed != 0 {
		t.Fatalf("expected (0, 0), got (%d, %d)", expired, completed)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg := testConfig()
	cfg.SweepInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(&fakeStore{}, &fakeLifecycle{}, cfg).Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancellation")
	}
}
