package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	inverrors "innkeep/internal/inventory/errors"
	invrepo "innkeep/internal/inventory/repository"
	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"
)

type fakeRoomTypeRepo struct {
	mu     sync.Mutex
	types  map[string]*model.RoomType
	nextID int64
}

func newFakeRoomTypeRepo() *fakeRoomTypeRepo {
	return &fakeRoomTypeRepo{types: make(map[string]*model.RoomType)}
}

func (f *fakeRoomTypeRepo) Create(_ context.Context, roomType *model.RoomType) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	roomType.ID = fmt.Sprintf("%024x", f.nextID)
	stored := *roomType
	f.types[roomType.ID] = &stored
	return nil
}

func (f *fakeRoomTypeRepo) FindByID(_ context.Context, id string) (*model.RoomType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	roomType, ok := f.types[id]
	if !ok {
		return nil, inverrors.ErrRoomTypeNotFound
	}
	copied := *roomType
	return &copied, nil
}

func (f *fakeRoomTypeRepo) FindAll(_ context.Context, limit int, offset int64) ([]*model.RoomType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.RoomType
	for _, roomType := range f.types {
		copied := *roomType
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeRoomTypeRepo) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.types)), nil
}

func (f *fakeRoomTypeRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.types[id]; !ok {
		return inverrors.ErrRoomTypeNotFound
	}
	delete(f.types, id)
	return nil
}

type fixture struct {
	svc       CatalogService
	roomTypes *fakeRoomTypeRepo
	instances *invrepo.MemoryInstanceStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: "error", Service: "test"}),
	}
	roomTypes := newFakeRoomTypeRepo()
	instances := invrepo.NewMemoryInstanceStore()

	svc := NewCatalogService(roomTypes, instances, cfg)
	svc.(*catalogService).now = func() time.Time {
		return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	}

	return &fixture{svc: svc, roomTypes: roomTypes, instances: instances}
}

func (f *fixture) mustCreateRoomType(t *testing.T) *model.RoomType {
	t.Helper()
	created, err := f.svc.CreateRoomType(context.Background(), &model.RoomType{
		Name:         "Standard Double",
		Capacity:     2,
		NightlyPrice: 12000,
		Amenities:    []string{"wifi", "minibar"},
	})
	if err != nil {
		t.Fatalf("failed to create room type: %v", err)
	}
	return created
}

func (f *fixture) mustAddInstance(t *testing.T, roomTypeID, label string) *model.RoomInstance {
	t.Helper()
	instance, err := f.svc.AddInstance(context.Background(), &model.RoomInstance{
		RoomTypeID: roomTypeID,
		Label:      label,
	})
	if err != nil {
		t.Fatalf("failed to add instance: %v", err)
	}
	return instance
}

func TestCreateRoomTypeValidates(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateRoomType(context.Background(), &model.RoomType{
		Name:     "X",
		Capacity: 0,
	})
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestGetRoomTypeUnknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetRoomType(context.Background(), "64f0000000000000000000ff")
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestListRoomTypesReturnsCount(t *testing.T) {
	f := newFixture(t)
	f.mustCreateRoomType(t)
	f.mustCreateRoomType(t)

	roomTypes, count, err := f.svc.ListRoomTypes(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 || len(roomTypes) != 2 {
		t.Fatalf("expected 2 room types, got count=%d len=%d", count, len(roomTypes))
	}
}

func TestDeleteRoomTypeBlockedByInstances(t *testing.T) {
	f := newFixture(t)
	roomType := f.mustCreateRoomType(t)
	f.mustAddInstance(t, roomType.ID, "101")

	err := f.svc.DeleteRoomType(context.Background(), roomType.ID)
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestDeleteEmptyRoomType(t *testing.T) {
	f := newFixture(t)
	roomType := f.mustCreateRoomType(t)

	if err := f.svc.DeleteRoomType(context.Background(), roomType.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.svc.GetRoomType(context.Background(), roomType.ID)
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND after delete, got %v", err)
	}
}

func TestAddInstanceRequiresRoomType(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddInstance(context.Background(), &model.RoomInstance{
		RoomTypeID: "64f0000000000000000000ff",
		Label:      "101",
	})
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRemoveInstanceBlockedByUpcomingStay(t *testing.T) {
	f := newFixture(t)
	roomType := f.mustCreateRoomType(t)
	instance := f.mustAddInstance(t, roomType.ID, "101")

	stay := model.Interval{
		Start: time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC),
	}
	if _, err := f.instances.TryReserve(context.Background(), roomType.ID, stay); err != nil {
		t.Fatalf("failed to reserve: %v", err)
	}

	err := f.svc.RemoveInstance(context.Background(), instance.ID)
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestRemoveInstanceIgnoresPastStays(t *testing.T) {
	f := newFixture(t)
	roomType := f.mustCreateRoomType(t)
	instance := f.mustAddInstance(t, roomType.ID, "101")

	// departed long before the fixture's notion of now
	stay := model.Interval{
		Start: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
	}
	if _, err := f.instances.TryReserve(context.Background(), roomType.ID, stay); err != nil {
		t.Fatalf("failed to reserve: %v", err)
	}

	if err := f.svc.RemoveInstance(context.Background(), instance.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAvailabilityCountsFreeInstances(t *testing.T) {
	f := newFixture(t)
	roomType := f.mustCreateRoomType(t)
	f.mustAddInstance(t, roomType.ID, "101")
	f.mustAddInstance(t, roomType.ID, "102")

	checkIn := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)

	count, err := f.svc.Availability(context.Background(), roomType.ID, checkIn, checkOut)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 free, got %d", count)
	}

	if _, err := f.instances.TryReserve(context.Background(), roomType.ID, model.Interval{Start: checkIn, End: checkOut}); err != nil {
		t.Fatalf("failed to reserve: %v", err)
	}

	count, err = f.svc.Availability(context.Background(), roomType.ID, checkIn, checkOut)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 free, got %d", count)
	}

	// back-to-back stay does not reduce availability
	count, err = f.svc.Availability(context.Background(), roomType.ID, checkOut, checkOut.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 free for adjacent range, got %d", count)
	}
}

func TestAvailabilityRejectsInvertedRange(t *testing.T) {
	f := newFixture(t)
	roomType := f.mustCreateRoomType(t)

	checkIn := time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)
	_, err := f.svc.Availability(context.Background(), roomType.ID, checkIn, checkIn)
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}
