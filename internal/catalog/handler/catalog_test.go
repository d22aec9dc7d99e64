package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"
)

type mockCatalogService struct {
	createRoomTypeFn func(ctx context.Context, roomType *model.RoomType) (*model.RoomType, error)
	availabilityFn   func(ctx context.Context, roomTypeID string, checkIn, checkOut time.Time) (int64, error)
	removeInstanceFn func(ctx context.Context, id string) error
}

func (m *mockCatalogService) CreateRoomType(ctx context.Context, roomType *model.RoomType) (*model.RoomType, error) {
	return m.createRoomTypeFn(ctx, roomType)
}

func (m *mockCatalogService) GetRoomType(context.Context, string) (*model.RoomType, error) {
	return nil, apperrors.NotFound("Room type")
}

func (m *mockCatalogService) ListRoomTypes(context.Context, int, int64) ([]*model.RoomType, int64, error) {
	return nil, 0, nil
}

func (m *mockCatalogService) DeleteRoomType(context.Context, string) error { return nil }

func (m *mockCatalogService) AddInstance(context.Context, *model.RoomInstance) (*model.RoomInstance, error) {
	return nil, nil
}

func (m *mockCatalogService) ListInstances(context.Context, string) ([]*model.RoomInstance, error) {
	return nil, nil
}

func (m *mockCatalogService) RemoveInstance(ctx context.Context, id string) error {
	return m.removeInstanceFn(ctx, id)
}

func (m *mockCatalogService) Availability(ctx context.Context, roomTypeID string, checkIn, checkOut time.Time) (int64, error) {
	return m.availabilityFn(ctx, roomTypeID, checkIn, checkOut)
}

func newRouter(svc *mockCatalogService) *httprouter.Router {
	router := httprouter.New()
	log := logger.New(logger.Config{Level: "error", Service: "test"})
	NewCatalogHandler(svc, log).RegisterRoutes(router)
	return router
}

func TestCreateRoomTypeReturnsCreated(t *testing.T) {
	svc := &mockCatalogService{
		createRoomTypeFn: func(_ context.Context, roomType *model.RoomType) (*model.RoomType, error) {
			roomType.ID = "64f000000000000000000001"
			return roomType, nil
		},
	}

	body, _ := json.Marshal(model.RoomType{Name: "Standard Double", Capacity: 2, NightlyPrice: 12000})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/room-types", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAvailabilityParsesDates(t *testing.T) {
	var gotIn, gotOut time.Time
	svc := &mockCatalogService{
		availabilityFn: func(_ context.Context, _ string, checkIn, checkOut time.Time) (int64, error) {
			gotIn, gotOut = checkIn, checkOut
			return 3, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/room-types/id/64f000000000000000000001/availability?check_in=2026-05-10&check_out=2026-05-12", nil)
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotIn != time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC) {
		t.Errorf("unexpected check_in: %v", gotIn)
	}
	if gotOut != time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC) {
		t.Errorf("unexpected check_out: %v", gotOut)
	}

	var resp struct {
		Data struct {
			Available int64 `json:"available"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.Available != 3 {
		t.Errorf("expected available 3, got %d", resp.Data.Available)
	}
}

func TestAvailabilityRejectsBadDates(t *testing.T) {
	svc := &mockCatalogService{}

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/room-types/id/64f000000000000000000001/availability?check_in=tomorrow&check_out=2026-05-12", nil)
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRemoveInstanceMapsConflict(t *testing.T) {
	svc := &mockCatalogService{
		removeInstanceFn: func(context.Context, string) error {
			return apperrors.Conflict("room instance has current or upcoming reservations")
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/room-instances/id/64f0000000000000000000aa", nil)
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
