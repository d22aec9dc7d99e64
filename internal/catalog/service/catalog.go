// Package service implements the catalog operations: room type CRUD, the
// physical instances behind each type, and date-range availability counts.
package service

import (
	"context"
	"errors"
	"time"

	playgroundvalidator "github.com/go-playground/validator/v10"

	inverrors "innkeep/internal/inventory/errors"
	"innkeep/internal/inventory/repository"
	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/model"
	"innkeep/pkg/sanitizer"
)

type CatalogService interface {
	CreateRoomType(ctx context.Context, roomType *model.RoomType) (*model.RoomType, error)
	GetRoomType(ctx context.Context, id string) (*model.RoomType, error)
	ListRoomTypes(ctx context.Context, limit int, offset int64) ([]*model.RoomType, int64, error)
	DeleteRoomType(ctx context.Context, id string) error

	AddInstance(ctx context.Context, instance *model.RoomInstance) (*model.RoomInstance, error)
	ListInstances(ctx context.Context, roomTypeID string) ([]*model.RoomInstance, error)
	RemoveInstance(ctx context.Context, id string) error

	Availability(ctx context.Context, roomTypeID string, checkIn, checkOut time.Time) (int64, error)
}

type catalogService struct {
	roomTypes repository.RoomTypeRepository
	instances repository.InstanceRepository
	validate  *playgroundvalidator.Validate
	cfg       *config.Config
	now       func() time.Time
}

func NewCatalogService(
	roomTypes repository.RoomTypeRepository,
	instances repository.InstanceRepository,
	cfg *config.Config,
) CatalogService {
	return &catalogService{
		roomTypes: roomTypes,
		instances: instances,
		validate:  playgroundvalidator.New(),
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *catalogService) CreateRoomType(ctx context.Context, roomType *model.RoomType) (*model.RoomType, error) {
	roomType.ID = ""
	roomType.Name = sanitizer.TrimAndNormalize(roomType.Name)

	if err := s.validate.Struct(roomType); err != nil {
		return nil, apperrors.Validation("Room type validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.roomTypes.Create(ctx, roomType); err != nil {
		return nil, apperrors.StoreUnavailable("inventory store", err)
	}

	s.cfg.Log.Info("Room type created", "id", roomType.ID, "name", roomType.Name)
	return roomType, nil
}

func (s *catalogService) GetRoomType(ctx context.Context, id string) (*model.RoomType, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room type ID cannot be empty")
	}

	roomType, err := s.roomTypes.FindByID(ctx, id)
	if err != nil {
		return nil, mapRoomTypeErr(err, id)
	}
	return roomType, nil
}

func (s *catalogService) ListRoomTypes(ctx context.Context, limit int, offset int64) ([]*model.RoomType, int64, error) {
	roomTypes, err := s.roomTypes.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.StoreUnavailable("inventory store", err)
	}

	count, err := s.roomTypes.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.StoreUnavailable("inventory store", err)
	}

	return roomTypes, count, nil
}

// DeleteRoomType refuses while instances of the type still exist; they carry
// occupancy history and must be removed individually first.
func (s *catalogService) DeleteRoomType(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Room type ID cannot be empty")
	}

	instances, err := s.instances.FindByRoomType(ctx, id)
	if err != nil {
		return apperrors.StoreUnavailable("inventory store", err)
	}
	if len(instances) > 0 {
		return apperrors.Conflict("room type still has instances").WithDetails(map[string]any{
			"room_type_id":   id,
			"instance_count": len(instances),
		})
	}

	if err := s.roomTypes.Delete(ctx, id); err != nil {
		return mapRoomTypeErr(err, id)
	}

	s.cfg.Log.Info("Room type deleted", "id", id)
	return nil
}

func (s *catalogService) AddInstance(ctx context.Context, instance *model.RoomInstance) (*model.RoomInstance, error) {
	instance.ID = ""
	instance.Occupied = nil
	instance.Label = sanitizer.TrimAndNormalize(instance.Label)

	if err := s.validate.Struct(instance); err != nil {
		return nil, apperrors.Validation("Room instance validation failed", map[string]any{"error": err.Error()})
	}

	if _, err := s.roomTypes.FindByID(ctx, instance.RoomTypeID); err != nil {
		return nil, mapRoomTypeErr(err, instance.RoomTypeID)
	}

	if err := s.instances.Create(ctx, instance); err != nil {
		return nil, apperrors.StoreUnavailable("inventory store", err)
	}

	s.cfg.Log.Info("Room instance added",
		"id", instance.ID,
		"room_type_id", instance.RoomTypeID,
		"label", instance.Label,
	)
	return instance, nil
}

func (s *catalogService) ListInstances(ctx context.Context, roomTypeID string) ([]*model.RoomInstance, error) {
	if roomTypeID == "" {
		return nil, apperrors.InvalidInput("Room type ID cannot be empty")
	}

	if _, err := s.roomTypes.FindByID(ctx, roomTypeID); err != nil {
		return nil, mapRoomTypeErr(err, roomTypeID)
	}

	instances, err := s.instances.FindByRoomType(ctx, roomTypeID)
	if err != nil {
		return nil, apperrors.StoreUnavailable("inventory store", err)
	}
	return instances, nil
}

// RemoveInstance deletes an instance unless it still has current or future
// reserved dates. Past stays are history and do not block removal.
func (s *catalogService) RemoveInstance(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Room instance ID cannot be empty")
	}

	err := s.instances.Delete(ctx, id, s.now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, inverrors.ErrNotFound):
			return apperrors.NotFoundWithID("Room instance", id)
		case errors.Is(err, inverrors.ErrInvalidID):
			return apperrors.InvalidInput("Invalid room instance ID format")
		case errors.Is(err, inverrors.ErrInstanceOccupied):
			return apperrors.Conflict("room instance has current or upcoming reservations").
				WithDetails(map[string]any{"instance_id": id})
		default:
			return apperrors.StoreUnavailable("inventory store", err)
		}
	}

	s.cfg.Log.Info("Room instance removed", "id", id)
	return nil
}

// Availability counts instances of the room type free for the whole
// half-open [checkIn, checkOut) range.
func (s *catalogService) Availability(ctx context.Context, roomTypeID string, checkIn, checkOut time.Time) (int64, error) {
	if roomTypeID == "" {
		return 0, apperrors.InvalidInput("Room type ID cannot be empty")
	}
	if !checkOut.After(checkIn) {
		return 0, apperrors.InvalidInput("check_out must be after check_in")
	}

	if _, err := s.roomTypes.FindByID(ctx, roomTypeID); err != nil {
		return 0, mapRoomTypeErr(err, roomTypeID)
	}

	count, err := s.instances.CountFree(ctx, roomTypeID, model.Interval{Start: checkIn, End: checkOut})
	if err != nil {
		return 0, apperrors.StoreUnavailable("inventory store", err)
	}
	return count, nil
}

func mapRoomTypeErr(err error, id string) error {
	switch {
	case errors.Is(err, inverrors.ErrRoomTypeNotFound):
		return apperrors.NotFoundWithID("Room type", id)
	case errors.Is(err, inverrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid room type ID format")
	default:
		return apperrors.StoreUnavailable("inventory store", err)
	}
}
