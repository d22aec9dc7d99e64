package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	inverrors "innkeep/internal/inventory/errors"
	bookingerrors "innkeep/internal/reservations/errors"
	"innkeep/internal/reservations/repository"
	"innkeep/internal/reservations/validator"
	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/events"
	"innkeep/pkg/model"
	"innkeep/pkg/sanitizer"
)

// Allocator is the slice of the inventory allocator the lifecycle manager
// drives at its transition points.
type Allocator interface {
	Allocate(ctx context.Context, roomTypeID string, stay model.Interval) (string, error)
	Deallocate(ctx context.Context, instanceID string, stay model.Interval) error
}

// RoomTypeReader checks that a booking request names a real room type.
type RoomTypeReader interface {
	FindByID(ctx context.Context, id string) (*model.RoomType, error)
}

// BookingService owns the booking state machine:
//
//	pending -> confirmed -> completed
//	pending -> cancelled            (cancel or hold expiry)
//	confirmed -> cancelled          (cancel, releases the instance)
//
// Create enters at pending (pay-later) or directly at confirmed (pay-now).
// Every other move is rejected as an invalid transition.
type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error)
	ConfirmPayment(ctx context.Context, id string) (*model.Booking, error)
	Cancel(ctx context.Context, id string) (*model.Booking, error)
	Complete(ctx context.Context, id string) (*model.Booking, error)
	Expire(ctx context.Context, id string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	roomTypes RoomTypeReader
	allocator Allocator
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	roomTypes RoomTypeReader,
	alloc Allocator,
	bookingValidator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		roomTypes: roomTypes,
		allocator: alloc,
		validator: bookingValidator,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	now := s.now().UTC()

	s.applyDefaults(booking)
	s.sanitize(booking)
	if err := s.validate(booking, now); err != nil {
		return nil, err
	}

	if _, err := s.roomTypes.FindByID(ctx, booking.RoomTypeID); err != nil {
		if errors.Is(err, inverrors.ErrRoomTypeNotFound) || errors.Is(err, inverrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Room type", booking.RoomTypeID)
		}
		return nil, apperrors.StoreUnavailable("inventory store", err)
	}

	switch booking.PaymentMethod {
	case model.PayNow:
		return s.createPayNow(ctx, booking, now)
	case model.PayLater:
		return s.createPayLater(ctx, booking, now)
	default:
		return nil, apperrors.InvalidInput("unknown payment method")
	}
}

// createPayNow allocates synchronously; a sold-out outcome rejects the
// request outright and persists nothing.
func (s *bookingService) createPayNow(ctx context.Context, booking *model.Booking, now time.Time) (*model.Booking, error) {
	stay := booking.StayInterval()

	instanceID, err := s.allocator.Allocate(ctx, booking.RoomTypeID, stay)
	if err != nil {
		if errors.Is(err, inverrors.ErrNoInstanceFree) {
			return nil, apperrors.NoAvailability(booking.RoomTypeID)
		}
		return nil, apperrors.StoreUnavailable("inventory store", err)
	}

	booking.Status = model.StatusConfirmed
	booking.PaymentStatus = model.PaymentPaid
	booking.AssignedInstanceID = instanceID
	booking.ExpiresAt = nil

	if err := s.repo.Create(ctx, booking); err != nil {
		// roll the reservation back so a failed insert cannot strand the
		// instance; release is idempotent
		if releaseErr := s.allocator.Deallocate(ctx, instanceID, stay); releaseErr != nil {
			s.cfg.Log.Error("Failed to release instance after create failure",
				"instance_id", instanceID,
				"error", releaseErr,
			)
		}
		return nil, apperrors.StoreUnavailable("reservation store", err)
	}

	s.cfg.Log.Info("Booking created and confirmed",
		"id", booking.ID,
		"room_type_id", booking.RoomTypeID,
		"instance_id", instanceID,
	)
	s.publish(ctx, events.BookingCreated, booking)
	s.publish(ctx, events.BookingConfirmed, booking)
	return booking, nil
}

// createPayLater persists a hold without touching inventory; the instance is
// only bound once payment succeeds. The accepted tradeoff: the guest may
// find the room type sold out by the time they pay.
func (s *bookingService) createPayLater(ctx context.Context, booking *model.Booking, now time.Time) (*model.Booking, error) {
	expiresAt := now.Add(s.cfg.HoldTTL)

	booking.Status = model.StatusPending
	booking.PaymentStatus = model.PaymentUnpaid
	booking.AssignedInstanceID = ""
	booking.ExpiresAt = &expiresAt

	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, apperrors.StoreUnavailable("reservation store", err)
	}

	s.cfg.Log.Info("Booking hold created",
		"id", booking.ID,
		"room_type_id", booking.RoomTypeID,
		"expires_at", expiresAt,
	)
	s.publish(ctx, events.BookingCreated, booking)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.settleExpiry(ctx, booking), nil
}

func (s *bookingService) GetByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if userID == "" {
		return nil, 0, apperrors.InvalidInput("User ID cannot be empty")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByUser(ctx, userID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "user_id", userID, "error", errCount)
			errCount = apperrors.StoreUnavailable("reservation store", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByUser(ctx, userID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "user_id", userID, "error", errFind)
			errFind = apperrors.StoreUnavailable("reservation store", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	for i, booking := range bookings {
		bookings[i] = s.settleExpiry(ctx, booking)
	}

	return bookings, count, nil
}

// settleExpiry applies the derived status to a booking being read and, when
// the persisted record lags behind, drives the expire transition so the
// store catches up. The returned booking always reflects the effective
// state.
func (s *bookingService) settleExpiry(ctx context.Context, booking *model.Booking) *model.Booking {
	now := s.now().UTC()
	effective := model.EffectiveStatus(booking.Status, booking.ExpiresAt, now)
	if effective == booking.Status {
		return booking
	}

	if err := s.Expire(ctx, booking.ID); err != nil {
		s.cfg.Log.Warn("Failed to persist expiry on read", "id", booking.ID, "error", err)
	}

	settled := *booking
	settled.Status = model.StatusCancelled
	settled.ExpiresAt = nil
	return &settled
}

func (s *bookingService) ConfirmPayment(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	switch model.EffectiveStatus(booking.Status, booking.ExpiresAt, now) {
	case model.StatusPending:
	case model.StatusCancelled:
		if booking.Status == model.StatusPending {
			// persist the expiry we just observed
			if expireErr := s.Expire(ctx, id); expireErr != nil {
				s.cfg.Log.Warn("Failed to persist expiry", "id", id, "error", expireErr)
			}
			return nil, apperrors.InvalidTransition("booking hold has expired")
		}
		return nil, apperrors.InvalidTransition("booking is already cancelled")
	case model.StatusConfirmed:
		return nil, apperrors.InvalidTransition("booking is already confirmed")
	default:
		return nil, apperrors.InvalidTransition("booking is already completed")
	}

	stay := booking.StayInterval()
	instanceID, err := s.allocator.Allocate(ctx, booking.RoomTypeID, stay)
	if err != nil {
		if errors.Is(err, inverrors.ErrNoInstanceFree) {
			// the booking stays pending; the caller must trigger the
			// refund/compensation flow upstream
			return nil, apperrors.New(
				apperrors.CodeNoAvailability,
				"payment was accepted but no room is available for the requested dates; booking remains pending",
				http.StatusConflict,
			).WithDetails(map[string]any{"room_type_id": booking.RoomTypeID})
		}
		return nil, apperrors.StoreUnavailable("inventory store", err)
	}

	confirmed, err := s.repo.ConfirmPending(ctx, id, instanceID, now)
	if err != nil {
		// undo the reservation: the booking moved out from under us
		if releaseErr := s.allocator.Deallocate(ctx, instanceID, stay); releaseErr != nil {
			s.cfg.Log.Error("Failed to release instance after lost confirm race",
				"instance_id", instanceID,
				"error", releaseErr,
			)
		}
		if errors.Is(err, bookingerrors.ErrNoTransition) {
			return nil, s.explainRejectedTransition(ctx, id, "confirm")
		}
		return nil, apperrors.StoreUnavailable("reservation store", err)
	}

	s.cfg.Log.Info("Booking confirmed",
		"id", confirmed.ID,
		"instance_id", confirmed.AssignedInstanceID,
	)
	s.publish(ctx, events.BookingConfirmed, confirmed)
	return confirmed, nil
}

func (s *bookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	switch model.EffectiveStatus(booking.Status, booking.ExpiresAt, now) {
	case model.StatusPending:
		return s.cancelPending(ctx, id)
	case model.StatusConfirmed:
		return s.cancelConfirmed(ctx, booking)
	case model.StatusCancelled:
		if booking.Status == model.StatusPending {
			if expireErr := s.Expire(ctx, id); expireErr != nil {
				s.cfg.Log.Warn("Failed to persist expiry", "id", id, "error", expireErr)
			}
		}
		return nil, apperrors.InvalidTransition("booking is already cancelled")
	default:
		return nil, apperrors.InvalidTransition("completed booking cannot be cancelled")
	}
}

// cancelPending needs no inventory work: a pending booking never held an
// instance.
func (s *bookingService) cancelPending(ctx context.Context, id string) (*model.Booking, error) {
	cancelled, err := s.repo.CancelPending(ctx, id)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNoTransition) {
			return nil, s.explainRejectedTransition(ctx, id, "cancel")
		}
		return nil, apperrors.StoreUnavailable("reservation store", err)
	}

	s.cfg.Log.Info("Booking cancelled", "id", cancelled.ID)
	s.publish(ctx, events.BookingCancelled, cancelled)
	return cancelled, nil
}

// cancelConfirmed releases the instance and flips the status in one
// transaction, so a lost status race rolls the release back too.
func (s *bookingService) cancelConfirmed(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	stay := booking.StayInterval()
	instanceID := booking.AssignedInstanceID

	var cancelled *model.Booking
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.allocator.Deallocate(sessCtx, instanceID, stay); err != nil {
			return apperrors.StoreUnavailable("inventory store", err)
		}

		var txErr error
		cancelled, txErr = s.repo.CancelConfirmed(sessCtx, booking.ID)
		return txErr
	})
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNoTransition) {
			return nil, s.explainRejectedTransition(ctx, booking.ID, "cancel")
		}
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.StoreUnavailable("reservation store", err)
	}

	s.cfg.Log.Info("Confirmed booking cancelled",
		"id", cancelled.ID,
		"released_instance_id", instanceID,
	)
	s.publish(ctx, events.BookingCancelled, cancelled)
	return cancelled, nil
}

// Expire is the system-triggered flavor of Cancel for pending holds past
// their deadline. It is a no-op when the booking is already cancelled or
// was confirmed in the meantime, so sweeps can safely repeat.
func (s *bookingService) Expire(ctx context.Context, id string) error {
	expired, err := s.repo.ExpirePending(ctx, id, s.now().UTC())
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNoTransition) {
			return nil
		}
		if errors.Is(err, bookingerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid booking ID format")
		}
		return apperrors.StoreUnavailable("reservation store", err)
	}

	s.cfg.Log.Info("Booking hold expired", "id", expired.ID)
	s.publish(ctx, events.BookingExpired, expired)
	return nil
}

// Complete marks a confirmed booking whose stay has ended. Bookkeeping
// only: the instance keeps the occupied interval as history.
func (s *bookingService) Complete(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if booking.Status != model.StatusConfirmed {
		return nil, apperrors.InvalidTransition("only a confirmed booking can be completed")
	}
	if now.Before(booking.CheckOut) {
		return nil, apperrors.InvalidTransition("stay has not ended yet")
	}

	completed, err := s.repo.CompleteConfirmed(ctx, id, now)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNoTransition) {
			return nil, s.explainRejectedTransition(ctx, id, "complete")
		}
		return nil, apperrors.StoreUnavailable("reservation store", err)
	}

	s.cfg.Log.Info("Booking completed", "id", completed.ID)
	s.publish(ctx, events.BookingCompleted, completed)
	return completed, nil
}

// --- Helpers ---

func (s *bookingService) fetch(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.StoreUnavailable("reservation store", err)
	}
	return booking, nil
}

// explainRejectedTransition re-reads a booking after a conditional update
// matched nothing, to report whether it vanished or sits in a state the
// requested move is not allowed from.
func (s *bookingService) explainRejectedTransition(ctx context.Context, id, verb string) error {
	booking, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	return apperrors.InvalidTransition(
		"cannot " + verb + " a booking in status " + string(booking.Status),
	)
}

func (s *bookingService) applyDefaults(b *model.Booking) {
	b.ID = ""
	b.Status = model.StatusPending
	b.PaymentStatus = model.PaymentUnpaid
	b.AssignedInstanceID = ""
	b.ExpiresAt = nil
}

func (s *bookingService) sanitize(b *model.Booking) {
	sanitized := make(map[string]string, len(b.GuestDetails))
	for name, phone := range b.GuestDetails {
		cleanName := sanitizer.NormalizeGuestName(name)
		if cleanName == "" {
			continue
		}
		sanitized[cleanName] = sanitizer.NormalizePhone(phone)
	}
	b.GuestDetails = sanitized
}

func (s *bookingService) validate(booking *model.Booking, now time.Time) error {
	if err := s.validator.Validate(booking, now); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *bookingService) publish(ctx context.Context, eventType events.Type, b *model.Booking) {
	err := s.publisher.PublishBookingEvent(ctx, events.BookingEvent{
		Type:               eventType,
		BookingID:          b.ID,
		UserID:             b.UserID,
		RoomTypeID:         b.RoomTypeID,
		AssignedInstanceID: b.AssignedInstanceID,
		Status:             string(b.Status),
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"type", eventType,
			"booking_id", b.ID,
			"error", err,
		)
	}
}
