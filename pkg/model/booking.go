package model

import (
	"time"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// IsTerminal reports whether no further lifecycle transition is allowed.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

type PaymentMethod string

const (
	PayNow   PaymentMethod = "pay_now"
	PayLater PaymentMethod = "pay_later"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Booking is the lifecycle entity binding a guest request to (eventually) a
// physical room instance.
//
// AssignedInstanceID is set iff the booking is confirmed or completed.
// ExpiresAt is set iff the booking is a pending pay-later hold; a hold past
// its ExpiresAt is cancelled on the next read or sweep.
type Booking struct {
	ID                 string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID             string            `json:"user_id" bson:"user_id" validate:"required,min=1,max=100"`
	RoomTypeID         string            `json:"room_type_id" bson:"room_type_id" validate:"required,mongodb"`
	AssignedInstanceID string            `json:"assigned_instance_id,omitempty" bson:"assigned_instance_id,omitempty" validate:"omitempty,mongodb"`
	CheckIn            time.Time         `json:"check_in" bson:"check_in" validate:"required"`
	CheckOut           time.Time         `json:"check_out" bson:"check_out" validate:"required,gtfield=CheckIn"`
	GuestDetails       map[string]string `json:"guest_details" bson:"guest_details" validate:"required,guest_details"`
	TotalAmount        int64             `json:"total_amount" bson:"total_amount" validate:"min=0"`
	PaymentMethod      PaymentMethod     `json:"payment_method" bson:"payment_method" validate:"required,oneof=pay_now pay_later"`
	PaymentStatus      PaymentStatus     `json:"payment_status" bson:"payment_status" validate:"omitempty,oneof=unpaid paid"`
	Status             BookingStatus     `json:"status" bson:"status" validate:"omitempty,oneof=pending confirmed cancelled completed"`
	CreatedAt          time.Time         `json:"created_at" bson:"created_at" validate:"omitempty"`
	ExpiresAt          *time.Time        `json:"expires_at,omitempty" bson:"expires_at,omitempty" validate:"omitempty"`
}

// StayInterval returns the booking's half-open occupancy range.
func (b *Booking) StayInterval() Interval {
	return Interval{Start: b.CheckIn, End: b.CheckOut}
}

// EffectiveStatus derives the status a reader must act on: a pending hold
// past its expiry is cancelled regardless of what is persisted. Every read
// path applies this, and the sweeper makes the persisted state catch up.
func EffectiveStatus(status BookingStatus, expiresAt *time.Time, now time.Time) BookingStatus {
	if status == StatusPending && expiresAt != nil && now.After(*expiresAt) {
		return StatusCancelled
	}
	return status
}
