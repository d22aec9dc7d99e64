// Package events publishes booking lifecycle events to Kafka for downstream
// consumers (audit, notifications). Publishing is best-effort at the call
// sites: a broker outage never fails a booking transition.
package events

import (
	"context"
	"time"
)

type Type string

const (
	BookingCreated   Type = "booking.created"
	BookingConfirmed Type = "booking.confirmed"
	BookingCancelled Type = "booking.cancelled"
	BookingExpired   Type = "booking.expired"
	BookingCompleted Type = "booking.completed"
)

// BookingEvent is the wire payload keyed by booking id so all events of one
// booking land on the same partition, in order.
type BookingEvent struct {
	EventID            string    `json:"event_id"`
	Type               Type      `json:"type"`
	BookingID          string    `json:"booking_id"`
	UserID             string    `json:"user_id"`
	RoomTypeID         string    `json:"room_type_id"`
	AssignedInstanceID string    `json:"assigned_instance_id,omitempty"`
	Status             string    `json:"status"`
	OccurredAt         time.Time `json:"occurred_at"`
}

type Publisher interface {
	PublishBookingEvent(ctx context.Context, event BookingEvent) error
	Close() error
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishBookingEvent(context.Context, BookingEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
