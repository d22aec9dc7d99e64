package model

import (
	"time"
)

// Interval is a half-open [Start, End) occupancy range on a room instance.
// A stay that checks out on the day another checks in does not conflict.
type Interval struct {
	Start time.Time `json:"start" bson:"start"`
	End   time.Time `json:"end" bson:"end"`
}

// Overlaps reports whether two half-open intervals share at least one night.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Matches reports whether both endpoints are equal. Used when releasing an
// interval so only the exact reserved range is removed.
func (iv Interval) Matches(other Interval) bool {
	return iv.Start.Equal(other.Start) && iv.End.Equal(other.End)
}

type RoomType struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name         string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Capacity     int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=20"`
	NightlyPrice int64     `json:"nightly_price" bson:"nightly_price" validate:"min=0"`
	Amenities    []string  `json:"amenities,omitempty" bson:"amenities" validate:"omitempty,max=50,dive,min=1,max=50"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// RoomInstance is one physical, individually assignable unit of a RoomType.
// Occupied holds the reserved date ranges and never contains two overlapping
// intervals; it is mutated only through the conditional reserve/release
// updates in the inventory repository.
type RoomInstance struct {
	ID         string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	RoomTypeID string     `json:"room_type_id" bson:"room_type_id" validate:"required,mongodb"`
	Label      string     `json:"label,omitempty" bson:"label" validate:"omitempty,min=1,max=50"`
	Occupied   []Interval `json:"occupied" bson:"occupied"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// HasConflict reports whether any occupied interval overlaps the given range.
func (ri *RoomInstance) HasConflict(iv Interval) bool {
	for _, occ := range ri.Occupied {
		if occ.Overlaps(iv) {
			return true
		}
	}
	return false
}
