package errors

import "errors"

var (
	ErrNotFound = errors.New("room instance not found")

	ErrRoomTypeNotFound = errors.New("room type not found")

	ErrInvalidID = errors.New("invalid inventory ID format")

	// ErrNoInstanceFree means every instance of the room type conflicts
	// with the requested dates. Expected under load, not a fault.
	ErrNoInstanceFree = errors.New("no instance free for the requested dates")

	// ErrInstanceOccupied blocks deleting an instance that still has
	// future reserved dates.
	ErrInstanceOccupied = errors.New("room instance has future reserved dates")
)
