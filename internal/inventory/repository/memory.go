package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	inverrors "innkeep/internal/inventory/errors"
	"innkeep/pkg/model"
)

// MemoryInstanceStore is an in-memory InstanceRepository. The mutex held
// across the scan-and-insert gives it the same check-and-reserve atomicity
// the Mongo implementation gets from conditional updates, which makes it a
// faithful stand-in for concurrency tests and local development.
type MemoryInstanceStore struct {
	mu        sync.Mutex
	instances map[string]*model.RoomInstance
	nextID    int64
}

func NewMemoryInstanceStore() *MemoryInstanceStore {
	return &MemoryInstanceStore{
		instances: make(map[string]*model.RoomInstance),
	}
}

func (s *MemoryInstanceStore) Create(_ context.Context, instance *model.RoomInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	instance.ID = fmt.Sprintf("%024x", s.nextID)
	instance.CreatedAt = time.Now().UTC()
	if instance.Occupied == nil {
		instance.Occupied = []model.Interval{}
	}

	stored := *instance
	s.instances[instance.ID] = &stored
	return nil
}

func (s *MemoryInstanceStore) FindByID(_ context.Context, id string) (*model.RoomInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	instance, ok := s.instances[id]
	if !ok {
		return nil, inverrors.ErrNotFound
	}

	copied := *instance
	copied.Occupied = append([]model.Interval(nil), instance.Occupied...)
	return &copied, nil
}

func (s *MemoryInstanceStore) FindByRoomType(_ context.Context, roomTypeID string) ([]*model.RoomInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.RoomInstance
	for _, id := range s.sortedIDs(roomTypeID) {
		instance := s.instances[id]
		copied := *instance
		copied.Occupied = append([]model.Interval(nil), instance.Occupied...)
		out = append(out, &copied)
	}
	return out, nil
}

func (s *MemoryInstanceStore) Delete(_ context.Context, id string, notBefore time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	instance, ok := s.instances[id]
	if !ok {
		return inverrors.ErrNotFound
	}

	for _, occ := range instance.Occupied {
		if occ.End.After(notBefore) {
			return inverrors.ErrInstanceOccupied
		}
	}

	delete(s.instances, id)
	return nil
}

func (s *MemoryInstanceStore) TryReserve(_ context.Context, roomTypeID string, stay model.Interval) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.sortedIDs(roomTypeID) {
		instance := s.instances[id]
		if instance.HasConflict(stay) {
			continue
		}

		instance.Occupied = append(instance.Occupied, stay)
		sort.Slice(instance.Occupied, func(i, j int) bool {
			return instance.Occupied[i].Start.Before(instance.Occupied[j].Start)
		})
		return id, nil
	}

	return "", inverrors.ErrNoInstanceFree
}

func (s *MemoryInstanceStore) Release(_ context.Context, instanceID string, stay model.Interval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	instance, ok := s.instances[instanceID]
	if !ok {
		return inverrors.ErrNotFound
	}

	kept := instance.Occupied[:0]
	for _, occ := range instance.Occupied {
		if !occ.Matches(stay) {
			kept = append(kept, occ)
		}
	}
	instance.Occupied = kept
	return nil
}

func (s *MemoryInstanceStore) CountFree(_ context.Context, roomTypeID string, stay model.Interval) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, id := range s.sortedIDs(roomTypeID) {
		if !s.instances[id].HasConflict(stay) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryInstanceStore) sortedIDs(roomTypeID string) []string {
	var ids []string
	for id, instance := range s.instances {
		if instance.RoomTypeID == roomTypeID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
