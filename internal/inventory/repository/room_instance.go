package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	inverrors "innkeep/internal/inventory/errors"
	"innkeep/pkg/config"
	"innkeep/pkg/model"
)

const (
	InstanceCollection = "Room_instances"
)

// InstanceRepository owns RoomInstance documents and is the only writer of
// their occupied ranges. TryReserve and Release are the atomicity boundary
// of the whole system: each is a single conditional document update, so two
// racing requests can never both insert overlapping intervals.
type InstanceRepository interface {
	Create(ctx context.Context, instance *model.RoomInstance) error
	FindByID(ctx context.Context, id string) (*model.RoomInstance, error)
	FindByRoomType(ctx context.Context, roomTypeID string) ([]*model.RoomInstance, error)
	Delete(ctx context.Context, id string, notBefore time.Time) error

	TryReserve(ctx context.Context, roomTypeID string, stay model.Interval) (string, error)
	Release(ctx context.Context, instanceID string, stay model.Interval) error
	CountFree(ctx context.Context, roomTypeID string, stay model.Interval) (int64, error)
}

type mongoInstanceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoInstanceRepository(cfg *config.Config) InstanceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoInstanceRepository{
		cfg:        cfg,
		collection: db.Collection(InstanceCollection),
	}
}

// withTimeout bounds a store call unless we are already inside a
// transaction; a SessionContext cannot be wrapped without breaking
// transaction semantics.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline {
		if remaining := time.Until(deadline); remaining < timeout {
			return context.WithTimeout(ctx, remaining)
		}
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoInstanceRepository) Create(ctx context.Context, instance *model.RoomInstance) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	instance.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if instance.Occupied == nil {
		instance.Occupied = []model.Interval{}
	}

	result, err := r.collection.InsertOne(ctx, instance)
	if err != nil {
		return fmt.Errorf("failed to create room instance: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		instance.ID = oid.Hex()
	}
	return nil
}

func (r *mongoInstanceRepository) FindByID(ctx context.Context, id string) (*model.RoomInstance, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", inverrors.ErrInvalidID, id)
	}

	var instance model.RoomInstance
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&instance)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, inverrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find room instance: %w", err)
	}

	return &instance, nil
}

func (r *mongoInstanceRepository) FindByRoomType(ctx context.Context, roomTypeID string) ([]*model.RoomInstance, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"room_type_id": roomTypeID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find room instances: %w", err)
	}
	defer cursor.Close(ctx)

	var instances []*model.RoomInstance
	if err = cursor.All(ctx, &instances); err != nil {
		return nil, fmt.Errorf("failed to decode room instances: %w", err)
	}

	return instances, nil
}

// Delete removes an instance only when it holds no reserved dates ending
// after notBefore. Historical (already departed) stays do not block removal.
func (r *mongoInstanceRepository) Delete(ctx context.Context, id string, notBefore time.Time) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", inverrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id": objectID,
		"occupied": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"end": bson.M{"$gt": notBefore},
		}}},
	}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete room instance: %w", err)
	}

	if result.DeletedCount == 0 {
		// distinguish "gone" from "still occupied"
		var instance model.RoomInstance
		err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&instance)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return inverrors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check room instance: %w", err)
		}
		return inverrors.ErrInstanceOccupied
	}

	return nil
}

// noOverlapFilter matches an instance document whose occupied list has no
// interval intersecting the half-open stay range.
func noOverlapFilter(stay model.Interval) bson.M {
	return bson.M{"$not": bson.M{"$elemMatch": bson.M{
		"start": bson.M{"$lt": stay.End},
		"end":   bson.M{"$gt": stay.Start},
	}}}
}

// TryReserve scans the room type's instances in ascending _id order and, for
// each candidate, issues one conditional update that inserts the interval
// only if the document still has no overlap. The filter and the push are a
// single atomic operation on the server, so a concurrent reservation of the
// same instance simply makes the update match nothing and the scan moves on.
// Returns ErrNoInstanceFree when every instance conflicts.
func (r *mongoInstanceRepository) TryReserve(ctx context.Context, roomTypeID string, stay model.Interval) (string, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	ids, err := r.instanceIDs(ctx, roomTypeID)
	if err != nil {
		return "", err
	}

	update := bson.M{"$push": bson.M{"occupied": bson.M{
		"$each": []model.Interval{stay},
		"$sort": bson.M{"start": 1},
	}}}

	for _, oid := range ids {
		filter := bson.M{
			"_id":      oid,
			"occupied": noOverlapFilter(stay),
		}

		result, err := r.collection.UpdateOne(ctx, filter, update)
		if err != nil {
			return "", fmt.Errorf("failed to reserve room instance: %w", err)
		}
		if result.ModifiedCount == 1 {
			return oid.Hex(), nil
		}
	}

	return "", inverrors.ErrNoInstanceFree
}

func (r *mongoInstanceRepository) instanceIDs(ctx context.Context, roomTypeID string) ([]primitive.ObjectID, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"_id": 1})

	cursor, err := r.collection.Find(ctx, bson.M{"room_type_id": roomTypeID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list room instances: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode room instance ids: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

// Release pulls the exact interval from the instance's occupied list. A
// missing interval is a no-op so cancellation retries stay idempotent.
func (r *mongoInstanceRepository) Release(ctx context.Context, instanceID string, stay model.Interval) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(instanceID)
	if err != nil {
		return fmt.Errorf("%w: %s", inverrors.ErrInvalidID, instanceID)
	}

	update := bson.M{"$pull": bson.M{"occupied": bson.M{
		"start": stay.Start,
		"end":   stay.End,
	}}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to release room instance: %w", err)
	}

	if result.MatchedCount == 0 {
		return inverrors.ErrNotFound
	}

	return nil
}

func (r *mongoInstanceRepository) CountFree(ctx context.Context, roomTypeID string, stay model.Interval) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"room_type_id": roomTypeID,
		"occupied":     noOverlapFilter(stay),
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count free instances: %w", err)
	}

	return count, nil
}
