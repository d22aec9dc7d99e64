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
	RoomTypeCollection = "Room_types"
)

type RoomTypeRepository interface {
	Create(ctx context.Context, roomType *model.RoomType) error
	FindByID(ctx context.Context, id string) (*model.RoomType, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.RoomType, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

type mongoRoomTypeRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRoomTypeRepository(cfg *config.Config) RoomTypeRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRoomTypeRepository{
		cfg:        cfg,
		collection: db.Collection(RoomTypeCollection),
	}
}

func (r *mongoRoomTypeRepository) Create(ctx context.Context, roomType *model.RoomType) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	roomType.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, roomType)
	if err != nil {
		return fmt.Errorf("failed to create room type: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		roomType.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRoomTypeRepository) FindByID(ctx context.Context, id string) (*model.RoomType, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", inverrors.ErrInvalidID, id)
	}

	var roomType model.RoomType
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&roomType)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, inverrors.ErrRoomTypeNotFound
		}
		return nil, fmt.Errorf("failed to find room type: %w", err)
	}

	return &roomType, nil
}

func (r *mongoRoomTypeRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.RoomType, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find room types: %w", err)
	}
	defer cursor.Close(ctx)

	var roomTypes []*model.RoomType
	if err = cursor.All(ctx, &roomTypes); err != nil {
		return nil, fmt.Errorf("failed to decode room types: %w", err)
	}

	return roomTypes, nil
}

func (r *mongoRoomTypeRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count room types: %w", err)
	}

	return count, nil
}

func (r *mongoRoomTypeRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", inverrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete room type: %w", err)
	}

	if result.DeletedCount == 0 {
		return inverrors.ErrRoomTypeNotFound
	}

	return nil
}
