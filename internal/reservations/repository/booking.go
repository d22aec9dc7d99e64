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

	bookingerrors "innkeep/internal/reservations/errors"
	"innkeep/pkg/config"
	mongotx "innkeep/pkg/db/mongo"
	"innkeep/pkg/model"
)

const (
	CollectionName = "Bookings"
)

// BookingRepository persists Booking documents. Every lifecycle transition
// is a conditional update filtered on the current status, so a booking can
// only move along edges the state machine allows no matter how many writers
// race on it. A transition whose filter matches nothing returns
// ErrNoTransition.
type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error)
	CountByUser(ctx context.Context, userID string) (int64, error)

	FindExpired(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error)
	FindDeparted(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error)

	ConfirmPending(ctx context.Context, id string, instanceID string, now time.Time) (*model.Booking, error)
	CancelPending(ctx context.Context, id string) (*model.Booking, error)
	CancelConfirmed(ctx context.Context, id string) (*model.Booking, error)
	ExpirePending(ctx context.Context, id string, now time.Time) (*model.Booking, error)
	CompleteConfirmed(ctx context.Context, id string, now time.Time) (*model.Booking, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

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

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	return count, nil
}

func (r *mongoBookingRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":     model.StatusPending,
		"expires_at": bson.M{"$lt": now},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "expires_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode expired bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) FindDeparted(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":    model.StatusConfirmed,
		"check_out": bson.M{"$lte": now},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "check_out", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find departed bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode departed bookings: %w", err)
	}

	return bookings, nil
}

// transition runs one conditional update and returns the post-update
// document, or ErrNoTransition when the filter matched nothing.
func (r *mongoBookingRepository) transition(ctx context.Context, filter bson.M, update bson.M) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrNoTransition
		}
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	return &booking, nil
}

func idFilter(id string, status model.BookingStatus) (bson.M, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}
	return bson.M{"_id": objectID, "status": status}, nil
}

func (r *mongoBookingRepository) ConfirmPending(ctx context.Context, id string, instanceID string, now time.Time) (*model.Booking, error) {
	filter, err := idFilter(id, model.StatusPending)
	if err != nil {
		return nil, err
	}
	// a hold past its deadline may not be confirmed even if the sweeper
	// has not caught up yet
	filter["$or"] = []bson.M{
		{"expires_at": bson.M{"$exists": false}},
		{"expires_at": bson.M{"$gte": now}},
	}

	// a confirmed pay-later booking has been paid, so the method flips to
	// pay_now from here on
	update := bson.M{
		"$set": bson.M{
			"status":               model.StatusConfirmed,
			"payment_status":       model.PaymentPaid,
			"payment_method":       model.PayNow,
			"assigned_instance_id": instanceID,
		},
		"$unset": bson.M{"expires_at": ""},
	}

	return r.transition(ctx, filter, update)
}

func (r *mongoBookingRepository) CancelPending(ctx context.Context, id string) (*model.Booking, error) {
	filter, err := idFilter(id, model.StatusPending)
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"$set":   bson.M{"status": model.StatusCancelled},
		"$unset": bson.M{"expires_at": ""},
	}

	return r.transition(ctx, filter, update)
}

func (r *mongoBookingRepository) CancelConfirmed(ctx context.Context, id string) (*model.Booking, error) {
	filter, err := idFilter(id, model.StatusConfirmed)
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"$set":   bson.M{"status": model.StatusCancelled},
		"$unset": bson.M{"assigned_instance_id": ""},
	}

	return r.transition(ctx, filter, update)
}

func (r *mongoBookingRepository) ExpirePending(ctx context.Context, id string, now time.Time) (*model.Booking, error) {
	filter, err := idFilter(id, model.StatusPending)
	if err != nil {
		return nil, err
	}
	filter["expires_at"] = bson.M{"$lt": now}

	update := bson.M{
		"$set":   bson.M{"status": model.StatusCancelled},
		"$unset": bson.M{"expires_at": ""},
	}

	return r.transition(ctx, filter, update)
}

func (r *mongoBookingRepository) CompleteConfirmed(ctx context.Context, id string, now time.Time) (*model.Booking, error) {
	filter, err := idFilter(id, model.StatusConfirmed)
	if err != nil {
		return nil, err
	}
	filter["check_out"] = bson.M{"$lte": now}

	// the assigned instance and its occupied interval stay in place as the
	// historical record of the stay
	update := bson.M{
		"$set": bson.M{"status": model.StatusCompleted},
	}

	return r.transition(ctx, filter, update)
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
