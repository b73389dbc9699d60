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

	bookingerrors "bookd/internal/bookings/errors"
	"bookd/pkg/config"
	mongotx "bookd/pkg/db/mongo"
	"bookd/pkg/model"
)

const CollectionName = "Bookings"

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByReference(ctx context.Context, reference string) (*model.Booking, error)
	FindByTenant(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.Booking, error)
	CountByTenant(ctx context.Context, tenantID string) (int64, error)
	FindByAssignedStaff(ctx context.Context, tenantID, staffID string, limit int, offset int64) ([]*model.Booking, error)
	CountByAssignedStaff(ctx context.Context, tenantID, staffID string) (int64, error)
	UpdateStatus(ctx context.Context, id, status, cancelReason string) error
	AssignStaff(ctx context.Context, id, staffID string) error
	Reschedule(ctx context.Context, id string, startTime time.Time) error
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

func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now

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
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
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

func (r *mongoBookingRepository) FindByReference(ctx context.Context, reference string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"booking_reference": reference}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking by reference: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindByTenant(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.Booking, error) {
	return r.find(ctx, bson.M{"owner_id": tenantID}, limit, offset)
}

func (r *mongoBookingRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	return r.count(ctx, bson.M{"owner_id": tenantID})
}

func (r *mongoBookingRepository) FindByAssignedStaff(ctx context.Context, tenantID, staffID string, limit int, offset int64) ([]*model.Booking, error) {
	return r.find(ctx, bson.M{"owner_id": tenantID, "assigned_staff_id": staffID}, limit, offset)
}

func (r *mongoBookingRepository) CountByAssignedStaff(ctx context.Context, tenantID, staffID string) (int64, error) {
	return r.count(ctx, bson.M{"owner_id": tenantID, "assigned_staff_id": staffID})
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*model.Booking, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id, status, cancelReason string) error {
	set := bson.M{
		"status":     status,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if cancelReason != "" {
		set["cancel_reason"] = cancelReason
	}
	return r.updateByID(ctx, id, bson.M{"$set": set})
}

func (r *mongoBookingRepository) AssignStaff(ctx context.Context, id, staffID string) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		"assigned_staff_id": staffID,
		"updated_at":        time.Now().UTC().Truncate(time.Millisecond),
	}})
}

func (r *mongoBookingRepository) Reschedule(ctx context.Context, id string, startTime time.Time) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		"start_time": startTime.UTC(),
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}})
}

func (r *mongoBookingRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingerrors.ErrNotFound
	}
	return nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
