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

	discounterrors "bookd/internal/discounts/errors"
	"bookd/pkg/config"
	mongotx "bookd/pkg/db/mongo"
	"bookd/pkg/model"
)

const CollectionName = "Discounts"

type DiscountRepository interface {
	Create(ctx context.Context, discount *model.Discount) error
	FindByID(ctx context.Context, id string) (*model.Discount, error)
	FindByTenantAndCode(ctx context.Context, tenantID, code string) (*model.Discount, error)
	FindByTenant(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.Discount, error)
	CountByTenant(ctx context.Context, tenantID string) (int64, error)
	UpdateStatus(ctx context.Context, id, status string) error
	RecordUsage(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoDiscountRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoDiscountRepository(cfg *config.Config) DiscountRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDiscountRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoDiscountRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoDiscountRepository) Create(ctx context.Context, discount *model.Discount) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	discount.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, discount)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return discounterrors.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create discount: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		discount.ID = oid.Hex()
	}
	return nil
}

func (r *mongoDiscountRepository) FindByID(ctx context.Context, id string) (*model.Discount, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", discounterrors.ErrInvalidID, id)
	}

	var discount model.Discount
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&discount)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, discounterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find discount: %w", err)
	}

	return &discount, nil
}

// FindByTenantAndCode matches the code case-sensitively within one tenant's
// code book only.
func (r *mongoDiscountRepository) FindByTenantAndCode(ctx context.Context, tenantID, code string) (*model.Discount, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"tenant_id": tenantID, "code": code}

	var discount model.Discount
	err := r.collection.FindOne(ctx, filter).Decode(&discount)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, discounterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find discount by code: %w", err)
	}

	return &discount, nil
}

func (r *mongoDiscountRepository) FindByTenant(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.Discount, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find discounts: %w", err)
	}
	defer cursor.Close(ctx)

	var discounts []*model.Discount
	if err = cursor.All(ctx, &discounts); err != nil {
		return nil, fmt.Errorf("failed to decode discounts: %w", err)
	}

	return discounts, nil
}

func (r *mongoDiscountRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"tenant_id": tenantID})
	if err != nil {
		return 0, fmt.Errorf("failed to count discounts: %w", err)
	}
	return count, nil
}

func (r *mongoDiscountRepository) UpdateStatus(ctx context.Context, id, status string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", discounterrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return fmt.Errorf("failed to update discount status: %w", err)
	}
	if result.MatchedCount == 0 {
		return discounterrors.ErrNotFound
	}

	return nil
}

// RecordUsage increments times_used by exactly one, as a single conditional
// write: the filter admits the document only while it is still under its
// usage limit, so two racing bookings can never both consume the last use.
// A zero match on an existing discount surfaces as ErrUsageConflict.
func (r *mongoDiscountRepository) RecordUsage(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", discounterrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id": objectID,
		"$or": []bson.M{
			{"usage_limit": bson.M{"$exists": false}},
			{"usage_limit": nil},
			{"$expr": bson.M{"$lt": []string{"$times_used", "$usage_limit"}}},
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"times_used": 1}})
	if err != nil {
		return fmt.Errorf("failed to record discount usage: %w", err)
	}

	if result.MatchedCount == 0 {
		exists, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
		if countErr != nil {
			return fmt.Errorf("failed to record discount usage: %w", countErr)
		}
		if exists == 0 {
			return discounterrors.ErrNotFound
		}
		return discounterrors.ErrUsageConflict
	}

	return nil
}

func (r *mongoDiscountRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
