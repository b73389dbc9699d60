package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	billingerrors "bookd/internal/billing/errors"
	"bookd/pkg/config"
	"bookd/pkg/model"
)

const SubscriptionCollectionName = "Subscriptions"

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *model.Subscription) error
	FindByTenant(ctx context.Context, tenantID string) (*model.Subscription, error)
	SetStatus(ctx context.Context, tenantID, status string, endsAt *time.Time) error
	// Activate sets the subscription active and links the external billing
	// ids. The sparse unique index on external_subscription_id rejects a
	// second tenant claiming the same external subscription.
	Activate(ctx context.Context, tenantID, externalCustomerID, externalSubscriptionID string) error
	CancelTrialsEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CancelLapsedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type mongoSubscriptionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSubscriptionRepository(cfg *config.Config) SubscriptionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSubscriptionRepository{
		cfg:        cfg,
		collection: db.Collection(SubscriptionCollectionName),
	}
}

func (r *mongoSubscriptionRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoSubscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	sub.CreatedAt = now
	sub.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, sub)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return billingerrors.ErrDuplicateTenant
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		sub.ID = oid.Hex()
	}
	return nil
}

func (r *mongoSubscriptionRepository) FindByTenant(ctx context.Context, tenantID string) (*model.Subscription, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var sub model.Subscription
	err := r.collection.FindOne(ctx, bson.M{"tenant_id": tenantID}).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, billingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}

	return &sub, nil
}

func (r *mongoSubscriptionRepository) SetStatus(ctx context.Context, tenantID, status string, endsAt *time.Time) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{
		"status":     status,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if endsAt != nil {
		set["ends_at"] = *endsAt
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"tenant_id": tenantID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	if result.MatchedCount == 0 {
		return billingerrors.ErrNotFound
	}
	return nil
}

func (r *mongoSubscriptionRepository) Activate(ctx context.Context, tenantID, externalCustomerID, externalSubscriptionID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":                   model.SubscriptionStatusActive,
		"external_customer_id":     externalCustomerID,
		"external_subscription_id": externalSubscriptionID,
		"updated_at":               time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"tenant_id": tenantID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return billingerrors.ErrDuplicateExternalID
		}
		return fmt.Errorf("failed to activate subscription: %w", err)
	}
	if result.MatchedCount == 0 {
		return billingerrors.ErrNotFound
	}
	return nil
}

func (r *mongoSubscriptionRepository) CancelTrialsEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"status":        model.SubscriptionStatusTrialing,
		"trial_ends_at": bson.M{"$lt": cutoff},
	}
	update := bson.M{"$set": bson.M{
		"status":     model.SubscriptionStatusCanceled,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel expired trials: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *mongoSubscriptionRepository) CancelLapsedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"status":  bson.M{"$in": []string{model.SubscriptionStatusActive, model.SubscriptionStatusPastDue}},
		"ends_at": bson.M{"$ne": nil, "$lt": cutoff},
	}
	update := bson.M{"$set": bson.M{
		"status":     model.SubscriptionStatusCanceled,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel lapsed subscriptions: %w", err)
	}
	return result.ModifiedCount, nil
}
