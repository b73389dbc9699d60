package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	billingerrors "bookd/internal/billing/errors"
	"bookd/pkg/config"
	"bookd/pkg/model"
)

const ProcessedEventCollectionName = "ProcessedBillingEvents"

// ProcessedEventRepository is the webhook idempotency ledger. The event id is
// the document _id, so inserting doubles as the replay check.
type ProcessedEventRepository interface {
	MarkProcessed(ctx context.Context, event *model.ProcessedEvent) error
	Remove(ctx context.Context, eventID string) error
}

type mongoProcessedEventRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoProcessedEventRepository(cfg *config.Config) ProcessedEventRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProcessedEventRepository{
		cfg:        cfg,
		collection: db.Collection(ProcessedEventCollectionName),
	}
}

func (r *mongoProcessedEventRepository) MarkProcessed(ctx context.Context, event *model.ProcessedEvent) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	event.ProcessedAt = time.Now().UTC().Truncate(time.Millisecond)
	_, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return billingerrors.ErrDuplicateEvent
		}
		return fmt.Errorf("failed to record processed event: %w", err)
	}
	return nil
}

// Remove releases an event id after a transient failure so the processor can
// redeliver it.
func (r *mongoProcessedEventRepository) Remove(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": eventID})
	if err != nil {
		return fmt.Errorf("failed to remove processed event: %w", err)
	}
	return nil
}
