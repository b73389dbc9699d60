package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	identityerrors "bookd/internal/identity/errors"
	"bookd/pkg/config"
	"bookd/pkg/model"
)

const CollectionName = "Accounts"

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	FindByID(ctx context.Context, id string) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindWorkersByOwner(ctx context.Context, ownerID string) ([]*model.Account, error)
	StripWorker(ctx context.Context, id string) error
}

type mongoAccountRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAccountRepository(cfg *config.Config) AccountRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAccountRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoAccountRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoAccountRepository) Create(ctx context.Context, account *model.Account) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	account.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, account)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return identityerrors.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		account.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAccountRepository) FindByID(ctx context.Context, id string) (*model.Account, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", identityerrors.ErrInvalidID, id)
	}

	var account model.Account
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, identityerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	return &account, nil
}

func (r *mongoAccountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var account model.Account
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, identityerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}

	return &account, nil
}

func (r *mongoAccountRepository) FindWorkersByOwner(ctx context.Context, ownerID string) ([]*model.Account, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("failed to find workers: %w", err)
	}
	defer cursor.Close(ctx)

	var workers []*model.Account
	if err = cursor.All(ctx, &workers); err != nil {
		return nil, fmt.Errorf("failed to decode workers: %w", err)
	}

	return workers, nil
}

// StripWorker removes the ownership link and operational role. The account row
// survives revocation; it just resolves to no tenant afterwards.
func (r *mongoAccountRepository) StripWorker(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", identityerrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$unset": bson.M{"owner_id": "", "role": ""},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to strip worker: %w", err)
	}
	if result.MatchedCount == 0 {
		return identityerrors.ErrNotFound
	}

	return nil
}
