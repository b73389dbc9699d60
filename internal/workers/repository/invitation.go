package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	workererrors "bookd/internal/workers/errors"
	"bookd/pkg/config"
	"bookd/pkg/model"
)

const CollectionName = "Invitations"

type InvitationRepository interface {
	Create(ctx context.Context, invitation *model.Invitation) error
	FindByToken(ctx context.Context, token string) (*model.Invitation, error)
	// MarkRedeemed flips the redeemed flag conditionally; concurrent
	// redeemers lose with ErrAlreadyRedeemed.
	MarkRedeemed(ctx context.Context, token string) error
	// Unredeem reopens an invitation whose redemption did not produce an
	// account.
	Unredeem(ctx context.Context, token string) error
}

type mongoInvitationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoInvitationRepository(cfg *config.Config) InvitationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoInvitationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoInvitationRepository) Create(ctx context.Context, invitation *model.Invitation) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	invitation.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, invitation); err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (r *mongoInvitationRepository) FindByToken(ctx context.Context, token string) (*model.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var invitation model.Invitation
	err := r.collection.FindOne(ctx, bson.M{"_id": token}).Decode(&invitation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, workererrors.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}

	return &invitation, nil
}

func (r *mongoInvitationRepository) MarkRedeemed(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": token, "redeemed": false},
		bson.M{"$set": bson.M{"redeemed": true, "redeemed_at": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark invitation redeemed: %w", err)
	}
	if result.MatchedCount == 0 {
		exists, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": token})
		if countErr != nil {
			return fmt.Errorf("failed to verify invitation: %w", countErr)
		}
		if exists == 0 {
			return workererrors.ErrInvitationNotFound
		}
		return workererrors.ErrAlreadyRedeemed
	}
	return nil
}

func (r *mongoInvitationRepository) Unredeem(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": token, "redeemed": true},
		bson.M{"$set": bson.M{"redeemed": false}, "$unset": bson.M{"redeemed_at": ""}},
	)
	if err != nil {
		return fmt.Errorf("failed to reopen invitation: %w", err)
	}
	if result.MatchedCount == 0 {
		return workererrors.ErrInvitationNotFound
	}
	return nil
}
