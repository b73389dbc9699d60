package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	apperrors "bookd/pkg/errors"
)

// TransactionFunc runs inside a session; every repository call made with the
// session context joins the same transaction.
type TransactionFunc func(ctx mongo.SessionContext) error

// TransactionManager couples multi-document writes that must commit or abort
// together, like consuming a discount use and inserting the booking that
// claimed it.
type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type transactionManager struct {
	client *mongo.Client
}

func NewTransactionManager(client *mongo.Client) TransactionManager {
	return &transactionManager{client: client}
}

func (m *transactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	})
	if err == nil {
		return nil
	}

	// Domain errors pass through untranslated so callers keep their codes
	// after the abort.
	if apperrors.IsAppError(err) {
		return err
	}
	return fmt.Errorf("transaction failed: %w", err)
}
