package mongo

import (
	"context"
	"fmt"

	"fitstudio/pkg/contracts"
	apperrors "fitstudio/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// TransactionManager runs contracts.TransactionFunc values inside a mongo
// session; the function receives the mongo.SessionContext as its context.
type TransactionManager interface {
	contracts.Transactor
}

type mongoTransactionManager struct {
	client *mongo.Client
}

func NewTransactionManager(client *mongo.Client) TransactionManager {
	return &mongoTransactionManager{
		client: client,
	}
}

func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn contracts.TransactionFunc) error {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return fn(ctx)
	}

	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	})

	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}
