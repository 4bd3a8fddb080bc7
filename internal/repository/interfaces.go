package repository

import (
	"context"

	"github.com/bookpasal/bookpasal-backend/internal/models"
)

type Users interface {
	Create(ctx context.Context, username, email, passwordHash, role string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

type Books interface {
	Create(ctx context.Context, b models.Book) (models.Book, error)
	GetByID(ctx context.Context, id string) (models.Book, error)
	List(ctx context.Context, limit, offset int) ([]models.Book, error)
}

type Orders interface {
	// Create inserts the order, or returns the already-persisted row when
	// one exists for the same transaction id. Retried gateway callbacks
	// must collapse onto a single order without a read-then-write race.
	Create(ctx context.Context, o models.Order) (models.Order, error)
	GetByTransactionID(ctx context.Context, txnID string) (models.Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Order, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}
