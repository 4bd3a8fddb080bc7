package services

import (
	"context"

	"github.com/bookpasal/bookpasal-backend/internal/models"
	"github.com/stretchr/testify/mock"
)

type BooksMock struct {
	mock.Mock
}

func (m *BooksMock) Create(ctx context.Context, b models.Book) (models.Book, error) {
	args := m.Called(ctx, b)
	return args.Get(0).(models.Book), args.Error(1)
}

func (m *BooksMock) GetByID(ctx context.Context, id string) (models.Book, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Book), args.Error(1)
}

func (m *BooksMock) List(ctx context.Context, limit, offset int) ([]models.Book, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Book), args.Error(1)
}

type OrdersMock struct {
	mock.Mock
}

func (m *OrdersMock) Create(ctx context.Context, o models.Order) (models.Order, error) {
	args := m.Called(ctx, o)
	return args.Get(0).(models.Order), args.Error(1)
}

func (m *OrdersMock) GetByTransactionID(ctx context.Context, txnID string) (models.Order, error) {
	args := m.Called(ctx, txnID)
	return args.Get(0).(models.Order), args.Error(1)
}

func (m *OrdersMock) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

type AuditLogsMock struct {
	mock.Mock
}

func (m *AuditLogsMock) Create(ctx context.Context, l models.AuditLog) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}
