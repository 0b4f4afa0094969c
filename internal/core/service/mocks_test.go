package service

import (
	"context"
	"io"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockProductsStorage struct {
	mock.Mock
}

func (m *MockProductsStorage) ReadProducts(
	ctx context.Context,
) ([]domain.Product, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

func (m *MockProductsStorage) ReadProduct(
	ctx context.Context, id string,
) (domain.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(domain.Product)
	return p, args.Error(1)
}

func (m *MockProductsStorage) StoreProducts(
	ctx context.Context, ps []domain.Product,
) error {
	return m.Called(ctx, ps).Error(0)
}

func (m *MockProductsStorage) DeleteProduct(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockUsersStorage struct {
	mock.Mock
}

func (m *MockUsersStorage) ReadUsers(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	us, _ := args.Get(0).([]domain.User)
	return us, args.Error(1)
}

func (m *MockUsersStorage) ReadUser(
	ctx context.Context, id string,
) (domain.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(domain.User)
	return u, args.Error(1)
}

func (m *MockUsersStorage) ReadUserByEmail(
	ctx context.Context, email string,
) (domain.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(domain.User)
	return u, args.Error(1)
}

func (m *MockUsersStorage) FirstUser(ctx context.Context) (domain.User, error) {
	args := m.Called(ctx)
	u, _ := args.Get(0).(domain.User)
	return u, args.Error(1)
}

func (m *MockUsersStorage) StoreUser(ctx context.Context, u domain.User) error {
	return m.Called(ctx, u).Error(0)
}

type MockProductsProducer struct {
	mock.Mock
}

func (m *MockProductsProducer) ProduceProducts(
	ctx context.Context, ps []domain.Product,
) error {
	return m.Called(ctx, ps).Error(0)
}

type MockEventsProducer struct {
	mock.Mock
}

func (m *MockEventsProducer) ProduceEvents(
	ctx context.Context, evts ...domain.ProductEvent,
) error {
	return m.Called(ctx, evts).Error(0)
}

type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Export(w io.Writer, ps []domain.Product) error {
	return m.Called(w, ps).Error(0)
}
