// Package mocks internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/mjaworski/tripsettle/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockRateSource mocks the RateSource interface
type MockRateSource struct {
	mock.Mock
}

func (m *MockRateSource) FetchRate(ctx context.Context, code string, date time.Time) (*entity.RateQuote, error) {
	args := m.Called(ctx, code, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RateQuote), args.Error(1)
}

func (m *MockRateSource) FetchLatest(ctx context.Context, code string) (*entity.RateQuote, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RateQuote), args.Error(1)
}

func (m *MockRateSource) FetchTable(ctx context.Context, date time.Time) (*entity.RateTable, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RateTable), args.Error(1)
}

func (m *MockRateSource) FetchLatestTable(ctx context.Context) (*entity.RateTable, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RateTable), args.Error(1)
}

// MockRateStore mocks the RateStore interface
type MockRateStore struct {
	mock.Mock
}

func (m *MockRateStore) Get(ctx context.Context, currency string, date time.Time) (*entity.RateQuote, error) {
	args := m.Called(ctx, currency, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RateQuote), args.Error(1)
}

func (m *MockRateStore) Put(ctx context.Context, quote *entity.RateQuote) error {
	args := m.Called(ctx, quote)
	return args.Error(0)
}

func (m *MockRateStore) DeleteExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRateStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRateStore) Stats(ctx context.Context) (entity.CacheStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(entity.CacheStats), args.Error(1)
}

// MockRateGetter mocks the application-level rate lookup interface
type MockRateGetter struct {
	mock.Mock
}

func (m *MockRateGetter) GetRate(ctx context.Context, code string, settlementDate time.Time) (*entity.RateQuote, error) {
	args := m.Called(ctx, code, settlementDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RateQuote), args.Error(1)
}

// MockTripRepository mocks the TripRepository interface
type MockTripRepository struct {
	mock.Mock
}

func (m *MockTripRepository) FindByID(ctx context.Context, id string) (*entity.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Trip), args.Error(1)
}

// MockExpenseRepository mocks the ExpenseRepository interface
type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) ListByTrip(ctx context.Context, tripID string) ([]entity.Expense, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Expense), args.Error(1)
}
