package mocks

import (
	"context"

	"github.com/cinex/booking-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockCatalogRepo struct {
	mock.Mock
	domain.CatalogRepository
}

func (m *MockCatalogRepo) GetMovie(ctx context.Context, movieID int64) (*domain.Movie, error) {
	args := m.Called(ctx, movieID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movie), args.Error(1)
}

func (m *MockCatalogRepo) GetHallLayout(ctx context.Context, hallID int64) ([]domain.HallSeat, error) {
	args := m.Called(ctx, hallID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HallSeat), args.Error(1)
}

func (m *MockCatalogRepo) GetSeatTypes(ctx context.Context, seatTypeIDs []int64) (map[int64]domain.SeatType, error) {
	args := m.Called(ctx, seatTypeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]domain.SeatType), args.Error(1)
}
