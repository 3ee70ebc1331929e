package mocks

import (
	"context"

	"github.com/cinex/booking-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockShowRepo struct {
	mock.Mock
	domain.ShowRepository
}

func (m *MockShowRepo) CreateShowWithSeats(ctx context.Context, show *domain.Show, seats []domain.ShowSeat) error {
	args := m.Called(ctx, show, seats)
	return args.Error(0)
}

func (m *MockShowRepo) GetShow(ctx context.Context, showID int64) (*domain.Show, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Show), args.Error(1)
}

func (m *MockShowRepo) GetSeats(ctx context.Context, showID int64) ([]domain.ShowSeat, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ShowSeat), args.Error(1)
}

func (m *MockShowRepo) GetSeatsByLabels(ctx context.Context, showID int64, labels []string) ([]domain.ShowSeat, error) {
	args := m.Called(ctx, showID, labels)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ShowSeat), args.Error(1)
}

func (m *MockShowRepo) InsertMissingSeats(ctx context.Context, showID int64, seats []domain.ShowSeat) (int, error) {
	args := m.Called(ctx, showID, seats)
	return args.Int(0), args.Error(1)
}
