package mocks

import (
	"context"
	"time"

	"github.com/cinex/booking-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepo struct {
	mock.Mock
	domain.BookingRepository
}

func (m *MockBookingRepo) ReserveSeats(ctx context.Context, booking *domain.Booking, labels []string) error {
	args := m.Called(ctx, booking, labels)
	return args.Error(0)
}

func (m *MockBookingRepo) Confirm(ctx context.Context, bookingID int64) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func (m *MockBookingRepo) Cancel(ctx context.Context, bookingID int64) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func (m *MockBookingRepo) ReleaseExpired(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) GetByID(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
