package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/cinex/booking-engine/internal/domain"
	"github.com/go-playground/validator/v10"
)

// DefaultHoldDuration is how long a pending booking withholds its seats
// before it is automatically released.
const DefaultHoldDuration = 10 * time.Minute

type CreateBookingRequest struct {
	ShowID     int64    `validate:"required,gt=0"`
	CustomerID int64    `validate:"required,gt=0"`
	SeatLabels []string `validate:"required,min=1"`
}

// Service is the booking transaction manager: the single writer of seat and
// booking state. Every state transition happens inside one repository
// transaction, so partial reservations are never observable.
type Service struct {
	showRepo     domain.ShowRepository
	bookingRepo  domain.BookingRepository
	inventory    *Inventory
	holds        *HoldStore
	validator    *validator.Validate
	logger       *slog.Logger
	holdDuration time.Duration
}

func NewService(
	showRepo domain.ShowRepository,
	bookingRepo domain.BookingRepository,
	inventory *Inventory,
	holds *HoldStore,
	validate *validator.Validate,
	logger *slog.Logger,
	holdDuration time.Duration,
) *Service {
	if holdDuration <= 0 {
		holdDuration = DefaultHoldDuration
	}

	return &Service{
		showRepo:     showRepo,
		bookingRepo:  bookingRepo,
		inventory:    inventory,
		holds:        holds,
		validator:    validate,
		logger:       logger,
		holdDuration: holdDuration,
	}
}

// CreateBooking reserves the requested seats for the customer, all or
// nothing. The returned booking is pending until confirmed; its seats are
// withheld from other bookers until the hold deadline.
func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if len(req.SeatLabels) == 0 {
		return nil, domain.ErrEmptyBookingRequest
	}

	err := s.validator.Struct(req)
	if err != nil {
		return nil, invalidParameter(err)
	}

	labels, err := normalizeSeatLabels(req.SeatLabels)
	if err != nil {
		return nil, err
	}

	show, err := s.showRepo.GetShow(ctx, req.ShowID)
	if err != nil {
		return nil, err
	}

	seats, err := s.inventory.seatsByLabels(ctx, show.ID, labels)
	if err != nil {
		return nil, err
	}

	prices, err := s.inventory.priceSeats(ctx, show, seats)
	if err != nil {
		return nil, err
	}

	booking := domain.NewBooking(show.ID, req.CustomerID, domain.BookingAmount(prices), s.holdDuration)

	err = s.holds.Acquire(ctx, show.ID, labels, booking.Reference.String())
	if err != nil {
		return nil, err
	}

	err = s.bookingRepo.ReserveSeats(ctx, booking, labels)
	if err != nil {
		if releaseErr := s.holds.Release(ctx, show.ID, labels); releaseErr != nil {
			s.logger.Error("failed to release seat holds after reservation failure",
				"show_id", show.ID, "seat_labels", labels, "error", releaseErr)
		}

		return nil, err
	}

	s.logger.Info("created booking",
		"booking_id", booking.ID,
		"reference", booking.Reference,
		"show_id", show.ID,
		"customer_id", req.CustomerID,
		"seat_labels", labels,
		"amount", booking.Amount,
		"expires_at", booking.ExpiresAt,
	)

	return booking, nil
}

// ConfirmBooking finalizes a pending booking: its seats move to booked and
// stay withheld permanently. Confirming after the hold deadline fails with
// ErrReservationExpired; a racing expiry sweep and confirm resolve to
// exactly one outcome under the booking row lock.
func (s *Service) ConfirmBooking(ctx context.Context, bookingID int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	err = s.bookingRepo.Confirm(ctx, bookingID)
	if err != nil {
		return err
	}

	s.releaseHolds(ctx, booking)
	s.logger.Info("confirmed booking", "booking_id", bookingID, "show_id", booking.ShowID)

	return nil
}

// CancelBooking releases the booking's seats back to availability. Allowed
// while pending or confirmed; cancelling an already cancelled booking is a
// no-op, not an error.
func (s *Service) CancelBooking(ctx context.Context, bookingID int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	err = s.bookingRepo.Cancel(ctx, bookingID)
	if err != nil {
		return err
	}

	s.releaseHolds(ctx, booking)
	s.logger.Info("cancelled booking", "booking_id", bookingID, "show_id", booking.ShowID)

	return nil
}

// releaseHolds drops the Redis guards once the database is the sole
// authority for the booking's seats. Failures are logged only: the holds
// expire on their own.
func (s *Service) releaseHolds(ctx context.Context, booking *domain.Booking) {
	labels := make([]string, len(booking.Seats))
	for i, seat := range booking.Seats {
		labels[i] = seat.SeatLabel
	}

	err := s.holds.Release(ctx, booking.ShowID, labels)
	if err != nil {
		s.logger.Error("failed to release seat holds",
			"booking_id", booking.ID, "show_id", booking.ShowID, "error", err)
	}
}
