package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is a customer's claim on one or more seats of a single show. A
// pending booking withholds its seats until it is confirmed, cancelled, or
// its reservation hold expires.
type Booking struct {
	ID         int64
	Reference  uuid.UUID
	ShowID     int64
	CustomerID int64
	BookedOn   time.Time
	ExpiresAt  time.Time
	Amount     decimal.Decimal
	Status     BookingStatus
	Seats      []BookingSeat
}

// BookingSeat links a booking to one show seat. A show seat belongs to at
// most one non-cancelled booking at any time.
type BookingSeat struct {
	BookingID  int64
	ShowSeatID int64
	SeatLabel  string
}

func NewBooking(showID, customerID int64, amount decimal.Decimal, holdDuration time.Duration) *Booking {
	now := time.Now().UTC()

	return &Booking{
		Reference:  uuid.New(),
		ShowID:     showID,
		CustomerID: customerID,
		BookedOn:   now,
		ExpiresAt:  now.Add(holdDuration),
		Amount:     amount,
		Status:     BookingPending,
	}
}

// Expired reports whether the reservation hold has lapsed at the given
// instant. Only meaningful for pending bookings.
func (b *Booking) Expired(now time.Time) bool {
	return b.Status == BookingPending && !now.Before(b.ExpiresAt)
}

type BookingRepository interface {
	// ReserveSeats atomically verifies that every requested seat of the
	// booking's show is available, transitions them to reserved, and
	// persists the pending booking with its seat links. The check and the
	// writes happen under row locks taken in deterministic label order; on
	// any failure nothing is written. Populates booking.ID and
	// booking.Seats.
	ReserveSeats(ctx context.Context, booking *Booking, labels []string) error

	// Confirm moves a pending booking and its seats to their booked state.
	// A booking past its hold deadline is cancelled instead and
	// ErrReservationExpired is returned. Confirming an already confirmed
	// booking is a no-op.
	Confirm(ctx context.Context, bookingID int64) error

	// Cancel releases the booking's seats back to available and marks the
	// booking cancelled. Cancelling a cancelled booking is a no-op.
	Cancel(ctx context.Context, bookingID int64) error

	// ReleaseExpired cancels every pending booking whose hold deadline has
	// passed and returns the released bookings with their seats. Safe to
	// run concurrently with Confirm and Cancel.
	ReleaseExpired(ctx context.Context, now time.Time) ([]Booking, error)

	GetByID(ctx context.Context, bookingID int64) (*Booking, error)
}
