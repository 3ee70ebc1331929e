package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatReserved  SeatStatus = "reserved"
	SeatBooked    SeatStatus = "booked"
)

type Show struct {
	ID          int64
	MovieID     int64
	HallID      int64
	StartsAt    time.Time
	EndsAt      time.Time
	Commission  decimal.Decimal
	IsBookedOut bool
}

// Overlaps reports whether the show's [StartsAt, EndsAt) interval intersects
// the given one. Intervals that exactly touch do not overlap.
func (s Show) Overlaps(startsAt, endsAt time.Time) bool {
	return startsAt.Before(s.EndsAt) && s.StartsAt.Before(endsAt)
}

// ShowSeat is one seat instance scoped to one show. Exactly one row exists
// per (show, seat label); it holds only identifiers back to its show and
// seat type.
type ShowSeat struct {
	ID         int64
	ShowID     int64
	SeatLabel  string
	SeatTypeID int64
	Status     SeatStatus
}

// SeatAvailability is a priced availability entry as returned to callers of
// the inventory: committed seat state plus the charge the seat would incur.
type SeatAvailability struct {
	SeatLabel string
	SeatType  string
	Status    SeatStatus
	Price     decimal.Decimal
}

type ShowRepository interface {
	// CreateShowWithSeats persists the show and its full seat set in one
	// atomic unit, serialized per hall. It populates show.ID and returns
	// HallTimeOverlapError when the hall is occupied during the interval.
	CreateShowWithSeats(ctx context.Context, show *Show, seats []ShowSeat) error

	GetShow(ctx context.Context, showID int64) (*Show, error)
	GetSeats(ctx context.Context, showID int64) ([]ShowSeat, error)
	GetSeatsByLabels(ctx context.Context, showID int64, labels []string) ([]ShowSeat, error)

	// InsertMissingSeats inserts any layout seats absent for the show and
	// reports how many rows were added. Existing rows are left untouched.
	InsertMissingSeats(ctx context.Context, showID int64, seats []ShowSeat) (int, error)
}
