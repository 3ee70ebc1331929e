package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Cinema struct {
	ID              int64
	Name            string
	OwnerName       string
	ContactDetails  string
	YearEstablished string
}

type Hall struct {
	ID       int64
	CinemaID int64
	Address  string
}

// HallSeat is one entry of a hall's fixed seat layout, the template from
// which per-show seats are generated. Position preserves layout order.
type HallSeat struct {
	HallID     int64
	Position   int
	SeatLabel  string
	SeatTypeID int64
}

type Movie struct {
	ID          int64
	Name        string
	ReleaseDate time.Time
	Duration    int // minutes
}

// SeatType carries the base price and the percentage premium for a seat
// category (e.g. 0.5 for a 50% VIP markup). Premium is independent of, and
// multiplicative with, the show-level commission.
type SeatType struct {
	ID        int64
	Name      string
	BasePrice decimal.Decimal
	Premium   decimal.Decimal
}

type Customer struct {
	ID   int64
	Name string
}

// CatalogRepository is the read-only view of the catalog store. The booking
// core never writes catalog data.
type CatalogRepository interface {
	GetMovie(ctx context.Context, movieID int64) (*Movie, error)
	GetHallLayout(ctx context.Context, hallID int64) ([]HallSeat, error)
	GetSeatTypes(ctx context.Context, seatTypeIDs []int64) (map[int64]SeatType, error)
}
