package integration_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cinex/booking-engine/internal/booking"
	"github.com/cinex/booking-engine/internal/domain"
	"github.com/stretchr/testify/suite"
)

type BookingFlowSuite struct {
	BaseSuite
}

func TestBookingFlowSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	suite.Run(t, new(BookingFlowSuite))
}

func (s *BookingFlowSuite) createShow(commission float64) *domain.Show {
	show, err := s.scheduler.CreateShow(context.Background(), booking.CreateShowRequest{
		MovieID:    s.movieID,
		HallID:     s.hallID,
		StartsAt:   nextShowStart(),
		Commission: commission,
	})
	s.Require().NoError(err)

	return show
}

func (s *BookingFlowSuite) createBooking(showID, customerID int64, labels ...string) (*domain.Booking, error) {
	return s.bookings.CreateBooking(context.Background(), booking.CreateBookingRequest{
		ShowID:     showID,
		CustomerID: customerID,
		SeatLabels: labels,
	})
}

func (s *BookingFlowSuite) TestScheduleShowAndListAvailability() {
	ctx := context.Background()
	show := s.createShow(0.2)

	// 104 minutes of runtime plus the cleanup buffer.
	s.Equal(show.StartsAt.Add(104*time.Minute+booking.DefaultCleanupBuffer), show.EndsAt)

	availability, err := s.inventory.ListAvailability(ctx, show.ID)
	s.Require().NoError(err)
	s.Require().Len(availability, 4)

	prices := make(map[string]string, len(availability))
	for _, seat := range availability {
		s.Equal(domain.SeatAvailable, seat.Status)
		prices[seat.SeatLabel] = seat.Price.StringFixed(2)
	}

	s.Equal("12.00", prices["A1"])
	s.Equal("18.00", prices["B2"])
}

func (s *BookingFlowSuite) TestRejectsOverlappingShow() {
	show := s.createShow(0)

	_, err := s.scheduler.CreateShow(context.Background(), booking.CreateShowRequest{
		MovieID:  s.movieID,
		HallID:   s.hallID,
		StartsAt: show.StartsAt.Add(30 * time.Minute),
	})

	var overlapErr domain.HallTimeOverlapError
	s.Require().ErrorAs(err, &overlapErr)
	s.Equal(s.hallID, overlapErr.HallID)

	// A slot starting exactly when the previous one ends is fine.
	adjacent, err := s.scheduler.CreateShow(context.Background(), booking.CreateShowRequest{
		MovieID:  s.movieID,
		HallID:   s.hallID,
		StartsAt: show.EndsAt,
	})
	s.Require().NoError(err)
	s.NotZero(adjacent.ID)
}

func (s *BookingFlowSuite) TestCreateAndConfirmBooking() {
	ctx := context.Background()
	show := s.createShow(0.2)

	b, err := s.createBooking(show.ID, s.customerIDs[0], "A1", "B2")
	s.Require().NoError(err)

	s.Equal(domain.BookingPending, b.Status)
	s.Equal("30.00", b.Amount.StringFixed(2))
	s.Equal("reserved", s.seatStatus(ctx, show.ID, "A1"))
	s.Equal("reserved", s.seatStatus(ctx, show.ID, "B2"))
	s.Equal("available", s.seatStatus(ctx, show.ID, "A2"))

	s.Require().NoError(s.bookings.ConfirmBooking(ctx, b.ID))
	s.Equal("confirmed", s.bookingStatus(ctx, b.ID))
	s.Equal("booked", s.seatStatus(ctx, show.ID, "A1"))

	// Confirming a confirmed booking changes nothing.
	s.Require().NoError(s.bookings.ConfirmBooking(ctx, b.ID))
	s.Equal("confirmed", s.bookingStatus(ctx, b.ID))
}

func (s *BookingFlowSuite) TestConcurrentDisjointBookings() {
	show := s.createShow(0)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	seatSets := [][]string{{"A1", "A2"}, {"B1", "B2"}}

	for i := range seatSets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.createBooking(show.ID, s.customerIDs[i], seatSets[i]...)
		}(i)
	}
	wg.Wait()

	s.NoError(errs[0])
	s.NoError(errs[1])
}

func (s *BookingFlowSuite) TestConcurrentContendedBookings() {
	show := s.createShow(0)

	var wg sync.WaitGroup
	errs := make([]error, 2)

	// Both want A2; lock order is fixed, so one wins and one fails cleanly.
	seatSets := [][]string{{"A1", "A2"}, {"A2", "B1"}}

	for i := range seatSets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.createBooking(show.ID, s.customerIDs[i], seatSets[i]...)
		}(i)
	}
	wg.Wait()

	var unavailable domain.SeatUnavailableError
	if errs[0] == nil {
		s.Require().ErrorAs(errs[1], &unavailable)
	} else {
		s.Require().ErrorAs(errs[0], &unavailable)
		s.NoError(errs[1])
	}

	// The loser's seats were not partially taken.
	ctx := context.Background()
	reserved := 0
	for _, label := range []string{"A1", "A2", "B1"} {
		if s.seatStatus(ctx, show.ID, label) == "reserved" {
			reserved++
		}
	}
	s.Equal(2, reserved)
}

func (s *BookingFlowSuite) TestCancelThenRebook() {
	ctx := context.Background()
	show := s.createShow(0)

	first, err := s.createBooking(show.ID, s.customerIDs[0], "A1")
	s.Require().NoError(err)

	s.Require().NoError(s.bookings.CancelBooking(ctx, first.ID))
	s.Equal("cancelled", s.bookingStatus(ctx, first.ID))
	s.Equal("available", s.seatStatus(ctx, show.ID, "A1"))

	// Cancelling again is a no-op.
	s.Require().NoError(s.bookings.CancelBooking(ctx, first.ID))

	second, err := s.createBooking(show.ID, s.customerIDs[1], "A1")
	s.Require().NoError(err)
	s.NotEqual(first.ID, second.ID)
	s.Equal("reserved", s.seatStatus(ctx, show.ID, "A1"))
}

func (s *BookingFlowSuite) TestConfirmAfterHoldExpiry() {
	ctx := context.Background()
	show := s.createShow(0)

	b, err := s.createBooking(show.ID, s.customerIDs[0], "A1", "A2")
	s.Require().NoError(err)

	s.expireBooking(ctx, b.ID)

	err = s.bookings.ConfirmBooking(ctx, b.ID)
	s.Require().ErrorIs(err, domain.ErrReservationExpired)

	s.Equal("cancelled", s.bookingStatus(ctx, b.ID))
	s.Equal("available", s.seatStatus(ctx, show.ID, "A1"))
	s.Equal("available", s.seatStatus(ctx, show.ID, "A2"))
}

func (s *BookingFlowSuite) TestSweepReleasesExpiredBookings() {
	ctx := context.Background()
	show := s.createShow(0)

	expired, err := s.createBooking(show.ID, s.customerIDs[0], "A1")
	s.Require().NoError(err)

	live, err := s.createBooking(show.ID, s.customerIDs[1], "B1")
	s.Require().NoError(err)

	s.expireBooking(ctx, expired.ID)
	s.sweeper.Sweep(ctx)

	s.Equal("cancelled", s.bookingStatus(ctx, expired.ID))
	s.Equal("available", s.seatStatus(ctx, show.ID, "A1"))

	s.Equal("pending", s.bookingStatus(ctx, live.ID))
	s.Equal("reserved", s.seatStatus(ctx, show.ID, "B1"))

	// The sweep also dropped the hold, so the seat is immediately rebookable.
	rebooked, err := s.createBooking(show.ID, s.customerIDs[1], "A1")
	s.Require().NoError(err)
	s.NotEqual(expired.ID, rebooked.ID)
}

func (s *BookingFlowSuite) TestBookedOutFlag() {
	ctx := context.Background()
	show := s.createShow(0)

	b, err := s.createBooking(show.ID, s.customerIDs[0], "A1", "A2", "B1", "B2")
	s.Require().NoError(err)

	bookedOut, err := s.inventory.IsBookedOut(ctx, show.ID)
	s.Require().NoError(err)
	s.True(bookedOut)

	s.Require().NoError(s.bookings.CancelBooking(ctx, b.ID))

	bookedOut, err = s.inventory.IsBookedOut(ctx, show.ID)
	s.Require().NoError(err)
	s.False(bookedOut)
}

func (s *BookingFlowSuite) TestBookingUnknownSeat() {
	show := s.createShow(0)

	_, err := s.createBooking(show.ID, s.customerIDs[0], "Z9")

	var notFound domain.SeatNotFoundError
	s.Require().ErrorAs(err, &notFound)
	s.Equal("Z9", notFound.SeatLabel)
}

func (s *BookingFlowSuite) TestBookingUnknownShow() {
	_, err := s.createBooking(999999, s.customerIDs[0], "A1")

	s.Require().ErrorIs(err, domain.ErrShowNotFound)
}

func (s *BookingFlowSuite) TestMaterializeSeatsIsIdempotent() {
	ctx := context.Background()
	show := s.createShow(0)

	_, err := s.createBooking(show.ID, s.customerIDs[0], "A1")
	s.Require().NoError(err)

	seats, err := s.inventory.MaterializeSeats(ctx, show.ID)
	s.Require().NoError(err)
	s.Require().Len(seats, 4)

	// Re-materializing never resets live seat state.
	s.Equal("reserved", s.seatStatus(ctx, show.ID, "A1"))
}
