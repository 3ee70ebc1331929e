package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/cinex/booking-engine/internal/domain"
)

// DefaultSweepInterval is how often the expiry sweep runs. Expiry is also
// checked lazily on confirm, so the interval only bounds how long a lapsed
// hold can linger before its seats reopen.
const DefaultSweepInterval = time.Minute

// Sweeper releases the seats of pending bookings whose reservation hold has
// lapsed, and drops their Redis holds so the seats reopen immediately even
// when a hold was cut short of its TTL. It runs alongside live
// confirm/cancel traffic; the repository uses row locks with skip-locked
// semantics so the two never double-release.
type Sweeper struct {
	bookingRepo domain.BookingRepository
	holds       *HoldStore
	logger      *slog.Logger
	interval    time.Duration
}

func NewSweeper(bookingRepo domain.BookingRepository, holds *HoldStore, logger *slog.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &Sweeper{
		bookingRepo: bookingRepo,
		holds:       holds,
		logger:      logger,
		interval:    interval,
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("expiry sweeper started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass. Errors are logged, not returned; the next tick
// retries.
func (s *Sweeper) Sweep(ctx context.Context) {
	released, err := s.bookingRepo.ReleaseExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("expiry sweep failed", "error", err)
		return
	}

	for _, b := range released {
		labels := make([]string, len(b.Seats))
		for i, seat := range b.Seats {
			labels[i] = seat.SeatLabel
		}

		err = s.holds.Release(ctx, b.ShowID, labels)
		if err != nil {
			s.logger.Error("failed to release seat holds for expired booking",
				"booking_id", b.ID, "show_id", b.ShowID, "error", err)
		}
	}

	if len(released) > 0 {
		s.logger.Info("released expired bookings", "count", len(released))
	}
}
