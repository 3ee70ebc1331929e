package booking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/cinex/booking-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// Inventory materializes and reads per-show seat state. All reads reflect
// committed state only; in-flight reservations are invisible until their
// transaction commits.
type Inventory struct {
	catalogRepo domain.CatalogRepository
	showRepo    domain.ShowRepository
	logger      *slog.Logger
}

func NewInventory(catalogRepo domain.CatalogRepository, showRepo domain.ShowRepository, logger *slog.Logger) *Inventory {
	return &Inventory{
		catalogRepo: catalogRepo,
		showRepo:    showRepo,
		logger:      logger,
	}
}

// MaterializeSeats inserts any seat rows missing for the show from its
// hall's layout. Re-invocation for a fully materialized show is a no-op; the
// existing set is returned either way.
func (inv *Inventory) MaterializeSeats(ctx context.Context, showID int64) ([]domain.ShowSeat, error) {
	show, err := inv.showRepo.GetShow(ctx, showID)
	if err != nil {
		return nil, err
	}

	layout, err := inv.catalogRepo.GetHallLayout(ctx, show.HallID)
	if err != nil {
		return nil, fmt.Errorf("failed to load layout of hall %d: %w", show.HallID, err)
	}

	seats := make([]domain.ShowSeat, len(layout))
	for i, ls := range layout {
		seats[i] = domain.ShowSeat{
			ShowID:     showID,
			SeatLabel:  ls.SeatLabel,
			SeatTypeID: ls.SeatTypeID,
			Status:     domain.SeatAvailable,
		}
	}

	inserted, err := inv.showRepo.InsertMissingSeats(ctx, showID, seats)
	if err != nil {
		return nil, err
	}

	if inserted > 0 {
		inv.logger.Warn("materialized missing show seats", "show_id", showID, "inserted", inserted)
	}

	return inv.showRepo.GetSeats(ctx, showID)
}

// ListAvailability returns every seat of the show with its committed status
// and the price a booking of that seat would incur.
func (inv *Inventory) ListAvailability(ctx context.Context, showID int64) ([]domain.SeatAvailability, error) {
	show, err := inv.showRepo.GetShow(ctx, showID)
	if err != nil {
		return nil, err
	}

	seats, err := inv.showRepo.GetSeats(ctx, showID)
	if err != nil {
		return nil, err
	}

	seatTypes, err := inv.seatTypesFor(ctx, seats)
	if err != nil {
		return nil, err
	}

	availability := make([]domain.SeatAvailability, len(seats))
	for i, seat := range seats {
		st := seatTypes[seat.SeatTypeID]

		availability[i] = domain.SeatAvailability{
			SeatLabel: seat.SeatLabel,
			SeatType:  st.Name,
			Status:    seat.Status,
			Price:     domain.SeatPrice(st.BasePrice, show.Commission, st.Premium),
		}
	}

	return availability, nil
}

// IsBookedOut reports whether the show has no available seat left. The flag
// is maintained transactionally on every seat transition, not polled.
func (inv *Inventory) IsBookedOut(ctx context.Context, showID int64) (bool, error) {
	show, err := inv.showRepo.GetShow(ctx, showID)
	if err != nil {
		return false, err
	}

	return show.IsBookedOut, nil
}

// PriceBooking computes the total a booking of the given seats would cost,
// without reserving anything.
func (inv *Inventory) PriceBooking(ctx context.Context, showID int64, seatLabels []string) (decimal.Decimal, error) {
	labels, err := normalizeSeatLabels(seatLabels)
	if err != nil {
		return decimal.Zero, err
	}

	show, err := inv.showRepo.GetShow(ctx, showID)
	if err != nil {
		return decimal.Zero, err
	}

	seats, err := inv.seatsByLabels(ctx, showID, labels)
	if err != nil {
		return decimal.Zero, err
	}

	prices, err := inv.priceSeats(ctx, show, seats)
	if err != nil {
		return decimal.Zero, err
	}

	return domain.BookingAmount(prices), nil
}

// seatsByLabels loads the requested seats and reports the first label that
// does not exist for the show.
func (inv *Inventory) seatsByLabels(ctx context.Context, showID int64, labels []string) ([]domain.ShowSeat, error) {
	seats, err := inv.showRepo.GetSeatsByLabels(ctx, showID, labels)
	if err != nil {
		return nil, err
	}

	if len(seats) != len(labels) {
		found := make(map[string]bool, len(seats))
		for _, seat := range seats {
			found[seat.SeatLabel] = true
		}

		for _, label := range labels {
			if !found[label] {
				return nil, domain.SeatNotFoundError{SeatLabel: label}
			}
		}
	}

	return seats, nil
}

func (inv *Inventory) priceSeats(ctx context.Context, show *domain.Show, seats []domain.ShowSeat) ([]decimal.Decimal, error) {
	seatTypes, err := inv.seatTypesFor(ctx, seats)
	if err != nil {
		return nil, err
	}

	prices := make([]decimal.Decimal, len(seats))
	for i, seat := range seats {
		st := seatTypes[seat.SeatTypeID]
		prices[i] = domain.SeatPrice(st.BasePrice, show.Commission, st.Premium)
	}

	return prices, nil
}

func (inv *Inventory) seatTypesFor(ctx context.Context, seats []domain.ShowSeat) (map[int64]domain.SeatType, error) {
	idSet := make(map[int64]bool, len(seats))
	ids := make([]int64, 0, len(seats))

	for _, seat := range seats {
		if !idSet[seat.SeatTypeID] {
			idSet[seat.SeatTypeID] = true
			ids = append(ids, seat.SeatTypeID)
		}
	}

	seatTypes, err := inv.catalogRepo.GetSeatTypes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load seat type pricing: %w", err)
	}

	for _, id := range ids {
		if _, ok := seatTypes[id]; !ok {
			return nil, fmt.Errorf("seat type %d: %w", id, domain.ErrRecordNotFound)
		}
	}

	return seatTypes, nil
}

// normalizeSeatLabels deduplicates and sorts the requested labels. Sorting
// fixes the lock acquisition order so overlapping booking attempts cannot
// deadlock each other.
func normalizeSeatLabels(labels []string) ([]string, error) {
	if len(labels) == 0 {
		return nil, domain.ErrEmptyBookingRequest
	}

	seen := make(map[string]bool, len(labels))
	normalized := make([]string, 0, len(labels))

	for _, label := range labels {
		if label == "" {
			return nil, fmt.Errorf("%w: empty seat label", domain.ErrInvalidParameter)
		}
		if !seen[label] {
			seen[label] = true
			normalized = append(normalized, label)
		}
	}

	sort.Strings(normalized)

	return normalized, nil
}
