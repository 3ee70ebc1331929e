package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cinex/booking-engine/internal/domain"
	appvalidator "github.com/cinex/booking-engine/internal/validator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DefaultCleanupBuffer is the idle slot appended after each show for hall
// cleanup. It is part of the show's occupied interval.
const DefaultCleanupBuffer = 15 * time.Minute

type CreateShowRequest struct {
	MovieID  int64     `validate:"required,gt=0"`
	HallID   int64     `validate:"required,gt=0"`
	StartsAt time.Time `validate:"required"`

	// Capped at 5.0 (500%) as a sanity bound, not a business rule.
	Commission float64 `validate:"gte=0,lte=5"`
}

// Scheduler validates and persists show time-slots per hall. It is the only
// component that creates shows, and a show is always created together with
// its full seat set.
type Scheduler struct {
	catalogRepo   domain.CatalogRepository
	showRepo      domain.ShowRepository
	validator     *validator.Validate
	logger        *slog.Logger
	cleanupBuffer time.Duration
}

func NewScheduler(
	catalogRepo domain.CatalogRepository,
	showRepo domain.ShowRepository,
	validate *validator.Validate,
	logger *slog.Logger,
	cleanupBuffer time.Duration,
) *Scheduler {
	if cleanupBuffer <= 0 {
		cleanupBuffer = DefaultCleanupBuffer
	}

	return &Scheduler{
		catalogRepo:   catalogRepo,
		showRepo:      showRepo,
		validator:     validate,
		logger:        logger,
		cleanupBuffer: cleanupBuffer,
	}
}

// CreateShow schedules a screening and materializes one seat row per hall
// layout seat, atomically. Overlapping slots in the same hall are rejected
// with HallTimeOverlapError.
func (s *Scheduler) CreateShow(ctx context.Context, req CreateShowRequest) (*domain.Show, error) {
	err := s.validator.Struct(req)
	if err != nil {
		return nil, invalidParameter(err)
	}

	movie, err := s.catalogRepo.GetMovie(ctx, req.MovieID)
	if err != nil {
		return nil, fmt.Errorf("failed to load movie %d: %w", req.MovieID, err)
	}

	layout, err := s.catalogRepo.GetHallLayout(ctx, req.HallID)
	if err != nil {
		return nil, fmt.Errorf("failed to load layout of hall %d: %w", req.HallID, err)
	}
	if len(layout) == 0 {
		return nil, domain.ErrRecordNotFound
	}

	startsAt := req.StartsAt.UTC()
	duration := time.Duration(movie.Duration) * time.Minute

	show := &domain.Show{
		MovieID:    req.MovieID,
		HallID:     req.HallID,
		StartsAt:   startsAt,
		EndsAt:     startsAt.Add(duration + s.cleanupBuffer),
		Commission: decimal.NewFromFloat(req.Commission),
	}

	seats := make([]domain.ShowSeat, len(layout))
	for i, ls := range layout {
		seats[i] = domain.ShowSeat{
			SeatLabel:  ls.SeatLabel,
			SeatTypeID: ls.SeatTypeID,
			Status:     domain.SeatAvailable,
		}
	}

	err = s.showRepo.CreateShowWithSeats(ctx, show, seats)
	if err != nil {
		return nil, err
	}

	s.logger.Info(
		"scheduled show",
		"show_id", show.ID,
		"hall_id", show.HallID,
		"movie_id", show.MovieID,
		"starts_at", show.StartsAt,
		"ends_at", show.EndsAt,
		"seats", len(seats),
	)

	return show, nil
}

func invalidParameter(err error) error {
	var fieldErrs validator.ValidationErrors

	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		msgs[i] = fmt.Sprintf("%s %s", fe.Field(), appvalidator.ValidationMessage(fe))
	}

	return fmt.Errorf("%w: %s", domain.ErrInvalidParameter, strings.Join(msgs, "; "))
}
