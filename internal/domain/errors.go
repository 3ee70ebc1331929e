package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrShowNotFound        = errors.New("show not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrEmptyBookingRequest = errors.New("booking request contains no seats")
	ErrReservationExpired  = errors.New("reservation hold has expired")
	ErrInvalidParameter    = errors.New("invalid parameter")
)

// SeatNotFoundError reports a seat label that does not exist for the show.
type SeatNotFoundError struct {
	SeatLabel string
}

func (e SeatNotFoundError) Error() string {
	return fmt.Sprintf("seat %q does not exist for this show", e.SeatLabel)
}

// SeatUnavailableError reports the requested seats that were not available.
// It is distinct from ErrReservationExpired so callers can tell "taken by
// someone else" apart from "you were too slow".
type SeatUnavailableError struct {
	SeatLabels []string
}

func (e SeatUnavailableError) Error() string {
	return fmt.Sprintf("seat(s) %s not available", strings.Join(e.SeatLabels, ", "))
}

// HallTimeOverlapError reports the existing show interval that conflicts with
// a requested time slot.
type HallTimeOverlapError struct {
	HallID   int64
	StartsAt time.Time
	EndsAt   time.Time
}

func (e HallTimeOverlapError) Error() string {
	return fmt.Sprintf(
		"hall %d already has a show from %s to %s",
		e.HallID,
		e.StartsAt.Format(time.RFC3339),
		e.EndsAt.Format(time.RFC3339),
	)
}
