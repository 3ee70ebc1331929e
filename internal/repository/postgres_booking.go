package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cinex/booking-engine/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

// ReserveSeats performs the check-then-reserve sequence as one transaction.
// Seat rows are locked in label order (labels arrive pre-sorted), so two
// attempts over overlapping seat sets serialize instead of deadlocking. On
// any failure the transaction rolls back and no seat is touched.
func (p *PostgresBookingRepository) ReserveSeats(ctx context.Context, booking *domain.Booking, labels []string) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			SELECT id, seat_label, status
			FROM show_seats
			WHERE show_id = $1 AND seat_label = ANY($2)
			ORDER BY seat_label
			FOR UPDATE
		`

		rows, err := tx.Query(ctx, query, booking.ShowID, labels)
		if err != nil {
			return err
		}

		type lockedSeat struct {
			id     int64
			label  string
			status domain.SeatStatus
		}

		locked := make([]lockedSeat, 0, len(labels))

		for rows.Next() {
			var seat lockedSeat

			err = rows.Scan(&seat.id, &seat.label, &seat.status)
			if err != nil {
				rows.Close()
				return err
			}

			locked = append(locked, seat)
		}
		rows.Close()

		if err = rows.Err(); err != nil {
			return err
		}

		if len(locked) != len(labels) {
			found := make(map[string]bool, len(locked))
			for _, seat := range locked {
				found[seat.label] = true
			}

			for _, label := range labels {
				if !found[label] {
					return domain.SeatNotFoundError{SeatLabel: label}
				}
			}
		}

		var taken []string
		for _, seat := range locked {
			if seat.status != domain.SeatAvailable {
				taken = append(taken, seat.label)
			}
		}
		if len(taken) > 0 {
			return domain.SeatUnavailableError{SeatLabels: taken}
		}

		query = `
			INSERT INTO bookings (reference, show_id, customer_id, booked_on, expires_at, amount, status)
			VALUES ($1, $2, $3, $4, $5, $6::numeric, $7)
			RETURNING id
		`

		err = tx.QueryRow(
			ctx,
			query,
			booking.Reference.String(),
			booking.ShowID,
			booking.CustomerID,
			booking.BookedOn,
			booking.ExpiresAt,
			booking.Amount.String(),
			string(booking.Status)).Scan(&booking.ID)

		if err != nil {
			return err
		}

		seatRows := make([][]any, 0, len(locked))
		seatIDs := make([]int64, 0, len(locked))
		links := make([]domain.BookingSeat, 0, len(locked))

		for _, seat := range locked {
			seatRows = append(seatRows, []any{booking.ID, seat.id})
			seatIDs = append(seatIDs, seat.id)
			links = append(links, domain.BookingSeat{
				BookingID:  booking.ID,
				ShowSeatID: seat.id,
				SeatLabel:  seat.label,
			})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"booking_seats"},
			[]string{"booking_id", "show_seat_id"},
			pgx.CopyFromRows(seatRows),
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE show_seats SET status = 'reserved' WHERE id = ANY($1)`, seatIDs)
		if err != nil {
			return err
		}

		err = refreshBookedOut(ctx, tx, booking.ShowID)
		if err != nil {
			return err
		}

		booking.Seats = links

		return nil
	})
}

// Confirm finalizes a pending booking under its row lock. A lapsed hold is
// cancelled in place and reported as expired, so a confirm racing the sweep
// resolves to exactly one outcome.
func (p *PostgresBookingRepository) Confirm(ctx context.Context, bookingID int64) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		var (
			status    domain.BookingStatus
			expiresAt time.Time
			showID    int64
		)

		query := `SELECT status, expires_at, show_id FROM bookings WHERE id = $1 FOR UPDATE`

		err := tx.QueryRow(ctx, query, bookingID).Scan(&status, &expiresAt, &showID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrBookingNotFound
			}

			return err
		}

		switch status {
		case domain.BookingConfirmed:
			return nil
		case domain.BookingCancelled:
			return domain.ErrReservationExpired
		}

		if !time.Now().UTC().Before(expiresAt) {
			err = releaseBooking(ctx, tx, bookingID, showID)
			if err != nil {
				return err
			}

			return domain.ErrReservationExpired
		}

		_, err = tx.Exec(ctx, `
			UPDATE show_seats SET status = 'booked'
			WHERE id IN (SELECT show_seat_id FROM booking_seats WHERE booking_id = $1)`,
			bookingID)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE bookings SET status = 'confirmed' WHERE id = $1`, bookingID)

		return err
	})
}

// Cancel releases the booking's seats. Cancelling an already cancelled
// booking commits nothing and returns nil.
func (p *PostgresBookingRepository) Cancel(ctx context.Context, bookingID int64) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		var (
			status domain.BookingStatus
			showID int64
		)

		query := `SELECT status, show_id FROM bookings WHERE id = $1 FOR UPDATE`

		err := tx.QueryRow(ctx, query, bookingID).Scan(&status, &showID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrBookingNotFound
			}

			return err
		}

		if status == domain.BookingCancelled {
			return nil
		}

		return releaseBooking(ctx, tx, bookingID, showID)
	})
}

// ReleaseExpired cancels every pending booking past its hold deadline and
// returns them with their seats so the caller can drop any remaining external
// holds. SKIP LOCKED leaves bookings that a concurrent confirm or cancel
// currently holds to that transaction's outcome.
func (p *PostgresBookingRepository) ReleaseExpired(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	released := make([]domain.Booking, 0)

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			SELECT id, show_id
			FROM bookings
			WHERE status = 'pending' AND expires_at <= $1
			FOR UPDATE SKIP LOCKED
		`

		rows, err := tx.Query(ctx, query, now)
		if err != nil {
			return err
		}

		for rows.Next() {
			var b domain.Booking

			err = rows.Scan(&b.ID, &b.ShowID)
			if err != nil {
				rows.Close()
				return err
			}

			released = append(released, b)
		}
		rows.Close()

		if err = rows.Err(); err != nil {
			return err
		}

		for i := range released {
			seats, err := bookingSeats(ctx, tx, released[i].ID)
			if err != nil {
				return err
			}

			released[i].Seats = seats

			err = releaseBooking(ctx, tx, released[i].ID, released[i].ShowID)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return released, nil
}

func (p *PostgresBookingRepository) GetByID(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	query := `
		SELECT id, reference::text, show_id, customer_id, booked_on, expires_at, amount, status
		FROM bookings
		WHERE id = $1
	`

	var (
		booking   domain.Booking
		reference string
		amount    pgtype.Numeric
	)

	err := p.db.QueryRow(ctx, query, bookingID).Scan(
		&booking.ID,
		&reference,
		&booking.ShowID,
		&booking.CustomerID,
		&booking.BookedOn,
		&booking.ExpiresAt,
		&amount,
		&booking.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}

		return nil, err
	}

	booking.Reference, err = uuid.Parse(reference)
	if err != nil {
		return nil, err
	}

	booking.Amount = numericToDecimal(amount)

	seats, err := bookingSeats(ctx, p.db, bookingID)
	if err != nil {
		return nil, err
	}

	booking.Seats = seats

	return &booking, nil
}

func bookingSeats(ctx context.Context, q querier, bookingID int64) ([]domain.BookingSeat, error) {
	query := `
		SELECT bs.booking_id, bs.show_seat_id, ss.seat_label
		FROM booking_seats bs
		JOIN show_seats ss ON bs.show_seat_id = ss.id
		WHERE bs.booking_id = $1
		ORDER BY ss.seat_label
	`

	rows, err := q.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.BookingSeat, 0)

	for rows.Next() {
		var seat domain.BookingSeat

		err = rows.Scan(&seat.BookingID, &seat.ShowSeatID, &seat.SeatLabel)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}

// releaseBooking flips the booking's seats back to available, cancels the
// booking, and refreshes the show's booked-out flag, all inside the caller's
// transaction.
func releaseBooking(ctx context.Context, tx pgx.Tx, bookingID, showID int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE show_seats SET status = 'available'
		WHERE id IN (SELECT show_seat_id FROM booking_seats WHERE booking_id = $1)`,
		bookingID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `UPDATE bookings SET status = 'cancelled' WHERE id = $1`, bookingID)
	if err != nil {
		return err
	}

	return refreshBookedOut(ctx, tx, showID)
}

// refreshBookedOut recomputes the derived flag in the same transaction as
// the seat transition that triggered it, so it is never stale.
func refreshBookedOut(ctx context.Context, tx pgx.Tx, showID int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE shows
		SET is_booked_out = NOT EXISTS (
			SELECT 1 FROM show_seats WHERE show_id = $1 AND status = 'available'
		)
		WHERE id = $1`,
		showID)

	return err
}
