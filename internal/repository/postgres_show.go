package repository

import (
	"context"
	"errors"

	"github.com/cinex/booking-engine/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresShowRepository struct {
	db *pgxpool.Pool
}

func NewPostgresShowRepository(db *pgxpool.Pool) *PostgresShowRepository {
	return &PostgresShowRepository{
		db: db,
	}
}

// CreateShowWithSeats inserts the show and its seat rows in one transaction.
// Show creation for a hall is serialized on the hall row, so the overlap
// probe and the insert are atomic; the exclusion constraint on
// (hall_id, interval) backstops writers that bypass this path.
func (p *PostgresShowRepository) CreateShowWithSeats(ctx context.Context, show *domain.Show, seats []domain.ShowSeat) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		var hallID int64

		err := tx.QueryRow(ctx, `SELECT id FROM cinema_halls WHERE id = $1 FOR UPDATE`, show.HallID).Scan(&hallID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		query := `
			SELECT hall_id, starts_at, ends_at
			FROM shows
			WHERE hall_id = $1 AND starts_at < $3 AND ends_at > $2
			LIMIT 1
		`

		var conflict domain.HallTimeOverlapError

		err = tx.QueryRow(ctx, query, show.HallID, show.StartsAt, show.EndsAt).
			Scan(&conflict.HallID, &conflict.StartsAt, &conflict.EndsAt)
		if err == nil {
			return conflict
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		query = `
			INSERT INTO shows (movie_id, hall_id, starts_at, ends_at, commission)
			VALUES ($1, $2, $3, $4, $5::numeric)
			RETURNING id
		`

		err = tx.QueryRow(
			ctx,
			query,
			show.MovieID,
			show.HallID,
			show.StartsAt,
			show.EndsAt,
			show.Commission.String()).Scan(&show.ID)

		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
				return domain.HallTimeOverlapError{
					HallID:   show.HallID,
					StartsAt: show.StartsAt,
					EndsAt:   show.EndsAt,
				}
			}

			return err
		}

		rows := make([][]any, 0, len(seats))
		for _, seat := range seats {
			rows = append(rows, []any{
				show.ID,
				seat.SeatLabel,
				seat.SeatTypeID,
				string(domain.SeatAvailable),
			})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"show_seats"},
			[]string{"show_id", "seat_label", "seat_type_id", "status"},
			pgx.CopyFromRows(rows),
		)

		return err
	})
}

func (p *PostgresShowRepository) GetShow(ctx context.Context, showID int64) (*domain.Show, error) {
	query := `
		SELECT id, movie_id, hall_id, starts_at, ends_at, commission, is_booked_out
		FROM shows
		WHERE id = $1
	`

	var (
		show       domain.Show
		commission pgtype.Numeric
	)

	err := p.db.QueryRow(ctx, query, showID).Scan(
		&show.ID,
		&show.MovieID,
		&show.HallID,
		&show.StartsAt,
		&show.EndsAt,
		&commission,
		&show.IsBookedOut,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrShowNotFound
		}

		return nil, err
	}

	show.Commission = numericToDecimal(commission)

	return &show, nil
}

func (p *PostgresShowRepository) GetSeats(ctx context.Context, showID int64) ([]domain.ShowSeat, error) {
	query := `
		SELECT id, show_id, seat_label, seat_type_id, status
		FROM show_seats
		WHERE show_id = $1
		ORDER BY id
	`

	return p.querySeats(ctx, query, showID)
}

func (p *PostgresShowRepository) GetSeatsByLabels(ctx context.Context, showID int64, labels []string) ([]domain.ShowSeat, error) {
	query := `
		SELECT id, show_id, seat_label, seat_type_id, status
		FROM show_seats
		WHERE show_id = $1 AND seat_label = ANY($2)
		ORDER BY seat_label
	`

	return p.querySeats(ctx, query, showID, labels)
}

func (p *PostgresShowRepository) querySeats(ctx context.Context, query string, args ...any) ([]domain.ShowSeat, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.ShowSeat, 0)

	for rows.Next() {
		var seat domain.ShowSeat

		err = rows.Scan(&seat.ID, &seat.ShowID, &seat.SeatLabel, &seat.SeatTypeID, &seat.Status)
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

// InsertMissingSeats adds seat rows absent for the show and leaves existing
// rows untouched, making seat materialization idempotent.
func (p *PostgresShowRepository) InsertMissingSeats(ctx context.Context, showID int64, seats []domain.ShowSeat) (int, error) {
	labels := make([]string, len(seats))
	seatTypeIDs := make([]int64, len(seats))

	for i, seat := range seats {
		labels[i] = seat.SeatLabel
		seatTypeIDs[i] = seat.SeatTypeID
	}

	query := `
		INSERT INTO show_seats (show_id, seat_label, seat_type_id, status)
		SELECT $1, u.seat_label, u.seat_type_id, 'available'
		FROM unnest($2::text[], $3::bigint[]) AS u(seat_label, seat_type_id)
		ON CONFLICT (show_id, seat_label) DO NOTHING
	`

	tag, err := p.db.Exec(ctx, query, showID, labels, seatTypeIDs)
	if err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}
