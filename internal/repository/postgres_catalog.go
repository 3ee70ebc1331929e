package repository

import (
	"context"
	"errors"

	"github.com/cinex/booking-engine/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCatalogRepository reads the reference data owned by the catalog
// store: movies, seat types, and hall seat layouts.
type PostgresCatalogRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCatalogRepository(db *pgxpool.Pool) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{
		db: db,
	}
}

func (p *PostgresCatalogRepository) GetMovie(ctx context.Context, movieID int64) (*domain.Movie, error) {
	query := `
		SELECT id, name, release_date, duration_minutes
		FROM movies
		WHERE id = $1
	`

	var movie domain.Movie

	err := p.db.QueryRow(ctx, query, movieID).Scan(
		&movie.ID,
		&movie.Name,
		&movie.ReleaseDate,
		&movie.Duration,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &movie, nil
}

func (p *PostgresCatalogRepository) GetHallLayout(ctx context.Context, hallID int64) ([]domain.HallSeat, error) {
	query := `
		SELECT hall_id, position, seat_label, seat_type_id
		FROM hall_seats
		WHERE hall_id = $1
		ORDER BY position
	`

	rows, err := p.db.Query(ctx, query, hallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	layout := make([]domain.HallSeat, 0)

	for rows.Next() {
		var seat domain.HallSeat

		err = rows.Scan(&seat.HallID, &seat.Position, &seat.SeatLabel, &seat.SeatTypeID)
		if err != nil {
			return nil, err
		}

		layout = append(layout, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return layout, nil
}

func (p *PostgresCatalogRepository) GetSeatTypes(ctx context.Context, seatTypeIDs []int64) (map[int64]domain.SeatType, error) {
	query := `
		SELECT id, name, base_price, premium
		FROM seat_types
		WHERE id = ANY($1)
	`

	rows, err := p.db.Query(ctx, query, seatTypeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seatTypes := make(map[int64]domain.SeatType, len(seatTypeIDs))

	for rows.Next() {
		var (
			seatType  domain.SeatType
			basePrice pgtype.Numeric
			premium   pgtype.Numeric
		)

		err = rows.Scan(&seatType.ID, &seatType.Name, &basePrice, &premium)
		if err != nil {
			return nil, err
		}

		seatType.BasePrice = numericToDecimal(basePrice)
		seatType.Premium = numericToDecimal(premium)

		seatTypes[seatType.ID] = seatType
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seatTypes, nil
}
