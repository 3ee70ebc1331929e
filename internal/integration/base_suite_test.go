package integration_test

import (
	"context"
	"io"
	"log"
	"log/slog"
	"time"

	"github.com/cinex/booking-engine/internal/booking"
	"github.com/cinex/booking-engine/internal/repository"
	appvalidator "github.com/cinex/booking-engine/internal/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
)

const (
	dbName         = "booking_engine"
	dbUser         = "test_user"
	dbPassword     = "test_password"
	dbImageName    = "postgres:17-alpine"
	cacheImageName = "redis:7"
)

type BaseSuite struct {
	suite.Suite
	dbContainer    *PostgresContainer
	cacheContainer *RedisContainer

	db    *pgxpool.Pool
	redis *redis.Client

	scheduler *booking.Scheduler
	inventory *booking.Inventory
	bookings  *booking.Service
	sweeper   *booking.Sweeper

	movieID     int64
	hallID      int64
	customerIDs []int64
}

func (s *BaseSuite) SetupSuite() {
	ctx := context.Background()

	postgresContainer, err := getDbContainer(ctx)
	s.Require().NoError(err, "failed to start DB container")

	redisContainer, err := getCacheContainer(ctx)
	s.Require().NoError(err, "failed to start cache container")

	s.dbContainer = postgresContainer
	s.cacheContainer = redisContainer

	db, err := pgxpool.New(ctx, postgresContainer.ConnectionString)
	s.Require().NoError(err, "failed to create connection pool")
	s.db = db

	s.redis = redis.NewClient(&redis.Options{Addr: redisContainer.ConnectionString})
	s.Require().NoError(s.redis.Ping(ctx).Err(), "failed to connect to cache")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validate := appvalidator.NewValidator()

	catalogRepo := repository.NewPostgresCatalogRepository(db)
	showRepo := repository.NewPostgresShowRepository(db)
	bookingRepo := repository.NewPostgresBookingRepository(db)

	s.scheduler = booking.NewScheduler(catalogRepo, showRepo, validate, logger, booking.DefaultCleanupBuffer)
	s.inventory = booking.NewInventory(catalogRepo, showRepo, logger)

	holds := booking.NewHoldStore(s.redis, booking.DefaultHoldDuration)
	s.bookings = booking.NewService(showRepo, bookingRepo, s.inventory, holds, validate, logger, booking.DefaultHoldDuration)
	s.sweeper = booking.NewSweeper(bookingRepo, holds, logger, booking.DefaultSweepInterval)

	s.seedCatalog(ctx)
}

func (s *BaseSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.redis != nil {
		s.redis.Close()
	}
	if s.dbContainer != nil {
		if err := testcontainers.TerminateContainer(s.dbContainer.Container.Container); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}
	if s.cacheContainer != nil {
		if err := testcontainers.TerminateContainer(s.cacheContainer.Container); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}
}

// seedCatalog creates one cinema with a four-seat hall (three standard seats
// and one VIP at a 50% premium), one movie, and two customers. Every test
// schedules its own show in this hall.
func (s *BaseSuite) seedCatalog(ctx context.Context) {
	var cinemaID int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO cinemas (name, owner_name, contact_details, year_established)
		VALUES ('Odeon Central', 'H. Lime', 'box-office@odeon.example', '1949')
		RETURNING id`).Scan(&cinemaID)
	s.Require().NoError(err)

	err = s.db.QueryRow(ctx, `
		INSERT INTO cinema_halls (cinema_id, address)
		VALUES ($1, '1 Screen Street')
		RETURNING id`, cinemaID).Scan(&s.hallID)
	s.Require().NoError(err)

	err = s.db.QueryRow(ctx, `
		INSERT INTO movies (name, release_date, duration_minutes)
		VALUES ('The Third Man', '1949-08-31', 104)
		RETURNING id`).Scan(&s.movieID)
	s.Require().NoError(err)

	var standardID, vipID int64
	err = s.db.QueryRow(ctx, `
		INSERT INTO seat_types (name, base_price, premium)
		VALUES ('standard', 10.00, 0)
		RETURNING id`).Scan(&standardID)
	s.Require().NoError(err)

	err = s.db.QueryRow(ctx, `
		INSERT INTO seat_types (name, base_price, premium)
		VALUES ('vip', 10.00, 0.5)
		RETURNING id`).Scan(&vipID)
	s.Require().NoError(err)

	_, err = s.db.Exec(ctx, `
		INSERT INTO hall_seats (hall_id, position, seat_label, seat_type_id)
		VALUES ($1, 1, 'A1', $2), ($1, 2, 'A2', $2), ($1, 3, 'B1', $2), ($1, 4, 'B2', $3)`,
		s.hallID, standardID, vipID)
	s.Require().NoError(err)

	for _, name := range []string{"Ada", "Grace"} {
		var customerID int64
		err = s.db.QueryRow(ctx, `INSERT INTO customers (name) VALUES ($1) RETURNING id`, name).Scan(&customerID)
		s.Require().NoError(err)

		s.customerIDs = append(s.customerIDs, customerID)
	}
}

// expireBooking backdates a pending booking's hold deadline so expiry paths
// can be exercised without waiting.
func (s *BaseSuite) expireBooking(ctx context.Context, bookingID int64) {
	tag, err := s.db.Exec(ctx,
		`UPDATE bookings SET expires_at = now() - interval '1 minute' WHERE id = $1`, bookingID)
	s.Require().NoError(err)
	s.Require().EqualValues(1, tag.RowsAffected())
}

func (s *BaseSuite) seatStatus(ctx context.Context, showID int64, label string) string {
	var status string
	err := s.db.QueryRow(ctx,
		`SELECT status FROM show_seats WHERE show_id = $1 AND seat_label = $2`, showID, label).Scan(&status)
	s.Require().NoError(err)

	return status
}

func (s *BaseSuite) bookingStatus(ctx context.Context, bookingID int64) string {
	var status string
	err := s.db.QueryRow(ctx,
		`SELECT status FROM bookings WHERE id = $1`, bookingID).Scan(&status)
	s.Require().NoError(err)

	return status
}

var showSlot int64

// nextShowStart hands out non-overlapping future time slots so tests sharing
// the hall never trip the overlap constraint by accident.
func nextShowStart() time.Time {
	showSlot++
	base := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)

	return base.Add(time.Duration(showSlot) * 6 * time.Hour)
}
