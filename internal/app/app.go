package app

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinex/booking-engine/internal/booking"
	"github.com/cinex/booking-engine/internal/repository"
	"github.com/cinex/booking-engine/internal/vcs"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

var (
	version = vcs.Version()
)

type application struct {
	config config
	logger *slog.Logger
	db     *pgxpool.Pool
	redis  redis.UniversalClient
}

type config struct {
	env string
	db  struct {
		dsn          string
		maxOpenConns int
		maxIdleTime  time.Duration
	}
	redis struct {
		url          string
		maxOpenConns int
		maxIdleConns int
		maxIdleTime  time.Duration
	}
	booking struct {
		holdDuration  time.Duration
		sweepInterval time.Duration
	}
	otelCollectorURL string
}

// Run wires the booking engine together and runs the reservation-hold expiry
// sweeper until the process is signalled to stop. An API layer would embed
// the same services; this worker is the only long-running process the core
// itself needs.
func Run() error {
	var cfg config

	flag.StringVar(&cfg.env, "env", "dev", "Environment (dev|staging|prod)")

	flag.StringVar(&cfg.db.dsn, "db-dsn", "", "PostgreSQL DSN")
	flag.IntVar(&cfg.db.maxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.db.maxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	flag.StringVar(&cfg.redis.url, "redis-url", "", "Redis URL")
	flag.IntVar(&cfg.redis.maxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.redis.maxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.redis.maxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	flag.DurationVar(&cfg.booking.holdDuration, "hold-duration", booking.DefaultHoldDuration, "Reservation hold duration")
	flag.DurationVar(&cfg.booking.sweepInterval, "sweep-interval", booking.DefaultSweepInterval, "Expiry sweep interval")

	flag.StringVar(&cfg.otelCollectorURL, "otel-collector-url", "", "OpenTelemetry collector URL")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	err := repository.MigrateUp(cfg.db.dsn)
	if err != nil {
		return err
	}

	db, err := newDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := newRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return app.run()
}

func newDatabasePool(cfg config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.db.maxIdleTime
	config.MaxConns = int32(cfg.db.maxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func newRedisClient(cfg config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.redis.url,
		MaxIdleConns:    cfg.redis.maxIdleConns,
		MaxActiveConns:  cfg.redis.maxOpenConns,
		ConnMaxIdleTime: cfg.redis.maxIdleTime,
	})

	if err := redisotel.InstrumentTracing(rdb); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func (app *application) run() error {
	shutdownTelemetry, err := app.initTelemetry()
	if err != nil {
		return err
	}

	bookingRepo := repository.NewPostgresBookingRepository(app.db)
	holds := booking.NewHoldStore(app.redis, app.config.booking.holdDuration)
	sweeper := booking.NewSweeper(bookingRepo, holds, app.logger, app.config.booking.sweepInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})

	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	app.logger.Info("booking engine worker started", "env", app.config.env, "version", version)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	s := <-quit

	app.logger.Info("shutting down worker", "signal", s.String())

	cancel()
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	shutdownTelemetry(shutdownCtx)

	app.logger.Info("stopped worker")

	return nil
}
