package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cinex/booking-engine/internal/domain"
	"github.com/redis/go-redis/v9"
)

const holdConflictPrefix = "seat already held"

// holdSeatsScript claims every key or none. A conflicting key is reported
// back so the caller can name the contested seat.
var holdSeatsScript = redis.NewScript(`
    -- KEYS = seat hold keys (e.g. seat_hold:42:A1)
    -- ARGV = [bookingRef, ttlSeconds]

    for i=1, #KEYS do
        if redis.call("EXISTS", KEYS[i]) == 1 then
            return {err = "seat already held " .. KEYS[i]}
        end
    end

    for i=1, #KEYS do
        redis.call("SET", KEYS[i], ARGV[1], "EX", ARGV[2])
    end

    return "OK"
`)

// HoldStore places short-lived per-seat holds in Redis in front of the
// database transaction. It is a fast-fail guard against concurrent booking
// attempts for the same seats; the seat rows in Postgres stay authoritative.
// Holds carry the booking reference and expire with the reservation hold
// duration, so an abandoned attempt never wedges a seat.
type HoldStore struct {
	redis redis.UniversalClient
	ttl   time.Duration
}

func NewHoldStore(client redis.UniversalClient, ttl time.Duration) *HoldStore {
	return &HoldStore{
		redis: client,
		ttl:   ttl,
	}
}

// Acquire places holds on all given seats or none. A contested seat surfaces
// as SeatUnavailableError.
func (h *HoldStore) Acquire(ctx context.Context, showID int64, labels []string, bookingRef string) error {
	keys := make([]string, len(labels))
	for i, label := range labels {
		keys[i] = seatHoldKey(showID, label)
	}

	err := holdSeatsScript.Run(ctx, h.redis, keys, bookingRef, int(h.ttl.Seconds())).Err()
	if err != nil {
		if redis.HasErrorPrefix(err, holdConflictPrefix) {
			return domain.SeatUnavailableError{SeatLabels: []string{labelFromHoldError(err.Error())}}
		}

		return err
	}

	return nil
}

// Release drops the holds for the given seats. Missing keys are ignored, so
// releasing after TTL expiry is harmless.
func (h *HoldStore) Release(ctx context.Context, showID int64, labels []string) error {
	if len(labels) == 0 {
		return nil
	}

	keys := make([]string, len(labels))
	for i, label := range labels {
		keys[i] = seatHoldKey(showID, label)
	}

	return h.redis.Del(ctx, keys...).Err()
}

func seatHoldKey(showID int64, label string) string {
	return fmt.Sprintf("seat_hold:%d:%s", showID, label)
}

func labelFromHoldError(msg string) string {
	i := strings.LastIndex(msg, ":")
	if i < 0 || i == len(msg)-1 {
		return ""
	}

	return msg[i+1:]
}
