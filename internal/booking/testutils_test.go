package booking

import (
	"io"
	"log/slog"

	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// redisError mimics a server-side reply error so error-prefix matching in the
// hold store behaves as it does against a real Redis.
type redisError string

func (e redisError) Error() string { return string(e) }

func (e redisError) RedisError() {}
