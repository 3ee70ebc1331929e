package domain

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)

// SeatPrice computes the charge for a single seat:
//
//	base × (1 + commission) × (1 + premium)
//
// rounded to two decimal places using round-half-up, so stored amounts are
// exact to the smallest currency unit. Commission is the show-level
// multiplier, premium the seat-type markup; the two compound.
func SeatPrice(base, commission, premium decimal.Decimal) decimal.Decimal {
	price := base.Mul(one.Add(commission)).Mul(one.Add(premium))

	return price.Round(2)
}

// BookingAmount sums already-rounded seat prices into the booking total.
func BookingAmount(prices []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero

	for _, p := range prices {
		total = total.Add(p)
	}

	return total
}
