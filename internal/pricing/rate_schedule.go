package pricing

import (
	"fmt"
	"time"

	apperrors "parkfacil/internal/errors"
)

const (
	// DefaultHourlyRateCents covers the first hour of any stay.
	DefaultHourlyRateCents int64 = 500
	// DefaultBlockRateCents is charged per started 15-minute block past the
	// first hour.
	DefaultBlockRateCents int64 = 100

	blockMinutes = 15
)

// RateSchedule maps a stay duration to a fee. All arithmetic is done in
// integer cents; there is nothing to round until the final result.
type RateSchedule struct {
	HourlyRateCents int64
	BlockRateCents  int64
}

func Default() RateSchedule {
	return RateSchedule{
		HourlyRateCents: DefaultHourlyRateCents,
		BlockRateCents:  DefaultBlockRateCents,
	}
}

// WithHourlyRate returns a copy of the schedule using the given hourly rate.
// Zero keeps the schedule unchanged, so spots without a configured rate fall
// back to the default.
func (rs RateSchedule) WithHourlyRate(cents int64) RateSchedule {
	if cents > 0 {
		rs.HourlyRateCents = cents
	}
	return rs
}

// ComputeFee returns the fee in cents for a stay from entry to exit.
// The first hour costs the hourly rate; every started 15-minute block beyond
// it adds the block rate. A partially started block counts as a whole block.
func (rs RateSchedule) ComputeFee(entry, exit time.Time) (int64, error) {
	if !exit.After(entry) {
		return 0, fmt.Errorf("exit %s is not after entry %s: %w",
			exit.Format(time.RFC3339), entry.Format(time.RFC3339), apperrors.ErrInvalidInterval)
	}

	elapsed := ceilMinutes(exit.Sub(entry))
	if elapsed <= 60 {
		return rs.HourlyRateCents, nil
	}

	extraMinutes := elapsed - 60
	extraBlocks := (extraMinutes + blockMinutes - 1) / blockMinutes
	return rs.HourlyRateCents + extraBlocks*rs.BlockRateCents, nil
}

func ceilMinutes(d time.Duration) int64 {
	return int64((d + time.Minute - 1) / time.Minute)
}

// FormatCents renders an amount in cents as a decimal string with two digits,
// e.g. 700 -> "7.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
