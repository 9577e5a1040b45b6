package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "parkfacil/internal/errors"
)

var entry = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func TestComputeFee_FirstHour(t *testing.T) {
	rs := Default()

	cases := []struct {
		name    string
		minutes int
		want    int64
	}{
		{"one minute", 1, 500},
		{"59 minutes", 59, 500},
		{"exactly one hour", 60, 500},
		{"61 minutes starts a block", 61, 600},
		{"75 minutes still one block", 75, 600},
		{"76 minutes starts a second block", 76, 700},
		{"90 minutes", 90, 700},
		{"two hours", 120, 900},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fee, err := rs.ComputeFee(entry, entry.Add(time.Duration(tc.minutes)*time.Minute))
			assert.NoError(t, err)
			assert.Equal(t, tc.want, fee)
		})
	}
}

func TestComputeFee_SubMinutePrecisionRoundsUp(t *testing.T) {
	rs := Default()

	// 60m30s elapses into the 61st minute, which opens the first block.
	fee, err := rs.ComputeFee(entry, entry.Add(60*time.Minute+30*time.Second))
	assert.NoError(t, err)
	assert.Equal(t, int64(600), fee)
}

func TestComputeFee_MultiDayStayExtrapolatesLinearly(t *testing.T) {
	rs := Default()

	// 48h: 60min at the hourly rate, then 2820 extra minutes = 188 blocks.
	fee, err := rs.ComputeFee(entry, entry.Add(48*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, int64(500+188*100), fee)
}

func TestComputeFee_InvalidInterval(t *testing.T) {
	rs := Default()

	_, err := rs.ComputeFee(entry, entry)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInterval)

	_, err = rs.ComputeFee(entry, entry.Add(-time.Minute))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInterval)
}

func TestWithHourlyRate(t *testing.T) {
	rs := Default().WithHourlyRate(800)

	fee, err := rs.ComputeFee(entry, entry.Add(90*time.Minute))
	assert.NoError(t, err)
	assert.Equal(t, int64(800+2*100), fee)

	// Zero keeps the default.
	assert.Equal(t, DefaultHourlyRateCents, Default().WithHourlyRate(0).HourlyRateCents)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "7.00", FormatCents(700))
	assert.Equal(t, "6.05", FormatCents(605))
	assert.Equal(t, "0.00", FormatCents(0))
	assert.Equal(t, "-1.50", FormatCents(-150))
}
