package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet/internal/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculator_CurrentPeriod(t *testing.T) {
	tests := []struct {
		name          string
		policy        *Policy
		date          time.Time
		expectedStart time.Time
		expectedEnd   time.Time
	}{
		{
			name:          "should return the calendar month in a leap February",
			policy:        MonthlyPolicy(1),
			date:          date(2008, time.February, 27),
			expectedStart: date(2008, time.February, 1),
			expectedEnd:   date(2008, time.February, 29),
		},
		{
			name:          "should return the calendar month for a 30 day month",
			policy:        MonthlyPolicy(1),
			date:          date(2007, time.June, 26),
			expectedStart: date(2007, time.June, 1),
			expectedEnd:   date(2007, time.June, 30),
		},
		{
			name:          "should start in the current month when day is on or after start day",
			policy:        MonthlyPolicy(15),
			date:          date(2024, time.March, 15),
			expectedStart: date(2024, time.March, 15),
			expectedEnd:   date(2024, time.April, 14),
		},
		{
			name:          "should start in the previous month when day is before start day",
			policy:        MonthlyPolicy(15),
			date:          date(2024, time.January, 3),
			expectedStart: date(2023, time.December, 15),
			expectedEnd:   date(2024, time.January, 14),
		},
		{
			name:          "should clamp the end day to a short month",
			policy:        MonthlyPolicy(31),
			date:          date(2023, time.January, 31),
			expectedStart: date(2023, time.January, 31),
			expectedEnd:   date(2023, time.February, 28),
		},
		{
			name:          "should begin after a clamped boundary",
			policy:        MonthlyPolicy(31),
			date:          date(2023, time.March, 1),
			expectedStart: date(2023, time.March, 1),
			expectedEnd:   date(2023, time.March, 30),
		},
		{
			name:          "should align fixed-length periods to the anchor",
			policy:        FixedPolicy(date(2020, time.January, 6), 14),
			date:          date(2020, time.February, 10),
			expectedStart: date(2020, time.February, 3),
			expectedEnd:   date(2020, time.February, 16),
		},
		{
			name:          "should handle fixed-length dates before the anchor",
			policy:        FixedPolicy(date(2020, time.January, 6), 14),
			date:          date(2020, time.January, 1),
			expectedStart: date(2019, time.December, 23),
			expectedEnd:   date(2020, time.January, 5),
		},
		{
			name:          "should return the first half of a semi-monthly month",
			policy:        SemiMonthlyPolicy(),
			date:          date(2024, time.February, 15),
			expectedStart: date(2024, time.February, 1),
			expectedEnd:   date(2024, time.February, 15),
		},
		{
			name:          "should return the second half of a semi-monthly month",
			policy:        SemiMonthlyPolicy(),
			date:          date(2024, time.February, 16),
			expectedStart: date(2024, time.February, 16),
			expectedEnd:   date(2024, time.February, 29),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			calc := NewCalculator(tt.policy)

			// Act
			p, err := calc.CurrentPeriod(tt.date.Add(13 * time.Hour))

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStart, p.Start)
			assert.Equal(t, tt.expectedEnd, p.End)
			assert.True(t, p.Contains(tt.date))
		})
	}
}

func TestCalculator_PeriodOffsetBy(t *testing.T) {
	t.Run("should roll back across the year boundary", func(t *testing.T) {
		calc := NewCalculator(MonthlyPolicy(1))

		p, err := calc.PeriodOffsetBy(date(2024, time.March, 10), 14)

		require.NoError(t, err)
		assert.Equal(t, date(2023, time.January, 1), p.Start)
		assert.Equal(t, date(2023, time.January, 31), p.End)
	})

	t.Run("should step fixed-length periods by whole lengths", func(t *testing.T) {
		calc := NewCalculator(FixedPolicy(date(2020, time.January, 6), 14))

		p, err := calc.PeriodOffsetBy(date(2020, time.February, 10), 2)

		require.NoError(t, err)
		assert.Equal(t, date(2020, time.January, 6), p.Start)
		assert.Equal(t, date(2020, time.January, 19), p.End)
	})

	policies := map[string]*Policy{
		"monthly":      MonthlyPolicy(1),
		"monthly-31":   MonthlyPolicy(31),
		"monthly-10":   MonthlyPolicy(10),
		"fixed":        FixedPolicy(date(2020, time.January, 6), 14),
		"semi-monthly": SemiMonthlyPolicy(),
	}
	for name, policy := range policies {
		t.Run("should compose single steps into one offset for "+name, func(t *testing.T) {
			calc := NewCalculator(policy)
			start := date(2024, time.March, 5)

			for delta := 1; delta <= 26; delta++ {
				direct, err := calc.PeriodOffsetBy(start, delta)
				require.NoError(t, err)

				stepped, err := calc.CurrentPeriod(start)
				require.NoError(t, err)
				for i := 0; i < delta; i++ {
					stepped, err = calc.Previous(stepped)
					require.NoError(t, err)
				}

				assert.Equal(t, direct, stepped, "delta %d", delta)
			}
		})

		t.Run("should produce contiguous periods for "+name, func(t *testing.T) {
			calc := NewCalculator(policy)
			current, err := calc.CurrentPeriod(date(2025, time.January, 1))
			require.NoError(t, err)

			for i := 0; i < 30; i++ {
				prev, err := calc.Previous(current)
				require.NoError(t, err)
				assert.Equal(t, current.Start.AddDate(0, 0, -1), prev.End)
				assert.False(t, prev.End.Before(prev.Start))
				current = prev
			}
		})
	}

	t.Run("should reject offsets into the future", func(t *testing.T) {
		calc := NewCalculator(MonthlyPolicy(1))

		_, err := calc.PeriodOffsetBy(date(2024, time.March, 10), -1)

		require.Error(t, err)
		assert.True(t, errors.IsErrorType(err, errors.ErrorTypeUnsupportedDirection))
	})
}

func TestCalculator_Unconfigured(t *testing.T) {
	tests := []struct {
		name   string
		policy *Policy
	}{
		{name: "should fail without a policy", policy: nil},
		{name: "should fail with an out of range start day", policy: MonthlyPolicy(0)},
		{name: "should fail with a zero period length", policy: FixedPolicy(date(2020, time.January, 6), 0)},
		{name: "should fail without an anchor date", policy: &Policy{Kind: KindFixedLength, LengthDays: 7}},
		{name: "should fail for an unknown kind", policy: &Policy{Kind: "quarterly"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCalculator(tt.policy).CurrentPeriod(date(2024, time.March, 10))

			require.Error(t, err)
			assert.True(t, errors.IsErrorType(err, errors.ErrorTypeUnconfiguredPeriod))
		})
	}
}

func TestPeriod_RangeAndBounds(t *testing.T) {
	p := Period{Start: date(2024, time.March, 1), End: date(2024, time.March, 31)}

	from, to := p.Range()
	assert.Equal(t, date(2024, time.March, 1), from)
	assert.Equal(t, date(2024, time.April, 1), to)

	start, end := p.Bounds()
	assert.Equal(t, date(2024, time.March, 1), start)
	assert.Equal(t, time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC), end)

	assert.Equal(t, 31, p.Days())
	assert.Equal(t, "2024-03-01..2024-03-31", p.String())
}
