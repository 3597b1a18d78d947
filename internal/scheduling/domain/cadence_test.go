package domain_test

import (
	"testing"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOracleHint_NextOccurrence(t *testing.T) {
	// Monday 2024-01-01 20:00 local
	now := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	require.Equal(t, time.Monday, now.Weekday())

	tests := []struct {
		name string
		hint domain.OracleHint
		want time.Time
	}{
		{
			name: "same weekday, hour already passed, rolls forward exactly 7 days",
			hint: domain.OracleHint{Weekday: time.Monday, Hour: 18},
			want: time.Date(2024, 1, 8, 18, 0, 0, 0, time.UTC),
		},
		{
			name: "same weekday, hour still ahead",
			hint: domain.OracleHint{Weekday: time.Monday, Hour: 21},
			want: time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC),
		},
		{
			name: "later weekday this week",
			hint: domain.OracleHint{Weekday: time.Thursday, Hour: 9},
			want: time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "earlier weekday wraps to next week",
			hint: domain.OracleHint{Weekday: time.Sunday, Hour: 12},
			want: time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "minute precision keeps same-day slot alive",
			hint: domain.OracleHint{Weekday: time.Monday, Hour: 20, Minute: 30},
			want: time.Date(2024, 1, 1, 20, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.hint.NextOccurrence(now)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.After(now), "resolved slot must be in the future")
		})
	}
}

func TestOracleHint_NextOccurrenceExactMatchRollsForward(t *testing.T) {
	now := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)
	hint := domain.OracleHint{Weekday: time.Monday, Hour: 18}

	// A slot at exactly "now" already started, so it is not schedulable.
	got := hint.NextOccurrence(now)
	assert.Equal(t, time.Date(2024, 1, 8, 18, 0, 0, 0, time.UTC), got)
}

func TestCadenceStrategy_Validate(t *testing.T) {
	assert.NoError(t, domain.IntervalCadence(90*time.Minute).Validate())
	assert.ErrorIs(t, domain.IntervalCadence(0).Validate(), domain.ErrInvalidCadence)
	assert.ErrorIs(t, domain.IntervalCadence(-time.Hour).Validate(), domain.ErrInvalidCadence)

	assert.NoError(t, domain.OracleCadence(domain.OracleHint{Weekday: time.Friday, Hour: 19}).Validate())
	assert.ErrorIs(t, domain.OracleCadence().Validate(), domain.ErrNoOracleHints)

	assert.ErrorIs(t, domain.CadenceStrategy{Kind: "burst"}.Validate(), domain.ErrInvalidCadence)
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want time.Weekday
	}{
		{"monday", time.Monday},
		{"Monday", time.Monday},
		{" SUNDAY ", time.Sunday},
		{"wed", time.Wednesday},
		{"Sat", time.Saturday},
	}
	for _, tt := range tests {
		got, err := domain.ParseWeekday(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := domain.ParseWeekday("funday")
	assert.Error(t, err)
}

func TestDaysUntil(t *testing.T) {
	assert.Equal(t, 0, domain.DaysUntil(time.Monday, time.Monday))
	assert.Equal(t, 3, domain.DaysUntil(time.Monday, time.Thursday))
	assert.Equal(t, 6, domain.DaysUntil(time.Monday, time.Sunday))
	assert.Equal(t, 1, domain.DaysUntil(time.Saturday, time.Sunday))
}
