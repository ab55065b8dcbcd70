package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestExpandWeekly(t *testing.T) {
	// Mondays at 10:00 UTC, four occurrences.
	baseStart := ts(2025, time.November, 3, 10, 0)
	baseEnd := ts(2025, time.November, 3, 11, 0)
	windowStart := ts(2025, time.November, 1, 0, 0)
	windowEnd := ts(2025, time.November, 30, 0, 0)

	occs, err := Expand("FREQ=WEEKLY;BYDAY=MO;COUNT=4", baseStart, baseEnd, windowStart, windowEnd, nil)
	require.NoError(t, err)

	want := []Occurrence{
		{Start: ts(2025, time.November, 3, 10, 0), End: ts(2025, time.November, 3, 11, 0)},
		{Start: ts(2025, time.November, 10, 10, 0), End: ts(2025, time.November, 10, 11, 0)},
		{Start: ts(2025, time.November, 17, 10, 0), End: ts(2025, time.November, 17, 11, 0)},
		{Start: ts(2025, time.November, 24, 10, 0), End: ts(2025, time.November, 24, 11, 0)},
	}
	assert.Equal(t, want, occs)
}

func TestExpandSkipException(t *testing.T) {
	baseStart := ts(2025, time.November, 3, 10, 0)
	baseEnd := ts(2025, time.November, 3, 11, 0)
	exceptions := []Exception{
		{Date: ts(2025, time.November, 10, 0, 0)},
	}

	occs, err := Expand("FREQ=WEEKLY;BYDAY=MO;COUNT=4", baseStart, baseEnd,
		ts(2025, time.November, 1, 0, 0), ts(2025, time.November, 30, 0, 0), exceptions)
	require.NoError(t, err)

	require.Len(t, occs, 3)
	for _, o := range occs {
		assert.NotEqual(t, "2025-11-10", DateKey(o.Start))
	}
}

func TestExpandReplacementException(t *testing.T) {
	baseStart := ts(2025, time.November, 3, 10, 0)
	baseEnd := ts(2025, time.November, 3, 11, 0)
	exceptions := []Exception{
		{
			Date:         ts(2025, time.November, 10, 0, 0),
			ReplaceStart: ptr(ts(2025, time.November, 10, 14, 0)),
			ReplaceEnd:   ptr(ts(2025, time.November, 10, 15, 0)),
		},
	}

	occs, err := Expand("FREQ=WEEKLY;BYDAY=MO;COUNT=4", baseStart, baseEnd,
		ts(2025, time.November, 1, 0, 0), ts(2025, time.November, 30, 0, 0), exceptions)
	require.NoError(t, err)

	require.Len(t, occs, 4)
	assert.Equal(t, ts(2025, time.November, 10, 14, 0), occs[1].Start)
	assert.Equal(t, ts(2025, time.November, 10, 15, 0), occs[1].End)
}

func TestExpandWindowBoundsInclusive(t *testing.T) {
	// Daily at midnight; an occurrence starting exactly at the window end
	// must still be produced.
	baseStart := ts(2025, time.December, 1, 0, 0)
	baseEnd := ts(2025, time.December, 1, 1, 0)

	occs, err := Expand("FREQ=DAILY;COUNT=10", baseStart, baseEnd,
		ts(2025, time.December, 1, 0, 0), ts(2025, time.December, 3, 0, 0), nil)
	require.NoError(t, err)
	require.Len(t, occs, 3)
	assert.Equal(t, ts(2025, time.December, 3, 0, 0), occs[2].Start)
}

func TestExpandAppliesExceptionsIdempotently(t *testing.T) {
	baseStart := ts(2025, time.November, 3, 10, 0)
	baseEnd := ts(2025, time.November, 3, 11, 0)
	exceptions := []Exception{
		{Date: ts(2025, time.November, 10, 0, 0)},
		// Duplicate date: the later entry wins.
		{
			Date:         ts(2025, time.November, 10, 0, 0),
			ReplaceStart: ptr(ts(2025, time.November, 11, 9, 0)),
			ReplaceEnd:   ptr(ts(2025, time.November, 11, 10, 0)),
		},
	}

	first, err := Expand("FREQ=WEEKLY;BYDAY=MO;COUNT=4", baseStart, baseEnd,
		ts(2025, time.November, 1, 0, 0), ts(2025, time.November, 30, 0, 0), exceptions)
	require.NoError(t, err)
	second, err := Expand("FREQ=WEEKLY;BYDAY=MO;COUNT=4", baseStart, baseEnd,
		ts(2025, time.November, 1, 0, 0), ts(2025, time.November, 30, 0, 0), exceptions)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first, 4)
	// The replacement from the winning duplicate, on a different date.
	assert.Equal(t, ts(2025, time.November, 11, 9, 0), first[1].Start)
}

func TestExpandRuleWithOwnDTSTART(t *testing.T) {
	text := "DTSTART:20251103T100000Z\nRRULE:FREQ=WEEKLY;COUNT=2"
	occs, err := Expand(text,
		ts(2025, time.November, 3, 10, 0), ts(2025, time.November, 3, 11, 0),
		ts(2025, time.November, 1, 0, 0), ts(2025, time.November, 30, 0, 0), nil)
	require.NoError(t, err)
	require.Len(t, occs, 2)
	assert.Equal(t, ts(2025, time.November, 3, 10, 0), occs[0].Start)
}

func TestExpandInvalidRule(t *testing.T) {
	_, err := Expand("INVALID",
		ts(2025, time.November, 3, 10, 0), ts(2025, time.November, 3, 11, 0),
		ts(2025, time.November, 1, 0, 0), ts(2025, time.November, 30, 0, 0), nil)
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestValidate(t *testing.T) {
	base := ts(2025, time.November, 3, 10, 0)
	assert.NoError(t, Validate("FREQ=WEEKLY;BYDAY=MO;COUNT=4", base))
	assert.NoError(t, Validate("RRULE:FREQ=DAILY", base))
	assert.ErrorIs(t, Validate("INVALID", base), ErrInvalidRule)
	assert.ErrorIs(t, Validate("FREQ=SOMETIMES", base), ErrInvalidRule)
}

func TestIsInfinite(t *testing.T) {
	tests := []struct {
		rule string
		want bool
	}{
		{"FREQ=WEEKLY;BYDAY=MO", true},
		{"FREQ=WEEKLY;COUNT=4", false},
		{"FREQ=DAILY;UNTIL=20260101T000000Z", false},
		{"RRULE:FREQ=MONTHLY", true},
	}
	for _, tt := range tests {
		got, err := IsInfinite(tt.rule)
		require.NoError(t, err, tt.rule)
		assert.Equal(t, tt.want, got, tt.rule)
	}

	_, err := IsInfinite("INVALID")
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestBuildExceptionIndexLastWriteWins(t *testing.T) {
	ex1 := Exception{Date: ts(2025, time.November, 10, 0, 0)}
	ex2 := Exception{
		Date:         ts(2025, time.November, 10, 0, 0),
		ReplaceStart: ptr(ts(2025, time.November, 10, 14, 0)),
		ReplaceEnd:   ptr(ts(2025, time.November, 10, 15, 0)),
	}

	index := BuildExceptionIndex([]Exception{ex1, ex2})
	require.Len(t, index, 1)
	assert.NotNil(t, index["2025-11-10"].ReplaceStart)
}
