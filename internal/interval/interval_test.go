package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// at builds an instant on 2026-02-08 for readability.
func at(hour, min int) time.Time {
	return time.Date(2026, 2, 8, hour, min, 0, 0, time.UTC)
}

func span(startHour, startMin, endHour, endMin int) Span {
	return Span{Start: at(startHour, startMin), End: at(endHour, endMin)}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want bool
	}{
		{
			name: "disjoint",
			a:    span(9, 0, 10, 0),
			b:    span(11, 0, 12, 0),
			want: false,
		},
		{
			name: "touching endpoints do not overlap",
			a:    span(9, 0, 10, 0),
			b:    span(10, 0, 11, 0),
			want: false,
		},
		{
			name: "partial overlap",
			a:    span(9, 0, 10, 30),
			b:    span(10, 0, 11, 0),
			want: true,
		},
		{
			name: "containment",
			a:    span(9, 0, 12, 0),
			b:    span(10, 0, 11, 0),
			want: true,
		},
		{
			name: "identical",
			a:    span(9, 0, 10, 0),
			b:    span(9, 0, 10, 0),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			// Overlap is symmetric.
			assert.Equal(t, tt.want, Overlaps(tt.b, tt.a))
		})
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name  string
		spans []Span
		want  []Span
	}{
		{
			name:  "empty input",
			spans: nil,
			want:  nil,
		},
		{
			name:  "single span",
			spans: []Span{span(9, 0, 10, 0)},
			want:  []Span{span(9, 0, 10, 0)},
		},
		{
			name:  "unsorted disjoint spans are sorted",
			spans: []Span{span(11, 0, 12, 0), span(9, 0, 10, 0)},
			want:  []Span{span(9, 0, 10, 0), span(11, 0, 12, 0)},
		},
		{
			name:  "overlapping spans coalesce",
			spans: []Span{span(9, 0, 10, 30), span(10, 0, 11, 0)},
			want:  []Span{span(9, 0, 11, 0)},
		},
		{
			name:  "touching spans coalesce",
			spans: []Span{span(9, 0, 10, 0), span(10, 0, 11, 0)},
			want:  []Span{span(9, 0, 11, 0)},
		},
		{
			name:  "contained span is absorbed",
			spans: []Span{span(9, 0, 12, 0), span(10, 0, 11, 0)},
			want:  []Span{span(9, 0, 12, 0)},
		},
		{
			name: "mixed",
			spans: []Span{
				span(14, 0, 15, 0),
				span(9, 0, 10, 0),
				span(9, 30, 11, 0),
				span(11, 0, 11, 15),
			},
			want: []Span{span(9, 0, 11, 15), span(14, 0, 15, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.spans))
		})
	}
}

func TestGaps(t *testing.T) {
	tests := []struct {
		name        string
		merged      []Span
		windowStart time.Time
		windowEnd   time.Time
		minDuration time.Duration
		want        []Span
	}{
		{
			name:        "empty busy list yields whole window",
			merged:      nil,
			windowStart: at(9, 0),
			windowEnd:   at(18, 0),
			want:        []Span{span(9, 0, 18, 0)},
		},
		{
			name:        "busy block in the middle",
			merged:      []Span{span(12, 0, 13, 0)},
			windowStart: at(9, 0),
			windowEnd:   at(18, 0),
			want:        []Span{span(9, 0, 12, 0), span(13, 0, 18, 0)},
		},
		{
			name:        "busy block at window start",
			merged:      []Span{span(9, 0, 10, 0)},
			windowStart: at(9, 0),
			windowEnd:   at(12, 0),
			want:        []Span{span(10, 0, 12, 0)},
		},
		{
			name:        "busy block covering whole window",
			merged:      []Span{span(9, 0, 18, 0)},
			windowStart: at(9, 0),
			windowEnd:   at(18, 0),
			want:        nil,
		},
		{
			name:        "busy blocks extending past the window are clamped",
			merged:      []Span{span(8, 0, 10, 0), span(17, 0, 19, 0)},
			windowStart: at(9, 0),
			windowEnd:   at(18, 0),
			want:        []Span{span(10, 0, 17, 0)},
		},
		{
			name:        "short gaps filtered by minimum duration",
			merged:      []Span{span(10, 0, 10, 30), span(10, 45, 11, 0)},
			windowStart: at(10, 0),
			windowEnd:   at(12, 0),
			minDuration: time.Hour,
			want:        []Span{span(11, 0, 12, 0)},
		},
		{
			name:        "zero minimum keeps every positive gap",
			merged:      []Span{span(10, 0, 10, 30), span(10, 45, 11, 0)},
			windowStart: at(10, 0),
			windowEnd:   at(12, 0),
			want:        []Span{span(10, 30, 10, 45), span(11, 0, 12, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Gaps(tt.merged, tt.windowStart, tt.windowEnd, tt.minDuration))
		})
	}
}

func TestSpanMinutes(t *testing.T) {
	s := Span{Start: at(0, 0), End: at(0, 0).Add(90*time.Minute + 59*time.Second)}
	assert.Equal(t, 90, s.Minutes())
}
