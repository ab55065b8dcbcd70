package interval

import (
	"sort"
	"time"
)

// Span is a half-open interval [Start, End) on the UTC timeline.
type Span struct {
	Start time.Time
	End   time.Time
}

func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Minutes returns the span length in whole minutes, rounded down.
func (s Span) Minutes() int {
	return int(s.End.Sub(s.Start).Milliseconds() / 60000)
}

// Overlaps reports whether a and b intersect. Touching endpoints
// ([a,b) followed by [b,c)) are not an overlap.
func Overlaps(a, b Span) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Merge coalesces the spans into a sorted, disjoint list. Overlapping and
// touching neighbors are folded together; touching matters here because a
// gap of zero width is no gap at all.
func Merge(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}

	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []Span{sorted[0]}
	for _, s := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !s.Start.After(last.End) {
			if s.End.After(last.End) {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// Gaps returns the maximal free spans inside [windowStart, windowEnd) that
// are not covered by merged, dropping any gap shorter than minDuration.
// merged must be sorted and disjoint (the output of Merge); spans may extend
// past the window and are clamped to it. An empty merged list yields the
// whole window as a single gap, subject to the minimum.
func Gaps(merged []Span, windowStart, windowEnd time.Time, minDuration time.Duration) []Span {
	var gaps []Span
	emit := func(start, end time.Time) {
		if end.After(start) && end.Sub(start) >= minDuration {
			gaps = append(gaps, Span{Start: start, End: end})
		}
	}

	cursor := windowStart
	for _, m := range merged {
		if !cursor.Before(windowEnd) {
			break
		}
		if m.Start.After(cursor) {
			end := m.Start
			if end.After(windowEnd) {
				end = windowEnd
			}
			emit(cursor, end)
		}
		if m.End.After(cursor) {
			cursor = m.End
		}
	}
	if cursor.Before(windowEnd) {
		emit(cursor, windowEnd)
	}
	return gaps
}
