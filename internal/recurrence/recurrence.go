package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// ErrInvalidRule marks recurrence rule text that does not parse as an
// RFC 5545 RRULE.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// Exception overrides the occurrence whose start falls on Date (a UTC
// calendar date). A nil replacement pair skips the occurrence entirely; a
// non-nil pair rewrites it to [ReplaceStart, ReplaceEnd), which may fall on
// a different date than the original occurrence.
type Exception struct {
	Date         time.Time
	ReplaceStart *time.Time
	ReplaceEnd   *time.Time
}

// Occurrence is one materialized interval produced by expanding a rule.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

const dateKeyLayout = "2006-01-02"

// DateKey returns the UTC calendar-date key used to match occurrences
// against exceptions.
func DateKey(t time.Time) string {
	return t.UTC().Format(dateKeyLayout)
}

// ruleLine extracts the bare RRULE content from text that may carry an
// "RRULE:" prefix or span multiple ICS lines.
func ruleLine(text string) string {
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "RRULE:") {
			return strings.TrimPrefix(line, "RRULE:")
		}
	}
	return strings.TrimSpace(text)
}

// parseSet parses rule text into an expandable set. Text that carries its
// own DTSTART is taken as-is; otherwise DTSTART is bound to baseStart.
func parseSet(text string, baseStart time.Time) (*rrule.Set, error) {
	if strings.Contains(text, "DTSTART") {
		return rrule.StrToRRuleSet(text)
	}
	dtstart := baseStart.UTC().Format("20060102T150405Z")
	return rrule.StrToRRuleSet(fmt.Sprintf("DTSTART:%s\nRRULE:%s", dtstart, ruleLine(text)))
}

// Validate reports whether the rule text parses. baseStart stands in as
// DTSTART when the text carries none.
func Validate(text string, baseStart time.Time) error {
	if _, err := parseSet(text, baseStart); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return nil
}

// IsInfinite reports whether the rule carries neither COUNT nor UNTIL.
// Infinite rules are fine to persist: reads always expand against a bounded
// window, so the flag is bookkeeping only.
func IsInfinite(text string) (bool, error) {
	opt, err := rrule.StrToROption(ruleLine(text))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return opt.Count == 0 && opt.Until.IsZero(), nil
}

// BuildExceptionIndex keys the exceptions by UTC calendar date. When two
// exceptions share a date the last one in list order wins; duplicates are
// permitted and not rejected.
func BuildExceptionIndex(exceptions []Exception) map[string]Exception {
	index := make(map[string]Exception, len(exceptions))
	for _, ex := range exceptions {
		index[DateKey(ex.Date)] = ex
	}
	return index
}

// Expand materializes the rule's occurrences whose starts fall inside
// [windowStart, windowEnd] (inclusive at both bounds), applying per-date
// exceptions. The base interval [baseStart, baseEnd) provides DTSTART when
// the text has none and the duration of every occurrence. Output preserves
// the order the rule produces.
//
// Callers must pass a bounded window: infinite rules are only ever expanded
// lazily against it.
func Expand(text string, baseStart, baseEnd, windowStart, windowEnd time.Time, exceptions []Exception) ([]Occurrence, error) {
	set, err := parseSet(text, baseStart)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	duration := baseEnd.Sub(baseStart)
	index := BuildExceptionIndex(exceptions)

	var occurrences []Occurrence
	for _, start := range set.Between(windowStart, windowEnd, true) {
		ex, overridden := index[DateKey(start)]
		switch {
		case overridden && ex.ReplaceStart != nil:
			occurrences = append(occurrences, Occurrence{
				Start: ex.ReplaceStart.UTC(),
				End:   ex.ReplaceEnd.UTC(),
			})
		case overridden:
			// Skipped occurrence.
		default:
			occurrences = append(occurrences, Occurrence{Start: start, End: start.Add(duration)})
		}
	}
	return occurrences, nil
}
