package booking

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/glasswing-dev/reservation-backend/internal/recurrence"
)

// Resolver materializes the busy set of a resource over a window: single
// bookings plus expanded recurring occurrences with exceptions applied.
type Resolver struct {
	repo   Repository
	logger *slog.Logger
}

func NewResolver(repo Repository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{repo: repo, logger: logger}
}

// BusySet returns every interval on the resource that overlaps [from, to),
// sorted by start (stable). Recurring bookings are expanded over
// [from − D, to] so that an occurrence starting before the window but
// ending inside it is still produced; D is each booking's own template
// duration.
func (r *Resolver) BusySet(ctx context.Context, resourceID string, from, to time.Time) ([]BusyInstance, error) {
	singles, err := r.repo.ListSingleInWindow(ctx, resourceID, from, to)
	if err != nil {
		return nil, err
	}

	recurring, err := r.repo.ListRecurringStartingBefore(ctx, resourceID, to)
	if err != nil {
		return nil, err
	}

	busy := make([]BusyInstance, 0, len(singles))
	for _, b := range singles {
		busy = append(busy, BusyInstance{
			BookingID: b.ID,
			Start:     b.StartTime,
			End:       b.EndTime,
		})
	}

	for _, b := range recurring {
		duration := b.EndTime.Sub(b.StartTime)
		occurrences, err := recurrence.Expand(
			b.Rule.Rule,
			b.StartTime, b.EndTime,
			from.Add(-duration), to,
			toRecurrenceExceptions(b.Exceptions),
		)
		if err != nil {
			// A persisted rule that no longer parses must not take down the
			// whole query; skip the one booking and leave a trace.
			r.logger.Error("skipping booking with unparseable recurrence rule",
				slog.String("booking_id", b.ID),
				slog.Any("err", err),
			)
			continue
		}

		for _, occ := range occurrences {
			if occ.Start.Before(to) && occ.End.After(from) {
				busy = append(busy, BusyInstance{
					BookingID:   b.ID,
					Start:       occ.Start,
					End:         occ.End,
					IsRecurring: true,
				})
			}
		}
	}

	sort.SliceStable(busy, func(i, j int) bool {
		return busy[i].Start.Before(busy[j].Start)
	})
	return busy, nil
}

func toRecurrenceExceptions(exceptions []Exception) []recurrence.Exception {
	if len(exceptions) == 0 {
		return nil
	}
	out := make([]recurrence.Exception, len(exceptions))
	for i, ex := range exceptions {
		out[i] = recurrence.Exception{
			Date:         ex.Date,
			ReplaceStart: ex.ReplaceStart,
			ReplaceEnd:   ex.ReplaceEnd,
		}
	}
	return out
}
